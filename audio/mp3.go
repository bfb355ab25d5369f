package audio

import (
	"bytes"
	"fmt"

	"github.com/kbukum/hybridstt/errors"
)

// maxSyncSearch bounds how far past the ID3 tag the first frame may start.
const maxSyncSearch = 64 << 10

var (
	// Layer III bitrates in kbit/s by bitrate index.
	bitratesV1L3 = [16]int{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, -1}
	bitratesV2L3 = [16]int{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, -1}

	sampleRates = map[int][3]int{
		3: {44100, 48000, 32000}, // MPEG-1
		2: {22050, 24000, 16000}, // MPEG-2
		0: {11025, 12000, 8000},  // MPEG-2.5
	}
)

type mp3Frame struct {
	offset     int
	length     int
	samples    int
	sampleRate int
}

type mp3Scan struct {
	// start is the first frame offset; bytes before it are tags or junk.
	start  int
	frames []mp3Frame
}

// duration sums frames[from:to].
func (s *mp3Scan) duration(from, to int) float64 {
	var d float64
	for _, f := range s.frames[from:to] {
		d += float64(f.samples) / float64(f.sampleRate)
	}
	return d
}

// parseFrameHeader decodes a Layer III header at b[0:4].
func parseFrameHeader(b []byte) (mp3Frame, error) {
	if len(b) < 4 || b[0] != 0xFF || b[1]&0xE0 != 0xE0 {
		return mp3Frame{}, fmt.Errorf("no frame sync")
	}
	version := int(b[1]>>3) & 0x3
	layer := int(b[1]>>1) & 0x3
	if version == 1 {
		return mp3Frame{}, fmt.Errorf("reserved MPEG version")
	}
	if layer != 1 {
		return mp3Frame{}, fmt.Errorf("unsupported MPEG layer")
	}
	brIdx := int(b[2] >> 4)
	srIdx := int(b[2]>>2) & 0x3
	padding := int(b[2]>>1) & 0x1
	if srIdx == 3 {
		return mp3Frame{}, fmt.Errorf("reserved sample rate")
	}

	var kbps, samples, coeff int
	if version == 3 {
		kbps, samples, coeff = bitratesV1L3[brIdx], 1152, 144
	} else {
		kbps, samples, coeff = bitratesV2L3[brIdx], 576, 72
	}
	if kbps <= 0 {
		return mp3Frame{}, fmt.Errorf("free or invalid bitrate")
	}
	rate := sampleRates[version][srIdx]
	length := coeff*kbps*1000/rate + padding
	if length < 4 {
		return mp3Frame{}, fmt.Errorf("frame too short")
	}
	return mp3Frame{length: length, samples: samples, sampleRate: rate}, nil
}

// id3v2Len returns the size of a leading ID3v2 tag, footer included.
func id3v2Len(data []byte) int {
	if len(data) < 10 || !bytes.Equal(data[0:3], []byte("ID3")) {
		return 0
	}
	size := int(data[6]&0x7F)<<21 | int(data[7]&0x7F)<<14 | int(data[8]&0x7F)<<7 | int(data[9]&0x7F)
	n := 10 + size
	if data[5]&0x10 != 0 {
		n += 10
	}
	return min(n, len(data))
}

// scanMP3 walks every frame. The first frame must be confirmed by a second
// valid header directly after it; afterwards any sync loss before the
// trailing tag is an error.
func scanMP3(data []byte) (*mp3Scan, error) {
	pos := id3v2Len(data)
	limit := min(len(data), pos+maxSyncSearch)
	start := -1
	for i := pos; i+4 <= limit; i++ {
		f, err := parseFrameHeader(data[i:])
		if err != nil {
			continue
		}
		next := i + f.length
		if next == len(data) {
			start = i
			break
		}
		if _, err := parseFrameHeader(data[next:min(next+4, len(data))]); err == nil {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, fmt.Errorf("no MPEG frame sync found")
	}

	s := &mp3Scan{start: start}
	for pos = start; pos < len(data); {
		if isTrailingTag(data[pos:]) {
			break
		}
		f, err := parseFrameHeader(data[pos:])
		if err != nil {
			return nil, fmt.Errorf("frame sync lost at byte %d: %v", pos, err)
		}
		if pos+f.length > len(data) {
			// Truncated last frame: keep what is there.
			f.length = len(data) - pos
		}
		f.offset = pos
		s.frames = append(s.frames, f)
		pos += f.length
	}
	if len(s.frames) == 0 {
		return nil, fmt.Errorf("no MPEG frames")
	}
	return s, nil
}

func isTrailingTag(b []byte) bool {
	return (len(b) == 128 && bytes.HasPrefix(b, []byte("TAG"))) ||
		bytes.HasPrefix(b, []byte("APETAGEX")) ||
		bytes.HasPrefix(b, []byte("LYRICS"))
}

// splitMP3 packs whole frames greedily into payloads of at most maxBytes.
// Leading tags fall in segment 0's range and trailing tags in the last
// segment's range; neither is sent.
func splitMP3(a *Asset, maxBytes int64) ([]Segment, error) {
	s, err := scanMP3(a.Data)
	if err != nil {
		return nil, errors.ChunkingError(string(FormatMP3), err.Error())
	}

	var segments []Segment
	first := 0
	for first < len(s.frames) {
		from := s.frames[first].offset
		last := first
		for last+1 < len(s.frames) && int64(s.frames[last+1].offset+s.frames[last+1].length-from) <= maxBytes {
			last++
		}
		end := s.frames[last].offset + s.frames[last].length
		if int64(end-from) > maxBytes {
			return nil, errors.ChunkingError(string(FormatMP3),
				fmt.Sprintf("frame of %d bytes exceeds segment limit %d", end-from, maxBytes))
		}
		idx := len(segments)
		offset := int64(from)
		if idx == 0 {
			offset = 0
		}
		segments = append(segments, Segment{
			Index:    idx,
			Offset:   offset,
			Length:   int64(end) - offset,
			Duration: s.duration(first, last+1),
			Payload:  a.Data[from:end],
			Asset:    a,
		})
		first = last + 1
	}
	tail := &segments[len(segments)-1]
	tail.Length = a.Size - tail.Offset
	return segments, nil
}
