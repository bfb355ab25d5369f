package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/kbukum/hybridstt/errors"
)

const canonicalHeaderLen = 44

const (
	wavFormatPCM        = 0x0001
	wavFormatFloat      = 0x0003
	wavFormatExtensible = 0xFFFE
)

// wavInfo is the parsed layout of a RIFF/WAVE file.
type wavInfo struct {
	formatTag     uint16
	channels      uint16
	sampleRate    uint32
	byteRate      uint32
	blockAlign    uint16
	bitsPerSample uint16
	// dataOffset is where sample data starts; everything before it is header.
	dataOffset int
	// dataLen is the usable sample bytes, truncated to whole blocks.
	dataLen int
}

func (w *wavInfo) duration(dataBytes int) float64 {
	if w.byteRate == 0 {
		return 0
	}
	return float64(dataBytes) / float64(w.byteRate)
}

func parseWAV(data []byte) (*wavInfo, error) {
	if len(data) < 12 || !bytes.Equal(data[0:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) {
		return nil, fmt.Errorf("not a RIFF/WAVE file")
	}
	var w wavInfo
	haveFmt := false
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		switch id {
		case "fmt ":
			if size < 16 || body+size > len(data) {
				return nil, fmt.Errorf("truncated fmt chunk")
			}
			f := data[body : body+size]
			w.formatTag = binary.LittleEndian.Uint16(f[0:2])
			w.channels = binary.LittleEndian.Uint16(f[2:4])
			w.sampleRate = binary.LittleEndian.Uint32(f[4:8])
			w.byteRate = binary.LittleEndian.Uint32(f[8:12])
			w.blockAlign = binary.LittleEndian.Uint16(f[12:14])
			w.bitsPerSample = binary.LittleEndian.Uint16(f[14:16])
			if w.formatTag == wavFormatExtensible {
				if size < 40 {
					return nil, fmt.Errorf("truncated WAVE_FORMAT_EXTENSIBLE chunk")
				}
				// The sub-format GUID starts with the effective format code.
				w.formatTag = binary.LittleEndian.Uint16(f[24:26])
			}
			haveFmt = true
		case "data":
			if !haveFmt {
				return nil, fmt.Errorf("data chunk before fmt chunk")
			}
			avail := len(data) - body
			// Streamed WAVs often carry 0 or 0xFFFFFFFF here.
			if size == 0 || size > avail {
				size = avail
			}
			w.dataOffset = body
			if w.blockAlign == 0 {
				return nil, fmt.Errorf("block_align is zero")
			}
			w.dataLen = size - size%int(w.blockAlign)
			if w.formatTag != wavFormatPCM && w.formatTag != wavFormatFloat {
				return nil, fmt.Errorf("unsupported WAV encoding 0x%04x", w.formatTag)
			}
			if w.channels == 0 || w.sampleRate == 0 {
				return nil, fmt.Errorf("invalid channel count or sample rate")
			}
			return &w, nil
		}
		// Chunks are word aligned.
		pos = body + size + size%2
	}
	return nil, fmt.Errorf("no data chunk")
}

// canonicalHeader renders a 44-byte RIFF header describing dataLen bytes in
// w's sample format.
func canonicalHeader(w *wavInfo, dataLen int) []byte {
	h := make([]byte, canonicalHeaderLen)
	copy(h[0:4], "RIFF")
	binary.LittleEndian.PutUint32(h[4:8], uint32(36+dataLen))
	copy(h[8:12], "WAVE")
	copy(h[12:16], "fmt ")
	binary.LittleEndian.PutUint32(h[16:20], 16)
	binary.LittleEndian.PutUint16(h[20:22], w.formatTag)
	binary.LittleEndian.PutUint16(h[22:24], w.channels)
	binary.LittleEndian.PutUint32(h[24:28], w.sampleRate)
	binary.LittleEndian.PutUint32(h[28:32], w.byteRate)
	binary.LittleEndian.PutUint16(h[32:34], w.blockAlign)
	binary.LittleEndian.PutUint16(h[34:36], w.bitsPerSample)
	copy(h[36:40], "data")
	binary.LittleEndian.PutUint32(h[40:44], uint32(dataLen))
	return h
}

// splitWAV cuts the data chunk into windows of whole blocks so that each
// payload (header included) fits in maxBytes. Segment 0 keeps the original
// header with its size fields patched.
func splitWAV(a *Asset, maxBytes int64) ([]Segment, error) {
	w, err := parseWAV(a.Data)
	if err != nil {
		return nil, errors.ChunkingError(string(FormatWAV), err.Error())
	}
	block := int64(w.blockAlign)
	firstBlocks := (maxBytes - int64(w.dataOffset)) / block
	restBlocks := (maxBytes - canonicalHeaderLen) / block
	if firstBlocks <= 0 || restBlocks <= 0 {
		return nil, errors.ChunkingError(string(FormatWAV), fmt.Sprintf("segment limit %d bytes cannot hold a header and one sample frame", maxBytes))
	}

	dataStart := int64(w.dataOffset)
	dataEnd := dataStart + int64(w.dataLen)
	var segments []Segment
	pos := dataStart
	for idx := 0; pos < dataEnd; idx++ {
		n := restBlocks * block
		if idx == 0 {
			n = firstBlocks * block
		}
		end := min(pos+n, dataEnd)
		pcm := a.Data[pos:end]

		var payload []byte
		seg := Segment{Index: idx, Offset: pos, Asset: a, Duration: w.duration(len(pcm))}
		if idx == 0 {
			payload = make([]byte, 0, w.dataOffset+len(pcm))
			payload = append(payload, a.Data[:w.dataOffset]...)
			payload = append(payload, pcm...)
			binary.LittleEndian.PutUint32(payload[4:8], uint32(len(payload)-8))
			binary.LittleEndian.PutUint32(payload[w.dataOffset-4:w.dataOffset], uint32(len(pcm)))
			seg.Offset = 0
		} else {
			payload = append(canonicalHeader(w, len(pcm)), pcm...)
		}
		seg.Payload = payload
		seg.Length = end - seg.Offset
		segments = append(segments, seg)
		pos = end
	}
	if len(segments) == 0 {
		return nil, errors.ChunkingError(string(FormatWAV), "data chunk is empty")
	}
	// Trailing partial blocks and chunks after data belong to the last range.
	last := &segments[len(segments)-1]
	last.Length = a.Size - last.Offset
	return segments, nil
}
