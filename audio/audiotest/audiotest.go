// Package audiotest synthesizes small WAV and MP3 payloads for tests.
package audiotest

import (
	"encoding/binary"
	"math"
)

// WAV returns a canonical 16-bit PCM WAV of the given length. The samples are
// a 440 Hz tone so fragments differ from one another.
func WAV(sampleRate, channels int, seconds float64) []byte {
	frames := int(float64(sampleRate) * seconds)
	blockAlign := channels * 2
	dataLen := frames * blockAlign

	b := make([]byte, 44+dataLen)
	copy(b[0:4], "RIFF")
	binary.LittleEndian.PutUint32(b[4:8], uint32(36+dataLen))
	copy(b[8:12], "WAVE")
	copy(b[12:16], "fmt ")
	binary.LittleEndian.PutUint32(b[16:20], 16)
	binary.LittleEndian.PutUint16(b[20:22], 1)
	binary.LittleEndian.PutUint16(b[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(b[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(b[28:32], uint32(sampleRate*blockAlign))
	binary.LittleEndian.PutUint16(b[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(b[34:36], 16)
	copy(b[36:40], "data")
	binary.LittleEndian.PutUint32(b[40:44], uint32(dataLen))

	for i := 0; i < frames; i++ {
		v := int16(8000 * math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate)))
		for ch := 0; ch < channels; ch++ {
			binary.LittleEndian.PutUint16(b[44+i*blockAlign+ch*2:], uint16(v))
		}
	}
	return b
}

// MP3FrameLen is the size of each frame produced by MP3.
const MP3FrameLen = 417

// MP3 returns frames MPEG-1 Layer III frames at 128 kbit/s, 44.1 kHz,
// optionally preceded by an ID3v2 tag of id3Size payload bytes.
func MP3(frames, id3Size int) []byte {
	var b []byte
	if id3Size > 0 {
		tag := make([]byte, 10+id3Size)
		copy(tag, "ID3")
		tag[3] = 4
		tag[6] = byte(id3Size>>21) & 0x7F
		tag[7] = byte(id3Size>>14) & 0x7F
		tag[8] = byte(id3Size>>7) & 0x7F
		tag[9] = byte(id3Size) & 0x7F
		b = append(b, tag...)
	}
	for i := 0; i < frames; i++ {
		f := make([]byte, MP3FrameLen)
		f[0], f[1], f[2], f[3] = 0xFF, 0xFB, 0x90, 0x64
		f[4] = byte(i)
		b = append(b, f...)
	}
	return b
}
