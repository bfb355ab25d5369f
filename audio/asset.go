package audio

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/kbukum/hybridstt/errors"
)

// Format is a container format.
type Format string

const (
	FormatWAV     Format = "wav"
	FormatMP3     Format = "mp3"
	FormatM4A     Format = "m4a"
	FormatOGG     Format = "ogg"
	FormatFLAC    Format = "flac"
	FormatUnknown Format = "unknown"
)

// DefaultAllowedFormats are accepted when no allow-list is configured.
var DefaultAllowedFormats = []Format{FormatWAV, FormatMP3, FormatM4A, FormatOGG, FormatFLAC}

var extensions = map[string]Format{
	".wav":  FormatWAV,
	".wave": FormatWAV,
	".mp3":  FormatMP3,
	".m4a":  FormatM4A,
	".mp4":  FormatM4A,
	".ogg":  FormatOGG,
	".oga":  FormatOGG,
	".opus": FormatOGG,
	".flac": FormatFLAC,
}

// ContentType returns the MIME type sent to backends.
func (f Format) ContentType() string {
	switch f {
	case FormatWAV:
		return "audio/wav"
	case FormatMP3:
		return "audio/mpeg"
	case FormatM4A:
		return "audio/mp4"
	case FormatOGG:
		return "audio/ogg"
	case FormatFLAC:
		return "audio/flac"
	default:
		return "application/octet-stream"
	}
}

// DetectFormat sniffs magic bytes and falls back to the filename extension.
func DetectFormat(data []byte, filename string) Format {
	switch {
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")):
		return FormatWAV
	case len(data) >= 4 && bytes.Equal(data[0:4], []byte("fLaC")):
		return FormatFLAC
	case len(data) >= 4 && bytes.Equal(data[0:4], []byte("OggS")):
		return FormatOGG
	case len(data) >= 8 && bytes.Equal(data[4:8], []byte("ftyp")):
		return FormatM4A
	case len(data) >= 3 && bytes.Equal(data[0:3], []byte("ID3")):
		return FormatMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return FormatMP3
	}
	if f, ok := extensions[strings.ToLower(filepath.Ext(filename))]; ok {
		return f
	}
	return FormatUnknown
}

// Asset is one uploaded recording. It is not modified after construction.
type Asset struct {
	Data []byte
	Size int64
	// Duration in seconds, 0 when unknown.
	Duration float64
	Format   Format
	Filename string
	Language string
	// ContentID is the hex SHA-256 of Data.
	ContentID string
}

// NewAsset wraps data, detecting the format and, for WAV and MP3, the
// duration from headers.
func NewAsset(data []byte, filename, language string) (*Asset, error) {
	if len(data) == 0 {
		return nil, errors.InvalidInput("audio", "empty audio payload")
	}
	sum := sha256.Sum256(data)
	a := &Asset{
		Data:      data,
		Size:      int64(len(data)),
		Format:    DetectFormat(data, filename),
		Filename:  filename,
		Language:  language,
		ContentID: hex.EncodeToString(sum[:]),
	}
	switch a.Format {
	case FormatWAV:
		if w, err := parseWAV(data); err == nil {
			a.Duration = w.duration(w.dataLen)
		}
	case FormatMP3:
		if s, err := scanMP3(data); err == nil {
			a.Duration = s.duration(0, len(s.frames))
		}
	}
	return a, nil
}

// WithDuration returns a copy carrying a probed duration.
func (a *Asset) WithDuration(seconds float64) *Asset {
	cp := *a
	cp.Duration = seconds
	return &cp
}

// CheckAllowed rejects formats outside allowed (DefaultAllowedFormats when empty).
func CheckAllowed(f Format, allowed []Format) error {
	if len(allowed) == 0 {
		allowed = DefaultAllowedFormats
	}
	if f == FormatUnknown || !slices.Contains(allowed, f) {
		return errors.InvalidInput("audio", "unsupported audio format "+string(f)).
			WithDetail("allowed", allowed)
	}
	return nil
}

// Segment is a contiguous slice of an asset. Payload is what backends
// receive; for WAV fragments it carries its own header.
type Segment struct {
	Index  int
	Offset int64
	Length int64
	// Duration in seconds, 0 when unknown.
	Duration float64
	Payload  []byte
	Asset    *Asset
}

// Filename is the name sent with the payload in multipart uploads.
func (s *Segment) Filename() string {
	ext := string(s.Asset.Format)
	if s.Asset.Format == FormatUnknown {
		ext = "bin"
	}
	return "segment-" + strconv.Itoa(s.Index) + "." + ext
}
