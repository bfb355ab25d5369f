package audio

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/kbukum/hybridstt/process"
	"github.com/kbukum/hybridstt/provider"
)

// Decoder converts an asset the chunker cannot split into PCM WAV.
type Decoder interface {
	DecodeWAV(ctx context.Context, a *Asset) (*Asset, error)
}

// DecodeSampleRate is the rate decoded audio is resampled to.
const DecodeSampleRate = 16000

// defaultMaxDecoded is about 2.3 hours of 16 kHz mono 16-bit audio.
const defaultMaxDecoded = 256 << 20

// FFmpeg decodes any container ffmpeg understands to 16 kHz mono 16-bit
// PCM WAV, piping the payload through stdin and stdout.
type FFmpeg struct {
	binary     string
	maxDecoded int
	runner     provider.RequestResponse[process.Command, *process.Result]
}

// NewFFmpeg creates a decoder for binary (default "ffmpeg").
func NewFFmpeg(binary string, timeout time.Duration) *FFmpeg {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpeg{
		binary:     binary,
		maxDecoded: defaultMaxDecoded,
		runner:     process.NewRunner("ffmpeg", timeout, provider.ResilienceConfig{}),
	}
}

// DecodeWAV returns a new WAV asset with a's filename and language.
func (f *FFmpeg) DecodeWAV(ctx context.Context, a *Asset) (*Asset, error) {
	res, err := f.runner.Execute(ctx, process.Command{
		Binary: f.binary,
		Args: []string{
			"-hide_banner", "-loglevel", "error",
			"-i", "pipe:0",
			"-vn", "-ac", "1", "-ar", fmt.Sprint(DecodeSampleRate), "-acodec", "pcm_s16le",
			"-f", "wav", "pipe:1",
		},
		Stdin:     bytes.NewReader(a.Data),
		MaxOutput: f.maxDecoded + 1,
	})
	if err != nil {
		if res != nil && len(res.Stderr) > 0 {
			return nil, fmt.Errorf("ffmpeg: %w: %s", err, strings.TrimSpace(string(res.Stderr)))
		}
		return nil, fmt.Errorf("ffmpeg: %w", err)
	}
	if len(res.Stdout) > f.maxDecoded {
		return nil, fmt.Errorf("ffmpeg: decoded audio exceeds %d bytes", f.maxDecoded)
	}
	if DetectFormat(res.Stdout, "") != FormatWAV {
		return nil, fmt.Errorf("ffmpeg: output is not WAV")
	}
	name := strings.TrimSuffix(a.Filename, path.Ext(a.Filename)) + ".wav"
	return NewAsset(res.Stdout, name, a.Language)
}
