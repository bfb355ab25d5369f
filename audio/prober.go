package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/kbukum/hybridstt/process"
	"github.com/kbukum/hybridstt/provider"
)

// Prober measures the duration of formats the chunker does not parse.
type Prober interface {
	Probe(ctx context.Context, a *Asset) (float64, error)
}

// FFProbe runs ffprobe on the payload piped through stdin.
type FFProbe struct {
	binary string
	runner provider.RequestResponse[process.Command, *process.Result]
}

// NewFFProbe creates a prober for binary (default "ffprobe").
func NewFFProbe(binary string, timeout time.Duration) *FFProbe {
	if binary == "" {
		binary = "ffprobe"
	}
	return &FFProbe{binary: binary, runner: process.NewRunner("ffprobe", timeout, provider.ResilienceConfig{})}
}

type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe returns the container duration in seconds.
func (p *FFProbe) Probe(ctx context.Context, a *Asset) (float64, error) {
	res, err := p.runner.Execute(ctx, process.Command{
		Binary: p.binary,
		Args:   []string{"-v", "error", "-show_entries", "format=duration", "-of", "json", "-i", "pipe:0"},
		Stdin:  bytes.NewReader(a.Data),
	})
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}
	return parseFFProbe(res.Stdout)
}

func parseFFProbe(out []byte) (float64, error) {
	var parsed ffprobeOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return 0, fmt.Errorf("ffprobe: decode output: %w", err)
	}
	if parsed.Format.Duration == "" || parsed.Format.Duration == "N/A" {
		return 0, fmt.Errorf("ffprobe: duration unavailable")
	}
	d, err := strconv.ParseFloat(parsed.Format.Duration, 64)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("ffprobe: bad duration %q", parsed.Format.Duration)
	}
	return d, nil
}
