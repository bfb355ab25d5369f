package local

import (
	"context"
	"encoding/json"
	"math"

	"github.com/kbukum/hybridstt/logger"
	"github.com/kbukum/hybridstt/vector"
)

// Task selects transcription or translation into English.
type Task string

const (
	TaskTranscribe Task = "transcribe"
	TaskTranslate  Task = "translate"
)

// Job is one inference call.
type Job struct {
	Task        Task
	Audio       []byte
	FileName    string
	ContentType string
	// Path is set for engines that read from disk.
	Path     string
	Language string
	Prompt   string
}

// Output is an engine's result.
type Output struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
	// Confidence is set when the engine reports one directly.
	Confidence *float64        `json:"confidence"`
	Segments   []OutputSegment `json:"segments"`
	Raw        json.RawMessage `json:"-"`
}

// OutputSegment is one decoded span.
type OutputSegment struct {
	Text       string   `json:"text"`
	Start      float64  `json:"start"`
	End        float64  `json:"end"`
	AvgLogprob *float64 `json:"avg_logprob"`
	Score      *float64 `json:"score"`
}

// Engine runs whisper inference on this host.
type Engine interface {
	Name() string
	// NeedsFile reports whether Job.Path must be set.
	NeedsFile() bool
	// Load prepares the model. It may be slow.
	Load(ctx context.Context) error
	Run(ctx context.Context, job *Job) (*Output, error)
	// Ping checks the engine without running inference.
	Ping(ctx context.Context) error
	Close() error
}

// NewEngine builds the engine named in cfg.
func NewEngine(cfg Config, log *logger.Logger) (Engine, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Engine == EngineCLI {
		return NewCLIEngine(cfg, log), nil
	}
	return NewSidecarEngine(cfg, log)
}

// Confidence derives a [0,1] score from an engine output: the reported
// value, else exp of the mean segment avg_logprob, else the mean segment
// score, else 0.
func Confidence(out *Output) float64 {
	if out.Confidence != nil {
		return vector.Clamp01(*out.Confidence)
	}
	var sum float64
	var n int
	for _, s := range out.Segments {
		if s.AvgLogprob != nil {
			sum += *s.AvgLogprob
			n++
		}
	}
	if n > 0 {
		return vector.Clamp01(math.Exp(sum / float64(n)))
	}
	sum, n = 0, 0
	for _, s := range out.Segments {
		if s.Score != nil {
			sum += *s.Score
			n++
		}
	}
	if n > 0 {
		return vector.Clamp01(sum / float64(n))
	}
	return 0
}
