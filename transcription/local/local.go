// Package local implements the on-host whisper transcription backend.
package local

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/kbukum/hybridstt/errors"
	"github.com/kbukum/hybridstt/logger"
	"github.com/kbukum/hybridstt/observability"
	"github.com/kbukum/hybridstt/provider"
	"github.com/kbukum/hybridstt/transcription"
)

// Backend runs segments through the shared local Model. Every attempt
// carries a confidence.
type Backend struct {
	cfg     Config
	model   *Model
	log     *logger.Logger
	metrics *observability.Metrics
}

var _ transcription.Backend = (*Backend)(nil)

// New creates a local backend around model.
func New(cfg Config, model *Model, log *logger.Logger, metrics *observability.Metrics) (*Backend, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if model == nil {
		return nil, fmt.Errorf("local: model is required")
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Backend{cfg: cfg, model: model, log: log.WithComponent("local"), metrics: metrics}, nil
}

// Factory builds local backends sharing model.
func Factory(model *Model, log *logger.Logger, metrics *observability.Metrics) provider.Factory[transcription.Backend] {
	return func(m map[string]any) (transcription.Backend, error) {
		var cfg Config
		if err := transcription.DecodeConfig(m, &cfg); err != nil {
			return nil, err
		}
		return New(cfg, model, log, metrics)
	}
}

func (b *Backend) Name() string             { return b.cfg.Name }
func (b *Backend) Kind() transcription.Kind { return transcription.KindLocal }

// IsAvailable is false when the model failed to load or the engine is gone.
func (b *Backend) IsAvailable(ctx context.Context) bool {
	st, _ := b.model.Status(ctx)
	return st != transcription.StatusUnavailable
}

func (b *Backend) SupportsLanguage(lang string) bool {
	return transcription.SupportsLanguage(b.cfg.Languages, lang)
}

func (b *Backend) Status(ctx context.Context) transcription.BackendStatus {
	st, detail := b.model.Status(ctx)
	return transcription.BackendStatus{Name: b.Name(), Kind: b.Kind(), Status: st, Detail: detail}
}

func (b *Backend) Transcribe(ctx context.Context, req *transcription.Request) *transcription.Attempt {
	return b.run(ctx, req, TaskTranscribe)
}

func (b *Backend) Translate(ctx context.Context, req *transcription.Request) *transcription.Attempt {
	return b.run(ctx, req, TaskTranslate)
}

func (b *Backend) run(ctx context.Context, req *transcription.Request, task Task) *transcription.Attempt {
	start := time.Now()
	if req == nil || req.Segment == nil || len(req.Segment.Payload) == 0 {
		return b.finish(ctx, transcription.Failed(b, req, start, apperrors.InvalidInput("audio", "empty segment")))
	}
	if !b.SupportsLanguage(req.Language) {
		err := apperrors.UnsupportedLanguage(req.Language, b.Name())
		return b.finish(ctx, transcription.Failed(b, req, start, err))
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = b.cfg.Timeout()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	seg := req.Segment
	job := &Job{
		Task:        task,
		Audio:       seg.Payload,
		FileName:    seg.Filename(),
		ContentType: seg.Asset.Format.ContentType(),
		Language:    req.Language,
		Prompt:      req.Prompt,
	}
	if b.model.Engine().NeedsFile() {
		if req.Workspace == nil {
			return b.finish(ctx, transcription.Failed(b, req, start, fmt.Errorf("local: %s engine needs a fragment workspace", b.model.Engine().Name())))
		}
		path, err := req.Workspace.LocalFile(ctx, seg)
		if err != nil {
			return b.finish(ctx, transcription.Failed(b, req, start, err))
		}
		job.Path = path
	}

	out, err := b.model.Run(ctx, job)
	if err != nil {
		return b.finish(ctx, transcription.Failed(b, req, start, err))
	}

	lang := out.Language
	if lang == "" {
		lang = req.Language
	}
	duration := out.Duration
	if duration <= 0 {
		duration = seg.Duration
	}
	return b.finish(ctx, &transcription.Attempt{
		Backend:        b.Name(),
		Kind:           b.Kind(),
		SegmentIndex:   seg.Index,
		Text:           strings.TrimSpace(out.Text),
		Language:       lang,
		Confidence:     transcription.Float(Confidence(out)),
		Duration:       duration,
		ProcessingTime: time.Since(start),
		OK:             true,
		Raw:            out.Raw,
	})
}

func (b *Backend) finish(ctx context.Context, a *transcription.Attempt) *transcription.Attempt {
	b.metrics.RecordBackendCall(ctx, b.Name(), a.OK, a.Reason, a.ProcessingTime)
	fields := logger.DurationFields("local.call", a.ProcessingTime)
	fields["segment"] = a.SegmentIndex
	if !a.OK {
		fields["reason"] = a.Reason
		fields[logger.FieldError] = a.Err.Error()
		b.log.WithContext(ctx).Warn("local transcription failed", fields)
		return a
	}
	fields["confidence"] = *a.Confidence
	b.log.WithContext(ctx).Debug("local transcription ok", fields)
	return a
}
