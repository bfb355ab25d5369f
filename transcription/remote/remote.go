// Package remote implements the OpenAI-compatible transcription backend.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/kbukum/hybridstt/errors"
	"github.com/kbukum/hybridstt/httpclient"
	"github.com/kbukum/hybridstt/logger"
	"github.com/kbukum/hybridstt/observability"
	"github.com/kbukum/hybridstt/provider"
	"github.com/kbukum/hybridstt/resilience"
	"github.com/kbukum/hybridstt/transcription"
	"github.com/kbukum/hybridstt/version"
)

const (
	pathTranscriptions = "/audio/transcriptions"
	pathTranslations   = "/audio/translations"
	pathModels         = "/models"

	healthTimeout = 5 * time.Second
)

// Backend calls /audio/transcriptions and /audio/translations.
type Backend struct {
	cfg       Config
	maxUpload int64
	client    *httpclient.Client
	state     *provider.ResilienceState
	log       *logger.Logger
	metrics   *observability.Metrics
}

var _ transcription.Backend = (*Backend)(nil)

// New creates a remote backend. metrics may be nil.
func New(cfg Config, log *logger.Logger, metrics *observability.Metrics) (*Backend, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	maxUpload, _ := cfg.MaxUploadBytes()

	hc := httpclient.Config{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout(),
		Headers: map[string]string{"User-Agent": version.UserAgent()},
	}
	if cfg.APIKey != "" {
		hc.Auth = httpclient.BearerAuth(cfg.APIKey)
	}
	client, err := httpclient.New(hc)
	if err != nil {
		return nil, fmt.Errorf("remote: %w", err)
	}

	if log == nil {
		log = logger.NewNop()
	}
	return &Backend{
		cfg:       cfg,
		maxUpload: maxUpload,
		client:    client,
		state:     provider.BuildResilience(cfg.resilience()),
		log:       log.WithComponent("remote"),
		metrics:   metrics,
	}, nil
}

// Factory builds remote backends from a config map.
func Factory(log *logger.Logger, metrics *observability.Metrics) provider.Factory[transcription.Backend] {
	return func(m map[string]any) (transcription.Backend, error) {
		var cfg Config
		if err := transcription.DecodeConfig(m, &cfg); err != nil {
			return nil, err
		}
		return New(cfg, log, metrics)
	}
}

func (b *Backend) Name() string             { return b.cfg.Name }
func (b *Backend) Kind() transcription.Kind { return transcription.KindRemote }

// IsAvailable is false while the circuit is open.
func (b *Backend) IsAvailable(context.Context) bool {
	return b.state.CircuitState() != resilience.StateOpen
}

func (b *Backend) SupportsLanguage(lang string) bool {
	return transcription.SupportsLanguage(b.cfg.Languages, lang)
}

type modelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// Status probes GET /models.
func (b *Backend) Status(ctx context.Context) transcription.BackendStatus {
	st := transcription.BackendStatus{Name: b.Name(), Kind: b.Kind(), Status: transcription.StatusReady}
	if b.state.CircuitState() == resilience.StateOpen {
		st.Status = transcription.StatusUnreachable
		st.Detail = "circuit open"
		return st
	}
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	resp, err := httpclient.Get[modelsResponse](ctx, b.client, pathModels)
	if err != nil {
		st.Status = transcription.StatusUnreachable
		st.Detail = err.Error()
		return st
	}
	st.Detail = fmt.Sprintf("%d models", len(resp.Data.Data))
	return st
}

// verboseResponse is the response_format=verbose_json body.
type verboseResponse struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
}

// Transcribe sends one segment to /audio/transcriptions.
func (b *Backend) Transcribe(ctx context.Context, req *transcription.Request) *transcription.Attempt {
	return b.call(ctx, req, pathTranscriptions, b.cfg.Model, true)
}

// Translate sends one segment to /audio/translations, which always
// produces English.
func (b *Backend) Translate(ctx context.Context, req *transcription.Request) *transcription.Attempt {
	return b.call(ctx, req, pathTranslations, b.cfg.TranslationModel, false)
}

func (b *Backend) call(ctx context.Context, req *transcription.Request, path, model string, withLanguage bool) *transcription.Attempt {
	start := time.Now()
	if req == nil || req.Segment == nil || len(req.Segment.Payload) == 0 {
		return b.finish(ctx, transcription.Failed(b, req, start, apperrors.InvalidInput("audio", "empty segment")))
	}
	if size := int64(len(req.Segment.Payload)); size > b.maxUpload {
		err := apperrors.InvalidInput("audio", fmt.Sprintf("segment of %d bytes exceeds the %d byte upload limit", size, b.maxUpload))
		return b.finish(ctx, transcription.Failed(b, req, start, err))
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = b.cfg.Timeout()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	fields := map[string]string{
		"model":           model,
		"response_format": "verbose_json",
	}
	if withLanguage && req.Language != "" {
		fields["language"] = req.Language
	}
	if req.Prompt != "" {
		fields["prompt"] = req.Prompt
	}
	body := &httpclient.MultipartBody{
		Fields: fields,
		Files: []httpclient.FileField{{
			FieldName:   "file",
			FileName:    req.Segment.Filename(),
			ContentType: req.Segment.Asset.Format.ContentType(),
			Data:        req.Segment.Payload,
		}},
	}

	resp, err := provider.ExecuteWithResilience(ctx, b.state, func() (*httpclient.Response, error) {
		return b.client.Do(ctx, httpclient.Request{Method: http.MethodPost, Path: path, Body: body})
	})
	if err != nil {
		return b.finish(ctx, transcription.Failed(b, req, start, err))
	}

	var out verboseResponse
	if err := resp.DecodeJSON(&out); err != nil {
		return b.finish(ctx, transcription.Failed(b, req, start, err))
	}
	return b.finish(ctx, &transcription.Attempt{
		Backend:        b.Name(),
		Kind:           b.Kind(),
		SegmentIndex:   req.Segment.Index,
		Text:           strings.TrimSpace(out.Text),
		Language:       out.Language,
		Duration:       durationOr(out.Duration, req.Segment.Duration),
		ProcessingTime: time.Since(start),
		OK:             true,
		Raw:            json.RawMessage(resp.Body),
	})
}

func (b *Backend) finish(ctx context.Context, a *transcription.Attempt) *transcription.Attempt {
	b.metrics.RecordBackendCall(ctx, b.Name(), a.OK, a.Reason, a.ProcessingTime)
	fields := logger.DurationFields("remote.call", a.ProcessingTime)
	fields["segment"] = a.SegmentIndex
	if !a.OK {
		fields["reason"] = a.Reason
		fields[logger.FieldError] = a.Err.Error()
		b.log.WithContext(ctx).Warn("remote transcription failed", fields)
		return a
	}
	b.log.WithContext(ctx).Debug("remote transcription ok", fields)
	return a
}

func durationOr(v, fallback float64) float64 {
	if v > 0 {
		return v
	}
	return fallback
}
