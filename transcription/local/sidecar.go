package local

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/kbukum/hybridstt/httpclient"
	"github.com/kbukum/hybridstt/logger"
	"github.com/kbukum/hybridstt/version"
)

// SidecarEngine talks to a faster-whisper HTTP server on this host.
type SidecarEngine struct {
	cfg    Config
	client *httpclient.Client
	log    *logger.Logger
}

// NewSidecarEngine creates a sidecar engine. Timeouts come from the
// per-attempt context, so the client itself only carries a generous bound.
func NewSidecarEngine(cfg Config, log *logger.Logger) (*SidecarEngine, error) {
	cfg.ApplyDefaults()
	client, err := httpclient.New(httpclient.Config{
		BaseURL: cfg.BaseURL,
		Timeout: 2 * cfg.Timeout(),
		Headers: map[string]string{"User-Agent": version.UserAgent()},
	})
	if err != nil {
		return nil, fmt.Errorf("local: %w", err)
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &SidecarEngine{cfg: cfg, client: client, log: log.WithComponent("whisper-sidecar")}, nil
}

func (e *SidecarEngine) Name() string    { return EngineSidecar }
func (e *SidecarEngine) NeedsFile() bool { return false }
func (e *SidecarEngine) Close() error    { return nil }

type sidecarHealth struct {
	Status string `json:"status"`
	Model  string `json:"model"`
}

// Ping calls GET /health. A sidecar still loading its weights reports
// status "loading".
func (e *SidecarEngine) Ping(ctx context.Context) error {
	resp, err := httpclient.Get[sidecarHealth](ctx, e.client, "/health")
	if err != nil {
		return err
	}
	if s := strings.ToLower(resp.Data.Status); s != "" && s != "ok" && s != "ready" && s != "healthy" {
		return fmt.Errorf("whisper sidecar reports %q", resp.Data.Status)
	}
	return nil
}

// Load waits for the sidecar to report ready.
func (e *SidecarEngine) Load(ctx context.Context) error {
	if err := e.Ping(ctx); err != nil {
		return fmt.Errorf("whisper sidecar at %s not ready: %w", e.cfg.BaseURL, err)
	}
	e.log.Info("whisper sidecar ready", logger.Fields("url", e.cfg.BaseURL, "model", e.cfg.Model))
	return nil
}

// Run posts the audio to /transcribe or /translate.
func (e *SidecarEngine) Run(ctx context.Context, job *Job) (*Output, error) {
	fields := map[string]string{"model": e.cfg.Model}
	if job.Language != "" {
		fields["language"] = job.Language
	}
	if job.Prompt != "" {
		fields["prompt"] = job.Prompt
	}
	if e.cfg.Threads > 0 {
		fields["threads"] = strconv.Itoa(e.cfg.Threads)
	}
	body := &httpclient.MultipartBody{
		Fields: fields,
		Files: []httpclient.FileField{{
			FieldName:   "audio",
			FileName:    job.FileName,
			ContentType: job.ContentType,
			Data:        job.Audio,
		}},
	}

	resp, err := e.client.Do(ctx, httpclient.Request{Method: http.MethodPost, Path: "/" + string(job.Task), Body: body})
	if err != nil {
		return nil, err
	}
	var out Output
	if err := resp.DecodeJSON(&out); err != nil {
		return nil, err
	}
	out.Raw = json.RawMessage(resp.Body)
	return &out, nil
}
