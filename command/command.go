// Package command forwards transcribed voice commands to an external
// command service.
package command

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/kbukum/hybridstt/httpclient"
	"github.com/kbukum/hybridstt/logger"
	"github.com/kbukum/hybridstt/version"
)

// headerRequestID lets the command service correlate with our logs.
const headerRequestID = "X-Request-Id"

// DefaultSource identifies this service to the command endpoint.
const DefaultSource = "hybridstt"

// Config configures forwarding.
type Config struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// URL is the full endpoint URL.
	URL            string `yaml:"url" mapstructure:"url"`
	Token          string `yaml:"token" mapstructure:"token"`
	TimeoutSeconds int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
}

// ApplyDefaults fills zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
}

// Validate checks the configuration when forwarding is enabled.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	u, err := url.Parse(c.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("command: url must be an http(s) URL")
	}
	return nil
}

// Request is the payload posted to the command service.
type Request struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
	Source   string         `json:"source"`
}

// Response is the outcome of a forwarded command.
type Response struct {
	Success     bool    `json:"success"`
	Response    string  `json:"response"`
	ActionTaken *string `json:"action_taken"`
	Details     any     `json:"details,omitempty"`
}

type remoteResponse struct {
	Response string  `json:"response"`
	Action   *string `json:"action"`
	Details  any     `json:"details"`
}

// Forwarder posts commands to the configured endpoint. A disabled forwarder
// answers every command with Success false.
type Forwarder struct {
	cfg    Config
	client *httpclient.Client
	log    *logger.Logger
}

// New creates a forwarder.
func New(cfg Config, log *logger.Logger) (*Forwarder, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNop()
	}
	f := &Forwarder{cfg: cfg, log: log.WithComponent("command")}
	if !cfg.Enabled {
		return f, nil
	}
	hc := httpclient.Config{
		Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		Headers: map[string]string{"User-Agent": version.UserAgent()},
	}
	if cfg.Token != "" {
		hc.Auth = httpclient.BearerAuth(cfg.Token)
	}
	client, err := httpclient.New(hc)
	if err != nil {
		return nil, fmt.Errorf("command: %w", err)
	}
	f.client = client
	return f, nil
}

func (f *Forwarder) Name() string { return "command-forwarder" }

// IsAvailable reports whether forwarding is configured.
func (f *Forwarder) IsAvailable(context.Context) bool { return f.client != nil }

// Execute posts req and decodes the service's answer. Non-2xx answers are
// errors.
func (f *Forwarder) Execute(ctx context.Context, req Request) (Response, error) {
	if f.client == nil {
		return Response{}, fmt.Errorf("command: forwarding is not configured")
	}
	var opts []httpclient.RequestOption
	if id := logger.RequestIDFromContext(ctx); id != "" {
		opts = append(opts, httpclient.WithHeader(headerRequestID, id))
	}
	resp, err := httpclient.Post[remoteResponse](ctx, f.client, f.cfg.URL, req, opts...)
	if err != nil {
		return Response{}, err
	}
	out := Response{
		Success:     true,
		Response:    resp.Data.Response,
		ActionTaken: resp.Data.Action,
		Details:     resp.Data.Details,
	}
	if out.Response == "" {
		out.Response = "Command processed"
	}
	return out, nil
}

// Forward sends text with its metadata. Failures are reported in the
// response rather than returned, so a transcription is never lost to a
// command error.
func (f *Forwarder) Forward(ctx context.Context, text string, metadata map[string]any, source string) Response {
	if f.client == nil {
		return Response{Response: "Command forwarding is not configured"}
	}
	if source == "" {
		source = DefaultSource
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	start := time.Now()
	resp, err := f.Execute(ctx, Request{Text: text, Metadata: metadata, Source: source})
	if err != nil {
		f.log.WithContext(ctx).Error("command forwarding failed", logger.Fields(
			"error", err.Error(), "duration_ms", time.Since(start).Milliseconds()))
		return Response{Response: "Error processing command: " + describe(err)}
	}
	f.log.WithContext(ctx).Info("command forwarded", logger.Fields(
		"action", deref(resp.ActionTaken), "duration_ms", time.Since(start).Milliseconds()))
	return resp
}

func describe(err error) string {
	var he *httpclient.Error
	if errors.As(err, &he) && he.StatusCode > 0 {
		return fmt.Sprintf("status %d", he.StatusCode)
	}
	return err.Error()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
