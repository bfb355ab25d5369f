package transcription

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kbukum/hybridstt/audio"
	"github.com/kbukum/hybridstt/provider"
)

// Kind tells remote and local backends apart.
type Kind string

const (
	KindRemote Kind = "remote"
	KindLocal  Kind = "local"
)

// Status is a backend's reported health.
type Status string

const (
	StatusReady       Status = "ready"
	StatusUnreachable Status = "unreachable"
	StatusLoading     Status = "loading"
	StatusUnavailable Status = "unavailable"
)

// BackendStatus is one backend's entry in the status surface.
type BackendStatus struct {
	Name   string `json:"name"`
	Kind   Kind   `json:"kind"`
	Status Status `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Request is one segment to transcribe or translate.
type Request struct {
	Segment *audio.Segment
	// Language is an ISO 639-1 hint; empty lets the backend detect it.
	Language string
	Prompt   string
	// Timeout bounds this call. Zero uses the backend's configured timeout.
	Timeout time.Duration
	// Workspace materializes the payload as a file for engines that need one.
	Workspace *audio.Workspace
}

// Attempt is the outcome of one backend call on one segment.
type Attempt struct {
	Backend      string
	Kind         Kind
	SegmentIndex int
	Text         string
	Language     string
	// Confidence is nil when the backend does not report one.
	Confidence     *float64
	Duration       float64
	ProcessingTime time.Duration
	OK             bool
	// Reason is one of the errors.Reason* values when OK is false.
	Reason string
	Err    error
	Raw    json.RawMessage
}

// Backend is a speech-to-text engine.
type Backend interface {
	provider.Provider
	Kind() Kind
	Transcribe(ctx context.Context, req *Request) *Attempt
	Translate(ctx context.Context, req *Request) *Attempt
	SupportsLanguage(lang string) bool
	Status(ctx context.Context) BackendStatus
}

// Float returns a pointer to v, for confidences.
func Float(v float64) *float64 { return &v }
