package evaluator

import (
	"context"
	"testing"

	apperrors "github.com/kbukum/hybridstt/errors"
	"github.com/kbukum/hybridstt/transcription"
)

func conf(v float64) *float64 { return &v }

func TestAccept(t *testing.T) {
	p := Policy{MinConfidence: 0.85}
	tests := []struct {
		name    string
		attempt *transcription.Attempt
		accept  bool
		reason  string
	}{
		{"nil", nil, false, apperrors.ReasonServiceUnavailable},
		{"failed", &transcription.Attempt{Kind: transcription.KindRemote, Reason: apperrors.ReasonRateLimited}, false, apperrors.ReasonRateLimited},
		{"remote ok", &transcription.Attempt{Kind: transcription.KindRemote, OK: true}, true, ""},
		{"local high", &transcription.Attempt{Kind: transcription.KindLocal, OK: true, Confidence: conf(0.9)}, true, ""},
		{"local at threshold", &transcription.Attempt{Kind: transcription.KindLocal, OK: true, Confidence: conf(0.85)}, true, ""},
		{"local low", &transcription.Attempt{Kind: transcription.KindLocal, OK: true, Confidence: conf(0.84)}, false, ReasonLowConfidence},
		{"local missing", &transcription.Attempt{Kind: transcription.KindLocal, OK: true}, false, ReasonMissingConfidence},
	}
	for _, tt := range tests {
		if got := Accept(tt.attempt, p); got != tt.accept {
			t.Errorf("%s: Accept = %v", tt.name, got)
		}
		if got := Explain(tt.attempt, p); got != tt.reason {
			t.Errorf("%s: Explain = %q, want %q", tt.name, got, tt.reason)
		}
	}
}

func TestAcceptSpeaker(t *testing.T) {
	p := Policy{MinSpeakerMatch: 0.75}
	if !AcceptSpeaker(0.75, p) || AcceptSpeaker(0.7499, p) {
		t.Fatal("speaker threshold is inclusive")
	}
}

func TestPolicyValidate(t *testing.T) {
	if err := DefaultPolicy().Validate(); err != nil {
		t.Fatal(err)
	}
	for _, p := range []Policy{{MinConfidence: -0.1}, {MinConfidence: 1.1}, {MinSpeakerMatch: 2}} {
		if err := p.Validate(); err == nil {
			t.Errorf("%+v accepted", p)
		}
	}
}

type langBackend struct{ langs []string }

func (l langBackend) Name() string                     { return "whisper-local" }
func (l langBackend) IsAvailable(context.Context) bool { return true }
func (l langBackend) Kind() transcription.Kind         { return transcription.KindLocal }
func (l langBackend) SupportsLanguage(lang string) bool {
	return transcription.SupportsLanguage(l.langs, lang)
}
func (l langBackend) Transcribe(context.Context, *transcription.Request) *transcription.Attempt {
	return nil
}
func (l langBackend) Translate(context.Context, *transcription.Request) *transcription.Attempt {
	return nil
}
func (l langBackend) Status(context.Context) transcription.BackendStatus {
	return transcription.BackendStatus{}
}

func TestCheckLanguage(t *testing.T) {
	b := langBackend{langs: []string{"en"}}
	if err := CheckLanguage("de", b, false); err != nil {
		t.Fatalf("another backend is viable: %v", err)
	}
	err := CheckLanguage("de", b, true)
	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.Code != apperrors.ErrCodeUnsupportedLanguage {
		t.Fatalf("err = %v", err)
	}
	if err := CheckLanguage("en", b, true); err != nil {
		t.Fatal(err)
	}
	if err := CheckLanguage("", b, true); err != nil {
		t.Fatal(err)
	}
}
