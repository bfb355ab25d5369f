package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func newJSONLogger(buf *bytes.Buffer, level string) *Logger {
	return NewWithWriter(&Config{Level: level, Format: "json"}, "hybridstt", buf)
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	if line == "" {
		t.Fatal("expected a log line, got nothing")
	}
	var out map[string]interface{}
	if err := json.Unmarshal([]byte(line), &out); err != nil {
		t.Fatalf("decode log line failed: %v", err)
	}
	return out
}

func TestNewDefault(t *testing.T) {
	l := NewDefault("test-svc")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.service != "test-svc" {
		t.Errorf("expected service 'test-svc', got %q", l.service)
	}
}

func TestInfo_WritesServiceAndFields(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(&buf, "info")
	l.Info("segment done", Fields(FieldSegment, 2, FieldBackend, "openai"))

	out := decodeLine(t, &buf)
	if out["message"] != "segment done" {
		t.Errorf("expected message, got %v", out["message"])
	}
	if out[FieldService] != "hybridstt" {
		t.Errorf("expected service field, got %v", out[FieldService])
	}
	if out[FieldBackend] != "openai" {
		t.Errorf("expected backend field, got %v", out[FieldBackend])
	}
	if out[FieldSegment] != float64(2) {
		t.Errorf("expected segment_index=2, got %v", out[FieldSegment])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(&buf, "warn")
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("expected info to be filtered at warn level, got %q", buf.String())
	}
	l.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Error("expected warn message to be written")
	}
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(&buf, "nonsense")
	l.Debug("hidden")
	l.Info("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(&buf, "info")
	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithUserID(ctx, "alice")
	ctx = ContextWithTraceID(ctx, "trace-9")

	l.WithContext(ctx).Info("hello")
	out := decodeLine(t, &buf)
	if out[FieldRequestID] != "req-1" || out[FieldUserID] != "alice" || out[FieldTraceID] != "trace-9" {
		t.Errorf("expected context fields, got %v", out)
	}
	if RequestIDFromContext(ctx) != "req-1" || UserIDFromContext(ctx) != "alice" {
		t.Error("expected context getters to return stored values")
	}
	if RequestIDFromContext(context.Background()) != "" {
		t.Error("expected empty request id for bare context")
	}
}

func TestWithComponentAndError(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(&buf, "info").WithComponent("hybrid").WithError(errors.New("boom"))
	l.Error("failed")
	out := decodeLine(t, &buf)
	if out[FieldComponent] != "hybrid" {
		t.Errorf("expected component field, got %v", out[FieldComponent])
	}
	if out[FieldError] != "boom" {
		t.Errorf("expected error field, got %v", out[FieldError])
	}
}

func TestFieldsHelpers(t *testing.T) {
	f := Fields("a", 1, "b")
	if len(f) != 1 || f["a"] != 1 {
		t.Errorf("expected odd trailing key to be dropped, got %v", f)
	}
	ef := ErrorFields("transcribe", errors.New("x"))
	if ef[FieldOperation] != "transcribe" || ef[FieldError] != "x" {
		t.Errorf("unexpected error fields %v", ef)
	}
	df := DurationFields("chunk", 1500*time.Millisecond)
	if df[FieldDuration] != int64(1500) {
		t.Errorf("expected 1500ms, got %v", df[FieldDuration])
	}
}

func TestConfigDefaultsAndValidate(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Level != "info" || cfg.Format != "console" || cfg.Output != "stdout" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
	cfg.Format = "xml"
	if err := cfg.Validate(); err == nil {
		t.Error("expected invalid format to fail")
	}
}

func TestRegistry(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(&buf, "info")
	Register("speaker", l)
	if Get("speaker") != l {
		t.Error("expected registered logger")
	}
	if Get("unregistered") == nil {
		t.Error("expected fallback logger")
	}
}

func TestNop(t *testing.T) {
	NewNop().Info("nothing")
}
