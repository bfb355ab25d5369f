package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestConfigDefaultsAndValidate(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Endpoint != "localhost:4318" || cfg.SampleRate != 1.0 || cfg.Interval != "15s" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	cfg.SampleRate = 2
	if err := cfg.Validate(); err == nil {
		t.Error("expected sample rate error")
	}
}

func TestSetup_DisabledIsNoop(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{}, "svc", "1.0.0", "test")
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown failed: %v", err)
	}
}

func TestNewMetrics(t *testing.T) {
	metrics, err := NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error creating metrics: %v", err)
	}
	ctx := context.Background()
	metrics.RecordRequestStart(ctx)
	metrics.RecordBackendCall(ctx, "openai", false, "rate_limited", 20*time.Millisecond)
	metrics.RecordFallback(ctx, "remote", "rate_limited")
	metrics.RecordSimilarity(ctx, "semantic", 0.42)
	metrics.RecordOperation(ctx, "embeddings", "ok", time.Millisecond)
	metrics.RecordRequestEnd(ctx, "local", "ok", time.Second)
}

func TestSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	ctx, span := StartSpan(context.Background(), SpanRemote)
	SetSpanAttribute(ctx, AttrSegments, 3)
	SetSpanAttribute(ctx, AttrSource, "remote")
	SetSpanAttribute(ctx, AttrFallback, false)
	SetSpanError(ctx, errors.New("rate limited"))
	span.End()

	ended := recorder.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected 1 span, got %d", len(ended))
	}
	s := ended[0]
	if s.Name() != SpanRemote {
		t.Errorf("expected span %s, got %s", SpanRemote, s.Name())
	}
	if len(s.Attributes()) != 3 {
		t.Errorf("expected 3 attributes, got %d", len(s.Attributes()))
	}
	if s.Status().Code != codes.Error {
		t.Errorf("expected error status, got %v", s.Status().Code)
	}
}

func TestSetSpanAttribute_NoSpan(t *testing.T) {
	SetSpanAttribute(context.Background(), "k", "v")
	SetSpanError(context.Background(), errors.New("x"))
}

func TestSampler(t *testing.T) {
	if sampler(1).Description() != sdktrace.AlwaysSample().Description() {
		t.Error("expected always sample for rate 1")
	}
	if sampler(0).Description() != sdktrace.NeverSample().Description() {
		t.Error("expected never sample for rate 0")
	}
}
