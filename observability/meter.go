package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/hybridstt/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Endpoint       string
	Insecure       bool
	Interval       time.Duration
}

// InitMeter initializes the global OpenTelemetry meter provider.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(config.Endpoint)}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the instruments recorded by the orchestrator and its backends.
type Metrics struct {
	requests        metric.Int64Counter
	requestDuration metric.Float64Histogram
	inflight        metric.Int64UpDownCounter
	backendCalls    metric.Int64Counter
	backendDuration metric.Float64Histogram
	fallbacks       metric.Int64Counter
	similarity      metric.Float64Histogram
	operations      metric.Int64Counter
	opDuration      metric.Float64Histogram
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)
	if m.requests, err = meter.Int64Counter("stt.requests",
		metric.WithDescription("Transcription requests by source and outcome")); err != nil {
		return nil, fmt.Errorf("creating stt.requests: %w", err)
	}
	if m.requestDuration, err = meter.Float64Histogram("stt.request.duration",
		metric.WithDescription("End-to-end request duration"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating stt.request.duration: %w", err)
	}
	if m.inflight, err = meter.Int64UpDownCounter("stt.requests.inflight",
		metric.WithDescription("Requests currently holding an admission slot")); err != nil {
		return nil, fmt.Errorf("creating stt.requests.inflight: %w", err)
	}
	if m.backendCalls, err = meter.Int64Counter("stt.backend.calls",
		metric.WithDescription("Backend calls by backend, status and failure reason")); err != nil {
		return nil, fmt.Errorf("creating stt.backend.calls: %w", err)
	}
	if m.backendDuration, err = meter.Float64Histogram("stt.backend.duration",
		metric.WithDescription("Backend call latency"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating stt.backend.duration: %w", err)
	}
	if m.fallbacks, err = meter.Int64Counter("stt.fallbacks",
		metric.WithDescription("Requests that switched backend, by reason")); err != nil {
		return nil, fmt.Errorf("creating stt.fallbacks: %w", err)
	}
	if m.similarity, err = meter.Float64Histogram("stt.similarity",
		metric.WithDescription("Speaker and semantic similarity scores")); err != nil {
		return nil, fmt.Errorf("creating stt.similarity: %w", err)
	}
	if m.operations, err = meter.Int64Counter("provider.operations",
		metric.WithDescription("Auxiliary provider calls")); err != nil {
		return nil, fmt.Errorf("creating provider.operations: %w", err)
	}
	if m.opDuration, err = meter.Float64Histogram("provider.duration",
		metric.WithDescription("Auxiliary provider call latency"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating provider.duration: %w", err)
	}
	return &m, nil
}

// The Record methods are no-ops on a nil *Metrics.

// RecordRequestStart marks a request as admitted.
func (m *Metrics) RecordRequestStart(ctx context.Context) {
	if m == nil {
		return
	}
	m.inflight.Add(ctx, 1)
}

// RecordRequestEnd records a finished request.
func (m *Metrics) RecordRequestEnd(ctx context.Context, source, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.inflight.Add(ctx, -1)
	m.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("outcome", outcome),
	))
	m.requestDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordBackendCall records one transcription backend call.
func (m *Metrics) RecordBackendCall(ctx context.Context, backend string, ok bool, reason string, d time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "failed"
	}
	m.backendCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("backend", backend),
		attribute.String("status", status),
		attribute.String("reason", reason),
	))
	m.backendDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("backend", backend)))
}

// RecordFallback records a backend switch.
func (m *Metrics) RecordFallback(ctx context.Context, from, reason string) {
	if m == nil {
		return
	}
	m.fallbacks.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("reason", reason),
	))
}

// RecordSimilarity records a speaker or semantic score.
func (m *Metrics) RecordSimilarity(ctx context.Context, kind string, score float64) {
	if m == nil {
		return
	}
	m.similarity.Record(ctx, score, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordOperation records an auxiliary provider call.
func (m *Metrics) RecordOperation(ctx context.Context, provider, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.operations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("status", status),
	))
	m.opDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("provider", provider)))
}
