package observability

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Config enables OTLP/HTTP export of traces and metrics.
type Config struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Endpoint is the OTLP HTTP collector host:port.
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure   bool    `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
	// Interval is the metric export interval ("15s").
	Interval string `yaml:"interval" mapstructure:"interval"`
}

// ApplyDefaults applies default values.
func (c *Config) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
	if c.Interval == "" {
		c.Interval = "15s"
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("observability.sample_rate must be within [0,1] (got: %v)", c.SampleRate)
	}
	if _, err := time.ParseDuration(c.Interval); err != nil {
		return fmt.Errorf("observability.interval: %w", err)
	}
	return nil
}

// Setup installs the global tracer and meter providers when enabled and
// returns a shutdown function flushing both. Disabled config leaves the
// no-op globals in place.
func Setup(ctx context.Context, cfg Config, service, version, environment string) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}
	interval, _ := time.ParseDuration(cfg.Interval)

	tp, err := InitTracer(ctx, TracerConfig{
		ServiceName: service, ServiceVersion: version, Environment: environment,
		Endpoint: cfg.Endpoint, Insecure: cfg.Insecure, SampleRate: cfg.SampleRate,
	})
	if err != nil {
		return nil, err
	}
	mp, err := InitMeter(ctx, &MeterConfig{
		ServiceName: service, ServiceVersion: version, Environment: environment,
		Endpoint: cfg.Endpoint, Insecure: cfg.Insecure, Interval: interval,
	})
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}
	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}
