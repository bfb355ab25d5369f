package semantic

import (
	"fmt"
	"strings"
	"time"

	"github.com/kbukum/hybridstt/logger"
	"github.com/kbukum/hybridstt/observability"
	"github.com/kbukum/hybridstt/provider"
)

// Embedder kinds.
const (
	EmbedderOpenAI  = "openai"
	EmbedderHashing = "hashing"
)

// Config selects and configures the embedder.
type Config struct {
	Embedder       string `yaml:"embedder" mapstructure:"embedder"`
	BaseURL        string `yaml:"base_url" mapstructure:"base_url"`
	APIKey         string `yaml:"api_key" mapstructure:"api_key"`
	Model          string `yaml:"model" mapstructure:"model"`
	Dimensions     int    `yaml:"dimensions" mapstructure:"dimensions"`
	TimeoutSeconds int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
}

// ApplyDefaults fills zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Embedder == "" {
		c.Embedder = EmbedderHashing
	}
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com/v1"
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Model == "" {
		c.Model = "text-embedding-3-small"
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 10
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Embedder {
	case EmbedderOpenAI, EmbedderHashing:
	default:
		return fmt.Errorf("semantic: unknown embedder %q", c.Embedder)
	}
	if c.Dimensions < 0 {
		return fmt.Errorf("semantic: dimensions must not be negative")
	}
	return nil
}

// Timeout bounds one embedding call.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// NewEmbedder builds the configured embedder wrapped with logging, metrics
// and tracing.
func NewEmbedder(cfg Config, log *logger.Logger, metrics *observability.Metrics) (Embedder, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var inner Embedder
	if cfg.Embedder == EmbedderOpenAI {
		e, err := NewOpenAIEmbedder(cfg)
		if err != nil {
			return nil, err
		}
		inner = e
	} else {
		inner = NewHashingEmbedder(cfg.Dimensions)
	}
	if log == nil {
		log = logger.NewNop()
	}
	return provider.Chain(
		provider.WithLogging[[]string, [][]float64](log),
		provider.WithMetrics[[]string, [][]float64](metrics),
		provider.WithTracing[[]string, [][]float64](),
	)(inner), nil
}
