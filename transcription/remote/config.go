package remote

import (
	"fmt"
	"strings"
	"time"

	"github.com/kbukum/hybridstt/provider"
	"github.com/kbukum/hybridstt/resilience"
	"github.com/kbukum/hybridstt/transcription"
	"github.com/kbukum/hybridstt/util"
)

const (
	defaultBaseURL       = "https://api.openai.com/v1"
	defaultModel         = "whisper-1"
	defaultTimeout       = 30
	defaultMaxUploadSize = "25MB"
)

// Config configures the OpenAI-compatible backend.
type Config struct {
	Name             string   `yaml:"name" mapstructure:"name"`
	BaseURL          string   `yaml:"base_url" mapstructure:"base_url"`
	APIKey           string   `yaml:"api_key" mapstructure:"api_key"`
	Model            string   `yaml:"model" mapstructure:"model"`
	TranslationModel string   `yaml:"translation_model" mapstructure:"translation_model"`
	TimeoutSeconds   int      `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
	MaxUploadSize    string   `yaml:"max_upload_size" mapstructure:"max_upload_size"`
	Languages        []string `yaml:"languages" mapstructure:"languages"`

	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker" mapstructure:"circuit_breaker"`
	RateLimiter    RateLimiterConfig    `yaml:"rate_limiter" mapstructure:"rate_limiter"`
}

// CircuitBreakerConfig opens the circuit after consecutive timeouts or
// unavailability. Rate limiting and rejected input do not count.
type CircuitBreakerConfig struct {
	Enabled      bool `yaml:"enabled" mapstructure:"enabled"`
	MaxFailures  int  `yaml:"max_failures" mapstructure:"max_failures"`
	ResetSeconds int  `yaml:"reset_seconds" mapstructure:"reset_seconds"`
}

// RateLimiterConfig throttles outbound calls before they reach the API.
type RateLimiterConfig struct {
	Enabled           bool    `yaml:"enabled" mapstructure:"enabled"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// ApplyDefaults fills zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = transcription.FactoryRemote
	}
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.TranslationModel == "" {
		c.TranslationModel = defaultModel
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = defaultTimeout
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = defaultMaxUploadSize
	}
	if c.CircuitBreaker.MaxFailures <= 0 {
		c.CircuitBreaker.MaxFailures = 5
	}
	if c.CircuitBreaker.ResetSeconds <= 0 {
		c.CircuitBreaker.ResetSeconds = 30
	}
	if c.RateLimiter.RequestsPerSecond <= 0 {
		c.RateLimiter.RequestsPerSecond = 5
	}
	if c.RateLimiter.Burst <= 0 {
		c.RateLimiter.Burst = 10
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("remote: base_url must be an http(s) URL, got %q", c.BaseURL)
	}
	if _, err := c.MaxUploadBytes(); err != nil {
		return err
	}
	return nil
}

// Timeout is the per-call timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// MaxUploadBytes parses MaxUploadSize.
func (c *Config) MaxUploadBytes() (int64, error) {
	n, err := util.ParseSize(c.MaxUploadSize, 25<<20)
	if err != nil {
		return 0, fmt.Errorf("remote: max_upload_size: %w", err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("remote: max_upload_size must be positive")
	}
	return n, nil
}

func (c *Config) resilience() provider.ResilienceConfig {
	var rc provider.ResilienceConfig
	if c.CircuitBreaker.Enabled {
		cb := resilience.DefaultCircuitBreakerConfig(c.Name)
		cb.MaxFailures = c.CircuitBreaker.MaxFailures
		cb.Timeout = time.Duration(c.CircuitBreaker.ResetSeconds) * time.Second
		cb.IsFailure = transcription.CountsAgainstCircuit
		rc.CircuitBreaker = &cb
	}
	if c.RateLimiter.Enabled {
		rc.RateLimiter = &resilience.RateLimiterConfig{
			Name:  c.Name,
			Rate:  c.RateLimiter.RequestsPerSecond,
			Burst: c.RateLimiter.Burst,
		}
	}
	return rc
}
