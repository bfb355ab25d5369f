package local

import (
	"fmt"
	"strings"
	"time"

	"github.com/kbukum/hybridstt/transcription"
)

// Engine kinds.
const (
	EngineSidecar = "sidecar"
	EngineCLI     = "cli"
)

const (
	defaultSidecarURL = "http://localhost:8387"
	defaultBinary     = "whisper"
	defaultModel      = "base"
	defaultTimeout    = 120
)

// Config configures the local backend and its engine.
type Config struct {
	Name string `yaml:"name" mapstructure:"name"`
	// Engine is "sidecar" (HTTP whisper server) or "cli" (whisper binary).
	Engine         string   `yaml:"engine" mapstructure:"engine"`
	BaseURL        string   `yaml:"base_url" mapstructure:"base_url"`
	Binary         string   `yaml:"binary" mapstructure:"binary"`
	Model          string   `yaml:"model" mapstructure:"model"`
	Threads        int      `yaml:"threads" mapstructure:"threads"`
	TimeoutSeconds int      `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
	Languages      []string `yaml:"languages" mapstructure:"languages"`
	// Preload loads the model during startup instead of on first use.
	Preload bool `yaml:"preload" mapstructure:"preload"`
}

// ApplyDefaults fills zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = transcription.FactoryLocal
	}
	if c.Engine == "" {
		c.Engine = EngineSidecar
	}
	if c.BaseURL == "" {
		c.BaseURL = defaultSidecarURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Binary == "" {
		c.Binary = defaultBinary
	}
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = defaultTimeout
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Engine {
	case EngineSidecar, EngineCLI:
	default:
		return fmt.Errorf("local: unknown engine %q (want %s or %s)", c.Engine, EngineSidecar, EngineCLI)
	}
	if c.Threads < 0 {
		return fmt.Errorf("local: threads must not be negative")
	}
	return nil
}

// Timeout is the per-attempt timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
