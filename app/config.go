package app

import (
	"fmt"
	"time"

	"github.com/kbukum/hybridstt/auth"
	"github.com/kbukum/hybridstt/command"
	"github.com/kbukum/hybridstt/config"
	"github.com/kbukum/hybridstt/hybrid"
	"github.com/kbukum/hybridstt/observability"
	"github.com/kbukum/hybridstt/redis"
	"github.com/kbukum/hybridstt/semantic"
	"github.com/kbukum/hybridstt/server"
	"github.com/kbukum/hybridstt/speaker"
	"github.com/kbukum/hybridstt/storage"
	"github.com/kbukum/hybridstt/transcription/local"
	"github.com/kbukum/hybridstt/transcription/remote"
)

// ServiceName selects ./cmd/hybridstt/config.yml and names the service in
// logs and traces.
const ServiceName = "hybridstt"

// Config is the full service configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Auth          auth.Config          `yaml:"auth" mapstructure:"auth"`
	Hybrid        hybrid.Config        `yaml:"hybrid" mapstructure:"hybrid"`
	Remote        remote.Config        `yaml:"remote" mapstructure:"remote"`
	Local         local.Config         `yaml:"local" mapstructure:"local"`
	Speaker       speaker.Config       `yaml:"speaker" mapstructure:"speaker"`
	Semantic      semantic.Config      `yaml:"semantic" mapstructure:"semantic"`
	Storage       storage.Config       `yaml:"storage" mapstructure:"storage"`
	Redis         redis.Config         `yaml:"redis" mapstructure:"redis"`
	Command       command.Config       `yaml:"command" mapstructure:"command"`
	Audio         AudioConfig          `yaml:"audio" mapstructure:"audio"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// AudioConfig controls the external tools used for formats the chunker
// cannot parse itself. An empty FFProbe disables probing; an empty FFmpeg
// makes oversized M4A, OGG and FLAC uploads fail with a chunking error.
type AudioConfig struct {
	FFProbe              string `yaml:"ffprobe" mapstructure:"ffprobe"`
	ProbeTimeoutSeconds  int    `yaml:"probe_timeout_seconds" mapstructure:"probe_timeout_seconds"`
	FFmpeg               string `yaml:"ffmpeg" mapstructure:"ffmpeg"`
	DecodeTimeoutSeconds int    `yaml:"decode_timeout_seconds" mapstructure:"decode_timeout_seconds"`
}

// ProbeTimeout bounds one ffprobe run.
func (c *AudioConfig) ProbeTimeout() time.Duration {
	if c.ProbeTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.ProbeTimeoutSeconds) * time.Second
}

// DecodeTimeout bounds one ffmpeg decode.
func (c *AudioConfig) DecodeTimeout() time.Duration {
	if c.DecodeTimeoutSeconds <= 0 {
		return 2 * time.Minute
	}
	return time.Duration(c.DecodeTimeoutSeconds) * time.Second
}

// DefaultConfig returns a config whose true-by-default switches are already
// set, so that loading YAML over it keeps an explicit false.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Name = ServiceName
	cfg.Hybrid = hybrid.DefaultConfig()
	cfg.Speaker.Mandatory = true
	return cfg
}

// Load reads configuration for the service. An empty path uses the default
// search locations.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	var opts []config.LoaderOption
	if path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}
	if err := config.LoadConfig(ServiceName, cfg, opts...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults applies defaults to every section.
func (c *Config) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Auth.ApplyDefaults()
	c.Hybrid.ApplyDefaults()
	c.Remote.ApplyDefaults()
	c.Local.ApplyDefaults()
	c.Speaker.ApplyDefaults()
	c.Semantic.ApplyDefaults()
	c.Storage.ApplyDefaults()
	c.Redis.ApplyDefaults()
	c.Command.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

// Validate validates every section.
func (c *Config) Validate() error {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"service", c.ServiceConfig.Validate},
		{"server", c.Server.Validate},
		{"auth", c.Auth.Validate},
		{"hybrid", c.Hybrid.Validate},
		{"remote", c.Remote.Validate},
		{"local", c.Local.Validate},
		{"speaker", c.Speaker.Validate},
		{"semantic", c.Semantic.Validate},
		{"storage", c.Storage.Validate},
		{"redis", c.Redis.Validate},
		{"command", c.Command.Validate},
		{"observability", c.Observability.Validate},
	}
	for _, chk := range checks {
		if err := chk.fn(); err != nil {
			return fmt.Errorf("%s: %w", chk.name, err)
		}
	}
	return nil
}
