package storage

import "fmt"

const (
	ProviderLocal  = "local"
	ProviderMemory = "memory"

	DefaultBasePath = "/tmp/hybridstt"
)

// Config selects where audio fragments are staged.
type Config struct {
	Provider string `yaml:"provider" mapstructure:"provider"`
	BasePath string `yaml:"base_path" mapstructure:"base_path"`
}

func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderLocal
	}
	if c.BasePath == "" {
		c.BasePath = DefaultBasePath
	}
}

func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderLocal:
		if c.BasePath == "" {
			return fmt.Errorf("storage: base_path is required for local provider")
		}
	case ProviderMemory:
	default:
		return fmt.Errorf("storage: unsupported provider %q", c.Provider)
	}
	return nil
}
