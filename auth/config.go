package auth

import (
	"errors"
	"fmt"

	"github.com/kbukum/hybridstt/auth/jwt"
)

// Config holds API authentication configuration. JWT is nil when bearer
// tokens are not accepted.
type Config struct {
	Enabled bool        `yaml:"enabled" mapstructure:"enabled"`
	APIKeys []string    `yaml:"api_keys" mapstructure:"api_keys"`
	JWT     *jwt.Config `yaml:"jwt" mapstructure:"jwt"`
	// Permissions grants JWT subjects rights over other users' voiceprints,
	// e.g. {"ops": ["voiceprint:*"]}.
	Permissions map[string][]string `yaml:"permissions" mapstructure:"permissions"`
}

// ApplyDefaults sets defaults on configured sub-sections.
func (c *Config) ApplyDefaults() {
	// An empty jwt block from YAML means bearer tokens are off.
	if c.JWT != nil && c.JWT.Secret == "" {
		c.JWT = nil
	}
	if c.JWT != nil {
		c.JWT.ApplyDefaults()
	}
}

// Validate checks that an enabled config accepts at least one credential.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if len(c.APIKeys) == 0 && c.JWT == nil {
		return errors.New("auth: enabled but neither api_keys nor jwt is configured")
	}
	if c.JWT != nil {
		if err := c.JWT.Validate(); err != nil {
			return fmt.Errorf("auth.jwt: %w", err)
		}
	}
	return nil
}

// Describe returns a one-liner for the startup summary.
func (c *Config) Describe() string {
	if !c.Enabled {
		return "disabled"
	}
	line := fmt.Sprintf("api_keys=%d", len(c.APIKeys))
	if c.JWT != nil {
		line += fmt.Sprintf(" JWT(%s)", c.JWT.Method)
	}
	return line
}
