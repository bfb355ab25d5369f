package speaker

import (
	"fmt"
	"strings"
	"time"

	"github.com/kbukum/hybridstt/encryption"
)

// Config configures speaker verification.
type Config struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Mandatory rejects requests whose speaker does not match. When false
	// the score is only reported.
	Mandatory      bool   `yaml:"mandatory" mapstructure:"mandatory"`
	ExtractorURL   string `yaml:"extractor_url" mapstructure:"extractor_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
	EncryptionKey  string `yaml:"encryption_key" mapstructure:"encryption_key"`
	// Algorithm is "aes-gcm" (default) or "chacha20".
	Algorithm string `yaml:"algorithm" mapstructure:"algorithm"`
}

// ApplyDefaults fills zero-valued fields. Mandatory defaults to true in
// app config defaults, not here, so an explicit false survives.
func (c *Config) ApplyDefaults() {
	if c.ExtractorURL == "" {
		c.ExtractorURL = "http://localhost:8390"
	}
	c.ExtractorURL = strings.TrimRight(c.ExtractorURL, "/")
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 15
	}
	if c.Algorithm == "" {
		c.Algorithm = "aes-gcm"
	}
}

// Validate checks the configuration when verification is enabled.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if len(c.EncryptionKey) < 16 {
		return fmt.Errorf("speaker: encryption_key must be at least 16 characters")
	}
	if _, err := c.SealAlgorithm(); err != nil {
		return err
	}
	return nil
}

// SealAlgorithm maps Algorithm to an encryption algorithm.
func (c *Config) SealAlgorithm() (encryption.Algorithm, error) {
	switch strings.ToLower(c.Algorithm) {
	case "", "aes-gcm", string(encryption.AlgorithmAESGCM):
		return encryption.AlgorithmAESGCM, nil
	case "chacha20", string(encryption.AlgorithmChaCha20):
		return encryption.AlgorithmChaCha20, nil
	}
	return "", fmt.Errorf("speaker: unknown algorithm %q", c.Algorithm)
}

// Timeout bounds one extractor call.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// NewSealer builds the voiceprint sealer from the configured key.
func (c *Config) NewSealer() (encryption.Sealer, error) {
	alg, err := c.SealAlgorithm()
	if err != nil {
		return nil, err
	}
	return encryption.New(c.EncryptionKey, encryption.WithAlgorithm(alg), encryption.WithKeyContext("voiceprints"))
}
