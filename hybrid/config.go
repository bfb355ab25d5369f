package hybrid

import (
	"time"

	"github.com/kbukum/hybridstt/audio"
	"github.com/kbukum/hybridstt/evaluator"
	"github.com/kbukum/hybridstt/util"
	"github.com/kbukum/hybridstt/validation"
)

// Primary service names.
const (
	PrimaryRemote = "remote"
	PrimaryLocal  = "local"
)

const defaultSegmentBytes = 20 * 1024 * 1024

// Config holds the routing policy.
type Config struct {
	PrimaryService string `yaml:"primary_service" mapstructure:"primary_service"`
	// FallbackToLocal enables switching to the other backend when the
	// primary fails or is rejected.
	FallbackToLocal bool    `yaml:"fallback_to_local" mapstructure:"fallback_to_local"`
	MinConfidence   float64 `yaml:"min_confidence" mapstructure:"min_confidence"`
	MinSpeakerMatch float64 `yaml:"min_speaker_match" mapstructure:"min_speaker_match"`
	// MaxSegmentSize is a size string such as "20MB".
	MaxSegmentSize        string  `yaml:"max_segment_size" mapstructure:"max_segment_size"`
	UseSemanticValidation bool    `yaml:"use_semantic_validation" mapstructure:"use_semantic_validation"`
	SemanticThreshold     float64 `yaml:"semantic_threshold" mapstructure:"semantic_threshold"`

	MaxConcurrentRequests int           `yaml:"max_concurrent_requests" mapstructure:"max_concurrent_requests"`
	AdmissionWait         time.Duration `yaml:"admission_wait" mapstructure:"admission_wait"`
	RemoteMaxParallel     int           `yaml:"remote_max_parallel" mapstructure:"remote_max_parallel"`
	RemoteDeadlineSeconds int           `yaml:"remote_deadline_seconds" mapstructure:"remote_deadline_seconds"`
	// ChunkContextWords > 0 prompts each segment with the tail of the
	// previous one, which makes remote calls sequential.
	ChunkContextWords int      `yaml:"chunk_context_words" mapstructure:"chunk_context_words"`
	AllowedFormats    []string `yaml:"allowed_formats" mapstructure:"allowed_formats"`
}

// DefaultConfig returns the service defaults, including the booleans that
// ApplyDefaults cannot tell apart from an explicit false.
func DefaultConfig() Config {
	c := Config{FallbackToLocal: true}
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.PrimaryService == "" {
		c.PrimaryService = PrimaryRemote
	}
	if c.MinConfidence == 0 {
		c.MinConfidence = 0.85
	}
	if c.MinSpeakerMatch == 0 {
		c.MinSpeakerMatch = 0.90
	}
	if c.MaxSegmentSize == "" {
		c.MaxSegmentSize = "20MB"
	}
	if c.SemanticThreshold == 0 {
		c.SemanticThreshold = 0.75
	}
	if c.MaxConcurrentRequests <= 0 {
		c.MaxConcurrentRequests = 4
	}
	if c.AdmissionWait == 0 {
		c.AdmissionWait = 5 * time.Second
	}
	if c.RemoteMaxParallel <= 0 {
		c.RemoteMaxParallel = 4
	}
	if c.RemoteDeadlineSeconds <= 0 {
		c.RemoteDeadlineSeconds = 120
	}
	if len(c.AllowedFormats) == 0 {
		c.AllowedFormats = []string{"wav", "mp3", "m4a", "ogg", "flac"}
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	v := validation.New().
		OneOf("primary_service", c.PrimaryService, PrimaryRemote, PrimaryLocal).
		Unit("min_confidence", c.MinConfidence).
		Unit("min_speaker_match", c.MinSpeakerMatch).
		Unit("semantic_threshold", c.SemanticThreshold).
		Check(c.ChunkContextWords >= 0, "chunk_context_words", "must not be negative").
		Check(c.AdmissionWait >= 0, "admission_wait", "must not be negative")
	if n, err := util.ParseSize(c.MaxSegmentSize, defaultSegmentBytes); err != nil || n <= 0 {
		v.AddError("max_segment_size", "must be a positive size such as 20MB")
	}
	for _, f := range c.AllowedFormats {
		v.OneOf("allowed_formats", f, "wav", "mp3", "m4a", "ogg", "flac")
	}
	return v.Validate()
}

// Policy returns the acceptance thresholds.
func (c *Config) Policy() evaluator.Policy {
	return evaluator.Policy{MinConfidence: c.MinConfidence, MinSpeakerMatch: c.MinSpeakerMatch}
}

// MaxSegmentBytes parses MaxSegmentSize.
func (c *Config) MaxSegmentBytes() int64 {
	n, err := util.ParseSize(c.MaxSegmentSize, defaultSegmentBytes)
	if err != nil || n <= 0 {
		return defaultSegmentBytes
	}
	return n
}

// RemoteDeadline bounds all remote calls of one request.
func (c *Config) RemoteDeadline() time.Duration {
	return time.Duration(c.RemoteDeadlineSeconds) * time.Second
}

// Formats returns AllowedFormats as audio formats.
func (c *Config) Formats() []audio.Format {
	out := make([]audio.Format, len(c.AllowedFormats))
	for i, f := range c.AllowedFormats {
		out[i] = audio.Format(f)
	}
	return out
}
