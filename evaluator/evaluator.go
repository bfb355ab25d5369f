// Package evaluator decides whether a transcription attempt or a speaker
// score is good enough to accept.
package evaluator

import (
	"fmt"

	apperrors "github.com/kbukum/hybridstt/errors"
	"github.com/kbukum/hybridstt/transcription"
)

// Rejection reasons reported by Explain besides the failure reasons.
const (
	ReasonLowConfidence     = "low_confidence"
	ReasonMissingConfidence = "missing_confidence"
)

// Policy holds the acceptance thresholds.
type Policy struct {
	MinConfidence   float64 `yaml:"min_confidence" mapstructure:"min_confidence"`
	MinSpeakerMatch float64 `yaml:"min_speaker_match" mapstructure:"min_speaker_match"`
}

// DefaultPolicy matches the service defaults.
func DefaultPolicy() Policy {
	return Policy{MinConfidence: 0.85, MinSpeakerMatch: 0.90}
}

// Validate checks both thresholds lie in [0,1].
func (p Policy) Validate() error {
	if p.MinConfidence < 0 || p.MinConfidence > 1 {
		return fmt.Errorf("evaluator: min_confidence %v outside [0,1]", p.MinConfidence)
	}
	if p.MinSpeakerMatch < 0 || p.MinSpeakerMatch > 1 {
		return fmt.Errorf("evaluator: min_speaker_match %v outside [0,1]", p.MinSpeakerMatch)
	}
	return nil
}

// Accept reports whether a is usable. Remote output carries no confidence
// and is accepted whenever the call succeeded; local output must reach
// MinConfidence.
func Accept(a *transcription.Attempt, p Policy) bool {
	return Explain(a, p) == ""
}

// Explain returns why a would be rejected, or "" when it is accepted.
func Explain(a *transcription.Attempt, p Policy) string {
	switch {
	case a == nil:
		return apperrors.ReasonServiceUnavailable
	case !a.OK:
		return a.Reason
	case a.Kind == transcription.KindRemote:
		return ""
	case a.Confidence == nil:
		return ReasonMissingConfidence
	case *a.Confidence < p.MinConfidence:
		return ReasonLowConfidence
	}
	return ""
}

// AcceptSpeaker reports whether a speaker similarity reaches the threshold.
func AcceptSpeaker(score float64, p Policy) bool {
	return score >= p.MinSpeakerMatch
}

// CheckLanguage fails when b is the only backend that can still serve the
// request and it does not support lang.
func CheckLanguage(lang string, b transcription.Backend, onlyBackend bool) error {
	if !onlyBackend || lang == "" || b.SupportsLanguage(lang) {
		return nil
	}
	return apperrors.UnsupportedLanguage(lang, b.Name())
}
