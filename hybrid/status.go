package hybrid

import (
	"context"
	"sync"

	"github.com/kbukum/hybridstt/transcription"
)

// StatusReport is the body of the status endpoint.
type StatusReport struct {
	Remote                    transcription.Status          `json:"remote"`
	Local                     transcription.Status          `json:"local"`
	PrimaryService            string                        `json:"primary_service"`
	FallbackEnabled           bool                          `json:"fallback_enabled"`
	SemanticValidationEnabled bool                          `json:"semantic_validation_enabled"`
	SpeakerVerification       bool                          `json:"speaker_verification"`
	MinConfidence             float64                       `json:"min_confidence"`
	MinSpeakerMatch           float64                       `json:"min_speaker_match"`
	SemanticThreshold         float64                       `json:"semantic_threshold"`
	MaxSegmentSize            string                        `json:"max_segment_size"`
	Backends                  []transcription.BackendStatus `json:"backends"`
}

// Status probes both backends concurrently.
func (o *Orchestrator) Status(ctx context.Context) StatusReport {
	var remote, local transcription.BackendStatus
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		remote = o.remote.Status(ctx)
	}()
	go func() {
		defer wg.Done()
		local = o.local.Status(ctx)
	}()
	wg.Wait()

	return StatusReport{
		Remote:                    remote.Status,
		Local:                     local.Status,
		PrimaryService:            o.cfg.PrimaryService,
		FallbackEnabled:           o.cfg.FallbackToLocal,
		SemanticValidationEnabled: o.cfg.UseSemanticValidation && o.semantic != nil,
		SpeakerVerification:       o.verifier != nil,
		MinConfidence:             o.cfg.MinConfidence,
		MinSpeakerMatch:           o.cfg.MinSpeakerMatch,
		SemanticThreshold:         o.cfg.SemanticThreshold,
		MaxSegmentSize:            o.cfg.MaxSegmentSize,
		Backends:                  []transcription.BackendStatus{remote, local},
	}
}
