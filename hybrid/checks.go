package hybrid

import (
	"context"
	"strings"

	apperrors "github.com/kbukum/hybridstt/errors"
	"github.com/kbukum/hybridstt/evaluator"
	"github.com/kbukum/hybridstt/logger"
	"github.com/kbukum/hybridstt/observability"
	"github.com/kbukum/hybridstt/transcription"
)

// precheckSpeaker fails before any transcription when verification is
// mandatory and cannot succeed.
func (o *Orchestrator) precheckSpeaker(ctx context.Context, r *run) error {
	if !r.req.VerifySpeaker || !o.mandatory {
		return nil
	}
	if o.verifier == nil {
		return apperrors.ServiceUnavailable("speaker verification")
	}
	ok, err := o.verifier.Exists(ctx, r.req.UserID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NoVoicePrint(r.req.UserID)
	}
	return nil
}

// checkSpeaker compares the caller's voiceprint against the first segment
// only; for chunked input that is at most max_segment_size of leading
// audio, which bounds the extractor upload. Advisory verification only
// reports the outcome.
func (o *Orchestrator) checkSpeaker(ctx context.Context, r *run, res *Result) error {
	if !r.req.VerifySpeaker {
		return nil
	}
	o.transition(ctx, r, StateSpeakerCheck)
	ctx, span := observability.StartSpan(ctx, observability.SpanSpeakerCheck)
	defer span.End()

	verified := false
	res.Metadata.SpeakerVerified = &verified
	if o.verifier == nil {
		r.note(NoteSpeakerUnverified)
		return nil
	}

	score, err := o.verifier.Verify(ctx, r.req.UserID, r.segments[0].Payload)
	if err != nil {
		observability.SetSpanError(ctx, err)
		if o.mandatory {
			return err
		}
		r.log.Warn("speaker verification skipped", logger.Fields("user_id", r.req.UserID, "error", err.Error()))
		r.note(NoteSpeakerUnverified)
		return nil
	}
	res.Metadata.SpeakerMatch = &score
	verified = evaluator.AcceptSpeaker(score, o.policy)
	if !verified && o.mandatory {
		return apperrors.SpeakerMismatch(score, o.policy.MinSpeakerMatch)
	}
	return nil
}

// checkSemantics scores the chosen text against the other backend's text.
// It never changes the chosen text and its failures are only noted.
func (o *Orchestrator) checkSemantics(ctx context.Context, r *run, res *Result) {
	enabled := o.cfg.UseSemanticValidation
	if r.req.UseSemantics != nil {
		enabled = *r.req.UseSemantics
	}
	if !enabled || o.semantic == nil {
		return
	}
	threshold := o.cfg.SemanticThreshold
	if r.req.SemanticThreshold != nil {
		threshold = *r.req.SemanticThreshold
	}

	o.transition(ctx, r, StateSemanticCheck)
	ctx, span := observability.StartSpan(ctx, observability.SpanSemantic)
	defer span.End()

	other := o.remote
	if r.textBackend.Kind() == transcription.KindRemote {
		other = o.local
	}
	if !other.IsAvailable(ctx) {
		r.note(NoteSemanticSkipped)
		return
	}
	if other.Kind() == transcription.KindRemote && transientFailure(r.remoteFailure) {
		r.log.Info("comparison skipped after remote failure", logger.Fields("reason", r.remoteFailure))
		r.note(NoteSemanticSkipped)
		return
	}

	var attempts []*transcription.Attempt
	if other.Kind() == transcription.KindRemote {
		attempts = o.runRemote(ctx, r, opCompare)
	} else {
		attempts = o.runLocal(ctx, r, opCompare)
	}
	r.record(opCompare.purpose, attempts)
	if !allOK(attempts) {
		r.log.Info("comparison transcript unavailable", logger.Fields("backend", other.Name()))
		r.note(NoteSemanticSkipped)
		return
	}

	otherText := joinText(attempts)
	score, err := o.semantic.Similarity(ctx, res.Text, otherText)
	if err != nil {
		observability.SetSpanError(ctx, err)
		r.log.Warn("semantic check failed", logger.Fields("error", err.Error()))
		r.note(NoteSemanticSkipped)
		return
	}
	divergent := score < threshold
	res.Metadata.SemanticDiff = &score
	res.Metadata.SemanticDivergent = &divergent
	if divergent {
		r.log.Info("backends diverge", logger.Fields("similarity", score, "threshold", threshold))
	}
}

// translate runs the backend that produced the text in translate mode.
func (o *Orchestrator) translate(ctx context.Context, r *run, res *Result) {
	var attempts []*transcription.Attempt
	if r.textBackend.Kind() == transcription.KindRemote {
		attempts = o.runRemote(ctx, r, opTranslate)
	} else {
		attempts = o.runLocal(ctx, r, opTranslate)
	}
	r.record(opTranslate.purpose, attempts)
	if !allOK(attempts) {
		r.log.Warn("translation failed", logger.Fields("backend", r.textBackend.Name()))
		r.note(NoteTranslationFailed)
		return
	}
	res.TranslatedText = joinText(attempts)
}

// transientFailure reports reasons a repeated call in the same request
// would almost certainly hit again.
func transientFailure(reason string) bool {
	switch reason {
	case apperrors.ReasonRateLimited, apperrors.ReasonTimeout, apperrors.ReasonServiceUnavailable:
		return true
	}
	return false
}

func joinText(attempts []*transcription.Attempt) string {
	parts := make([]string, 0, len(attempts))
	for _, a := range attempts {
		if t := strings.TrimSpace(a.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
