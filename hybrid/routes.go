package hybrid

import (
	"context"
	"strings"
	"sync"
	"time"

	apperrors "github.com/kbukum/hybridstt/errors"
	"github.com/kbukum/hybridstt/evaluator"
	"github.com/kbukum/hybridstt/logger"
	"github.com/kbukum/hybridstt/observability"
	"github.com/kbukum/hybridstt/transcription"
	"github.com/kbukum/hybridstt/util"
)

const contextPrefix = "Previous context: "

// op selects the backend capability a pass calls.
type op struct {
	purpose   string
	translate bool
}

var (
	opTranscribe = op{purpose: "transcribe"}
	opCompare    = op{purpose: "compare"}
	opTranslate  = op{purpose: "translate", translate: true}
)

func (p op) call(ctx context.Context, b transcription.Backend, req *transcription.Request) *transcription.Attempt {
	if p.translate {
		return b.Translate(ctx, req)
	}
	return b.Transcribe(ctx, req)
}

func (o *Orchestrator) remoteFirst(ctx context.Context, r *run) error {
	o.transition(ctx, r, StateRemoteAttempt)
	remote := o.runRemote(ctx, r, opTranscribe)
	r.record(opTranscribe.purpose, remote)
	idx, reason := firstRejected(remote, o.policy)
	if idx < 0 {
		o.transition(ctx, r, StateAccepted)
		r.accept(remote, o.remote, SourceRemote, false)
		return nil
	}
	if ctx.Err() != nil {
		return apperrors.Canceled(ctx.Err())
	}

	r.log.Info("remote rejected", logger.Fields("segment", idx, "reason", reason))
	if !o.cfg.FallbackToLocal {
		return apperrors.FromReason(reason, o.remote.Name(), attemptErr(remote[idx]))
	}
	if err := evaluator.CheckLanguage(r.req.Language, o.local, true); err != nil {
		return err
	}

	o.transition(ctx, r, StateLocalFallback)
	r.fallbackReason = reason
	r.remoteFailure = reason
	o.metrics.RecordFallback(ctx, string(transcription.KindRemote), reason)
	observability.SetSpanAttribute(ctx, observability.AttrFallbackCause, reason)

	local := o.runLocal(ctx, r, opTranscribe)
	r.record(opTranscribe.purpose, local)
	for _, a := range local {
		if a == nil || !a.OK {
			if ctx.Err() != nil {
				return apperrors.Canceled(ctx.Err())
			}
			return apperrors.FromReason(reasonOf(a), o.local.Name(), attemptErr(a))
		}
	}
	if lowIdx, _ := firstRejected(local, o.policy); lowIdx >= 0 {
		r.note(NoteLocalLowConfidence)
	}
	r.accept(local, o.local, SourceLocal, true)
	return nil
}

func (o *Orchestrator) localFirst(ctx context.Context, r *run) error {
	if !o.local.SupportsLanguage(r.req.Language) {
		if !o.cfg.FallbackToLocal {
			return evaluator.CheckLanguage(r.req.Language, o.local, true)
		}
		r.fallbackReason = ReasonUnsupportedLanguage
		return o.escalate(ctx, r, nil)
	}

	o.transition(ctx, r, StateLocalFallback)
	local := o.runLocal(ctx, r, opTranscribe)
	r.record(opTranscribe.purpose, local)
	idx, reason := firstRejected(local, o.policy)
	if idx < 0 {
		o.transition(ctx, r, StateAccepted)
		r.accept(local, o.local, SourceLocal, false)
		return nil
	}
	if ctx.Err() != nil {
		return apperrors.Canceled(ctx.Err())
	}

	r.log.Info("local rejected", logger.Fields("segment", idx, "reason", reason))
	if !o.cfg.FallbackToLocal {
		if allOK(local) {
			r.note(NoteLocalLowConfidence)
			r.accept(local, o.local, SourceLocal, false)
			return nil
		}
		return apperrors.FromReason(reason, o.local.Name(), attemptErr(local[idx]))
	}
	r.fallbackReason = reason
	return o.escalate(ctx, r, local)
}

// escalate serves a local-primary request from remote. local holds the
// rejected local attempts, if any, kept when remote fails too.
func (o *Orchestrator) escalate(ctx context.Context, r *run, local []*transcription.Attempt) error {
	o.transition(ctx, r, StateRemoteAttempt)
	o.metrics.RecordFallback(ctx, string(transcription.KindLocal), r.fallbackReason)
	observability.SetSpanAttribute(ctx, observability.AttrFallbackCause, r.fallbackReason)

	remote := o.runRemote(ctx, r, opTranscribe)
	r.record(opTranscribe.purpose, remote)
	idx, reason := firstRejected(remote, o.policy)
	if idx < 0 {
		r.accept(remote, o.remote, SourceFallback, true)
		return nil
	}
	if ctx.Err() != nil {
		return apperrors.Canceled(ctx.Err())
	}
	r.remoteFailure = reason
	if local != nil && allOK(local) {
		r.note(NoteLocalLowConfidence)
		r.note(NoteRemoteEscalationFail)
		r.accept(local, o.local, SourceLocal, false)
		return nil
	}
	return apperrors.FromReason(reason, o.remote.Name(), attemptErr(remote[idx]))
}

// runRemote calls the remote backend for every segment under one deadline.
// Calls run concurrently up to RemoteMaxParallel unless prompt chaining is
// on. Results are indexed by segment, never by completion order.
func (o *Orchestrator) runRemote(ctx context.Context, r *run, p op) []*transcription.Attempt {
	ctx, span := observability.StartSpan(ctx, observability.SpanRemote)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrBackend, o.remote.Name())
	ctx, cancel := context.WithTimeout(ctx, o.cfg.RemoteDeadline())
	defer cancel()

	results := make([]*transcription.Attempt, len(r.segments))
	if p == opTranscribe && o.cfg.ChunkContextWords > 0 && len(r.segments) > 1 {
		prompt := r.req.Prompt
		for i := range r.segments {
			results[i] = p.call(ctx, o.remote, o.backendRequest(r, i, prompt))
			if !results[i].OK {
				// The rest would be discarded by the all-or-nothing rule.
				break
			}
			prompt = chainPrompt(r.req.Prompt, results[i].Text, o.cfg.ChunkContextWords)
		}
		return results
	}

	sem := make(chan struct{}, o.cfg.RemoteMaxParallel)
	var wg sync.WaitGroup
	for i := range r.segments {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := o.backendRequest(r, i, r.req.Prompt)
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results[i] = transcription.Failed(o.remote, req, time.Now(), ctx.Err())
				return
			}
			defer func() { <-sem }()
			results[i] = p.call(ctx, o.remote, req)
		}()
	}
	wg.Wait()
	return results
}

// runLocal calls the local backend segment by segment and stops at the
// first failure, which is fatal.
func (o *Orchestrator) runLocal(ctx context.Context, r *run, p op) []*transcription.Attempt {
	ctx, span := observability.StartSpan(ctx, observability.SpanLocal)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrBackend, o.local.Name())

	results := make([]*transcription.Attempt, len(r.segments))
	for i := range r.segments {
		results[i] = p.call(ctx, o.local, o.backendRequest(r, i, r.req.Prompt))
		if !results[i].OK {
			break
		}
	}
	return results
}

func (o *Orchestrator) backendRequest(r *run, i int, prompt string) *transcription.Request {
	return &transcription.Request{
		Segment:   &r.segments[i],
		Language:  r.req.Language,
		Prompt:    prompt,
		Workspace: r.ws,
	}
}

// chainPrompt prefixes the caller's prompt to the tail of the previous
// segment's text.
func chainPrompt(base, previous string, words int) string {
	tail := util.LastWords(previous, words)
	if tail == "" {
		return base
	}
	return strings.TrimSpace(base + " " + contextPrefix + tail)
}

// firstRejected returns the lowest rejected index and its reason, or -1.
func firstRejected(attempts []*transcription.Attempt, p evaluator.Policy) (int, string) {
	for i, a := range attempts {
		if reason := evaluator.Explain(a, p); reason != "" {
			return i, reason
		}
	}
	return -1, ""
}

func allOK(attempts []*transcription.Attempt) bool {
	for _, a := range attempts {
		if a == nil || !a.OK {
			return false
		}
	}
	return true
}

func reasonOf(a *transcription.Attempt) string {
	if a == nil || a.Reason == "" {
		return apperrors.ReasonServiceUnavailable
	}
	return a.Reason
}

func attemptErr(a *transcription.Attempt) error {
	if a == nil {
		return nil
	}
	return a.Err
}
