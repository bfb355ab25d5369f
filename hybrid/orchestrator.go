package hybrid

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/hybridstt/audio"
	apperrors "github.com/kbukum/hybridstt/errors"
	"github.com/kbukum/hybridstt/evaluator"
	"github.com/kbukum/hybridstt/logger"
	"github.com/kbukum/hybridstt/observability"
	"github.com/kbukum/hybridstt/resilience"
	"github.com/kbukum/hybridstt/semantic"
	"github.com/kbukum/hybridstt/speaker"
	"github.com/kbukum/hybridstt/storage"
	"github.com/kbukum/hybridstt/transcription"
	"github.com/kbukum/hybridstt/validation"
)

// State is a step of request processing.
type State string

const (
	StateInit          State = "init"
	StateRemoteAttempt State = "remote_attempt"
	StateAccepted      State = "accepted"
	StateLocalFallback State = "local_fallback"
	StateSpeakerCheck  State = "speaker_check"
	StateSemanticCheck State = "semantic_check"
	StateDone          State = "done"
	StateFailed        State = "failed"
)

// Deps are the collaborators of an Orchestrator. Verifier, Semantic and
// Prober are optional.
type Deps struct {
	Remote  transcription.Backend
	Local   transcription.Backend
	Chunker *audio.Chunker
	Prober  audio.Prober
	// Fragments stores temporary segment files.
	Fragments storage.Storage

	Verifier *speaker.Verifier
	// SpeakerMandatory makes a failed or missing verification fatal.
	SpeakerMandatory bool
	Semantic         *semantic.Validator

	Logger  *logger.Logger
	Metrics *observability.Metrics
}

// Orchestrator processes transcription requests. It is safe for concurrent
// use.
type Orchestrator struct {
	cfg       Config
	policy    evaluator.Policy
	remote    transcription.Backend
	local     transcription.Backend
	chunker   *audio.Chunker
	prober    audio.Prober
	fragments storage.Storage
	verifier  *speaker.Verifier
	mandatory bool
	semantic  *semantic.Validator
	admission *resilience.Bulkhead
	log       *logger.Logger
	metrics   *observability.Metrics
}

// New creates an orchestrator.
func New(cfg Config, deps Deps) (*Orchestrator, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Remote == nil || deps.Local == nil {
		return nil, fmt.Errorf("hybrid: both a remote and a local backend are required")
	}
	if deps.Remote.Kind() != transcription.KindRemote || deps.Local.Kind() != transcription.KindLocal {
		return nil, fmt.Errorf("hybrid: backend kinds are %s/%s, want remote/local",
			deps.Remote.Kind(), deps.Local.Kind())
	}
	if deps.Chunker == nil {
		deps.Chunker = audio.NewChunker()
	}
	if deps.Fragments == nil {
		deps.Fragments = storage.NewMemory()
	}
	log := deps.Logger
	if log == nil {
		log = logger.NewNop()
	}
	log = log.WithComponent("hybrid")

	o := &Orchestrator{
		cfg:       cfg,
		policy:    cfg.Policy(),
		remote:    deps.Remote,
		local:     deps.Local,
		chunker:   deps.Chunker,
		prober:    deps.Prober,
		fragments: deps.Fragments,
		verifier:  deps.Verifier,
		mandatory: deps.SpeakerMandatory,
		semantic:  deps.Semantic,
		log:       log,
		metrics:   deps.Metrics,
	}
	o.admission = resilience.NewBulkhead(resilience.BulkheadConfig{
		Name:          "hybrid-admission",
		MaxConcurrent: cfg.MaxConcurrentRequests,
		MaxWait:       cfg.AdmissionWait,
		OnReject: func(name string, err error) {
			log.Warn("request rejected at admission", logger.Fields("bulkhead", name, "error", err.Error()))
		},
	})
	return o, nil
}

// Config returns the effective configuration.
func (o *Orchestrator) Config() Config { return o.cfg }

// Process runs one request to completion.
func (o *Orchestrator) Process(ctx context.Context, req *Request) (*Result, error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, observability.SpanProcess)
	defer span.End()

	release, err := o.admission.Acquire(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperrors.Canceled(ctx.Err())
		}
		return nil, apperrors.ServiceUnavailable("transcription service").WithCause(err)
	}
	defer release()

	o.metrics.RecordRequestStart(ctx)
	r := &run{req: req, start: start, log: o.log.WithContext(ctx)}
	res, err := o.process(ctx, r)
	if err != nil {
		if ctx.Err() != nil {
			err = apperrors.Canceled(ctx.Err())
		}
		o.transition(ctx, r, StateFailed)
		observability.SetSpanError(ctx, err)
		r.log.Warn("request failed", logger.Fields("error", err.Error(), "duration_ms", time.Since(start).Milliseconds()))
		o.metrics.RecordRequestEnd(ctx, r.source, "error", time.Since(start))
		return nil, err
	}
	observability.SetSpanAttribute(ctx, observability.AttrSource, res.Source)
	observability.SetSpanAttribute(ctx, observability.AttrFallback, res.Metadata.FallbackUsed)
	r.log.Info("request completed", logger.Fields(
		"source", res.Source,
		"chunks", res.Metadata.ChunksProcessed,
		"fallback_used", res.Metadata.FallbackUsed,
		"duration_ms", time.Since(start).Milliseconds(),
	))
	o.metrics.RecordRequestEnd(ctx, res.Source, "ok", time.Since(start))
	return res, nil
}

func (o *Orchestrator) transition(ctx context.Context, r *run, s State) {
	r.state = s
	trace.SpanFromContext(ctx).AddEvent(string(s))
	r.log.Debug("state transition", logger.Fields("state", string(s)))
}

func (o *Orchestrator) process(ctx context.Context, r *run) (*Result, error) {
	o.transition(ctx, r, StateInit)
	if err := o.validate(r.req); err != nil {
		return nil, err
	}
	asset, err := audio.NewAsset(r.req.Audio, r.req.Filename, r.req.Language)
	if err != nil {
		return nil, err
	}
	if err := audio.CheckAllowed(asset.Format, o.cfg.Formats()); err != nil {
		return nil, err
	}
	if asset.Duration == 0 && o.prober != nil {
		if d, err := o.prober.Probe(ctx, asset); err == nil {
			asset = asset.WithDuration(d)
		} else {
			r.log.Debug("duration probe failed", logger.Fields("error", err.Error()))
		}
	}
	r.asset = asset

	if err := o.precheckSpeaker(ctx, r); err != nil {
		return nil, err
	}

	cctx, span := observability.StartSpan(ctx, observability.SpanChunk)
	segments, err := o.chunker.Chunk(cctx, asset, o.cfg.MaxSegmentBytes())
	observability.SetSpanAttribute(cctx, observability.AttrSegments, len(segments))
	observability.SetSpanError(cctx, err)
	span.End()
	if err != nil {
		return nil, err
	}
	r.segments = segments

	r.ws = audio.NewWorkspace(o.fragments)
	defer func() {
		if err := r.ws.Release(); err != nil {
			r.log.Warn("fragment release failed", logger.Fields("prefix", r.ws.Prefix(), "error", err.Error()))
		}
	}()

	if o.cfg.PrimaryService == PrimaryLocal {
		err = o.localFirst(ctx, r)
	} else {
		err = o.remoteFirst(ctx, r)
	}
	if err != nil {
		return nil, err
	}

	merged, err := r.merge()
	if err != nil {
		return nil, err
	}
	res := r.result(merged)

	if err := o.checkSpeaker(ctx, r, res); err != nil {
		return nil, err
	}
	o.checkSemantics(ctx, r, res)
	if r.req.Translate {
		o.translate(ctx, r, res)
	}
	if ctx.Err() != nil {
		return nil, apperrors.Canceled(ctx.Err())
	}

	o.transition(ctx, r, StateDone)
	res.Metadata.ProcessingTime = time.Since(r.start).Seconds()
	if r.req.ReturnDebug {
		res.Debug = r.debug(merged)
	}
	return res, nil
}

func (o *Orchestrator) validate(req *Request) error {
	if req == nil {
		return apperrors.InvalidInput("request", "missing request")
	}
	if len(req.Audio) == 0 {
		return apperrors.InvalidInput("audio", "audio is required")
	}
	if err := validation.Struct(req); err != nil {
		return err
	}
	if req.VerifySpeaker && req.UserID == "" {
		return apperrors.InvalidInput("user_id", "user_id is required when verify_speaker is set")
	}
	return nil
}
