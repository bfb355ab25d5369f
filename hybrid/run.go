package hybrid

import (
	"slices"
	"strings"
	"time"

	"github.com/kbukum/hybridstt/aggregator"
	"github.com/kbukum/hybridstt/audio"
	"github.com/kbukum/hybridstt/logger"
	"github.com/kbukum/hybridstt/transcription"
	"github.com/kbukum/hybridstt/util"
)

// run is the mutable state of one request. It is owned by a single
// goroutine; concurrent passes write into index-addressed slices only.
type run struct {
	req   *Request
	start time.Time
	log   *logger.Logger
	state State

	asset    *audio.Asset
	segments []audio.Segment
	ws       *audio.Workspace

	chosen         []*transcription.Attempt
	textBackend    transcription.Backend
	source         string
	fallback       bool
	fallbackReason string
	// remoteFailure is the reason remote was rejected earlier in this run.
	remoteFailure string

	calls []RawResponse
	notes []string
}

func (r *run) accept(attempts []*transcription.Attempt, b transcription.Backend, source string, fallback bool) {
	r.chosen = attempts
	r.textBackend = b
	r.source = source
	r.fallback = fallback
}

func (r *run) note(n string) {
	if !slices.Contains(r.notes, n) {
		r.notes = append(r.notes, n)
	}
}

func (r *run) record(purpose string, attempts []*transcription.Attempt) {
	for _, a := range attempts {
		if a == nil {
			continue
		}
		raw := RawResponse{
			Backend:        a.Backend,
			Kind:           string(a.Kind),
			Purpose:        purpose,
			SegmentIndex:   a.SegmentIndex,
			OK:             a.OK,
			Reason:         a.Reason,
			ProcessingTime: a.ProcessingTime.Seconds(),
			Body:           a.Raw,
		}
		if a.Err != nil {
			raw.Error = a.Err.Error()
		}
		r.calls = append(r.calls, raw)
	}
}

func (r *run) merge() (*aggregator.Merged, error) {
	agg := aggregator.New(len(r.segments))
	for _, a := range r.chosen {
		var err error
		if r.fallback {
			err = agg.AddFallback(a)
		} else {
			err = agg.Add(a)
		}
		if err != nil {
			return nil, err
		}
	}
	return agg.Merge()
}

func (r *run) result(m *aggregator.Merged) *Result {
	return &Result{
		Source: r.source,
		Text:   strings.TrimSpace(m.Text),
		Metadata: Metadata{
			Confidence:      m.Confidence,
			Duration:        util.Coalesce(m.Duration, r.asset.Duration),
			Language:        util.Coalesce(m.Language, r.req.Language),
			FallbackUsed:    m.FallbackUsed,
			ChunksProcessed: len(r.segments),
			BackendUsed:     strings.Join(m.Backends, ","),
		},
	}
}

func (r *run) debug(m *aggregator.Merged) *Debug {
	d := &Debug{
		RawResponses:   r.calls,
		ChunkDetails:   make([]ChunkDetail, len(r.segments)),
		FallbackReason: r.fallbackReason,
		Notes:          r.notes,
	}
	if d.RawResponses == nil {
		d.RawResponses = []RawResponse{}
	}
	for i, seg := range r.segments {
		a := m.Attempts[i]
		d.ChunkDetails[i] = ChunkDetail{
			Index:          seg.Index,
			Offset:         seg.Offset,
			Length:         seg.Length,
			Duration:       util.Coalesce(a.Duration, seg.Duration),
			Backend:        a.Backend,
			Text:           a.Text,
			Confidence:     a.Confidence,
			ProcessingTime: a.ProcessingTime.Seconds(),
		}
	}
	return d
}
