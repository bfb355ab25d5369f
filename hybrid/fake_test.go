package hybrid

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kbukum/hybridstt/transcription"
)

// fakeBackend answers every segment with "<name><index>" unless told
// otherwise.
type fakeBackend struct {
	name       string
	kind       transcription.Kind
	languages  []string
	confidence *float64
	// failAt maps segment index to failure reason; -1 fails every segment.
	failAt map[int]string
	// failCalls limits failAt to the first n matching calls when positive.
	failCalls int32
	// text overrides the per-segment text.
	text func(idx int) string
	// delay is applied before answering, honoring cancellation.
	delay func(idx int) time.Duration
	// touch writes the segment into the workspace before answering.
	touch         bool
	available     *bool
	failTranslate bool

	mu         sync.Mutex
	calls      []int
	translates []int
	prompts    []string
	failed     atomic.Int32
	inflight   atomic.Int32
	peak       atomic.Int32
}

func newRemote() *fakeBackend {
	return &fakeBackend{name: "openai", kind: transcription.KindRemote}
}

func newLocal(conf float64) *fakeBackend {
	return &fakeBackend{name: "whisper-local", kind: transcription.KindLocal, confidence: transcription.Float(conf)}
}

func (f *fakeBackend) Name() string { return f.name }
func (f *fakeBackend) IsAvailable(context.Context) bool {
	return f.available == nil || *f.available
}
func (f *fakeBackend) Kind() transcription.Kind { return f.kind }

func (f *fakeBackend) SupportsLanguage(lang string) bool {
	return transcription.SupportsLanguage(f.languages, lang)
}

func (f *fakeBackend) Status(context.Context) transcription.BackendStatus {
	return transcription.BackendStatus{Name: f.name, Kind: f.kind, Status: transcription.StatusReady}
}

func (f *fakeBackend) Transcribe(ctx context.Context, req *transcription.Request) *transcription.Attempt {
	f.mu.Lock()
	f.calls = append(f.calls, req.Segment.Index)
	f.prompts = append(f.prompts, req.Prompt)
	f.mu.Unlock()
	return f.answer(ctx, req)
}

func (f *fakeBackend) Translate(ctx context.Context, req *transcription.Request) *transcription.Attempt {
	f.mu.Lock()
	f.translates = append(f.translates, req.Segment.Index)
	f.mu.Unlock()
	if f.failTranslate {
		a := transcription.Failed(f, req, time.Now(), fmt.Errorf("translation unsupported"))
		a.Reason = "invalid_input"
		return a
	}
	a := f.answer(ctx, req)
	if a.OK {
		a.Text = "en:" + a.Text
	}
	return a
}

func (f *fakeBackend) answer(ctx context.Context, req *transcription.Request) *transcription.Attempt {
	start := time.Now()
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	idx := req.Segment.Index
	if f.touch {
		if _, err := req.Workspace.Put(ctx, req.Segment); err != nil {
			return transcription.Failed(f, req, start, err)
		}
	}
	if f.delay != nil {
		select {
		case <-time.After(f.delay(idx)):
		case <-ctx.Done():
			return transcription.Failed(f, req, start, ctx.Err())
		}
	}
	reason, ok := f.failAt[idx]
	if !ok {
		reason, ok = f.failAt[-1]
	}
	if ok && f.failCalls > 0 && f.failed.Add(1) > f.failCalls {
		ok = false
	}
	if ok {
		a := transcription.Failed(f, req, start, fmt.Errorf("%s failed: %s", f.name, reason))
		a.Reason = reason
		return a
	}

	text := fmt.Sprintf("%s%d", f.name, idx)
	if f.text != nil {
		text = f.text(idx)
	}
	return &transcription.Attempt{
		Backend:        f.name,
		Kind:           f.kind,
		SegmentIndex:   idx,
		Text:           text,
		Language:       "en",
		Confidence:     f.confidence,
		Duration:       req.Segment.Duration,
		ProcessingTime: time.Since(start),
		OK:             true,
		Raw:            []byte(`{"text":"` + text + `"}`),
	}
}

func (f *fakeBackend) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeBackend) sortedCalls() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := slices.Clone(f.calls)
	slices.Sort(out)
	return out
}

func failEvery(reason string) map[int]string { return map[int]string{-1: reason} }

