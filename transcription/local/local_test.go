package local

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/hybridstt/audio"
	"github.com/kbukum/hybridstt/audio/audiotest"
	apperrors "github.com/kbukum/hybridstt/errors"
	localstore "github.com/kbukum/hybridstt/storage/local"
	"github.com/kbukum/hybridstt/transcription"
)

func ptr(v float64) *float64 { return &v }

func newSegment(t *testing.T) *audio.Segment {
	t.Helper()
	a, err := audio.NewAsset(audiotest.WAV(8000, 1, 0.25), "clip.wav", "")
	if err != nil {
		t.Fatal(err)
	}
	return &audio.Segment{Index: 1, Length: a.Size, Duration: a.Duration, Payload: a.Data, Asset: a}
}

// fakeEngine records peak concurrency.
type fakeEngine struct {
	out      *Output
	err      error
	loadErr  error
	delay    time.Duration
	loads    atomic.Int32
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeEngine) Name() string    { return "fake" }
func (f *fakeEngine) NeedsFile() bool { return false }
func (f *fakeEngine) Close() error    { return nil }
func (f *fakeEngine) Ping(context.Context) error {
	return f.loadErr
}
func (f *fakeEngine) Load(context.Context) error {
	f.loads.Add(1)
	return f.loadErr
}
func (f *fakeEngine) Run(ctx context.Context, _ *Job) (*Output, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	select {
	case <-time.After(f.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return f.out, f.err
}

func newBackend(t *testing.T, e Engine, cfg Config) *Backend {
	t.Helper()
	b, err := New(cfg, NewModel(e, false), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		name string
		out  Output
		want float64
	}{
		{"reported", Output{Confidence: ptr(0.93), Segments: []OutputSegment{{AvgLogprob: ptr(-3)}}}, 0.93},
		{"reported clamped", Output{Confidence: ptr(1.4)}, 1},
		{"avg logprob", Output{Segments: []OutputSegment{{AvgLogprob: ptr(-0.1)}, {AvgLogprob: ptr(-0.3)}}}, math.Exp(-0.2)},
		{"scores", Output{Segments: []OutputSegment{{Score: ptr(0.8)}, {Score: ptr(0.6)}}}, 0.7},
		{"nothing", Output{Segments: []OutputSegment{{Text: "x"}}}, 0},
	}
	for _, tt := range tests {
		if got := Confidence(&tt.out); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("%s: Confidence = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestBackend_AttemptAlwaysHasConfidence(t *testing.T) {
	e := &fakeEngine{out: &Output{Text: " merhaba ", Language: "tr"}}
	a := newBackend(t, e, Config{}).Transcribe(context.Background(), &transcription.Request{Segment: newSegment(t)})
	if !a.OK || a.Text != "merhaba" || a.Language != "tr" {
		t.Fatalf("attempt = %+v", a)
	}
	if a.Confidence == nil || *a.Confidence != 0 {
		t.Fatalf("confidence = %v", a.Confidence)
	}
	if a.Kind != transcription.KindLocal || a.SegmentIndex != 1 {
		t.Fatalf("kind/index = %s/%d", a.Kind, a.SegmentIndex)
	}
}

func TestBackend_SerializesInference(t *testing.T) {
	e := &fakeEngine{out: &Output{Text: "x"}, delay: 20 * time.Millisecond}
	b := newBackend(t, e, Config{})
	seg := newSegment(t)

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if a := b.Transcribe(context.Background(), &transcription.Request{Segment: seg}); !a.OK {
				t.Errorf("attempt failed: %v", a.Err)
			}
		}()
	}
	wg.Wait()
	if e.peak.Load() != 1 {
		t.Fatalf("peak concurrency %d, want 1", e.peak.Load())
	}
	if e.loads.Load() != 1 {
		t.Fatalf("model loaded %d times", e.loads.Load())
	}
}

func TestBackend_Timeout(t *testing.T) {
	e := &fakeEngine{out: &Output{Text: "x"}, delay: time.Second}
	a := newBackend(t, e, Config{}).Transcribe(context.Background(), &transcription.Request{
		Segment: newSegment(t), Timeout: 20 * time.Millisecond,
	})
	if a.OK || a.Reason != apperrors.ReasonTimeout {
		t.Fatalf("reason = %q err = %v", a.Reason, a.Err)
	}
}

func TestBackend_LoadFailure(t *testing.T) {
	e := &fakeEngine{loadErr: errors.New("no weights")}
	b := newBackend(t, e, Config{})
	a := b.Transcribe(context.Background(), &transcription.Request{Segment: newSegment(t)})
	if a.OK || a.Reason != apperrors.ReasonServiceUnavailable {
		t.Fatalf("reason = %q", a.Reason)
	}
	if st := b.Status(context.Background()); st.Status != transcription.StatusUnavailable {
		t.Fatalf("status = %+v", st)
	}
	if b.IsAvailable(context.Background()) {
		t.Fatal("available after failed load")
	}
}

func TestBackend_Languages(t *testing.T) {
	e := &fakeEngine{out: &Output{Text: "x"}}
	b := newBackend(t, e, Config{Languages: []string{"en", "tr"}})
	if !b.SupportsLanguage("TR") || b.SupportsLanguage("ja") {
		t.Fatal("language list not applied")
	}
	a := b.Transcribe(context.Background(), &transcription.Request{Segment: newSegment(t), Language: "ja"})
	if a.OK || a.Reason != apperrors.ReasonInvalidInput {
		t.Fatalf("unsupported language attempt = %+v", a)
	}
}

func TestSidecarEngine(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			_, _ = w.Write([]byte(`{"status":"ok","model":"base"}`))
		case "/transcribe", "/translate":
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("multipart: %v", err)
			}
			if _, _, err := r.FormFile("audio"); err != nil {
				t.Errorf("audio part: %v", err)
			}
			text := "bonjour"
			if r.URL.Path == "/translate" {
				text = "hello"
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"text": text, "language": r.FormValue("language"),
				"segments": []map[string]any{{"text": text, "avg_logprob": -0.05}},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	cfg := Config{BaseURL: srv.URL}
	e, err := NewEngine(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	b := newBackend(t, e, cfg)
	if st := b.Status(context.Background()); st.Status != transcription.StatusReady {
		t.Fatalf("status = %+v", st)
	}

	a := b.Transcribe(context.Background(), &transcription.Request{Segment: newSegment(t), Language: "fr"})
	if !a.OK || a.Text != "bonjour" || a.Language != "fr" {
		t.Fatalf("attempt = %+v", a)
	}
	if math.Abs(*a.Confidence-math.Exp(-0.05)) > 1e-12 {
		t.Fatalf("confidence = %v", *a.Confidence)
	}
	if tr := b.Translate(context.Background(), &transcription.Request{Segment: newSegment(t)}); !tr.OK || tr.Text != "hello" {
		t.Fatalf("translate = %+v", tr)
	}
}

func TestSidecarEngine_Loading(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"loading"}`))
	}))
	defer srv.Close()

	e, _ := NewSidecarEngine(Config{BaseURL: srv.URL}, nil)
	if err := e.Ping(context.Background()); err == nil {
		t.Fatal("loading sidecar reported ready")
	}
}

const fakeWhisper = `#!/bin/sh
in="$1"; shift
while [ $# -gt 0 ]; do
  case "$1" in
    --output_dir) dir="$2"; shift ;;
    --task) task="$2"; shift ;;
  esac
  shift
done
stem=$(basename "$in"); stem="${stem%.*}"
printf '{"text":" %s ok ","language":"en","segments":[{"avg_logprob":-0.2}]}' "$task" > "$dir/$stem.json"
`

func TestCLIEngine(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "whisper")
	if err := os.WriteFile(bin, []byte(fakeWhisper), 0o755); err != nil {
		t.Fatal(err)
	}
	store, err := localstore.NewStorage(filepath.Join(dir, "fragments"))
	if err != nil {
		t.Fatal(err)
	}
	ws := audio.NewWorkspace(store)
	defer func() { _ = ws.Release() }()

	cfg := Config{Engine: EngineCLI, Binary: bin}
	e, err := NewEngine(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	b := newBackend(t, e, cfg)

	a := b.Transcribe(context.Background(), &transcription.Request{Segment: newSegment(t), Workspace: ws})
	if !a.OK || a.Text != "transcribe ok" {
		t.Fatalf("attempt = %+v err=%v", a, a.Err)
	}
	if math.Abs(*a.Confidence-math.Exp(-0.2)) > 1e-12 {
		t.Fatalf("confidence = %v", *a.Confidence)
	}

	noWS := b.Transcribe(context.Background(), &transcription.Request{Segment: newSegment(t)})
	if noWS.OK {
		t.Fatal("cli engine ran without a workspace")
	}
}

func TestCLIEngine_MissingBinary(t *testing.T) {
	e := NewCLIEngine(Config{Binary: "/nonexistent/whisper"}, nil)
	if err := e.Ping(context.Background()); err == nil {
		t.Fatal("missing binary pinged ok")
	}
}

func TestFactory(t *testing.T) {
	model := NewModel(&fakeEngine{out: &Output{}}, false)
	reg := transcription.NewRegistry()
	reg.RegisterFactory(transcription.FactoryLocal, Factory(model, nil, nil))
	b, err := reg.Create(transcription.FactoryLocal, map[string]any{"timeout_seconds": 5, "languages": []string{"en"}})
	if err != nil {
		t.Fatal(err)
	}
	if b.Name() != "whisper-local" || b.Kind() != transcription.KindLocal {
		t.Fatalf("backend = %s/%s", b.Name(), b.Kind())
	}
	if _, err := reg.Create(transcription.FactoryLocal, map[string]any{"engine": "gpu"}); err == nil {
		t.Fatal("unknown engine accepted")
	}
}
