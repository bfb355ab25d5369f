package hybrid

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/kbukum/hybridstt/audio"
	"github.com/kbukum/hybridstt/encryption"
	apperrors "github.com/kbukum/hybridstt/errors"
	"github.com/kbukum/hybridstt/provider"
	"github.com/kbukum/hybridstt/speaker"
	"github.com/kbukum/hybridstt/transcription/remote"
)

func TestProcess_JoinsTrimmedSegmentTexts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{"text": " hello world ", "language": "english"})
	}))
	defer srv.Close()

	rb, err := remote.New(remote.Config{BaseURL: srv.URL, APIKey: "sk-test", TimeoutSeconds: 2}, nil, nil)
	if err != nil {
		t.Fatalf("remote.New() error = %v", err)
	}
	f := newFixture()
	f.deps.Remote = rb
	o := f.orchestrator(t)

	res, err := o.Process(context.Background(), &Request{Audio: largeWAV()})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if res.Metadata.ChunksProcessed != 3 || calls.Load() != 3 {
		t.Fatalf("chunks = %d calls = %d, want 3", res.Metadata.ChunksProcessed, calls.Load())
	}
	if want := "hello world hello world hello world"; res.Text != want {
		t.Errorf("Text = %q, want %q", res.Text, want)
	}
}

func TestProcess_EmptySegmentTextsAreSkipped(t *testing.T) {
	f := newFixture()
	f.remote.text = func(idx int) string { return []string{"first", "  ", "last"}[idx] }
	o := f.orchestrator(t)

	res, err := o.Process(context.Background(), &Request{Audio: largeWAV()})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if res.Text != "first last" {
		t.Errorf("Text = %q, want %q", res.Text, "first last")
	}
}

// wavDecoder stands in for ffmpeg by returning a fixed WAV payload.
type wavDecoder struct {
	out   []byte
	calls atomic.Int32
}

func (d *wavDecoder) DecodeWAV(_ context.Context, a *audio.Asset) (*audio.Asset, error) {
	d.calls.Add(1)
	return audio.NewAsset(d.out, "decoded.wav", a.Language)
}

func flacUpload() []byte {
	return append([]byte("fLaC"), make([]byte, 100<<10)...)
}

func TestProcess_OversizedFLACIsDecodedAndChunked(t *testing.T) {
	dec := &wavDecoder{out: largeWAV()}
	f := newFixture()
	f.deps.Chunker = audio.NewChunker(audio.WithDecoder(dec))
	o := f.orchestrator(t)

	res, err := o.Process(context.Background(), &Request{Audio: flacUpload(), Filename: "talk.flac"})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if dec.calls.Load() != 1 {
		t.Errorf("decoder calls = %d, want 1", dec.calls.Load())
	}
	if res.Metadata.ChunksProcessed != 3 || f.remote.callCount() != 3 {
		t.Errorf("chunks = %d remote calls = %d, want 3", res.Metadata.ChunksProcessed, f.remote.callCount())
	}
	if res.Text != "openai0 openai1 openai2" {
		t.Errorf("Text = %q", res.Text)
	}
}

func TestProcess_OversizedFLACWithoutDecoder(t *testing.T) {
	f := newFixture()
	o := f.orchestrator(t)

	_, err := o.Process(context.Background(), &Request{Audio: flacUpload(), Filename: "talk.flac"})
	wantCode(t, err, apperrors.ErrCodeChunking)
	if f.remote.callCount() != 0 {
		t.Errorf("remote calls = %d, want none", f.remote.callCount())
	}
}

func TestProcess_SpeakerSampleIsFirstSegment(t *testing.T) {
	sealer, err := encryption.New("0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatal(err)
	}
	var sizes []int
	ext := provider.Func("sized-extractor", func(_ context.Context, s speaker.Sample) ([]float64, error) {
		sizes = append(sizes, len(s.Audio))
		return []float64{1, 2, 3}, nil
	})
	v := speaker.NewVerifier(ext, speaker.NewVault(speaker.NewMemoryStore(), sealer), nil, nil)
	if _, err := v.Enroll(context.Background(), "ada", [][]byte{{1, 2, 3}}); err != nil {
		t.Fatal(err)
	}

	f := newFixture()
	f.deps.Verifier = v
	o := f.orchestrator(t)
	res, err := o.Process(context.Background(), &Request{Audio: largeWAV(), VerifySpeaker: true, UserID: "ada"})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if res.Metadata.ChunksProcessed != 3 {
		t.Fatalf("ChunksProcessed = %d, want 3", res.Metadata.ChunksProcessed)
	}
	if len(sizes) != 2 {
		t.Fatalf("extractor calls = %d, want enroll and verify", len(sizes))
	}
	limit := f.cfg.MaxSegmentBytes()
	if got := sizes[1]; int64(got) > limit || got >= len(largeWAV()) {
		t.Errorf("verification sample = %d bytes, want first segment within %d", got, limit)
	}
}
