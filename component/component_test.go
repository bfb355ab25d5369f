package component

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeComponent struct {
	name     string
	startErr error
	stopErr  error
	log      *[]string
}

func (f *fakeComponent) Name() string { return f.name }
func (f *fakeComponent) Start(context.Context) error {
	*f.log = append(*f.log, "start:"+f.name)
	return f.startErr
}
func (f *fakeComponent) Stop(context.Context) error {
	*f.log = append(*f.log, "stop:"+f.name)
	return f.stopErr
}
func (f *fakeComponent) Health(context.Context) Health {
	return Health{Name: f.name, Status: StatusHealthy}
}

func TestRegistry_StartStopOrder(t *testing.T) {
	var log []string
	r := NewRegistry()
	for _, n := range []string{"redis", "remote", "server"} {
		if err := r.Register(&fakeComponent{name: n, log: &log}); err != nil {
			t.Fatalf("Register(%s): %v", n, err)
		}
	}
	if err := r.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll: %v", err)
	}
	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll: %v", err)
	}
	want := []string{"start:redis", "start:remote", "start:server", "stop:server", "stop:remote", "stop:redis"}
	if len(log) != len(want) {
		t.Fatalf("expected %v, got %v", want, log)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Errorf("step %d: expected %s, got %s", i, want[i], log[i])
		}
	}
}

func TestRegistry_DuplicateName(t *testing.T) {
	var log []string
	r := NewRegistry()
	_ = r.Register(&fakeComponent{name: "a", log: &log})
	if err := r.Register(&fakeComponent{name: "a", log: &log}); err == nil {
		t.Error("expected duplicate registration to fail")
	}
}

func TestRegistry_StartFailureStopsOnlyStarted(t *testing.T) {
	var log []string
	r := NewRegistry()
	_ = r.Register(&fakeComponent{name: "a", log: &log})
	_ = r.Register(&fakeComponent{name: "b", log: &log, startErr: errors.New("boom")})
	_ = r.Register(&fakeComponent{name: "c", log: &log})

	if err := r.StartAll(context.Background()); err == nil {
		t.Fatal("expected start error")
	}
	log = nil
	_ = r.StopAll(context.Background())
	if len(log) != 1 || log[0] != "stop:a" {
		t.Errorf("expected only a to stop, got %v", log)
	}
}

func TestRegistry_HealthAllAndGet(t *testing.T) {
	var log []string
	r := NewRegistry()
	_ = r.Register(&fakeComponent{name: "a", log: &log})
	if h := r.HealthAll(context.Background()); len(h) != 1 || h[0].Status != StatusHealthy {
		t.Errorf("unexpected health %v", h)
	}
	if r.Get("a") == nil || r.Get("missing") != nil {
		t.Error("Get returned unexpected result")
	}
}

func TestBaseLazyComponent_SingleInitialization(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	lc := NewBaseLazyComponent("model", func(context.Context) error {
		calls.Add(1)
		<-release
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = lc.Initialize(context.Background())
		}()
	}

	deadline := time.Now().Add(time.Second)
	for lc.State() != LoadLoading && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if lc.State() != LoadLoading {
		t.Fatalf("expected loading state, got %s", lc.State())
	}
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("expected one initializer call, got %d", calls.Load())
	}
	if !lc.IsInitialized() {
		t.Error("expected ready")
	}
}

func TestBaseLazyComponent_RetryAfterFailure(t *testing.T) {
	fail := true
	lc := NewBaseLazyComponent("model", func(context.Context) error {
		if fail {
			return errors.New("missing weights")
		}
		return nil
	})
	if err := lc.Initialize(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if lc.State() != LoadFailed || lc.LastError() == nil {
		t.Errorf("expected failed state with error, got %s", lc.State())
	}
	fail = false
	if err := lc.Initialize(context.Background()); err != nil {
		t.Fatalf("expected retry to succeed: %v", err)
	}
}

func TestBaseLazyComponent_Close(t *testing.T) {
	closed := false
	lc := NewBaseLazyComponent("model", func(context.Context) error { return nil }).
		WithCloser(func() error { closed = true; return nil })
	_ = lc.Initialize(context.Background())
	if err := lc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !closed || lc.State() != LoadIdle {
		t.Errorf("expected closer to run and state idle, got closed=%v state=%s", closed, lc.State())
	}
}
