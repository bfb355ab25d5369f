package resilience

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestBulkhead_AllowsRequestsWithinLimit(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "admission", MaxConcurrent: 3})

	var calls int32
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := b.Execute(context.Background(), func() error {
				atomic.AddInt32(&calls, 1)
				time.Sleep(10 * time.Millisecond)
				return nil
			})
			if err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		}()
	}
	wg.Wait()

	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	if b.InUse() != 0 {
		t.Errorf("expected all slots released, got %d in use", b.InUse())
	}
}

func TestBulkhead_RejectsWhenFull(t *testing.T) {
	var rejected error
	b := NewBulkhead(BulkheadConfig{
		Name:          "admission",
		MaxConcurrent: 1,
		OnReject:      func(_ string, err error) { rejected = err },
	})

	release, err := b.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer release()

	if _, err := b.Acquire(context.Background()); !errors.Is(err, ErrBulkheadFull) {
		t.Errorf("expected ErrBulkheadFull, got %v", err)
	}
	if !errors.Is(rejected, ErrBulkheadFull) {
		t.Errorf("expected OnReject to see ErrBulkheadFull, got %v", rejected)
	}
}

func TestBulkhead_WaitTimeout(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 1, MaxWait: 20 * time.Millisecond})
	release, _ := b.Acquire(context.Background())
	defer release()

	start := time.Now()
	_, err := b.Acquire(context.Background())
	if !errors.Is(err, ErrBulkheadTimeout) {
		t.Errorf("expected ErrBulkheadTimeout, got %v", err)
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Error("expected to wait for MaxWait")
	}
}

func TestBulkhead_WaitGetsReleasedSlot(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 1, MaxWait: time.Second})
	release, _ := b.Acquire(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		release()
	}()

	second, err := b.Acquire(context.Background())
	if err != nil {
		t.Fatalf("expected slot after release, got %v", err)
	}
	second()
}

func TestBulkhead_ReleaseIsIdempotent(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 2})
	release, _ := b.Acquire(context.Background())
	other, _ := b.Acquire(context.Background())
	release()
	release()
	if b.InUse() != 1 {
		t.Errorf("expected 1 slot in use after double release, got %d", b.InUse())
	}
	other()
}

func TestBulkhead_CancelledContext(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := b.Acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestExecuteWithResult(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 1})
	got, err := ExecuteWithResult(context.Background(), b, func() (string, error) {
		return "ok", nil
	})
	if err != nil || got != "ok" {
		t.Errorf("expected ok, got %q (%v)", got, err)
	}
}
