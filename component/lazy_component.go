package component

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/kbukum/hybridstt/logger"
)

// LoadState tracks a lazily initialized resource.
type LoadState int32

const (
	LoadIdle LoadState = iota
	LoadLoading
	LoadReady
	LoadFailed
)

func (s LoadState) String() string {
	switch s {
	case LoadIdle:
		return "idle"
	case LoadLoading:
		return "loading"
	case LoadReady:
		return "ready"
	case LoadFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// BaseLazyComponent defers expensive setup, such as loading a model, until
// first use. Concurrent callers of Initialize wait for a single initializer
// run. State can be read at any time without blocking.
type BaseLazyComponent struct {
	name        string
	mu          sync.Mutex
	state       atomic.Int32
	lastError   error
	initializer func(ctx context.Context) error
	closer      func() error
}

// NewBaseLazyComponent creates a lazy component with the given initializer.
func NewBaseLazyComponent(name string, initializer func(context.Context) error) *BaseLazyComponent {
	return &BaseLazyComponent{name: name, initializer: initializer}
}

func (b *BaseLazyComponent) Name() string { return b.name }

// State returns the current load state.
func (b *BaseLazyComponent) State() LoadState {
	return LoadState(b.state.Load())
}

// IsInitialized reports whether the last initialization succeeded.
func (b *BaseLazyComponent) IsInitialized() bool {
	return b.State() == LoadReady
}

// LastError returns the error of the last failed initialization.
func (b *BaseLazyComponent) LastError() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastError
}

// Initialize runs the initializer once. A failed initialization is retried
// on the next call.
func (b *BaseLazyComponent) Initialize(ctx context.Context) error {
	if b.IsInitialized() {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.IsInitialized() {
		return nil
	}
	if b.initializer == nil {
		return fmt.Errorf("no initializer for component: %s", b.name)
	}

	b.state.Store(int32(LoadLoading))
	logger.Debug("Initializing lazy component", logger.Fields("component", b.name))
	if err := b.initializer(ctx); err != nil {
		b.lastError = err
		b.state.Store(int32(LoadFailed))
		return fmt.Errorf("failed to initialize %s: %w", b.name, err)
	}
	b.lastError = nil
	b.state.Store(int32(LoadReady))
	logger.Debug("Lazy component initialized", logger.Fields("component", b.name))
	return nil
}

// Warm starts initialization in the background. Errors are kept in
// LastError and do not prevent a later Initialize.
func (b *BaseLazyComponent) Warm(ctx context.Context) {
	go func() {
		if err := b.Initialize(ctx); err != nil {
			logger.Warn("Background initialization failed", logger.Fields("component", b.name, "error", err.Error()))
		}
	}()
}

// Close runs the closer and resets the component to idle.
func (b *BaseLazyComponent) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var err error
	if b.closer != nil && b.IsInitialized() {
		err = b.closer()
	}
	b.state.Store(int32(LoadIdle))
	return err
}

// WithCloser sets a custom close function.
func (b *BaseLazyComponent) WithCloser(fn func() error) *BaseLazyComponent {
	b.closer = fn
	return b
}
