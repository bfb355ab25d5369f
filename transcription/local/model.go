package local

import (
	"context"
	"fmt"

	"github.com/kbukum/hybridstt/component"
	"github.com/kbukum/hybridstt/transcription"
)

// Model is the process-scoped local engine. It is loaded once, lazily or at
// Start, and runs one inference at a time.
type Model struct {
	engine  Engine
	lazy    *component.BaseLazyComponent
	preload bool
	// sem is a one-slot mutex that waiters can abandon on cancellation.
	sem chan struct{}
}

var _ component.Component = (*Model)(nil)

// NewModel wraps engine.
func NewModel(engine Engine, preload bool) *Model {
	m := &Model{engine: engine, preload: preload, sem: make(chan struct{}, 1)}
	m.lazy = component.NewBaseLazyComponent("local-model", engine.Load).WithCloser(engine.Close)
	return m
}

func (m *Model) Name() string { return "local-model" }

// Engine returns the wrapped engine.
func (m *Model) Engine() Engine { return m.engine }

// Start loads the model when preloading is configured. A failed preload is
// not fatal; the next inference retries the load.
func (m *Model) Start(ctx context.Context) error {
	if m.preload {
		m.lazy.Warm(context.WithoutCancel(ctx))
	}
	return nil
}

// Stop releases the engine.
func (m *Model) Stop(context.Context) error {
	return m.lazy.Close()
}

// Run loads the model if needed and runs job while holding the inference lock.
func (m *Model) Run(ctx context.Context, job *Job) (*Output, error) {
	if err := m.lazy.Initialize(ctx); err != nil {
		return nil, err
	}
	select {
	case m.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for local model: %w", ctx.Err())
	}
	defer func() { <-m.sem }()
	return m.engine.Run(ctx, job)
}

// Status reports ready, loading or unavailable.
func (m *Model) Status(ctx context.Context) (transcription.Status, string) {
	switch m.lazy.State() {
	case component.LoadLoading:
		return transcription.StatusLoading, "model loading"
	case component.LoadFailed:
		if err := m.lazy.LastError(); err != nil {
			return transcription.StatusUnavailable, err.Error()
		}
		return transcription.StatusUnavailable, "model failed to load"
	}
	if err := m.engine.Ping(ctx); err != nil {
		return transcription.StatusUnavailable, err.Error()
	}
	return transcription.StatusReady, m.lazy.State().String()
}

// Health implements component.Component.
func (m *Model) Health(ctx context.Context) component.Health {
	h := component.Health{Name: m.Name(), Status: component.StatusHealthy}
	switch st, detail := m.Status(ctx); st {
	case transcription.StatusLoading:
		h.Status, h.Message = component.StatusDegraded, detail
	case transcription.StatusUnavailable:
		h.Status, h.Message = component.StatusUnhealthy, detail
	}
	return h
}

// Describe implements component.Describable.
func (m *Model) Describe() component.Description {
	return component.Description{Name: m.Name(), Type: "whisper", Details: m.engine.Name()}
}
