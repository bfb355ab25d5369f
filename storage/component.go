package storage

import (
	"context"
	"fmt"

	"github.com/kbukum/hybridstt/component"
	"github.com/kbukum/hybridstt/logger"
)

// Component manages the storage backend lifecycle.
type Component struct {
	cfg     Config
	log     *logger.Logger
	storage Storage
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, log: log}
}

func (c *Component) Name() string { return "storage" }

// Storage returns nil before Start.
func (c *Component) Storage() Storage { return c.storage }

func (c *Component) Start(_ context.Context) error {
	s, err := New(c.cfg, c.log)
	if err != nil {
		return fmt.Errorf("storage start: %w", err)
	}
	c.storage = s
	return nil
}

func (c *Component) Stop(_ context.Context) error {
	c.storage = nil
	return nil
}

// Health lists the root to check the backend is reachable.
func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	if c.storage == nil {
		h.Status, h.Message = component.StatusUnhealthy, "not started"
		return h
	}
	if _, err := c.storage.List(ctx, ".health"); err != nil {
		h.Status, h.Message = component.StatusUnhealthy, err.Error()
	}
	return h
}

func (c *Component) Describe() component.Description {
	details := "provider=" + c.cfg.Provider
	if c.cfg.Provider == ProviderLocal {
		details += " path=" + c.cfg.BasePath
	}
	return component.Description{Name: "Fragment storage", Type: "storage", Details: details}
}
