package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kbukum/hybridstt/component"
	"github.com/kbukum/hybridstt/config"
	"github.com/kbukum/hybridstt/logger"
)

type testConfig struct {
	config.ServiceConfig `mapstructure:",squash"`
}

type stubComponent struct {
	name    string
	status  component.HealthStatus
	started bool
	stopped bool
}

func (s *stubComponent) Name() string { return s.name }
func (s *stubComponent) Start(context.Context) error {
	s.started = true
	return nil
}
func (s *stubComponent) Stop(context.Context) error {
	s.stopped = true
	return nil
}
func (s *stubComponent) Health(context.Context) component.Health {
	return component.Health{Name: s.name, Status: s.status}
}
func (s *stubComponent) Describe() component.Description {
	return component.Description{Type: "test", Details: "stub", Port: 8080}
}

func newTestApp(t *testing.T, out *bytes.Buffer) *App[*testConfig] {
	t.Helper()
	cfg := &testConfig{ServiceConfig: config.ServiceConfig{Name: "hybridstt"}}
	opts := []Option{WithLogger(logger.NewNop()), WithSummaryOutput(nil)}
	if out != nil {
		opts = append(opts, WithSummaryOutput(out))
	}
	app, err := NewApp(cfg, opts...)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	return app
}

func TestNewApp_ValidatesConfig(t *testing.T) {
	if _, err := NewApp(&testConfig{}, WithLogger(logger.NewNop())); err == nil {
		t.Error("expected validation error for missing name")
	}
}

func TestRunTask_Lifecycle(t *testing.T) {
	var out bytes.Buffer
	app := newTestApp(t, &out)
	c := &stubComponent{name: "redis", status: component.StatusHealthy}
	if err := app.RegisterComponent(c); err != nil {
		t.Fatalf("RegisterComponent: %v", err)
	}

	var order []string
	app.OnStart(func(context.Context) error { order = append(order, "start"); return nil })
	app.OnConfigure(func(_ context.Context, a *App[*testConfig]) error {
		order = append(order, "configure")
		a.Summary.TrackRoute("POST", "/v1/transcribe", "transcribe")
		return nil
	})
	app.OnReady(func(context.Context) error { order = append(order, "ready"); return nil })
	app.OnStop(func(context.Context) error { order = append(order, "stop"); return nil })

	err := app.RunTask(context.Background(), func(context.Context) error {
		order = append(order, "task")
		return nil
	})
	if err != nil {
		t.Fatalf("RunTask: %v", err)
	}
	if got := strings.Join(order, ","); got != "start,configure,ready,task,stop" {
		t.Errorf("unexpected order %s", got)
	}
	if !c.started || !c.stopped {
		t.Errorf("expected component started and stopped, got %+v", c)
	}
	if !strings.Contains(out.String(), "/v1/transcribe") || !strings.Contains(out.String(), "redis [test]: stub (:8080)") {
		t.Errorf("summary missing entries:\n%s", out.String())
	}
}

func TestRunTask_ReturnsTaskError(t *testing.T) {
	app := newTestApp(t, nil)
	want := errors.New("task failed")
	if err := app.RunTask(context.Background(), func(context.Context) error { return want }); !errors.Is(err, want) {
		t.Errorf("expected task error, got %v", err)
	}
}

func TestRunTask_ConfigureErrorStopsComponents(t *testing.T) {
	app := newTestApp(t, nil)
	c := &stubComponent{name: "redis", status: component.StatusHealthy}
	_ = app.RegisterComponent(c)
	app.OnConfigure(func(context.Context, *App[*testConfig]) error { return errors.New("wiring") })

	if err := app.RunTask(context.Background(), func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected configure error")
	}
	if !c.stopped {
		t.Error("expected started component to be stopped")
	}
}

func TestReadyCheck(t *testing.T) {
	app := newTestApp(t, nil)
	_ = app.RegisterComponent(&stubComponent{name: "ok", status: component.StatusHealthy})
	_ = app.RegisterComponent(&stubComponent{name: "remote", status: component.StatusDegraded})
	err := app.ReadyCheck(context.Background())
	if err == nil || !strings.Contains(err.Error(), "remote=degraded") {
		t.Errorf("expected degraded component in error, got %v", err)
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	app := newTestApp(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := app.Run(ctx); err != nil {
		t.Errorf("Run: %v", err)
	}
}
