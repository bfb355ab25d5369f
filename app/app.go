// Package app wires configuration, infrastructure and the transcription
// services into a runnable bootstrap.App.
package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/hybridstt/api"
	"github.com/kbukum/hybridstt/auth"
	"github.com/kbukum/hybridstt/bootstrap"
	"github.com/kbukum/hybridstt/logger"
	"github.com/kbukum/hybridstt/observability"
	"github.com/kbukum/hybridstt/redis"
	"github.com/kbukum/hybridstt/server"
	"github.com/kbukum/hybridstt/server/middleware"
	"github.com/kbukum/hybridstt/speaker"
	"github.com/kbukum/hybridstt/storage"
	"github.com/kbukum/hybridstt/transcription/local"

	_ "github.com/kbukum/hybridstt/storage/local" // registers the local storage provider
)

// New builds the application. Infrastructure components start first; the
// services and routes are wired once they are up, and the HTTP listener
// opens last.
func New(cfg *Config, opts ...bootstrap.Option) (*bootstrap.App[*Config], error) {
	app, err := bootstrap.NewApp(cfg, opts...)
	if err != nil {
		return nil, err
	}
	log := app.Logger

	var redisComp *redis.Component
	if cfg.Redis.Enabled {
		redisComp = redis.NewComponent(cfg.Redis, log)
		if err := app.RegisterComponent(redisComp); err != nil {
			return nil, err
		}
	}
	storageComp := storage.NewComponent(cfg.Storage, log)
	if err := app.RegisterComponent(storageComp); err != nil {
		return nil, err
	}
	engine, err := local.NewEngine(cfg.Local, log)
	if err != nil {
		return nil, fmt.Errorf("local engine: %w", err)
	}
	model := local.NewModel(engine, cfg.Local.Preload)
	if err := app.RegisterComponent(model); err != nil {
		return nil, err
	}

	srv, err := server.New(cfg.Server, log)
	if err != nil {
		return nil, err
	}
	srv.ApplyDefaults(app.Name, app.Components.HealthAll)
	srvComp := server.NewComponent(srv)

	var metrics *observability.Metrics
	app.OnStart(func(ctx context.Context) error {
		shutdown, err := observability.Setup(ctx, cfg.Observability, app.Name, app.Version, cfg.Environment)
		if err != nil {
			return fmt.Errorf("observability: %w", err)
		}
		app.OnStop(shutdown)
		metrics, err = observability.NewMetrics(observability.Meter(ServiceName))
		return err
	})

	app.OnConfigure(func(ctx context.Context, a *bootstrap.App[*Config]) error {
		infra := Infra{
			Fragments:   storageComp.Storage(),
			VoicePrints: speaker.NewMemoryStore(),
			Model:       model,
			Logger:      a.Logger,
			Metrics:     metrics,
		}
		if redisComp != nil {
			infra.VoicePrints = speaker.NewRedisStore(redisComp.Client())
		}
		svc, err := BuildServices(cfg, infra)
		if err != nil {
			return err
		}
		if err := Mount(srv.GinEngine(), cfg, svc.Handler); err != nil {
			return err
		}
		for _, r := range srvComp.Routes() {
			a.Summary.TrackRoute(r.Method, r.Path, r.Handler)
		}
		a.Logger.Info("Transcription service configured", logger.Fields(
			"primary", cfg.Hybrid.PrimaryService,
			"fallback", cfg.Hybrid.FallbackToLocal,
			"auth", cfg.Auth.Describe(),
			"speaker", describeSpeaker(cfg.Speaker),
			"voiceprints", voiceprintBackend(redisComp),
		))
		return nil
	})

	app.OnReady(srvComp.Start)
	app.OnStop(srvComp.Stop)
	return app, nil
}

// Mount registers the /v1 API on engine behind authentication and rate
// limiting when configured.
func Mount(engine *gin.Engine, cfg *Config, h *api.Handler) error {
	var mw []gin.HandlerFunc
	if cfg.Auth.Enabled {
		reg, err := auth.FromConfig(cfg.Auth)
		if err != nil {
			return fmt.Errorf("auth: %w", err)
		}
		mw = append(mw, middleware.Auth(middleware.AuthConfig{Registry: reg}))
	}
	if cfg.Server.RateLimitPerMinute > 0 {
		mw = append(mw, middleware.RateLimit(middleware.RateLimitConfig{RequestsPerMinute: cfg.Server.RateLimitPerMinute}))
	}
	h.Register(engine.Group("/v1", mw...))
	return nil
}

func voiceprintBackend(rc *redis.Component) string {
	if rc != nil {
		return "redis"
	}
	return "memory"
}
