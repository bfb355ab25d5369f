// Package api exposes the transcription service over HTTP.
package api

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/hybridstt/auth"
	"github.com/kbukum/hybridstt/auth/authctx"
	"github.com/kbukum/hybridstt/authz"
	"github.com/kbukum/hybridstt/command"
	apperrors "github.com/kbukum/hybridstt/errors"
	"github.com/kbukum/hybridstt/hybrid"
	"github.com/kbukum/hybridstt/logger"
	"github.com/kbukum/hybridstt/speaker"
)

// Transcriber runs requests through the orchestrator.
type Transcriber interface {
	Process(ctx context.Context, req *hybrid.Request) (*hybrid.Result, error)
	Status(ctx context.Context) hybrid.StatusReport
}

// VoicePrints manages enrolled speakers.
type VoicePrints interface {
	Enroll(ctx context.Context, owner string, samples [][]byte) (*speaker.VoicePrint, error)
	Info(ctx context.Context, owner string) (*speaker.VoicePrint, error)
	Delete(ctx context.Context, owner string) error
}

// Commander forwards transcribed commands.
type Commander interface {
	Forward(ctx context.Context, text string, metadata map[string]any, source string) command.Response
}

// Handler serves the /v1 routes. VoicePrints and Commander may be nil when
// the features are disabled.
type Handler struct {
	transcriber Transcriber
	voiceprints VoicePrints
	commander   Commander
	checker     authz.Checker
	log         *logger.Logger
}

// NewHandler creates a Handler.
func NewHandler(t Transcriber, v VoicePrints, c Commander, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{transcriber: t, voiceprints: v, commander: c, log: log.WithComponent("api")}
}

// WithChecker sets the permissions consulted when a caller acts on another
// user's voiceprint.
func (h *Handler) WithChecker(c authz.Checker) *Handler {
	h.checker = c
	return h
}

// authorize rejects a JWT caller acting on owner without permission.
func (h *Handler) authorize(c *gin.Context, owner, permission string) error {
	if authz.CanActOn(h.checker, subject(c), owner, permission) {
		return nil
	}
	return apperrors.Forbidden("Not allowed to act on another user's voiceprint.").
		WithDetail("permission", permission)
}

// Register mounts the routes on rg, which normally is the authenticated
// /v1 group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/transcribe", h.Transcribe)
	rg.POST("/translate", h.Translate)
	rg.POST("/command", h.Command)
	rg.GET("/status", h.Status)

	vp := rg.Group("/voiceprints")
	vp.POST("/:user_id", h.EnrollVoicePrint)
	vp.GET("/:user_id", h.GetVoicePrint)
	vp.DELETE("/:user_id", h.DeleteVoicePrint)
}

// subject returns the authenticated JWT subject, if any.
func subject(c *gin.Context) string {
	if p, ok := authctx.Get[*auth.Principal](c.Request.Context()); ok && p != nil {
		return p.Subject
	}
	return ""
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, apperrors.InvalidInput("audio", "unreadable upload")
	}
	defer func() { _ = f.Close() }()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// bindError keeps an oversized body distinguishable so it renders as 413.
func bindError(field string, err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return apperrors.InvalidInput(field, err.Error())
}
