package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/hybridstt/authz"
	apperrors "github.com/kbukum/hybridstt/errors"
	"github.com/kbukum/hybridstt/hybrid"
	"github.com/kbukum/hybridstt/server"
)

// Multipart field holding the audio file.
const fieldAudio = "audio"

type transcribeForm struct {
	Language          string   `form:"language"`
	Prompt            string   `form:"prompt"`
	VerifySpeaker     bool     `form:"verify_speaker"`
	UserID            string   `form:"user_id"`
	UseSemantics      *bool    `form:"use_semantics"`
	SemanticThreshold *float64 `form:"semantic_threshold"`
	ReturnDebug       bool     `form:"return_debug"`
	Translate         bool     `form:"translate"`
}

// bindRequest reads the multipart upload into an orchestrator request. The
// caller's JWT subject is the default user_id.
func bindRequest(c *gin.Context) (*hybrid.Request, error) {
	var form transcribeForm
	if err := c.ShouldBind(&form); err != nil {
		return nil, bindError("form", err)
	}
	fh, err := c.FormFile(fieldAudio)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, apperrors.InvalidInput(fieldAudio, "multipart file field 'audio' is required")
	}
	if err != nil {
		return nil, bindError(fieldAudio, err)
	}
	data, err := readFile(fh)
	if err != nil {
		return nil, err
	}
	userID := form.UserID
	if userID == "" {
		userID = subject(c)
	}
	return &hybrid.Request{
		Audio:             data,
		Filename:          fh.Filename,
		Language:          form.Language,
		Prompt:            form.Prompt,
		VerifySpeaker:     form.VerifySpeaker,
		UserID:            userID,
		UseSemantics:      form.UseSemantics,
		SemanticThreshold: form.SemanticThreshold,
		ReturnDebug:       form.ReturnDebug,
		Translate:         form.Translate,
	}, nil
}

// process authorizes speaker verification against another user's voiceprint
// and runs the request.
func (h *Handler) process(c *gin.Context, req *hybrid.Request) (*hybrid.Result, error) {
	if req.VerifySpeaker {
		if err := h.authorize(c, req.UserID, authz.VoicePrintVerify); err != nil {
			return nil, err
		}
	}
	return h.transcriber.Process(c.Request.Context(), req)
}

// Transcribe handles POST /v1/transcribe.
func (h *Handler) Transcribe(c *gin.Context) {
	req, err := bindRequest(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	res, err := h.process(c, req)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, res)
}

// Translate handles POST /v1/translate: a transcription that always
// includes an English translation.
func (h *Handler) Translate(c *gin.Context) {
	req, err := bindRequest(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	req.Translate = true
	res, err := h.process(c, req)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, res)
}

// Command handles POST /v1/command: transcribe, then forward the text.
func (h *Handler) Command(c *gin.Context) {
	if h.commander == nil {
		server.RespondWithError(c, apperrors.ServiceUnavailable("command forwarding"))
		return
	}
	req, err := bindRequest(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	res, err := h.process(c, req)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	meta := map[string]any{
		"source":   res.Source,
		"language": res.Metadata.Language,
		"duration": res.Metadata.Duration,
	}
	if res.Metadata.Confidence != nil {
		meta["confidence"] = *res.Metadata.Confidence
	}
	if res.Metadata.SpeakerMatch != nil {
		meta["speaker_match"] = *res.Metadata.SpeakerMatch
	}
	if req.UserID != "" {
		meta["user_id"] = req.UserID
	}
	out := h.commander.Forward(c.Request.Context(), res.Text, meta, "")
	server.RespondOK(c, gin.H{"transcription": res, "command": out})
}

// Status handles GET /v1/status.
func (h *Handler) Status(c *gin.Context) {
	server.RespondOK(c, h.transcriber.Status(c.Request.Context()))
}
