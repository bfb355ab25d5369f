package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/hybridstt/authz"
	apperrors "github.com/kbukum/hybridstt/errors"
	"github.com/kbukum/hybridstt/logger"
	"github.com/kbukum/hybridstt/server"
)

// Multipart field holding enrollment samples; repeat it for several files.
const fieldSamples = "samples"

const maxSamples = 10

type voicePrintResponse struct {
	UserID      string `json:"user_id"`
	Exists      bool   `json:"exists"`
	SampleCount int    `json:"sample_count,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

func (h *Handler) requireVoicePrints(c *gin.Context) bool {
	if h.voiceprints == nil {
		server.RespondWithError(c, apperrors.ServiceUnavailable("speaker verification"))
		return false
	}
	return true
}

// EnrollVoicePrint handles POST /v1/voiceprints/:user_id.
func (h *Handler) EnrollVoicePrint(c *gin.Context) {
	if !h.requireVoicePrints(c) {
		return
	}
	userID := c.Param("user_id")
	if err := h.authorize(c, userID, authz.VoicePrintWrite); err != nil {
		server.RespondWithError(c, err)
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		server.RespondWithError(c, apperrors.InvalidInput(fieldSamples, "multipart form expected"))
		return
	}
	files := form.File[fieldSamples]
	if len(files) == 0 {
		server.RespondWithError(c, apperrors.InvalidInput(fieldSamples, "at least one sample is required"))
		return
	}
	if len(files) > maxSamples {
		server.RespondWithError(c, apperrors.InvalidInput(fieldSamples, "too many samples"))
		return
	}
	samples := make([][]byte, 0, len(files))
	for _, fh := range files {
		data, err := readFile(fh)
		if err != nil {
			server.RespondWithError(c, err)
			return
		}
		samples = append(samples, data)
	}

	vp, err := h.voiceprints.Enroll(c.Request.Context(), userID, samples)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	h.log.WithContext(c.Request.Context()).Info("voiceprint enrolled",
		logger.Fields("user_id", userID, "samples", vp.SampleCount))
	server.RespondCreated(c, voicePrintResponse{
		UserID:      vp.OwnerID,
		Exists:      true,
		SampleCount: vp.SampleCount,
		CreatedAt:   vp.CreatedAt.UTC().Format(time.RFC3339),
	})
}

// GetVoicePrint handles GET /v1/voiceprints/:user_id. It never returns the
// embedding.
func (h *Handler) GetVoicePrint(c *gin.Context) {
	if !h.requireVoicePrints(c) {
		return
	}
	userID := c.Param("user_id")
	if err := h.authorize(c, userID, authz.VoicePrintRead); err != nil {
		server.RespondWithError(c, err)
		return
	}
	vp, err := h.voiceprints.Info(c.Request.Context(), userID)
	if err != nil {
		if appErr, ok := apperrors.AsAppError(err); ok && appErr.Code == apperrors.ErrCodeNoVoicePrint {
			server.RespondOK(c, voicePrintResponse{UserID: userID})
			return
		}
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, voicePrintResponse{
		UserID:      vp.OwnerID,
		Exists:      true,
		SampleCount: vp.SampleCount,
		CreatedAt:   vp.CreatedAt.UTC().Format(time.RFC3339),
	})
}

// DeleteVoicePrint handles DELETE /v1/voiceprints/:user_id.
func (h *Handler) DeleteVoicePrint(c *gin.Context) {
	if !h.requireVoicePrints(c) {
		return
	}
	userID := c.Param("user_id")
	if err := h.authorize(c, userID, authz.VoicePrintDelete); err != nil {
		server.RespondWithError(c, err)
		return
	}
	if err := h.voiceprints.Delete(c.Request.Context(), userID); err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondNoContent(c)
}
