package server

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/hybridstt/errors"
	"github.com/kbukum/hybridstt/logger"
)

// RespondWithError renders err in the standard error envelope. Non-AppError
// values become a 500 whose cause is logged but never returned.
func RespondWithError(c *gin.Context, err error) {
	if appErr, ok := errors.AsAppError(err); ok {
		c.JSON(appErr.HTTPStatus, appErr.ToResponse())
		return
	}
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		e := errors.InvalidInput("audio", "request body too large")
		c.JSON(http.StatusRequestEntityTooLarge, e.ToResponse())
		return
	}
	logger.GetGlobalLogger().WithContext(c.Request.Context()).Error("Unhandled error", logger.ErrorFields(c.FullPath(), err))
	c.JSON(http.StatusInternalServerError, errors.Internal(err).ToResponse())
}

// RespondOK sends a 200 with data as the body.
func RespondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// RespondCreated sends a 201 with data as the body.
func RespondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// RespondNoContent sends a 204 with no body.
func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
