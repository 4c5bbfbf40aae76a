package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/orchestrator"
	"github.com/goliatone/go-formflow/pkg/store"
)

func abortJSON(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"ok": 0, "code": status, "message": message})
}

func badRequest(c *gin.Context, message string) {
	abortJSON(c, http.StatusBadRequest, message)
}

func notFound(c *gin.Context, message string) {
	abortJSON(c, http.StatusNotFound, message)
}

// fail maps orchestrator and store errors onto status codes. Unexpected
// errors are logged and reported without their details.
func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, orchestrator.ErrFormNotFound):
		notFound(c, "form not found")
	case errors.Is(err, store.ErrInvalidID):
		badRequest(c, err.Error())
	case errors.Is(err, orchestrator.ErrNoStore):
		abortJSON(c, http.StatusNotImplemented, "form storage is not configured")
	case errors.Is(err, orchestrator.ErrUnknownTheme), errors.Is(err, orchestrator.ErrUnknownRenderer):
		badRequest(c, err.Error())
	case c.Request.Context().Err() != nil:
		abortJSON(c, http.StatusServiceUnavailable, "request cancelled")
	default:
		_ = c.Error(err)
		s.logger.Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		abortJSON(c, http.StatusInternalServerError, "internal error")
	}
}
