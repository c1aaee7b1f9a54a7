package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/artisans-echo/artwork-service/internal/apperr"
	"github.com/artisans-echo/artwork-service/internal/logger"
	"github.com/artisans-echo/artwork-service/internal/middleware"
)

// respondError writes err as {"error": message} with the status of its
// kind. Causes of internal errors are logged and, in production, not sent
// to the client.
func (h *Handlers) respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := kind.HTTPStatus()

	message := err.Error()
	var appErr *apperr.Error
	if errors.As(err, &appErr) && kind != apperr.KindInternal {
		message = appErr.Message
	}

	entry := logger.WithRequestID(h.logger, c.GetString(middleware.ContextRequestID)).WithFields(logrus.Fields{
		"kind":   kind.String(),
		"status": status,
	})
	switch kind {
	case apperr.KindInternal, apperr.KindStoreUnavailable:
		entry.WithError(err).Error("Request failed")
	default:
		entry.WithError(err).Debug("Request rejected")
	}

	if status == http.StatusInternalServerError && h.production {
		message = "Internal server error"
	}
	c.JSON(status, gin.H{"error": message})
}

func (h *Handlers) badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}
