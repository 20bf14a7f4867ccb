package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/appcatalog/internal/app"
	"github.com/yourusername/appcatalog/internal/domain"
)

// UpdateHandler triggers the update pipeline
type UpdateHandler struct {
	updater *app.Updater
	logger  *zap.Logger
}

// NewUpdateHandler creates a new update handler
func NewUpdateHandler(updater *app.Updater, logger *zap.Logger) *UpdateHandler {
	return &UpdateHandler{
		updater: updater,
		logger:  logger,
	}
}

// Update handles POST /update. It blocks until the run finishes.
func (h *UpdateHandler) Update(c *gin.Context) {
	run, err := h.updater.Run(c.Request.Context(), domain.TriggerManual)
	switch {
	case errors.Is(err, domain.ErrUpdateInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		h.logger.Error("Update failed", zap.Error(err))
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "run": run})
	default:
		c.JSON(http.StatusOK, run)
	}
}
