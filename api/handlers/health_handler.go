package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/appcatalog/internal/app"
	"github.com/yourusername/appcatalog/internal/domain"
)

const healthRuns = 5

// HealthHandler handles health check requests
type HealthHandler struct {
	updater   *app.Updater
	scheduler *app.Scheduler
	version   string
}

// NewHealthHandler creates a new health handler. scheduler may be nil
// when periodic updates are disabled.
func NewHealthHandler(updater *app.Updater, scheduler *app.Scheduler, version string) *HealthHandler {
	return &HealthHandler{
		updater:   updater,
		scheduler: scheduler,
		version:   version,
	}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Scheduler struct {
		Running bool `json:"running"`
	} `json:"scheduler"`
	Runs []*domain.SyncRun `json:"runs"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	runs, err := h.updater.LatestRuns(healthRuns)
	if err != nil {
		internalError(c, err)
		return
	}

	response := HealthResponse{
		Status:  "ok",
		Version: h.version,
		Runs:    runs,
	}
	if response.Runs == nil {
		response.Runs = []*domain.SyncRun{}
	}
	response.Scheduler.Running = h.scheduler != nil && h.scheduler.IsRunning()

	c.JSON(http.StatusOK, response)
}

// Status handles GET /status
func (h *HealthHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}
