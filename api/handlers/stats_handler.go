package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/appcatalog/internal/app"
)

// StatsHandler handles download statistics requests
type StatsHandler struct {
	service    *app.CatalogService
	popularity *app.Popularity
	logger     *zap.Logger
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(service *app.CatalogService, popularity *app.Popularity, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{
		service:    service,
		popularity: popularity,
		logger:     logger,
	}
}

// GetPopular handles GET /popular[/:days]
func (h *StatsHandler) GetPopular(c *gin.Context) {
	days, ok := positiveParam(c, "days")
	if !ok {
		return
	}
	if limit := h.popularity.MaxDays(); limit > 0 && days > limit {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": fmt.Sprintf("days must not exceed %d", limit)})
		return
	}
	ids, err := h.popularity.Get(c.Request.Context(), days)
	if err != nil {
		h.logger.Error("Failed to get popular apps", zap.Int("days", days), zap.Error(err))
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, ids)
}

// GetGlobalStats handles GET /stats
func (h *StatsHandler) GetGlobalStats(c *gin.Context) {
	stats, found, err := h.service.GetGlobalStats(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to get stats", zap.Error(err))
		internalError(c, err)
		return
	}
	if !found {
		notFound(c)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetAppStats handles GET /stats/:appid
func (h *StatsHandler) GetAppStats(c *gin.Context) {
	appID := c.Param("appid")
	stats, found, err := h.service.GetAppStats(c.Request.Context(), appID)
	if err != nil {
		h.logger.Error("Failed to get app stats", zap.String("app_id", appID), zap.Error(err))
		internalError(c, err)
		return
	}
	if !found {
		notFound(c)
		return
	}
	c.JSON(http.StatusOK, stats)
}
