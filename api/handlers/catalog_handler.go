package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/appcatalog/internal/app"
	"github.com/yourusername/appcatalog/internal/domain"
)

// CatalogHandler handles catalog query requests
type CatalogHandler struct {
	service *app.CatalogService
	picks   *app.PicksService
	logger  *zap.Logger
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(service *app.CatalogService, picks *app.PicksService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		picks:   picks,
		logger:  logger,
	}
}

// ListAppstream handles GET /appstream
func (h *CatalogHandler) ListAppstream(c *gin.Context) {
	channel, ok := channelQuery(c)
	if !ok {
		return
	}
	ids, err := h.service.ListAppstream(c.Request.Context(), channel)
	if err != nil {
		h.logger.Error("Failed to list appstream", zap.Error(err))
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, ids)
}

// GetAppstream handles GET /appstream/:appid. Without ?type= both
// channel records are returned.
func (h *CatalogHandler) GetAppstream(c *gin.Context) {
	appID := c.Param("appid")
	presence, found, err := h.service.GetAppstream(c.Request.Context(), appID)
	if err != nil {
		h.logger.Error("Failed to get appstream", zap.String("app_id", appID), zap.Error(err))
		internalError(c, err)
		return
	}
	if !found {
		notFound(c)
		return
	}

	if c.Query("type") == "" {
		c.JSON(http.StatusOK, presence)
		return
	}
	channel, ok := channelQuery(c)
	if !ok {
		return
	}
	rec := presence.Record(channel)
	if rec == nil {
		notFound(c)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// GetSummary handles GET /summary/:appid
func (h *CatalogHandler) GetSummary(c *gin.Context) {
	appID := c.Param("appid")
	summary, found, err := h.service.GetSummary(c.Request.Context(), appID)
	if err != nil {
		h.logger.Error("Failed to get summary", zap.String("app_id", appID), zap.Error(err))
		internalError(c, err)
		return
	}
	if !found {
		notFound(c)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// CategoryRequest binds the category path parameter
type CategoryRequest struct {
	Category string `uri:"category" binding:"required"`
}

// GetCategory handles GET /category/:category
func (h *CatalogHandler) GetCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	if !domain.ValidateCategory(req.Category) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": fmt.Sprintf("unknown category %q", req.Category)})
		return
	}
	channel, ok := channelQuery(c)
	if !ok {
		return
	}

	ids, err := h.service.GetCategory(c.Request.Context(), domain.Category(req.Category), channel)
	if err != nil {
		h.logger.Error("Failed to get category", zap.String("category", req.Category), zap.Error(err))
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, ids)
}

// GetDevelopers handles GET /developer
func (h *CatalogHandler) GetDevelopers(c *gin.Context) {
	developers, err := h.service.GetDevelopers(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list developers", zap.Error(err))
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, developers)
}

// GetDeveloper handles GET /developer/:developer
func (h *CatalogHandler) GetDeveloper(c *gin.Context) {
	channel, ok := channelQuery(c)
	if !ok {
		return
	}
	developer := c.Param("developer")
	ids, err := h.service.GetDeveloper(c.Request.Context(), developer, channel)
	if err != nil {
		h.logger.Error("Failed to get developer", zap.String("developer", developer), zap.Error(err))
		internalError(c, err)
		return
	}
	if len(ids) == 0 {
		notFound(c)
		return
	}
	c.JSON(http.StatusOK, ids)
}

// Search handles GET /search/:query
func (h *CatalogHandler) Search(c *gin.Context) {
	channel, ok := channelQuery(c)
	if !ok {
		return
	}
	query := c.Param("query")
	results, err := h.service.Search(c.Request.Context(), query, channel)
	if err != nil {
		h.logger.Error("Search failed", zap.String("query", query), zap.Error(err))
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// GetRecentlyUpdated handles GET /collection/recently-updated[/:limit]
func (h *CatalogHandler) GetRecentlyUpdated(c *gin.Context) {
	limit, ok := positiveParam(c, "limit")
	if !ok {
		return
	}
	channel, ok := channelQuery(c)
	if !ok {
		return
	}
	ids, err := h.service.GetRecentlyUpdated(c.Request.Context(), limit, channel)
	if err != nil {
		h.logger.Error("Failed to get recently updated", zap.Error(err))
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, ids)
}

// GetPick handles GET /picks/:pick
func (h *CatalogHandler) GetPick(c *gin.Context) {
	name := c.Param("pick")
	ids, found, err := h.picks.Get(c.Request.Context(), name)
	if err != nil {
		h.logger.Error("Failed to get pick", zap.String("pick", name), zap.Error(err))
		internalError(c, err)
		return
	}
	if !found {
		notFound(c)
		return
	}
	c.JSON(http.StatusOK, ids)
}
