package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/appcatalog/internal/app"
	"github.com/yourusername/appcatalog/internal/domain"
)

const rssContentType = "application/rss+xml; charset=utf-8"

// FeedHandler serves RSS feeds
type FeedHandler struct {
	builder *app.FeedBuilder
	logger  *zap.Logger
}

// NewFeedHandler creates a new feed handler
func NewFeedHandler(builder *app.FeedBuilder, logger *zap.Logger) *FeedHandler {
	return &FeedHandler{
		builder: builder,
		logger:  logger,
	}
}

// RecentlyUpdated handles GET /feed/recently-updated
func (h *FeedHandler) RecentlyUpdated(c *gin.Context) {
	h.serve(c, "recently-updated", h.builder.RecentlyUpdated)
}

// NewApps handles GET /feed/new
func (h *FeedHandler) NewApps(c *gin.Context) {
	h.serve(c, "new", h.builder.NewApps)
}

func (h *FeedHandler) serve(c *gin.Context, name string, render func(context.Context, domain.Channel) (string, error)) {
	channel, ok := channelQuery(c)
	if !ok {
		return
	}
	xml, err := render(c.Request.Context(), channel)
	if err != nil {
		h.logger.Error("Failed to render feed", zap.String("feed", name), zap.Error(err))
		internalError(c, err)
		return
	}
	c.Data(http.StatusOK, rssContentType, []byte(xml))
}
