package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/appcatalog/api/handlers"
	"github.com/yourusername/appcatalog/api/middleware"
	"github.com/yourusername/appcatalog/internal/app"
	"github.com/yourusername/appcatalog/pkg/logger"
)

// Services bundles the components exposed over HTTP
type Services struct {
	Catalog    *app.CatalogService
	Popularity *app.Popularity
	Picks      *app.PicksService
	Feeds      *app.FeedBuilder
	Updater    *app.Updater
	Scheduler  *app.Scheduler // nil when periodic updates are disabled
	Version    string
}

// SetupRouter sets up the HTTP router
func SetupRouter(services Services, log *zap.Logger, multiLogger *logger.MultiLogger) *gin.Engine {
	if multiLogger == nil {
		multiLogger = logger.NewNopMultiLogger()
	}
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(middleware.Logger(log, multiLogger))
	router.Use(middleware.Recovery(log, multiLogger))
	router.Use(middleware.CORS())

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(services.Updater, services.Scheduler, services.Version)
	router.GET("/health", healthHandler.Health)
	router.GET("/status", healthHandler.Status)

	updateHandler := handlers.NewUpdateHandler(services.Updater, log)
	router.POST("/update", updateHandler.Update)

	catalogHandler := handlers.NewCatalogHandler(services.Catalog, services.Picks, log)
	router.GET("/appstream", catalogHandler.ListAppstream)
	router.GET("/appstream/:appid", catalogHandler.GetAppstream)
	router.GET("/summary/:appid", catalogHandler.GetSummary)
	router.GET("/category/:category", catalogHandler.GetCategory)
	router.GET("/developer", catalogHandler.GetDevelopers)
	router.GET("/developer/:developer", catalogHandler.GetDeveloper)
	router.GET("/search/:query", catalogHandler.Search)
	router.GET("/picks/:pick", catalogHandler.GetPick)

	collection := router.Group("/collection")
	{
		collection.GET("/recently-updated", catalogHandler.GetRecentlyUpdated)
		collection.GET("/recently-updated/:limit", catalogHandler.GetRecentlyUpdated)
	}

	statsHandler := handlers.NewStatsHandler(services.Catalog, services.Popularity, log)
	router.GET("/popular", statsHandler.GetPopular)
	router.GET("/popular/:days", statsHandler.GetPopular)
	router.GET("/stats", statsHandler.GetGlobalStats)
	router.GET("/stats/:appid", statsHandler.GetAppStats)

	feedHandler := handlers.NewFeedHandler(services.Feeds, log)
	feed := router.Group("/feed")
	{
		feed.GET("/recently-updated", feedHandler.RecentlyUpdated)
		feed.GET("/new", feedHandler.NewApps)
	}

	// Event log endpoints
	logHandler := handlers.NewLogHandler(multiLogger.GetLogsDir())
	logs := router.Group("/logs")
	{
		logs.GET("/categories", logHandler.GetCategories)
		logs.GET("/:category", logHandler.GetLogs)
		logs.GET("/:category/search", logHandler.SearchLogs)
		logs.GET("/:category/export", logHandler.ExportLogs)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return router
}
