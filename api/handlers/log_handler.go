package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/appcatalog/pkg/logger"
)

const (
	defaultLogLimit = 100
	maxLogLimit     = 1000
)

// LogHandler exposes the categorized event logs
type LogHandler struct {
	logReader *logger.LogReader
}

// NewLogHandler creates a new log handler
func NewLogHandler(logsDir string) *LogHandler {
	return &LogHandler{
		logReader: logger.NewLogReader(logsDir),
	}
}

// logQuery holds the parameters shared by the log endpoints
type logQuery struct {
	category logger.LogCategory
	date     time.Time
	limit    int
}

func parseLogQuery(c *gin.Context) (logQuery, bool) {
	q := logQuery{category: logger.LogCategory(c.Param("category"))}
	if !q.category.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category"})
		return q, false
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLogLimit)))
	if err != nil || limit < 0 {
		limit = defaultLogLimit
	}
	if limit > maxLogLimit {
		limit = maxLogLimit
	}
	q.limit = limit

	q.date = time.Now()
	if dateStr := c.Query("date"); dateStr != "" {
		q.date, err = time.ParseInLocation("2006-01-02", dateStr, time.Local)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date format, use YYYY-MM-DD"})
			return q, false
		}
	}
	return q, true
}

// GetCategories handles GET /logs/categories
func (h *LogHandler) GetCategories(c *gin.Context) {
	categories := make([]string, 0, len(logger.Categories))
	for _, category := range logger.Categories {
		categories = append(categories, string(category))
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// GetLogs handles GET /logs/:category
func (h *LogHandler) GetLogs(c *gin.Context) {
	q, ok := parseLogQuery(c)
	if !ok {
		return
	}

	entries, err := h.logReader.ReadLogs(q.category, q.date, q.limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"category": q.category,
		"date":     q.date.Format("2006-01-02"),
		"count":    len(entries),
		"entries":  entries,
	})
}

// SearchLogs handles GET /logs/:category/search
func (h *LogHandler) SearchLogs(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'q' is required"})
		return
	}
	q, ok := parseLogQuery(c)
	if !ok {
		return
	}

	entries, err := h.logReader.SearchLogs(q.category, q.date, query, q.limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to search logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"category": q.category,
		"query":    query,
		"count":    len(entries),
		"entries":  entries,
	})
}

// ExportLogs handles GET /logs/:category/export
func (h *LogHandler) ExportLogs(c *gin.Context) {
	q, ok := parseLogQuery(c)
	if !ok {
		return
	}

	filename := logger.LogFileName(q.category, q.date.Format("20060102"))
	c.FileAttachment(h.logReader.GetLogPath(q.category, q.date), filename)
}
