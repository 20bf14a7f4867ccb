package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/appcatalog/pkg/logger"
)

// Recovery turns a handler panic into a JSON 500. The panic and its
// stack go to the error event log and onto c.Errors, so the request
// log line carries it too.
func Recovery(log *zap.Logger, multiLogger *logger.MultiLogger) gin.HandlerFunc {
	if multiLogger == nil {
		multiLogger = logger.NewNopMultiLogger()
	}
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				fields := []zap.Field{
					zap.Any("panic", rec),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
				}
				log.Error("Panic recovered", fields...)
				multiLogger.LogAppError("Panic recovered", append(fields, zap.Stack("stack"))...)

				_ = c.Error(fmt.Errorf("panic: %v", rec))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
			}
		}()
		c.Next()
	}
}
