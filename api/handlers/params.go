package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/appcatalog/internal/domain"
)

// channelQuery reads the ?type= channel selector. It writes a 400 and
// returns false for unknown channels.
func channelQuery(c *gin.Context) (domain.Channel, bool) {
	channel, err := domain.ParseChannel(c.Query("type"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return channel, true
}

// positiveParam reads an optional positive integer path parameter
func positiveParam(c *gin.Context, name string) (int, bool) {
	raw := c.Param(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": name + " must be a positive integer"})
		return 0, false
	}
	return n, true
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
}

func internalError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
