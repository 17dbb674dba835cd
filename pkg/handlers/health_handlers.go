package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthCheck reports that the process is up.
func (h *HandlerService) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   ServiceName,
		"version":   h.version,
	})
}

// GetStatus returns the watch job and process uptime.
func (h *HandlerService) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": ServiceName,
		"version": h.version,
		"uptime":  time.Since(h.started).Round(time.Second).String(),
		"job":     h.watcher.Status(),
	})
}
