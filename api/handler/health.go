package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/ragsvc/models"
)

// Version is reported by /health.
const Version = "0.1.0"

// StatsProvider reports scraper counters.
type StatsProvider interface {
	Stats() models.ScraperStats
}

// Health returns a handler for GET /health.
func Health(sp StatsProvider, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  "ok",
			Message: "Service is healthy",
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Version: Version,
			Scraper: sp.Stats(),
		})
	}
}
