package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/ragsvc/models"
)

// AgentRunner answers a query end to end.
type AgentRunner interface {
	Run(ctx context.Context, query string) (*models.AgentResponse, error)
}

// Agent returns a handler for POST /api/agent1.
func Agent(runner AgentRunner, timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.AgentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondInvalid(c, err.Error())
			return
		}
		if !req.IsValid() {
			respondInvalid(c, "query must not be blank")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		resp, err := runner.Run(ctx, req.Query)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}
