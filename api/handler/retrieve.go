package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/ragsvc/models"
	"github.com/use-agent/ragsvc/pipeline"
)

// DocumentRetriever finds substantial page texts for a query.
type DocumentRetriever interface {
	Retrieve(ctx context.Context, query string) (*pipeline.Retrieval, error)
}

// Retrieve returns a handler for POST /api/v1/retrieve. It stops before
// answer generation. enhancer may be nil, which ignores the enhance flag.
func Retrieve(rt DocumentRetriever, enhancer pipeline.QueryEnhancer, timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var req models.RetrieveRequest
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

		query := req.Query
		if req.Enhance && enhancer != nil {
			enhanced, err := enhancer.EnhanceQuery(ctx, query)
			if err != nil {
				slog.Warn("query enhancement failed, searching original query", "error", err)
			} else {
				query = enhanced
			}
		}

		retrieval, err := rt.Retrieve(ctx, query)
		if err != nil {
			respondError(c, err)
			return
		}

		elapsed := time.Since(start).Milliseconds()
		c.JSON(http.StatusOK, models.RetrieveResponse{
			Success:   true,
			Query:     retrieval.Query,
			Documents: retrieval.Documents,
			Skipped:   retrieval.Skipped,
			Failed:    retrieval.Failed,
			Timing:    models.TimingInfo{TotalMs: elapsed, RetrievalMs: elapsed},
		})
	}
}
