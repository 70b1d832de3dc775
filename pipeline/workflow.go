package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/use-agent/ragsvc/cache"
	"github.com/use-agent/ragsvc/models"
)

// QueryEnhancer rewrites a user query into search terms.
type QueryEnhancer interface {
	EnhanceQuery(ctx context.Context, query string) (string, error)
}

// Answerer writes an answer from retrieved documents.
type Answerer interface {
	Answer(ctx context.Context, query string, docs []models.Document) (string, error)
}

// Workflow is the enhance → retrieve → generate sequence behind /api/agent1.
type Workflow struct {
	enhancer  QueryEnhancer // nil skips enhancement
	retriever *Retriever
	answerer  Answerer
	cache     *cache.Cache // nil disables caching
}

// NewWorkflow wires a Workflow. enhancer and answerCache may be nil.
func NewWorkflow(enhancer QueryEnhancer, retriever *Retriever, answerer Answerer, answerCache *cache.Cache) *Workflow {
	return &Workflow{
		enhancer:  enhancer,
		retriever: retriever,
		answerer:  answerer,
		cache:     answerCache,
	}
}

// Run answers query. A blank query is INVALID_INPUT.
func (w *Workflow) Run(ctx context.Context, query string) (*models.AgentResponse, error) {
	start := time.Now()
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "query must not be blank", nil)
	}

	var key string
	if w.cache != nil {
		key = cache.Key(query)
		if cached, ok := w.cache.Get(key); ok {
			cached.CacheStatus = "hit"
			cached.Timing = models.TimingInfo{TotalMs: time.Since(start).Milliseconds()}
			return cached, nil
		}
	}

	// ── 1. Enhance ───────────────────────────────────────────────────
	searchQuery := w.enhance(ctx, query)

	// ── 2. Retrieve ──────────────────────────────────────────────────
	retrieveStart := time.Now()
	retrieval, err := w.retriever.Retrieve(ctx, searchQuery)
	if err != nil {
		return nil, err
	}
	retrievalMs := time.Since(retrieveStart).Milliseconds()
	slog.Info("retrieval finished",
		"query", searchQuery,
		"documents", len(retrieval.Documents),
		"skipped", len(retrieval.Skipped),
		"failed", len(retrieval.Failed),
	)

	// ── 3. Generate ──────────────────────────────────────────────────
	genStart := time.Now()
	answer, err := w.answerer.Answer(ctx, query, retrieval.Documents)
	if err != nil {
		return nil, err
	}

	resp := &models.AgentResponse{
		Answer:        answer,
		EnhancedQuery: searchQuery,
		Sources:       make([]models.Source, 0, len(retrieval.Documents)),
		Timing: models.TimingInfo{
			RetrievalMs:  retrievalMs,
			GenerationMs: time.Since(genStart).Milliseconds(),
		},
	}
	for _, d := range retrieval.Documents {
		resp.Sources = append(resp.Sources, models.Source{URL: d.URL, Title: d.Title})
	}

	resp.Timing.TotalMs = time.Since(start).Milliseconds()
	if w.cache != nil {
		resp.CacheStatus = "miss"
		w.cache.Set(key, resp)
	}
	return resp, nil
}

// enhance returns the rewritten query, or query itself when enhancement is
// off or fails.
func (w *Workflow) enhance(ctx context.Context, query string) string {
	if w.enhancer == nil {
		return query
	}
	enhanced, err := w.enhancer.EnhanceQuery(ctx, query)
	if err != nil {
		slog.Warn("query enhancement failed, searching original query", "error", err)
		return query
	}
	slog.Info("enhanced query", "query", query, "enhanced", enhanced)
	return enhanced
}
