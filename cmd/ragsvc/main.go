package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/ragsvc/api"
	"github.com/use-agent/ragsvc/cache"
	"github.com/use-agent/ragsvc/config"
	"github.com/use-agent/ragsvc/llm"
	"github.com/use-agent/ragsvc/pipeline"
	"github.com/use-agent/ragsvc/scraper"
	"github.com/use-agent/ragsvc/search"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("ragsvc starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"maxConcurrency", cfg.Pipeline.MaxConcurrency,
		"failFast", cfg.Pipeline.FailFast,
	)

	// ── 3. Initialise scraper (launches browser) ────────────────────
	loader := scraper.NewLoader(cfg.Scraper, scraper.DefaultDetectors()...)
	sc, err := scraper.New(scraper.RodLauncher(cfg.Browser), loader, cfg.Scraper)
	if err != nil {
		slog.Error("failed to initialise scraper", "error", err)
		os.Exit(1)
	}
	defer sc.Close()

	// ── 4. Search, LLM and answer cache ─────────────────────────────
	if cfg.Search.APIKey == "" {
		slog.Warn("SERPER_API_KEY not set, search requests will fail")
	}
	if cfg.LLM.APIKey == "" {
		slog.Warn("OPENROUTER_API_KEY not set, answer generation will fail")
	}
	searcher := search.FromConfig(cfg.Search)
	llmClient := llm.NewClient(cfg.LLM, cfg.Pipeline.MaxContextTokens, nil)

	var answers *cache.Cache
	if cfg.Cache.MaxEntries > 0 {
		answers = cache.New(cfg.Cache.MaxEntries, cfg.Cache.TTL)
		defer answers.Close()
	}

	// A nil *llm.Client in the interface would not compare equal to nil.
	var enhancer pipeline.QueryEnhancer
	if cfg.LLM.EnhanceQuery {
		enhancer = llmClient
	}

	// ── 5. Wire the pipeline ────────────────────────────────────────
	retriever := pipeline.NewRetriever(searcher, sc, pipeline.OptionsFromConfig(cfg))
	workflow := pipeline.NewWorkflow(enhancer, retriever, llmClient, answers)

	// ── 6. Setup router ─────────────────────────────────────────────
	done := make(chan struct{})
	defer close(done)
	startTime := time.Now()
	router := api.NewRouter(api.Services{
		Scraper:   sc,
		Agent:     workflow,
		Retriever: retriever,
		Enhancer:  llmClient,
	}, cfg, startTime, done)

	// ── 7. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 8. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// Deferred closes stop the cache janitor and kill the browser.
	slog.Info("ragsvc stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
