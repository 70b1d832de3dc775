package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/ragsvc/api/handler"
	"github.com/use-agent/ragsvc/api/middleware"
	"github.com/use-agent/ragsvc/config"
	"github.com/use-agent/ragsvc/pipeline"
)

// Services are the collaborators the handlers call. Enhancer may be nil.
type Services struct {
	Scraper interface {
		handler.PageScraper
		handler.StatsProvider
	}
	Agent     handler.AgentRunner
	Retriever handler.DocumentRetriever
	Enhancer  pipeline.QueryEnhancer
}

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger → CORS
//	API:     Auth (if enabled) → RateLimit
//
// Health is outside auth so monitoring probes always work. Closing done
// stops the rate limiter's cleanup goroutine.
func NewRouter(svc Services, cfg *config.Config, startTime time.Time, done <-chan struct{}) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.CORS())

	health := handler.Health(svc.Scraper, startTime)
	r.GET("/health", health)
	r.GET("/api/v1/health", health)

	protected := r.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit, done))

	protected.POST("/api/agent1", handler.Agent(svc.Agent, cfg.Server.RequestTimeout))

	v1 := protected.Group("/api/v1")
	v1.POST("/retrieve", handler.Retrieve(svc.Retriever, svc.Enhancer, cfg.Server.RequestTimeout))
	v1.POST("/scrape", handler.Scrape(svc.Scraper, handler.ScrapeTimeouts{
		Default: cfg.Scraper.PageTimeout,
		Max:     cfg.Scraper.MaxTimeout,
	}))

	return r
}
