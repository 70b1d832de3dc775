package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/ragsvc/cleaner"
	"github.com/use-agent/ragsvc/models"
	"github.com/use-agent/ragsvc/scraper"
	"github.com/use-agent/ragsvc/urlfilter"
)

// PageScraper loads one page in the shared browser.
type PageScraper interface {
	ScrapePage(ctx context.Context, url string) (*scraper.PageResult, error)
}

// ScrapeTimeouts bound client-supplied scrape timeouts.
type ScrapeTimeouts struct {
	Default time.Duration
	Max     time.Duration
}

// Scrape returns a handler for POST /api/v1/scrape.
//
// Orchestration flow:
//  1. Parse & validate request, apply defaults, reject non-HTML URLs.
//  2. ScrapePage under the request deadline.
//  3. Render text or Markdown, merge readability metadata.
func Scrape(sc PageScraper, timeouts ScrapeTimeouts) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// ── 1. Parse request ────────────────────────────────────────
		var req models.ScrapeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondInvalid(c, err.Error())
			return
		}
		req.Defaults()
		if !urlfilter.IsScrapeable(req.URL) {
			respondInvalid(c, "url points to a non-HTML resource")
			return
		}

		timeout := timeouts.Default
		if req.Timeout > 0 {
			timeout = time.Duration(req.Timeout) * time.Second
		}
		if timeouts.Max > 0 && timeout > timeouts.Max {
			timeout = timeouts.Max
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		// ── 2. Scrape ───────────────────────────────────────────────
		page, err := sc.ScrapePage(ctx, req.URL)
		if err != nil {
			respondError(c, err)
			return
		}

		// ── 3. Render ───────────────────────────────────────────────
		article := cleaner.ReadArticle(page.HTML, page.FinalURL)
		content := page.Text
		if req.Format == "markdown" {
			content, err = article.Markdown(page.FinalURL)
			if err != nil {
				respondError(c, models.NewPageError(models.ErrCodeContent, "markdown conversion failed", req.URL, err))
				return
			}
		}

		// Readability usually finds a better title; the tab title is the fallback.
		title := article.Title
		if title == "" {
			title = page.Title
		}

		c.JSON(http.StatusOK, models.ScrapeResponse{
			Success:   true,
			URL:       page.URL,
			FinalURL:  page.FinalURL,
			Content:   content,
			Format:    req.Format,
			Challenge: page.Challenge.String(),
			Metadata: models.Metadata{
				Title:       title,
				Description: article.Excerpt,
				SiteName:    article.SiteName,
				Author:      article.Byline,
				Language:    article.Language,
			},
			Tokens: cleaner.EstimateTokens(content),
			Timing: models.TimingInfo{TotalMs: time.Since(start).Milliseconds()},
		})
	}
}
