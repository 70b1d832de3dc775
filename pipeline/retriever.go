// Package pipeline turns a query into substantial page texts and an answer.
package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/use-agent/ragsvc/cleaner"
	"github.com/use-agent/ragsvc/config"
	"github.com/use-agent/ragsvc/models"
	"github.com/use-agent/ragsvc/simhash"
	"github.com/use-agent/ragsvc/urlfilter"
	"golang.org/x/sync/errgroup"
)

// Searcher returns organic web results for a query.
type Searcher interface {
	Search(ctx context.Context, query string) (*models.SearchResponse, error)
}

// TextScraper returns the clean text of one page.
type TextScraper interface {
	ScrapeText(ctx context.Context, url string) (string, error)
}

// Target is one search result after classification.
type Target struct {
	URL        string
	Title      string
	Scrapeable bool
}

// Outcome is the per-URL result of the scrape fan-out.
type Outcome struct {
	Target Target
	Text   string
	Err    error
}

// Retrieval is what Retrieve found for a query.
type Retrieval struct {
	Query     string
	Documents []models.Document
	Skipped   []string
	Failed    []models.FailedURL
}

// Options tune the fan-out and the filters applied to its output.
type Options struct {
	MaxConcurrency   int
	FailFast         bool
	MinContentLength int
	DedupeDistance   int
	PageTimeout      time.Duration
}

// OptionsFromConfig picks the retrieval options out of the app config.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		MaxConcurrency:   cfg.Pipeline.MaxConcurrency,
		FailFast:         cfg.Pipeline.FailFast,
		MinContentLength: cfg.Pipeline.MinContentLength,
		DedupeDistance:   cfg.Pipeline.DedupeDistance,
		PageTimeout:      cfg.Scraper.PageTimeout,
	}
}

// Retriever searches, classifies, scrapes and filters.
type Retriever struct {
	searcher Searcher
	scraper  TextScraper
	opts     Options
}

// NewRetriever wires a Retriever. The scraper is shared, never owned.
func NewRetriever(searcher Searcher, scraper TextScraper, opts Options) *Retriever {
	return &Retriever{searcher: searcher, scraper: scraper, opts: opts}
}

// Retrieve searches for query and returns the substantial page texts of the
// scrapeable results. Unscrapeable links are skipped, not errors; a result
// set with nothing to scrape is empty, not an error.
func (r *Retriever) Retrieve(ctx context.Context, query string) (*Retrieval, error) {
	resp, err := r.searcher.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	return r.Collect(ctx, query, resp.Organic)
}

// Collect runs classification, the scrape fan-out and the filters over
// already fetched search results.
func (r *Retriever) Collect(ctx context.Context, query string, results []models.OrganicResult) (*Retrieval, error) {
	out := &Retrieval{Query: query, Documents: []models.Document{}}

	// ── 1. Classify ──────────────────────────────────────────────────
	var targets []Target
	for _, res := range Classify(results) {
		if !res.Scrapeable {
			slog.Info("skipping unscrapeable url", "url", res.URL)
			out.Skipped = append(out.Skipped, res.URL)
			continue
		}
		targets = append(targets, res)
	}
	if len(targets) == 0 {
		return out, nil
	}

	// ── 2. Fan out ───────────────────────────────────────────────────
	outcomes, err := r.scrapeAll(ctx, targets)
	if err != nil {
		return nil, err
	}

	// ── 3. Filter ────────────────────────────────────────────────────
	var unavailable error
	seen := simhash.NewSet(r.opts.DedupeDistance)
	for _, o := range outcomes {
		if o.Err != nil {
			slog.Warn("scrape failed, skipping url", "url", o.Target.URL, "error", o.Err)
			se := models.AsScrapeError(o.Err)
			if se.URL == "" {
				se = models.NewPageError(se.Code, se.Message, o.Target.URL, se.Err)
			}
			out.Failed = append(out.Failed, models.FailedURL{URL: o.Target.URL, Error: se.ToDetail()})
			if unavailable == nil && se.Code == models.ErrCodeBrowserUnavailable {
				unavailable = o.Err
			}
			continue
		}

		text := strings.TrimSpace(o.Text)
		if !IsSubstantial(text, r.opts.MinContentLength) {
			slog.Debug("dropping insubstantial text", "url", o.Target.URL, "runes", utf8.RuneCountInString(text))
			continue
		}
		if !seen.Add(text) {
			slog.Debug("dropping near-duplicate text", "url", o.Target.URL)
			continue
		}
		out.Documents = append(out.Documents, models.Document{
			URL:    o.Target.URL,
			Title:  o.Target.Title,
			Text:   text,
			Tokens: cleaner.EstimateTokens(text),
		})
	}

	if unavailable != nil && len(out.Failed) == len(targets) {
		return nil, unavailable
	}
	return out, nil
}

// scrapeAll scrapes every target with bounded concurrency. Each call gets
// its own deadline. With FailFast the first error cancels the rest and is
// returned; otherwise every outcome is collected.
func (r *Retriever) scrapeAll(ctx context.Context, targets []Target) ([]Outcome, error) {
	outcomes := make([]Outcome, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	if r.opts.MaxConcurrency > 0 {
		g.SetLimit(r.opts.MaxConcurrency)
	}

	for i, t := range targets {
		g.Go(func() error {
			pctx, cancel := withTimeout(gctx, r.opts.PageTimeout)
			defer cancel()

			text, err := r.scraper.ScrapeText(pctx, t.URL)
			outcomes[i] = Outcome{Target: t, Text: text, Err: err}
			if err != nil && r.opts.FailFast {
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// Classify maps search results to targets in rank order.
func Classify(results []models.OrganicResult) []Target {
	targets := make([]Target, 0, len(results))
	for _, res := range results {
		if res.Link == "" {
			continue
		}
		targets = append(targets, Target{
			URL:        res.Link,
			Title:      res.Title,
			Scrapeable: urlfilter.IsScrapeable(res.Link),
		})
	}
	return targets
}

// IsSubstantial reports whether text's trimmed rune length exceeds min.
func IsSubstantial(text string, min int) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) > min
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
