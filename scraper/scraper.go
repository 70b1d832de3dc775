package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/use-agent/ragsvc/cleaner"
	"github.com/use-agent/ragsvc/config"
	"github.com/use-agent/ragsvc/models"
)

// PageResult is everything one scrape produced.
type PageResult struct {
	URL       string
	FinalURL  string
	Title     string
	HTML      string
	Text      string
	Challenge ChallengeState
}

// Scraper owns one browser process and opens a fresh tab per call.
// It is safe for concurrent use: the mutex covers only tab acquisition
// and browser recovery, never navigation or extraction.
type Scraper struct {
	mu      sync.Mutex
	browser Browser
	launch  Launcher
	closed  bool // set by Close; no browser is launched afterwards

	loader *Loader
	delay  time.Duration

	activeTabs atomic.Int32
	tabsOpened atomic.Int64
	tabsClosed atomic.Int64
	restarts   atomic.Int64
}

// New launches the browser and returns a ready Scraper.
func New(launch Launcher, loader *Loader, cfg config.ScraperConfig) (*Scraper, error) {
	b, err := launch()
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserUnavailable, "failed to launch browser", err)
	}
	return &Scraper{
		browser: b,
		launch:  launch,
		loader:  loader,
		delay:   cfg.PolitenessDelay,
	}, nil
}

// ScrapeText returns the clean visible text of url.
func (s *Scraper) ScrapeText(ctx context.Context, url string) (string, error) {
	res, err := s.ScrapePage(ctx, url)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// ScrapePage loads url in a fresh tab and extracts its content.
//
// Lifecycle:
//
//  1. Politeness delay  – fixed, per call
//  2. Acquire tab       – under the mutex, with one browser relaunch on failure
//  3. DEFER: close tab  – on every path, errors swallowed
//  4. Navigate          – bound to ctx
//  5. Await stable      – challenge-aware, never fails
//  6. Extract           – HTML, title, final URL, visible text
func (s *Scraper) ScrapePage(ctx context.Context, url string) (*PageResult, error) {
	// ── 1. Politeness delay ──────────────────────────────────────────
	if !sleepCtx(ctx, s.delay) {
		return nil, categorizeError(ctx.Err(), "scrape canceled before start", url)
	}

	// ── 2. Acquire tab ───────────────────────────────────────────────
	tab, err := s.acquireTab()
	if err != nil {
		return nil, err
	}
	s.tabsOpened.Add(1)
	s.activeTabs.Add(1)

	// ── 3. CRITICAL DEFER: the tab never outlives the call ───────────
	defer func() {
		if err := tab.Close(); err != nil {
			slog.Debug("scraper: tab close failed", "url", url, "error", err)
		}
		s.tabsClosed.Add(1)
		s.activeTabs.Add(-1)
	}()

	// ── 4. Navigate ──────────────────────────────────────────────────
	if err := tab.Navigate(ctx, url); err != nil {
		return nil, categorizeError(withCtxErr(ctx, err), "navigation failed", url)
	}

	// ── 5. Await a stable page ───────────────────────────────────────
	state := s.loader.AwaitStable(ctx, tab)

	// ── 6. Extract ───────────────────────────────────────────────────
	html, err := tab.HTML(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, categorizeError(withCtxErr(ctx, err), "page content read timed out", url)
		}
		return nil, models.NewPageError(models.ErrCodeContent, "failed to read page content", url, err)
	}

	finalURL := evalStringOrEmpty(ctx, tab, hrefJS)
	if finalURL == "" {
		finalURL = url
	}

	return &PageResult{
		URL:       url,
		FinalURL:  finalURL,
		Title:     evalStringOrEmpty(ctx, tab, titleJS),
		HTML:      html,
		Text:      cleaner.ExtractText(html),
		Challenge: state,
	}, nil
}

// acquireTab opens a tab on the current browser. If that fails, the browser
// is relaunched exactly once and the old one closed best-effort.
func (s *Scraper) acquireTab() (Tab, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, models.NewScrapeError(models.ErrCodeBrowserUnavailable, "scraper is closed", nil)
	}

	var firstErr error
	if s.browser != nil {
		tab, err := s.browser.NewTab()
		if err == nil {
			return tab, nil
		}
		firstErr = err
		slog.Warn("scraper: tab creation failed, relaunching browser", "error", err)
	}

	fresh, err := s.launch()
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserUnavailable,
			"browser relaunch failed", errors.Join(firstErr, err))
	}

	old := s.browser
	s.browser = fresh
	s.restarts.Add(1)
	if old != nil {
		if err := old.Close(); err != nil {
			slog.Debug("scraper: closing dead browser failed", "error", err)
		}
	}

	tab, err := fresh.NewTab()
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserUnavailable,
			"no tab after browser relaunch", errors.Join(firstErr, err))
	}
	slog.Info("scraper: browser relaunched")
	return tab, nil
}

// Stats returns a snapshot of tab and browser counters.
func (s *Scraper) Stats() models.ScraperStats {
	return models.ScraperStats{
		ActiveTabs:      int(s.activeTabs.Load()),
		TabsOpened:      s.tabsOpened.Load(),
		TabsClosed:      s.tabsClosed.Load(),
		BrowserRestarts: s.restarts.Load(),
	}
}

// Close kills the browser process. Call it on shutdown to avoid zombie
// Chrome processes. Scrapes still in flight keep their tabs until they
// finish or fail; new ones get BROWSER_UNAVAILABLE.
func (s *Scraper) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.browser == nil {
		return nil
	}
	slog.Info("scraper shutting down: closing browser")
	err := s.browser.Close()
	s.browser = nil
	return err
}

// evalStringOrEmpty evaluates js and swallows any error.
func evalStringOrEmpty(ctx context.Context, tab Tab, js string) string {
	v, err := tab.Eval(ctx, js)
	if err != nil {
		return ""
	}
	return v.Str()
}

// withCtxErr attaches ctx's error to err so a canceled call is reported as a
// timeout even when the browser library returns its own error value.
func withCtxErr(ctx context.Context, err error) error {
	if cerr := ctx.Err(); cerr != nil && !errors.Is(err, cerr) {
		return fmt.Errorf("%w: %w", err, cerr)
	}
	return err
}

// categorizeError maps a raw browser error to a coded ScrapeError so the API
// layer can pick an HTTP status.
func categorizeError(err error, msg, url string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewPageError(models.ErrCodeTimeout, msg, url, err)
	case errors.Is(err, context.Canceled):
		return models.NewPageError(models.ErrCodeTimeout, "request canceled", url, err)
	default:
		return models.NewPageError(models.ErrCodeNavigation, msg, url, err)
	}
}
