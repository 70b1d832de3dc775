package models

// AgentResponse is the response for POST /api/agent1.
type AgentResponse struct {
	// Answer is the generated answer text.
	Answer string `json:"answer"`

	// EnhancedQuery is the LLM-rewritten query that was searched.
	EnhancedQuery string `json:"enhanced_query,omitempty"`

	// Sources lists the pages whose text was given to the answer stage.
	Sources []Source `json:"sources,omitempty"`

	// CacheStatus is "hit" or "miss"; empty when caching is disabled.
	CacheStatus string `json:"cache_status,omitempty"`

	Timing TimingInfo `json:"timing"`
}

// Source identifies one scraped page used as answer context.
type Source struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// Document is one substantial page text produced by the retrieval pipeline.
type Document struct {
	URL    string `json:"url"`
	Title  string `json:"title,omitempty"`
	Text   string `json:"text"`
	Tokens int    `json:"tokens"`
}

// FailedURL records a per-URL scrape failure that was skipped.
type FailedURL struct {
	URL   string       `json:"url"`
	Error *ErrorDetail `json:"error"`
}

// RetrieveResponse is the response for POST /api/v1/retrieve.
type RetrieveResponse struct {
	Success   bool        `json:"success"`
	Query     string      `json:"query"`
	Documents []Document  `json:"documents"`
	Skipped   []string    `json:"skipped,omitempty"`
	Failed    []FailedURL `json:"failed,omitempty"`
	Timing    TimingInfo  `json:"timing"`
}

// ScrapeResponse is the response for POST /api/v1/scrape.
type ScrapeResponse struct {
	Success bool `json:"success"`

	// URL is the requested URL; FinalURL is where the tab ended up.
	URL      string `json:"url,omitempty"`
	FinalURL string `json:"final_url,omitempty"`

	// Content is the page text or Markdown, depending on the request format.
	Content string `json:"content,omitempty"`
	Format  string `json:"format,omitempty"`

	// Challenge is the anti-bot state observed while loading:
	// "none", "pending" or "resolved".
	Challenge string `json:"challenge,omitempty"`

	Metadata Metadata   `json:"metadata"`
	Tokens   int        `json:"tokens"`
	Timing   TimingInfo `json:"timing"`

	Error *ErrorDetail `json:"error,omitempty"`
}

// Metadata holds page-level information extracted during scraping.
type Metadata struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	SiteName    string `json:"site_name,omitempty"`
	Author      string `json:"author,omitempty"`
	Language    string `json:"language,omitempty"`
}

// ErrorResponse is the body written for every failed request.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	TotalMs      int64 `json:"total_ms"`
	RetrievalMs  int64 `json:"retrieval_ms,omitempty"`
	GenerationMs int64 `json:"generation_ms,omitempty"`
}

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	Status  string       `json:"status"` // "ok" or "degraded"
	Message string       `json:"message"`
	Uptime  string       `json:"uptime"`
	Version string       `json:"version"`
	Scraper ScraperStats `json:"scraper"`
}

// ScraperStats reports the state of the shared browser and its tabs.
type ScraperStats struct {
	ActiveTabs      int   `json:"active_tabs"`
	TabsOpened      int64 `json:"tabs_opened"`
	TabsClosed      int64 `json:"tabs_closed"`
	BrowserRestarts int64 `json:"browser_restarts"`
}
