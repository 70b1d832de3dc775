package models

import "strings"

// AgentRequest is the payload for POST /api/agent1.
type AgentRequest struct {
	// Query is the natural-language question. Required, must not be blank.
	Query string `json:"query" binding:"required"`
}

// IsValid reports whether the query carries any non-whitespace text.
func (r *AgentRequest) IsValid() bool {
	return strings.TrimSpace(r.Query) != ""
}

// RetrieveRequest is the payload for POST /api/v1/retrieve.
type RetrieveRequest struct {
	// Query is the search query. Required, must not be blank.
	Query string `json:"query" binding:"required"`

	// Enhance rewrites the query with the LLM before searching.
	// Default: false (the query is searched verbatim).
	Enhance bool `json:"enhance,omitempty"`
}

// IsValid reports whether the query carries any non-whitespace text.
func (r *RetrieveRequest) IsValid() bool {
	return strings.TrimSpace(r.Query) != ""
}

// ScrapeRequest is the payload for POST /api/v1/scrape.
type ScrapeRequest struct {
	// URL is the target page to scrape. Required.
	URL string `json:"url" binding:"required,url"`

	// Format controls the response body.
	// "text" (default): cleaned visible text, as fed to the answer stage.
	// "markdown": main-content HTML converted to Markdown.
	Format string `json:"format,omitempty" binding:"omitempty,oneof=text markdown"`

	// Timeout is the maximum duration in seconds for the whole scrape.
	// Default: server's page timeout. Max: 120.
	Timeout int `json:"timeout,omitempty" binding:"omitempty,min=1,max=120"`
}

// Defaults applies default values to unset fields.
func (r *ScrapeRequest) Defaults() {
	if r.Format == "" {
		r.Format = "text"
	}
}
