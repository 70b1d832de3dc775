// Package search queries the Serper Google Search API.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/use-agent/ragsvc/config"
	"github.com/use-agent/ragsvc/models"
)

const defaultBaseURL = "https://google.serper.dev"

// Client runs one web search per call.
type Client struct {
	apiKey    string
	baseURL   string
	num       int
	site      string
	timeRange string
	http      *http.Client
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithSite restricts every query to one domain.
func WithSite(site string) Option {
	return func(c *Client) {
		c.site = site
	}
}

// WithTimeRange sets the tbs filter, e.g. "qdr:3y".
func WithTimeRange(tbs string) Option {
	return func(c *Client) {
		c.timeRange = tbs
	}
}

// WithNumResults sets how many organic results are requested.
func WithNumResults(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.num = n
		}
	}
}

// NewClient creates a Serper client.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		num:     5,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// FromConfig builds a client from the search section of the config.
func FromConfig(cfg config.SearchConfig) *Client {
	return NewClient(cfg.APIKey,
		WithBaseURL(cfg.BaseURL),
		WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		WithNumResults(cfg.NumResults),
		WithSite(cfg.Site),
		WithTimeRange(cfg.TimeRange),
	)
}

type searchRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num,omitempty"`
	Tbs string `json:"tbs,omitempty"`
}

// Search runs query and returns the organic results. Failures carry
// SEARCH_FAILED.
func (c *Client) Search(ctx context.Context, query string) (*models.SearchResponse, error) {
	resp, err := c.search(ctx, query)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeSearchFailure, "web search failed", err)
	}
	return resp, nil
}

func (c *Client) search(ctx context.Context, query string) (*models.SearchResponse, error) {
	if c.apiKey == "" {
		return nil, eris.New("search: SERPER_API_KEY is not set")
	}

	q := query
	if c.site != "" {
		q += " site:" + c.site
	}
	body, err := json.Marshal(searchRequest{Q: q, Num: c.num, Tbs: c.timeRange})
	if err != nil {
		return nil, eris.Wrap(err, "search: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "search: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "search: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, eris.Wrap(err, "search: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("search: unexpected status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var result models.SearchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "search: unmarshal response")
	}
	return &result, nil
}

// Links returns the result links in rank order, skipping empty ones.
func Links(resp *models.SearchResponse) []string {
	if resp == nil {
		return nil
	}
	links := make([]string, 0, len(resp.Organic))
	for _, r := range resp.Organic {
		if r.Link != "" {
			links = append(links, r.Link)
		}
	}
	return links
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
