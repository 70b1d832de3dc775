package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/use-agent/ragsvc/models"
)

type fakeSearcher struct {
	results []models.OrganicResult
	err     error

	mu      sync.Mutex
	queries []string
}

func (s *fakeSearcher) Search(ctx context.Context, query string) (*models.SearchResponse, error) {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return &models.SearchResponse{Organic: s.results}, nil
}

func (s *fakeSearcher) calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

type fakeScraper struct {
	texts map[string]string
	errs  map[string]error
	block map[string]bool // wait for ctx to end
	delay time.Duration

	mu       sync.Mutex
	scraped  []string
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (s *fakeScraper) ScrapeText(ctx context.Context, url string) (string, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		m := s.maxSeen.Load()
		if n <= m || s.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}

	s.mu.Lock()
	s.scraped = append(s.scraped, url)
	s.mu.Unlock()

	if s.block[url] {
		<-ctx.Done()
		return "", models.NewPageError(models.ErrCodeTimeout, "request canceled", url, ctx.Err())
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", models.NewPageError(models.ErrCodeTimeout, "request canceled", url, ctx.Err())
		}
	}
	if err := s.errs[url]; err != nil {
		return "", err
	}
	return s.texts[url], nil
}

func (s *fakeScraper) scrapedURLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.scraped...)
}

// pageText returns n runes of ASCII text unique to name, with no
// surrounding whitespace.
func pageText(name string, n int) string {
	sentence := fmt.Sprintf("%s sentence about the %s topic. ", name, name)
	b := []byte(strings.Repeat(sentence, n/len(sentence)+1)[:n])
	if b[n-1] == ' ' {
		b[n-1] = '.'
	}
	return string(b)
}

func results(links ...string) []models.OrganicResult {
	out := make([]models.OrganicResult, len(links))
	for i, l := range links {
		out[i] = models.OrganicResult{Title: "Title " + l, Link: l, Position: i + 1}
	}
	return out
}

type fakeEnhancer struct {
	out string
	err error
}

func (e fakeEnhancer) EnhanceQuery(ctx context.Context, query string) (string, error) {
	return e.out, e.err
}

type fakeAnswerer struct {
	err error

	mu    sync.Mutex
	query string
	docs  []models.Document
	calls int
}

func (a *fakeAnswerer) Answer(ctx context.Context, query string, docs []models.Document) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	a.query = query
	a.docs = docs
	if a.err != nil {
		return "", a.err
	}
	return fmt.Sprintf("answer from %d documents", len(docs)), nil
}
