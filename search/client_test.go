package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/ragsvc/models"
)

func TestSearch(t *testing.T) {
	var got searchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-API-KEY"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"searchParameters": {"q": "settlements", "type": "search", "engine": "google"},
			"organic": [
				{"title": "Page", "link": "https://a.com/page", "snippet": "s1", "position": 1},
				{"title": "Report", "link": "https://a.com/report.pdf", "snippet": "s2", "position": 2, "date": "Jan 2, 2024"},
				{"title": "No link", "position": 3}
			]
		}`))
	}))
	defer srv.Close()

	c := NewClient("test-key",
		WithBaseURL(srv.URL+"/"),
		WithHTTPClient(srv.Client()),
		WithSite("www.btselem.org"),
		WithTimeRange("qdr:3y"),
		WithNumResults(7),
	)
	resp, err := c.Search(context.Background(), "settlements")

	require.NoError(t, err)
	assert.Equal(t, "settlements site:www.btselem.org", got.Q)
	assert.Equal(t, 7, got.Num)
	assert.Equal(t, "qdr:3y", got.Tbs)
	require.Len(t, resp.Organic, 3)
	assert.Equal(t, "Jan 2, 2024", resp.Organic[1].Date)
	assert.Equal(t, "google", resp.SearchParameters.Engine)
	assert.Equal(t, []string{"https://a.com/page", "https://a.com/report.pdf"}, Links(resp))
}

func TestSearchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewClient("k", WithBaseURL(srv.URL)).Search(context.Background(), "q")

	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.ErrCodeSearchFailure))
	assert.Contains(t, err.Error(), "403")
}

func TestSearchRequiresKey(t *testing.T) {
	_, err := NewClient("").Search(context.Background(), "q")

	assert.True(t, models.HasCode(err, models.ErrCodeSearchFailure))
}

func TestLinksNil(t *testing.T) {
	assert.Nil(t, Links(nil))
}
