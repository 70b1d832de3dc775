package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/ragsvc/config"
	"github.com/use-agent/ragsvc/models"
)

func newTestClient(t *testing.T, budget int, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.LLMConfig{
		APIKey:  "sk-test",
		BaseURL: srv.URL + "/",
		Model:   "openai/gpt-4o-mini",
	}, budget, srv.Client())
}

func reply(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"choices": []map[string]any{{"message": map[string]string{"content": content}}},
	})
}

func TestEnhanceQuery(t *testing.T) {
	var got chatRequest
	c := newTestClient(t, 0, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		reply(w, "  west bank\n settlements   report ")
	})

	out, err := c.EnhanceQuery(context.Background(), "what about settlements?")

	require.NoError(t, err)
	assert.Equal(t, "west bank settlements report", out)
	assert.Equal(t, "openai/gpt-4o-mini", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Contains(t, got.Messages[1].Content, "what about settlements?")
}

func TestEnhanceQueryEmptyReplyKeepsQuery(t *testing.T) {
	c := newTestClient(t, 0, func(w http.ResponseWriter, r *http.Request) {
		reply(w, "   ")
	})

	out, err := c.EnhanceQuery(context.Background(), "original")

	require.NoError(t, err)
	assert.Equal(t, "original", out)
}

func TestAnswerIncludesNumberedSources(t *testing.T) {
	var got chatRequest
	c := newTestClient(t, 0, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		reply(w, "The answer [1].")
	})

	answer, err := c.Answer(context.Background(), "question?", []models.Document{
		{URL: "https://a.com/1", Title: "One", Text: "first text"},
		{URL: "https://a.com/2", Title: "Two", Text: "second text"},
	})

	require.NoError(t, err)
	assert.Equal(t, "The answer [1].", answer)
	user := got.Messages[1].Content
	assert.Contains(t, user, "[1] One\nhttps://a.com/1\nfirst text")
	assert.Contains(t, user, "[2] Two\nhttps://a.com/2\nsecond text")
	assert.True(t, strings.HasSuffix(user, "Question: question?"))
}

func TestBuildAnswerInputRespectsBudget(t *testing.T) {
	docs := []models.Document{
		{URL: "u1", Text: strings.Repeat("a", 300)},
		{URL: "u2", Text: strings.Repeat("b", 300)},
	}

	out := buildAnswerInput("q", docs, 50)

	assert.Equal(t, 150, strings.Count(out, "a"))
	assert.NotContains(t, out, "u2")
}

func TestClassifyLLMError(t *testing.T) {
	tests := []struct {
		status int
		code   string
	}{
		{http.StatusUnauthorized, models.ErrCodeLLMAuthFailure},
		{http.StatusForbidden, models.ErrCodeLLMAuthFailure},
		{http.StatusTooManyRequests, models.ErrCodeLLMRateLimited},
		{http.StatusBadGateway, models.ErrCodeLLMFailure},
	}
	for _, tt := range tests {
		c := newTestClient(t, 0, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			_, _ = w.Write([]byte(`{"error":{"message":"nope"}}`))
		})
		_, err := c.EnhanceQuery(context.Background(), "q")
		assert.True(t, models.HasCode(err, tt.code), "status %d: %v", tt.status, err)
	}
}

func TestMissingAPIKey(t *testing.T) {
	c := NewClient(config.LLMConfig{BaseURL: "http://127.0.0.1:1"}, 0, nil)

	_, err := c.Answer(context.Background(), "q", nil)

	assert.True(t, models.HasCode(err, models.ErrCodeLLMAuthFailure))
}

func TestOversizedResponseIsCut(t *testing.T) {
	c := newTestClient(t, 0, func(w http.ResponseWriter, r *http.Request) {
		reply(w, strings.Repeat("a", maxResponseBytes+1024))
	})

	_, err := c.EnhanceQuery(context.Background(), "q")

	assert.True(t, models.HasCode(err, models.ErrCodeLLMFailure), "%v", err)
}
