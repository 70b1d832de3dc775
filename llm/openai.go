// Package llm is a small OpenAI-compatible chat completion client used for
// query enhancement and answer generation. OpenRouter is the default provider.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/use-agent/ragsvc/cleaner"
	"github.com/use-agent/ragsvc/config"
	"github.com/use-agent/ragsvc/models"
)

// maxResponseBytes caps how much of a completion response is read.
const maxResponseBytes = 4 << 20

// Client talks to one chat completion endpoint with one model.
type Client struct {
	apiKey           string
	baseURL          string
	model            string
	maxContextTokens int
	httpClient       *http.Client
}

// NewClient creates a client from the LLM config. Pass a nil httpClient to
// get one with cfg.Timeout.
func NewClient(cfg config.LLMConfig, maxContextTokens int, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		apiKey:           cfg.APIKey,
		baseURL:          strings.TrimRight(cfg.BaseURL, "/"),
		model:            cfg.Model,
		maxContextTokens: maxContextTokens,
		httpClient:       httpClient,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type chatErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

const enhancePrompt = `You are a search assistant, helping users refine their web site search queries.
You are given a user query and you need to rewrite it in a way that will maximize the number of relevant documents found in a google search.
Output only the list of words and terms, no other text, no commas or other punctuation.`

const answerPrompt = `You answer questions using only the numbered source documents provided.
Cite sources inline as [n]. If the documents do not contain the answer, say so plainly.`

// EnhanceQuery rewrites query into search terms. An empty model reply falls
// back to the original query.
func (c *Client) EnhanceQuery(ctx context.Context, query string) (string, error) {
	out, err := c.complete(ctx, enhancePrompt, "User query:\n"+query, 0)
	if err != nil {
		return "", err
	}
	out = strings.Join(strings.Fields(out), " ")
	if out == "" {
		return query, nil
	}
	return out, nil
}

// Answer generates an answer to query grounded in docs. Documents are
// included in order until the token budget is spent.
func (c *Client) Answer(ctx context.Context, query string, docs []models.Document) (string, error) {
	return c.complete(ctx, answerPrompt, buildAnswerInput(query, docs, c.maxContextTokens), 0.2)
}

// buildAnswerInput renders the numbered sources followed by the question.
func buildAnswerInput(query string, docs []models.Document, budget int) string {
	var b strings.Builder
	remaining := budget
	for i, d := range docs {
		if budget > 0 && remaining <= 0 {
			break
		}
		text := d.Text
		if budget > 0 {
			text = cleaner.TruncateToTokens(text, remaining)
			remaining -= cleaner.EstimateTokens(text)
		}
		fmt.Fprintf(&b, "[%d] %s\n%s\n%s\n\n", i+1, d.Title, d.URL, text)
	}
	if len(docs) == 0 {
		b.WriteString("(no source documents were found)\n\n")
	}
	b.WriteString("Question: ")
	b.WriteString(query)
	return b.String()
}

func (c *Client) complete(ctx context.Context, system, user string, temperature float64) (string, error) {
	if c.apiKey == "" {
		return "", models.NewScrapeError(models.ErrCodeLLMAuthFailure, "OPENROUTER_API_KEY is not set", nil)
	}

	bodyBytes, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: temperature,
	})
	if err != nil {
		return "", eris.Wrap(err, "llm: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", eris.Wrap(err, "llm: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", models.NewScrapeError(models.ErrCodeLLMFailure, "LLM request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", models.NewScrapeError(models.ErrCodeLLMFailure, "failed to read LLM response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", classifyLLMError(resp.StatusCode, respBody)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", models.NewScrapeError(models.ErrCodeLLMFailure, "failed to parse LLM response", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", models.NewScrapeError(models.ErrCodeLLMFailure, "LLM returned no choices", nil)
	}
	return strings.TrimSpace(chatResp.Choices[0].Message.Content), nil
}

// classifyLLMError maps HTTP status codes to error codes.
func classifyLLMError(statusCode int, body []byte) *models.ScrapeError {
	var errResp chatErrorResponse
	msg := "LLM API error"
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		msg = errResp.Error.Message
	}

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return models.NewScrapeError(models.ErrCodeLLMAuthFailure, msg, nil)
	case http.StatusTooManyRequests:
		return models.NewScrapeError(models.ErrCodeLLMRateLimited, msg, nil)
	default:
		return models.NewScrapeError(models.ErrCodeLLMFailure, fmt.Sprintf("LLM API returned %d: %s", statusCode, msg), nil)
	}
}
