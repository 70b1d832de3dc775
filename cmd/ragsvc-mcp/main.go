package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	URL     string `json:"url"`
}

// agentResponse mirrors the ragsvc /api/agent1 response.
type agentResponse struct {
	Answer        string `json:"answer"`
	EnhancedQuery string `json:"enhanced_query"`
	Sources       []struct {
		URL   string `json:"url"`
		Title string `json:"title"`
	} `json:"sources"`
	CacheStatus string    `json:"cache_status"`
	Error       *apiError `json:"error"`
}

// retrieveResponse mirrors the ragsvc /api/v1/retrieve response.
type retrieveResponse struct {
	Success   bool   `json:"success"`
	Query     string `json:"query"`
	Documents []struct {
		URL    string `json:"url"`
		Title  string `json:"title"`
		Text   string `json:"text"`
		Tokens int    `json:"tokens"`
	} `json:"documents"`
	Skipped []string `json:"skipped"`
	Failed  []struct {
		URL   string    `json:"url"`
		Error *apiError `json:"error"`
	} `json:"failed"`
	Error *apiError `json:"error"`
}

// scrapeResponse mirrors the ragsvc /api/v1/scrape response.
type scrapeResponse struct {
	Success   bool   `json:"success"`
	FinalURL  string `json:"final_url"`
	Content   string `json:"content"`
	Challenge string `json:"challenge"`
	Metadata  struct {
		Title string `json:"title"`
	} `json:"metadata"`
	Tokens int       `json:"tokens"`
	Error  *apiError `json:"error"`
}

func main() {
	apiURL := os.Getenv("RAGSVC_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("RAGSVC_API_KEY")

	s := server.NewMCPServer(
		"ragsvc",
		"0.1.0",
		server.WithToolCapabilities(false),
	)

	askTool := mcp.NewTool("ask",
		mcp.WithDescription("Answer a question from live web search results. The query is rewritten, searched, the result pages are scraped in a headless browser, and an LLM writes the answer citing its sources."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The question to answer"),
		),
	)
	s.AddTool(askTool, handleAsk(apiURL, apiKey))

	retrieveTool := mcp.NewTool("retrieve",
		mcp.WithDescription("Search the web and return the clean text of each substantial result page, without generating an answer."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The search query"),
		),
		mcp.WithBoolean("enhance",
			mcp.Description("Rewrite the query with the LLM before searching (default false)"),
		),
	)
	s.AddTool(retrieveTool, handleRetrieve(apiURL, apiKey))

	scrapeTool := mcp.NewTool("scrape_text",
		mcp.WithDescription("Load one web page in a headless browser and return its visible text or Markdown."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the web page to scrape"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: 'text' (default) or 'markdown'"),
			mcp.Enum("text", "markdown"),
		),
	)
	s.AddTool(scrapeTool, handleScrapeText(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiPost sends a POST request to the ragsvc API and decodes the JSON body into out.
func apiPost(ctx context.Context, client *http.Client, apiURL, apiKey, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parse response (status %d): %w", resp.StatusCode, err)
	}
	return nil
}

func errorText(fallback string, e *apiError) string {
	if e == nil {
		return fallback
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func handleAsk(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 120 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError("query is required"), nil
		}

		var resp agentResponse
		if err := apiPost(ctx, client, apiURL, apiKey, "/api/agent1", map[string]string{"query": query}, &resp); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if resp.Error != nil {
			return mcp.NewToolResultError(errorText("ask failed", resp.Error)), nil
		}

		var sb strings.Builder
		sb.WriteString(resp.Answer)
		if len(resp.Sources) > 0 {
			sb.WriteString("\n\nSources:\n")
			for i, src := range resp.Sources {
				fmt.Fprintf(&sb, "[%d] %s %s\n", i+1, src.Title, src.URL)
			}
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleRetrieve(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 120 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError("query is required"), nil
		}
		enhance, _ := request.GetArguments()["enhance"].(bool)
		payload := map[string]any{"query": query, "enhance": enhance}

		var resp retrieveResponse
		if err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/retrieve", payload, &resp); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !resp.Success {
			return mcp.NewToolResultError(errorText("retrieve failed", resp.Error)), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "Query: %s\nDocuments: %d\n", resp.Query, len(resp.Documents))
		for i, doc := range resp.Documents {
			fmt.Fprintf(&sb, "\n## [%d] %s\nSource: %s\nTokens: %d\n\n%s\n", i+1, doc.Title, doc.URL, doc.Tokens, doc.Text)
		}
		if len(resp.Skipped) > 0 {
			fmt.Fprintf(&sb, "\nSkipped (non-HTML): %s\n", strings.Join(resp.Skipped, ", "))
		}
		for _, f := range resp.Failed {
			fmt.Fprintf(&sb, "Failed: %s %s\n", f.URL, errorText("", f.Error))
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleScrapeText(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 130 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}
		payload := map[string]string{
			"url":    url,
			"format": request.GetString("format", "text"),
		}

		var resp scrapeResponse
		if err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/scrape", payload, &resp); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !resp.Success {
			return mcp.NewToolResultError(errorText("scrape failed", resp.Error)), nil
		}

		result := fmt.Sprintf("Title: %s\nSource: %s\n\n%s", resp.Metadata.Title, resp.FinalURL, resp.Content)
		if resp.Challenge == "pending" {
			result += "\n\n---\nNote: an anti-bot challenge was still pending when the page was read."
		}
		result += fmt.Sprintf("\n\n---\nTokens: %d", resp.Tokens)
		return mcp.NewToolResultText(result), nil
	}
}
