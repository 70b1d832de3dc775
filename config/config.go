package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Scraper   ScraperConfig
	Pipeline  PipelineConfig
	Search    SearchConfig
	LLM       LLMConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"

	// RequestTimeout bounds one /api/agent1 or /api/v1/retrieve request.
	RequestTimeout time.Duration // default: 90s
}

// BrowserConfig controls the launch of the shared browser process.
// It is fixed for the process lifetime; recovery relaunches with the same values.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Proxy is the proxy URL passed to the browser at launch.
	Proxy string

	// Stealth injects go-rod/stealth into every new tab.
	Stealth bool // default: true

	// BlockedResourceTypes lists resource types the tab hijack router fails.
	// default: ["Image", "Font", "Media"]
	BlockedResourceTypes []string

	// BlockAds fails requests to known ad and tracking hosts.
	BlockAds bool // default: true
}

// ScraperConfig controls the per-call scrape behavior.
type ScraperConfig struct {
	// PolitenessDelay is slept before every scrape call.
	PolitenessDelay time.Duration // default: 200ms

	// PageTimeout is the caller-level deadline wrapped around one scrape.
	PageTimeout time.Duration // default: 30s

	// MaxTimeout caps client-supplied timeouts on /api/v1/scrape.
	MaxTimeout time.Duration // default: 120s

	// BodyTimeout bounds the wait for a body element after navigation.
	BodyTimeout time.Duration // default: 5s

	// ChallengeSettle is slept once a challenge page is detected.
	ChallengeSettle time.Duration // default: 3s

	// ChallengeExtraWait is slept when the challenge is still unresolved.
	ChallengeExtraWait time.Duration // default: 2s

	// ReadyTimeout bounds the wait for document.readyState == "complete".
	ReadyTimeout time.Duration // default: 2s
}

// PipelineConfig controls the retrieval fan-out.
type PipelineConfig struct {
	// MaxConcurrency caps concurrent scrapes per retrieval.
	MaxConcurrency int // default: 5

	// FailFast aborts the whole batch on the first scrape error.
	FailFast bool // default: false

	// MinContentLength is the substantiality threshold in runes (exclusive).
	MinContentLength int // default: 100

	// DedupeDistance is the simhash Hamming distance at or below which two
	// texts are near-duplicates. Negative disables dedupe.
	DedupeDistance int // default: 3

	// MaxContextTokens is the token budget for documents sent to the LLM.
	MaxContextTokens int // default: 12000
}

// SearchConfig controls the Serper search client.
type SearchConfig struct {
	APIKey  string
	BaseURL string // default: "https://google.serper.dev"

	// NumResults is the number of organic results requested.
	NumResults int // default: 5

	// Site restricts results to one domain (appended as "site:<Site>").
	Site string

	// TimeRange is the Serper tbs filter, e.g. "qdr:3y".
	TimeRange string

	Timeout time.Duration // default: 15s
}

// LLMConfig controls the OpenAI-compatible chat completion client.
type LLMConfig struct {
	APIKey  string
	BaseURL string // default: "https://openrouter.ai/api/v1"
	Model   string // default: "openai/gpt-4o-mini"

	// EnhanceQuery toggles the query rewrite step of /api/agent1.
	EnhanceQuery bool // default: true

	Timeout time.Duration // default: 60s
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-identity rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per identity.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per identity.
	Burst int // default: 10
}

// CacheConfig controls the answer cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached answers. 0 disables caching.
	MaxEntries int // default: 1000

	// TTL is how long an answer stays cached.
	TTL time.Duration // default: 10m
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           envOr("HOST", envOr("RAG_HOST", "0.0.0.0")),
			Port:           envIntOr("PORT", envIntOr("RAG_PORT", 8080)),
			Mode:           envOr("RAG_MODE", "release"),
			RequestTimeout: envDurationOr("RAG_REQUEST_TIMEOUT", 90*time.Second),
		},
		Browser: BrowserConfig{
			Headless:   envBoolOr("RAG_HEADLESS", true),
			NoSandbox:  envBoolOr("RAG_NO_SANDBOX", false),
			BrowserBin: os.Getenv("RAG_BROWSER_BIN"),
			Proxy:      os.Getenv("RAG_PROXY"),
			Stealth:    envBoolOr("RAG_STEALTH", true),
			BlockedResourceTypes: envSliceOr("RAG_BLOCKED_RESOURCES", []string{
				"Image", "Font", "Media",
			}),
			BlockAds: envBoolOr("RAG_BLOCK_ADS", true),
		},
		Scraper: ScraperConfig{
			PolitenessDelay:    envDurationOr("RAG_POLITENESS_DELAY", 200*time.Millisecond),
			PageTimeout:        envDurationOr("RAG_PAGE_TIMEOUT", 30*time.Second),
			MaxTimeout:         envDurationOr("RAG_MAX_TIMEOUT", 120*time.Second),
			BodyTimeout:        envDurationOr("RAG_BODY_TIMEOUT", 5*time.Second),
			ChallengeSettle:    envDurationOr("RAG_CHALLENGE_SETTLE", 3*time.Second),
			ChallengeExtraWait: envDurationOr("RAG_CHALLENGE_EXTRA_WAIT", 2*time.Second),
			ReadyTimeout:       envDurationOr("RAG_READY_TIMEOUT", 2*time.Second),
		},
		Pipeline: PipelineConfig{
			MaxConcurrency:   envIntOr("RAG_MAX_CONCURRENCY", 5),
			FailFast:         envBoolOr("RAG_FAIL_FAST", false),
			MinContentLength: envIntOr("RAG_MIN_CONTENT_LENGTH", 100),
			DedupeDistance:   envIntOr("RAG_DEDUPE_DISTANCE", 3),
			MaxContextTokens: envIntOr("RAG_MAX_CONTEXT_TOKENS", 12000),
		},
		Search: SearchConfig{
			APIKey:     os.Getenv("SERPER_API_KEY"),
			BaseURL:    envOr("RAG_SEARCH_BASE_URL", "https://google.serper.dev"),
			NumResults: envIntOr("RAG_SEARCH_NUM", 5),
			Site:       os.Getenv("RAG_SEARCH_SITE"),
			TimeRange:  os.Getenv("RAG_SEARCH_TIME_RANGE"),
			Timeout:    envDurationOr("RAG_SEARCH_TIMEOUT", 15*time.Second),
		},
		LLM: LLMConfig{
			APIKey:       os.Getenv("OPENROUTER_API_KEY"),
			BaseURL:      envOr("RAG_LLM_BASE_URL", "https://openrouter.ai/api/v1"),
			Model:        envOr("RAG_LLM_MODEL", "openai/gpt-4o-mini"),
			EnhanceQuery: envBoolOr("RAG_ENHANCE_QUERY", true),
			Timeout:      envDurationOr("RAG_LLM_TIMEOUT", 60*time.Second),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("RAG_AUTH_ENABLED", false),
			APIKeys: envSliceOr("RAG_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("RAG_RATE_RPS", 5.0),
			Burst:             envIntOr("RAG_RATE_BURST", 10),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("RAG_CACHE_MAX_ENTRIES", 1000),
			TTL:        envDurationOr("RAG_CACHE_TTL", 10*time.Minute),
		},
		Log: LogConfig{
			Level:  envOr("RAG_LOG_LEVEL", "info"),
			Format: envOr("RAG_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
