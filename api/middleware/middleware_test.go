package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/use-agent/ragsvc/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/", func(c *gin.Context) {
		key, _ := c.Get(identityKey)
		s, _ := key.(string)
		c.String(http.StatusOK, s)
	})
	return r
}

func get(r *gin.Engine, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	r := newEngine(Auth([]string{"k1", "k2"}))

	tests := []struct {
		name    string
		headers map[string]string
		status  int
	}{
		{"missing", nil, http.StatusUnauthorized},
		{"invalid", map[string]string{"X-API-Key": "nope"}, http.StatusUnauthorized},
		{"header", map[string]string{"X-API-Key": "k1"}, http.StatusOK},
		{"bearer", map[string]string{"Authorization": "Bearer k2"}, http.StatusOK},
		{"basic ignored", map[string]string{"Authorization": "Basic k2"}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(r, tt.headers)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusUnauthorized {
				assert.Contains(t, w.Body.String(), "UNAUTHORIZED")
			}
		})
	}
}

func TestAuthNoKeysIsOpen(t *testing.T) {
	r := newEngine(Auth([]string{"", ""}))

	assert.Equal(t, http.StatusOK, get(r, nil).Code)
}

func TestRateLimitPerIdentity(t *testing.T) {
	done := make(chan struct{})
	defer close(done)
	r := newEngine(Auth([]string{"a", "b"}), RateLimit(config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2}, done))

	assert.Equal(t, http.StatusOK, get(r, map[string]string{"X-API-Key": "a"}).Code)
	assert.Equal(t, http.StatusOK, get(r, map[string]string{"X-API-Key": "a"}).Code)
	w := get(r, map[string]string{"X-API-Key": "a"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "RATE_LIMITED")

	assert.Equal(t, http.StatusOK, get(r, map[string]string{"X-API-Key": "b"}).Code)
}

func TestCORS(t *testing.T) {
	r := newEngine(CORS())
	r.OPTIONS("/", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	w := get(r, nil)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
