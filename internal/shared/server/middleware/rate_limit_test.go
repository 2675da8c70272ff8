package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func rateLimitedRouter(now *time.Time, rules map[string]RateLimitRule) *gin.Engine {
	gin.SetMode(gin.TestMode)
	limiter := NewRateLimiter(func() time.Time { return *now })

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(userIDKey, "guest:"+c.GetHeader("X-Guest-Id"))
		c.Next()
	})
	r.Use(RateLimit(RateLimitConfig{
		GroupFor: func(c *gin.Context) string {
			if c.Request.Method == http.MethodPost && c.FullPath() == "/api/v1/sessions/:id/analyze" {
				return "LLM"
			}
			return ""
		},
		Limiter: limiter,
		Rules:   rules,
	}))
	r.POST("/api/v1/sessions/:id/analyze", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	r.GET("/api/v1/sessions/:id", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	return r
}

func serve(r http.Handler, method, path, guest string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("X-Guest-Id", guest)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestRateLimitLLMGroupStricterThanDefault(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	r := rateLimitedRouter(&now, map[string]RateLimitRule{
		"DEFAULT": {Rate: 5, Burst: 10},
		"LLM":     {Rate: 0.1, Burst: 2},
	})

	for i := 0; i < 5; i++ {
		if resp := serve(r, http.MethodGet, "/api/v1/sessions/s1", "a"); resp.Code != http.StatusOK {
			t.Fatalf("read request %d expected 200, got %d", i+1, resp.Code)
		}
	}
	for i := 0; i < 2; i++ {
		if resp := serve(r, http.MethodPost, "/api/v1/sessions/s1/analyze", "a"); resp.Code != http.StatusOK {
			t.Fatalf("llm request %d expected 200, got %d", i+1, resp.Code)
		}
	}
	if resp := serve(r, http.MethodPost, "/api/v1/sessions/s1/analyze", "a"); resp.Code != http.StatusTooManyRequests {
		t.Fatalf("third llm request expected 429, got %d", resp.Code)
	}
	if resp := serve(r, http.MethodPost, "/api/v1/sessions/s2/analyze", "b"); resp.Code != http.StatusOK {
		t.Fatalf("other principal must have its own bucket, got %d", resp.Code)
	}

	now = now.Add(10 * time.Second)
	if resp := serve(r, http.MethodPost, "/api/v1/sessions/s1/analyze", "a"); resp.Code != http.StatusOK {
		t.Fatalf("bucket should refill after 10s, got %d", resp.Code)
	}
}

func TestRateLimit429Envelope(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	r := rateLimitedRouter(&now, map[string]RateLimitRule{"LLM": {Rate: 1, Burst: 1}})

	if resp := serve(r, http.MethodPost, "/api/v1/sessions/s1/analyze", "a"); resp.Code != http.StatusOK {
		t.Fatalf("expected first request 200, got %d", resp.Code)
	}
	resp := serve(r, http.MethodPost, "/api/v1/sessions/s1/analyze", "a")
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.Code)
	}
	if resp.Header().Get("Retry-After") != "1" {
		t.Fatalf("expected Retry-After 1, got %q", resp.Header().Get("Retry-After"))
	}

	var payload struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Error.Code != "rate_limited" {
		t.Fatalf("expected rate_limited, got %q", payload.Error.Code)
	}
	if _, ok := payload.Error.Details["retryAfterMs"]; !ok {
		t.Fatalf("expected retryAfterMs in details")
	}
	if payload.Error.Details["sessionId"] != "s1" {
		t.Fatalf("expected sessionId s1 in details, got %v", payload.Error.Details["sessionId"])
	}

	if resp := serve(r, http.MethodGet, "/api/v1/sessions/s1", "a"); resp.Code != http.StatusOK {
		t.Fatalf("routes without a rule are not limited, got %d", resp.Code)
	}
}

func TestRateLimiterAllow(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	l := NewRateLimiter(func() time.Time { return now })
	rule := RateLimitRule{Rate: 0.2, Burst: 1}

	if _, ok := l.Allow("u|LLM", rule); !ok {
		t.Fatalf("first call should pass")
	}
	wait, ok := l.Allow("u|LLM", rule)
	if ok {
		t.Fatalf("second call should be limited")
	}
	if wait != 5*time.Second {
		t.Fatalf("expected 5s wait, got %s", wait)
	}
	if _, ok := l.Allow("u|LLM", RateLimitRule{}); !ok {
		t.Fatalf("zero rule disables limiting")
	}
	var nilLimiter *RateLimiter
	if _, ok := nilLimiter.Allow("u|LLM", rule); !ok {
		t.Fatalf("nil limiter allows everything")
	}
}
