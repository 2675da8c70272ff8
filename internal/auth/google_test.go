package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"

	sharedauth "resume-enhancer/internal/shared/auth"
)

func newTestService(t *testing.T) *GoogleService {
	t.Helper()
	signer, err := sharedauth.NewSigner("secret", time.Hour)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	return NewGoogleService(GoogleConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:8080/api/v1/auth/google/callback",
		UIRedirect:   "http://localhost:5173/login?from=google",
	}, signer)
}

func TestStartRedirectsWithState(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := newTestService(t)
	r := gin.New()
	svc.RegisterRoutes(r.Group("/api/v1"))

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/start", nil))
	if resp.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", resp.Code)
	}
	loc, err := url.Parse(resp.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse location: %v", err)
	}
	state := loc.Query().Get("state")
	if state == "" || !svc.states.consume(state) {
		t.Fatalf("expected a stored state, got %q", state)
	}
}

func TestStartNotConfigured(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := NewGoogleService(GoogleConfig{}, nil)
	r := gin.New()
	svc.RegisterRoutes(r.Group("/api/v1"))

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/start", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
}

func TestCallbackRejectsUnknownState(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := newTestService(t)
	r := gin.New()
	svc.RegisterRoutes(r.Group("/api/v1"))

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?state=nope&code=abc", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestStateStoreExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newStateStore(func() time.Time { return now })
	s.put("a", time.Minute)
	s.put("b", time.Minute)
	now = now.Add(2 * time.Minute)
	if s.consume("a") {
		t.Fatalf("expired state must be rejected")
	}
	s.put("c", time.Minute)
	if _, ok := s.items["b"]; ok {
		t.Fatalf("expired states should be pruned on put")
	}
	if !s.consume("c") || s.consume("c") {
		t.Fatalf("state must be usable exactly once")
	}
}

func TestFetchUserInfoFallsBackToID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"id":"123","email":"jane@example.com","name":"Jane"}`))
	}))
	defer server.Close()
	old := userInfoURL
	userInfoURL = server.URL
	t.Cleanup(func() { userInfoURL = old })

	svc := newTestService(t)
	info, err := svc.fetchUserInfo(context.Background(), &oauth2.Token{AccessToken: "access", TokenType: "Bearer"})
	if err != nil {
		t.Fatalf("fetchUserInfo: %v", err)
	}
	if info.Sub != "123" || info.Email != "jane@example.com" {
		t.Fatalf("unexpected info %+v", info)
	}
}

func TestAppendToken(t *testing.T) {
	got, err := appendToken("http://localhost:5173/login?from=google", "tok")
	if err != nil {
		t.Fatalf("appendToken: %v", err)
	}
	if !strings.Contains(got, "token=tok") || !strings.Contains(got, "from=google") {
		t.Fatalf("unexpected url %q", got)
	}
	if _, err := appendToken("", "tok"); err == nil {
		t.Fatalf("expected error for empty redirect")
	}
}
