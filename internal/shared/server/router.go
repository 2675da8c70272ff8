package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	googleauth "resume-enhancer/internal/auth"
	"resume-enhancer/internal/sessions"
	"resume-enhancer/internal/shared/auth"
	"resume-enhancer/internal/shared/config"
	"resume-enhancer/internal/shared/metrics"
	"resume-enhancer/internal/shared/server/middleware"
	"resume-enhancer/internal/shared/server/respond"
)

const llmRateLimitGroup = "LLM"

// RouterDeps carries the handlers the router mounts. Nil handlers are skipped.
type RouterDeps struct {
	Config          config.Config
	Signer          *auth.Signer
	SessionsHandler *sessions.Handler
	GoogleAuth      *googleauth.GoogleService
	Limiter         *middleware.RateLimiter
}

// DefaultRateLimits keeps LLM-backed routes well below the general budget.
func DefaultRateLimits() map[string]middleware.RateLimitRule {
	return map[string]middleware.RateLimitRule{
		"DEFAULT":         {Rate: 5, Burst: 20},
		llmRateLimitGroup: {Rate: 0.2, Burst: 6},
	}
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	llmRoutes := make(map[string]bool, len(sessions.LLMRoutes))
	for _, p := range sessions.LLMRoutes {
		llmRoutes[p] = true
	}

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(deps.Signer),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules:   DefaultRateLimits(),
			Limiter: deps.Limiter,
			GroupFor: func(c *gin.Context) string {
				if c.Request.Method == http.MethodPost && llmRoutes[c.FullPath()] {
					return llmRateLimitGroup
				}
				return ""
			},
		}),
	)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	api.GET("/metrics", metrics.Handler())
	api.GET("/me", me)
	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.SessionsHandler != nil {
		deps.SessionsHandler.RegisterRoutes(api)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
