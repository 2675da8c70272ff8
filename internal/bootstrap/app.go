package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-enhancer/internal/agents"
	googleauth "resume-enhancer/internal/auth"
	"resume-enhancer/internal/events"
	"resume-enhancer/internal/llm"
	"resume-enhancer/internal/llm/gemini"
	"resume-enhancer/internal/llm/langchain"
	"resume-enhancer/internal/llm/openai"
	"resume-enhancer/internal/sessions"
	"resume-enhancer/internal/shared/auth"
	"resume-enhancer/internal/shared/config"
	"resume-enhancer/internal/shared/server"
	"resume-enhancer/internal/shared/server/middleware"
	"resume-enhancer/internal/shared/storage/db"
	"resume-enhancer/internal/shared/storage/object"
	localstore "resume-enhancer/internal/shared/storage/object/local"
	s3store "resume-enhancer/internal/shared/storage/object/s3"
)

// App holds shared dependencies and the wired router.
type App struct {
	Config          config.Config
	Router          *gin.Engine
	DB              *sql.DB
	Store           object.ObjectStore
	LLM             llm.Client
	Events          events.Publisher
	Signer          *auth.Signer
	SessionsRepo    sessions.Repo
	SessionsService *sessions.Service
	SessionsHandler *sessions.Handler
	GoogleAuth      *googleauth.GoogleService

	closers []func() error
}

// Build prepares every dependency and the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()
	app := &App{Config: cfg}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.DB = sqlDB

	if app.Store, err = buildStore(ctx, cfg); err != nil {
		return nil, err
	}
	if app.LLM, err = NewLLMClient(ctx, cfg); err != nil {
		return nil, err
	}
	if app.Events, err = buildEvents(cfg, app); err != nil {
		return nil, err
	}
	if app.Signer, err = auth.SignerFromEnv(); err != nil {
		return nil, err
	}

	if app.DB != nil {
		app.SessionsRepo = &sessions.PGRepo{DB: app.DB}
	} else {
		app.SessionsRepo = sessions.NewMemoryRepo()
	}
	ag, err := agents.New(app.LLM)
	if err != nil {
		return nil, fmt.Errorf("load prompt catalog: %w", err)
	}
	app.SessionsService = &sessions.Service{
		Repo:   app.SessionsRepo,
		Store:  app.Store,
		Agents: ag,
		Events: app.Events,
	}
	app.SessionsHandler = sessions.NewHandler(app.SessionsService)
	app.GoogleAuth = googleauth.NewGoogleService(googleauth.GoogleConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		UIRedirect:   cfg.UIRedirectURL,
	}, app.Signer)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		Signer:          app.Signer,
		SessionsHandler: app.SessionsHandler,
		GoogleAuth:      app.GoogleAuth,
		Limiter:         middleware.NewRateLimiter(nil),
	})
	return app, nil
}

// Close releases connections opened by Build.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.DB != nil && !db.IsLambdaRuntime() {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.IsDevLike() {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		if cfg.IsDevLike() {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	// Deployed environments migrate through cmd/migrate.
	if cfg.IsDevLike() {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			log.Printf("bootstrap: migrations failed; using in-memory repositories: %v", err)
			sqlDB.Close()
			return nil, nil
		}
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, s3store.Options{
			Region:    cfg.AWSRegion,
			Bucket:    cfg.S3Bucket,
			Prefix:    cfg.S3Prefix,
			KMSKeyID:  cfg.SSEKMSKeyID,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildEvents(cfg config.Config, app *App) (events.Publisher, error) {
	if strings.TrimSpace(cfg.RabbitMQURL) == "" {
		return events.NopPublisher{}, nil
	}
	pub, err := events.DialAMQP(cfg.RabbitMQURL)
	if err != nil {
		if cfg.IsDevLike() {
			log.Printf("bootstrap: rabbitmq unavailable; stage events disabled: %v", err)
			return events.NopPublisher{}, nil
		}
		return nil, err
	}
	app.closers = append(app.closers, pub.Close)
	return pub, nil
}

// NewLLMClient builds the configured provider. A missing API key does not stop
// startup; every call then fails with llm.ErrMissingCredential.
func NewLLMClient(ctx context.Context, cfg config.Config) (llm.Client, error) {
	var (
		client llm.Client
		err    error
	)
	switch cfg.LLMProvider {
	case config.ProviderPlaceholder:
		client = llm.PlaceholderClient{}
	case config.ProviderGemini:
		var c *gemini.Client
		if c, err = gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.LLMModel); err == nil {
			client = c
		}
	case config.ProviderLangChain:
		var c *langchain.Client
		if strings.HasPrefix(strings.ToLower(cfg.LLMModel), "gemini") {
			c, err = langchain.NewGoogleAI(ctx, cfg.GeminiAPIKey, cfg.LLMModel)
		} else {
			c, err = langchain.NewOpenAI(cfg.OpenAIAPIKey, cfg.LLMModel)
		}
		if err == nil {
			client = c
		}
	default:
		var c *openai.Client
		if c, err = openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel); err == nil {
			client = c
		}
	}
	if err != nil {
		if !errors.Is(err, llm.ErrMissingCredential) {
			return nil, err
		}
		log.Printf("bootstrap: %v; LLM requests will be rejected", err)
		client = llm.UnconfiguredClient{Err: err}
	}
	return llm.Instrument(client, cfg.LLMProvider), nil
}
