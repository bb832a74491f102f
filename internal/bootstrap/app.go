package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"window-backend/internal/analysis"
	"window-backend/internal/config"
	"window-backend/internal/events"
	"window-backend/internal/leads"
	"window-backend/internal/pricing"
	"window-backend/internal/provider"
	"window-backend/internal/provider/claudevision"
	"window-backend/internal/provider/openaivision"
	"window-backend/internal/provider/vislabel"
	"window-backend/internal/secrets"
	"window-backend/internal/shared/server"
	"window-backend/internal/shared/server/middleware"
	"window-backend/internal/shared/storage/db"
	"window-backend/internal/shared/storage/object"
	localstore "window-backend/internal/shared/storage/object/local"
	s3store "window-backend/internal/shared/storage/object/s3"
	"window-backend/internal/uploads"
)

// Endpoint URLs for the hosted providers. Overridable per provider through
// <NAME>_API_URL for test doubles and regional deployments.
const (
	openAIDefaultURL   = "https://api.openai.com/v1/chat/completions"
	claudeDefaultURL   = "https://api.anthropic.com/v1/messages"
	vislabelDefaultURL = "https://vision.googleapis.com/v1/images:annotate"
)

// App holds shared dependencies built once at startup.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	Sink   events.Sink

	AnalysisRepo    analysis.Repo
	AnalysisService *analysis.Service
	LeadsService    *leads.Service

	AnalysisHandler *analysis.Handler
	PricingHandler  *pricing.Handler
	LeadsHandler    *leads.Handler
	UploadsHandler  *uploads.Handler
}

// Build prepares shared dependencies and the router.
func Build(cfg config.Config) (*App, error) {
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	sink, err := buildSink(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Sink:   sink,
	}
	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		AnalysisHandler: app.AnalysisHandler,
		PricingHandler:  app.PricingHandler,
		LeadsHandler:    app.LeadsHandler,
		UploadsHandler:  app.UploadsHandler,
		HTTPLimiter:     middleware.NewRateLimiter(nil),
		HTTPLimit:       middleware.RateLimitRule{Rate: 10, Burst: 30},
	})
	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildSink(ctx context.Context, cfg config.Config) (events.Sink, error) {
	switch cfg.EventSink {
	case "sqs":
		if strings.TrimSpace(cfg.SQSQueueURL) == "" {
			return nil, fmt.Errorf("EVENT_SINK=sqs requires EVENTS_SQS_QUEUE_URL")
		}
		return events.NewSQSSink(ctx, cfg.AWSRegion, cfg.SQSQueueURL)
	default:
		return events.LogSink{}, nil
	}
}

func buildServices(app *App) error {
	cfg := app.Config

	if app.DB != nil {
		app.AnalysisRepo = &analysis.PGRepo{DB: app.DB}
	} else {
		app.AnalysisRepo = analysis.NewMemoryRepo()
	}

	adapters, err := buildAdapters(cfg)
	if err != nil {
		return err
	}

	limiter := analysis.NewRateLimiter(cfg.RateLimit, cfg.RateLimitWindow, nil)
	executor := analysis.NewRetryExecutor(cfg.MaxRetries, cfg.RetryBaseDelay)
	coordinator := analysis.NewCoordinator(adapters, limiter, executor, app.Sink, cfg.RequestDeadline)
	queue := analysis.NewOfflineQueue(3, app.Sink)

	app.AnalysisService = analysis.NewService(
		app.AnalysisRepo, app.Store, coordinator, queue, app.Sink,
		cfg.Providers, cfg.ProviderPriority, cfg.RequestDeadline,
	)
	app.AnalysisHandler = analysis.NewHandler(app.AnalysisService)
	app.PricingHandler = pricing.NewHandler(app.AnalysisService)

	var leadsRepo leads.Repo
	if app.DB != nil {
		leadsRepo = &leads.PGRepo{DB: app.DB}
	} else {
		leadsRepo = leads.NewMemoryRepo()
	}
	app.LeadsService = leads.NewService(leadsRepo)
	app.LeadsHandler = leads.NewHandler(app.LeadsService)

	app.UploadsHandler = uploads.NewHandler(app.Store)
	if err := app.UploadsHandler.ConfigurePresignFromEnv(context.Background()); err != nil {
		log.Printf("bootstrap: presigned uploads disabled: %v", err)
	}
	return nil
}

// buildAdapters constructs every configured provider adapter over one shared
// transport. A provider without credentials is skipped, not fatal: the fan-out
// degrades to the providers that can actually be called.
func buildAdapters(cfg config.Config) ([]provider.Adapter, error) {
	creds := secrets.NewCached(secrets.EnvStore{})
	env := secrets.EnvStore{}

	endpoints := make(map[string]provider.Endpoint, len(cfg.Providers))
	var adapters []provider.Adapter

	for _, name := range cfg.Providers {
		switch name {
		case openaivision.ProviderName:
			key, err := creds.Get("OPENAI_API_KEY")
			if err != nil {
				log.Printf("bootstrap: provider %s disabled: %v", name, err)
				continue
			}
			url, _ := env.Get("OPENAI_API_URL")
			if url == "" {
				url = openAIDefaultURL
			}
			endpoints[name] = provider.Endpoint{
				URL:     url,
				Headers: map[string]string{"Authorization": "Bearer " + key},
			}
		case claudevision.ProviderName:
			key, err := creds.Get("ANTHROPIC_API_KEY")
			if err != nil {
				log.Printf("bootstrap: provider %s disabled: %v", name, err)
				continue
			}
			url, _ := env.Get("CLAUDE_API_URL")
			if url == "" {
				url = claudeDefaultURL
			}
			endpoints[name] = provider.Endpoint{
				URL: url,
				Headers: map[string]string{
					"x-api-key":         key,
					"anthropic-version": "2023-06-01",
				},
			}
		case vislabel.ProviderName:
			key, err := creds.Get("VISION_API_KEY")
			if err != nil {
				log.Printf("bootstrap: provider %s disabled: %v", name, err)
				continue
			}
			url, _ := env.Get("VISION_API_URL")
			if url == "" {
				url = vislabelDefaultURL
			}
			endpoints[name] = provider.Endpoint{URL: url + "?key=" + key}
		default:
			return nil, fmt.Errorf("unknown provider %q", name)
		}
	}

	transport := provider.NewHTTPTransport(endpoints)
	for name := range endpoints {
		switch name {
		case openaivision.ProviderName:
			adapters = append(adapters, openaivision.New(transport, getModel("OPENAI_VISION_MODEL", "gpt-4o-mini"), cfg.ProviderTimeout))
		case claudevision.ProviderName:
			adapters = append(adapters, claudevision.New(transport, getModel("CLAUDE_VISION_MODEL", "claude-3-5-sonnet-20241022"), cfg.ProviderTimeout))
		case vislabel.ProviderName:
			adapters = append(adapters, vislabel.New(transport, cfg.ProviderTimeout))
		}
	}
	return adapters, nil
}

func getModel(envVar, def string) string {
	if v, err := (secrets.EnvStore{}).Get(envVar); err == nil {
		return v
	}
	return def
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
