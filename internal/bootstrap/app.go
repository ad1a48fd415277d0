package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"filing-analyzer/internal/analysis"
	"filing-analyzer/internal/docstore"
	"filing-analyzer/internal/docstore/gdrive"
	s3store "filing-analyzer/internal/docstore/s3"
	"filing-analyzer/internal/extract"
	"filing-analyzer/internal/llm"
	einollm "filing-analyzer/internal/llm/eino"
	openaillm "filing-analyzer/internal/llm/openai"
	"filing-analyzer/internal/pipeline"
	"filing-analyzer/internal/runs"
	"filing-analyzer/internal/search/factory"
	"filing-analyzer/internal/shared/config"
	"filing-analyzer/internal/shared/server"
	"filing-analyzer/internal/shared/telemetry"
	"filing-analyzer/internal/webfetch"
)

const defaultAWSRegion = "us-east-1"

// App holds the wired collaborators of the API process.
type App struct {
	Config      config.Config
	Router      *gin.Engine
	Completer   llm.Completer
	Store       *docstore.Store
	Pipeline    *pipeline.Pipeline
	RunsHandler *runs.Handler
}

// Build wires every collaborator from cfg. A disabled document store is
// not an error; a configured backend that cannot start is.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	completer, err := buildCompleter(ctx, cfg)
	if err != nil {
		return nil, err
	}
	searcher, err := factory.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	fetcher := webfetch.New(webfetch.Options{
		Timeout:             time.Duration(cfg.FetchTimeoutSeconds) * time.Second,
		ReadabilityFallback: cfg.FetchReadabilityFallback,
	})
	p := pipeline.New(pipeline.Deps{
		Reader:   extract.Reader{},
		Analyzer: analysis.NewClient(completer),
		Searcher: searcher,
		Fetcher:  fetcher,
		Store:    store,
	})
	handler := runs.NewHandler(p, store)

	app := &App{
		Config:      cfg,
		Completer:   completer,
		Store:       store,
		Pipeline:    p,
		RunsHandler: handler,
	}
	app.Router = server.NewRouter(server.RouterDeps{Config: cfg, RunsHandler: handler})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":             cfg.Env,
		"llm_provider":    cfg.LLMProvider,
		"llm_model":       cfg.LLMModel,
		"search_provider": cfg.SearchProvider,
		"docstore":        store.Name(),
		"docstore_ready":  store.Enabled(),
	})
	return app, nil
}

// Run serves the router on the configured port.
func (a *App) Run() error {
	return a.Router.Run(server.Addr(a.Config.Port))
}

func buildCompleter(ctx context.Context, cfg config.Config) (llm.Completer, error) {
	timeout := time.Duration(cfg.LLMTimeoutSeconds) * time.Second
	switch cfg.LLMProvider {
	case "eino":
		c, err := einollm.NewClient(ctx, einollm.Options{
			APIKey:  cfg.LLMAPIKey,
			BaseURL: cfg.LLMBaseURL,
			Model:   cfg.LLMModel,
			Timeout: timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("llm: %w", err)
		}
		return c, nil
	case "", "openai":
		c, err := openaillm.NewClient(openaillm.Options{
			APIKey:  cfg.LLMAPIKey,
			BaseURL: cfg.LLMBaseURL,
			Model:   cfg.LLMModel,
			Timeout: timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("llm: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.LLMProvider)
	}
}

func buildStore(ctx context.Context, cfg config.Config) (*docstore.Store, error) {
	switch cfg.DocstoreBackend {
	case "s3":
		if strings.TrimSpace(cfg.DocstoreS3Bucket) == "" {
			telemetry.Warn("bootstrap.docstore_disabled", map[string]any{"backend": "s3", "reason": "DOCSTORE_S3_BUCKET empty"})
			return docstore.Disabled(), nil
		}
		region := cfg.AWSRegion
		if strings.TrimSpace(region) == "" {
			region = defaultAWSRegion
		}
		backend, err := s3store.New(ctx, region, cfg.DocstoreS3Bucket, cfg.DocstoreS3Prefix, cfg.DocstoreS3Endpoint)
		if err != nil {
			return nil, fmt.Errorf("docstore s3: %w", err)
		}
		return docstore.New(backend, "s3"), nil
	default:
		if strings.TrimSpace(cfg.GoogleCredentialsFile) == "" {
			telemetry.Warn("bootstrap.docstore_disabled", map[string]any{"backend": "google", "reason": "GOOGLE_CREDENTIALS_FILE empty"})
			return docstore.Disabled(), nil
		}
		backend, err := gdrive.New(ctx, cfg.GoogleCredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("docstore google: %w", err)
		}
		return docstore.New(backend, "google"), nil
	}
}
