// Package app wires configuration into adapters and the pipeline.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"

	"articleforge/internal/config"
	"articleforge/internal/infrastructure/crawl"
	"articleforge/internal/infrastructure/extract"
	"articleforge/internal/infrastructure/llm"
	"articleforge/internal/infrastructure/storage"
	"articleforge/internal/logging"
	"articleforge/internal/ports"
	"articleforge/internal/usecase"
)

// Application holds the wired components behind the CLI commands.
type Application struct {
	cfg      config.Config
	db       *sqlx.DB
	Pipeline *usecase.Pipeline

	Sites     ports.SiteRepository
	Articles  ports.ArticleRepository
	UsageLogs ports.UsageLogRepository
}

// New connects storage, builds all adapters and assembles the pipeline.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	db, err := storage.Open(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := storage.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	sites := storage.NewSiteRepo(db)
	articles := storage.NewArticleRepo(db)
	usageLogs := storage.NewUsageLogRepo(db)
	referenceURLs := storage.NewReferenceURLRepo(db)

	fetchClient := &http.Client{Timeout: cfg.Crawler.FetchTimeout}
	crawler := crawl.New(fetchClient, cfg.Crawler, baseLogger.With("component", "crawler"))
	fetcher := extract.NewFetcher(fetchClient, cfg.Crawler.FetchTimeout, cfg.Crawler.UserAgent)

	gateway := llm.NewDefaultGateway(cfg.Providers)

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Crawler:       crawler,
		Fetcher:       fetcher,
		Generator:     gateway,
		Sites:         sites,
		Articles:      articles,
		UsageLogs:     usageLogs,
		ReferenceURLs: referenceURLs,
		Generation:    cfg.Generation,
		Logger:        baseLogger.With("component", "pipeline"),
	})

	return &Application{
		cfg:       cfg,
		db:        db,
		Pipeline:  pipeline,
		Sites:     sites,
		Articles:  articles,
		UsageLogs: usageLogs,
	}, nil
}

// Close releases the database connection.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
