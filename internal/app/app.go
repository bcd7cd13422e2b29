// internal/app/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"commit-miner/internal/api"
	"commit-miner/internal/config"
	"commit-miner/internal/discovery"
	"commit-miner/internal/export"
	"commit-miner/internal/github"
	"commit-miner/internal/miner"
	"commit-miner/internal/pipeline"
	"commit-miner/internal/store"
)

// App holds the components shared by the service and the one-shot command.
type App struct {
	Driver *pipeline.Driver

	dbpool *pgxpool.Pool
	logger *slog.Logger
}

// New wires the pipeline for cfg, cloning over authenticated HTTPS.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	return NewWithCloner(ctx, cfg, miner.BareCloner{Token: cfg.GithubToken}, logger)
}

// NewWithCloner wires the pipeline with a custom cloner. When cfg.DBURL is set
// the schema is migrated and runs are also stored in Postgres.
func NewWithCloner(ctx context.Context, cfg *config.Config, cloner miner.Cloner, logger *slog.Logger) (*App, error) {
	ghClient, err := github.NewClient(cfg.GithubToken, cfg.GithubAPIURL, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create github client: %w", err)
	}

	a := &App{logger: logger}
	sinks := export.Multi{export.NewXLSXSink(cfg.OutputPath, logger)}

	if cfg.DBURL != "" {
		if err := store.Migrate(cfg.DBURL); err != nil {
			return nil, fmt.Errorf("failed to run database migrations: %w", err)
		}
		logger.Info("Database migrations applied successfully")

		dbpool, err := pgxpool.New(ctx, cfg.DBURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		logger.Info("Database connection established")
		a.dbpool = dbpool
		sinks = append(sinks, store.NewSink(dbpool, logger))
	}

	a.Driver = pipeline.NewDriver(
		discovery.NewDiscoverer(ghClient, ghClient, logger),
		miner.NewMiner(cloner, cfg.WorkDir, cfg.CleanupAfterMine, logger),
		sinks,
		logger,
	)
	return a, nil
}

// RunStore returns the persisted-run reader, or nil when no database is configured.
func (a *App) RunStore() api.RunStore {
	if a.dbpool == nil {
		return nil
	}
	return store.New(a.dbpool)
}

func (a *App) Close() {
	if a.dbpool != nil {
		a.dbpool.Close()
	}
}

// SetLogLevel maps a LOG_LEVEL value onto v.
func SetLogLevel(level string, v *slog.LevelVar) {
	switch level {
	case "debug":
		v.Set(slog.LevelDebug)
	case "warn":
		v.Set(slog.LevelWarn)
	case "error":
		v.Set(slog.LevelError)
	default:
		v.Set(slog.LevelInfo)
	}
}
