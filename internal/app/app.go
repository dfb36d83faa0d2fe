// Package app assembles the retrieval engine from configuration. It is shared
// by the HTTP server and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/producelens/backend/config"
	"github.com/producelens/backend/internal/domain"
	"github.com/producelens/backend/internal/infrastructure/cache"
	"github.com/producelens/backend/internal/infrastructure/catalog"
	"github.com/producelens/backend/internal/infrastructure/memory"
	"github.com/producelens/backend/internal/infrastructure/reference"
	"github.com/producelens/backend/internal/observability"
	"github.com/producelens/backend/internal/usecase"
)

// App holds the wired services and the resources they own.
type App struct {
	Retrieval *usecase.RetrievalService
	Memory    *usecase.MemoryService
	Scheduler *usecase.ReloadScheduler

	closers []func() error
}

// New builds every component named by cfg and loads the first snapshot.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	a := &App{}

	catalogProvider, err := a.openCatalog(ctx, cfg.Data, observability.Component(logger, "catalog"))
	if err != nil {
		return nil, a.fail(err)
	}

	loader := usecase.NewSnapshotLoader(
		catalogProvider,
		reference.NewFactsFile(cfg.Data.CropsFile),
		reference.NewFAQFile(cfg.Data.FAQFile),
		observability.Component(logger, "loader"),
	)

	store, err := a.openMemoryStore(ctx, cfg.Memory)
	if err != nil {
		return nil, a.fail(err)
	}
	a.Memory = usecase.NewMemoryService(store, usecase.MemoryServiceConfig{
		HistoryLimit: cfg.Memory.HistoryLimit,
		SummaryLimit: cfg.Memory.SummaryLimit,
	}, observability.Component(logger, "memory"))

	resultCache, err := a.openCache(ctx, cfg.Cache)
	if err != nil {
		return nil, a.fail(err)
	}

	a.Retrieval, err = usecase.NewRetrievalService(ctx, loader, a.Memory, resultCache, usecase.RetrievalServiceConfig{
		DefaultRegion: cfg.Retrieval.DefaultRegion,
		DefaultUserID: cfg.Retrieval.DefaultUser,
		EvidenceTopK:  cfg.Retrieval.EvidenceTopK,
		MaxResults:    cfg.Retrieval.MaxResults,
		CacheTTL:      cfg.Cache.TTL,
	}, observability.Component(logger, "retrieval"))
	if err != nil {
		return nil, a.fail(err)
	}

	if cfg.Data.ReloadSchedule != "" {
		a.Scheduler, err = usecase.NewReloadScheduler(cfg.Data.ReloadSchedule, a.Retrieval, observability.Component(logger, "scheduler"))
		if err != nil {
			return nil, a.fail(err)
		}
	}

	return a, nil
}

// Close releases databases, caches and connections in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) fail(err error) error {
	_ = a.Close()
	return err
}

// openCatalog returns the configured catalog provider. A SQLite database that is
// missing or has no products table falls back to the CSV file.
func (a *App) openCatalog(ctx context.Context, cfg config.DataConfig, logger zerolog.Logger) (domain.CatalogProvider, error) {
	switch cfg.CatalogSource {
	case catalog.DriverSQLite:
		if _, err := os.Stat(cfg.DatabaseDSN); err != nil {
			logger.Warn().Str("dsn", cfg.DatabaseDSN).Str("fallback", cfg.ProductsFile).
				Msg("sqlite catalog not found, using CSV")
			return catalog.NewCSVProvider(cfg.ProductsFile), nil
		}
		provider, err := catalog.OpenSQLCatalog(ctx, catalog.DriverSQLite, cfg.DatabaseDSN)
		if catalog.IsMissingTable(err) {
			logger.Warn().Str("dsn", cfg.DatabaseDSN).Str("fallback", cfg.ProductsFile).
				Msg("sqlite catalog has no products table, using CSV")
			return catalog.NewCSVProvider(cfg.ProductsFile), nil
		}
		if err != nil {
			return nil, fmt.Errorf("open sqlite catalog: %w", err)
		}
		a.closers = append(a.closers, provider.Close)
		return provider, nil

	case catalog.DriverPostgres:
		provider, err := catalog.OpenSQLCatalog(ctx, catalog.DriverPostgres, cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres catalog: %w", err)
		}
		a.closers = append(a.closers, provider.Close)
		return provider, nil

	default:
		return catalog.NewCSVProvider(cfg.ProductsFile), nil
	}
}

func (a *App) openMemoryStore(ctx context.Context, cfg config.MemoryConfig) (domain.MemoryStore, error) {
	if cfg.Type == "redis" {
		store, err := memory.NewRedisStore(ctx, cfg.RedisURL, "")
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		return store, nil
	}
	store, err := memory.NewFileStore(cfg.Dir)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// openCache returns nil for cache type "none".
func (a *App) openCache(ctx context.Context, cfg config.CacheConfig) (domain.CacheRepository, error) {
	switch cfg.Type {
	case "redis":
		c, err := cache.NewRedisCache(ctx, cache.RedisConfig{URL: cfg.RedisURL})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, c.Close)
		return c, nil
	case "none":
		return nil, nil
	default:
		c := cache.NewMemoryCache(cfg.MaxEntries)
		a.closers = append(a.closers, c.Close)
		return c, nil
	}
}
