package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/IshaanNene/HoaxWatch/internal/config"
	"github.com/IshaanNene/HoaxWatch/internal/engine"
	"github.com/IshaanNene/HoaxWatch/internal/fetcher"
	"github.com/IshaanNene/HoaxWatch/internal/observability"
	"github.com/IshaanNene/HoaxWatch/internal/sources"
	"github.com/IshaanNene/HoaxWatch/internal/storage"
)

// app bundles the long-lived components every command builds the same way.
type app struct {
	cfg     *config.Config
	client  *fetcher.HTTPClient
	store   storage.Store
	metrics *observability.Metrics
	manager *engine.Manager
	logger  *slog.Logger
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	store, err := storage.New(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	client := fetcher.NewHTTPClient(&cfg.Fetcher, logger)
	registry := sources.NewDefaultRegistry(cfg, client, logger)
	metrics := observability.NewMetrics(logger)
	manager := engine.New(registry, store, logger,
		engine.WithDefaultInterval(cfg.Scraper.DefaultInterval),
		engine.WithMetrics(metrics),
	)

	return &app{
		cfg:     cfg,
		client:  client,
		store:   store,
		metrics: metrics,
		manager: manager,
		logger:  logger,
	}, nil
}

// close stops the workers and releases the store and HTTP client.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Scraper.ShutdownTimeout)
	defer cancel()
	if err := a.manager.Shutdown(ctx); err != nil {
		a.logger.Warn("manager shutdown incomplete", "error", err)
	}
	if err := a.store.Close(); err != nil {
		a.logger.Error("storage close error", "error", err)
	}
	if err := a.client.Close(); err != nil {
		a.logger.Error("http client close error", "error", err)
	}
}
