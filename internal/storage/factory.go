package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/IshaanNene/HoaxWatch/internal/config"
)

// New creates the backend selected by cfg.Type.
func New(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Type {
	case "memory", "":
		return NewMemoryStore(logger), nil
	case "postgres":
		return NewPostgresStore(ctx, cfg.Postgres, logger)
	case "mongo":
		return NewMongoStore(ctx, cfg.Mongo, logger)
	default:
		return nil, fmt.Errorf("unsupported storage type: %q", cfg.Type)
	}
}
