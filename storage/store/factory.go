package store

import (
	"context"
	"fmt"
	"log"

	"roadmon/config"
)

// New creates a Store based on the configured backend.
func New(ctx context.Context, cfg *config.ServerConfig, logger *log.Logger) (Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendFile, "":
		// Default to the flat-file backend if not specified
		return NewFileStore(cfg.Storage.DataFile, cfg.Storage.RetentionCap, logger)
	case config.BackendPostgres:
		return NewPostgresStore(ctx, cfg.Database.DSN,
			cfg.Database.MinConnections, cfg.Database.MaxConnections,
			cfg.Storage.RetentionCap, logger)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Storage.Backend)
	}
}
