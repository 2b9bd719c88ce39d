package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rickgao/betfair-logger/internal/config"
	"github.com/rickgao/betfair-logger/internal/database"
)

// Open creates the store selected by cfg.Driver. For postgres the schema is
// bootstrapped when cfg.Migrate is set.
func Open(ctx context.Context, cfg config.DBConfig, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Driver {
	case config.DriverMemory:
		logger.Warn("using in-memory store, snapshots will not survive restart")
		return NewMemory(), nil

	case config.DriverPostgres, "":
		pool, err := database.Connect(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect %s: %w", database.Redacted(cfg), err)
		}
		if cfg.Migrate {
			if err := database.EnsureSchema(ctx, pool); err != nil {
				pool.Close()
				return nil, err
			}
		}
		logger.Info("connected to database", "host", cfg.Host, "name", cfg.Name)
		return NewPostgres(pool, logger), nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
