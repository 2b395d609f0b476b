package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"perfeval/internal/platform/config"
	"perfeval/internal/platform/docstore"
)

func Connect(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	return pgxpool.NewWithConfig(ctx, poolCfg)
}

// Open connects the document store selected by DOCSTORE_DRIVER and prepares
// its schema (migrations for postgres, indexes for mongo) when RUN_MIGRATIONS
// is set.
func Open(ctx context.Context, cfg config.Config) (docstore.Store, error) {
	switch cfg.DocstoreDriver {
	case config.DriverPostgres:
		pool, err := Connect(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if cfg.RunMigrations {
			if err := Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
				pool.Close()
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		return docstore.NewPostgres(pool), nil
	case config.DriverMongo:
		store, err := docstore.NewMongo(ctx, cfg.MongoURL, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		if cfg.RunMigrations {
			if err := store.EnsureIndexes(ctx); err != nil {
				_ = store.Close(ctx)
				return nil, fmt.Errorf("ensure indexes: %w", err)
			}
		}
		return store, nil
	case config.DriverMemory:
		slog.Warn("using in-memory document store; data is lost on restart")
		return docstore.NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown docstore driver %q", cfg.DocstoreDriver)
}
