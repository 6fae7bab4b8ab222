package main

import (
	"context"
	"fmt"
	"time"

	"github.com/countrycache/countrycache/internal/config"
	"github.com/countrycache/countrycache/internal/country/repository"
	"github.com/countrycache/countrycache/internal/database"
	"github.com/countrycache/countrycache/pkg/logger"
)

type store struct {
	repo  repository.Repository
	close func()
}

// openStore builds the repository selected by STORE_DRIVER. The handle is shared by
// every request for the life of the process.
func openStore(ctx context.Context, cfg *config.Config) (*store, error) {
	switch cfg.Store.Driver {
	case config.DriverMemory:
		logger.Warnf("using in-memory store; data is lost on restart")
		return &store{repo: repository.NewMemoryRepo(), close: func() {}}, nil

	case config.DriverMongo:
		var st *store
		err := withRetry(ctx, "MongoDB", func() error {
			client, err := database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
			if err != nil {
				return err
			}
			col := client.Database(cfg.MongoDB.Database).Collection(cfg.MongoDB.Collection)
			repo, err := repository.NewMongoRepo(ctx, col)
			if err != nil {
				_ = client.Disconnect(context.Background())
				return err
			}
			st = &store{repo: repo, close: func() { _ = client.Disconnect(context.Background()) }}
			return nil
		})
		return st, err

	case config.DriverPostgres:
		if cfg.Postgres.AutoMigrate {
			err := withRetry(ctx, "Postgres migrations", func() error {
				return database.Migrate(cfg.Postgres.DSN, "up")
			})
			if err != nil {
				return nil, err
			}
		}
		var st *store
		err := withRetry(ctx, "Postgres", func() error {
			db, err := database.ConnectPostgres(ctx, cfg.Postgres.DSN, cfg.Postgres.ConnectTimeout, database.PoolOptions{
				MaxOpenConns:    cfg.Postgres.MaxOpenConns,
				MaxIdleConns:    cfg.Postgres.MaxIdleConns,
				ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
			})
			if err != nil {
				return err
			}
			st = &store{repo: repository.NewPostgresRepo(db), close: func() { _ = db.Close() }}
			return nil
		})
		return st, err
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

// withRetry retries fn with doubling backoff to tolerate startup races.
func withRetry(ctx context.Context, what string, fn func() error) error {
	const maxAttempts = 5
	backoff := time.Second
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		logger.Warnf("attempt %d/%d: failed to connect to %s: %v", attempt, maxAttempts, what, err)
		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return fmt.Errorf("could not connect to %s after %d attempts: %w", what, maxAttempts, err)
}
