package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"prize-door-game/internal/config"
	"prize-door-game/internal/pkg/db"
	"prize-door-game/internal/progression"
	"prize-door-game/internal/repository"
	"prize-door-game/internal/service"
)

// backend is the opened storage for progression and round history.
type backend struct {
	store   progression.Store
	history service.History
	close   func()
}

// Close releases the backend's connections.
func (b *backend) Close() {
	if b.close != nil {
		b.close()
	}
}

// openBackend connects to the configured storage and makes sure its schema
// exists.
func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		pool, err := db.NewPool(ctx, &cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := repository.Migrate(ctx, pool.Pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to run database migrations: %w", err)
		}
		return &backend{
			store:   repository.NewProgressionRepository(pool.Pool),
			history: repository.NewRoundRepository(pool.Pool),
			close:   pool.Close,
		}, nil

	case config.BackendRedis:
		client, err := db.NewRedis(ctx, &cfg.Redis)
		if err != nil {
			return nil, err
		}
		store := repository.NewRedisStore(client, repository.RedisStoreConfig{
			KeyPrefix:    cfg.Redis.KeyPrefix,
			TTL:          cfg.Redis.TTL,
			HistoryLimit: cfg.Redis.HistoryLimit,
		})
		return &backend{
			store:   store,
			history: store,
			close: func() {
				if err := client.Close(); err != nil {
					log.Warn().Err(err).Msg("Failed to close Redis client")
				}
			},
		}, nil

	case config.BackendSQLite:
		store, err := repository.OpenSQLite(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", cfg.SQLite.Path).Msg("SQLite database opened")
		return &backend{
			store:   store,
			history: store,
			close: func() {
				if err := store.Close(); err != nil {
					log.Warn().Err(err).Msg("Failed to close SQLite database")
				}
			},
		}, nil
	}

	return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}
