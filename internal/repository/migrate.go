package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// postgresMigrations are applied in order. Each statement is idempotent.
var postgresMigrations = []struct {
	name string
	sql  string
}{
	{
		name: "progression table",
		sql: `
			CREATE TABLE IF NOT EXISTS progression (
				user_id TEXT PRIMARY KEY,
				games_until_bonus INT NOT NULL DEFAULT 5 CHECK (games_until_bonus >= 0),
				bonus_plays_available INT NOT NULL DEFAULT 0 CHECK (bonus_plays_available >= 0),
				last_play_date TEXT,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
		`,
	},
	{
		name: "rounds table",
		sql: `
			CREATE TABLE IF NOT EXISTS rounds (
				id UUID PRIMARY KEY,
				user_id TEXT NOT NULL,
				mode VARCHAR(50) NOT NULL,
				door_count INT NOT NULL,
				reveal_count INT NOT NULL,
				initial_pick INT NOT NULL,
				final_pick INT NOT NULL,
				prize_door INT NOT NULL,
				switched BOOLEAN NOT NULL,
				won BOOLEAN NOT NULL,
				used_bonus BOOLEAN NOT NULL,
				play_date TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_rounds_user_time ON rounds(user_id, created_at DESC);
		`,
	},
}

// Migrate applies the PostgreSQL schema.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	log.Info().Msg("Running database migrations...")

	for i, m := range postgresMigrations {
		if _, err := pool.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("migration %d (%s): %w", i+1, m.name, err)
		}
		log.Info().Int("migration", i+1).Str("name", m.name).Msg("Migration applied")
	}

	log.Info().Msg("All migrations completed successfully")
	return nil
}
