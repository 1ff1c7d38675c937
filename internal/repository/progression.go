// Package repository provides the storage backends for progression records
// and round history: PostgreSQL (pgx), Redis and embedded SQLite.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"prize-door-game/internal/model"
	"prize-door-game/internal/progression"
)

// ProgressionRepository stores progression records in PostgreSQL.
type ProgressionRepository struct {
	pool *pgxpool.Pool
}

// NewProgressionRepository creates a new ProgressionRepository instance.
func NewProgressionRepository(pool *pgxpool.Pool) *ProgressionRepository {
	return &ProgressionRepository{pool: pool}
}

// Get retrieves a player's progression.
// Returns progression.ErrNotFound if the player has no record.
func (r *ProgressionRepository) Get(ctx context.Context, userID string) (*model.Progression, error) {
	const query = `
		SELECT user_id, games_until_bonus, bonus_plays_available, COALESCE(last_play_date, ''), updated_at
		FROM progression
		WHERE user_id = $1
	`

	var p model.Progression
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&p.UserID,
		&p.GamesUntilBonus,
		&p.BonusPlaysAvailable,
		&p.LastPlayDate,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, progression.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get progression: %w", err)
	}

	return &p, nil
}

// Save inserts or replaces a player's progression in one statement.
func (r *ProgressionRepository) Save(ctx context.Context, p *model.Progression) error {
	const query = `
		INSERT INTO progression (user_id, games_until_bonus, bonus_plays_available, last_play_date, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET games_until_bonus = EXCLUDED.games_until_bonus,
			bonus_plays_available = EXCLUDED.bonus_plays_available,
			last_play_date = EXCLUDED.last_play_date,
			updated_at = EXCLUDED.updated_at
		RETURNING updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		p.UserID,
		p.GamesUntilBonus,
		p.BonusPlaysAvailable,
		p.LastPlayDate,
	).Scan(&p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save progression: %w", err)
	}

	return nil
}
