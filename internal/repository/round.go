package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"prize-door-game/internal/model"
)

// RoundRepository stores the history of resolved rounds in PostgreSQL.
type RoundRepository struct {
	pool *pgxpool.Pool
}

// NewRoundRepository creates a new RoundRepository instance.
func NewRoundRepository(pool *pgxpool.Pool) *RoundRepository {
	return &RoundRepository{pool: pool}
}

// CreateRound inserts a round record. A nil ID is replaced with a new UUID.
func (r *RoundRepository) CreateRound(ctx context.Context, rec *model.RoundRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	const query = `
		INSERT INTO rounds (id, user_id, mode, door_count, reveal_count, initial_pick, final_pick,
			prize_door, switched, won, used_bonus, play_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
		RETURNING created_at
	`

	err := r.pool.QueryRow(ctx, query,
		rec.ID,
		rec.UserID,
		rec.Mode,
		rec.DoorCount,
		rec.RevealCount,
		rec.InitialPick,
		rec.FinalPick,
		rec.PrizeDoor,
		rec.Switched,
		rec.Won,
		rec.UsedBonus,
		rec.PlayDate,
	).Scan(&rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create round: %w", err)
	}

	return nil
}

// GetRounds retrieves a player's rounds, newest first.
func (r *RoundRepository) GetRounds(ctx context.Context, userID string, limit int) ([]*model.RoundRecord, error) {
	const query = `
		SELECT id, user_id, mode, door_count, reveal_count, initial_pick, final_pick,
			prize_door, switched, won, used_bonus, play_date, created_at
		FROM rounds
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get rounds: %w", err)
	}
	defer rows.Close()

	var rounds []*model.RoundRecord
	for rows.Next() {
		var rec model.RoundRecord
		err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.Mode,
			&rec.DoorCount,
			&rec.RevealCount,
			&rec.InitialPick,
			&rec.FinalPick,
			&rec.PrizeDoor,
			&rec.Switched,
			&rec.Won,
			&rec.UsedBonus,
			&rec.PlayDate,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan round: %w", err)
		}
		rounds = append(rounds, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rounds: %w", err)
	}

	return rounds, nil
}

// GetStrategyStats aggregates a player's rounds by whether they switched.
func (r *RoundRepository) GetStrategyStats(ctx context.Context, userID string) ([]model.StrategyStats, error) {
	const query = `
		SELECT switched, COUNT(*), COUNT(*) FILTER (WHERE won)
		FROM rounds
		WHERE user_id = $1
		GROUP BY switched
		ORDER BY switched
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get strategy stats: %w", err)
	}
	defer rows.Close()

	var stats []model.StrategyStats
	for rows.Next() {
		var s model.StrategyStats
		if err := rows.Scan(&s.Switched, &s.Played, &s.Won); err != nil {
			return nil, fmt.Errorf("failed to scan strategy stats: %w", err)
		}
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating strategy stats: %w", err)
	}

	return stats, nil
}
