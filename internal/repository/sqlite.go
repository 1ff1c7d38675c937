package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"prize-door-game/internal/model"
	"prize-door-game/internal/progression"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS progression (
	user_id TEXT PRIMARY KEY,
	games_until_bonus INTEGER NOT NULL DEFAULT 5 CHECK (games_until_bonus >= 0),
	bonus_plays_available INTEGER NOT NULL DEFAULT 0 CHECK (bonus_plays_available >= 0),
	last_play_date TEXT NOT NULL DEFAULT '',
	updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS rounds (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	mode TEXT NOT NULL,
	door_count INTEGER NOT NULL,
	reveal_count INTEGER NOT NULL,
	initial_pick INTEGER NOT NULL,
	final_pick INTEGER NOT NULL,
	prize_door INTEGER NOT NULL,
	switched INTEGER NOT NULL,
	won INTEGER NOT NULL,
	used_bonus INTEGER NOT NULL,
	play_date TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_rounds_user_time ON rounds(user_id, created_at DESC);
`

// SQLiteStore persists progression and round history in an embedded database.
type SQLiteStore struct {
	db *sql.DB
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

// OpenSQLite opens the database at path and applies the schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer keeps SQLite from returning SQLITE_BUSY under concurrent saves.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get retrieves a player's progression.
// Returns progression.ErrNotFound if the player has no record.
func (s *SQLiteStore) Get(ctx context.Context, userID string) (*model.Progression, error) {
	const query = `
		SELECT user_id, games_until_bonus, bonus_plays_available, last_play_date, updated_at
		FROM progression
		WHERE user_id = ?
	`

	var p model.Progression
	var updatedAt int64
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID,
		&p.GamesUntilBonus,
		&p.BonusPlaysAvailable,
		&p.LastPlayDate,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, progression.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get progression: %w", err)
	}
	p.UpdatedAt = fromMillis(updatedAt)
	return &p, nil
}

// Save inserts or replaces a player's progression.
func (s *SQLiteStore) Save(ctx context.Context, p *model.Progression) error {
	const query = `
		INSERT INTO progression (user_id, games_until_bonus, bonus_plays_available, last_play_date, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			games_until_bonus = excluded.games_until_bonus,
			bonus_plays_available = excluded.bonus_plays_available,
			last_play_date = excluded.last_play_date,
			updated_at = excluded.updated_at
	`

	now := time.Now()
	_, err := s.db.ExecContext(ctx, query,
		p.UserID,
		p.GamesUntilBonus,
		p.BonusPlaysAvailable,
		p.LastPlayDate,
		toMillis(now),
	)
	if err != nil {
		return fmt.Errorf("failed to save progression: %w", err)
	}
	p.UpdatedAt = fromMillis(toMillis(now))
	return nil
}

// CreateRound inserts a round record. A nil ID is replaced with a new UUID.
func (s *SQLiteStore) CreateRound(ctx context.Context, rec *model.RoundRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	rec.CreatedAt = fromMillis(toMillis(time.Now()))

	const query = `
		INSERT INTO rounds (id, user_id, mode, door_count, reveal_count, initial_pick, final_pick,
			prize_door, switched, won, used_bonus, play_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		rec.ID.String(),
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
		toMillis(rec.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create round: %w", err)
	}
	return nil
}

// GetRounds retrieves a player's rounds, newest first.
func (s *SQLiteStore) GetRounds(ctx context.Context, userID string, limit int) ([]*model.RoundRecord, error) {
	const query = `
		SELECT id, user_id, mode, door_count, reveal_count, initial_pick, final_pick,
			prize_door, switched, won, used_bonus, play_date, created_at
		FROM rounds
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get rounds: %w", err)
	}
	defer rows.Close()

	var rounds []*model.RoundRecord
	for rows.Next() {
		var rec model.RoundRecord
		var id string
		var createdAt int64
		err := rows.Scan(
			&id,
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
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan round: %w", err)
		}
		if rec.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("failed to parse round id %q: %w", id, err)
		}
		rec.CreatedAt = fromMillis(createdAt)
		rounds = append(rounds, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rounds: %w", err)
	}
	return rounds, nil
}

// GetStrategyStats aggregates a player's rounds by whether they switched.
func (s *SQLiteStore) GetStrategyStats(ctx context.Context, userID string) ([]model.StrategyStats, error) {
	const query = `
		SELECT switched, COUNT(*), SUM(won)
		FROM rounds
		WHERE user_id = ?
		GROUP BY switched
		ORDER BY switched
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get strategy stats: %w", err)
	}
	defer rows.Close()

	var stats []model.StrategyStats
	for rows.Next() {
		var st model.StrategyStats
		if err := rows.Scan(&st.Switched, &st.Played, &st.Won); err != nil {
			return nil, fmt.Errorf("failed to scan strategy stats: %w", err)
		}
		stats = append(stats, st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating strategy stats: %w", err)
	}
	return stats, nil
}
