// Package progression keeps the bonus accrual bookkeeping for players:
// games left until the next bonus play, banked bonus plays, and whether the
// free daily play has been used in the reference timezone.
package progression

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"prize-door-game/internal/model"
	"prize-door-game/internal/pkg/clock"
)

// Errors for progression operations.
var (
	// ErrNotFound is returned by a Store when the player has no record.
	ErrNotFound = errors.New("progression not found")

	// ErrPersistence wraps any failure of the backing store.
	ErrPersistence = errors.New("progression persistence failed")
)

// Store persists progression records.
type Store interface {
	// Get returns the stored record or ErrNotFound.
	Get(ctx context.Context, userID string) (*model.Progression, error)
	// Save writes the full record, replacing any previous one.
	Save(ctx context.Context, p *model.Progression) error
}

// Config holds ledger settings.
type Config struct {
	// BonusResetValue is the starting countdown and the value restored when a
	// bonus play is consumed.
	BonusResetValue int
}

// Ledger applies the accrual rules on top of a Store.
type Ledger struct {
	store      Store
	clock      clock.Clock
	resetValue int
}

// NewLedger creates a Ledger. A nil cfg or a non-positive reset value uses
// model.DefaultGamesUntilBonus.
func NewLedger(store Store, c clock.Clock, cfg *Config) *Ledger {
	resetValue := model.DefaultGamesUntilBonus
	if cfg != nil && cfg.BonusResetValue > 0 {
		resetValue = cfg.BonusResetValue
	}
	return &Ledger{
		store:      store,
		clock:      c,
		resetValue: resetValue,
	}
}

// Load returns the player's progression. A player without a stored record gets
// the defaults, which are not written until the first recorded game.
func (l *Ledger) Load(ctx context.Context, userID string) (*model.Progression, error) {
	p, err := l.get(ctx, userID)
	if err != nil {
		return nil, err
	}
	p.HasPlayedToday = p.LastPlayDate != "" && p.LastPlayDate == l.clock.Today()
	return p, nil
}

func (l *Ledger) get(ctx context.Context, userID string) (*model.Progression, error) {
	p, err := l.store.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return model.NewProgression(userID, l.resetValue), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %w", ErrPersistence, userID, err)
	}
	return p, nil
}

// RecordGamePlayed applies one finished game to the player's counters and
// persists the result. Nothing is returned if the write fails.
//
// A bonus game consumes a banked play and restarts the countdown. A regular
// game counts down, banking a bonus play whenever the countdown ends at 0.
// The countdown is not restarted when a bonus is earned, so every regular game
// played at 0 banks another one.
func (l *Ledger) RecordGamePlayed(ctx context.Context, userID string, usedBonus bool) (*model.Progression, error) {
	current, err := l.get(ctx, userID)
	if err != nil {
		return nil, err
	}

	next := Apply(current, usedBonus, l.resetValue)
	next.LastPlayDate = l.clock.Today()

	if err := l.store.Save(ctx, next); err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Bool("used_bonus", usedBonus).
			Msg("Failed to persist progression")
		return nil, fmt.Errorf("%w: save %s: %w", ErrPersistence, userID, err)
	}

	next.HasPlayedToday = true
	return next, nil
}

// Apply returns the counters after one game. The input is not modified.
func Apply(p *model.Progression, usedBonus bool, resetValue int) *model.Progression {
	next := p.Clone()

	if usedBonus {
		next.BonusPlaysAvailable = max(0, next.BonusPlaysAvailable-1)
		next.GamesUntilBonus = resetValue
		return next
	}

	next.GamesUntilBonus = max(0, next.GamesUntilBonus-1)
	if next.GamesUntilBonus == 0 {
		next.BonusPlaysAvailable++
	}
	return next
}
