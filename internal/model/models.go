// Package model defines the persisted records of the door game.
package model

import (
	"time"

	"github.com/google/uuid"
)

// DefaultGamesUntilBonus is the countdown a new player starts with and the
// value it resets to when a bonus play is consumed.
const DefaultGamesUntilBonus = 5

// Progression is a player's bonus accrual record.
// HasPlayedToday is derived from LastPlayDate at read time and never stored.
type Progression struct {
	UserID              string    `json:"user_id" db:"user_id"`
	GamesUntilBonus     int       `json:"games_until_bonus" db:"games_until_bonus"`
	BonusPlaysAvailable int       `json:"bonus_plays_available" db:"bonus_plays_available"`
	LastPlayDate        string    `json:"last_play_date,omitempty" db:"last_play_date"` // YYYY-MM-DD in the reference zone, empty if never played
	HasPlayedToday      bool      `json:"-" db:"-"`
	UpdatedAt           time.Time `json:"updated_at" db:"updated_at"`
}

// NewProgression returns the defaults for a player with no stored record.
func NewProgression(userID string, gamesUntilBonus int) *Progression {
	return &Progression{
		UserID:          userID,
		GamesUntilBonus: gamesUntilBonus,
	}
}

// Clone returns a copy that can be mutated independently.
func (p *Progression) Clone() *Progression {
	c := *p
	return &c
}

// RoundRecord is the history entry written when a round resolves.
type RoundRecord struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	Mode        string    `json:"mode" db:"mode"`
	DoorCount   int       `json:"door_count" db:"door_count"`
	RevealCount int       `json:"reveal_count" db:"reveal_count"`
	InitialPick int       `json:"initial_pick" db:"initial_pick"`
	FinalPick   int       `json:"final_pick" db:"final_pick"`
	PrizeDoor   int       `json:"prize_door" db:"prize_door"`
	Switched    bool      `json:"switched" db:"switched"`
	Won         bool      `json:"won" db:"won"`
	UsedBonus   bool      `json:"used_bonus" db:"used_bonus"`
	PlayDate    string    `json:"play_date" db:"play_date"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// StrategyStats aggregates resolved rounds by whether the player switched.
type StrategyStats struct {
	Switched bool `json:"switched" db:"switched"`
	Played   int  `json:"played" db:"played"`
	Won      int  `json:"won" db:"won"`
}

// WinRate returns the share of won rounds, or 0 when none were played.
func (s StrategyStats) WinRate() float64 {
	if s.Played == 0 {
		return 0
	}
	return float64(s.Won) / float64(s.Played)
}
