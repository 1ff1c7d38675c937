// Package service provides the play and stats operations on top of the door
// engine, the progression ledger and round history.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"prize-door-game/internal/game"
	"prize-door-game/internal/game/door"
	"prize-door-game/internal/metrics"
	"prize-door-game/internal/model"
	"prize-door-game/internal/pkg/lock"
	"prize-door-game/internal/progression"
)

// DefaultLockTimeout bounds how long an operation waits for the player's lock.
const DefaultLockTimeout = 2 * time.Second

// Errors for play operations.
var (
	ErrDailyPlayUsed    = errors.New("daily play already used")
	ErrNoBonusPlays     = errors.New("no bonus plays available")
	ErrRoundInProgress  = errors.New("a round is already in progress")
	ErrNoActiveRound    = errors.New("no active round")
	ErrRoundResolved    = errors.New("round already resolved")
	ErrRoundNotResolved = errors.New("round not resolved yet")
)

// History stores resolved rounds.
type History interface {
	CreateRound(ctx context.Context, rec *model.RoundRecord) error
	GetRounds(ctx context.Context, userID string, limit int) ([]*model.RoundRecord, error)
	GetStrategyStats(ctx context.Context, userID string) ([]model.StrategyStats, error)
}

// Round is a player's active round.
type Round struct {
	UserID    string
	Mode      string
	UsedBonus bool
	StartedAt time.Time
	State     door.State

	// bonusBefore is the banked bonus count when the round started.
	bonusBefore int
	// progress is set once the ledger has recorded the game.
	progress *model.Progression
}

// Outcome is returned once a round is resolved and persisted.
type Outcome struct {
	State       door.State
	Progression *model.Progression
	Record      *model.RoundRecord
	BonusEarned bool
}

// Status is a player's progression plus their active round, if any.
type Status struct {
	Progression *model.Progression
	Round       *Round
}

// PlayConfig holds PlayService settings.
type PlayConfig struct {
	LockTimeout time.Duration
	// DefaultMode is used by Start when no mode is given.
	DefaultMode string
}

// PlayService runs rounds for players. A player has at most one active round.
type PlayService struct {
	engine      *door.Engine
	ledger      *progression.Ledger
	history     History
	modes       *game.Registry
	locks       *lock.UserLock
	metrics     *metrics.Metrics
	lockTimeout time.Duration
	defaultMode string

	rounds map[string]*Round // userID -> Round
	mu     sync.RWMutex
}

// NewPlayService creates a PlayService. m may be nil.
func NewPlayService(
	engine *door.Engine,
	ledger *progression.Ledger,
	history History,
	modes *game.Registry,
	m *metrics.Metrics,
	cfg PlayConfig,
) *PlayService {
	timeout := cfg.LockTimeout
	if timeout <= 0 {
		timeout = DefaultLockTimeout
	}
	defaultMode := cfg.DefaultMode
	if defaultMode == "" {
		defaultMode = game.ClassicCommand
	}
	return &PlayService{
		engine:      engine,
		ledger:      ledger,
		history:     history,
		modes:       modes,
		locks:       lock.NewUserLock(),
		metrics:     m,
		lockTimeout: timeout,
		defaultMode: defaultMode,
		rounds:      make(map[string]*Round),
	}
}

func (s *PlayService) withLock(ctx context.Context, userID string, fn func() error) error {
	return s.locks.WithLock(ctx, userID, s.lockTimeout, fn)
}

func (s *PlayService) round(userID string) (*Round, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rounds[userID]
	return r, ok
}

func (s *PlayService) setRound(r *Round) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rounds[r.UserID] = r
}

func (s *PlayService) dropRound(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rounds, userID)
}

// Start begins a round in the given mode, or the default mode when mode is
// empty. A regular round needs the daily play to be unused; a bonus round
// needs a banked bonus play.
func (s *PlayService) Start(ctx context.Context, userID, mode string, useBonus bool) (*Round, error) {
	if mode == "" {
		mode = s.defaultMode
	}

	var started *Round
	err := s.withLock(ctx, userID, func() error {
		if _, ok := s.round(userID); ok {
			return ErrRoundInProgress
		}

		m, err := s.modes.Lookup(mode)
		if err != nil {
			return err
		}

		p, err := s.ledger.Load(ctx, userID)
		if err != nil {
			return err
		}
		if useBonus && p.BonusPlaysAvailable <= 0 {
			return ErrNoBonusPlays
		}
		if !useBonus && p.HasPlayedToday {
			return ErrDailyPlayUsed
		}

		state, err := s.engine.NewRound(m.Config)
		if err != nil {
			return err
		}

		started = &Round{
			UserID:      userID,
			Mode:        m.Command,
			UsedBonus:   useBonus,
			StartedAt:   time.Now(),
			State:       state,
			bonusBefore: p.BonusPlaysAvailable,
		}
		s.setRound(started)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RoundStarted(started.Mode, started.UsedBonus)
	log.Info().
		Str("user_id", userID).
		Str("mode", started.Mode).
		Bool("bonus", started.UsedBonus).
		Msg("Round started")

	snapshot := *started
	return &snapshot, nil
}

// Pick records the player's first door choice and returns the state with the
// host's reveals applied.
func (s *PlayService) Pick(ctx context.Context, userID string, doorNumber int) (door.State, error) {
	return s.advance(ctx, userID, func(st door.State) (door.State, error) {
		return s.engine.ChoosePrimaryDoor(st, doorNumber)
	})
}

// Decide records whether the player stays or switches.
func (s *PlayService) Decide(ctx context.Context, userID string, d door.Decision) (door.State, error) {
	return s.advance(ctx, userID, func(st door.State) (door.State, error) {
		return s.engine.Decide(st, d)
	})
}

// advance applies an engine step to the player's round. Engine errors are
// returned unchanged and leave the round as it was.
func (s *PlayService) advance(ctx context.Context, userID string, step func(door.State) (door.State, error)) (door.State, error) {
	var next door.State
	err := s.withLock(ctx, userID, func() error {
		r, ok := s.round(userID)
		if !ok {
			return ErrNoActiveRound
		}
		if r.State.Stage == door.StageResolved {
			return ErrRoundResolved
		}

		st, err := step(r.State)
		if err != nil {
			return err
		}
		r.State = st
		next = st
		return nil
	})
	return next, err
}

// Open opens the player's chosen door, resolving the round, then records the
// game in the ledger and history. If persistence fails the resolved round is
// kept and Finish may be called to retry.
func (s *PlayService) Open(ctx context.Context, userID string, doorNumber int) (*Outcome, error) {
	var out *Outcome
	err := s.withLock(ctx, userID, func() error {
		r, ok := s.round(userID)
		if !ok {
			return ErrNoActiveRound
		}
		if r.State.Stage == door.StageResolved {
			return ErrRoundResolved
		}

		st, err := s.engine.Resolve(r.State, doorNumber)
		if err != nil {
			return err
		}
		r.State = st

		out, err = s.finish(ctx, r)
		return err
	})
	return out, err
}

// Finish retries persistence of a resolved round whose Open failed to save.
func (s *PlayService) Finish(ctx context.Context, userID string) (*Outcome, error) {
	var out *Outcome
	err := s.withLock(ctx, userID, func() error {
		r, ok := s.round(userID)
		if !ok {
			return ErrNoActiveRound
		}
		if r.State.Stage != door.StageResolved {
			return ErrRoundNotResolved
		}

		var err error
		out, err = s.finish(ctx, r)
		return err
	})
	return out, err
}

// finish records a resolved round. The caller holds the player's lock.
func (s *PlayService) finish(ctx context.Context, r *Round) (*Outcome, error) {
	if r.progress == nil {
		p, err := s.ledger.RecordGamePlayed(ctx, r.UserID, r.UsedBonus)
		if err != nil {
			s.metrics.PersistenceError(metrics.OpProgression)
			return nil, err
		}
		r.progress = p
	}

	rec := newRoundRecord(r)
	if err := s.history.CreateRound(ctx, rec); err != nil {
		s.metrics.PersistenceError(metrics.OpHistory)
		log.Error().
			Err(err).
			Str("user_id", r.UserID).
			Msg("Failed to store round")
		return nil, fmt.Errorf("failed to store round: %w", err)
	}

	s.dropRound(r.UserID)

	earned := !r.UsedBonus && r.progress.BonusPlaysAvailable > r.bonusBefore
	s.metrics.RoundResolved(r.Mode, rec.Won, rec.Switched)
	if earned {
		s.metrics.BonusPlayEarned()
	}

	log.Info().
		Str("user_id", r.UserID).
		Str("mode", r.Mode).
		Bool("won", rec.Won).
		Bool("switched", rec.Switched).
		Bool("bonus_earned", earned).
		Msg("Round resolved")

	return &Outcome{
		State:       r.State,
		Progression: r.progress,
		Record:      rec,
		BonusEarned: earned,
	}, nil
}

func newRoundRecord(r *Round) *model.RoundRecord {
	prize, _ := r.State.PrizeDoor()
	return &model.RoundRecord{
		UserID:      r.UserID,
		Mode:        r.Mode,
		DoorCount:   r.State.Config.DoorCount,
		RevealCount: r.State.Config.RevealCount,
		InitialPick: r.State.InitialPick,
		FinalPick:   r.State.ChosenDoor,
		PrizeDoor:   prize,
		Switched:    r.State.Switched,
		Won:         r.State.Result == door.ResultWin,
		UsedBonus:   r.UsedBonus,
		PlayDate:    r.progress.LastPlayDate,
	}
}

// Abandon discards the player's unresolved round. Progression is untouched.
func (s *PlayService) Abandon(ctx context.Context, userID string) error {
	return s.withLock(ctx, userID, func() error {
		r, ok := s.round(userID)
		if !ok {
			return ErrNoActiveRound
		}
		if r.State.Stage == door.StageResolved {
			return ErrRoundResolved
		}
		s.dropRound(userID)
		log.Info().Str("user_id", userID).Str("mode", r.Mode).Msg("Round abandoned")
		return nil
	})
}

// Status returns the player's progression and a copy of their active round.
func (s *PlayService) Status(ctx context.Context, userID string) (*Status, error) {
	var st Status
	err := s.withLock(ctx, userID, func() error {
		p, err := s.ledger.Load(ctx, userID)
		if err != nil {
			return err
		}
		st.Progression = p
		if r, ok := s.round(userID); ok {
			snapshot := *r
			st.Round = &snapshot
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// ActiveRounds returns the number of players with an active round.
func (s *PlayService) ActiveRounds() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rounds)
}
