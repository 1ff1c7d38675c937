// Package simulate plays many rounds of a mode with a fixed strategy and
// reports how often each strategy wins.
package simulate

import (
	"context"
	"errors"
	"fmt"

	"prize-door-game/internal/game"
	"prize-door-game/internal/game/door"
	"prize-door-game/internal/metrics"
	"prize-door-game/internal/pkg/random"
)

// Strategy is how the simulated player decides after the reveal.
type Strategy string

const (
	StrategyStay   Strategy = "stay"
	StrategySwitch Strategy = "switch"
	StrategyRandom Strategy = "random"
)

// ErrUnknownStrategy is returned by ParseStrategy.
var ErrUnknownStrategy = errors.New("unknown strategy")

// ParseStrategy converts a flag value to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(s); st {
	case StrategyStay, StrategySwitch, StrategyRandom:
		return st, nil
	}
	return "", fmt.Errorf("%w %q (want stay, switch or random)", ErrUnknownStrategy, s)
}

// Options configures a simulation run.
type Options struct {
	Mode     game.Mode
	Rounds   int
	Strategy Strategy
	Source   random.Source
	Metrics  *metrics.Metrics // optional
}

// Result summarizes a run.
type Result struct {
	Mode         string `json:"mode"`
	Rounds       int    `json:"rounds"`
	Wins         int    `json:"wins"`
	Switched     int    `json:"switched"`
	SwitchedWins int    `json:"switched_wins"`
}

// WinRate returns the overall share of won rounds.
func (r *Result) WinRate() float64 {
	return ratio(r.Wins, r.Rounds)
}

// SwitchWinRate returns the win rate of rounds where the player switched.
func (r *Result) SwitchWinRate() float64 {
	return ratio(r.SwitchedWins, r.Switched)
}

// StayWinRate returns the win rate of rounds where the player stayed.
func (r *Result) StayWinRate() float64 {
	return ratio(r.Wins-r.SwitchedWins, r.Rounds-r.Switched)
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}

// ExpectedSwitchWinRate is the analytic win probability of always switching
// to a uniformly chosen remaining door.
func ExpectedSwitchWinRate(cfg door.Config) float64 {
	n := float64(cfg.DoorCount)
	return (n - 1) / n / (n - 1 - float64(cfg.RevealCount))
}

// Run plays opts.Rounds rounds. It stops early with ctx.Err() if ctx is done.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Rounds <= 0 {
		return nil, fmt.Errorf("rounds must be positive, got %d", opts.Rounds)
	}
	if err := opts.Mode.Validate(); err != nil {
		return nil, err
	}
	if opts.Source == nil {
		opts.Source = random.NewCrypto()
	}

	engine := door.NewEngine(opts.Source)
	res := &Result{Mode: opts.Mode.Command}

	for i := 0; i < opts.Rounds; i++ {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return res, err
			}
		}

		st, err := playRound(engine, opts)
		if err != nil {
			return res, err
		}

		won := st.Result == door.ResultWin
		res.Rounds++
		if won {
			res.Wins++
		}
		if st.Switched {
			res.Switched++
			if won {
				res.SwitchedWins++
			}
		}
		opts.Metrics.RoundResolved(opts.Mode.Command, won, st.Switched)
	}
	return res, nil
}

func playRound(e *door.Engine, opts Options) (door.State, error) {
	st, err := e.NewRound(opts.Mode.Config)
	if err != nil {
		return door.State{}, err
	}
	opts.Metrics.RoundStarted(opts.Mode.Command, false)

	pick := opts.Source.IntRange(1, opts.Mode.Config.DoorCount)
	if st, err = e.ChoosePrimaryDoor(st, pick); err != nil {
		return door.State{}, err
	}

	if st, err = e.Decide(st, decide(st, opts)); err != nil {
		return door.State{}, err
	}
	return e.Resolve(st, st.ChosenDoor)
}

func decide(st door.State, opts Options) door.Decision {
	sw := opts.Strategy == StrategySwitch
	if opts.Strategy == StrategyRandom {
		sw = opts.Source.IntRange(0, 1) == 1
	}
	if !sw {
		return door.Stay()
	}
	targets := st.SwitchTargets()
	return door.SwitchTo(targets[opts.Source.IntRange(0, len(targets)-1)])
}
