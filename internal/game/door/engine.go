package door

import (
	"fmt"

	"prize-door-game/internal/pkg/random"
)

// Engine drives rounds using an injected random source.
type Engine struct {
	rng random.Source
}

// NewEngine creates an Engine. A nil source falls back to crypto/rand.
func NewEngine(rng random.Source) *Engine {
	if rng == nil {
		rng = random.NewCrypto()
	}
	return &Engine{rng: rng}
}

// NewRound validates cfg and places the prize uniformly behind one of the doors.
func (e *Engine) NewRound(cfg Config) (State, error) {
	if err := cfg.Validate(); err != nil {
		return State{}, err
	}

	doors := make([]Door, cfg.DoorCount)
	for i := range doors {
		doors[i] = Door{Number: i + 1}
	}

	return State{
		Config:    cfg,
		Stage:     StageAwaitingInitialPick,
		Doors:     doors,
		Revealed:  make([]int, 0, cfg.DoorCount),
		prizeDoor: e.rng.IntRange(1, cfg.DoorCount),
	}, nil
}

// ChoosePrimaryDoor records the player's first pick and reveals RevealCount
// doors that are neither the pick nor the prize.
func (e *Engine) ChoosePrimaryDoor(s State, n int) (State, error) {
	if s.Stage != StageAwaitingInitialPick {
		return State{}, fmt.Errorf("%w: cannot pick a door while %s", ErrInvalidStageTransition, s.Stage)
	}
	if err := s.checkPrize(); err != nil {
		return State{}, err
	}
	if !s.validDoor(n) {
		return State{}, fmt.Errorf("%w: door %d is not between 1 and %d", ErrInvalidDoorSelection, n, s.Config.DoorCount)
	}

	next := s.clone()
	next.InitialPick = n
	next.ChosenDoor = n

	for _, d := range e.sampleReveals(next) {
		next.open(d)
	}

	next.Stage = StageAwaitingDecision
	return next, nil
}

// sampleReveals draws RevealCount doors uniformly without replacement from the
// doors that are neither chosen nor hiding the prize.
func (e *Engine) sampleReveals(s State) []int {
	eligible := make([]int, 0, s.Config.DoorCount)
	for _, d := range s.Doors {
		if d.Number != s.ChosenDoor && d.Number != s.prizeDoor {
			eligible = append(eligible, d.Number)
		}
	}

	// Partial Fisher-Yates: the first k slots end up as a uniform k-subset.
	k := s.Config.RevealCount
	for i := 0; i < k; i++ {
		j := e.rng.IntRange(i, len(eligible)-1)
		eligible[i], eligible[j] = eligible[j], eligible[i]
	}
	return eligible[:k]
}

// Decide applies the switch-or-stay decision.
func (e *Engine) Decide(s State, d Decision) (State, error) {
	if s.Stage != StageAwaitingDecision {
		return State{}, fmt.Errorf("%w: cannot decide while %s", ErrInvalidStageTransition, s.Stage)
	}

	next := s.clone()
	if !d.Switch {
		next.Switched = false
		next.Stage = StageAwaitingFinalReveal
		return next, nil
	}

	target := d.Target
	if target == 0 {
		targets := s.SwitchTargets()
		if len(targets) != 1 {
			return State{}, fmt.Errorf("%w: %d doors are eligible, an explicit target is required",
				ErrInvalidSwitchTarget, len(targets))
		}
		target = targets[0]
	}

	switch {
	case !s.validDoor(target):
		return State{}, fmt.Errorf("%w: door %d is not between 1 and %d", ErrInvalidSwitchTarget, target, s.Config.DoorCount)
	case s.IsRevealed(target):
		return State{}, fmt.Errorf("%w: door %d is already open", ErrInvalidSwitchTarget, target)
	case target == s.ChosenDoor:
		return State{}, fmt.Errorf("%w: door %d is the current pick", ErrInvalidSwitchTarget, target)
	}

	next.ChosenDoor = target
	next.Switched = target != s.InitialPick
	next.Stage = StageAwaitingFinalReveal
	return next, nil
}

// Resolve opens the chosen door, settles the result and discloses the board.
// n must be the door the player currently holds.
func (e *Engine) Resolve(s State, n int) (State, error) {
	if s.Stage != StageAwaitingFinalReveal {
		return State{}, fmt.Errorf("%w: cannot resolve while %s", ErrInvalidStageTransition, s.Stage)
	}
	if err := s.checkPrize(); err != nil {
		return State{}, err
	}
	if n != s.ChosenDoor {
		return State{}, fmt.Errorf("%w: door %d is not the chosen door %d", ErrInvalidDoorSelection, n, s.ChosenDoor)
	}

	next := s.clone()
	next.open(next.ChosenDoor)
	if next.ChosenDoor == next.prizeDoor {
		next.Result = ResultWin
	} else {
		next.Result = ResultLoss
	}

	for i := range next.Doors {
		next.open(next.Doors[i].Number)
	}

	next.Stage = StageResolved
	return next, nil
}
