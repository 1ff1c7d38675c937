// Package door implements the N-door switch-or-stay game.
//
// A round moves through a fixed sequence of stages:
//
//	AwaitingInitialPick --ChoosePrimaryDoor--> AwaitingDecision
//	AwaitingDecision    --Decide-----------> AwaitingFinalReveal
//	AwaitingFinalReveal --Resolve----------> Resolved
//
// Every operation takes a State value and returns a new one. The input is
// never modified, so a failed call leaves the caller's state exactly as it was.
package door

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	// MinDoorCount is the smallest board that still leaves a decision to make.
	MinDoorCount = 3

	// DefaultRevealCount is the number of doors revealed when no mode overrides it.
	DefaultRevealCount = 1
)

// Errors returned by the engine. All of them indicate caller misuse.
var (
	ErrInvalidConfiguration   = errors.New("invalid game configuration")
	ErrInvalidStageTransition = errors.New("invalid stage transition")
	ErrInvalidDoorSelection   = errors.New("invalid door selection")
	ErrInvalidSwitchTarget    = errors.New("invalid switch target")
	ErrInvalidState           = errors.New("invalid round state")
)

// Config describes the board of a round.
type Config struct {
	DoorCount   int `json:"door_count" mapstructure:"door_count"`
	RevealCount int `json:"reveal_count" mapstructure:"reveal_count"`
}

// ClassicConfig is the canonical three door, one reveal board.
func ClassicConfig() Config {
	return Config{DoorCount: 3, RevealCount: DefaultRevealCount}
}

// Validate checks that the board leaves at least one closed door besides the
// player's pick after the reveal phase.
func (c Config) Validate() error {
	if c.DoorCount < MinDoorCount {
		return fmt.Errorf("%w: door count %d is below %d", ErrInvalidConfiguration, c.DoorCount, MinDoorCount)
	}
	if c.RevealCount < 0 || c.RevealCount > c.DoorCount-2 {
		return fmt.Errorf("%w: reveal count %d must be between 0 and %d",
			ErrInvalidConfiguration, c.RevealCount, c.DoorCount-2)
	}
	return nil
}

// Stage is a step of the round state machine.
type Stage int

const (
	StageAwaitingInitialPick Stage = iota
	// StageRevealInProgress is reserved for callers that animate the reveal.
	// The engine computes reveals atomically and never returns this stage.
	StageRevealInProgress
	StageAwaitingDecision
	StageAwaitingFinalReveal
	StageResolved
)

var stageNames = map[Stage]string{
	StageAwaitingInitialPick: "awaiting_initial_pick",
	StageRevealInProgress:    "reveal_in_progress",
	StageAwaitingDecision:    "awaiting_decision",
	StageAwaitingFinalReveal: "awaiting_final_reveal",
	StageResolved:            "resolved",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Result is the outcome of a resolved round.
type Result int

const (
	ResultNone Result = iota
	ResultWin
	ResultLoss
)

func (r Result) String() string {
	switch r {
	case ResultWin:
		return "win"
	case ResultLoss:
		return "loss"
	default:
		return "none"
	}
}

// Door is one door on the board. Numbers are 1-based.
type Door struct {
	Number int  `json:"number"`
	Open   bool `json:"open"`
}

// State is one round of the game.
//
// The prize location is only returned by PrizeDoor once the round is resolved.
// The JSON encoding carries it as prize_door so a stored round can be resumed;
// do not send an encoded unresolved State to the player. A State must not be
// shared between concurrent callers.
type State struct {
	Config      Config `json:"config"`
	Stage       Stage  `json:"stage"`
	Doors       []Door `json:"doors"`
	InitialPick int    `json:"initial_pick,omitempty"`
	ChosenDoor  int    `json:"chosen_door,omitempty"`
	Revealed    []int  `json:"revealed"`
	Switched    bool   `json:"switched"`
	Result      Result `json:"result"`

	prizeDoor int
}

// PrizeDoor returns the prize location once the round is resolved.
func (s State) PrizeDoor() (int, bool) {
	if s.Stage != StageResolved {
		return 0, false
	}
	return s.prizeDoor, true
}

// IsRevealed reports whether door n has been opened.
func (s State) IsRevealed(n int) bool {
	for _, r := range s.Revealed {
		if r == n {
			return true
		}
	}
	return false
}

// ClosedDoors returns the numbers of doors not yet opened, in ascending order.
func (s State) ClosedDoors() []int {
	closed := make([]int, 0, len(s.Doors))
	for _, d := range s.Doors {
		if !d.Open {
			closed = append(closed, d.Number)
		}
	}
	return closed
}

// SwitchTargets returns the doors the player may switch to. It is empty
// outside the decision stage.
func (s State) SwitchTargets() []int {
	if s.Stage != StageAwaitingDecision {
		return nil
	}
	targets := make([]int, 0, len(s.Doors))
	for _, d := range s.Doors {
		if !d.Open && d.Number != s.ChosenDoor {
			targets = append(targets, d.Number)
		}
	}
	return targets
}

// stateAlias drops the methods of State so the JSON hooks do not recurse.
type stateAlias State

type stateJSON struct {
	stateAlias
	PrizeDoor int `json:"prize_door"`
}

// MarshalJSON encodes the state including the prize location.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(stateJSON{stateAlias: stateAlias(s), PrizeDoor: s.prizeDoor})
}

// UnmarshalJSON restores a state written by MarshalJSON.
func (s *State) UnmarshalJSON(data []byte) error {
	var w stateJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = State(w.stateAlias)
	s.prizeDoor = w.PrizeDoor
	return nil
}

// checkPrize rejects states whose prize is not on the board, such as a State
// built by hand or decoded without a prize_door.
func (s State) checkPrize() error {
	if !s.validDoor(s.prizeDoor) || len(s.Doors) != s.Config.DoorCount {
		return fmt.Errorf("%w: prize door %d on a %d door board", ErrInvalidState, s.prizeDoor, s.Config.DoorCount)
	}
	return nil
}

func (s State) validDoor(n int) bool {
	return n >= 1 && n <= s.Config.DoorCount
}

// clone deep-copies the slices so the returned state never aliases the input.
func (s State) clone() State {
	out := s
	out.Doors = append([]Door(nil), s.Doors...)
	out.Revealed = append(make([]int, 0, s.Config.DoorCount), s.Revealed...)
	return out
}

// open marks door n as revealed. Opening an already open door is a no-op.
func (s *State) open(n int) {
	if s.Doors[n-1].Open {
		return
	}
	s.Doors[n-1].Open = true
	s.Revealed = append(s.Revealed, n)
}

// Decision is the player's switch-or-stay choice.
type Decision struct {
	Switch bool
	// Target is the door to switch to. Zero asks the engine to pick the only
	// legal target, which exists only when exactly one door is eligible.
	Target int
}

// Stay keeps the current pick.
func Stay() Decision {
	return Decision{}
}

// SwitchTo moves the pick to door n.
func SwitchTo(n int) Decision {
	return Decision{Switch: true, Target: n}
}

// SwitchToOther moves the pick to the single remaining closed door.
func SwitchToOther() Decision {
	return Decision{Switch: true}
}
