package door

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"prize-door-game/internal/pkg/random"
)

// rapidSource lets rapid choose every random draw the engine makes, so the
// properties are checked against all prize placements and reveal samples.
type rapidSource struct {
	t *rapid.T
}

func (s rapidSource) IntRange(min, max int) int {
	return rapid.IntRange(min, max).Draw(s.t, "draw")
}

func drawConfig(t *rapid.T) Config {
	doors := rapid.IntRange(MinDoorCount, 10).Draw(t, "doors")
	reveals := rapid.IntRange(0, doors-2).Draw(t, "reveals")
	return Config{DoorCount: doors, RevealCount: reveals}
}

// playToDecision creates a round and makes the initial pick.
func playToDecision(t *rapid.T) (*Engine, State) {
	e := NewEngine(rapidSource{t: t})
	cfg := drawConfig(t)

	s, err := e.NewRound(cfg)
	if err != nil {
		t.Fatalf("NewRound(%+v): %v", cfg, err)
	}
	pick := rapid.IntRange(1, cfg.DoorCount).Draw(t, "pick")
	s, err = e.ChoosePrimaryDoor(s, pick)
	if err != nil {
		t.Fatalf("ChoosePrimaryDoor(%d): %v", pick, err)
	}
	return e, s
}

// playToResolution finishes a round with a drawn stay or switch decision.
func playToResolution(t *rapid.T) State {
	e, s := playToDecision(t)

	decision := Stay()
	if targets := s.SwitchTargets(); rapid.Bool().Draw(t, "switch") && len(targets) > 0 {
		decision = SwitchTo(rapid.SampledFrom(targets).Draw(t, "target"))
	}

	s, err := e.Decide(s, decision)
	if err != nil {
		t.Fatalf("Decide(%+v): %v", decision, err)
	}
	s, err = e.Resolve(s, s.ChosenDoor)
	if err != nil {
		t.Fatalf("Resolve(%d): %v", s.ChosenDoor, err)
	}
	return s
}

// TestRevealFairnessProperty: the reveal never opens the prize or the pick.
func TestRevealFairnessProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		_, s := playToDecision(t)

		for _, r := range s.Revealed {
			if r == s.prizeDoor {
				t.Fatalf("revealed the prize door %d: %v", r, s.Revealed)
			}
			if r == s.ChosenDoor {
				t.Fatalf("revealed the chosen door %d: %v", r, s.Revealed)
			}
		}
	})
}

// TestRevealCountProperty: exactly RevealCount distinct doors are open after the pick.
func TestRevealCountProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		_, s := playToDecision(t)

		if len(s.Revealed) != s.Config.RevealCount {
			t.Fatalf("revealed %d doors, want %d", len(s.Revealed), s.Config.RevealCount)
		}
		seen := make(map[int]bool)
		open := 0
		for _, r := range s.Revealed {
			if seen[r] {
				t.Fatalf("door %d revealed twice", r)
			}
			seen[r] = true
		}
		for _, d := range s.Doors {
			if d.Open {
				open++
				if !seen[d.Number] {
					t.Fatalf("door %d open but not in reveal list", d.Number)
				}
			}
		}
		if open != len(s.Revealed) {
			t.Fatalf("%d doors open, %d recorded", open, len(s.Revealed))
		}
	})
}

// TestResolutionCorrectnessProperty: the result is a win iff the held door hides the prize.
func TestResolutionCorrectnessProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := playToResolution(t)

		prize, ok := s.PrizeDoor()
		if !ok {
			t.Fatalf("prize hidden after resolution")
		}
		want := ResultLoss
		if s.ChosenDoor == prize {
			want = ResultWin
		}
		if s.Result != want {
			t.Fatalf("result %s, want %s (chosen=%d prize=%d)", s.Result, want, s.ChosenDoor, prize)
		}
		if s.Switched != (s.ChosenDoor != s.InitialPick) {
			t.Fatalf("switched=%v but initial=%d chosen=%d", s.Switched, s.InitialPick, s.ChosenDoor)
		}
	})
}

// TestFullDisclosureProperty: every door is open once the round is resolved.
func TestFullDisclosureProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := playToResolution(t)

		if len(s.Revealed) != s.Config.DoorCount {
			t.Fatalf("revealed %d of %d doors", len(s.Revealed), s.Config.DoorCount)
		}
		for _, d := range s.Doors {
			if !d.Open {
				t.Fatalf("door %d still closed", d.Number)
			}
		}
	})
}

// TestResolvedIsTerminalProperty: no operation succeeds after resolution.
func TestResolvedIsTerminalProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := playToResolution(t)
		e := NewEngine(random.NewSeeded(1))
		before := s.Result

		n := rapid.IntRange(-1, s.Config.DoorCount+1).Draw(t, "door")
		calls := []error{}
		_, err := e.ChoosePrimaryDoor(s, n)
		calls = append(calls, err)
		_, err = e.Decide(s, SwitchTo(n))
		calls = append(calls, err)
		_, err = e.Decide(s, Stay())
		calls = append(calls, err)
		_, err = e.Resolve(s, n)
		calls = append(calls, err)

		for i, err := range calls {
			if !errors.Is(err, ErrInvalidStageTransition) {
				t.Fatalf("call %d: got %v, want ErrInvalidStageTransition", i, err)
			}
		}
		if s.Result != before {
			t.Fatalf("result changed from %s to %s", before, s.Result)
		}
	})
}

// TestFailedOperationLeavesStateProperty: rejected door arguments never mutate the input.
func TestFailedOperationLeavesStateProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		e, s := playToDecision(t)
		revealed := append([]int(nil), s.Revealed...)

		if len(revealed) > 0 {
			_, err := e.Decide(s, SwitchTo(rapid.SampledFrom(revealed).Draw(t, "revealed")))
			if !errors.Is(err, ErrInvalidSwitchTarget) {
				t.Fatalf("switch to revealed door: got %v", err)
			}
		}
		if s.Stage != StageAwaitingDecision || len(s.Revealed) != len(revealed) {
			t.Fatalf("input state mutated: %+v", s)
		}
	})
}

// TestSwitchingWinsTwoThirds checks the classic switch advantage over many seeded rounds.
func TestSwitchingWinsTwoThirds(t *testing.T) {
	const rounds = 30000
	e := NewEngine(random.NewSeeded(2024))

	wins := map[bool]int{}
	for i := 0; i < rounds; i++ {
		for _, doSwitch := range []bool{false, true} {
			s, err := e.NewRound(ClassicConfig())
			require.NoError(t, err)
			s, err = e.ChoosePrimaryDoor(s, 1)
			require.NoError(t, err)

			d := Stay()
			if doSwitch {
				d = SwitchToOther()
			}
			s, err = e.Decide(s, d)
			require.NoError(t, err)
			s, err = e.Resolve(s, s.ChosenDoor)
			require.NoError(t, err)

			if s.Result == ResultWin {
				wins[doSwitch]++
			}
		}
	}

	stayRate := float64(wins[false]) / rounds
	switchRate := float64(wins[true]) / rounds
	assert.InDelta(t, 1.0/3, stayRate, 0.02)
	assert.InDelta(t, 2.0/3, switchRate, 0.02)
}

// TestRevealIsUniform checks that no eligible door is preferred by position.
func TestRevealIsUniform(t *testing.T) {
	const rounds = 20000
	e := NewEngine(random.NewSeeded(77))
	cfg := Config{DoorCount: 5, RevealCount: 1}

	// counts[k] is how often the k-th smallest eligible door was revealed.
	counts := make([]int, 4)
	for i := 0; i < rounds; i++ {
		s, err := e.NewRound(cfg)
		require.NoError(t, err)
		s, err = e.ChoosePrimaryDoor(s, 3)
		require.NoError(t, err)

		k := 0
		for n := 1; n < s.Revealed[0]; n++ {
			if n != s.ChosenDoor && n != s.prizeDoor {
				k++
			}
		}
		counts[k]++
	}

	// When the pick hides the prize there are 4 eligible doors, otherwise 3.
	// Expected share of rank 0..3 is (1/5*1/4 + 4/5*1/3) for ranks 0..2 and 1/20 for rank 3.
	expected := []float64{0.05 + 0.8/3, 0.05 + 0.8/3, 0.05 + 0.8/3, 0.05}
	for k, c := range counts {
		got := float64(c) / rounds
		if math.Abs(got-expected[k]) > 0.02 {
			t.Errorf("rank %d revealed %.3f of rounds, want %.3f", k, got, expected[k])
		}
	}
}
