package progression

import (
	"context"
	"testing"

	"pgregory.net/rapid"

	"prize-door-game/internal/model"
)

// TestBonusClampProperty: no sequence of games drives a counter below zero.
func TestBonusClampProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := &model.Progression{
			GamesUntilBonus:     rapid.IntRange(0, 10).Draw(t, "gamesUntilBonus"),
			BonusPlaysAvailable: rapid.IntRange(0, 3).Draw(t, "bonusPlays"),
		}
		games := rapid.SliceOfN(rapid.Bool(), 1, 40).Draw(t, "usedBonus")

		for i, usedBonus := range games {
			p = Apply(p, usedBonus, model.DefaultGamesUntilBonus)
			if p.BonusPlaysAvailable < 0 || p.GamesUntilBonus < 0 {
				t.Fatalf("game %d: negative counters %+v", i, p)
			}
		}
	})
}

// TestBonusConsumptionProperty: bonus games only ever decrease the bank by at most one
// and always restart the countdown.
func TestBonusConsumptionProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		before := &model.Progression{
			GamesUntilBonus:     rapid.IntRange(0, 10).Draw(t, "gamesUntilBonus"),
			BonusPlaysAvailable: rapid.IntRange(0, 5).Draw(t, "bonusPlays"),
		}
		after := Apply(before, true, model.DefaultGamesUntilBonus)

		want := before.BonusPlaysAvailable - 1
		if want < 0 {
			want = 0
		}
		if after.BonusPlaysAvailable != want {
			t.Fatalf("bonus plays %d -> %d, want %d", before.BonusPlaysAvailable, after.BonusPlaysAvailable, want)
		}
		if after.GamesUntilBonus != model.DefaultGamesUntilBonus {
			t.Fatalf("countdown %d after bonus game, want %d", after.GamesUntilBonus, model.DefaultGamesUntilBonus)
		}
	})
}

// TestBonusAccrualProperty: from a fresh countdown of n, exactly n regular games
// bank exactly one bonus and leave the countdown at zero.
func TestBonusAccrualProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		reset := rapid.IntRange(1, 10).Draw(t, "reset")
		banked := rapid.IntRange(0, 5).Draw(t, "banked")

		store := newMemoryStore()
		store.records["u"] = model.Progression{UserID: "u", GamesUntilBonus: reset, BonusPlaysAvailable: banked}
		l := NewLedger(store, &fakeClock{today: "2024-01-01"}, &Config{BonusResetValue: reset})

		var p *model.Progression
		var err error
		for i := 0; i < reset; i++ {
			p, err = l.RecordGamePlayed(context.Background(), "u", false)
			if err != nil {
				t.Fatalf("record game %d: %v", i, err)
			}
		}

		if p.BonusPlaysAvailable != banked+1 {
			t.Fatalf("bonus plays %d, want %d", p.BonusPlaysAvailable, banked+1)
		}
		if p.GamesUntilBonus != 0 {
			t.Fatalf("countdown %d, want 0", p.GamesUntilBonus)
		}
	})
}

// TestRegularGameAtOneOrZeroBanksProperty: a regular game that starts with the
// countdown at 1 or 0 banks exactly one bonus; any other regular game banks none.
func TestRegularGameAtOneOrZeroBanksProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		reset := rapid.IntRange(1, 10).Draw(t, "reset")
		store := newMemoryStore()
		store.records["u"] = model.Progression{
			UserID:              "u",
			GamesUntilBonus:     rapid.IntRange(0, reset).Draw(t, "gamesUntilBonus"),
			BonusPlaysAvailable: rapid.IntRange(0, 5).Draw(t, "bonusPlays"),
		}
		l := NewLedger(store, &fakeClock{today: "2024-01-01"}, &Config{BonusResetValue: reset})
		games := rapid.IntRange(1, 30).Draw(t, "games")

		for i := 0; i < games; i++ {
			before := store.records["u"]
			after, err := l.RecordGamePlayed(context.Background(), "u", false)
			if err != nil {
				t.Fatalf("record game %d: %v", i, err)
			}

			want := before.BonusPlaysAvailable
			if before.GamesUntilBonus <= 1 {
				want++
			}
			if after.BonusPlaysAvailable != want {
				t.Fatalf("game %d from countdown %d: bonus plays %d -> %d, want %d",
					i, before.GamesUntilBonus, before.BonusPlaysAvailable, after.BonusPlaysAvailable, want)
			}
			if after.GamesUntilBonus != max(0, before.GamesUntilBonus-1) {
				t.Fatalf("game %d: countdown %d -> %d", i, before.GamesUntilBonus, after.GamesUntilBonus)
			}
		}
	})
}
