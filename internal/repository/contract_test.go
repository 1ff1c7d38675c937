package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prize-door-game/internal/model"
	"prize-door-game/internal/progression"
)

// historyStore is implemented by every backend that keeps round history.
type historyStore interface {
	CreateRound(ctx context.Context, rec *model.RoundRecord) error
	GetRounds(ctx context.Context, userID string, limit int) ([]*model.RoundRecord, error)
	GetStrategyStats(ctx context.Context, userID string) ([]model.StrategyStats, error)
}

// testProgressionStore checks the behaviour every progression.Store must share.
func testProgressionStore(t *testing.T, store progression.Store) {
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, progression.ErrNotFound)

	p := &model.Progression{UserID: "user-1", GamesUntilBonus: 4, BonusPlaysAvailable: 0}
	require.NoError(t, store.Save(ctx, p))
	assert.False(t, p.UpdatedAt.IsZero())

	got, err := store.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 4, got.GamesUntilBonus)
	assert.Equal(t, 0, got.BonusPlaysAvailable)
	assert.Empty(t, got.LastPlayDate)

	p.GamesUntilBonus = 0
	p.BonusPlaysAvailable = 2
	p.LastPlayDate = "2024-05-01"
	require.NoError(t, store.Save(ctx, p))

	got, err = store.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, got.GamesUntilBonus)
	assert.Equal(t, 2, got.BonusPlaysAvailable)
	assert.Equal(t, "2024-05-01", got.LastPlayDate)

	_, err = store.Get(ctx, "user-2")
	assert.ErrorIs(t, err, progression.ErrNotFound, "records are per user")
}

// testHistoryStore checks round history and the strategy aggregation.
func testHistoryStore(t *testing.T, store historyStore) {
	ctx := context.Background()

	rounds := []model.RoundRecord{
		{UserID: "user-1", Mode: "classic", DoorCount: 3, RevealCount: 1, InitialPick: 1, FinalPick: 2, PrizeDoor: 2, Switched: true, Won: true, PlayDate: "2024-05-01"},
		{UserID: "user-1", Mode: "classic", DoorCount: 3, RevealCount: 1, InitialPick: 1, FinalPick: 3, PrizeDoor: 1, Switched: true, Won: false, PlayDate: "2024-05-02"},
		{UserID: "user-1", Mode: "classic", DoorCount: 3, RevealCount: 1, InitialPick: 2, FinalPick: 2, PrizeDoor: 2, Switched: false, Won: true, UsedBonus: true, PlayDate: "2024-05-03"},
		{UserID: "user-2", Mode: "classic", DoorCount: 3, RevealCount: 1, InitialPick: 3, FinalPick: 3, PrizeDoor: 1, PlayDate: "2024-05-03"},
	}
	for i := range rounds {
		require.NoError(t, store.CreateRound(ctx, &rounds[i]))
		assert.NotEqual(t, uuid.Nil, rounds[i].ID)
	}

	got, err := store.GetRounds(ctx, "user-1", 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "2024-05-03", got[0].PlayDate, "newest first")
	assert.True(t, got[0].UsedBonus)
	assert.Equal(t, rounds[2].ID, got[0].ID)

	limited, err := store.GetRounds(ctx, "user-1", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	stats, err := store.GetStrategyStats(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, model.StrategyStats{Switched: false, Played: 1, Won: 1}, stats[0])
	assert.Equal(t, model.StrategyStats{Switched: true, Played: 2, Won: 1}, stats[1])

	none, err := store.GetStrategyStats(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}
