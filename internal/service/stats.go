package service

import (
	"context"
	"fmt"

	"prize-door-game/internal/model"
)

// DefaultHistoryLimit caps RecentRounds when no positive limit is given.
const DefaultHistoryLimit = 10

// StrategyReport compares staying with switching for one player.
type StrategyReport struct {
	Stay   model.StrategyStats `json:"stay"`
	Switch model.StrategyStats `json:"switch"`
}

// Played returns the total number of recorded rounds.
func (r StrategyReport) Played() int {
	return r.Stay.Played + r.Switch.Played
}

// StatsService reads round history.
type StatsService struct {
	history History
}

// NewStatsService creates a new StatsService instance.
func NewStatsService(history History) *StatsService {
	return &StatsService{history: history}
}

// StrategyStats returns the player's win rate with and without switching.
func (s *StatsService) StrategyStats(ctx context.Context, userID string) (*StrategyReport, error) {
	stats, err := s.history.GetStrategyStats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get strategy stats: %w", err)
	}

	report := &StrategyReport{
		Stay:   model.StrategyStats{Switched: false},
		Switch: model.StrategyStats{Switched: true},
	}
	for _, st := range stats {
		if st.Switched {
			report.Switch = st
		} else {
			report.Stay = st
		}
	}
	return report, nil
}

// RecentRounds returns the player's latest rounds, newest first.
func (s *StatsService) RecentRounds(ctx context.Context, userID string, limit int) ([]*model.RoundRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	rounds, err := s.history.GetRounds(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get rounds: %w", err)
	}
	return rounds, nil
}
