// Package metrics exposes Prometheus counters for rounds and persistence.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Persistence operations reported by PersistenceError.
const (
	OpProgression = "progression"
	OpHistory     = "history"
)

// Metrics holds the game counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	RoundsStarted     *prometheus.CounterVec
	RoundsResolved    *prometheus.CounterVec
	BonusPlaysEarned  prometheus.Counter
	PersistenceErrors *prometheus.CounterVec
}

// New creates the counters and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RoundsStarted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "doorgame_rounds_started_total",
			Help: "Rounds started, by mode and whether a bonus play was spent.",
		}, []string{"mode", "bonus"}),
		RoundsResolved: f.NewCounterVec(prometheus.CounterOpts{
			Name: "doorgame_rounds_resolved_total",
			Help: "Rounds resolved, by mode, result and whether the player switched.",
		}, []string{"mode", "result", "switched"}),
		BonusPlaysEarned: f.NewCounter(prometheus.CounterOpts{
			Name: "doorgame_bonus_plays_earned_total",
			Help: "Bonus plays banked by finishing the countdown.",
		}),
		PersistenceErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "doorgame_persistence_errors_total",
			Help: "Failed writes to the backing store, by operation.",
		}, []string{"op"}),
	}
}

// RoundStarted counts a started round.
func (m *Metrics) RoundStarted(mode string, bonus bool) {
	if m == nil {
		return
	}
	m.RoundsStarted.WithLabelValues(mode, strconv.FormatBool(bonus)).Inc()
}

// RoundResolved counts a resolved round.
func (m *Metrics) RoundResolved(mode string, won, switched bool) {
	if m == nil {
		return
	}
	result := "loss"
	if won {
		result = "win"
	}
	m.RoundsResolved.WithLabelValues(mode, result, strconv.FormatBool(switched)).Inc()
}

// BonusPlayEarned counts a banked bonus play.
func (m *Metrics) BonusPlayEarned() {
	if m == nil {
		return
	}
	m.BonusPlaysEarned.Inc()
}

// PersistenceError counts a failed write for op.
func (m *Metrics) PersistenceError(op string) {
	if m == nil {
		return
	}
	m.PersistenceErrors.WithLabelValues(op).Inc()
}
