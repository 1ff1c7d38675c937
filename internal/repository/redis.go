package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"prize-door-game/internal/model"
	"prize-door-game/internal/progression"
)

// RedisStoreConfig holds key layout settings for RedisStore.
type RedisStoreConfig struct {
	KeyPrefix string
	// TTL expires idle progression records. Zero keeps them forever.
	TTL time.Duration
	// HistoryLimit caps the per-player round list.
	HistoryLimit int
}

// RedisStore keeps progression as JSON values and round history as capped lists.
type RedisStore struct {
	client       *redis.Client
	prefix       string
	ttl          time.Duration
	historyLimit int
}

// NewRedisStore creates a RedisStore with defaults for unset fields.
func NewRedisStore(client *redis.Client, cfg RedisStoreConfig) *RedisStore {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "doorgame:"
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 100
	}
	return &RedisStore{
		client:       client,
		prefix:       cfg.KeyPrefix,
		ttl:          cfg.TTL,
		historyLimit: cfg.HistoryLimit,
	}
}

func (s *RedisStore) progressionKey(userID string) string {
	return s.prefix + "progression:" + userID
}

func (s *RedisStore) roundsKey(userID string) string {
	return s.prefix + "rounds:" + userID
}

// Get retrieves a player's progression.
// Returns progression.ErrNotFound if the key does not exist.
func (s *RedisStore) Get(ctx context.Context, userID string) (*model.Progression, error) {
	data, err := s.client.Get(ctx, s.progressionKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, progression.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get progression: %w", err)
	}

	var p model.Progression
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal progression: %w", err)
	}
	return &p, nil
}

// Save writes a player's progression as a single SET.
func (s *RedisStore) Save(ctx context.Context, p *model.Progression) error {
	p.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal progression: %w", err)
	}

	if err := s.client.Set(ctx, s.progressionKey(p.UserID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save progression: %w", err)
	}
	return nil
}

// CreateRound pushes a round onto the player's history and trims it.
func (s *RedisStore) CreateRound(ctx context.Context, rec *model.RoundRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	rec.CreatedAt = time.Now().UTC()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal round: %w", err)
	}

	key := s.roundsKey(rec.UserID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, data)
		pipe.LTrim(ctx, key, 0, int64(s.historyLimit-1))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create round: %w", err)
	}
	return nil
}

// GetRounds returns up to limit rounds, newest first.
func (s *RedisStore) GetRounds(ctx context.Context, userID string, limit int) ([]*model.RoundRecord, error) {
	if limit <= 0 {
		return nil, nil
	}
	items, err := s.client.LRange(ctx, s.roundsKey(userID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get rounds: %w", err)
	}

	rounds := make([]*model.RoundRecord, 0, len(items))
	for _, item := range items {
		var rec model.RoundRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal round: %w", err)
		}
		rounds = append(rounds, &rec)
	}
	return rounds, nil
}

// GetStrategyStats aggregates the retained history by whether the player switched.
func (s *RedisStore) GetStrategyStats(ctx context.Context, userID string) ([]model.StrategyStats, error) {
	rounds, err := s.GetRounds(ctx, userID, s.historyLimit)
	if err != nil {
		return nil, err
	}
	return aggregateStrategy(rounds), nil
}

// aggregateStrategy groups rounds into stay (false) then switch (true) buckets,
// omitting empty buckets.
func aggregateStrategy(rounds []*model.RoundRecord) []model.StrategyStats {
	buckets := [2]model.StrategyStats{{Switched: false}, {Switched: true}}
	for _, r := range rounds {
		i := 0
		if r.Switched {
			i = 1
		}
		buckets[i].Played++
		if r.Won {
			buckets[i].Won++
		}
	}

	var stats []model.StrategyStats
	for _, b := range buckets {
		if b.Played > 0 {
			stats = append(stats, b)
		}
	}
	return stats
}
