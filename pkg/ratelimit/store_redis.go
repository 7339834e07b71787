package ratelimit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// redisKeyQuotaState is the Redis key holding the serialized quota state.
const redisKeyQuotaState = "gitscout:quota:state"

// RedisStore shares quota state between processes via Redis. Every harvester
// pointed at the same Redis sees the same server budget, so a quota wait in
// one process is honored by all of them.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed quota store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Load implements Store.
func (s *RedisStore) Load(ctx context.Context) (QuotaState, bool, error) {
	var state QuotaState

	raw, err := s.client.Get(ctx, redisKeyQuotaState).Result()
	if err == redis.Nil {
		return state, false, nil
	}
	if err != nil {
		return state, false, fmt.Errorf("load quota state: %w", err)
	}

	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return state, false, fmt.Errorf("parse quota state: %w", err)
	}
	return state, true, nil
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, state QuotaState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal quota state: %w", err)
	}

	if err := s.client.Set(ctx, redisKeyQuotaState, raw, 0).Err(); err != nil {
		return fmt.Errorf("store quota state in redis: %w", err)
	}
	return nil
}
