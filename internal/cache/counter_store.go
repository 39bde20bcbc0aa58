package cache

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// CounterStore is the TTL-keyed store backing the 2FA rate and lockout
// counters. It is injected into the engine so tests can run against
// miniredis with per-test isolation.
type CounterStore interface {
	// Incr adds 1 to key and returns the new value. The ttl is applied
	// only when the increment opens a fresh window (count == 1), so the
	// window is fixed from the first event, not sliding.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

type RedisCounterStore struct {
	client *redis.Client
}

func NewRedisCounterStore(client *redis.Client) *RedisCounterStore {
	return &RedisCounterStore{client: client}
}

func (s *RedisCounterStore) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("counter incr %s: %w", key, err)
	}
	if count == 1 {
		if err := s.client.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("counter expire %s: %w", key, err)
		}
	}
	return count, nil
}

func (s *RedisCounterStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("counter get %s: %w", key, err)
	}
	return v, true, nil
}

func (s *RedisCounterStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("counter set %s: %w", key, err)
	}
	return nil
}

func (s *RedisCounterStore) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("counter del: %w", err)
	}
	return nil
}
