package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"myLearnCore/pkg/kvstore"
	"myLearnCore/pkg/logger"

	"github.com/redis/go-redis/v9"
	gobreaker "github.com/sony/gobreaker/v2"
)

type BreakerConfig struct {
	Name             string
	FailureThreshold uint32
	Timeout          time.Duration
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "redis-kv",
		FailureThreshold: 5,
		Timeout:          30 * time.Second,
	}
}

// KVRepository stores blobs as plain redis strings. Every call runs through a
// circuit breaker so an unreachable redis fails fast instead of stalling reads.
type KVRepository struct {
	client  *redis.Client
	breaker *gobreaker.CircuitBreaker[string]
}

var _ kvstore.Store = (*KVRepository)(nil)

func NewKVRepository(client *redis.Client, cfg BreakerConfig) *KVRepository {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = DefaultBreakerConfig().FailureThreshold
	}
	settings := gobreaker.Settings{
		Name:    cfg.Name,
		Timeout: cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, redis.Nil)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("redis circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &KVRepository{
		client:  client,
		breaker: gobreaker.NewCircuitBreaker[string](settings),
	}
}

func (r *KVRepository) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.breaker.Execute(func() (string, error) {
		return r.client.Get(ctx, key).Result()
	})
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s from redis: %w", key, err)
	}
	return val, true, nil
}

func (r *KVRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.breaker.Execute(func() (string, error) {
		return "", r.client.Set(ctx, key, value, 0).Err()
	})
	if err != nil {
		return fmt.Errorf("failed to store %s in redis: %w", key, err)
	}
	return nil
}

func (r *KVRepository) Remove(ctx context.Context, key string) error {
	_, err := r.breaker.Execute(func() (string, error) {
		return "", r.client.Del(ctx, key).Err()
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s from redis: %w", key, err)
	}
	return nil
}

// State exposes the breaker state for health checks.
func (r *KVRepository) State() gobreaker.State {
	return r.breaker.State()
}
