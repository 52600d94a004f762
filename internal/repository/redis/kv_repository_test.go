//go:build !integration

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unreachableClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestKVRepository_BreakerOpensOnUnreachableRedis(t *testing.T) {
	repo := NewKVRepository(unreachableClient(t), BreakerConfig{
		Name:             "test",
		FailureThreshold: 2,
		Timeout:          time.Minute,
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, found, err := repo.Get(ctx, "ab_tests")
		require.Error(t, err)
		assert.False(t, found)
	}
	assert.Equal(t, gobreaker.StateOpen, repo.State())

	err := repo.Set(ctx, "ab_tests", "[]")
	require.Error(t, err)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestNewKVRepository_DefaultsThreshold(t *testing.T) {
	repo := NewKVRepository(unreachableClient(t), BreakerConfig{Name: "defaults"})
	assert.Equal(t, gobreaker.StateClosed, repo.State())
}
