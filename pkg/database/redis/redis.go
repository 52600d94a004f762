package redis

import (
	"context"
	"fmt"
	"net"
	"time"

	"myLearnCore/pkg/config"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

// Options maps the redis config section onto client options. Timeouts are
// short so a stalled server trips the repository's breaker quickly.
func Options(cfg config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:         net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  pingTimeout,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	}
}

// NewRedisClient connects and pings the configured redis instance.
func NewRedisClient(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(Options(cfg.Redis))

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", client.Options().Addr, err)
	}
	return client, nil
}

func CloseRedisClient(client *redis.Client) error {
	if client == nil {
		return nil
	}
	return client.Close()
}
