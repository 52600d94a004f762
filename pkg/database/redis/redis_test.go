//go:build !integration

package redis_test

import (
	"testing"

	"myLearnCore/pkg/config"
	redisdb "myLearnCore/pkg/database/redis"

	"github.com/stretchr/testify/assert"
)

func TestOptions(t *testing.T) {
	opts := redisdb.Options(config.RedisConfig{
		RedisHost:     "cache.internal",
		RedisPort:     "6380",
		RedisPassword: "pw",
		RedisDB:       2,
	})

	assert.Equal(t, "cache.internal:6380", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 2, opts.DB)
}

func TestCloseRedisClient_Nil(t *testing.T) {
	assert.NoError(t, redisdb.CloseRedisClient(nil))
}
