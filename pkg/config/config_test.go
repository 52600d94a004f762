//go:build !integration

package config_test

import (
	"testing"
	"time"

	"myLearnCore/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("REDIS_DB", "")
	t.Setenv("SEED_DEMO_EXPERIMENTS", "")
	t.Setenv("RATE_LIMIT", "")
	t.Setenv("ANALYTICS_RECOMPUTE_INTERVAL", "")
	t.Setenv("PORT", "")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.InDelta(t, 20.0, cfg.Server.RateLimit, 1e-9)
	assert.Zero(t, cfg.Redis.RedisDB)
	assert.Zero(t, cfg.Analytics.RecomputeInterval)
	assert.True(t, cfg.App.SeedDemo)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORAGE_BACKEND", "redis")
	t.Setenv("STORAGE_NAMESPACE", "tenant_a")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("ANALYTICS_RECOMPUTE_INTERVAL", "15m")
	t.Setenv("BADGER_IN_MEMORY", "true")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.BackendRedis, cfg.Storage.Backend)
	assert.Equal(t, "tenant_a", cfg.Storage.Namespace)
	assert.Equal(t, 3, cfg.Redis.RedisDB)
	assert.Equal(t, 15*time.Minute, cfg.Analytics.RecomputeInterval)
	assert.True(t, cfg.Badger.InMemory)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing jwt secret", env: map[string]string{"JWT_SECRET": ""}},
		{name: "bad redis db", env: map[string]string{"REDIS_DB": "one"}},
		{name: "unknown backend", env: map[string]string{"STORAGE_BACKEND": "mongo"}},
		{name: "postgres without password", env: map[string]string{"STORAGE_BACKEND": "postgres", "DB_PASSWORD": ""}},
		{name: "bad interval", env: map[string]string{"ANALYTICS_RECOMPUTE_INTERVAL": "soon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "secret")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}
