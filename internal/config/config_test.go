package config

import (
	"testing"
	"time"

	"github.com/faucet-analytics/internal/chains"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"SERVER_PORT", "SERVER_HOST", "RATE_LIMIT_RPS",
		"POSTGRES_HOST", "POSTGRES_DB", "REDIS_HOST",
		"REFRESH_INTERVAL", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8001", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 20, cfg.Server.RequestsPerSec)
	assert.Equal(t, "localhost", cfg.Database.Postgres.Host)
	assert.Equal(t, "faucet_analytics", cfg.Database.Postgres.Database)
	assert.False(t, cfg.Database.Redis.Enabled())
	assert.Equal(t, 3*time.Hour, cfg.Refresh.Interval)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("RATE_LIMIT_RPS", "5")
	t.Setenv("REFRESH_INTERVAL", "1h")
	t.Setenv("REDIS_HOST", "localhost")
	t.Setenv("REDIS_SNAPSHOT_TTL", "30s")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, 5, cfg.Server.RequestsPerSec)
	assert.Equal(t, time.Hour, cfg.Refresh.Interval)
	assert.True(t, cfg.Database.Redis.Enabled())
	assert.Equal(t, 30*time.Second, cfg.Database.Redis.SnapshotTTL)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfigBadValuesFallBack(t *testing.T) {
	t.Setenv("RATE_LIMIT_RPS", "not-a-number")
	t.Setenv("REFRESH_INTERVAL", "not-a-duration")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.Server.RequestsPerSec)
	assert.Equal(t, 3*time.Hour, cfg.Refresh.Interval)
}

func TestRPCURLOverrides(t *testing.T) {
	t.Setenv("CELO_RPC_URLS", " https://a.example , https://b.example ,")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	celo, ok := chains.ByChainID(42220)
	require.True(t, ok)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.RPCURLs(celo))

	// Chains without an override keep their registry URLs.
	base, ok := chains.ByChainID(8453)
	require.True(t, ok)
	assert.Equal(t, base.RPCURLs, cfg.RPCURLs(base))
}

func TestRedisEnabled(t *testing.T) {
	assert.False(t, (&RedisConfig{}).Enabled())
	assert.True(t, (&RedisConfig{Host: "localhost"}).Enabled())
}
