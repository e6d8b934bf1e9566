package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 50051, cfg.GRPCPort)
	assert.Equal(t, 100, cfg.Game.StartingHP)
	assert.Equal(t, 15*time.Minute, cfg.Game.SessionTTL)
	assert.Equal(t, 25, cfg.Dialogue.RequestsPerMinute)
	assert.Empty(t, cfg.Dialogue.APIKey, "dialogue is disabled out of the box")
	assert.Equal(t, 3, cfg.Persistence.RetryAttempts)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("REDIS_ADDR", "redis.internal:6380")
	t.Setenv("GAME_SESSION_TTL", "5m")
	t.Setenv("DB_RETRY_ATTEMPTS", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "redis.internal:6380", cfg.RedisAddr)
	assert.Equal(t, 5*time.Minute, cfg.Game.SessionTTL)
	assert.Equal(t, 5, cfg.Persistence.RetryAttempts)
}
