package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, time.Hour, cfg.SweepInterval)
	assert.Equal(t, 100.0, cfg.RateLimit.MaxTokens)
	assert.Equal(t, 50.0, cfg.RateLimit.RefillRate)
}

func TestLoadRateLimitFromEnv(t *testing.T) {
	t.Setenv("RATE_LIMIT_MAX_TOKENS", "250")
	t.Setenv("RATE_LIMIT_REFILL_RATE", "12.5")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 250.0, cfg.RateLimit.MaxTokens)
	assert.Equal(t, 12.5, cfg.RateLimit.RefillRate)
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	t.Setenv("RATE_LIMIT_MAX_TOKENS", "plenty")

	_, err := Load()

	assert.Error(t, err)
}
