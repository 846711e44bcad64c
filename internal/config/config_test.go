package config

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("CSRF_ENABLED", "false")

	cfg := Load()
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "sqlite", cfg.StoreDriver)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, 120, cfg.SessionTTLMin)
	assert.Equal(t, "organiser", cfg.RegisterRole)
	assert.True(t, cfg.EnforceRoles)
	assert.Nil(t, cfg.CSRFKey)
	assert.False(t, cfg.IsProduction())
}

func TestLoadFallsBackToAccessTokenSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ACCESS_TOKEN_SECRET", "legacy")
	t.Setenv("CSRF_ENABLED", "false")

	assert.Equal(t, "legacy", Load().JWTSecret)
}

func TestLoadCSRFKeyFromHex(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("CSRF_KEY", "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f")

	cfg := Load()
	assert.Len(t, cfg.CSRFKey, 32)
	assert.Equal(t, byte(0x1f), cfg.CSRFKey[31])
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_TOKENS", "-2")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 1, cfg.RefillTokens)
	assert.Equal(t, 2*time.Second, cfg.RefillInterval)
	assert.Equal(t, 10*time.Second, cfg.TTL)
	assert.Equal(t, "ip_user_route", cfg.KeyStrategy)
}

func TestLoadRateLimitConfigDefaults(t *testing.T) {
	cfg := LoadRateLimitConfig()
	assert.Equal(t, 20, cfg.Capacity)
	assert.Equal(t, 3*time.Second, cfg.RefillInterval)
	assert.Equal(t, 10*time.Minute, cfg.TTL)
	assert.Equal(t, "rl", cfg.Prefix)
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("CACHE_TTL", "bogus")
	t.Setenv("CACHE_MAX_BODY_BYTES", "2048")

	cfg := LoadCacheConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 30*time.Second, cfg.TTL)
	assert.Equal(t, "cache", cfg.Prefix)
	assert.Equal(t, 2048, cfg.MaxBodyBytes)

	t.Setenv("CACHE_ENABLED", "off")
	assert.False(t, LoadCacheConfig().Enabled)
}

func TestRedisOptions(t *testing.T) {
	t.Setenv("REDIS_URL", "")
	t.Setenv("REDIS_ADDR", "cache.internal:6380")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("REDIS_TLS", "true")

	opts, err := redisOptions()
	require.NoError(t, err)
	assert.Equal(t, "cache.internal:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.NotNil(t, opts.TLSConfig)

	t.Setenv("REDIS_URL", "redis://:pw@10.0.0.5:6379/3")
	opts, err = redisOptions()
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5:6379", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 3, opts.DB)

	t.Setenv("REDIS_URL", "http://nope")
	_, err = redisOptions()
	assert.Error(t, err)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Setenv("REDIS_URL", "")
	t.Setenv("REDIS_DISABLED", "")
	t.Setenv("REDIS_ADDR", mr.Addr())

	client := NewRedisClient()
	require.NotNil(t, client)
	t.Cleanup(func() { _ = client.Close() })

	t.Setenv("REDIS_DISABLED", "1")
	assert.Nil(t, NewRedisClient())

	t.Setenv("REDIS_DISABLED", "")
	mr.Close()
	assert.Nil(t, NewRedisClient())
}

func TestEnvBool(t *testing.T) {
	t.Setenv("FLAG_ON", "Yes")
	t.Setenv("FLAG_OFF", "0")
	t.Setenv("FLAG_ODD", "maybe")

	assert.True(t, envBool("FLAG_ON", false))
	assert.False(t, envBool("FLAG_OFF", true))
	assert.True(t, envBool("FLAG_ODD", true))
	assert.False(t, envBool("FLAG_MISSING", false))
}
