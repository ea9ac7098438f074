package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBase(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ADMIN_API_KEY", "admin-key")
}

func TestLoadDefaults(t *testing.T) {
	setBase(t)
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, 1440, cfg.AccessTTL)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, BookingConfig{
		MaxAttempts:  3,
		RetryBackoff: 50 * time.Millisecond,
		LockWait:     5 * time.Second,
		TxTimeout:    10 * time.Second,
	}, cfg.Booking)
	assert.Equal(t, time.Minute, cfg.Audit.Interval)
	assert.Equal(t, 30*time.Second, cfg.Audit.HoldAlarm)
	assert.Equal(t, "logs", cfg.BookingLog)
	assert.False(t, cfg.IsProd())

	for env, want := range map[string]bool{"prod": true, "Production": true, "staging": false} {
		assert.Equal(t, want, Config{Env: env}.IsProd(), env)
	}
}

func TestLoadMySQLRequiresConnection(t *testing.T) {
	setBase(t)
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("DB_USER", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_USER")
	assert.Contains(t, err.Error(), "DB_HOST")

	t.Setenv("DB_USER", "app")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_NAME", "trains")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverMySQL, cfg.StoreDriver)
	assert.Equal(t, "db", cfg.DBHost)
}

func TestLoadRejectsBadValues(t *testing.T) {
	setBase(t)
	t.Setenv("STORE_DRIVER", "oracle")
	t.Setenv("BOOKING_MAX_ATTEMPTS", "0")
	t.Setenv("BOOKING_LOCK_WAIT", "soon")
	t.Setenv("APP_PORT", "")

	_, err := Load()
	require.Error(t, err)
	for _, want := range []string{"STORE_DRIVER", "BOOKING_MAX_ATTEMPTS", "BOOKING_LOCK_WAIT", "APP_PORT"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoadRateLimitConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 2*time.Second, cfg.RefillInterval)
	assert.Equal(t, 10*time.Second, cfg.TTL)
}

func TestLoadRedisConfig(t *testing.T) {
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_TLS", "1")
	cfg := LoadRedisConfig()
	assert.Equal(t, "cache:6380", cfg.Addr)
	assert.True(t, cfg.TLS)
}
