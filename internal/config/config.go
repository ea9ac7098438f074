// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The struct is built once at startup and passed
// explicitly to the components that need it.
type Config struct {
	Env         string // application environment (e.g. "dev", "prod")
	Port        string // HTTP port to listen on
	StoreDriver string // mysql, postgres or memory
	DBUser      string // MySQL username
	DBPass      string // MySQL password (optional)
	DBHost      string // MySQL host address
	DBPort      string // MySQL port number
	DBName      string // MySQL database name
	DatabaseURL string // Postgres connection string
	JWTSecret   string // secret used to sign JWTs
	AdminAPIKey string // key guarding train administration
	AccessTTL   int    // access token time-to-live in minutes
	BcryptCost  int    // bcrypt cost for password hashing
	AMQPURL     string // RabbitMQ URL; empty disables events
	BookingLog  string // directory the booking consumer writes to

	Booking   BookingConfig
	Audit     AuditConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Redis     RedisConfig
}

// BookingConfig tunes the reservation coordinator.
type BookingConfig struct {
	MaxAttempts  int
	RetryBackoff time.Duration
	LockWait     time.Duration
	TxTimeout    time.Duration
}

// AuditConfig tunes the background consistency auditor.  A zero Interval
// disables it.
type AuditConfig struct {
	Interval  time.Duration
	HoldAlarm time.Duration
}

// Load reads a .env file when present, then the environment, and returns
// a Config.  Every missing or malformed required variable is reported in
// the returned error.
func Load() (Config, error) {
	_ = godotenv.Load()

	var errs []error
	must := func(key string) string {
		v, ok := os.LookupEnv(key)
		if !ok || strings.TrimSpace(v) == "" {
			errs = append(errs, fmt.Errorf("missing required env var: %s", key))
		}
		return v
	}
	num := func(key string, def int) int {
		v := os.Getenv(key)
		if v == "" {
			return def
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid int for %s: %q", key, v))
		}
		return n
	}
	dur := func(key string, def time.Duration) time.Duration {
		v := os.Getenv(key)
		if v == "" {
			return def
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid duration for %s: %q", key, v))
		}
		return d
	}

	cfg := Config{
		Env:         must("APP_ENV"),
		Port:        must("APP_PORT"),
		StoreDriver: strings.ToLower(envStr("STORE_DRIVER", DriverMySQL)),
		JWTSecret:   must("JWT_SECRET"),
		AdminAPIKey: must("ADMIN_API_KEY"),
		AccessTTL:   num("ACCESS_TOKEN_TTL_MIN", 24*60),
		BcryptCost:  num("BCRYPT_COST", 10),
		AMQPURL:     firstEnv("RABBITMQ_URL", "AMQP_URL"),
		BookingLog:  envStr("BOOKING_LOG_DIR", "logs"),
		Booking: BookingConfig{
			MaxAttempts:  num("BOOKING_MAX_ATTEMPTS", 3),
			RetryBackoff: dur("BOOKING_RETRY_BACKOFF", 50*time.Millisecond),
			LockWait:     dur("BOOKING_LOCK_WAIT", 5*time.Second),
			TxTimeout:    dur("BOOKING_TX_TIMEOUT", 10*time.Second),
		},
		Audit: AuditConfig{
			Interval:  dur("AUDIT_INTERVAL", time.Minute),
			HoldAlarm: dur("AUDIT_HOLD_ALARM", 30*time.Second),
		},
		RateLimit: LoadRateLimitConfig(),
		Cache:     LoadCacheConfig(),
		Redis:     LoadRedisConfig(),
	}

	switch cfg.StoreDriver {
	case DriverMySQL:
		cfg.DBUser = must("DB_USER")
		cfg.DBPass = os.Getenv("DB_PASS")
		cfg.DBHost = must("DB_HOST")
		cfg.DBPort = must("DB_PORT")
		cfg.DBName = must("DB_NAME")
	case DriverPostgres:
		cfg.DatabaseURL = must("DATABASE_URL")
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver))
	}

	if cfg.Booking.MaxAttempts < 1 {
		errs = append(errs, errors.New("BOOKING_MAX_ATTEMPTS must be at least 1"))
	}
	if cfg.Booking.TxTimeout <= 0 {
		errs = append(errs, errors.New("BOOKING_TX_TIMEOUT must be positive"))
	}
	if cfg.AccessTTL <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_TTL_MIN must be positive"))
	}
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// IsProd reports whether the service runs in production.
func (c Config) IsProd() bool {
	switch strings.ToLower(c.Env) {
	case "prod", "production":
		return true
	}
	return false
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
