// Package config reads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the settings shared by the api, worker and notifier binaries.
type Config struct {
	DatabaseURL       string
	RabbitMQURL       string
	RedisURL          string
	AuthPublicKeyPath string
	AuthIssuer        string
	HTTPAddr          string

	DBLockTimeout      time.Duration
	BidMaxAttempts     int
	OutboxBatchSize    int
	OutboxPollInterval time.Duration
	SweepInterval      time.Duration
	RunMigrations      bool
}

// Load reads .env.local and .env when present, then the process environment.
// Values already set in the environment win over the files.
func Load() (*Config, error) {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from lookup, applying defaults for unset keys.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		DatabaseURL:       get("DATABASE_URL", ""),
		RabbitMQURL:       get("RABBITMQ_URL", ""),
		RedisURL:          get("REDIS_URL", ""),
		AuthPublicKeyPath: get("AUTH_PUBLIC_KEY_PATH", ""),
		AuthIssuer:        get("AUTH_ISSUER", "tradepost-auth"),
		HTTPAddr:          get("HTTP_ADDR", ":8080"),
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}

	var errs []error
	duration := func(key, def string) time.Duration {
		d, err := time.ParseDuration(get(key, def))
		if err == nil && d <= 0 {
			err = errors.New("must be positive")
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return d
	}
	positive := func(key, def string) int {
		n, err := strconv.Atoi(get(key, def))
		if err == nil && n <= 0 {
			err = errors.New("must be positive")
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return n
	}

	cfg.DBLockTimeout = duration("DB_LOCK_TIMEOUT", "3s")
	cfg.OutboxPollInterval = duration("OUTBOX_POLL_INTERVAL", "1s")
	cfg.SweepInterval = duration("SWEEP_INTERVAL", "30s")
	cfg.BidMaxAttempts = positive("BID_MAX_ATTEMPTS", "3")
	cfg.OutboxBatchSize = positive("OUTBOX_BATCH_SIZE", "10")

	runMigrations, err := strconv.ParseBool(get("RUN_MIGRATIONS", "false"))
	if err != nil {
		errs = append(errs, fmt.Errorf("RUN_MIGRATIONS: %w", err))
	}
	cfg.RunMigrations = runMigrations

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}
