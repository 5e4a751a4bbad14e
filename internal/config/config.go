package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHoldTTL        = "15m"
	defaultSweepInterval  = "1m"
	defaultSyncInterval   = "5s"
	defaultSyncBackoff    = "2s"
	defaultSyncMaxRetries = "8"
	defaultJWTSecret      = "change-me-jwt-secret"
	defaultCurrency       = "USD"
	defaultRateLimitRPM   = "60"
)

// RuntimeConfig carries every tunable the reservation core reads from the
// environment. cmd binaries load .env first and then call Load.
type RuntimeConfig struct {
	AppEnv         string
	DatabaseURL    string
	JWTSecret      string
	AMQPURL        string
	RedisAddr      string
	CallbackToken  string
	Currency       string
	HoldTTL        time.Duration
	SweepInterval  time.Duration
	SyncInterval   time.Duration
	SyncBackoff    time.Duration
	SyncMaxRetries int
	RateLimitRPM   int
}

func Load() (*RuntimeConfig, error) {
	cfg := &RuntimeConfig{}

	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))
	cfg.AMQPURL = strings.TrimSpace(os.Getenv("AMQP_URL"))
	cfg.RedisAddr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	cfg.CallbackToken = strings.TrimSpace(os.Getenv("PAYMENT_CALLBACK_TOKEN"))
	cfg.Currency = strings.TrimSpace(getEnv("CURRENCY", defaultCurrency))

	var err error
	if cfg.HoldTTL, err = parseDurationEnv("HOLD_TTL", defaultHoldTTL); err != nil {
		return nil, err
	}
	if cfg.SweepInterval, err = parseDurationEnv("SWEEP_INTERVAL", defaultSweepInterval); err != nil {
		return nil, err
	}
	if cfg.SyncInterval, err = parseDurationEnv("SYNC_INTERVAL", defaultSyncInterval); err != nil {
		return nil, err
	}
	if cfg.SyncBackoff, err = parseDurationEnv("SYNC_BACKOFF", defaultSyncBackoff); err != nil {
		return nil, err
	}
	if cfg.SyncMaxRetries, err = parseIntEnv("SYNC_MAX_RETRIES", defaultSyncMaxRetries); err != nil {
		return nil, err
	}
	if cfg.RateLimitRPM, err = parseIntEnv("RATE_LIMIT_RPM", defaultRateLimitRPM); err != nil {
		return nil, err
	}

	if cfg.AppEnv == "prod" && cfg.JWTSecret == defaultJWTSecret {
		return nil, fmt.Errorf("JWT_SECRET must be set in prod")
	}
	if cfg.AppEnv == "prod" && cfg.CallbackToken == "" {
		return nil, fmt.Errorf("PAYMENT_CALLBACK_TOKEN must be set in prod")
	}

	return cfg, nil
}

func getEnv(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(name, def string) (time.Duration, error) {
	raw := getEnv(name, def)
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", name, raw, err)
	}
	return d, nil
}

func parseIntEnv(name, def string) (int, error) {
	raw := getEnv(name, def)
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", name, raw, err)
	}
	return n, nil
}
