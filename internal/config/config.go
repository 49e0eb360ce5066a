package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	ListenAddr string

	LogLevel string
	LogDir   string
	LogFile  bool

	CrashProbability float64
	StartingBalance  decimal.Decimal
	Countdown        int
	CountdownTick    time.Duration
	FlightTick       time.Duration
	CrashDwell       time.Duration
	HistorySize      int

	RateLimitPerSec float64
	RateLimitBurst  int

	Currency string
}

// Load reads the configuration from the environment, falling back to the
// defaults for unset variables.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr: getEnv("LISTEN_ADDR", ":8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogDir:     getEnv("LOG_DIR", "logs"),
		Currency:   getEnv("CURRENCY", "USD"),
	}

	var err error
	if cfg.LogFile, err = parseEnv("LOG_FILE", "false", strconv.ParseBool); err != nil {
		return nil, err
	}
	if cfg.CrashProbability, err = parseEnv("CRASH_TICK_PROBABILITY", "0.02", parseFloat); err != nil {
		return nil, err
	}
	if cfg.StartingBalance, err = parseEnv("STARTING_BALANCE", "10000", decimal.NewFromString); err != nil {
		return nil, err
	}
	if cfg.Countdown, err = parseEnv("COUNTDOWN_SECONDS", "5", strconv.Atoi); err != nil {
		return nil, err
	}
	if cfg.CountdownTick, err = parseEnv("COUNTDOWN_TICK", "1s", time.ParseDuration); err != nil {
		return nil, err
	}
	if cfg.FlightTick, err = parseEnv("FLIGHT_TICK", "100ms", time.ParseDuration); err != nil {
		return nil, err
	}
	if cfg.CrashDwell, err = parseEnv("CRASH_DWELL", "3s", time.ParseDuration); err != nil {
		return nil, err
	}
	if cfg.HistorySize, err = parseEnv("HISTORY_SIZE", "20", strconv.Atoi); err != nil {
		return nil, err
	}
	if cfg.RateLimitPerSec, err = parseEnv("RATE_LIMIT_PER_SEC", "10", parseFloat); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = parseEnv("RATE_LIMIT_BURST", "20", strconv.Atoi); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case !(c.CrashProbability > 0 && c.CrashProbability < 1):
		return fmt.Errorf("CRASH_TICK_PROBABILITY must be in (0, 1), got %v", c.CrashProbability)
	case c.StartingBalance.IsNegative():
		return fmt.Errorf("STARTING_BALANCE must not be negative, got %s", c.StartingBalance)
	case c.Countdown < 1:
		return fmt.Errorf("COUNTDOWN_SECONDS must be at least 1, got %d", c.Countdown)
	case c.CountdownTick <= 0 || c.FlightTick <= 0 || c.CrashDwell <= 0:
		return fmt.Errorf("tick durations must be positive")
	case c.HistorySize < 1:
		return fmt.Errorf("HISTORY_SIZE must be at least 1, got %d", c.HistorySize)
	case c.RateLimitPerSec <= 0 || c.RateLimitBurst < 1:
		return fmt.Errorf("rate limit must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func parseEnv[T any](key, fallback string, parse func(string) (T, error)) (T, error) {
	v, err := parse(getEnv(key, fallback))
	if err != nil {
		var zero T
		return zero, fmt.Errorf("parse %s: %w", key, err)
	}
	return v, nil
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}
