package config

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.CrashProbability != 0.02 {
		t.Errorf("CrashProbability = %v", cfg.CrashProbability)
	}
	if !cfg.StartingBalance.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("StartingBalance = %s", cfg.StartingBalance)
	}
	if cfg.Countdown != 5 || cfg.CountdownTick != time.Second {
		t.Errorf("countdown = %d x %s", cfg.Countdown, cfg.CountdownTick)
	}
	if cfg.FlightTick != 100*time.Millisecond || cfg.CrashDwell != 3*time.Second {
		t.Errorf("flight tick %s, dwell %s", cfg.FlightTick, cfg.CrashDwell)
	}
	if cfg.HistorySize != 20 {
		t.Errorf("HistorySize = %d", cfg.HistorySize)
	}
	if cfg.Currency != "USD" {
		t.Errorf("Currency = %q", cfg.Currency)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CRASH_TICK_PROBABILITY", "0.015")
	t.Setenv("STARTING_BALANCE", "250.50")
	t.Setenv("FLIGHT_TICK", "50ms")
	t.Setenv("LOG_FILE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CrashProbability != 0.015 {
		t.Errorf("CrashProbability = %v", cfg.CrashProbability)
	}
	if !cfg.StartingBalance.Equal(decimal.RequireFromString("250.5")) {
		t.Errorf("StartingBalance = %s", cfg.StartingBalance)
	}
	if cfg.FlightTick != 50*time.Millisecond {
		t.Errorf("FlightTick = %s", cfg.FlightTick)
	}
	if !cfg.LogFile {
		t.Error("LogFile should be true")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{"CRASH_TICK_PROBABILITY", "abc", "parse CRASH_TICK_PROBABILITY"},
		{"CRASH_TICK_PROBABILITY", "1", "must be in (0, 1)"},
		{"STARTING_BALANCE", "-5", "must not be negative"},
		{"COUNTDOWN_SECONDS", "0", "at least 1"},
		{"FLIGHT_TICK", "fast", "parse FLIGHT_TICK"},
		{"HISTORY_SIZE", "0", "HISTORY_SIZE"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}
