package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/playperu/animaparty/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want INFO", cfg.LogLevel)
	}
	if cfg.TotalRounds != 5 {
		t.Errorf("TotalRounds = %d, want 5", cfg.TotalRounds)
	}
	if cfg.ResultsDelay != 3*time.Second {
		t.Errorf("ResultsDelay = %v, want 3s", cfg.ResultsDelay)
	}
	if got := cfg.TickInterval(); got != time.Second/30 {
		t.Errorf("TickInterval = %v, want %v", got, time.Second/30)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TOTAL_ROUNDS", "2")
	t.Setenv("REACTION_WINDOW", "750ms")
	t.Setenv("SELECTION_MODE", "choice")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TotalRounds != 2 {
		t.Errorf("TotalRounds = %d, want 2", cfg.TotalRounds)
	}
	if cfg.ReactionWindow != 750*time.Millisecond {
		t.Errorf("ReactionWindow = %v, want 750ms", cfg.ReactionWindow)
	}
	if cfg.SelectionMode != config.SelectionChoice {
		t.Errorf("SelectionMode = %q, want choice", cfg.SelectionMode)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want DEBUG", cfg.LogLevel)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero tick rate", "TICK_RATE", "0"},
		{"zero rounds", "TOTAL_ROUNDS", "0"},
		{"unknown selection", "SELECTION_MODE", "vote"},
		{"single player cap", "MAX_PLAYERS", "1"},
		{"bad duration", "RESULTS_DELAY", "soon"},
		{"negative results delay", "RESULTS_DELAY", "-1s"},
		{"negative round timeout", "ROUND_TIMEOUT", "-5s"},
		{"zero dictator rounds", "DICTATOR_ROUNDS", "0"},
		{"zero prompt delay", "PROMPT_DELAY", "0s"},
		{"negative reaction window", "REACTION_WINDOW", "-500ms"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := config.Load(); err == nil {
				t.Fatalf("Load with %s=%s succeeded, want error", tt.key, tt.value)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	if err := config.LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing file: %v", err)
	}

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("ANIMAPARTY_TEST_KEY=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ANIMAPARTY_TEST_KEY", "from-env")

	if err := config.LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("ANIMAPARTY_TEST_KEY"); got != "from-env" {
		t.Errorf("ANIMAPARTY_TEST_KEY = %q, want existing value kept", got)
	}
}
