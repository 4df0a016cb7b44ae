package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	SelectionRandom = "random"
	SelectionChoice = "choice"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/animaparty.db"`
	RedisURL string     `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`

	// TickRate is the number of game loop ticks per second.
	TickRate      int           `env:"TICK_RATE" envDefault:"30"`
	TotalRounds   int           `env:"TOTAL_ROUNDS" envDefault:"5"`
	ResultsDelay  time.Duration `env:"RESULTS_DELAY" envDefault:"3s"`
	RoundTimeout  time.Duration `env:"ROUND_TIMEOUT" envDefault:"2m"`
	SelectionMode string        `env:"SELECTION_MODE" envDefault:"random"`
	MaxPlayers    int           `env:"MAX_PLAYERS" envDefault:"4"`

	DictatorRounds int           `env:"DICTATOR_ROUNDS" envDefault:"3"`
	PromptDelay    time.Duration `env:"PROMPT_DELAY" envDefault:"1s"`
	ReactionWindow time.Duration `env:"REACTION_WINDOW" envDefault:"500ms"`
}

// LoadDotEnv loads variables from a .env file if present. Variables already
// set in the environment win.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// TickInterval is the wall-clock duration of one game loop tick.
func (c *Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

func (c *Config) validate() error {
	var errs []error
	if c.TickRate <= 0 || c.TickRate > 240 {
		errs = append(errs, fmt.Errorf("TICK_RATE must be between 1 and 240, got %d", c.TickRate))
	}
	if c.TotalRounds <= 0 {
		errs = append(errs, fmt.Errorf("TOTAL_ROUNDS must be positive, got %d", c.TotalRounds))
	}
	if c.SelectionMode != SelectionRandom && c.SelectionMode != SelectionChoice {
		errs = append(errs, fmt.Errorf("SELECTION_MODE must be %q or %q, got %q", SelectionRandom, SelectionChoice, c.SelectionMode))
	}
	if c.MaxPlayers < 2 {
		errs = append(errs, fmt.Errorf("MAX_PLAYERS must be at least 2, got %d", c.MaxPlayers))
	}
	if c.ResultsDelay < 0 {
		errs = append(errs, fmt.Errorf("RESULTS_DELAY must not be negative, got %s", c.ResultsDelay))
	}
	if c.RoundTimeout < 0 {
		errs = append(errs, fmt.Errorf("ROUND_TIMEOUT must not be negative, got %s", c.RoundTimeout))
	}
	if c.DictatorRounds <= 0 {
		errs = append(errs, fmt.Errorf("DICTATOR_ROUNDS must be positive, got %d", c.DictatorRounds))
	}
	if c.PromptDelay <= 0 {
		errs = append(errs, fmt.Errorf("PROMPT_DELAY must be positive, got %s", c.PromptDelay))
	}
	if c.ReactionWindow <= 0 {
		errs = append(errs, fmt.Errorf("REACTION_WINDOW must be positive, got %s", c.ReactionWindow))
	}
	return errors.Join(errs...)
}
