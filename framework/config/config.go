package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the central typed configuration struct.
type Config struct {
	App     AppConfig
	Log     LogConfig
	Tick    TickConfig
	Console ConsoleConfig
}

type AppConfig struct {
	Name  string `env:"APP_NAME" envDefault:"GameCore"`
	Env   string `env:"APP_ENV" envDefault:"local"` // local | production | testing
	Debug bool   `env:"APP_DEBUG" envDefault:"true"`
}

type LogConfig struct {
	// Level left empty means debug, or info when APP_ENV is production.
	Level  string `env:"LOG_LEVEL"`
	Format string `env:"LOG_FORMAT" envDefault:"console"` // console | json
}

type TickConfig struct {
	// Rate is the frame period of the reference host loop.
	Rate time.Duration `env:"TICK_RATE" envDefault:"16ms"`
	// FrameBudget bounds how long one master tick waits for async handlers.
	FrameBudget time.Duration `env:"TICK_FRAME_BUDGET" envDefault:"0s"`
}

type ConsoleConfig struct {
	// Addr enables the HTTP dev console when non-empty, e.g. ":8080".
	Addr  string `env:"CONSOLE_ADDR"`
	Stdin bool   `env:"CONSOLE_STDIN" envDefault:"true"`
}

// Load reads .env files (if present) and populates a Config from environment
// variables. Call once at bootstrap: cfg, err := config.Load()
func Load(envFiles ...string) (*Config, error) {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist in production
	_ = godotenv.Load(files...)

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Tick.Rate <= 0 {
		return nil, fmt.Errorf("parse env: TICK_RATE must be positive, got %s", cfg.Tick.Rate)
	}
	if cfg.Tick.FrameBudget < 0 {
		return nil, fmt.Errorf("parse env: TICK_FRAME_BUDGET must not be negative, got %s", cfg.Tick.FrameBudget)
	}
	return cfg, nil
}
