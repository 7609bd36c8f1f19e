package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/km-arc/go-gamecore/framework/config"
)

// ── Load ─────────────────────────────────────────────────────────────────────

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("testdata/empty.env")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"App.Name", cfg.App.Name, "GameCore"},
		{"App.Env", cfg.App.Env, "local"},
		{"App.Debug", cfg.App.Debug, true},
		{"Log.Level", cfg.Log.Level, ""},
		{"Log.Format", cfg.Log.Format, "console"},
		{"Tick.Rate", cfg.Tick.Rate, 16 * time.Millisecond},
		{"Tick.FrameBudget", cfg.Tick.FrameBudget, time.Duration(0)},
		{"Console.Addr", cfg.Console.Addr, ""},
		{"Console.Stdin", cfg.Console.Stdin, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("TICK_FRAME_BUDGET", "250ms")
	t.Setenv("CONSOLE_ADDR", ":8080")

	cfg, err := config.Load("testdata/empty.env")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.App.Env != "production" {
		t.Errorf("App.Env: got %q", cfg.App.Env)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format: got %q", cfg.Log.Format)
	}
	if cfg.Tick.FrameBudget != 250*time.Millisecond {
		t.Errorf("Tick.FrameBudget: got %v", cfg.Tick.FrameBudget)
	}
	if cfg.Console.Addr != ":8080" {
		t.Errorf("Console.Addr: got %q", cfg.Console.Addr)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	// godotenv never overrides variables that are already set; Setenv
	// registers the cleanup, Unsetenv clears the way for the file.
	for _, key := range []string{"APP_NAME", "TICK_RATE"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := config.Load("testdata/game.env")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.App.Name != "FromFile" {
		t.Errorf("App.Name: got %q", cfg.App.Name)
	}
	if cfg.Tick.Rate != 50*time.Millisecond {
		t.Errorf("Tick.Rate: got %v", cfg.Tick.Rate)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct{ key, val string }{
		{"TICK_RATE", "soon"},
		{"TICK_RATE", "0s"},
		{"TICK_FRAME_BUDGET", "-1s"},
		{"APP_DEBUG", "maybe"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.val, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			if _, err := config.Load("testdata/empty.env"); err == nil {
				t.Errorf("expected an error for %s=%s", tt.key, tt.val)
			}
		})
	}
}
