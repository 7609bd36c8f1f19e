// Package logging builds the application's zap logger from config.
package logging

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/km-arc/go-gamecore/framework/config"
)

// New returns a logger writing to w (stderr when nil). Format "json" uses the
// production encoder, anything else the development console encoder.
func New(cfg config.LogConfig, w io.Writer) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	if w == nil {
		w = os.Stderr
	}

	var encoder zapcore.Encoder
	switch cfg.Format {
	case "json":
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	case "console", "":
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	default:
		return nil, fmt.Errorf("failed to create logger: unknown format %q", cfg.Format)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(w), level)
	return zap.New(core, zap.AddCaller()), nil
}

// ForEnvironment picks sensible defaults when LOG_LEVEL is left empty: debug
// outside production, info in production.
func ForEnvironment(cfg *config.Config, w io.Writer) (*zap.Logger, error) {
	lc := cfg.Log
	if lc.Level == "" {
		lc.Level = "debug"
		if cfg.App.Env == "production" {
			lc.Level = "info"
		}
	}
	return New(lc, w)
}
