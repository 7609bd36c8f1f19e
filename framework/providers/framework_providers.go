package providers

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/km-arc/go-gamecore/framework/command"
	"github.com/km-arc/go-gamecore/framework/config"
	"github.com/km-arc/go-gamecore/framework/container"
	"github.com/km-arc/go-gamecore/framework/host"
	"github.com/km-arc/go-gamecore/framework/logging"
	"github.com/km-arc/go-gamecore/framework/tick"
)

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider loads .env + environment variables and binds
// *config.Config.
type ConfigServiceProvider struct {
	container.BaseProvider
	EnvFiles []string
}

func (p *ConfigServiceProvider) Register(b *container.Builder) error {
	cfg, err := config.Load(p.EnvFiles...)
	if err != nil {
		return err
	}
	return b.Instance(cfg)
}

// ── LoggingServiceProvider ────────────────────────────────────────────────────

// LoggingServiceProvider binds the application *zap.Logger.
type LoggingServiceProvider struct {
	container.BaseProvider
	// Output defaults to stderr.
	Output io.Writer
}

func (p *LoggingServiceProvider) Register(b *container.Builder) error {
	return b.Factory(func(r container.Resolver) (any, error) {
		cfg, err := container.Resolve[*config.Config](r)
		if err != nil {
			return nil, err
		}
		logger, err := logging.ForEnvironment(cfg, p.Output)
		if err != nil {
			return nil, err
		}
		return logger.With(zap.String("app", cfg.App.Name)), nil
	}, container.AsType[*zap.Logger]())
}

// ── RuntimeServiceProvider ────────────────────────────────────────────────────

// RuntimeServiceProvider binds the reference host, both registries and the
// dev console, and on Boot hands the tick registry's master tick to the host.
type RuntimeServiceProvider struct{}

func (p *RuntimeServiceProvider) Register(b *container.Builder) error {
	if err := b.Register(host.New, container.AsType[command.Host]()); err != nil {
		return err
	}
	if err := b.Register(command.NewRegistry); err != nil {
		return err
	}
	if err := b.Factory(func(r container.Resolver) (any, error) {
		cfg, err := container.Resolve[*config.Config](r)
		if err != nil {
			return nil, err
		}
		logger, err := container.Resolve[*zap.Logger](r)
		if err != nil {
			return nil, err
		}
		return tick.NewRegistry(logger, tick.WithFrameBudget(cfg.Tick.FrameBudget)), nil
	}, container.AsType[*tick.Registry](), container.AsType[host.TickLister]()); err != nil {
		return err
	}
	return b.Register(host.NewConsole)
}

func (p *RuntimeServiceProvider) Boot(c *container.Container) error {
	ticks, err := container.Resolve[*tick.Registry](c)
	if err != nil {
		return err
	}
	h, err := container.Resolve[*host.Host](c)
	if err != nil {
		return err
	}
	if err := ticks.SetDispatchSink(h.Subscribe); err != nil {
		return fmt.Errorf("wire tick sink: %w", err)
	}
	return nil
}
