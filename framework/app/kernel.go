package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/km-arc/go-gamecore/framework/command"
	"github.com/km-arc/go-gamecore/framework/config"
	"github.com/km-arc/go-gamecore/framework/container"
	"github.com/km-arc/go-gamecore/framework/host"
	"github.com/km-arc/go-gamecore/framework/providers"
	"github.com/km-arc/go-gamecore/framework/tick"
)

// Application owns the builder, the provider registry and, after Boot, the
// container.
type Application struct {
	builder   *container.Builder
	providers *container.ProviderRegistry
	container *container.Container
	result    Result
}

// Option configures New.
type Option func(*options)

type options struct {
	envFiles  []string
	logOutput io.Writer
}

// WithEnvFiles overrides the default ".env".
func WithEnvFiles(files ...string) Option {
	return func(o *options) { o.envFiles = files }
}

// WithLogOutput sends logs to w instead of stderr.
func WithLogOutput(w io.Writer) Option {
	return func(o *options) { o.logOutput = w }
}

// New creates the application and registers the framework providers.
func New(opts ...Option) (*Application, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	b := container.NewBuilder()
	a := &Application{builder: b, providers: container.NewProviderRegistry(b)}

	core := []container.Provider{
		&providers.ConfigServiceProvider{EnvFiles: o.envFiles},
		&providers.LoggingServiceProvider{Output: o.logOutput},
		&providers.RuntimeServiceProvider{},
	}
	for _, p := range core {
		if err := a.providers.Register(p); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Register adds a provider to the application.
func (a *Application) Register(p container.Provider) error {
	return a.providers.Register(p)
}

// Builder exposes the builder for direct registrations before Boot.
func (a *Application) Builder() *container.Builder { return a.builder }

// Boot builds the container, registers every controller's handlers and
// boots the providers, which wires the tick registry into the host.
func (a *Application) Boot() error {
	if a.providers.Booted() {
		return nil
	}
	c, err := a.builder.Build()
	if err != nil {
		return err
	}
	a.container = c

	logger := a.Logger()
	result, err := Bootstrap(c)
	if err != nil {
		return err
	}
	a.result = result
	if err := a.providers.Boot(c); err != nil {
		return err
	}

	logger.Info("application booted",
		zap.Int("controllers", len(result.Controllers)),
		zap.Int("commands", len(result.Commands.Registered)),
		zap.Int("ticks", len(result.Ticks.Registered)),
		zap.Int("invalid", len(result.Commands.Invalid)+len(result.Ticks.Invalid)),
	)
	return nil
}

// Run boots if needed, then drives the frame loop until ctx is done. Console
// lines from stdin (when non-nil and enabled) and the HTTP console (when an
// address is configured) run alongside it.
func (a *Application) Run(ctx context.Context, stdin io.Reader) error {
	if err := a.Boot(); err != nil {
		return err
	}
	cfg := a.Config()
	h := a.Host()
	logger := a.Logger()

	var console *host.Console
	if cfg.Console.Addr != "" {
		var err error
		if console, err = container.Resolve[*host.Console](a.container); err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return h.Run(ctx, cfg.Tick.Rate) })

	if stdin != nil && cfg.Console.Stdin {
		// the reader may block past shutdown; it is not part of the group
		go func() {
			if err := h.ReadConsole(ctx, stdin); err != nil {
				logger.Warn("console input stopped", zap.Error(err))
			}
		}()
	}
	if console != nil {
		g.Go(func() error { return console.Serve(ctx, cfg.Console.Addr) })
	}

	return g.Wait()
}

// Shutdown closes container-owned resources and flushes the logger. The
// accessors panic afterwards.
func (a *Application) Shutdown() error {
	if a.container == nil {
		return nil
	}
	logger, err := container.Resolve[*zap.Logger](a.container)
	if errors.Is(err, container.ErrClosed) {
		return nil
	}
	err = a.container.Close()
	if logger != nil {
		_ = logger.Sync() // fails for terminals; nothing to do about it
	}
	return err
}

// ── Accessors ────────────────────────────────────────────────────────────────

// Container returns the built container, nil before Boot.
func (a *Application) Container() *container.Container { return a.container }

// Result returns what Bootstrap registered.
func (a *Application) Result() Result { return a.result }

// Config resolves *config.Config from the container.
func (a *Application) Config() *config.Config { return mustResolve[*config.Config](a) }

// Logger resolves *zap.Logger from the container.
func (a *Application) Logger() *zap.Logger { return mustResolve[*zap.Logger](a) }

// Host resolves the reference host.
func (a *Application) Host() *host.Host { return mustResolve[*host.Host](a) }

// Commands resolves the command registry.
func (a *Application) Commands() *command.Registry { return mustResolve[*command.Registry](a) }

// Ticks resolves the tick registry.
func (a *Application) Ticks() *tick.Registry { return mustResolve[*tick.Registry](a) }

func mustResolve[T any](a *Application) T {
	if a.container == nil {
		panic(fmt.Sprintf("app: %s resolved before Boot", container.TypeName(container.TypeOf[T]())))
	}
	return container.MustResolve[T](a.container)
}

// Environment returns APP_ENV value.
func (a *Application) Environment() string { return a.Config().App.Env }
func (a *Application) IsLocal() bool       { return a.Environment() == "local" }
func (a *Application) IsProduction() bool  { return a.Environment() == "production" }
func (a *Application) IsTesting() bool     { return a.Environment() == "testing" }
func (a *Application) IsDebug() bool       { return a.Config().App.Debug }
