// Package host is a minimal embedding runtime: it owns the command table,
// drives the frame loop that calls subscribed master ticks, and feeds
// console input to commands. The dev binary and integration tests run
// controllers inside it.
package host

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/buildkite/shellwords"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/km-arc/go-gamecore/framework/command"
	"github.com/km-arc/go-gamecore/framework/tick"
)

// ConsoleSource is the source id of the server console.
const ConsoleSource = 0

var (
	ErrEmptyCommand   = errors.New("host: empty command")
	ErrUnknownCommand = errors.New("host: unknown command")
	ErrRestricted     = errors.New("host: command is restricted")
)

// Permissions decides whether source may run a restricted command. The
// console is always allowed.
type Permissions func(source int, name string) bool

// Option configures a Host.
type Option func(*Host)

// WithPermissions grants restricted commands to non-console sources.
func WithPermissions(p Permissions) Option {
	return func(h *Host) { h.perms = p }
}

type registered struct {
	handler    command.HandlerFunc
	restricted bool
}

// CommandInfo describes one name in the command table.
type CommandInfo struct {
	Name       string `json:"name"`
	Restricted bool   `json:"restricted"`
}

// Host implements command.Host and, through Subscribe, tick.Sink.
type Host struct {
	logger *zap.Logger
	perms  Permissions

	mu       sync.RWMutex
	commands map[string]registered
	masters  []tick.MasterFunc

	// serialises command execution with frames
	exec   sync.Mutex
	frames atomic.Uint64
}

// New creates an empty host.
func New(logger *zap.Logger, opts ...Option) *Host {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Host{
		logger:   logger.Named("host"),
		commands: make(map[string]registered),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterCommand adds name to the command table. Names are case
// insensitive; registering a name again replaces the previous handler.
func (h *Host) RegisterCommand(name string, fn command.HandlerFunc, restricted bool) {
	key := strings.ToLower(name)
	h.mu.Lock()
	_, replaced := h.commands[key]
	h.commands[key] = registered{handler: fn, restricted: restricted}
	h.mu.Unlock()

	if replaced {
		h.logger.Warn("command replaced", zap.String("command", key))
	}
}

// Subscribe adds a master tick to every frame. Its signature matches
// tick.Sink so it can be passed to Registry.SetDispatchSink directly.
func (h *Host) Subscribe(master tick.MasterFunc) {
	h.mu.Lock()
	h.masters = append(h.masters, master)
	h.mu.Unlock()
}

// Commands lists the command table sorted by name.
func (h *Host) Commands() []CommandInfo {
	h.mu.RLock()
	out := make([]CommandInfo, 0, len(h.commands))
	for name, c := range h.commands {
		out = append(out, CommandInfo{Name: name, Restricted: c.restricted})
	}
	h.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Frames returns how many frames have run.
func (h *Host) Frames() uint64 { return h.frames.Load() }

// Execute parses line and runs the matching command for source. A leading
// "/" is optional; arguments follow POSIX shell quoting.
func (h *Host) Execute(source int, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return ErrEmptyCommand
	}
	words, err := shellwords.SplitPosix(line)
	if err != nil {
		return fmt.Errorf("host: parse %q: %w", line, err)
	}
	if len(words) == 0 {
		return ErrEmptyCommand
	}

	name := strings.ToLower(strings.TrimPrefix(words[0], "/"))
	h.mu.RLock()
	c, ok := h.commands[name]
	h.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	if c.restricted && source != ConsoleSource && (h.perms == nil || !h.perms(source, name)) {
		return fmt.Errorf("%w: %s", ErrRestricted, name)
	}

	args := make([]any, len(words)-1)
	for i, w := range words[1:] {
		args[i] = w
	}

	h.logger.Debug("command",
		zap.Stringer("invocation", uuid.New()),
		zap.String("command", name),
		zap.Int("source", source),
		zap.Int("args", len(args)),
	)

	h.exec.Lock()
	defer h.exec.Unlock()
	c.handler(source, args, line)
	return nil
}

// Frame runs every subscribed master tick once.
func (h *Host) Frame(ctx context.Context) {
	h.mu.RLock()
	masters := h.masters
	h.mu.RUnlock()

	h.exec.Lock()
	defer h.exec.Unlock()
	for _, m := range masters {
		m(ctx)
	}
	h.frames.Add(1)
}

// Run calls Frame every rate until ctx is done. Frames that overrun the rate
// are logged; missed frames are dropped rather than queued.
func (h *Host) Run(ctx context.Context, rate time.Duration) error {
	if rate <= 0 {
		return fmt.Errorf("host: invalid frame rate %s", rate)
	}
	ticker := time.NewTicker(rate)
	defer ticker.Stop()

	h.logger.Info("frame loop started", zap.Duration("rate", rate))
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("frame loop stopped", zap.Uint64("frames", h.Frames()))
			return nil
		case <-ticker.C:
			start := time.Now()
			h.Frame(ctx)
			if took := time.Since(start); took > rate {
				h.logger.Warn("frame overrun", zap.Duration("took", took), zap.Duration("rate", rate))
			}
		}
	}
}

// ReadConsole executes each line of r as a console command until r is
// exhausted or ctx is done. Failed commands are logged and reading goes on.
func (h *Host) ReadConsole(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := h.Execute(ConsoleSource, line); err != nil {
			h.logger.Warn("console command failed", zap.String("line", line), zap.Error(err))
		}
	}
	return scanner.Err()
}
