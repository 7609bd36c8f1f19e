// Package tick schedules controller tick handlers from a single host-driven
// master tick.
//
// Each master tick evaluates handlers in registration order. A handler still
// running from an earlier tick is skipped; otherwise it runs when its interval
// is zero or has elapsed since its last start. Synchronous handlers run
// inline on the master goroutine, asynchronous ones fan out to goroutines, and
// the master returns once every handler it started has finished (or the
// optional frame budget runs out).
package tick

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/km-arc/go-gamecore/framework/handler"
)

// MasterFunc is the callback the host invokes once per frame.
type MasterFunc func(ctx context.Context)

// Sink is the host's tick subscription API.
type Sink func(master MasterFunc)

// Spec declares one tick handler on a controller.
//
//	func (c *DebugController) Ticks() []tick.Spec {
//	    return []tick.Spec{{Name: "overlay", Interval: 500 * time.Millisecond, Handler: c.drawOverlay}}
//	}
//
// Handler is func(), func() error, or func(context.Context) error. Only the
// last form runs asynchronously. An Interval of zero runs every tick.
type Spec struct {
	Name     string
	Interval time.Duration
	Handler  any
}

// Every is shorthand for an interval in milliseconds.
func Every(ms int) time.Duration { return time.Duration(ms) * time.Millisecond }

// Provider is implemented by controllers that expose tick handlers.
type Provider interface {
	Ticks() []Spec
}

// ── Handler ───────────────────────────────────────────────────────────────────

// Handler is one registered tick handler and its scheduling state.
type Handler struct {
	ID       uuid.UUID
	Name     string
	Owner    string
	Interval time.Duration

	async bool
	run   func(ctx context.Context) error

	// unix nanos of the last dispatch; written by the master tick only
	lastExecution atomic.Int64
	running       atomic.Bool
	runs          atomic.Int64
	failures      atomic.Int64
}

// Snapshot is a read-only view of a Handler.
type Snapshot struct {
	ID            uuid.UUID
	Name          string
	Owner         string
	Interval      time.Duration
	Async         bool
	LastExecution time.Time
	Running       bool
	Runs          int64
	Failures      int64
}

func (h *Handler) snapshot() Snapshot {
	return Snapshot{
		ID:            h.ID,
		Name:          h.Name,
		Owner:         h.Owner,
		Interval:      h.Interval,
		Async:         h.async,
		LastExecution: time.Unix(0, h.lastExecution.Load()),
		Running:       h.running.Load(),
		Runs:          h.runs.Load(),
		Failures:      h.failures.Load(),
	}
}

func (h *Handler) due(now time.Time) bool {
	if h.Interval == 0 {
		return true
	}
	return now.Sub(time.Unix(0, h.lastExecution.Load())) >= h.Interval
}

// Report summarises one RegisterAll pass.
type Report struct {
	Registered []Snapshot
	Invalid    []error
}

// ── Registry ──────────────────────────────────────────────────────────────────

var (
	// ErrSinkAlreadySet is returned by a second SetDispatchSink call.
	ErrSinkAlreadySet = errors.New("tick: dispatch sink already set")
	// ErrNilSink is returned when SetDispatchSink is given nil.
	ErrNilSink = errors.New("tick: nil dispatch sink")
)

// Option configures a Registry.
type Option func(*Registry)

// WithClock replaces time.Now, for simulated time.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithFrameBudget bounds how long a master tick waits for asynchronous
// handlers. Handlers still running when it expires keep running and are
// skipped until they finish. Zero waits for all of them.
func WithFrameBudget(d time.Duration) Option {
	return func(r *Registry) { r.budget = d }
}

// Registry owns every registered tick handler.
type Registry struct {
	logger *zap.Logger
	now    func() time.Time
	budget time.Duration

	mu       sync.Mutex
	handlers []*Handler
	sinkSet  bool
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *zap.Logger, opts ...Option) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{logger: logger.Named("tick"), now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterAll registers the tick handlers of every instance implementing
// Provider. Specs with an unsupported handler are logged, reported and
// skipped.
func (r *Registry) RegisterAll(instances ...any) Report {
	var report Report
	for _, inst := range instances {
		p, ok := inst.(Provider)
		if !ok {
			continue
		}
		owner := handler.OwnerName(inst)
		for _, spec := range p.Ticks() {
			h, err := r.newHandler(owner, spec)
			if err != nil {
				r.logger.Error("invalid tick handler", zap.String("owner", owner), zap.Error(err))
				report.Invalid = append(report.Invalid, err)
				continue
			}

			r.mu.Lock()
			r.handlers = append(r.handlers, h)
			r.mu.Unlock()

			every := "every frame"
			if h.Interval > 0 {
				every = "every " + h.Interval.String()
			}
			r.logger.Info("tick handler registered",
				zap.String("handler", h.Name),
				zap.String("schedule", every),
				zap.Bool("async", h.async),
				zap.String("owner", owner),
			)
			report.Registered = append(report.Registered, h.snapshot())
		}
	}
	return report
}

// SetDispatchSink hands the master tick to the host. It may be called once.
func (r *Registry) SetDispatchSink(sink Sink) error {
	if sink == nil {
		return ErrNilSink
	}
	r.mu.Lock()
	if r.sinkSet {
		r.mu.Unlock()
		return ErrSinkAlreadySet
	}
	r.sinkSet = true
	r.mu.Unlock()

	sink(r.Tick)
	return nil
}

// Handlers returns a snapshot of every handler in registration order.
func (r *Registry) Handlers() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Snapshot, len(r.handlers))
	for i, h := range r.handlers {
		out[i] = h.snapshot()
	}
	return out
}

// Tick is the master tick. The host must not call it concurrently with
// itself.
func (r *Registry) Tick(ctx context.Context) {
	now := r.now()

	r.mu.Lock()
	handlers := r.handlers
	r.mu.Unlock()

	var wg sync.WaitGroup
	for _, h := range handlers {
		if h.running.Load() || !h.due(now) {
			continue
		}
		h.running.Store(true)
		h.lastExecution.Store(now.UnixNano())

		if !h.async {
			r.execute(ctx, h)
			continue
		}
		wg.Add(1)
		go func(h *Handler) {
			defer wg.Done()
			r.execute(ctx, h)
		}(h)
	}
	r.wait(ctx, &wg)
}

func (r *Registry) wait(ctx context.Context, wg *sync.WaitGroup) {
	if r.budget <= 0 {
		wg.Wait()
		return
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(r.budget)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		r.logger.Warn("frame budget exceeded", zap.Duration("budget", r.budget))
	case <-ctx.Done():
	}
}

// execute runs h and always returns it to idle.
func (r *Registry) execute(ctx context.Context, h *Handler) {
	defer h.running.Store(false)

	h.runs.Add(1)
	err := handler.Invoke(h.Name, func() error { return h.run(ctx) })
	if err == nil {
		return
	}
	h.failures.Add(1)
	fields := []zap.Field{zap.String("handler", h.Name), zap.String("owner", h.Owner), zap.Error(err)}
	if st := handler.Stack(err); st != "" {
		fields = append(fields, zap.String("stack", st))
	}
	r.logger.Error("tick handler failed", fields...)
}

func (r *Registry) newHandler(owner string, spec Spec) (*Handler, error) {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		name = handler.FuncName(spec.Handler)
	}
	invalid := func(reason string) error {
		return &handler.SignatureError{Owner: owner, Name: name, Got: fmt.Sprintf("%T", spec.Handler), Reason: reason}
	}
	if spec.Interval < 0 {
		return nil, invalid("negative interval")
	}

	h := &Handler{ID: uuid.New(), Name: name, Owner: owner, Interval: spec.Interval}
	switch fn := spec.Handler.(type) {
	case func():
		if fn == nil {
			return nil, invalid("nil handler")
		}
		h.run = func(context.Context) error { fn(); return nil }
	case func() error:
		if fn == nil {
			return nil, invalid("nil handler")
		}
		h.run = func(context.Context) error { return fn() }
	case func(context.Context) error:
		if fn == nil {
			return nil, invalid("nil handler")
		}
		h.run, h.async = fn, true
	default:
		return nil, invalid("tick handlers take no arguments and return nothing or an error")
	}
	h.lastExecution.Store(r.now().UnixNano())
	return h, nil
}
