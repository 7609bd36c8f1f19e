package container

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"sync"

	"go.uber.org/zap"
)

// ── Container ─────────────────────────────────────────────────────────────────

// Container resolves contracts to instances. Its bindings never change after
// Build; only singleton caches and the closer list are written.
type Container struct {
	logger *zap.Logger

	registrations []*Registration
	bindings      map[reflect.Type]*Registration
	contextual    map[reflect.Type]map[reflect.Type]Factory
	resolved      []func(*Registration, any)

	mu      sync.Mutex
	closers []io.Closer
	closed  bool
}

// Resolve returns the instance bound to t.
//
//	v, err := c.Resolve(container.TypeOf[Logger]())
func (c *Container) Resolve(t reflect.Type) (any, error) {
	if c.isClosed() {
		return nil, ErrClosed
	}
	return c.frame(nil).Resolve(t)
}

// ResolveAll resolves every registration matching pred once, in registration
// order.
func (c *Container) ResolveAll(pred func(*Registration) bool) ([]any, error) {
	if c.isClosed() {
		return nil, ErrClosed
	}
	var out []any
	for _, reg := range c.registrations {
		if pred != nil && !pred(reg) {
			continue
		}
		inst, err := c.frame(nil).resolveRegistration(reg, reg.Contracts[0])
		if err != nil {
			return out, err
		}
		out = append(out, inst)
	}
	return out, nil
}

// Tagged resolves every registration carrying tag.
//
//	controllers, err := c.Tagged(container.TagController)
func (c *Container) Tagged(tag string) ([]any, error) {
	return c.ResolveAll(func(r *Registration) bool { return r.HasTag(tag) })
}

// Registrations returns the registrations in the order they were added.
func (c *Container) Registrations() []*Registration {
	out := make([]*Registration, len(c.registrations))
	copy(out, c.registrations)
	return out
}

// Bound reports whether t has a registration.
func (c *Container) Bound(t reflect.Type) bool {
	_, ok := c.bindings[t]
	return ok
}

// NewScope opens a scope for Scoped registrations.
func (c *Container) NewScope() *Scope {
	return &Scope{c: c, instances: make(map[*Registration]any)}
}

// Close closes every constructed singleton implementing io.Closer, most
// recently built first. Instances registered with Builder.Instance are owned
// by the caller and are not closed.
func (c *Container) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	closers := c.closers
	c.closers = nil
	c.mu.Unlock()

	return closeReverse(closers)
}

func (c *Container) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// track remembers v for Close. A singleton finished by a resolution that
// raced Close is closed straight away.
func (c *Container) track(v any) {
	cl, ok := v.(io.Closer)
	if !ok {
		return
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		if err := cl.Close(); err != nil {
			c.logger.Warn("close after shutdown failed", zap.Error(err))
		}
		return
	}
	c.closers = append(c.closers, cl)
	c.mu.Unlock()
}

func (c *Container) frame(s *Scope) *resolution {
	return &resolution{c: c, scope: s}
}

func closeReverse(closers []io.Closer) error {
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ── Scope ─────────────────────────────────────────────────────────────────────

// Scope owns one instance per Scoped registration.
type Scope struct {
	c *Container

	mu        sync.Mutex
	instances map[*Registration]any
	closers   []io.Closer
	closed    bool
}

// Resolve returns the instance bound to t, sharing Scoped instances within
// this scope.
func (s *Scope) Resolve(t reflect.Type) (any, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrScopeClosed
	}
	if s.c.isClosed() {
		return nil, ErrClosed
	}
	return s.c.frame(s).Resolve(t)
}

// Close closes the scope's io.Closer instances in reverse creation order.
func (s *Scope) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	closers := s.closers
	s.closers, s.instances = nil, nil
	s.mu.Unlock()

	return closeReverse(closers)
}

func (s *Scope) load(reg *Registration) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.instances[reg]
	return v, ok
}

func (s *Scope) store(reg *Registration, v any) (any, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, false, ErrScopeClosed
	}
	if existing, ok := s.instances[reg]; ok {
		return existing, false, nil
	}
	s.instances[reg] = v
	if cl, ok := v.(io.Closer); ok {
		s.closers = append(s.closers, cl)
	}
	return v, true, nil
}

// ── Resolution ────────────────────────────────────────────────────────────────

// resolution is one step of a dependency walk. It carries the registrations
// currently being built so cycles surface as errors instead of recursion.
type resolution struct {
	c     *Container
	scope *Scope
	path  []reflect.Type
	regs  []*Registration
}

func (r *resolution) Resolve(t reflect.Type) (any, error) {
	reg, ok := r.c.bindings[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrServiceNotRegistered, TypeName(t))
	}
	return r.resolveRegistration(reg, t)
}

func (r *resolution) resolveRegistration(reg *Registration, t reflect.Type) (any, error) {
	for _, seen := range r.regs {
		if seen == reg {
			path := append(append([]reflect.Type(nil), r.path...), t)
			return nil, &CycleError{Path: path}
		}
	}

	switch reg.Lifecycle {
	case Singleton:
		if inst, ok := reg.Instance(); ok {
			return inst, nil
		}
		// singleton dependencies never see the caller's scope
		inst, err := r.enter(reg, t, nil).construct(reg, t)
		if err != nil {
			return nil, err
		}
		stored, fresh := reg.store(inst)
		if fresh {
			r.c.track(stored)
			r.c.fire(reg, stored)
		}
		return stored, nil

	case Scoped:
		if r.scope == nil {
			return nil, fmt.Errorf("%w: %s", ErrScopeRequired, TypeName(t))
		}
		if inst, ok := r.scope.load(reg); ok {
			return inst, nil
		}
		inst, err := r.enter(reg, t, r.scope).construct(reg, t)
		if err != nil {
			return nil, err
		}
		stored, fresh, err := r.scope.store(reg, inst)
		if err != nil {
			return nil, err
		}
		if fresh {
			r.c.fire(reg, stored)
		}
		return stored, nil

	default:
		inst, err := r.enter(reg, t, r.scope).construct(reg, t)
		if err != nil {
			return nil, err
		}
		r.c.fire(reg, inst)
		return inst, nil
	}
}

func (r *resolution) enter(reg *Registration, t reflect.Type, scope *Scope) *resolution {
	return &resolution{
		c:     r.c,
		scope: scope,
		path:  append(append([]reflect.Type(nil), r.path...), t),
		regs:  append(append([]*Registration(nil), r.regs...), reg),
	}
}

// construct builds a new instance for reg using this frame for dependencies.
func (r *resolution) construct(reg *Registration, t reflect.Type) (any, error) {
	switch {
	case reg.factory != nil:
		inst, err := reg.factory(r)
		if err != nil {
			return nil, fmt.Errorf("build %s: %w", TypeName(t), err)
		}
		if inst == nil || !reflect.TypeOf(inst).AssignableTo(t) {
			return nil, fmt.Errorf("%w: factory for %s returned %T", ErrInvalidRegistration, TypeName(t), inst)
		}
		return inst, nil

	case reg.zero:
		if reg.Implementation.Kind() == reflect.Pointer {
			return reflect.New(reg.Implementation.Elem()).Interface(), nil
		}
		return reflect.New(reg.Implementation).Elem().Interface(), nil
	}

	ft := reg.ctor.Type()
	n := ft.NumIn()
	if ft.IsVariadic() {
		n--
	}
	args := make([]reflect.Value, n)
	for i := 0; i < n; i++ {
		pt := ft.In(i)
		var (
			dep any
			err error
		)
		f := r.c.contextual[reg.Implementation][pt]
		if f != nil {
			dep, err = f(r)
		} else {
			dep, err = r.Resolve(pt)
		}
		if err != nil {
			return nil, fmt.Errorf("build %s: parameter %d: %w", TypeName(t), i, err)
		}
		if f != nil && dep != nil && !reflect.TypeOf(dep).AssignableTo(pt) {
			return nil, fmt.Errorf("%w: contextual value for %s parameter %d is %T, want %s",
				ErrInvalidRegistration, TypeName(t), i, dep, TypeName(pt))
		}
		if dep == nil {
			args[i] = reflect.Zero(pt)
		} else {
			args[i] = reflect.ValueOf(dep)
		}
	}

	out := reg.ctor.Call(args)
	if len(out) == 2 && !out[1].IsNil() {
		return nil, fmt.Errorf("build %s: %w", TypeName(t), out[1].Interface().(error))
	}
	return out[0].Interface(), nil
}

func (c *Container) fire(reg *Registration, inst any) {
	for _, fn := range c.resolved {
		fn(reg, inst)
	}
}

// ── Generics helpers ──────────────────────────────────────────────────────────

// TypeOf returns the reflect.Type of T, including interface types.
//
//	container.TypeOf[Logger]()    // the interface, not a concrete type
//	container.TypeOf[*Widget]()
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// TypeName renders t with its package path for diagnostics.
func TypeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	if t.Kind() == reflect.Pointer {
		return "*" + TypeName(t.Elem())
	}
	if t.Name() == "" || t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

// Resolve resolves T from r and type-asserts the result.
//
//	logger, err := container.Resolve[Logger](c)
func Resolve[T any](r Resolver) (T, error) {
	var zero T
	inst, err := r.Resolve(TypeOf[T]())
	if err != nil {
		return zero, err
	}
	typed, ok := inst.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s resolved to %T", ErrInvalidRegistration, TypeName(TypeOf[T]()), inst)
	}
	return typed, nil
}

// MustResolve is like Resolve but panics on failure. Meant for wiring code
// where a missing service is a programming error.
func MustResolve[T any](r Resolver) T {
	v, err := Resolve[T](r)
	if err != nil {
		panic(err)
	}
	return v
}
