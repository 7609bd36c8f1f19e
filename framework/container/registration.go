package container

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// ── Lifecycle ─────────────────────────────────────────────────────────────────

// Lifecycle controls how many instances a registration produces.
type Lifecycle int

const (
	// Singleton builds one instance on first resolution and caches it.
	Singleton Lifecycle = iota
	// Transient builds a fresh instance on every resolution. Pointers to
	// zero-size types may still compare equal.
	Transient
	// Scoped builds one instance per Scope.
	Scoped
)

func (l Lifecycle) String() string {
	switch l {
	case Singleton:
		return "singleton"
	case Transient:
		return "transient"
	case Scoped:
		return "scoped"
	default:
		return fmt.Sprintf("Lifecycle(%d)", int(l))
	}
}

// ParseLifecycle maps a marker tag value to a Lifecycle. The empty string
// means Singleton.
func ParseLifecycle(s string) (Lifecycle, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "singleton":
		return Singleton, nil
	case "transient":
		return Transient, nil
	case "scoped":
		return Scoped, nil
	}
	return 0, fmt.Errorf("%w: unknown lifecycle %q", ErrInvalidRegistration, s)
}

// ── Resolver / Factory ────────────────────────────────────────────────────────

// Resolver is anything contracts can be resolved from: the Container, a
// Scope, or the resolution frame handed to a Factory.
type Resolver interface {
	Resolve(t reflect.Type) (any, error)
}

// Factory builds an instance. Dependencies resolved through r take part in
// cycle detection and scoping like constructor parameters do.
type Factory func(r Resolver) (any, error)

// ── Registration ──────────────────────────────────────────────────────────────

// Registration describes how to produce the instance behind one or more
// contract types.
type Registration struct {
	// Contracts is the ordered set of types this registration is bound to.
	Contracts []reflect.Type
	// Implementation is the concrete type, nil for a pure factory.
	Implementation reflect.Type
	Lifecycle      Lifecycle
	Tags           []string

	factory Factory
	ctor    reflect.Value
	zero    bool

	mu       sync.Mutex
	instance any
	built    bool
}

// HasTag reports whether the registration carries tag.
func (r *Registration) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Instance returns the cached singleton instance, if it has been built.
func (r *Registration) Instance() (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.instance, r.built
}

// store caches instance unless another resolution got there first, and
// returns whichever value won.
func (r *Registration) store(instance any) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.built {
		return r.instance, false
	}
	r.instance, r.built = instance, true
	return instance, true
}

func (r *Registration) String() string {
	if r.Implementation != nil {
		return TypeName(r.Implementation)
	}
	if len(r.Contracts) > 0 {
		return TypeName(r.Contracts[0])
	}
	return "<factory>"
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// implementationOf interprets the value handed to Register: a constructor
// function, a reflect.Type, or a typed nil pointer.
func implementationOf(impl any) (reflect.Type, reflect.Value, bool, error) {
	if t, ok := impl.(reflect.Type); ok {
		switch {
		case t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct,
			t.Kind() == reflect.Struct:
			return t, reflect.Value{}, true, nil
		}
		return nil, reflect.Value{}, false, fmt.Errorf("%w: cannot construct %s", ErrInvalidRegistration, TypeName(t))
	}

	v := reflect.ValueOf(impl)
	switch {
	case !v.IsValid():
		return nil, reflect.Value{}, false, fmt.Errorf("%w: nil implementation", ErrInvalidRegistration)
	case v.Kind() == reflect.Func:
		if v.IsNil() {
			return nil, reflect.Value{}, false, fmt.Errorf("%w: nil constructor", ErrInvalidRegistration)
		}
		ft := v.Type()
		switch {
		case ft.NumOut() == 1:
		case ft.NumOut() == 2 && ft.Out(1) == errorType:
		default:
			return nil, reflect.Value{}, false, fmt.Errorf("%w: constructor %s must return T or (T, error)", ErrInvalidRegistration, ft)
		}
		return ft.Out(0), v, false, nil
	case v.Kind() == reflect.Pointer && v.IsNil() && v.Type().Elem().Kind() == reflect.Struct:
		return v.Type(), reflect.Value{}, true, nil
	}
	return nil, reflect.Value{}, false, fmt.Errorf("%w: %T is neither a constructor nor a typed nil pointer (use Instance for values)", ErrInvalidRegistration, impl)
}
