package container

import (
	"fmt"
	"reflect"
)

// ── Provider interface ────────────────────────────────────────────────────────

// Provider groups related registrations.
//
// Register runs as soon as the provider is added and may only touch the
// Builder. Boot runs once after Build, so it may resolve anything.
//
//	type VehicleProvider struct{ container.BaseProvider }
//
//	func (p *VehicleProvider) Register(b *container.Builder) error {
//	    return b.Scan(vehicle.NewController)
//	}
type Provider interface {
	Register(b *Builder) error
	Boot(c *Container) error
}

// BaseProvider is an embeddable no-op Boot.
type BaseProvider struct{}

func (BaseProvider) Boot(*Container) error { return nil }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry runs provider Register calls against one Builder and
// boots them all once the Container exists.
type ProviderRegistry struct {
	builder    *Builder
	providers  []Provider
	registered map[providerKey]bool
	booted     bool
}

// NewProviderRegistry creates a registry bound to b.
func NewProviderRegistry(b *Builder) *ProviderRegistry {
	return &ProviderRegistry{
		builder:    b,
		registered: make(map[providerKey]bool),
	}
}

// Register adds a provider and calls its Register method. Adding the same
// provider twice is a no-op.
func (r *ProviderRegistry) Register(p Provider) error {
	if p == nil {
		return fmt.Errorf("%w: nil provider", ErrInvalidRegistration)
	}
	key, ok := keyOf(p)
	if !ok {
		return fmt.Errorf("%w: provider %s must be a pointer or comparable", ErrInvalidRegistration, providerName(p))
	}
	if r.registered[key] {
		return nil
	}
	if r.booted {
		return fmt.Errorf("register %s: %w", providerName(p), ErrAlreadyBuilt)
	}
	if err := p.Register(r.builder); err != nil {
		return fmt.Errorf("register %s: %w", providerName(p), err)
	}
	r.registered[key] = true
	r.providers = append(r.providers, p)
	return nil
}

// Boot calls Boot on every provider in registration order. Only the first
// call does anything.
func (r *ProviderRegistry) Boot(c *Container) error {
	if r.booted {
		return nil
	}
	r.booted = true
	for _, p := range r.providers {
		if err := p.Boot(c); err != nil {
			return fmt.Errorf("boot %s: %w", providerName(p), err)
		}
	}
	return nil
}

// Booted reports whether Boot has been called.
func (r *ProviderRegistry) Booted() bool { return r.booted }

// Providers returns the registered providers.
func (r *ProviderRegistry) Providers() []Provider { return r.providers }

func providerName(p Provider) string { return TypeName(reflect.TypeOf(p)) }

// providerKey identifies a provider: pointers by address (with the type, since
// zero-size values share one), comparable values by value.
type providerKey struct {
	t     reflect.Type
	addr  uintptr
	value any
}

func keyOf(p Provider) (providerKey, bool) {
	v := reflect.ValueOf(p)
	if v.Kind() == reflect.Pointer {
		return providerKey{t: v.Type(), addr: v.Pointer()}, true
	}
	if !v.Type().Comparable() {
		return providerKey{}, false
	}
	return providerKey{t: v.Type(), value: p}, true
}
