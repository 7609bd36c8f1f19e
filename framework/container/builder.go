package container

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"
)

// ── Registration options ──────────────────────────────────────────────────────

type registrationOptions struct {
	contracts    []reflect.Type
	lifecycle    Lifecycle
	lifecycleSet bool
	factory      Factory
	tags         []string
}

// Option customises a single registration.
type Option func(*registrationOptions)

// As binds the registration to additional contract types.
func As(types ...reflect.Type) Option {
	return func(o *registrationOptions) { o.contracts = append(o.contracts, types...) }
}

// AsType is As for a single contract named by a type parameter.
//
//	b.Register(NewConsoleLogger, container.AsType[Logger]())
func AsType[T any]() Option { return As(TypeOf[T]()) }

// WithLifecycle overrides the default Singleton lifecycle.
func WithLifecycle(l Lifecycle) Option {
	return func(o *registrationOptions) { o.lifecycle, o.lifecycleSet = l, true }
}

// WithFactory makes f build the instance instead of the constructor.
func WithFactory(f Factory) Option {
	return func(o *registrationOptions) { o.factory = f }
}

// WithTags attaches tags used by Container.Tagged.
func WithTags(tags ...string) Option {
	return func(o *registrationOptions) { o.tags = append(o.tags, tags...) }
}

// AsController tags the registration so Bootstrap hands it to the registries.
func AsController() Option { return WithTags(TagController) }

// ── Builder ───────────────────────────────────────────────────────────────────

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLogger sets the logger used for registration diagnostics.
func WithLogger(l *zap.Logger) BuilderOption {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// Builder collects registrations and is consumed by Build.
//
//	b := container.NewBuilder()
//	b.Contract(container.TypeOf[Logger]())
//	b.Register(NewConsoleLogger, container.AsType[Logger]())
//	b.Scan(NewVehicleController, (*DebugController)(nil))
//	c, err := b.Build()
type Builder struct {
	logger *zap.Logger

	registrations []*Registration
	bindings      map[reflect.Type]*Registration

	// interfaces declared with Contract, in declaration order
	contracts []reflect.Type
	known     map[reflect.Type]bool

	// contextual[implementation][parameter type] = factory
	contextual map[reflect.Type]map[reflect.Type]Factory

	resolved []func(*Registration, any)
	built    bool
}

// NewBuilder creates an empty builder.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		logger:     zap.NewNop(),
		bindings:   make(map[reflect.Type]*Registration),
		known:      make(map[reflect.Type]bool),
		contextual: make(map[reflect.Type]map[reflect.Type]Factory),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Register binds impl under its own type plus every As contract.
//
// impl is a constructor function (parameters are resolved in declaration
// order, a variadic tail is left empty), a reflect.Type, or a typed nil
// pointer such as (*Widget)(nil) for zero-value construction. With
// WithFactory, impl may be nil as long as As names at least one contract.
func (b *Builder) Register(impl any, opts ...Option) error {
	if b.built {
		return ErrAlreadyBuilt
	}
	o := registrationOptions{lifecycle: Singleton}
	for _, opt := range opts {
		opt(&o)
	}

	reg := &Registration{Lifecycle: o.lifecycle, Tags: o.tags, factory: o.factory}
	if impl != nil || o.factory == nil {
		t, ctor, zero, err := implementationOf(impl)
		if err != nil {
			return err
		}
		reg.Implementation, reg.ctor, reg.zero = t, ctor, zero
	}
	return b.add(reg, o.contracts)
}

// Factory registers f under the As contracts.
//
//	b.Factory(func(r container.Resolver) (any, error) {
//	    return tick.NewRegistry(logger, tick.WithFrameBudget(cfg.Tick.FrameBudget)), nil
//	}, container.AsType[*tick.Registry]())
func (b *Builder) Factory(f Factory, opts ...Option) error {
	if f == nil {
		return fmt.Errorf("%w: nil factory", ErrInvalidRegistration)
	}
	return b.Register(nil, append(opts, WithFactory(f))...)
}

// Instance registers a pre-built value as a Singleton.
func (b *Builder) Instance(v any, opts ...Option) error {
	if b.built {
		return ErrAlreadyBuilt
	}
	if v == nil {
		return fmt.Errorf("%w: nil instance", ErrInvalidRegistration)
	}
	o := registrationOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	reg := &Registration{
		Implementation: reflect.TypeOf(v),
		Lifecycle:      Singleton,
		Tags:           o.tags,
		instance:       v,
		built:          true,
	}
	return b.add(reg, o.contracts)
}

// Contract declares interfaces that Scan matches implementations against.
func (b *Builder) Contract(types ...reflect.Type) error {
	if b.built {
		return ErrAlreadyBuilt
	}
	for _, t := range types {
		if t == nil || t.Kind() != reflect.Interface {
			return fmt.Errorf("%w: contract %s is not an interface", ErrInvalidRegistration, TypeName(t))
		}
		if !b.known[t] {
			b.known[t] = true
			b.contracts = append(b.contracts, t)
		}
	}
	return nil
}

// OnResolved registers fn to run after every freshly constructed instance.
func (b *Builder) OnResolved(fn func(reg *Registration, instance any)) {
	b.resolved = append(b.resolved, fn)
}

// Bound reports whether t already has a registration.
func (b *Builder) Bound(t reflect.Type) bool {
	_, ok := b.bindings[t]
	return ok
}

// Build freezes the registrations into a Container.
func (b *Builder) Build() (*Container, error) {
	if b.built {
		return nil, ErrAlreadyBuilt
	}
	b.built = true

	c := &Container{
		logger:        b.logger,
		registrations: b.registrations,
		bindings:      b.bindings,
		contextual:    b.contextual,
		resolved:      b.resolved,
	}
	b.logger.Debug("container built", zap.Int("registrations", len(c.registrations)))
	return c, nil
}

// add validates the contract set and binds reg.
func (b *Builder) add(reg *Registration, extra []reflect.Type) error {
	var contracts []reflect.Type
	seen := make(map[reflect.Type]bool)
	push := func(t reflect.Type) {
		if !seen[t] {
			seen[t] = true
			contracts = append(contracts, t)
		}
	}

	if reg.Implementation != nil {
		push(reg.Implementation)
	}
	for _, t := range extra {
		if t == nil {
			return fmt.Errorf("%w: nil contract", ErrInvalidRegistration)
		}
		if reg.Implementation != nil && !reg.Implementation.AssignableTo(t) {
			return fmt.Errorf("%w: %s does not implement %s",
				ErrInvalidRegistration, TypeName(reg.Implementation), TypeName(t))
		}
		push(t)
	}
	if len(contracts) == 0 {
		return fmt.Errorf("%w: factory needs at least one contract", ErrInvalidRegistration)
	}

	for _, t := range contracts {
		if existing, ok := b.bindings[t]; ok {
			return fmt.Errorf("%w: %s is bound to %s", ErrDuplicateRegistration, TypeName(t), existing)
		}
	}

	reg.Contracts = contracts
	for _, t := range contracts {
		b.bindings[t] = reg
	}
	b.registrations = append(b.registrations, reg)

	b.logger.Debug("service registered",
		zap.Stringer("service", reg),
		zap.Stringer("lifecycle", reg.Lifecycle),
		zap.Int("contracts", len(contracts)),
	)
	return nil
}
