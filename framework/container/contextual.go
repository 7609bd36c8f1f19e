package container

import "reflect"

// ContextualBuilder overrides one constructor parameter for one
// implementation.
//
//	b.When(container.TypeOf[*VehicleController]()).
//	    Needs(container.TypeOf[Catalog]()).
//	    GiveValue(vehicle.NewCatalog(vehicle.DefaultModels[:2]...))
type ContextualBuilder struct {
	builder  *Builder
	concrete reflect.Type
	needs    reflect.Type
}

// When starts a contextual binding chain for the implementation type concrete.
func (b *Builder) When(concrete reflect.Type) *ContextualBuilder {
	return &ContextualBuilder{builder: b, concrete: concrete}
}

// Needs names the parameter type being overridden.
func (cb *ContextualBuilder) Needs(t reflect.Type) *ContextualBuilder {
	cb.needs = t
	return cb
}

// Give sets the factory used for the parameter.
func (cb *ContextualBuilder) Give(f Factory) error {
	if cb.builder.built {
		return ErrAlreadyBuilt
	}
	m, ok := cb.builder.contextual[cb.concrete]
	if !ok {
		m = make(map[reflect.Type]Factory)
		cb.builder.contextual[cb.concrete] = m
	}
	m[cb.needs] = f
	return nil
}

// GiveValue is Give for a pre-built value.
func (cb *ContextualBuilder) GiveValue(v any) error {
	return cb.Give(func(Resolver) (any, error) { return v, nil })
}
