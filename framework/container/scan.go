package container

import (
	"fmt"
	"reflect"
	"strings"

	"go.uber.org/zap"
)

// ── Markers ───────────────────────────────────────────────────────────────────

// Service marks a struct for Scan. Struct tags on the embedded field tune the
// registration:
//
//	type ConsoleLogger struct {
//	    container.Service `lifecycle:"singleton" as:"Logger"`
//	}
//
// lifecycle is singleton (default), transient or scoped. as is a comma
// separated list of contract names declared with Builder.Contract; without it
// the service is bound to every declared contract it implements.
type Service struct{}

// Controller marks a struct as a controller. It is scanned like Service and
// additionally tagged TagController.
//
//	type VehicleController struct {
//	    container.Controller
//	    logger *zap.Logger
//	}
type Controller struct{}

// TagController is the tag Bootstrap uses to find controllers.
const TagController = "controller"

var (
	serviceMarker    = reflect.TypeOf(Service{})
	controllerMarker = reflect.TypeOf(Controller{})
)

type marker struct {
	controller bool
	tag        reflect.StructTag
}

func markerOf(t reflect.Type) (marker, bool) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return marker{}, false
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous {
			continue
		}
		switch f.Type {
		case serviceMarker:
			return marker{tag: f.Tag}, true
		case controllerMarker:
			return marker{controller: true, tag: f.Tag}, true
		}
	}
	return marker{}, false
}

// ── Scan ──────────────────────────────────────────────────────────────────────

// Scan registers every candidate that embeds Service or Controller.
// Candidates are constructor functions or typed nil pointers, as accepted by
// Register. Candidates without a marker are ignored. A candidate whose
// derived contracts overlap an existing binding is skipped, so the first
// registration of a contract wins.
func (b *Builder) Scan(candidates ...any) error {
	if b.built {
		return ErrAlreadyBuilt
	}
	for _, candidate := range candidates {
		impl, _, _, err := implementationOf(candidate)
		if err != nil {
			return err
		}
		m, ok := markerOf(impl)
		if !ok {
			b.logger.Debug("scan: no marker", zap.String("type", TypeName(impl)))
			continue
		}

		lifecycle, err := ParseLifecycle(m.tag.Get("lifecycle"))
		if err != nil {
			return fmt.Errorf("scan %s: %w", TypeName(impl), err)
		}
		contracts, err := b.derivedContracts(impl, m.tag.Get("as"))
		if err != nil {
			return fmt.Errorf("scan %s: %w", TypeName(impl), err)
		}

		if b.Bound(impl) || b.anyBound(contracts) {
			b.logger.Debug("scan: contract already bound, skipping", zap.String("type", TypeName(impl)))
			continue
		}

		opts := []Option{As(contracts...), WithLifecycle(lifecycle)}
		if m.controller {
			opts = append(opts, AsController())
		}
		if err := b.Register(candidate, opts...); err != nil {
			return fmt.Errorf("scan %s: %w", TypeName(impl), err)
		}
	}
	return nil
}

func (b *Builder) anyBound(types []reflect.Type) bool {
	for _, t := range types {
		if b.Bound(t) {
			return true
		}
	}
	return false
}

// derivedContracts resolves explicit contract names, or falls back to every
// declared contract impl implements.
func (b *Builder) derivedContracts(impl reflect.Type, names string) ([]reflect.Type, error) {
	if strings.TrimSpace(names) == "" {
		var out []reflect.Type
		for _, t := range b.contracts {
			if impl.Implements(t) {
				out = append(out, t)
			}
		}
		return out, nil
	}

	var out []reflect.Type
	for _, name := range strings.Split(names, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		t, err := b.lookupContract(name)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// lookupContract matches name against the bare, package-qualified and fully
// qualified names of declared contracts.
func (b *Builder) lookupContract(name string) (reflect.Type, error) {
	var found []reflect.Type
	for _, t := range b.contracts {
		if t.Name() == name || t.String() == name || TypeName(t) == name {
			found = append(found, t)
		}
	}
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %q", ErrUnknownContract, name)
	case 1:
		return found[0], nil
	}
	return nil, fmt.Errorf("%w: %q is ambiguous (%d matches)", ErrUnknownContract, name, len(found))
}
