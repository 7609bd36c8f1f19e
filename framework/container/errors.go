package container

import (
	"errors"
	"reflect"
	"strings"
)

// ── Sentinel errors ───────────────────────────────────────────────────────────

var (
	// ErrDuplicateRegistration is returned when a contract is already bound.
	ErrDuplicateRegistration = errors.New("container: contract already registered")

	// ErrServiceNotRegistered is returned when resolving an unbound contract.
	ErrServiceNotRegistered = errors.New("container: service not registered")

	// ErrAlreadyBuilt is returned by any Builder mutation after Build.
	ErrAlreadyBuilt = errors.New("container: builder already built")

	// ErrCyclicDependency is matched by *CycleError.
	ErrCyclicDependency = errors.New("container: cyclic dependency")

	// ErrInvalidRegistration covers unusable implementations, constructor
	// shapes and contracts the implementation does not satisfy.
	ErrInvalidRegistration = errors.New("container: invalid registration")

	// ErrUnknownContract is returned when a marker names a contract that was
	// never declared with Builder.Contract.
	ErrUnknownContract = errors.New("container: unknown contract")

	// ErrScopeRequired is returned when a Scoped service is resolved from the
	// root container or from inside a singleton's dependency graph.
	ErrScopeRequired = errors.New("container: scoped service requires a scope")

	// ErrClosed is returned when resolving from a closed container.
	ErrClosed = errors.New("container: closed")

	// ErrScopeClosed is returned when resolving from a closed scope.
	ErrScopeClosed = errors.New("container: scope closed")
)

// CycleError reports the contracts visited while walking into a cycle. The
// last element repeats an earlier one.
type CycleError struct {
	Path []reflect.Type
}

func (e *CycleError) Error() string {
	names := make([]string, len(e.Path))
	for i, t := range e.Path {
		names[i] = TypeName(t)
	}
	return "container: cyclic dependency: " + strings.Join(names, " -> ")
}

func (e *CycleError) Unwrap() error { return ErrCyclicDependency }
