// Package handler holds the plumbing shared by the command and tick
// registries: signature errors, panic-safe invocation and display names.
package handler

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

var (
	// ErrInvalidSignature is matched by *SignatureError.
	ErrInvalidSignature = errors.New("handler: invalid signature")

	// ErrInvocationFailed is matched by *InvocationError.
	ErrInvocationFailed = errors.New("handler: invocation failed")
)

// SignatureError describes a handler whose shape cannot be adapted.
type SignatureError struct {
	Owner  string
	Name   string
	Got    string
	Reason string
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("handler %s.%s: %s (got %s)", e.Owner, e.Name, e.Reason, e.Got)
}

func (e *SignatureError) Unwrap() error { return ErrInvalidSignature }

// InvocationError wraps a failure raised while a handler ran.
type InvocationError struct {
	Name string
	Err  error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("handler %q: %v", e.Name, e.Err)
}

func (e *InvocationError) Unwrap() []error { return []error{ErrInvocationFailed, e.Err} }

// Invoke runs fn, turning a returned error or a panic into an
// *InvocationError. Panics carry a stack trace.
func Invoke(name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			var cause error
			if e, ok := r.(error); ok {
				cause = pkgerrors.WithStack(e)
			} else {
				cause = pkgerrors.Errorf("panic: %v", r)
			}
			err = &InvocationError{Name: name, Err: cause}
		}
	}()
	if e := fn(); e != nil {
		return &InvocationError{Name: name, Err: e}
	}
	return nil
}

// Stack returns the stack captured for a recovered panic, if any.
func Stack(err error) string {
	type stackTracer interface{ StackTrace() pkgerrors.StackTrace }
	var st stackTracer
	if errors.As(err, &st) {
		return fmt.Sprintf("%+v", st.StackTrace())
	}
	return ""
}

// FuncName returns the short name of fn for display, e.g. "(*Controller).OnTick".
func FuncName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return ""
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return ""
	}
	name := f.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.Index(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, "-fm")
}

// OwnerName renders the owner's type for logs.
func OwnerName(owner any) string {
	t := reflect.TypeOf(owner)
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
