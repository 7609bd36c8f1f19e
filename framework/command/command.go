// Package command turns controller command tables into host command
// registrations. Handlers may take any prefix of (source, args, raw); the
// registry adapts them to the full HandlerFunc shape once, at registration.
package command

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/km-arc/go-gamecore/framework/handler"
)

// HandlerFunc is the shape the host invokes: the issuing source (0 is the
// server console), the parsed arguments and the raw command line.
type HandlerFunc func(source int, args []any, raw string)

// Host is the command subscription API of the embedding runtime.
type Host interface {
	RegisterCommand(name string, h HandlerFunc, restricted bool)
}

// HostFunc adapts a plain function to Host.
type HostFunc func(name string, h HandlerFunc, restricted bool)

func (f HostFunc) RegisterCommand(name string, h HandlerFunc, restricted bool) {
	f(name, h, restricted)
}

// Spec declares one command on a controller.
//
//	func (c *VehicleController) Commands() []command.Spec {
//	    return []command.Spec{
//	        {Name: "veh", Aliases: []string{"car"}, Handler: c.spawn},
//	        {Name: "delcar", Restricted: true, Handler: c.remove},
//	    }
//	}
//
// Handler is one of func(), func(int), func(int, []any),
// func(int, []any, string) or HandlerFunc.
type Spec struct {
	Name       string
	Aliases    []string
	Restricted bool
	Handler    any
}

// Provider is implemented by controllers that expose commands.
type Provider interface {
	Commands() []Spec
}

// Entry describes a registered command.
type Entry struct {
	Name       string
	Aliases    []string
	Restricted bool
	Owner      string
}

// Report summarises one RegisterAll pass.
type Report struct {
	Registered []Entry
	Invalid    []error
}

// Registry hands commands to a Host.
type Registry struct {
	host   Host
	logger *zap.Logger

	mu      sync.Mutex
	entries []Entry
}

// NewRegistry creates a registry that registers with host.
func NewRegistry(host Host, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{host: host, logger: logger.Named("command")}
}

// RegisterAll registers the commands of every instance implementing
// Provider. Specs with an unsupported handler are logged, reported and
// skipped; the rest still register.
func (r *Registry) RegisterAll(instances ...any) Report {
	var report Report
	for _, inst := range instances {
		p, ok := inst.(Provider)
		if !ok {
			continue
		}
		owner := handler.OwnerName(inst)
		for _, spec := range p.Commands() {
			entry, err := r.register(owner, spec)
			if err != nil {
				r.logger.Error("invalid command handler", zap.String("owner", owner), zap.Error(err))
				report.Invalid = append(report.Invalid, err)
				continue
			}
			report.Registered = append(report.Registered, entry)
		}
	}
	return report
}

// Entries lists every registered command in registration order.
func (r *Registry) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

func (r *Registry) register(owner string, spec Spec) (Entry, error) {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return Entry{}, &handler.SignatureError{
			Owner: owner, Name: "?", Got: fmt.Sprintf("%T", spec.Handler), Reason: "empty command name",
		}
	}
	fn, ok := adapt(spec.Handler)
	if !ok {
		return Entry{}, &handler.SignatureError{
			Owner: owner, Name: name, Got: fmt.Sprintf("%T", spec.Handler), Reason: "unsupported command handler",
		}
	}

	dispatch := r.dispatcher(name, fn)
	entry := Entry{Name: name, Restricted: spec.Restricted, Owner: owner}

	r.host.RegisterCommand(name, dispatch, spec.Restricted)
	for _, alias := range spec.Aliases {
		alias = strings.TrimSpace(alias)
		if alias == "" || alias == name {
			continue
		}
		r.host.RegisterCommand(alias, dispatch, spec.Restricted)
		entry.Aliases = append(entry.Aliases, alias)
	}

	r.mu.Lock()
	r.entries = append(r.entries, entry)
	r.mu.Unlock()

	r.logger.Info("command registered",
		zap.String("command", name),
		zap.Strings("aliases", entry.Aliases),
		zap.Bool("restricted", spec.Restricted),
		zap.String("owner", owner),
	)
	return entry, nil
}

// dispatcher wraps fn so a failing handler never reaches the host.
func (r *Registry) dispatcher(name string, fn HandlerFunc) HandlerFunc {
	return func(source int, args []any, raw string) {
		err := handler.Invoke(name, func() error {
			fn(source, args, raw)
			return nil
		})
		if err == nil {
			return
		}
		fields := []zap.Field{zap.String("command", name), zap.Int("source", source), zap.Error(err)}
		if st := handler.Stack(err); st != "" {
			fields = append(fields, zap.String("stack", st))
		}
		r.logger.Error("command handler failed", fields...)
	}
}

func adapt(h any) (HandlerFunc, bool) {
	switch fn := h.(type) {
	case HandlerFunc:
		return fn, fn != nil
	case func(int, []any, string):
		return fn, fn != nil
	case func(int, []any):
		return func(source int, args []any, _ string) { fn(source, args) }, fn != nil
	case func(int):
		return func(source int, _ []any, _ string) { fn(source) }, fn != nil
	case func():
		return func(int, []any, string) { fn() }, fn != nil
	}
	return nil, false
}
