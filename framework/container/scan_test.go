package container_test

import (
	"errors"
	"testing"

	"github.com/km-arc/go-gamecore/framework/container"
)

type Greeter interface{ Greet() string }

type Pinger interface{ Ping() string }

// both contracts, no explicit list
type friendly struct {
	container.Service
}

func (*friendly) Greet() string { return "hi" }
func (*friendly) Ping() string  { return "pong" }

// explicit contract list
type formal struct {
	container.Service `lifecycle:"transient" as:"Greeter"`
	id                int
}

func (*formal) Greet() string { return "good day" }
func (*formal) Ping() string  { return "PONG" }

type plain struct{}

type badLifecycle struct {
	container.Service `lifecycle:"eternal"`
}

type unknownContract struct {
	container.Service `as:"Shouter"`
}

type radioController struct {
	container.Controller
	Greeter Greeter
}

func newRadioController(g Greeter) *radioController { return &radioController{Greeter: g} }

func newScanBuilder(t *testing.T) *container.Builder {
	t.Helper()
	b := container.NewBuilder()
	must(t, b.Contract(container.TypeOf[Greeter](), container.TypeOf[Pinger]()))
	return b
}

func TestScan_DerivesImplementedContracts(t *testing.T) {
	b := newScanBuilder(t)
	must(t, b.Scan((*friendly)(nil)))
	c, err := b.Build()
	must(t, err)

	g := container.MustResolve[Greeter](c)
	p := container.MustResolve[Pinger](c)
	f := container.MustResolve[*friendly](c)
	if g != Greeter(f) || p != Pinger(f) {
		t.Error("all contracts should share one singleton")
	}
}

func TestScan_ExplicitContractsAndLifecycle(t *testing.T) {
	b := newScanBuilder(t)
	must(t, b.Scan((*formal)(nil)))
	c, err := b.Build()
	must(t, err)

	if got := container.MustResolve[Greeter](c).Greet(); got != "good day" {
		t.Errorf("Greet() = %q", got)
	}
	if c.Bound(container.TypeOf[Pinger]()) {
		t.Error("Pinger was not listed in as and must not be bound")
	}
	if container.MustResolve[*formal](c) == container.MustResolve[*formal](c) {
		t.Error("transient tag should give fresh instances")
	}
}

func TestScan_FirstRegistrationWins(t *testing.T) {
	b := newScanBuilder(t)
	must(t, b.Scan((*formal)(nil), (*friendly)(nil)))
	c, err := b.Build()
	must(t, err)

	if got := container.MustResolve[Greeter](c).Greet(); got != "good day" {
		t.Errorf("first scanned Greeter should win, got %q", got)
	}
	if c.Bound(container.TypeOf[*friendly]()) {
		t.Error("friendly overlaps Greeter and should have been skipped entirely")
	}
}

func TestScan_IgnoresUnmarked(t *testing.T) {
	b := newScanBuilder(t)
	must(t, b.Scan((*plain)(nil), func() *plain { return &plain{} }))
	c, err := b.Build()
	must(t, err)
	if len(c.Registrations()) != 0 {
		t.Errorf("unmarked types should not register, got %d", len(c.Registrations()))
	}
}

func TestScan_Controller(t *testing.T) {
	b := newScanBuilder(t)
	must(t, b.Scan(newRadioController, (*friendly)(nil)))
	c, err := b.Build()
	must(t, err)

	ctrls, err := c.Tagged(container.TagController)
	must(t, err)
	if len(ctrls) != 1 {
		t.Fatalf("want 1 controller, got %d", len(ctrls))
	}
	rc := ctrls[0].(*radioController)
	if rc.Greeter == nil || rc.Greeter.Greet() != "hi" {
		t.Error("controller constructor should receive the scanned Greeter")
	}
}

func TestScan_Errors(t *testing.T) {
	tests := []struct {
		name      string
		candidate any
		want      error
	}{
		{"bad lifecycle", (*badLifecycle)(nil), container.ErrInvalidRegistration},
		{"unknown contract", (*unknownContract)(nil), container.ErrUnknownContract},
		{"not a candidate", plain{}, container.ErrInvalidRegistration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newScanBuilder(t).Scan(tt.candidate)
			if !errors.Is(err, tt.want) {
				t.Errorf("want %v, got %v", tt.want, err)
			}
		})
	}
}

func TestContract_RejectsConcreteTypes(t *testing.T) {
	err := container.NewBuilder().Contract(container.TypeOf[*friendly]())
	if !errors.Is(err, container.ErrInvalidRegistration) {
		t.Errorf("want ErrInvalidRegistration, got %v", err)
	}
}
