package container_test

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/km-arc/go-gamecore/framework/container"
)

// ── fixtures ──────────────────────────────────────────────────────────────────

type Logger interface{ Info(msg string) }

type memLogger struct{ lines []string }

func (l *memLogger) Info(msg string) { l.lines = append(l.lines, msg) }

func newMemLogger() *memLogger { return &memLogger{} }

type Widget struct{ Log Logger }

func NewWidget(l Logger) *Widget { return &Widget{Log: l} }

type counter struct{ n int }

type closer struct {
	name  string
	order *[]string
	err   error
}

func (c *closer) Close() error {
	*c.order = append(*c.order, c.name)
	return c.err
}

// cycle: *cycA → *cycB → *cycA
type cycA struct{}
type cycB struct{}

func newCycA(*cycB) *cycA { return &cycA{} }
func newCycB(*cycA) *cycB { return &cycB{} }

func build(t *testing.T, fn func(b *container.Builder)) *container.Container {
	t.Helper()
	b := container.NewBuilder()
	fn(b)
	c, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return c
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

// ── lifecycles ────────────────────────────────────────────────────────────────

func TestSingleton_SameInstance(t *testing.T) {
	c := build(t, func(b *container.Builder) {
		must(t, b.Register(newMemLogger, container.AsType[Logger]()))
	})

	a := container.MustResolve[Logger](c)
	b := container.MustResolve[Logger](c)
	if a != b {
		t.Error("singleton resolved twice should be the same instance")
	}
	if self := container.MustResolve[*memLogger](c); Logger(self) != a {
		t.Error("implementation type and contract should share the singleton")
	}
}

func TestTransient_DistinctInstances(t *testing.T) {
	c := build(t, func(b *container.Builder) {
		must(t, b.Register((*counter)(nil), container.WithLifecycle(container.Transient)))
	})

	a := container.MustResolve[*counter](c)
	b := container.MustResolve[*counter](c)
	if a == b {
		t.Error("transient should produce a fresh instance per resolution")
	}
}

func TestSingleton_ConcurrentResolveSharesInstance(t *testing.T) {
	c := build(t, func(b *container.Builder) {
		must(t, b.Register(newMemLogger, container.AsType[Logger]()))
	})

	const n = 32
	got := make([]Logger, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = container.MustResolve[Logger](c)
		}(i)
	}
	wg.Wait()
	for i := 1; i < n; i++ {
		if got[i] != got[0] {
			t.Fatalf("resolution %d returned a different singleton", i)
		}
	}
}

// ── constructor injection ─────────────────────────────────────────────────────

func TestConstructorInjection_EndToEnd(t *testing.T) {
	c := build(t, func(b *container.Builder) {
		must(t, b.Register(newMemLogger, container.AsType[Logger]()))
		must(t, b.Register(NewWidget, container.WithLifecycle(container.Transient)))
	})

	w1 := container.MustResolve[*Widget](c)
	w2 := container.MustResolve[*Widget](c)
	if w1 == w2 {
		t.Error("transient widgets should be distinct")
	}
	if w1.Log != w2.Log || w1.Log != container.MustResolve[Logger](c) {
		t.Error("widgets should share the singleton logger")
	}
}

func TestConstructor_ErrorIsReturned(t *testing.T) {
	boom := errors.New("boom")
	c := build(t, func(b *container.Builder) {
		must(t, b.Register(func() (*counter, error) { return nil, boom }))
	})

	_, err := container.Resolve[*counter](c)
	if !errors.Is(err, boom) {
		t.Errorf("want constructor error, got %v", err)
	}
}

func TestConstructor_VariadicTailLeftEmpty(t *testing.T) {
	var got []string
	c := build(t, func(b *container.Builder) {
		must(t, b.Register(func(names ...string) *counter {
			got = names
			return &counter{n: len(names)}
		}))
	})

	if n := container.MustResolve[*counter](c).n; n != 0 || len(got) != 0 {
		t.Errorf("variadic params should be empty, got %v", got)
	}
}

func TestFactory_TakesPrecedence(t *testing.T) {
	c := build(t, func(b *container.Builder) {
		must(t, b.Register(func() *counter { return &counter{n: 1} },
			container.WithFactory(func(container.Resolver) (any, error) {
				return &counter{n: 42}, nil
			})))
	})

	if n := container.MustResolve[*counter](c).n; n != 42 {
		t.Errorf("factory should win, got n=%d", n)
	}
}

func TestFactory_ResolvesDependencies(t *testing.T) {
	c := build(t, func(b *container.Builder) {
		must(t, b.Register(newMemLogger, container.AsType[Logger]()))
		must(t, b.Factory(func(r container.Resolver) (any, error) {
			l, err := container.Resolve[Logger](r)
			if err != nil {
				return nil, err
			}
			return &Widget{Log: l}, nil
		}, container.AsType[*Widget]()))
	})

	if container.MustResolve[*Widget](c).Log == nil {
		t.Error("factory should see the logger")
	}
}

func TestFactory_WrongTypeRejected(t *testing.T) {
	c := build(t, func(b *container.Builder) {
		must(t, b.Factory(func(container.Resolver) (any, error) { return "nope", nil },
			container.AsType[*Widget]()))
	})

	if _, err := container.Resolve[*Widget](c); !errors.Is(err, container.ErrInvalidRegistration) {
		t.Errorf("want ErrInvalidRegistration, got %v", err)
	}
}

func TestInstance_IsSingleton(t *testing.T) {
	l := &memLogger{}
	c := build(t, func(b *container.Builder) {
		must(t, b.Instance(l, container.AsType[Logger]()))
	})

	if got := container.MustResolve[Logger](c); got != Logger(l) {
		t.Error("instance should be returned as-is")
	}
}

// ── registration errors ───────────────────────────────────────────────────────

func TestRegister_Duplicate(t *testing.T) {
	b := container.NewBuilder()
	must(t, b.Register(newMemLogger, container.AsType[Logger]()))

	err := b.Register(func() *Widget { return nil }, container.AsType[Logger]())
	if !errors.Is(err, container.ErrInvalidRegistration) {
		t.Fatalf("*Widget does not implement Logger: got %v", err)
	}

	err = b.Instance(&memLogger{}, container.AsType[Logger]())
	if !errors.Is(err, container.ErrDuplicateRegistration) {
		t.Errorf("want ErrDuplicateRegistration, got %v", err)
	}
}

func TestRegister_AfterBuild(t *testing.T) {
	b := container.NewBuilder()
	if _, err := b.Build(); err != nil {
		t.Fatal(err)
	}
	if err := b.Register(newMemLogger); !errors.Is(err, container.ErrAlreadyBuilt) {
		t.Errorf("Register after Build: got %v", err)
	}
	if _, err := b.Build(); !errors.Is(err, container.ErrAlreadyBuilt) {
		t.Errorf("second Build: got %v", err)
	}
}

func TestRegister_InvalidImplementations(t *testing.T) {
	tests := []struct {
		name string
		impl any
	}{
		{"nil", nil},
		{"value", counter{}},
		{"non-nil pointer", &counter{}},
		{"too many returns", func() (*counter, int, error) { return nil, 0, nil }},
		{"second return not error", func() (*counter, int) { return nil, 0 }},
		{"no returns", func() {}},
		{"int type", reflect.TypeOf(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := container.NewBuilder().Register(tt.impl)
			if !errors.Is(err, container.ErrInvalidRegistration) {
				t.Errorf("want ErrInvalidRegistration, got %v", err)
			}
		})
	}
}

func TestFactory_NeedsContract(t *testing.T) {
	err := container.NewBuilder().Factory(func(container.Resolver) (any, error) { return 1, nil })
	if !errors.Is(err, container.ErrInvalidRegistration) {
		t.Errorf("want ErrInvalidRegistration, got %v", err)
	}
}

// ── resolution errors ─────────────────────────────────────────────────────────

func TestResolve_NotRegistered(t *testing.T) {
	c := build(t, func(b *container.Builder) { must(t, b.Register(NewWidget)) })

	if _, err := container.Resolve[Logger](c); !errors.Is(err, container.ErrServiceNotRegistered) {
		t.Errorf("want ErrServiceNotRegistered, got %v", err)
	}
	// a missing dependency surfaces through the dependent
	if _, err := container.Resolve[*Widget](c); !errors.Is(err, container.ErrServiceNotRegistered) {
		t.Errorf("want ErrServiceNotRegistered via Widget, got %v", err)
	}
}

func TestResolve_CycleDetected(t *testing.T) {
	c := build(t, func(b *container.Builder) {
		must(t, b.Register(newCycA))
		must(t, b.Register(newCycB))
	})

	_, err := container.Resolve[*cycA](c)
	var cycle *container.CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("want *CycleError, got %v", err)
	}
	if !errors.Is(err, container.ErrCyclicDependency) {
		t.Error("CycleError should match ErrCyclicDependency")
	}
	want := []reflect.Type{
		container.TypeOf[*cycA](), container.TypeOf[*cycB](), container.TypeOf[*cycA](),
	}
	if diff := cmp.Diff(fmt.Sprint(want), fmt.Sprint(cycle.Path)); diff != "" {
		t.Errorf("cycle path (-want +got):\n%s", diff)
	}
}

func TestMustResolve_Panics(t *testing.T) {
	c := build(t, func(*container.Builder) {})
	defer func() {
		if recover() == nil {
			t.Error("MustResolve should panic for an unbound contract")
		}
	}()
	container.MustResolve[Logger](c)
}

// ── contextual binding ────────────────────────────────────────────────────────

func TestWhen_OverridesParameter(t *testing.T) {
	special := &memLogger{lines: []string{"special"}}
	c := build(t, func(b *container.Builder) {
		must(t, b.Register(newMemLogger, container.AsType[Logger]()))
		must(t, b.Register(NewWidget))
		must(t, b.When(container.TypeOf[*Widget]()).
			Needs(container.TypeOf[Logger]()).
			GiveValue(special))
	})

	if got := container.MustResolve[*Widget](c).Log; got != Logger(special) {
		t.Error("contextual binding should override the Logger parameter")
	}
	if container.MustResolve[Logger](c) == Logger(special) {
		t.Error("contextual binding must not leak into the global binding")
	}
}

func TestWhen_WrongTypeIsAnError(t *testing.T) {
	c := build(t, func(b *container.Builder) {
		must(t, b.Register(NewWidget))
		must(t, b.When(container.TypeOf[*Widget]()).
			Needs(container.TypeOf[Logger]()).
			GiveValue("not a logger"))
	})

	_, err := container.Resolve[*Widget](c)
	if !errors.Is(err, container.ErrInvalidRegistration) {
		t.Fatalf("err = %v, want ErrInvalidRegistration", err)
	}
}

// ── scopes ────────────────────────────────────────────────────────────────────

func TestScoped_OnePerScope(t *testing.T) {
	c := build(t, func(b *container.Builder) {
		must(t, b.Register((*counter)(nil), container.WithLifecycle(container.Scoped)))
	})

	if _, err := container.Resolve[*counter](c); !errors.Is(err, container.ErrScopeRequired) {
		t.Errorf("root resolution: want ErrScopeRequired, got %v", err)
	}

	s1, s2 := c.NewScope(), c.NewScope()
	a1 := container.MustResolve[*counter](s1)
	a2 := container.MustResolve[*counter](s1)
	b1 := container.MustResolve[*counter](s2)
	if a1 != a2 {
		t.Error("same scope should share the instance")
	}
	if a1 == b1 {
		t.Error("different scopes should not share the instance")
	}

	must(t, s1.Close())
	if _, err := container.Resolve[*counter](s1); !errors.Is(err, container.ErrScopeClosed) {
		t.Errorf("closed scope: want ErrScopeClosed, got %v", err)
	}
}

func TestSingleton_CannotCaptureScoped(t *testing.T) {
	c := build(t, func(b *container.Builder) {
		must(t, b.Register(newMemLogger, container.AsType[Logger](), container.WithLifecycle(container.Scoped)))
		must(t, b.Register(NewWidget))
	})

	s := c.NewScope()
	defer s.Close()
	if _, err := container.Resolve[*Widget](s); !errors.Is(err, container.ErrScopeRequired) {
		t.Errorf("want ErrScopeRequired, got %v", err)
	}
}

func TestClose_ReverseOrder(t *testing.T) {
	var order []string
	boom := errors.New("boom")
	type first struct{ *closer }
	type second struct{ *closer }

	c := build(t, func(b *container.Builder) {
		must(t, b.Register(func() *first { return &first{&closer{name: "first", order: &order}} }))
		must(t, b.Register(func(*first) *second {
			return &second{&closer{name: "second", order: &order, err: boom}}
		}))
	})

	container.MustResolve[*second](c)
	err := c.Close()
	if !errors.Is(err, boom) {
		t.Errorf("Close should join closer errors, got %v", err)
	}
	if diff := cmp.Diff([]string{"second", "first"}, order); diff != "" {
		t.Errorf("close order (-want +got):\n%s", diff)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
}

// ── enumeration ───────────────────────────────────────────────────────────────

func TestClose_RejectsLaterResolution(t *testing.T) {
	var order []string
	c := build(t, func(b *container.Builder) {
		must(t, b.Register(func() *closer { return &closer{name: "late", order: &order} }))
	})
	s := c.NewScope()
	must(t, c.Close())

	if _, err := container.Resolve[*closer](c); !errors.Is(err, container.ErrClosed) {
		t.Errorf("Resolve after Close: want ErrClosed, got %v", err)
	}
	if _, err := container.Resolve[*closer](s); !errors.Is(err, container.ErrClosed) {
		t.Errorf("scope Resolve after Close: want ErrClosed, got %v", err)
	}
	if _, err := c.Tagged("any"); !errors.Is(err, container.ErrClosed) {
		t.Errorf("Tagged after Close: want ErrClosed, got %v", err)
	}
	if len(order) != 0 {
		t.Errorf("nothing was built, yet closed %v", order)
	}
}

func TestTagged_RegistrationOrderAndDedup(t *testing.T) {
	type ctrlA struct{}
	type ctrlB struct{}
	c := build(t, func(b *container.Builder) {
		must(t, b.Register((*ctrlB)(nil), container.AsController()))
		must(t, b.Register(newMemLogger, container.AsType[Logger]()))
		must(t, b.Register((*ctrlA)(nil), container.AsController()))
	})

	got, err := c.Tagged(container.TagController)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, v := range got {
		names = append(names, reflect.TypeOf(v).Elem().Name())
	}
	if diff := cmp.Diff([]string{"ctrlB", "ctrlA"}, names); diff != "" {
		t.Errorf("tagged (-want +got):\n%s", diff)
	}

	all, err := c.ResolveAll(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("ResolveAll: got %d instances, want 3 (one per registration)", len(all))
	}
}

func TestOnResolved_FiresOncePerSingleton(t *testing.T) {
	var hits int
	c := build(t, func(b *container.Builder) {
		must(t, b.Register(newMemLogger, container.AsType[Logger]()))
		b.OnResolved(func(*container.Registration, any) { hits++ })
	})

	container.MustResolve[Logger](c)
	container.MustResolve[*memLogger](c)
	if hits != 1 {
		t.Errorf("OnResolved: got %d calls, want 1", hits)
	}
}

func TestLifecycle_Parse(t *testing.T) {
	tests := []struct {
		in   string
		want container.Lifecycle
		err  bool
	}{
		{"", container.Singleton, false},
		{"singleton", container.Singleton, false},
		{"Transient", container.Transient, false},
		{" scoped ", container.Scoped, false},
		{"forever", 0, true},
	}
	for _, tt := range tests {
		got, err := container.ParseLifecycle(tt.in)
		if (err != nil) != tt.err {
			t.Errorf("ParseLifecycle(%q) err = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLifecycle(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
