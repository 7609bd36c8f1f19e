// Package container is a small reflection-based dependency injection
// container with marker-driven scanning.
//
// # Lifecycle
//
//  1. Collect: b := container.NewBuilder(); b.Register / b.Scan / providers
//  2. Freeze:  c, err := b.Build()  (the Builder is consumed)
//  3. Resolve: container.Resolve[Logger](c)
//  4. Close:   c.Close() closes singletons implementing io.Closer
//
// # Registration
//
//	// constructor injection, parameters resolved in declaration order
//	b.Register(NewWidget)
//
//	// bound to an interface as well as *ConsoleLogger
//	b.Register(NewConsoleLogger, container.AsType[Logger]())
//
//	// fresh instance per resolution
//	b.Register((*Counter)(nil), container.WithLifecycle(container.Transient))
//
//	// factories win over constructors
//	b.Factory(func(r container.Resolver) (any, error) { return &Clock{}, nil },
//	    container.AsType[*Clock]())
//
//	// pre-built singleton
//	b.Instance(cfg)
//
// Binding a contract twice fails with ErrDuplicateRegistration.
//
// # Scanning
//
// Types embedding Service or Controller are registered by Scan. The marker's
// struct tags pick the lifecycle and contracts:
//
//	type ConsoleLogger struct {
//	    container.Service `as:"Logger"`
//	}
//
//	b.Contract(container.TypeOf[Logger]())
//	b.Scan(NewConsoleLogger, (*FileLogger)(nil))  // FileLogger is skipped: Logger is taken
//
// # Scopes
//
// Scoped registrations need a Scope; the root Container refuses them with
// ErrScopeRequired.
//
//	s := c.NewScope()
//	defer s.Close()
//	session, err := container.Resolve[*Session](s)
//
// # Cycles
//
// A dependency cycle is reported as a *CycleError listing the path.
package container
