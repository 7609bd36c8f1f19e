package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/km-arc/go-gamecore/app/modules"
	"github.com/km-arc/go-gamecore/framework/app"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New() // loads .env automatically
	if err != nil {
		return err
	}
	if err := application.Register(&modules.ServiceProvider{}); err != nil {
		return err
	}
	defer application.Shutdown()

	// Console lines such as "veh infernus" or "delcar 1" run as the server.
	return application.Run(ctx, os.Stdin)
}
