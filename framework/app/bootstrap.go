package app

import (
	"fmt"

	"github.com/km-arc/go-gamecore/framework/command"
	"github.com/km-arc/go-gamecore/framework/container"
	"github.com/km-arc/go-gamecore/framework/tick"
)

// Result is what Bootstrap registered.
type Result struct {
	Controllers []any
	Commands    command.Report
	Ticks       tick.Report
}

// Bootstrap resolves every controller in c and hands them to the command and
// tick registries. Resolution failures are returned; invalid handlers are
// only reported.
func Bootstrap(c *container.Container) (Result, error) {
	controllers, err := c.Tagged(container.TagController)
	if err != nil {
		return Result{}, fmt.Errorf("bootstrap: resolve controllers: %w", err)
	}
	commands, err := container.Resolve[*command.Registry](c)
	if err != nil {
		return Result{}, fmt.Errorf("bootstrap: %w", err)
	}
	ticks, err := container.Resolve[*tick.Registry](c)
	if err != nil {
		return Result{}, fmt.Errorf("bootstrap: %w", err)
	}

	return Result{
		Controllers: controllers,
		Commands:    commands.RegisterAll(controllers...),
		Ticks:       ticks.RegisterAll(controllers...),
	}, nil
}
