// Package debug provides the dev:debug overlay: players who toggle it get a
// periodic summary of the tick scheduler.
package debug

import (
	"sort"
	"sync"
	"time"

	"github.com/km-arc/go-gamecore/app/modules/chat"
	"github.com/km-arc/go-gamecore/framework/command"
	"github.com/km-arc/go-gamecore/framework/container"
	"github.com/km-arc/go-gamecore/framework/host"
	"github.com/km-arc/go-gamecore/framework/tick"
)

// OverlayInterval is how often the overlay refreshes.
const OverlayInterval = 500 * time.Millisecond

type Controller struct {
	container.Controller

	ticks host.TickLister
	chat  chat.Messenger

	mu       sync.Mutex
	watchers map[int]bool
}

func NewController(ticks host.TickLister, messenger chat.Messenger) *Controller {
	return &Controller{ticks: ticks, chat: messenger, watchers: make(map[int]bool)}
}

func (c *Controller) Commands() []command.Spec {
	return []command.Spec{
		{Name: "dev:debug", Handler: c.toggle},
	}
}

func (c *Controller) Ticks() []tick.Spec {
	return []tick.Spec{
		{Name: "debug:overlay", Interval: OverlayInterval, Handler: c.overlay},
	}
}

// Watching reports whether source has the overlay enabled.
func (c *Controller) Watching(source int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.watchers[source]
}

func (c *Controller) toggle(source int) {
	c.mu.Lock()
	on := !c.watchers[source]
	if on {
		c.watchers[source] = true
	} else {
		delete(c.watchers, source)
	}
	c.mu.Unlock()

	if on {
		c.chat.Send(source, "debug overlay on")
	} else {
		c.chat.Send(source, "debug overlay off")
	}
}

func (c *Controller) overlay() {
	c.mu.Lock()
	targets := make([]int, 0, len(c.watchers))
	for id := range c.watchers {
		targets = append(targets, id)
	}
	c.mu.Unlock()
	if len(targets) == 0 {
		return
	}
	sort.Ints(targets)

	var running, failures int64
	handlers := c.ticks.Handlers()
	for _, h := range handlers {
		if h.Running {
			running++
		}
		failures += h.Failures
	}
	for _, id := range targets {
		c.chat.Send(id, "ticks: %d handlers, %d running, %d failures", len(handlers), running, failures)
	}
}
