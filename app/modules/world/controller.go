// Package world handles players joining and leaving and samples the world
// population every frame.
package world

import (
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/km-arc/go-gamecore/app/modules/chat"
	"github.com/km-arc/go-gamecore/framework/command"
	"github.com/km-arc/go-gamecore/framework/container"
	"github.com/km-arc/go-gamecore/framework/tick"
)

type Controller struct {
	container.Controller

	players Directory
	chat    chat.Messenger
	logger  *zap.Logger

	population atomic.Int64
	peak       atomic.Int64
}

func NewController(players Directory, messenger chat.Messenger, logger *zap.Logger) *Controller {
	return &Controller{players: players, chat: messenger, logger: logger.Named("world")}
}

func (c *Controller) Commands() []command.Spec {
	return []command.Spec{
		{Name: "join", Handler: c.join},
		{Name: "quit", Aliases: []string{"leave"}, Handler: c.quit},
		{Name: "who", Handler: c.who},
	}
}

func (c *Controller) Ticks() []tick.Spec {
	return []tick.Spec{
		{Name: "world:population", Handler: c.samplePopulation},
	}
}

// Population is the player count seen by the last frame.
func (c *Controller) Population() int { return int(c.population.Load()) }

// Peak is the highest population seen.
func (c *Controller) Peak() int { return int(c.peak.Load()) }

func (c *Controller) join(source int, args []any) {
	if len(args) == 0 {
		c.chat.Send(source, "usage: /join <name>")
		return
	}
	name, _ := args[0].(string)
	p, ok := c.players.Join(source, name)
	if !ok {
		c.chat.Send(source, "you are already online as %s", p.Name)
		return
	}
	c.chat.Broadcast("%s joined the server", p.Name)
}

func (c *Controller) quit(source int) {
	p, ok := c.players.Leave(source)
	if !ok {
		c.chat.Send(source, "you are not online")
		return
	}
	c.chat.Broadcast("%s left the server", p.Name)
}

func (c *Controller) who(source int) {
	online := c.players.Online()
	names := make([]string, len(online))
	for i, p := range online {
		names[i] = p.Name
	}
	c.chat.Send(source, "%d online: %s", len(online), strings.Join(names, ", "))
}

func (c *Controller) samplePopulation() {
	n := int64(len(c.players.Online()))
	if prev := c.population.Swap(n); prev != n {
		c.logger.Debug("population changed", zap.Int64("from", prev), zap.Int64("to", n))
	}
	for {
		peak := c.peak.Load()
		if n <= peak || c.peak.CompareAndSwap(peak, n) {
			return
		}
	}
}
