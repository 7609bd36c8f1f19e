// Package vehicle spawns and removes vehicles on command and clears
// vehicles left behind by players who went offline.
package vehicle

import (
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/km-arc/go-gamecore/app/modules/chat"
	"github.com/km-arc/go-gamecore/app/modules/world"
	"github.com/km-arc/go-gamecore/framework/command"
	"github.com/km-arc/go-gamecore/framework/container"
	"github.com/km-arc/go-gamecore/framework/host"
	"github.com/km-arc/go-gamecore/framework/tick"
)

// CleanupInterval is how often abandoned vehicles are removed.
const CleanupInterval = 10 * time.Second

type Controller struct {
	container.Controller

	catalog Catalog
	garage  *Garage
	players world.Directory
	chat    chat.Messenger
	logger  *zap.Logger
}

func NewController(catalog Catalog, garage *Garage, players world.Directory, messenger chat.Messenger, logger *zap.Logger) *Controller {
	return &Controller{
		catalog: catalog,
		garage:  garage,
		players: players,
		chat:    messenger,
		logger:  logger.Named("vehicle"),
	}
}

func (c *Controller) Commands() []command.Spec {
	return []command.Spec{
		{Name: "veh", Aliases: []string{"car"}, Handler: c.spawn},
		{Name: "delcar", Restricted: true, Handler: c.remove},
		{Name: "checkcar", Handler: c.list},
	}
}

func (c *Controller) Ticks() []tick.Spec {
	return []tick.Spec{
		{Name: "vehicle:cleanup", Interval: CleanupInterval, Handler: c.cleanup},
	}
}

func (c *Controller) spawn(source int, args []any, raw string) {
	if len(args) == 0 {
		c.chat.Send(source, "usage: /veh <model>")
		return
	}
	name, _ := args[0].(string)
	m, ok := c.catalog.Lookup(name)
	if !ok {
		c.chat.Send(source, "unknown model %q", name)
		return
	}
	v := c.garage.Spawn(source, m)
	c.logger.Info("vehicle spawned", zap.Int("vehicle", v.ID), zap.String("model", m.Name), zap.Int("owner", source), zap.String("raw", raw))
	c.chat.Send(source, "spawned %s (#%d)", m.Name, v.ID)
}

func (c *Controller) remove(source int, args []any) {
	if len(args) == 0 {
		c.chat.Send(source, "usage: /delcar <id>")
		return
	}
	s, _ := args[0].(string)
	id, err := strconv.Atoi(strings.TrimPrefix(s, "#"))
	if err != nil {
		c.chat.Send(source, "invalid vehicle id %q", s)
		return
	}
	v, ok := c.garage.Remove(id)
	if !ok {
		c.chat.Send(source, "no vehicle #%d", id)
		return
	}
	c.chat.Send(source, "removed %s (#%d)", v.Model.Name, v.ID)
}

func (c *Controller) list(source int) {
	owned := c.garage.Owned(source)
	if len(owned) == 0 {
		c.chat.Send(source, "you have no vehicles")
		return
	}
	parts := make([]string, len(owned))
	for i, v := range owned {
		parts[i] = "#" + strconv.Itoa(v.ID) + " " + v.Model.Name
	}
	c.chat.Send(source, "your vehicles: %s", strings.Join(parts, ", "))
}

// cleanup removes vehicles whose owner is offline. Console-spawned vehicles
// stay.
func (c *Controller) cleanup() error {
	removed := 0
	for _, v := range c.garage.All() {
		if v.Owner == host.ConsoleSource {
			continue
		}
		if _, online := c.players.Lookup(v.Owner); online {
			continue
		}
		if _, ok := c.garage.Remove(v.ID); ok {
			removed++
		}
	}
	if removed > 0 {
		c.logger.Info("abandoned vehicles removed", zap.Int("count", removed))
	}
	return nil
}
