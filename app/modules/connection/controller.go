// Package connection holds dev:command and the server heartbeat.
package connection

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/km-arc/go-gamecore/app/modules/chat"
	"github.com/km-arc/go-gamecore/app/modules/world"
	"github.com/km-arc/go-gamecore/framework/command"
	"github.com/km-arc/go-gamecore/framework/container"
	"github.com/km-arc/go-gamecore/framework/tick"
)

// HeartbeatInterval is how often the heartbeat logs server state.
const HeartbeatInterval = 5 * time.Second

type Controller struct {
	container.Controller `lifecycle:"singleton"`

	players world.Directory
	chat    chat.Messenger
	logger  *zap.Logger
	started time.Time
}

func NewController(players world.Directory, messenger chat.Messenger, logger *zap.Logger) *Controller {
	return &Controller{players: players, chat: messenger, logger: logger.Named("connection"), started: time.Now()}
}

func (c *Controller) Commands() []command.Spec {
	return []command.Spec{
		{Name: "dev:command", Handler: c.echo},
	}
}

func (c *Controller) Ticks() []tick.Spec {
	return []tick.Spec{
		{Name: "connection:heartbeat", Interval: HeartbeatInterval, Handler: c.heartbeat},
	}
}

// echo reports how the host parsed the command line.
func (c *Controller) echo(source int, args []any, raw string) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprintf("%q", a)
	}
	c.chat.Send(source, "raw=%q args=[%s]", raw, strings.Join(parts, " "))
}

func (c *Controller) heartbeat(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.logger.Info("heartbeat",
		zap.Int("online", len(c.players.Online())),
		zap.Duration("uptime", time.Since(c.started).Round(time.Second)),
	)
	return nil
}
