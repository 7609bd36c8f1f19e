// Package chat delivers text to players. The reference host has no clients,
// so the Outbox records messages and logs them.
package chat

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/km-arc/go-gamecore/framework/container"
)

// Everyone is the target used for broadcasts.
const Everyone = -1

// History is how many messages the Outbox keeps per target.
const History = 64

// Messenger sends text to a source.
type Messenger interface {
	Send(target int, format string, args ...any)
	Broadcast(format string, args ...any)
}

// Outbox is the in-process Messenger.
type Outbox struct {
	container.Service `as:"Messenger"`

	logger *zap.Logger

	mu   sync.Mutex
	sent map[int][]string
}

func NewOutbox(logger *zap.Logger) *Outbox {
	return &Outbox{logger: logger.Named("chat"), sent: make(map[int][]string)}
}

func (o *Outbox) Send(target int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	o.mu.Lock()
	msgs := append(o.sent[target], msg)
	if n := len(msgs) - History; n > 0 {
		msgs = append(msgs[:0:0], msgs[n:]...)
	}
	o.sent[target] = msgs
	o.mu.Unlock()
	o.logger.Info("message", zap.Int("to", target), zap.String("text", msg))
}

func (o *Outbox) Broadcast(format string, args ...any) {
	o.Send(Everyone, format, args...)
}

// Messages returns the last History messages sent to target, oldest first.
func (o *Outbox) Messages(target int) []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.sent[target]...)
}

// Last returns the most recent message to target.
func (o *Outbox) Last(target int) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if msgs := o.sent[target]; len(msgs) > 0 {
		return msgs[len(msgs)-1]
	}
	return ""
}
