package chat_test

import (
	"fmt"
	"testing"

	"go.uber.org/zap"

	"github.com/km-arc/go-gamecore/app/modules/chat"
)

func TestOutbox_SendAndBroadcast(t *testing.T) {
	o := chat.NewOutbox(zap.NewNop())
	o.Send(3, "hello %s", "Carl")
	o.Broadcast("server restarting")

	if got := o.Last(3); got != "hello Carl" {
		t.Errorf("Last(3) = %q", got)
	}
	if got := o.Last(chat.Everyone); got != "server restarting" {
		t.Errorf("Last(Everyone) = %q", got)
	}
	if got := o.Last(9); got != "" {
		t.Errorf("Last(9) = %q, want empty", got)
	}
}

func TestOutbox_HistoryIsBounded(t *testing.T) {
	o := chat.NewOutbox(zap.NewNop())
	total := chat.History + 10
	for i := 0; i < total; i++ {
		o.Send(1, "msg %d", i)
	}

	msgs := o.Messages(1)
	if len(msgs) != chat.History {
		t.Fatalf("kept %d messages, want %d", len(msgs), chat.History)
	}
	if want := fmt.Sprintf("msg %d", total-chat.History); msgs[0] != want {
		t.Errorf("oldest = %q, want %q", msgs[0], want)
	}
	if want := fmt.Sprintf("msg %d", total-1); o.Last(1) != want {
		t.Errorf("Last = %q, want %q", o.Last(1), want)
	}
}
