package event

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

func TestListenerFansOutToAllHandlers(t *testing.T) {
	listener := NewListener(slog.New(slog.NewTextHandler(io.Discard, nil)))

	got := make(chan string, 4)
	listener.Register(func(ctx context.Context, e Event) error {
		got <- "first:" + e.Message()
		return nil
	})
	listener.Register(func(ctx context.Context, e Event) error {
		got <- "second:" + e.Message()
		return errors.New("handler failure must not stop delivery")
	})
	listener.Register(func(ctx context.Context, e Event) error {
		got <- "third:" + e.Message()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go listener.Listen(ctx)

	Send(HuntStarted(Text("tester", "Hunting started")))

	want := map[string]bool{
		"first:Hunting started":  false,
		"second:Hunting started": false,
		"third:Hunting started":  false,
	}
	for i := 0; i < len(want); i++ {
		select {
		case msg := <-got:
			want[msg] = true
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for handlers")
		}
	}
	for msg, seen := range want {
		if !seen {
			t.Errorf("handler output %q never arrived", msg)
		}
	}
}

func TestSendNeverBlocks(t *testing.T) {
	// No listener is draining; the queue fills and further sends drop.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 500; i++ {
			Send(Text("tester", "flood"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Send must not block when the queue is full")
	}

	// Drain so later tests start from an empty queue.
	for {
		select {
		case <-events:
		default:
			return
		}
	}
}
