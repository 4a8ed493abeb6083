package event

import (
	"context"
	"log/slog"
	"sync"
)

type Handler func(ctx context.Context, e Event) error

// events is the process-wide queue Send pushes into. Buffered so emitters
// never block on slow notifier handlers.
var events = make(chan Event, 128)

// Send publishes an event to whichever listener is running. Events emitted
// while the queue is full are dropped; notifications are best effort.
func Send(e Event) {
	select {
	case events <- e:
	default:
	}
}

// Listener fans events out to registered handlers sequentially.
type Listener struct {
	handlers []Handler
	mu       sync.Mutex
	logger   *slog.Logger
}

func NewListener(logger *slog.Logger) *Listener {
	return &Listener{logger: logger}
}

func (l *Listener) Register(h Handler) {
	l.mu.Lock()
	l.handlers = append(l.handlers, h)
	l.mu.Unlock()
}

// Listen consumes the event queue until ctx is cancelled. Handler errors are
// logged and do not stop delivery to the remaining handlers.
func (l *Listener) Listen(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-events:
			l.mu.Lock()
			handlers := make([]Handler, len(l.handlers))
			copy(handlers, l.handlers)
			l.mu.Unlock()

			for _, h := range handlers {
				if err := h(ctx, e); err != nil {
					l.logger.Error("error running event handler", slog.Any("error", err))
				}
			}
		}
	}
}
