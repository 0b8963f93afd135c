package events

import (
	"context"
	"log/slog"
	"sync"

	"schnicken/internal/domain"
	"schnicken/internal/logger"
)

// Handler reacts to one event. Handlers must not block for long; slow work
// (network calls) belongs in a goroutine of the handler.
type Handler func(ctx context.Context, e domain.Event)

type subscription struct {
	name string
	fn   Handler
}

// Dispatcher fans events out to subscribed handlers in subscription order.
type Dispatcher struct {
	mu   sync.RWMutex
	subs []subscription
	log  *slog.Logger
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{log: logger.With("component", "events")}
}

// Subscribe adds a named handler. The name is only used in logs.
func (d *Dispatcher) Subscribe(name string, fn Handler) {
	d.mu.Lock()
	d.subs = append(d.subs, subscription{name: name, fn: fn})
	d.mu.Unlock()
}

// Publish delivers e to every handler. A panicking handler is logged and
// does not stop the others.
func (d *Dispatcher) Publish(ctx context.Context, e domain.Event) {
	d.mu.RLock()
	subs := make([]subscription, len(d.subs))
	copy(subs, d.subs)
	d.mu.RUnlock()

	for _, s := range subs {
		d.deliver(ctx, s, e)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, s subscription, e domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("event handler panicked", "handler", s.name, "event", e.Type(), "game_id", e.GameID(), "panic", r)
		}
	}()
	s.fn(ctx, e)
}
