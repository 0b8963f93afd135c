package events

import (
	"context"
	"log/slog"

	"schnicken/internal/domain"
	"schnicken/internal/logger"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const DefaultChannel = "schnicken:events"

// RedisBridge publishes local events to a Redis channel and replays events
// of other instances into the local dispatcher, so every instance's
// WebSocket clients see every game.
type RedisBridge struct {
	client  *redis.Client
	channel string
	origin  string
	local   *Dispatcher
	remote  *Dispatcher
	log     *slog.Logger
}

func NewRedisBridge(client *redis.Client, channel string, local *Dispatcher) *RedisBridge {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisBridge{
		client:  client,
		channel: channel,
		origin:  uuid.NewString(),
		local:   local,
		remote:  local,
		log:     logger.With("component", "redis_bridge"),
	}
}

// RelayTo makes Run deliver remote events to d instead of the local
// dispatcher. Handlers that must run once per cluster (notifications)
// subscribe only to the local one.
func (b *RedisBridge) RelayTo(d *Dispatcher) {
	b.remote = d
}

// Publish delivers locally first, then forwards to Redis. A Redis failure
// is logged; local delivery already happened.
func (b *RedisBridge) Publish(ctx context.Context, e domain.Event) {
	b.local.Publish(ctx, e)

	data, err := Encode(b.origin, e)
	if err != nil {
		b.log.Error("encode event", "event", e.Type(), "error", err)
		return
	}
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		b.log.Warn("redis publish failed", "event", e.Type(), "game_id", e.GameID(), "error", err)
	}
}

// Run relays remote events until ctx is cancelled.
func (b *RedisBridge) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	b.log.Info("redis bridge subscribed", "channel", b.channel, "origin", b.origin)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			origin, e, err := Decode([]byte(msg.Payload))
			if err != nil {
				b.log.Warn("drop malformed event", "error", err)
				continue
			}
			if origin == b.origin {
				continue
			}
			b.remote.Publish(ctx, e)
		}
	}
}
