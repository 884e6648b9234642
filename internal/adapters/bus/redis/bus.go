// Package redis implements ports.PresenceBus on Redis pub/sub. Every
// instance publishes presence changes and room broadcasts as JSON envelopes
// on one channel, {prefix}:events, and relays what the others publish to
// its local members. Delivery is at most once, matching Redis pub/sub.
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jsamuelsen11/collab-sync/internal/domain/presence"
	"github.com/jsamuelsen11/collab-sync/internal/ports"
)

// DefaultChannelPrefix is used when configuration leaves the prefix empty.
const DefaultChannelPrefix = "collab"

// Compile-time interface checks.
var (
	_ ports.PresenceBus   = (*Bus)(nil)
	_ ports.HealthChecker = (*Bus)(nil)
)

// Bus is a PresenceBus over a Redis client.
type Bus struct {
	rdb     goredis.UniversalClient
	channel string
	logger  *slog.Logger
}

// New creates a Bus publishing on {prefix}:events.
func New(rdb goredis.UniversalClient, prefix string, logger *slog.Logger) *Bus {
	if prefix == "" {
		prefix = DefaultChannelPrefix
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Bus{rdb: rdb, channel: prefix + ":events", logger: logger}
}

// Channel returns the pub/sub channel name.
func (b *Bus) Channel() string { return b.channel }

// PublishPresence publishes a membership change.
func (b *Bus) PublishPresence(ctx context.Context, change presence.Change) error {
	payload, err := encodeChange(change)
	if err != nil {
		return fmt.Errorf("encoding presence change: %w", err)
	}
	return b.publish(ctx, payload)
}

// PublishRoomEvent publishes an already-encoded room broadcast.
func (b *Bus) PublishRoomEvent(ctx context.Context, event ports.RoomEvent) error {
	payload, err := encodeRoomEvent(event)
	if err != nil {
		return fmt.Errorf("encoding room event: %w", err)
	}
	return b.publish(ctx, payload)
}

func (b *Bus) publish(ctx context.Context, payload []byte) error {
	if err := b.rdb.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("publishing to %s: %w", b.channel, err)
	}
	return nil
}

// Subscribe delivers messages to handlers on a single goroutine, in the
// order Redis delivered them. It returns once the subscription is
// confirmed so that nothing published afterwards is missed.
func (b *Bus) Subscribe(ctx context.Context, handlers ports.BusHandlers) (func(), error) {
	pubsub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribing to %s: %w", b.channel, err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				b.dispatch(subCtx, msg.Payload, handlers)
			}
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
	return stop, nil
}

func (b *Bus) dispatch(ctx context.Context, payload string, handlers ports.BusHandlers) {
	env, err := decode([]byte(payload))
	if err != nil {
		b.logger.WarnContext(ctx, "dropping bus message",
			slog.String("channel", b.channel),
			slog.Any("error", err),
		)
		return
	}

	switch env.Kind {
	case kindPresence:
		if handlers.Presence != nil {
			handlers.Presence(env.change())
		}
	case kindRoom:
		if handlers.RoomEvent != nil {
			handlers.RoomEvent(env.roomEvent())
		}
	}
}

// Name implements ports.HealthChecker.
func (b *Bus) Name() string { return "presence-bus" }

// HealthCheck pings Redis.
func (b *Bus) HealthCheck(ctx context.Context) error {
	if err := b.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("presence-bus: %w", err)
	}
	return nil
}
