// Package memory is an in-process PresenceBus. It connects registries that
// share one process, which is how the local profile and the multi-instance
// tests run without Redis. Each subscriber gets its own ordered queue so a
// slow handler never blocks a publisher.
package memory

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/jsamuelsen11/collab-sync/internal/domain/presence"
	"github.com/jsamuelsen11/collab-sync/internal/ports"
)

// DefaultBuffer is the per-subscriber queue length.
const DefaultBuffer = 256

// Compile-time interface check.
var _ ports.PresenceBus = (*Bus)(nil)

type message struct {
	change *presence.Change
	event  *ports.RoomEvent
}

type subscriber struct {
	handlers ports.BusHandlers
	queue    chan message
}

// Bus fans published messages out to every subscriber.
type Bus struct {
	buffer  int
	dropped atomic.Int64

	mu   sync.RWMutex
	subs map[*subscriber]struct{}
}

// New creates a Bus. A buffer below 1 uses DefaultBuffer.
func New(buffer int) *Bus {
	if buffer < 1 {
		buffer = DefaultBuffer
	}
	return &Bus{buffer: buffer, subs: make(map[*subscriber]struct{})}
}

// PublishPresence queues change for every subscriber.
func (b *Bus) PublishPresence(ctx context.Context, change presence.Change) error {
	c := change
	c.Entry = change.Entry.Clone()
	return b.publish(ctx, message{change: &c})
}

// PublishRoomEvent queues event for every subscriber.
func (b *Bus) PublishRoomEvent(ctx context.Context, event ports.RoomEvent) error {
	ev := event
	ev.Data = append([]byte(nil), event.Data...)
	return b.publish(ctx, message{event: &ev})
}

func (b *Bus) publish(ctx context.Context, msg message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for s := range b.subs {
		select {
		case s.queue <- msg:
		default:
			b.dropped.Add(1)
		}
	}
	return nil
}

// Subscribe starts delivering to handlers until ctx is canceled or stop is
// called. Messages published before Subscribe returns are not replayed.
func (b *Bus) Subscribe(ctx context.Context, handlers ports.BusHandlers) (func(), error) {
	s := &subscriber{handlers: handlers, queue: make(chan message, b.buffer)}

	b.mu.Lock()
	b.subs[s] = struct{}{}
	b.mu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer b.remove(s)
		for {
			select {
			case <-subCtx.Done():
				return
			case msg := <-s.queue:
				deliver(s.handlers, msg)
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

func (b *Bus) remove(s *subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, s)
}

// Dropped returns how many messages were discarded on full queues.
func (b *Bus) Dropped() int64 { return b.dropped.Load() }

// Subscribers returns the number of active subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func deliver(h ports.BusHandlers, msg message) {
	switch {
	case msg.change != nil && h.Presence != nil:
		h.Presence(*msg.change)
	case msg.event != nil && h.RoomEvent != nil:
		h.RoomEvent(*msg.event)
	}
}
