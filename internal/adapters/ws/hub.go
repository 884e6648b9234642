package ws

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/metric"

	"github.com/jsamuelsen11/collab-sync/internal/adapters/wire"
	"github.com/jsamuelsen11/collab-sync/internal/app/fanout"
	"github.com/jsamuelsen11/collab-sync/internal/domain/document"
	"github.com/jsamuelsen11/collab-sync/internal/platform/telemetry"
	"github.com/jsamuelsen11/collab-sync/internal/ports"
)

// DefaultWorkers bounds concurrent sends per broadcast.
const DefaultWorkers = 8

// Compile-time interface check.
var _ ports.RoomBroadcaster = (*Hub)(nil)

// client is what the hub needs from a connection.
type client interface {
	ClientID() string
	Send(frame []byte) error
	Close()
}

// Membership resolves which local clients are in a room.
type Membership interface {
	LocalMembers(roomID string) []string
}

// Hub delivers room broadcasts to the local members of a room and relays
// them to other instances over the presence bus. Each broadcast is encoded
// once and the same frame is sent to every member.
type Hub struct {
	instanceID string
	members    Membership
	bus        ports.PresenceBus
	workers    int
	logger     *slog.Logger
	metrics    *telemetry.Metrics

	mu      sync.RWMutex
	clients map[string]client
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithHubBus relays broadcasts between instances.
func WithHubBus(b ports.PresenceBus) HubOption {
	return func(h *Hub) { h.bus = b }
}

// WithHubWorkers bounds concurrent sends per broadcast.
func WithHubWorkers(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.workers = n
		}
	}
}

// WithHubLogger sets the logger.
func WithHubLogger(l *slog.Logger) HubOption {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithHubMetrics records broadcast counts.
func WithHubMetrics(m *telemetry.Metrics) HubOption {
	return func(h *Hub) { h.metrics = m }
}

// NewHub creates a Hub for this instance.
func NewHub(instanceID string, members Membership, opts ...HubOption) *Hub {
	h := &Hub{
		instanceID: instanceID,
		members:    members,
		workers:    DefaultWorkers,
		logger:     slog.New(slog.DiscardHandler),
		clients:    make(map[string]client),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register makes a connection reachable by room broadcasts.
func (h *Hub) Register(c client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.ClientID()] = c
}

// Unregister forgets a connection.
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, clientID)
}

// Connections returns the number of registered connections.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll closes every registered connection.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	clients := make([]client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Close()
	}
}

// Listen relays room broadcasts published by other instances. A nil bus
// returns a no-op stop function.
func (h *Hub) Listen(ctx context.Context) (func(), error) {
	if h.bus == nil {
		return func() {}, nil
	}
	return h.bus.Subscribe(ctx, ports.BusHandlers{
		RoomEvent: func(ev ports.RoomEvent) {
			if ev.Origin == h.instanceID {
				return
			}
			h.deliver(ctx, ev.RoomID, ev.Event, ev.Data)
		},
	})
}

// ItemsMoved implements ports.RoomBroadcaster.
func (h *Hub) ItemsMoved(ctx context.Context, roomID string, result *ports.MoveResult) {
	h.Broadcast(ctx, roomID, wire.EventItemMoved, wire.Moved{
		RoomID:     roomID,
		ItemID:     result.Move.ItemID,
		Updates:    wire.FromUpdates(result.Updates),
		Containers: wire.FromSnapshots(result.Containers),
	})
}

// DocumentUpdated implements ports.RoomBroadcaster.
func (h *Hub) DocumentUpdated(ctx context.Context, roomID string, doc *document.Document) {
	h.Broadcast(ctx, roomID, wire.EventDocumentUpdate, wire.DocumentEvent{
		RoomID:   roomID,
		Document: wire.FromDocument(doc),
	})
}

// Resync implements ports.RoomBroadcaster.
func (h *Hub) Resync(ctx context.Context, roomID string, state ports.ResyncState) {
	ev := wire.Resync{RoomID: roomID}
	if len(state.Containers) > 0 {
		ev.Containers = wire.FromSnapshots(state.Containers)
	}
	if state.Document != nil {
		d := wire.FromDocument(state.Document)
		ev.Document = &d
	}
	h.Broadcast(ctx, roomID, wire.EventDocumentResync, ev)
}

// Broadcast encodes data once, sends it to the room's local members, and
// publishes it for other instances.
func (h *Hub) Broadcast(ctx context.Context, roomID, event string, data any) {
	frame, err := encode(event, "", data)
	if err != nil {
		h.logger.ErrorContext(ctx, "encoding broadcast",
			slog.String("room_id", roomID),
			slog.String("event", event),
			slog.Any("error", err),
		)
		return
	}

	h.deliver(ctx, roomID, event, frame)

	if h.bus == nil {
		return
	}
	err = h.bus.PublishRoomEvent(ctx, ports.RoomEvent{
		Origin: h.instanceID,
		RoomID: roomID,
		Event:  event,
		Data:   frame,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "relaying broadcast",
			slog.String("room_id", roomID),
			slog.String("event", event),
			slog.Any("error", err),
		)
	}
}

// deliver sends frame to every local member of the room. Members whose
// queue rejects the frame are closed; their read loop then disconnects them.
func (h *Hub) deliver(ctx context.Context, roomID, event string, frame []byte) {
	ids := h.members.LocalMembers(roomID)
	if len(ids) == 0 {
		return
	}

	h.mu.RLock()
	targets := make([]client, 0, len(ids))
	for _, id := range ids {
		if c, ok := h.clients[id]; ok {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	failed := fanout.Deliver(ctx, h.workers, targets, func(_ context.Context, c client) error {
		return c.Send(frame)
	})
	for _, c := range failed {
		h.logger.WarnContext(ctx, "dropping unresponsive client",
			slog.String("room_id", roomID),
			slog.String("client_id", c.ClientID()),
		)
		c.Close()
	}

	if h.metrics != nil {
		h.metrics.BroadcastTotal.Add(ctx, int64(len(targets)-len(failed)),
			metric.WithAttributes(telemetry.AttrEvent.String(event)))
	}
}
