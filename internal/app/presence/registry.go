// Package presence tracks who is in which room and fans presence changes out
// to connected peers.
//
// A Registry owns the room table for one server instance. Rooms live in an
// arena indexed by room id: a room is created on first join and its slot is
// recycled once the last member leaves. Every local mutation is published on
// a ports.PresenceBus and remote mutations arriving from the bus are merged
// into the local view, so members connected to other instances appear in
// snapshots alongside local ones.
package presence

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/jsamuelsen11/collab-sync/internal/app/fanout"
	"github.com/jsamuelsen11/collab-sync/internal/domain"
	model "github.com/jsamuelsen11/collab-sync/internal/domain/presence"
	"github.com/jsamuelsen11/collab-sync/internal/platform/telemetry"
	"github.com/jsamuelsen11/collab-sync/internal/ports"
)

// Compile-time check that Registry implements ports.PresenceService.
var _ ports.PresenceService = (*Registry)(nil)

// DefaultWorkers bounds concurrent sends during a broadcast.
const DefaultWorkers = 8

// member is one entry in a room. Remote members have a nil peer.
type member struct {
	entry model.Entry
	peer  ports.Peer
}

func (m *member) local() bool { return m.peer != nil }

// room holds members in join order.
type room struct {
	id      string
	members []*member
}

func (r *room) find(clientID string) (int, *member) {
	for i, m := range r.members {
		if m.entry.ClientID == clientID {
			return i, m
		}
	}
	return -1, nil
}

func (r *room) remove(i int) *member {
	m := r.members[i]
	r.members = slices.Delete(r.members, i, i+1)
	return m
}

func (r *room) entries() []model.Entry {
	out := make([]model.Entry, len(r.members))
	for i, m := range r.members {
		out[i] = m.entry.Clone()
	}
	return out
}

// target is a local peer captured under the lock for delivery outside it.
type target struct {
	clientID string
	peer     ports.Peer
}

func (r *room) targets(except string) []target {
	out := make([]target, 0, len(r.members))
	for _, m := range r.members {
		if m.local() && m.entry.ClientID != except {
			out = append(out, target{clientID: m.entry.ClientID, peer: m.peer})
		}
	}
	return out
}

// Registry implements ports.PresenceService.
type Registry struct {
	instanceID string
	palette    model.Palette
	bus        ports.PresenceBus
	workers    int
	clock      func() time.Time
	logger     *slog.Logger
	metrics    *telemetry.Metrics

	mu     sync.Mutex
	rooms  []*room
	free   []int
	index  map[string]int
	joined map[string]map[string]struct{}

	// seen records when each remote instance was last heard from.
	seen map[string]time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithPalette sets the join color palette.
func WithPalette(p model.Palette) Option {
	return func(r *Registry) { r.palette = p }
}

// WithBus publishes local changes to other instances.
func WithBus(b ports.PresenceBus) Option {
	return func(r *Registry) { r.bus = b }
}

// WithWorkers bounds concurrent sends per broadcast.
func WithWorkers(n int) Option {
	return func(r *Registry) { r.workers = n }
}

// WithClock overrides time.Now.
func WithClock(fn func() time.Time) Option {
	return func(r *Registry) { r.clock = fn }
}

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithMetrics records member counts and broadcasts.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// NewRegistry creates an empty Registry for the given instance.
func NewRegistry(instanceID string, opts ...Option) *Registry {
	r := &Registry{
		instanceID: instanceID,
		palette:    model.DefaultPalette,
		workers:    DefaultWorkers,
		clock:      time.Now,
		index:      make(map[string]int),
		joined:     make(map[string]map[string]struct{}),
		seen:       make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	return r
}

// InstanceID returns the id stamped on entries created by this registry.
func (r *Registry) InstanceID() string {
	return r.instanceID
}

// Join adds a client to a room, creating the room if needed, and sends the
// new snapshot to every local member. Joining a room the client is already
// in replaces its peer and returns the existing entry.
func (r *Registry) Join(ctx context.Context, roomID string, id model.Identity, peer ports.Peer) (model.Entry, error) {
	if err := validateJoin(roomID, id); err != nil {
		return model.Entry{}, err
	}

	r.mu.Lock()
	rm := r.roomLocked(roomID, true)
	if _, m := rm.find(id.ClientID); m != nil {
		m.peer = peer
		entry := m.entry.Clone()
		r.mu.Unlock()
		r.BroadcastSnapshot(ctx, roomID)
		return entry, nil
	}

	entry := model.Entry{
		ClientID:     id.ClientID,
		UserID:       id.UserID,
		UserName:     id.UserName,
		Color:        r.palette.ForSize(len(rm.members)),
		LastActiveAt: r.clock(),
		Status:       model.StatusActive,
		InstanceID:   r.instanceID,
	}
	rm.members = append(rm.members, &member{entry: entry, peer: peer})
	r.trackLocked(roomID, id.ClientID)
	r.mu.Unlock()

	r.logger.InfoContext(ctx, "member joined",
		slog.String("room_id", roomID),
		slog.String("client_id", id.ClientID),
		slog.String("color", string(entry.Color)),
	)

	r.addMembers(ctx, 1)
	r.publish(ctx, model.Change{Kind: model.ChangeJoin, RoomID: roomID, ClientID: id.ClientID, Entry: entry})
	r.BroadcastSnapshot(ctx, roomID)

	return entry.Clone(), nil
}

// Leave removes a client from a room. Unknown rooms and clients are ignored.
func (r *Registry) Leave(ctx context.Context, roomID, clientID string) {
	r.mu.Lock()
	m := r.removeLocked(roomID, clientID)
	r.mu.Unlock()

	if m == nil {
		return
	}

	r.logger.InfoContext(ctx, "member left",
		slog.String("room_id", roomID),
		slog.String("client_id", clientID),
	)

	if m.local() {
		r.addMembers(ctx, -1)
		r.publish(ctx, model.Change{Kind: model.ChangeLeave, RoomID: roomID, ClientID: clientID})
	}
	r.BroadcastSnapshot(ctx, roomID)
}

// UpdatePresence merges cursor and selection into the client's entry and
// sends the resulting delta to every other local member. Updates for a
// client that is not in the room are ignored.
func (r *Registry) UpdatePresence(ctx context.Context, roomID, clientID string, update model.Update) error {
	if err := validateRef(roomID, clientID); err != nil {
		return err
	}

	r.mu.Lock()
	rm := r.roomLocked(roomID, false)
	if rm == nil {
		r.mu.Unlock()
		return nil
	}
	_, m := rm.find(clientID)
	if m == nil {
		r.mu.Unlock()
		return nil
	}
	m.entry.Apply(update, r.clock())
	entry := m.entry.Clone()
	targets := rm.targets(clientID)
	r.mu.Unlock()

	r.publish(ctx, model.Change{Kind: model.ChangeUpdate, RoomID: roomID, ClientID: clientID, Entry: entry})
	r.sendDelta(ctx, roomID, entry, targets)
	return nil
}

// Heartbeat refreshes the client's last activity time. A client that the
// sweep had marked idle becomes active again and the others are told.
func (r *Registry) Heartbeat(ctx context.Context, roomID, clientID string) {
	r.mu.Lock()
	rm := r.roomLocked(roomID, false)
	if rm == nil {
		r.mu.Unlock()
		return
	}
	_, m := rm.find(clientID)
	if m == nil {
		r.mu.Unlock()
		return
	}
	wasIdle := m.entry.Status == model.StatusIdle
	m.entry.Touch(r.clock())
	entry := m.entry.Clone()
	targets := rm.targets(clientID)
	r.mu.Unlock()

	if !wasIdle {
		return
	}
	r.publish(ctx, model.Change{Kind: model.ChangeStatus, RoomID: roomID, ClientID: clientID, Entry: entry})
	r.sendDelta(ctx, roomID, entry, targets)
}

// Disconnect removes a client from every room it joined and sends each
// affected room its new snapshot.
func (r *Registry) Disconnect(ctx context.Context, clientID string) {
	r.mu.Lock()
	roomIDs := r.roomsOfLocked(clientID)
	var local int64
	for _, roomID := range roomIDs {
		if m := r.removeLocked(roomID, clientID); m != nil && m.local() {
			local++
		}
	}
	r.mu.Unlock()

	if len(roomIDs) == 0 {
		return
	}

	r.logger.InfoContext(ctx, "client disconnected",
		slog.String("client_id", clientID),
		slog.Int("rooms", len(roomIDs)),
	)

	r.addMembers(ctx, -local)
	for _, roomID := range roomIDs {
		if local > 0 {
			r.publish(ctx, model.Change{Kind: model.ChangeLeave, RoomID: roomID, ClientID: clientID})
		}
		r.BroadcastSnapshot(ctx, roomID)
	}
}

// BroadcastSnapshot sends the room's full member list to every local member.
// Members whose send fails are disconnected asynchronously.
func (r *Registry) BroadcastSnapshot(ctx context.Context, roomID string) {
	r.mu.Lock()
	rm := r.roomLocked(roomID, false)
	if rm == nil {
		r.mu.Unlock()
		return
	}
	entries := rm.entries()
	targets := rm.targets("")
	r.mu.Unlock()

	failed := fanout.Deliver(ctx, r.workers, targets, func(_ context.Context, t target) error {
		return t.peer.SendSnapshot(roomID, entries)
	})
	r.countBroadcast(ctx, "presence:snapshot", len(targets))
	r.dropFailed(ctx, roomID, failed)
}

// Snapshot returns the room's entries in join order. An unknown room is
// reported as empty.
func (r *Registry) Snapshot(roomID string) []model.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm := r.roomLocked(roomID, false)
	if rm == nil {
		return []model.Entry{}
	}
	return rm.entries()
}

// LocalMembers returns the ids of clients in the room that are connected to
// this instance, in join order.
func (r *Registry) LocalMembers(roomID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm := r.roomLocked(roomID, false)
	if rm == nil {
		return nil
	}
	out := make([]string, 0, len(rm.members))
	for _, m := range rm.members {
		if m.local() {
			out = append(out, m.entry.ClientID)
		}
	}
	return out
}

// RoomsOf returns the sorted ids of rooms the client is in.
func (r *Registry) RoomsOf(clientID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.roomsOfLocked(clientID)
}

// Rooms returns the sorted ids of all live rooms.
func (r *Registry) Rooms() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, len(r.index))
	for id := range r.index {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// roomLocked returns the room for id, creating it when create is set.
// Callers hold r.mu.
func (r *Registry) roomLocked(id string, create bool) *room {
	if slot, ok := r.index[id]; ok {
		return r.rooms[slot]
	}
	if !create {
		return nil
	}

	rm := &room{id: id}
	if n := len(r.free); n > 0 {
		slot := r.free[n-1]
		r.free = r.free[:n-1]
		r.rooms[slot] = rm
		r.index[id] = slot
	} else {
		r.index[id] = len(r.rooms)
		r.rooms = append(r.rooms, rm)
	}
	return rm
}

// removeLocked deletes a member and disposes the room when it empties.
// Callers hold r.mu.
func (r *Registry) removeLocked(roomID, clientID string) *member {
	slot, ok := r.index[roomID]
	if !ok {
		return nil
	}
	rm := r.rooms[slot]
	i, _ := rm.find(clientID)
	if i < 0 {
		return nil
	}
	m := rm.remove(i)
	r.untrackLocked(roomID, clientID)

	if len(rm.members) == 0 {
		r.rooms[slot] = nil
		r.free = append(r.free, slot)
		delete(r.index, roomID)
	}
	return m
}

func (r *Registry) trackLocked(roomID, clientID string) {
	set, ok := r.joined[clientID]
	if !ok {
		set = make(map[string]struct{})
		r.joined[clientID] = set
	}
	set[roomID] = struct{}{}
}

func (r *Registry) untrackLocked(roomID, clientID string) {
	set, ok := r.joined[clientID]
	if !ok {
		return
	}
	delete(set, roomID)
	if len(set) == 0 {
		delete(r.joined, clientID)
	}
}

func (r *Registry) roomsOfLocked(clientID string) []string {
	set := r.joined[clientID]
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func (r *Registry) sendDelta(ctx context.Context, roomID string, entry model.Entry, targets []target) {
	failed := fanout.Deliver(ctx, r.workers, targets, func(_ context.Context, t target) error {
		return t.peer.SendDelta(roomID, entry)
	})
	r.countBroadcast(ctx, "presence:update", len(targets))
	r.dropFailed(ctx, roomID, failed)
}

// dropFailed disconnects members whose connection refused a send. Each
// disconnect runs on its own goroutine, after the broadcast that found it.
func (r *Registry) dropFailed(ctx context.Context, roomID string, failed []target) {
	if len(failed) == 0 {
		return
	}
	detached := context.WithoutCancel(ctx)
	for _, t := range failed {
		r.logger.WarnContext(ctx, "send failed, dropping member",
			slog.String("room_id", roomID),
			slog.String("client_id", t.clientID),
		)
		go r.Disconnect(detached, t.clientID)
	}
}

func (r *Registry) publish(ctx context.Context, change model.Change) {
	if r.bus == nil {
		return
	}
	change.Origin = r.instanceID
	if err := r.bus.PublishPresence(ctx, change); err != nil {
		r.logger.WarnContext(ctx, "failed to publish presence change",
			slog.String("operation", "Registry.publish"),
			slog.String("room_id", change.RoomID),
			slog.String("kind", string(change.Kind)),
			slog.Any("error", err),
		)
	}
}

func (r *Registry) addMembers(ctx context.Context, n int64) {
	if r.metrics != nil && n != 0 {
		r.metrics.PresenceMembers.Add(ctx, n)
	}
}

func (r *Registry) countBroadcast(ctx context.Context, event string, n int) {
	if r.metrics != nil && n > 0 {
		r.metrics.BroadcastTotal.Add(ctx, int64(n), metric.WithAttributes(telemetry.AttrEvent.String(event)))
	}
}

func validateJoin(roomID string, id model.Identity) error {
	fields := make(map[string]string)
	if strings.TrimSpace(roomID) == "" {
		fields["roomId"] = domain.MsgRequired
	}
	var ve *domain.ValidationError
	if errors.As(id.Validate(), &ve) {
		maps.Copy(fields, ve.Fields)
	}
	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

func validateRef(roomID, clientID string) error {
	fields := make(map[string]string)
	if strings.TrimSpace(roomID) == "" {
		fields["roomId"] = domain.MsgRequired
	}
	if strings.TrimSpace(clientID) == "" {
		fields["clientId"] = domain.MsgRequired
	}
	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}
