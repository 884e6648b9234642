package presence

import (
	"context"
	"log/slog"
	"time"

	model "github.com/jsamuelsen11/collab-sync/internal/domain/presence"
	"github.com/jsamuelsen11/collab-sync/internal/ports"
)

// Listen subscribes to the bus and merges changes published by other
// instances until ctx is canceled or stop is called. Once subscribed it asks
// the other instances to replay their members, so an instance that starts
// late still sees who is already in each room. Without a bus it returns a
// no-op stop function.
func (r *Registry) Listen(ctx context.Context) (stop func(), err error) {
	if r.bus == nil {
		return func() {}, nil
	}
	stop, err = r.bus.Subscribe(ctx, ports.BusHandlers{
		Presence: func(c model.Change) {
			r.ApplyRemote(ctx, c)
		},
	})
	if err != nil {
		return nil, err
	}
	r.publish(ctx, model.Change{Kind: model.ChangeSync})
	return stop, nil
}

// Announce publishes a liveness beacon for this instance.
func (r *Registry) Announce(ctx context.Context) {
	r.publish(ctx, model.Change{Kind: model.ChangeBeacon})
}

// ApplyRemote merges a change made on another instance into the local view
// and tells local members about it. Changes that originated here are
// ignored. Every change counts as a sign of life from its origin.
func (r *Registry) ApplyRemote(ctx context.Context, c model.Change) {
	if c.Origin == r.instanceID {
		return
	}
	if c.Origin != "" {
		r.mu.Lock()
		r.seen[c.Origin] = r.clock()
		r.mu.Unlock()
	}

	switch c.Kind {
	case model.ChangeBeacon:
		return
	case model.ChangeSync:
		r.replayLocal(ctx)
		return
	}

	if c.RoomID == "" || c.ClientID == "" {
		return
	}

	switch c.Kind {
	case model.ChangeJoin:
		if r.upsertRemote(c) {
			r.BroadcastSnapshot(ctx, c.RoomID)
		}

	case model.ChangeLeave:
		r.mu.Lock()
		m := r.removeLocked(c.RoomID, c.ClientID)
		r.mu.Unlock()
		if m != nil {
			r.BroadcastSnapshot(ctx, c.RoomID)
		}

	case model.ChangeUpdate, model.ChangeStatus:
		if r.upsertRemote(c) {
			r.BroadcastSnapshot(ctx, c.RoomID)
			return
		}
		r.mu.Lock()
		var targets []target
		if rm := r.roomLocked(c.RoomID, false); rm != nil {
			targets = rm.targets(c.ClientID)
		}
		r.mu.Unlock()
		r.sendDelta(ctx, c.RoomID, c.Entry.Clone(), targets)

	default:
		r.logger.WarnContext(ctx, "ignoring unknown presence change",
			slog.String("kind", string(c.Kind)),
			slog.String("origin", c.Origin),
		)
	}
}

// replayLocal republishes every local member as a join.
func (r *Registry) replayLocal(ctx context.Context) {
	var joins []model.Change
	r.mu.Lock()
	for _, rm := range r.rooms {
		if rm == nil {
			continue
		}
		for _, m := range rm.members {
			if m.local() {
				joins = append(joins, model.Change{
					Kind:     model.ChangeJoin,
					RoomID:   rm.id,
					ClientID: m.entry.ClientID,
					Entry:    m.entry.Clone(),
				})
			}
		}
	}
	r.mu.Unlock()

	for _, c := range joins {
		r.publish(ctx, c)
	}
}

// upsertRemote stores the remote entry and reports whether it was new.
func (r *Registry) upsertRemote(c model.Change) bool {
	entry := c.Entry.Clone()
	entry.ClientID = c.ClientID
	if entry.InstanceID == "" {
		entry.InstanceID = c.Origin
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.seen[entry.InstanceID]; !ok {
		r.seen[entry.InstanceID] = r.clock()
	}

	rm := r.roomLocked(c.RoomID, true)
	if _, m := rm.find(c.ClientID); m != nil {
		if m.local() {
			return false
		}
		m.entry = entry
		return false
	}
	rm.members = append(rm.members, &member{entry: entry})
	r.trackLocked(c.RoomID, c.ClientID)
	return true
}

// expireRemote drops members of instances not heard from since now-ttl and
// returns the rooms that lost members, in the order they were found.
func (r *Registry) expireRemote(now time.Time, ttl time.Duration) (rooms []string, dropped int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dead := make(map[string]struct{})
	for id, at := range r.seen {
		if now.Sub(at) >= ttl {
			dead[id] = struct{}{}
			delete(r.seen, id)
		}
	}
	if len(dead) == 0 {
		return nil, 0
	}

	type ghost struct{ roomID, clientID string }
	var ghosts []ghost
	for _, rm := range r.rooms {
		if rm == nil {
			continue
		}
		for _, m := range rm.members {
			if _, ok := dead[m.entry.InstanceID]; ok && !m.local() {
				ghosts = append(ghosts, ghost{roomID: rm.id, clientID: m.entry.ClientID})
			}
		}
	}

	touched := make(map[string]struct{})
	for _, g := range ghosts {
		if r.removeLocked(g.roomID, g.clientID) == nil {
			continue
		}
		dropped++
		if _, ok := touched[g.roomID]; !ok {
			touched[g.roomID] = struct{}{}
			rooms = append(rooms, g.roomID)
		}
	}
	return rooms, dropped
}
