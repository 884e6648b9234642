package presence

import (
	"context"
	"log/slog"
	"time"

	model "github.com/jsamuelsen11/collab-sync/internal/domain/presence"
)

// SweepResult counts what a sweep changed.
type SweepResult struct {
	Idle    int
	Evicted int
	// Expired counts remote members dropped because their instance went
	// silent.
	Expired int
}

// Heartbeat periodically marks quiet members idle and, when configured,
// evicts members that have been silent for too long. Eviction is off when
// evictAfter is zero; stale connections are then removed only when the
// transport reports the disconnect.
//
// With an instance TTL the heartbeat also announces this instance on every
// tick and drops remote members whose instance has not been heard from
// within the TTL.
type Heartbeat struct {
	registry    *Registry
	idleAfter   time.Duration
	evictAfter  time.Duration
	interval    time.Duration
	instanceTTL time.Duration
}

// HeartbeatOption configures a Heartbeat.
type HeartbeatOption func(*Heartbeat)

// WithInstanceTTL drops remote members whose instance has been silent for
// ttl. Zero keeps remote members until their instance reports a leave.
func WithInstanceTTL(ttl time.Duration) HeartbeatOption {
	return func(h *Heartbeat) { h.instanceTTL = ttl }
}

// NewHeartbeat creates a Heartbeat over registry.
func NewHeartbeat(registry *Registry, idleAfter, evictAfter, interval time.Duration, opts ...HeartbeatOption) *Heartbeat {
	h := &Heartbeat{
		registry:   registry,
		idleAfter:  idleAfter,
		evictAfter: evictAfter,
		interval:   interval,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Enabled reports whether Run has anything to do.
func (h *Heartbeat) Enabled() bool {
	return h.interval > 0 && (h.idleAfter > 0 || h.evictAfter > 0 || h.instanceTTL > 0)
}

// Run sweeps on every tick until ctx is canceled.
func (h *Heartbeat) Run(ctx context.Context) {
	if !h.Enabled() {
		return
	}

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if h.instanceTTL > 0 {
				h.registry.Announce(ctx)
			}
			res := h.Sweep(ctx, h.registry.clock())
			if res.Idle > 0 || res.Evicted > 0 || res.Expired > 0 {
				h.registry.logger.DebugContext(ctx, "presence sweep",
					slog.Int("idle", res.Idle),
					slog.Int("evicted", res.Evicted),
					slog.Int("expired", res.Expired),
				)
			}
		}
	}
}

type sweepHit struct {
	roomID string
	entry  model.Entry
}

// Sweep inspects local members as of now. Members of other instances are
// swept by their own instance, unless that instance has stopped announcing
// itself for longer than the instance TTL.
func (h *Heartbeat) Sweep(ctx context.Context, now time.Time) SweepResult {
	r := h.registry

	var expired int
	if h.instanceTTL > 0 {
		var rooms []string
		rooms, expired = r.expireRemote(now, h.instanceTTL)
		for _, roomID := range rooms {
			r.logger.InfoContext(ctx, "dropped members of silent instance",
				slog.String("room_id", roomID),
			)
			r.BroadcastSnapshot(ctx, roomID)
		}
	}

	var idle, evict []sweepHit

	r.mu.Lock()
	for _, rm := range r.rooms {
		if rm == nil {
			continue
		}
		for _, m := range rm.members {
			if !m.local() {
				continue
			}
			age := now.Sub(m.entry.LastActiveAt)
			switch {
			case h.evictAfter > 0 && age >= h.evictAfter:
				evict = append(evict, sweepHit{roomID: rm.id, entry: m.entry.Clone()})
			case h.idleAfter > 0 && age >= h.idleAfter && m.entry.Status == model.StatusActive:
				m.entry.Status = model.StatusIdle
				idle = append(idle, sweepHit{roomID: rm.id, entry: m.entry.Clone()})
			}
		}
	}
	r.mu.Unlock()

	touched := make(map[string]struct{})
	var rooms []string
	for _, hit := range idle {
		r.publish(ctx, model.Change{
			Kind:     model.ChangeStatus,
			RoomID:   hit.roomID,
			ClientID: hit.entry.ClientID,
			Entry:    hit.entry,
		})
		if _, ok := touched[hit.roomID]; !ok {
			touched[hit.roomID] = struct{}{}
			rooms = append(rooms, hit.roomID)
		}
	}
	for _, roomID := range rooms {
		r.BroadcastSnapshot(ctx, roomID)
	}

	for _, hit := range evict {
		r.logger.InfoContext(ctx, "evicting silent member",
			slog.String("room_id", hit.roomID),
			slog.String("client_id", hit.entry.ClientID),
			slog.Time("last_active_at", hit.entry.LastActiveAt),
		)
		r.Leave(ctx, hit.roomID, hit.entry.ClientID)
	}

	return SweepResult{Idle: len(idle), Evicted: len(evict), Expired: expired}
}
