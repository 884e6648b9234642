package redis_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen11/collab-sync/internal/adapters/bus/redis"
	apppresence "github.com/jsamuelsen11/collab-sync/internal/app/presence"
	"github.com/jsamuelsen11/collab-sync/internal/domain/presence"
	"github.com/jsamuelsen11/collab-sync/internal/ports"
)

func newBus(t *testing.T, mr *miniredis.Miniredis) *redis.Bus {
	t.Helper()
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return redis.New(rdb, "test", nil)
}

type received struct {
	mu      sync.Mutex
	changes []presence.Change
	events  []ports.RoomEvent
}

func (r *received) handlers() ports.BusHandlers {
	return ports.BusHandlers{
		Presence: func(c presence.Change) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.changes = append(r.changes, c)
		},
		RoomEvent: func(ev ports.RoomEvent) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.events = append(r.events, ev)
		},
	}
}

func (r *received) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.changes), len(r.events)
}

func TestBus_PresenceRoundTripBetweenInstances(t *testing.T) {
	t.Parallel()
	mr := miniredis.RunT(t)
	pub, sub := newBus(t, mr), newBus(t, mr)
	ctx := context.Background()

	var got received
	stop, err := sub.Subscribe(ctx, got.handlers())
	require.NoError(t, err)
	defer stop()

	anchor := 2
	change := presence.Change{
		Kind:     presence.ChangeUpdate,
		RoomID:   "board",
		ClientID: "c1",
		Origin:   "inst-a",
		Entry: presence.Entry{
			ClientID:     "c1",
			UserID:       "u1",
			UserName:     "Ada",
			Color:        "#E57373",
			Cursor:       &presence.Cursor{X: 1.5, Y: 2},
			Selection:    &presence.Selection{IDs: []string{"card-1"}, Anchor: &anchor},
			LastActiveAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			Status:       presence.StatusActive,
			InstanceID:   "inst-a",
		},
	}
	require.NoError(t, pub.PublishPresence(ctx, change))

	require.Eventually(t, func() bool {
		n, _ := got.counts()
		return n == 1
	}, 2*time.Second, 10*time.Millisecond)

	got.mu.Lock()
	defer got.mu.Unlock()
	c := got.changes[0]
	assert.Equal(t, presence.ChangeUpdate, c.Kind)
	assert.Equal(t, "inst-a", c.Origin)
	assert.Equal(t, "board", c.RoomID)
	assert.Equal(t, "Ada", c.Entry.UserName)
	require.NotNil(t, c.Entry.Cursor)
	assert.InDelta(t, 1.5, c.Entry.Cursor.X, 0)
	require.NotNil(t, c.Entry.Selection)
	assert.Equal(t, []string{"card-1"}, c.Entry.Selection.IDs)
	require.NotNil(t, c.Entry.Selection.Anchor)
	assert.Equal(t, 2, *c.Entry.Selection.Anchor)
	assert.Nil(t, c.Entry.Selection.Head)
	assert.True(t, c.Entry.LastActiveAt.Equal(change.Entry.LastActiveAt))
}

func TestBus_RoomEventKeepsEncodedData(t *testing.T) {
	t.Parallel()
	mr := miniredis.RunT(t)
	bus := newBus(t, mr)
	ctx := context.Background()

	var got received
	stop, err := bus.Subscribe(ctx, got.handlers())
	require.NoError(t, err)
	defer stop()

	data := []byte(`{"itemId":"card-1","toPosition":0}`)
	require.NoError(t, bus.PublishRoomEvent(ctx, ports.RoomEvent{
		Origin: "inst-a", RoomID: "board", Event: "items:moved", Data: data,
	}))

	require.Eventually(t, func() bool {
		_, n := got.counts()
		return n == 1
	}, 2*time.Second, 10*time.Millisecond)

	got.mu.Lock()
	defer got.mu.Unlock()
	ev := got.events[0]
	assert.Equal(t, "items:moved", ev.Event)
	assert.JSONEq(t, string(data), string(ev.Data))
}

func TestBus_DropsMalformedMessages(t *testing.T) {
	t.Parallel()
	mr := miniredis.RunT(t)
	bus := newBus(t, mr)
	ctx := context.Background()

	var got received
	stop, err := bus.Subscribe(ctx, got.handlers())
	require.NoError(t, err)
	defer stop()

	mr.Publish(bus.Channel(), "not json")
	bad, _ := json.Marshal(map[string]string{"kind": "presence"})
	mr.Publish(bus.Channel(), string(bad))
	require.NoError(t, bus.PublishRoomEvent(ctx, ports.RoomEvent{RoomID: "board", Event: "document:update"}))

	require.Eventually(t, func() bool {
		_, n := got.counts()
		return n == 1
	}, 2*time.Second, 10*time.Millisecond)
	changes, _ := got.counts()
	assert.Zero(t, changes)
}

func TestBus_StopEndsDelivery(t *testing.T) {
	t.Parallel()
	mr := miniredis.RunT(t)
	bus := newBus(t, mr)
	ctx := context.Background()

	var got received
	stop, err := bus.Subscribe(ctx, got.handlers())
	require.NoError(t, err)
	stop()
	stop()

	require.NoError(t, bus.PublishRoomEvent(ctx, ports.RoomEvent{RoomID: "board", Event: "x"}))
	time.Sleep(50 * time.Millisecond)
	_, n := got.counts()
	assert.Zero(t, n)
}

func TestBus_HealthCheck(t *testing.T) {
	t.Parallel()
	mr := miniredis.RunT(t)
	bus := newBus(t, mr)

	assert.Equal(t, "presence-bus", bus.Name())
	require.NoError(t, bus.HealthCheck(context.Background()))

	mr.Close()
	assert.Error(t, bus.HealthCheck(context.Background()))
}

type nopPeer struct{}

func (nopPeer) ClientID() string                                { return "" }
func (nopPeer) SendSnapshot(_ string, _ []presence.Entry) error { return nil }
func (nopPeer) SendDelta(_ string, _ presence.Entry) error      { return nil }

func TestBus_LateRegistryReceivesReplayedMembers(t *testing.T) {
	t.Parallel()
	mr := miniredis.RunT(t)
	ctx := context.Background()
	now := func() time.Time { return time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC) }

	a := apppresence.NewRegistry("inst-a", apppresence.WithBus(newBus(t, mr)), apppresence.WithClock(now))
	stopA, err := a.Listen(ctx)
	require.NoError(t, err)
	ea, err := a.Join(ctx, "board", presence.Identity{ClientID: "c1", UserID: "u1", UserName: "Ada"}, nopPeer{})
	require.NoError(t, err)

	b := apppresence.NewRegistry("inst-b", apppresence.WithBus(newBus(t, mr)), apppresence.WithClock(now))
	stopB, err := b.Listen(ctx)
	require.NoError(t, err)
	defer stopB()

	require.Eventually(t, func() bool { return len(b.Snapshot("board")) == 1 },
		2*time.Second, 10*time.Millisecond, "late registry never received c1")

	eb, err := b.Join(ctx, "board", presence.Identity{ClientID: "c2", UserID: "u2", UserName: "Grace"}, nopPeer{})
	require.NoError(t, err)
	assert.NotEqual(t, ea.Color, eb.Color)

	// inst-a stops without leaving; b drops c1 once inst-a has been silent
	// longer than the instance TTL.
	stopA()
	hb := apppresence.NewHeartbeat(b, 0, 0, time.Second, apppresence.WithInstanceTTL(time.Minute))
	res := hb.Sweep(ctx, now().Add(time.Hour))
	assert.Equal(t, 1, res.Expired)

	snap := b.Snapshot("board")
	require.Len(t, snap, 1)
	assert.Equal(t, "c2", snap[0].ClientID)
}
