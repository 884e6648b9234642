package syncbridge

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen11/collab-sync/internal/domain"
	"github.com/jsamuelsen11/collab-sync/internal/domain/document"
	"github.com/jsamuelsen11/collab-sync/internal/domain/ordering"
	"github.com/jsamuelsen11/collab-sync/mocks"
)

func board(version int64) document.Document {
	return document.Document{
		ID:      "doc-1",
		Version: version,
		Containers: []document.Container{
			{ID: "todo", Version: 1},
			{ID: "done", Version: 1},
		},
		Items: []ordering.Item{
			{ID: "A", ContainerID: "todo", Position: 0},
			{ID: "B", ContainerID: "todo", Position: 1},
			{ID: "C", ContainerID: "todo", Position: 2},
			{ID: "D", ContainerID: "done", Position: 0},
		},
		Nodes:    []document.Node{{ID: "n1", X: 0, Y: 0}},
		Viewport: document.Viewport{Zoom: 1},
	}
}

type bridgeFixture struct {
	store  *mocks.MockDocumentStore
	pushes chan document.Document
	bridge *Bridge
}

func newBridgeFixture(t *testing.T, opts ...Option) bridgeFixture {
	t.Helper()

	store := mocks.NewMockDocumentStore(t)
	feed := mocks.NewMockDocumentFeed(t)
	pushes := make(chan document.Document)

	initial := board(1)
	store.EXPECT().GetDocument(mock.Anything, "doc-1").Return(&initial, nil).Once()
	feed.EXPECT().SubscribeDocument(mock.Anything, "doc-1").Return((<-chan document.Document)(pushes), nil).Once()

	b := New(store, feed, opts...)
	if err := b.Subscribe(context.Background(), "doc-1"); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	t.Cleanup(b.Close)

	return bridgeFixture{store: store, pushes: pushes, bridge: b}
}

// push blocks until the bridge has taken doc off the feed.
func (f bridgeFixture) push(doc document.Document) {
	f.pushes <- doc
}

func (f bridgeFixture) pendingVersion() int64 {
	s := f.bridge.state.Get()
	if s.pending == nil {
		return 0
	}
	return s.pending.Version
}

func nodeX(d document.Document) float64 {
	return d.Nodes[0].X
}

func TestBridge_PushAppliesWhenIdle(t *testing.T) {
	t.Parallel()
	f := newBridgeFixture(t)

	f.push(board(2))

	require.Eventually(t, func() bool { return f.bridge.Canonical().Version == 2 }, time.Second, 5*time.Millisecond)
	if got := f.bridge.Local().Version; got != 2 {
		t.Errorf("Local().Version = %d, want 2", got)
	}
}

func TestBridge_EditIsolation(t *testing.T) {
	t.Parallel()
	f := newBridgeFixture(t)
	b := f.bridge

	b.BeginEdit()
	for i := 1; i <= 5; i++ {
		err := b.ApplyLocal(func(d *document.Document) error {
			return d.MoveNode("n1", float64(i*10), 0)
		})
		if err != nil {
			t.Fatalf("ApplyLocal(%d) error = %v", i, err)
		}
	}

	for v := int64(2); v <= 4; v++ {
		f.push(board(v))
	}
	require.Eventually(t, func() bool { return f.pendingVersion() == 4 }, time.Second, 5*time.Millisecond)

	if got := nodeX(b.Local()); got != 50 {
		t.Errorf("local node X during gesture = %v, want 50", got)
	}
	if got := b.Canonical().Version; got != 1 {
		t.Errorf("Canonical().Version during gesture = %d, want 1", got)
	}

	f.store.EXPECT().SaveDocument(mock.Anything, "doc-1", mock.MatchedBy(func(p document.Patch) bool {
		return p.SetItems && p.SetNodes && p.Nodes[0].X == 50
	})).RunAndReturn(func(_ context.Context, _ string, p document.Patch) (*document.Document, error) {
		saved := p.ApplyTo(board(4))
		saved.Version = 5
		return &saved, nil
	}).Once()

	saved, err := b.Commit(context.Background())
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if saved.Version != 5 {
		t.Errorf("saved.Version = %d, want 5", saved.Version)
	}
	if b.Editing() {
		t.Error("Editing() = true after Commit")
	}
	if got := b.Local(); got.Version != 5 || nodeX(got) != 50 {
		t.Errorf("Local() = v%d x=%v, want v5 x=50", got.Version, nodeX(got))
	}
	if f.pendingVersion() != 0 {
		t.Error("buffered push survived commit")
	}
}

func TestBridge_EditDuringCommitGoesOutNext(t *testing.T) {
	t.Parallel()
	f := newBridgeFixture(t, WithAutoCommit(200*time.Millisecond))
	b := f.bridge

	b.BeginEdit()
	_ = b.ApplyLocal(func(d *document.Document) error { return d.MoveNode("n1", 5, 0) })

	f.store.EXPECT().SaveDocument(mock.Anything, "doc-1", mock.MatchedBy(func(p document.Patch) bool {
		return p.Nodes[0].X == 5
	})).RunAndReturn(func(_ context.Context, _ string, p document.Patch) (*document.Document, error) {
		if err := b.ApplyLocal(func(d *document.Document) error { return d.MoveNode("n1", 9, 0) }); err != nil {
			t.Errorf("ApplyLocal() during commit error = %v", err)
		}
		saved := p.ApplyTo(board(1))
		saved.Version = 2
		return &saved, nil
	}).Once()
	f.store.EXPECT().SaveDocument(mock.Anything, "doc-1", mock.MatchedBy(func(p document.Patch) bool {
		return p.Nodes[0].X == 9
	})).RunAndReturn(func(_ context.Context, _ string, p document.Patch) (*document.Document, error) {
		saved := p.ApplyTo(board(2))
		saved.Version = 3
		return &saved, nil
	}).Once()

	if _, err := b.Commit(context.Background()); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if b.Editing() {
		t.Error("Editing() = true after Commit")
	}
	if !b.state.Get().dirty {
		t.Error("edit made during commit not marked dirty")
	}
	if got := nodeX(b.Local()); got != 9 {
		t.Errorf("local node X = %v, want 9", got)
	}

	require.Eventually(t, func() bool { return b.Canonical().Version == 3 }, time.Second, 5*time.Millisecond)
	if got := nodeX(b.Canonical()); got != 9 {
		t.Errorf("canonical node X = %v, want 9", got)
	}

	f.push(board(5))
	require.Eventually(t, func() bool { return b.Canonical().Version == 5 }, time.Second, 5*time.Millisecond)
	if f.pendingVersion() != 0 {
		t.Errorf("push stayed buffered at v%d", f.pendingVersion())
	}
}

func TestBridge_CommitKeepsNewerBufferedPush(t *testing.T) {
	t.Parallel()
	f := newBridgeFixture(t)
	b := f.bridge

	b.BeginEdit()
	_ = b.ApplyLocal(func(d *document.Document) error { return d.MoveNode("n1", 7, 7) })
	f.push(board(6))
	require.Eventually(t, func() bool { return f.pendingVersion() == 6 }, time.Second, 5*time.Millisecond)

	older := board(3)
	f.store.EXPECT().SaveDocument(mock.Anything, "doc-1", mock.Anything).Return(&older, nil).Once()

	if _, err := b.Commit(context.Background()); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if got := b.Local().Version; got != 6 {
		t.Errorf("Local().Version = %d, want 6", got)
	}
}

func TestBridge_CommitFailureSnapsBack(t *testing.T) {
	t.Parallel()
	f := newBridgeFixture(t)
	b := f.bridge

	b.BeginEdit()
	if err := b.MoveItem(ordering.Move{ItemID: "C", FromContainerID: "todo", ToContainerID: "todo", ToPosition: 0}); err != nil {
		t.Fatalf("MoveItem() error = %v", err)
	}
	if got := b.Local().Items[2].Position; got != 0 {
		t.Fatalf("optimistic C position = %d, want 0", got)
	}

	f.store.EXPECT().SaveDocument(mock.Anything, "doc-1", mock.Anything).Return(nil, domain.ErrStaleEdit).Once()

	_, err := b.Commit(context.Background())
	if !errors.Is(err, domain.ErrStaleEdit) {
		t.Fatalf("Commit() error = %v, want ErrStaleEdit", err)
	}
	if got := b.Local().Items[2].Position; got != 2 {
		t.Errorf("C position after snap back = %d, want 2", got)
	}
	if b.Editing() {
		t.Error("Editing() = true after failed Commit")
	}
}

func TestBridge_DiscardRestoresLatestCanonical(t *testing.T) {
	t.Parallel()
	f := newBridgeFixture(t)
	b := f.bridge

	b.BeginEdit()
	_ = b.ApplyLocal(func(d *document.Document) error { return d.MoveNode("n1", 99, 99) })
	f.push(board(2))
	require.Eventually(t, func() bool { return f.pendingVersion() == 2 }, time.Second, 5*time.Millisecond)

	b.Discard()

	got := b.Local()
	if got.Version != 2 || nodeX(got) != 0 {
		t.Errorf("Local() = v%d x=%v, want v2 x=0", got.Version, nodeX(got))
	}
}

func TestBridge_StalePushIgnored(t *testing.T) {
	t.Parallel()
	f := newBridgeFixture(t)

	f.push(board(3))
	require.Eventually(t, func() bool { return f.bridge.Canonical().Version == 3 }, time.Second, 5*time.Millisecond)

	f.bridge.Receive(board(2))
	if got := f.bridge.Canonical().Version; got != 3 {
		t.Errorf("Canonical().Version = %d, want 3", got)
	}
}

func TestBridge_ApplyLocalErrorLeavesDocument(t *testing.T) {
	t.Parallel()
	f := newBridgeFixture(t)

	err := f.bridge.MoveItem(ordering.Move{ItemID: "Z", FromContainerID: "todo", ToContainerID: "todo", ToPosition: 0})
	if !errors.Is(err, domain.ErrItemNotFound) {
		t.Fatalf("MoveItem() error = %v, want ErrItemNotFound", err)
	}
	if got := f.bridge.Local().Items[0].Position; got != 0 {
		t.Errorf("A position = %d, want 0", got)
	}
}

func TestBridge_AutoCommit(t *testing.T) {
	t.Parallel()
	f := newBridgeFixture(t, WithAutoCommit(10*time.Millisecond))

	var saves atomic.Int32
	f.store.EXPECT().SaveDocument(mock.Anything, "doc-1", mock.Anything).RunAndReturn(
		func(_ context.Context, _ string, p document.Patch) (*document.Document, error) {
			saves.Add(1)
			saved := p.ApplyTo(board(1))
			saved.Version = 2
			return &saved, nil
		}).Once()

	var changes atomic.Int32
	f.bridge.OnChange(func(document.Document) { changes.Add(1) })

	for _, x := range []float64{1, 2, 3} {
		_ = f.bridge.ApplyLocal(func(d *document.Document) error { return d.MoveNode("n1", x, 0) })
	}

	require.Eventually(t, func() bool { return f.bridge.Canonical().Version == 2 }, time.Second, 5*time.Millisecond)
	if got := saves.Load(); got != 1 {
		t.Errorf("saves = %d, want 1 (debounced)", got)
	}
	if got := nodeX(f.bridge.Local()); got != 3 {
		t.Errorf("node X = %v, want 3", got)
	}
	if changes.Load() < 3 {
		t.Errorf("OnChange calls = %d, want at least 3", changes.Load())
	}
}

func TestBridge_NotSubscribed(t *testing.T) {
	t.Parallel()
	b := New(mocks.NewMockDocumentStore(t), mocks.NewMockDocumentFeed(t))

	if err := b.ApplyLocal(func(*document.Document) error { return nil }); !errors.Is(err, ErrNotSubscribed) {
		t.Errorf("ApplyLocal() error = %v, want ErrNotSubscribed", err)
	}
	if _, err := b.Commit(context.Background()); !errors.Is(err, ErrNotSubscribed) {
		t.Errorf("Commit() error = %v, want ErrNotSubscribed", err)
	}
}
