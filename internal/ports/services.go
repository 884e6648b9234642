package ports

import (
	"context"

	"github.com/jsamuelsen11/collab-sync/internal/domain/document"
	"github.com/jsamuelsen11/collab-sync/internal/domain/ordering"
	"github.com/jsamuelsen11/collab-sync/internal/domain/presence"
)

// MoveRequest asks to relocate an item. RoomID selects who hears about the
// result; DocumentID, when set, adds a document:update broadcast.
type MoveRequest struct {
	RoomID     string
	DocumentID string
	Move       ordering.Move
}

// MoveResult describes a committed (or skipped) move.
type MoveResult struct {
	Move    ordering.Move
	Updates []ordering.Update

	// Containers holds the post-move snapshots of the touched containers.
	Containers []ordering.Snapshot

	// NoOp is set when the item was already at the requested slot. Nothing
	// was written or broadcast.
	NoOp bool
}

// OrderingService moves items between positions and containers.
type OrderingService interface {
	// MoveItem plans and atomically commits a move, then notifies the room.
	// Returns domain.ErrItemNotFound, domain.ErrContainerNotFound,
	// domain.ErrValidation, or domain.ErrStoreWriteFailed.
	MoveItem(ctx context.Context, req MoveRequest) (*MoveResult, error)

	// ContainerItems returns a container's ordered items.
	ContainerItems(ctx context.Context, containerID string) (ordering.Snapshot, error)
}

// DocumentService reads and commits canonical documents.
type DocumentService interface {
	GetDocument(ctx context.Context, id string) (*document.Document, error)

	// SaveDocument commits patch and notifies roomID with the new document.
	// Returns domain.ErrStaleEdit, domain.ErrValidation, or
	// domain.ErrStoreWriteFailed.
	SaveDocument(ctx context.Context, roomID, id string, patch document.Patch) (*document.Document, error)
}

// Peer is a locally connected client that can receive presence messages.
type Peer interface {
	ClientID() string
	SendSnapshot(roomID string, entries []presence.Entry) error
	SendDelta(roomID string, entry presence.Entry) error
}

// PresenceService tracks room membership and presence.
type PresenceService interface {
	Join(ctx context.Context, roomID string, id presence.Identity, peer Peer) (presence.Entry, error)
	Leave(ctx context.Context, roomID, clientID string)
	UpdatePresence(ctx context.Context, roomID, clientID string, update presence.Update) error
	Heartbeat(ctx context.Context, roomID, clientID string)
	Disconnect(ctx context.Context, clientID string)
	BroadcastSnapshot(ctx context.Context, roomID string)

	// Snapshot returns the room's entries in join order. An unknown room
	// is reported as empty.
	Snapshot(roomID string) []presence.Entry

	// LocalMembers returns the client IDs connected to this instance.
	LocalMembers(roomID string) []string

	// RoomsOf returns the rooms a client has joined.
	RoomsOf(clientID string) []string
}

// ResyncState is the freshly pulled canonical state sent after a failed
// write so that clients snap back.
type ResyncState struct {
	Containers []ordering.Snapshot
	Document   *document.Document
}

// RoomBroadcaster fans room-level results out to every member of a room on
// every instance.
type RoomBroadcaster interface {
	ItemsMoved(ctx context.Context, roomID string, result *MoveResult)
	DocumentUpdated(ctx context.Context, roomID string, doc *document.Document)
	Resync(ctx context.Context, roomID string, state ResyncState)
}
