package ports

import (
	"context"

	"github.com/jsamuelsen11/collab-sync/internal/domain/document"
	"github.com/jsamuelsen11/collab-sync/internal/domain/ordering"
	"github.com/jsamuelsen11/collab-sync/internal/domain/presence"
)

// ItemStore is the external store's view of ordered items.
type ItemStore interface {
	// GetContainerItems returns the container's items in position order
	// together with the container's current version.
	// Returns domain.ErrContainerNotFound if the container does not exist.
	GetContainerItems(ctx context.Context, containerID string) (ordering.Snapshot, error)

	// ApplyPositionUpdates commits every update in the batch or none of
	// them. Each container listed in batch.Expected must still be at the
	// expected version, otherwise domain.ErrVersionConflict is returned.
	// Successful batches bump each touched container's version and the
	// version of any document owning those containers.
	ApplyPositionUpdates(ctx context.Context, batch ordering.Batch) error
}

// DocumentStore is the external store's view of canonical documents.
type DocumentStore interface {
	// GetDocument returns the canonical document.
	// Returns domain.ErrDocumentNotFound if the document does not exist.
	GetDocument(ctx context.Context, id string) (*document.Document, error)

	// SaveDocument applies patch atomically and returns the new canonical
	// document with its version incremented.
	// Returns domain.ErrStaleEdit if the document is archived or gone, and
	// domain.ErrValidation if the patch would break item ordering.
	SaveDocument(ctx context.Context, id string, patch document.Patch) (*document.Document, error)
}

// Store combines both store views. Every store driver implements it.
type Store interface {
	ItemStore
	DocumentStore
}

// RoomEvent is an already-encoded room broadcast relayed between instances.
type RoomEvent struct {
	Origin string
	RoomID string
	Event  string
	Data   []byte
}

// BusHandlers receives messages published by other instances. Either field
// may be nil.
type BusHandlers struct {
	Presence  func(presence.Change)
	RoomEvent func(RoomEvent)
}

// PresenceBus carries presence changes and room broadcasts between server
// instances so that room state is shared across a horizontally scaled
// deployment.
type PresenceBus interface {
	PublishPresence(ctx context.Context, change presence.Change) error
	PublishRoomEvent(ctx context.Context, event RoomEvent) error

	// Subscribe delivers messages until ctx is canceled or the returned
	// stop function is called.
	Subscribe(ctx context.Context, handlers BusHandlers) (stop func(), err error)
}

// DocumentFeed pushes canonical documents as they change.
type DocumentFeed interface {
	// SubscribeDocument returns a channel carrying the current canonical
	// document followed by every later version. The channel is closed
	// when ctx is canceled or the feed ends.
	SubscribeDocument(ctx context.Context, documentID string) (<-chan document.Document, error)
}
