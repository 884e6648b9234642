package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/jsamuelsen11/collab-sync/internal/domain"
	"github.com/jsamuelsen11/collab-sync/internal/domain/document"
	"github.com/jsamuelsen11/collab-sync/internal/domain/ordering"
	"github.com/jsamuelsen11/collab-sync/internal/ports"
	"github.com/jsamuelsen11/collab-sync/mocks"
)

func testDocument() *document.Document {
	return &document.Document{
		ID:      "doc-1",
		Version: 4,
		Containers: []document.Container{
			{ID: "todo", Version: 1},
			{ID: "done", Version: 1},
		},
		Items: []ordering.Item{
			{ID: "A", ContainerID: "todo", Position: 0},
			{ID: "B", ContainerID: "todo", Position: 1},
			{ID: "D", ContainerID: "done", Position: 0},
		},
		Viewport: document.Viewport{Zoom: 1},
	}
}

func TestDocumentService_GetDocument(t *testing.T) {
	t.Parallel()

	t.Run("returns document", func(t *testing.T) {
		t.Parallel()
		store := mocks.NewMockDocumentStore(t)
		svc := NewDocumentService(store, nil, discardLogger())

		store.EXPECT().GetDocument(mock.Anything, "doc-1").Return(testDocument(), nil).Once()

		got, err := svc.GetDocument(context.Background(), "doc-1")
		if err != nil {
			t.Fatalf("GetDocument() error = %v", err)
		}
		if got.Version != 4 {
			t.Errorf("Version = %d, want 4", got.Version)
		}
	})

	t.Run("passes not found through", func(t *testing.T) {
		t.Parallel()
		store := mocks.NewMockDocumentStore(t)
		svc := NewDocumentService(store, nil, discardLogger())

		store.EXPECT().GetDocument(mock.Anything, "nope").Return(nil, domain.ErrDocumentNotFound).Once()

		if _, err := svc.GetDocument(context.Background(), "nope"); !errors.Is(err, domain.ErrDocumentNotFound) {
			t.Errorf("GetDocument() error = %v, want ErrDocumentNotFound", err)
		}
	})

	t.Run("requires an id", func(t *testing.T) {
		t.Parallel()
		svc := NewDocumentService(mocks.NewMockDocumentStore(t), nil, nil)

		if _, err := svc.GetDocument(context.Background(), ""); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("GetDocument() error = %v, want ErrValidation", err)
		}
	})
}

func TestDocumentService_SaveDocument(t *testing.T) {
	t.Parallel()

	swap := document.Patch{
		SetItems: true,
		Items: []ordering.Item{
			{ID: "B", ContainerID: "todo", Position: 0},
			{ID: "A", ContainerID: "todo", Position: 1},
			{ID: "D", ContainerID: "done", Position: 0},
		},
	}

	t.Run("commits and broadcasts", func(t *testing.T) {
		t.Parallel()
		store := mocks.NewMockDocumentStore(t)
		bc := mocks.NewMockRoomBroadcaster(t)
		svc := NewDocumentService(store, bc, discardLogger())

		saved := swap.ApplyTo(*testDocument())
		saved.Version = 5

		store.EXPECT().GetDocument(mock.Anything, "doc-1").Return(testDocument(), nil).Once()
		store.EXPECT().SaveDocument(mock.Anything, "doc-1", swap).Return(&saved, nil).Once()
		bc.EXPECT().DocumentUpdated(mock.Anything, "room-1", &saved).Return().Once()

		got, err := svc.SaveDocument(context.Background(), "room-1", "doc-1", swap)
		if err != nil {
			t.Fatalf("SaveDocument() error = %v", err)
		}
		if got.Version != 5 {
			t.Errorf("Version = %d, want 5", got.Version)
		}
	})

	t.Run("rejects a patch that breaks ordering", func(t *testing.T) {
		t.Parallel()
		store := mocks.NewMockDocumentStore(t)
		svc := NewDocumentService(store, mocks.NewMockRoomBroadcaster(t), discardLogger())

		store.EXPECT().GetDocument(mock.Anything, "doc-1").Return(testDocument(), nil).Once()

		bad := document.Patch{SetItems: true, Items: []ordering.Item{
			{ID: "A", ContainerID: "todo", Position: 0},
			{ID: "B", ContainerID: "todo", Position: 0},
			{ID: "D", ContainerID: "done", Position: 0},
		}}
		if _, err := svc.SaveDocument(context.Background(), "room-1", "doc-1", bad); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("SaveDocument() error = %v, want ErrValidation", err)
		}
	})

	t.Run("archived document is a stale edit", func(t *testing.T) {
		t.Parallel()
		store := mocks.NewMockDocumentStore(t)
		svc := NewDocumentService(store, mocks.NewMockRoomBroadcaster(t), discardLogger())

		archived := testDocument()
		archived.Archived = true
		store.EXPECT().GetDocument(mock.Anything, "doc-1").Return(archived, nil).Once()

		if _, err := svc.SaveDocument(context.Background(), "room-1", "doc-1", swap); !errors.Is(err, domain.ErrStaleEdit) {
			t.Errorf("SaveDocument() error = %v, want ErrStaleEdit", err)
		}
	})

	t.Run("deleted document is a stale edit", func(t *testing.T) {
		t.Parallel()
		store := mocks.NewMockDocumentStore(t)
		svc := NewDocumentService(store, mocks.NewMockRoomBroadcaster(t), discardLogger())

		store.EXPECT().GetDocument(mock.Anything, "doc-1").Return(nil, domain.ErrDocumentNotFound).Once()

		if _, err := svc.SaveDocument(context.Background(), "room-1", "doc-1", swap); !errors.Is(err, domain.ErrStaleEdit) {
			t.Errorf("SaveDocument() error = %v, want ErrStaleEdit", err)
		}
	})

	t.Run("write failure resyncs the room", func(t *testing.T) {
		t.Parallel()
		store := mocks.NewMockDocumentStore(t)
		bc := mocks.NewMockRoomBroadcaster(t)
		svc := NewDocumentService(store, bc, discardLogger())

		store.EXPECT().GetDocument(mock.Anything, "doc-1").Return(testDocument(), nil).Twice()
		store.EXPECT().SaveDocument(mock.Anything, "doc-1", swap).Return(nil, errors.New("connection reset")).Once()
		bc.EXPECT().Resync(mock.Anything, "room-1", mock.MatchedBy(func(s ports.ResyncState) bool {
			return s.Document != nil && s.Document.Version == 4
		})).Return().Once()

		if _, err := svc.SaveDocument(context.Background(), "room-1", "doc-1", swap); !errors.Is(err, domain.ErrStoreWriteFailed) {
			t.Errorf("SaveDocument() error = %v, want ErrStoreWriteFailed", err)
		}
	})

	t.Run("empty patch is invalid", func(t *testing.T) {
		t.Parallel()
		store := mocks.NewMockDocumentStore(t)
		svc := NewDocumentService(store, nil, discardLogger())

		store.EXPECT().GetDocument(mock.Anything, "doc-1").Return(testDocument(), nil).Once()

		if _, err := svc.SaveDocument(context.Background(), "", "doc-1", document.Patch{}); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("SaveDocument() error = %v, want ErrValidation", err)
		}
	})
}
