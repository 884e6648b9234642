package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jsamuelsen11/collab-sync/internal/domain"
	"github.com/jsamuelsen11/collab-sync/internal/domain/document"
	"github.com/jsamuelsen11/collab-sync/internal/ports"
)

// Compile-time check that DocumentService implements ports.DocumentService.
var _ ports.DocumentService = (*DocumentService)(nil)

// DocumentService implements ports.DocumentService. Saves are
// last-writer-wins: a patch replaces whole sections of whatever the store
// currently holds.
type DocumentService struct {
	store       ports.DocumentStore
	broadcaster ports.RoomBroadcaster
	logger      *slog.Logger
}

// NewDocumentService creates a DocumentService. broadcaster may be nil.
func NewDocumentService(store ports.DocumentStore, broadcaster ports.RoomBroadcaster, logger *slog.Logger) *DocumentService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &DocumentService{
		store:       store,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// GetDocument returns the canonical document.
func (s *DocumentService) GetDocument(ctx context.Context, id string) (*document.Document, error) {
	if strings.TrimSpace(id) == "" {
		return nil, &domain.ValidationError{Fields: map[string]string{"documentId": domain.MsgRequired}}
	}

	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to fetch document",
			slog.String("operation", "GetDocument"),
			slog.String("document_id", id),
			slog.Any("error", err),
		)
		return nil, err
	}
	return doc, nil
}

// SaveDocument validates patch against the current canonical document,
// commits it, and sends the result to roomID.
func (s *DocumentService) SaveDocument(ctx context.Context, roomID, id string, patch document.Patch) (*document.Document, error) {
	s.logger.InfoContext(ctx, "saving document",
		slog.String("room_id", roomID),
		slog.String("document_id", id),
		slog.Bool("items", patch.SetItems),
		slog.Bool("nodes", patch.SetNodes),
		slog.Bool("viewport", patch.Viewport != nil),
	)

	if strings.TrimSpace(id) == "" {
		return nil, &domain.ValidationError{Fields: map[string]string{"documentId": domain.MsgRequired}}
	}

	current, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return nil, s.saveFailed(ctx, roomID, id, err)
	}
	if current.Archived {
		return nil, s.saveFailed(ctx, roomID, id, fmt.Errorf("document %s is archived: %w", id, domain.ErrStaleEdit))
	}
	if err := patch.Validate(*current); err != nil {
		return nil, err
	}

	saved, err := s.store.SaveDocument(ctx, id, patch)
	if err != nil {
		return nil, s.saveFailed(ctx, roomID, id, err)
	}

	if s.broadcaster != nil && roomID != "" {
		s.broadcaster.DocumentUpdated(ctx, roomID, saved)
	}
	return saved, nil
}

// saveFailed maps a store error onto the save taxonomy, logs it, and
// resynchronizes the room when the write itself failed.
func (s *DocumentService) saveFailed(ctx context.Context, roomID, id string, err error) error {
	switch {
	case errors.Is(err, domain.ErrDocumentNotFound):
		err = fmt.Errorf("saving document %s: %w: %w", id, domain.ErrStaleEdit, err)
	case errors.Is(err, domain.ErrStaleEdit), errors.Is(err, domain.ErrValidation):
	default:
		err = classify(err, "saving document "+id)
	}

	s.logger.ErrorContext(ctx, "failed to save document",
		slog.String("operation", "SaveDocument"),
		slog.String("document_id", id),
		slog.Any("error", err),
	)

	if errors.Is(err, domain.ErrStoreWriteFailed) && s.broadcaster != nil && roomID != "" {
		if doc, gerr := s.store.GetDocument(ctx, id); gerr == nil {
			s.broadcaster.Resync(ctx, roomID, ports.ResyncState{Document: doc})
		}
	}
	return err
}
