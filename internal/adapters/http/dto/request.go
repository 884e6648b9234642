package dto

import (
	"strings"

	"github.com/jsamuelsen11/collab-sync/internal/domain"
	"github.com/jsamuelsen11/collab-sync/internal/domain/ordering"
)

// MoveItemRequest represents the JSON body of POST /api/v1/items/{itemId}/move.
// RoomID is optional; when set, the room hears about the move.
type MoveItemRequest struct {
	RoomID          string `json:"room_id,omitempty"`
	DocumentID      string `json:"document_id,omitempty"`
	FromContainerID string `json:"from_container_id"`
	FromPosition    int    `json:"from_position"`
	ToContainerID   string `json:"to_container_id"`
	ToPosition      int    `json:"to_position"`
}

// Validate checks that required fields are present and positions are not
// negative. Returns a *domain.ValidationError if any checks fail.
func (r *MoveItemRequest) Validate() error {
	fields := make(map[string]string)

	if strings.TrimSpace(r.FromContainerID) == "" {
		fields["from_container_id"] = domain.MsgRequired
	}
	if strings.TrimSpace(r.ToContainerID) == "" {
		fields["to_container_id"] = domain.MsgRequired
	}
	if r.FromPosition < 0 {
		fields["from_position"] = domain.MsgNegative
	}
	if r.ToPosition < 0 {
		fields["to_position"] = domain.MsgNegative
	}
	if r.DocumentID != "" && strings.TrimSpace(r.RoomID) == "" {
		fields["room_id"] = "is required when document_id is set"
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

// ToMove converts the request to a domain move of itemID.
func (r *MoveItemRequest) ToMove(itemID string) ordering.Move {
	return ordering.Move{
		ItemID:          itemID,
		FromContainerID: r.FromContainerID,
		FromPosition:    r.FromPosition,
		ToContainerID:   r.ToContainerID,
		ToPosition:      r.ToPosition,
	}
}
