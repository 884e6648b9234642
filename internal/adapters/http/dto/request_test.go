package dto_test

import (
	"errors"
	"testing"

	"github.com/jsamuelsen11/collab-sync/internal/adapters/http/dto"
	"github.com/jsamuelsen11/collab-sync/internal/domain"
)

// requireValidationField asserts err wraps ErrValidation and the resulting
// ValidationError contains the expected field key.
func requireValidationField(t *testing.T, err error, field string) {
	t.Helper()

	if err == nil {
		t.Fatal("Validate() = nil, want error")
	}
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("errors.Is(err, ErrValidation) = false, got %v", err)
	}

	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("errors.As(err, *ValidationError) = false, got %T", err)
	}
	if _, ok := verr.Fields[field]; !ok {
		t.Errorf("ValidationError.Fields missing key %q, got %v", field, verr.Fields)
	}
}

func validMove() dto.MoveItemRequest {
	return dto.MoveItemRequest{
		RoomID:          "board",
		FromContainerID: "todo",
		FromPosition:    0,
		ToContainerID:   "done",
		ToPosition:      1,
	}
}

func TestMoveItemRequest_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		modify    func(*dto.MoveItemRequest)
		wantField string
	}{
		{"valid", func(*dto.MoveItemRequest) {}, ""},
		{"without room", func(r *dto.MoveItemRequest) { r.RoomID = "" }, ""},
		{"missing source", func(r *dto.MoveItemRequest) { r.FromContainerID = " " }, "from_container_id"},
		{"missing target", func(r *dto.MoveItemRequest) { r.ToContainerID = "" }, "to_container_id"},
		{"negative source", func(r *dto.MoveItemRequest) { r.FromPosition = -1 }, "from_position"},
		{"negative target", func(r *dto.MoveItemRequest) { r.ToPosition = -2 }, "to_position"},
		{"document without room", func(r *dto.MoveItemRequest) {
			r.RoomID = ""
			r.DocumentID = "doc"
		}, "room_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := validMove()
			tt.modify(&req)

			err := req.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			requireValidationField(t, err, tt.wantField)
		})
	}
}

func TestMoveItemRequest_ToMove(t *testing.T) {
	t.Parallel()

	req := validMove()
	m := req.ToMove("card-1")

	if m.ItemID != "card-1" || m.FromContainerID != "todo" || m.ToContainerID != "done" || m.ToPosition != 1 {
		t.Errorf("ToMove() = %+v, want card-1 todo→done@1", m)
	}
	if !m.CrossContainer() {
		t.Error("CrossContainer() = false, want true")
	}
}
