package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jsamuelsen11/collab-sync/internal/adapters/http/dto"
	"github.com/jsamuelsen11/collab-sync/internal/adapters/http/handlers"
	"github.com/jsamuelsen11/collab-sync/internal/app"
)

func newOrderingHandler(t *testing.T) *handlers.OrderingHandler {
	t.Helper()
	s := seededStore(t)
	return handlers.NewOrderingHandler(app.NewOrderingService(s, s, nil, nil))
}

func itemIDs(items []dto.ItemResponse) string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return strings.Join(ids, ",")
}

func TestContainerItems(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		container  string
		wantStatus int
		wantItems  string
	}{
		{"known container", "todo", http.StatusOK, "card-1,card-2,card-3"},
		{"unknown container", "nowhere", http.StatusNotFound, ""},
		{"blank id", " ", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := newOrderingHandler(t)

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/containers/x/items", nil)
			req = withChiParams(req, map[string]string{"containerId": tt.container})
			h.ContainerItems(rec, req)

			requireStatus(t, rec, tt.wantStatus)
			if tt.wantStatus != http.StatusOK {
				return
			}
			resp := decodeJSON[dto.ContainerItemsResponse](t, rec)
			if got := itemIDs(resp.Items); got != tt.wantItems {
				t.Errorf("items = %s, want %s", got, tt.wantItems)
			}
		})
	}
}

func TestMoveItem(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		itemID     string
		body       dto.MoveItemRequest
		wantStatus int
		wantNoOp   bool
	}{
		{
			name:       "cross container",
			itemID:     "card-2",
			body:       dto.MoveItemRequest{FromContainerID: "todo", FromPosition: 1, ToContainerID: "done", ToPosition: 0},
			wantStatus: http.StatusOK,
		},
		{
			name:       "same slot is a no-op",
			itemID:     "card-1",
			body:       dto.MoveItemRequest{FromContainerID: "todo", FromPosition: 0, ToContainerID: "todo", ToPosition: 0},
			wantStatus: http.StatusOK,
			wantNoOp:   true,
		},
		{
			name:       "unknown item",
			itemID:     "card-99",
			body:       dto.MoveItemRequest{FromContainerID: "todo", ToContainerID: "done"},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "invalid body",
			itemID:     "card-1",
			body:       dto.MoveItemRequest{FromContainerID: "todo", ToPosition: -1},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := newOrderingHandler(t)

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/items/x/move", jsonBody(t, tt.body))
			req = withChiParams(req, map[string]string{"itemId": tt.itemID})
			h.MoveItem(rec, req)

			requireStatus(t, rec, tt.wantStatus)
			if tt.wantStatus != http.StatusOK {
				return
			}
			resp := decodeJSON[dto.MoveResponse](t, rec)
			if resp.NoOp != tt.wantNoOp {
				t.Errorf("noop = %v, want %v", resp.NoOp, tt.wantNoOp)
			}
		})
	}
}

func TestMoveItem_CommitsConcreteScenario(t *testing.T) {
	t.Parallel()
	h := newOrderingHandler(t)

	rec := httptest.NewRecorder()
	body := dto.MoveItemRequest{FromContainerID: "todo", FromPosition: 1, ToContainerID: "done", ToPosition: 0}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/items/card-2/move", jsonBody(t, body))
	req = withChiParams(req, map[string]string{"itemId": "card-2"})
	h.MoveItem(rec, req)
	requireStatus(t, rec, http.StatusOK)

	resp := decodeJSON[dto.MoveResponse](t, rec)
	got := map[string]string{}
	for _, c := range resp.Containers {
		got[c.ContainerID] = itemIDs(c.Items)
	}
	if got["done"] != "card-2,card-5,card-6" {
		t.Errorf("done = %s, want card-2,card-5,card-6", got["done"])
	}
	if got["todo"] != "card-1,card-3" {
		t.Errorf("todo = %s, want card-1,card-3", got["todo"])
	}
}

func TestMoveItem_InvalidJSON(t *testing.T) {
	t.Parallel()
	h := newOrderingHandler(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/items/card-1/move", strings.NewReader("{"))
	req = withChiParams(req, map[string]string{"itemId": "card-1"})
	h.MoveItem(rec, req)

	requireStatus(t, rec, http.StatusBadRequest)
}

func TestMoveItem_RejectsMalformedBody(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{name: "empty", body: "", wantField: "is empty"},
		{name: "not json", body: "{from_container_id", wantField: "invalid JSON"},
		{name: "misspelled field", body: `{"from_container_id":"todo","to_container_id":"done","to_postion":2}`, wantField: `has unknown field "to_postion"`},
		{name: "two objects", body: `{"from_container_id":"todo","to_container_id":"done"} {}`, wantField: "has trailing data"},
		{name: "oversized", body: `{"room_id":"` + strings.Repeat("r", 70<<10) + `"}`, wantField: "exceeds 65536 bytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := newOrderingHandler(t)

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/items/card-1/move", strings.NewReader(tt.body))
			req = withChiParams(req, map[string]string{"itemId": "card-1"})
			h.MoveItem(rec, req)

			requireStatus(t, rec, http.StatusBadRequest)
			resp := decodeJSON[dto.ErrorResponse](t, rec)
			if len(resp.Errors) != 1 || resp.Errors[0].Message != tt.wantField {
				t.Errorf("errors = %+v, want body %q", resp.Errors, tt.wantField)
			}
		})
	}
}
