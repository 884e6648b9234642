package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/jsamuelsen11/collab-sync/internal/adapters/http/dto"
	"github.com/jsamuelsen11/collab-sync/internal/adapters/http/handlers"
	"github.com/jsamuelsen11/collab-sync/internal/app/presence"
	model "github.com/jsamuelsen11/collab-sync/internal/domain/presence"
	"github.com/jsamuelsen11/collab-sync/mocks"
)

func TestGetPresence(t *testing.T) {
	t.Parallel()

	registry := presence.NewRegistry("i1")
	for _, id := range []string{"c1", "c2"} {
		peer := mocks.NewMockPeer(t)
		peer.EXPECT().SendSnapshot("board", mock.Anything).Return(nil).Maybe()
		peer.EXPECT().ClientID().Return(id).Maybe()
		if _, err := registry.Join(context.Background(), "board",
			model.Identity{ClientID: id, UserID: "u-" + id, UserName: id}, peer); err != nil {
			t.Fatalf("Join(%s) error = %v", id, err)
		}
	}
	h := handlers.NewPresenceHandler(registry)

	tests := []struct {
		name      string
		room      string
		wantCount int
	}{
		{"populated room", "board", 2},
		{"unknown room is empty", "lobby", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/rooms/x/presence", nil)
			req = withChiParams(req, map[string]string{"roomId": tt.room})
			h.GetPresence(rec, req)

			requireStatus(t, rec, http.StatusOK)
			resp := decodeJSON[dto.PresenceResponse](t, rec)
			if resp.Count != tt.wantCount {
				t.Errorf("count = %d, want %d", resp.Count, tt.wantCount)
			}
		})
	}
}
