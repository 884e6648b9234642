package handlers

import (
	"net/http"

	"github.com/jsamuelsen11/collab-sync/internal/adapters/http/dto"
	"github.com/jsamuelsen11/collab-sync/internal/ports"
)

// PresenceHandler serves room presence over HTTP.
type PresenceHandler struct {
	presence ports.PresenceService
}

// NewPresenceHandler creates a new PresenceHandler.
func NewPresenceHandler(presence ports.PresenceService) *PresenceHandler {
	return &PresenceHandler{presence: presence}
}

// GetPresence handles GET /api/v1/rooms/{roomId}/presence. Unknown rooms
// are reported as empty.
func (h *PresenceHandler) GetPresence(w http.ResponseWriter, r *http.Request) {
	roomID, err := pathParam(r, "roomId")
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.ToPresenceResponse(roomID, h.presence.Snapshot(roomID)))
}
