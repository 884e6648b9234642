package handlers

import (
	"net/http"

	"github.com/jsamuelsen11/collab-sync/internal/adapters/http/dto"
	"github.com/jsamuelsen11/collab-sync/internal/ports"
)

// OrderingHandler serves container reads and item moves over HTTP.
type OrderingHandler struct {
	svc ports.OrderingService
}

// NewOrderingHandler creates a new OrderingHandler.
func NewOrderingHandler(svc ports.OrderingService) *OrderingHandler {
	return &OrderingHandler{svc: svc}
}

// ContainerItems handles GET /api/v1/containers/{containerId}/items.
func (h *OrderingHandler) ContainerItems(w http.ResponseWriter, r *http.Request) {
	containerID, err := pathParam(r, "containerId")
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	snap, err := h.svc.ContainerItems(r.Context(), containerID)
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.ToContainerItemsResponse(snap))
}

// MoveItem handles POST /api/v1/items/{itemId}/move.
func (h *OrderingHandler) MoveItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathParam(r, "itemId")
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	var req dto.MoveItemRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	res, err := h.svc.MoveItem(r.Context(), ports.MoveRequest{
		RoomID:     req.RoomID,
		DocumentID: req.DocumentID,
		Move:       req.ToMove(itemID),
	})
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.ToMoveResponse(res))
}
