package handlers

import (
	"net/http"

	"github.com/jsamuelsen11/collab-sync/internal/adapters/http/dto"
	"github.com/jsamuelsen11/collab-sync/internal/ports"
)

// DocumentHandler serves canonical documents over HTTP.
type DocumentHandler struct {
	svc ports.DocumentService
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(svc ports.DocumentService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

// GetDocument handles GET /api/v1/documents/{documentId}.
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "documentId")
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	doc, err := h.svc.GetDocument(r.Context(), id)
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.ToDocumentResponse(doc))
}
