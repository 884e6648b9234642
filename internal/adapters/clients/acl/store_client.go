package acl

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/jsamuelsen11/collab-sync/internal/adapters/clients/acl/entity"
	"github.com/jsamuelsen11/collab-sync/internal/domain/document"
	"github.com/jsamuelsen11/collab-sync/internal/domain/ordering"
	"github.com/jsamuelsen11/collab-sync/internal/platform/httpclient"
	"github.com/jsamuelsen11/collab-sync/internal/ports"
)

// Compile-time interface check.
var _ ports.Store = (*StoreClient)(nil)

// StoreClient is the outbound adapter for an external entity store. It
// implements [ports.Store] so the engine can run against a store it does
// not own.
//
// All methods translate between domain types and the store's wire
// representations via the translators in [entity]. HTTP errors are mapped to
// domain errors (ErrVersionConflict, ErrStaleEdit, ErrItemNotFound, etc.) by
// [TranslateHTTPError].
//
// The underlying [httpclient.Client] provides circuit breaking, rate
// limiting, retry with exponential backoff, and OpenTelemetry tracing for
// every outbound call.
type StoreClient struct {
	req *Requester
}

// NewStoreClient creates a StoreClient that sends requests through the given
// [httpclient.Client]. The client's BaseURL should point to the store's API
// root (e.g. "https://entities.example.com").
func NewStoreClient(client *httpclient.Client, logger *slog.Logger) *StoreClient {
	return &StoreClient{req: NewRequester(client, logger)}
}

// GetContainerItems fetches GET /api/v1/containers/{id}/items.
func (c *StoreClient) GetContainerItems(ctx context.Context, containerID string) (ordering.Snapshot, error) {
	path := "/api/v1/containers/" + url.PathEscape(containerID) + "/items"

	var dto entity.ContainerItemsDTO
	if err := c.req.do(ctx, call{method: http.MethodGet, path: path, want: http.StatusOK, out: &dto}); err != nil {
		return ordering.Snapshot{}, err
	}
	if dto.ContainerID == "" {
		dto.ContainerID = containerID
	}
	return entity.ToSnapshot(dto), nil
}

// ApplyPositionUpdates sends POST /api/v1/positions. The store answers 204
// when the whole batch committed and 409 when an expected version no longer
// matches.
func (c *StoreClient) ApplyPositionUpdates(ctx context.Context, batch ordering.Batch) error {
	if err := batch.Validate(); err != nil {
		return err
	}
	reqDTO := entity.ToPositionBatchRequest(batch)
	return c.req.do(ctx, call{method: http.MethodPost, path: "/api/v1/positions", want: http.StatusNoContent, in: reqDTO})
}

// GetDocument fetches GET /api/v1/documents/{id}.
func (c *StoreClient) GetDocument(ctx context.Context, id string) (*document.Document, error) {
	path := "/api/v1/documents/" + url.PathEscape(id)

	var dto entity.DocumentDTO
	if err := c.req.do(ctx, call{method: http.MethodGet, path: path, want: http.StatusOK, out: &dto}); err != nil {
		return nil, err
	}
	result := entity.ToDocument(&dto)
	return &result, nil
}

// SaveDocument sends PUT /api/v1/documents/{id} with the patched sections
// and returns the new canonical document. The store answers 410 for an
// archived or deleted document.
func (c *StoreClient) SaveDocument(ctx context.Context, id string, patch document.Patch) (*document.Document, error) {
	path := "/api/v1/documents/" + url.PathEscape(id)
	reqDTO := entity.ToDocumentPatchRequest(patch)

	var respDTO entity.DocumentDTO
	if err := c.req.do(ctx, call{method: http.MethodPut, path: path, want: http.StatusOK, in: reqDTO, out: &respDTO}); err != nil {
		return nil, err
	}
	result := entity.ToDocument(&respDTO)
	return &result, nil
}
