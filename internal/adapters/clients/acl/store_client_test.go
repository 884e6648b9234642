package acl

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jsamuelsen11/collab-sync/internal/adapters/clients/acl/entity"
	"github.com/jsamuelsen11/collab-sync/internal/domain"
	"github.com/jsamuelsen11/collab-sync/internal/domain/document"
	"github.com/jsamuelsen11/collab-sync/internal/domain/ordering"
	"github.com/jsamuelsen11/collab-sync/internal/platform/config"
	"github.com/jsamuelsen11/collab-sync/internal/platform/httpclient"
)

// newTestClient creates an httpclient.Client pointing at the given test server
// with circuit breaker and retry configured for fast test execution.
func newTestClient(t *testing.T, baseURL string, attempts int) *httpclient.Client {
	t.Helper()

	cfg := &config.ClientConfig{
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:     attempts,
			InitialInterval: time.Millisecond,
			MaxInterval:     time.Millisecond,
			Multiplier:      1,
		},
		CircuitBreaker: config.CircuitBreakerConfig{
			MaxFailures:   5,
			Timeout:       30 * time.Second,
			HalfOpenLimit: 1,
		},
	}
	return httpclient.New(cfg, "entity-store-test", nil, slog.New(slog.DiscardHandler))
}

// writeJSON encodes v as JSON to the response writer, failing the test on error.
func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("failed to encode response: %v", err)
	}
}

func writeProblem(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"code":"` + code + `","detail":"rejected"}`))
}

func TestStoreClient_GetContainerItems(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/v1/containers/todo/items" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		writeJSON(t, w, map[string]any{
			"container_id": "todo",
			"version":      3,
			"items": []map[string]any{
				{"id": "card-2", "container_id": "todo", "position": 1},
				{"id": "card-1", "container_id": "todo", "position": 0},
			},
		})
	}))
	defer ts.Close()

	client := NewStoreClient(newTestClient(t, ts.URL, 1), slog.Default())
	snap, err := client.GetContainerItems(context.Background(), "todo")
	if err != nil {
		t.Fatalf("GetContainerItems() error = %v", err)
	}
	if snap.Version != 3 {
		t.Errorf("Version = %d, want 3", snap.Version)
	}
	if len(snap.Items) != 2 || snap.Items[0].ID != "card-1" {
		t.Errorf("Items = %+v, want card-1 first", snap.Items)
	}
}

func TestStoreClient_GetContainerItems_NotFound(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeProblem(w, http.StatusNotFound, codeContainerNotFound)
	}))
	defer ts.Close()

	client := NewStoreClient(newTestClient(t, ts.URL, 1), slog.Default())
	_, err := client.GetContainerItems(context.Background(), "nope")
	if !errors.Is(err, domain.ErrContainerNotFound) {
		t.Errorf("error = %v, want ErrContainerNotFound", err)
	}
}

func TestStoreClient_ApplyPositionUpdates(t *testing.T) {
	t.Parallel()

	var got entity.PositionBatchRequestDTO
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/positions" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get(httpclient.IdempotencyKeyHeader) == "" {
			t.Error("missing Idempotency-Key header")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	client := NewStoreClient(newTestClient(t, ts.URL, 1), slog.Default())
	err := client.ApplyPositionUpdates(context.Background(), ordering.Batch{
		Expected: map[string]int64{"todo": 2},
		Updates: []ordering.Update{
			{ItemID: "card-1", ContainerID: "todo", Position: 1},
			{ItemID: "card-2", ContainerID: "todo", Position: 0},
		},
	})
	if err != nil {
		t.Fatalf("ApplyPositionUpdates() error = %v", err)
	}
	if got.Expected["todo"] != 2 || len(got.Updates) != 2 {
		t.Errorf("request = %+v, want expected todo:2 and two updates", got)
	}
}

func TestStoreClient_ApplyPositionUpdates_Conflict(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeProblem(w, http.StatusConflict, codeVersionConflict)
	}))
	defer ts.Close()

	client := NewStoreClient(newTestClient(t, ts.URL, 1), slog.Default())
	err := client.ApplyPositionUpdates(context.Background(), ordering.Batch{
		Expected: map[string]int64{"todo": 1},
	})
	if !errors.Is(err, domain.ErrVersionConflict) {
		t.Errorf("error = %v, want ErrVersionConflict", err)
	}
}

func TestStoreClient_ApplyPositionUpdates_InvalidBatchNotSent(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("invalid batch reached the store")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	client := NewStoreClient(newTestClient(t, ts.URL, 1), slog.Default())
	err := client.ApplyPositionUpdates(context.Background(), ordering.Batch{
		Updates: []ordering.Update{{ItemID: "card-1", ContainerID: "todo"}},
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestStoreClient_ApplyPositionUpdates_RetriesWithSameKey(t *testing.T) {
	t.Parallel()

	var keys []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keys = append(keys, r.Header.Get(httpclient.IdempotencyKeyHeader))
		if len(keys) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	client := NewStoreClient(newTestClient(t, ts.URL, 3), slog.Default())
	err := client.ApplyPositionUpdates(context.Background(), ordering.Batch{
		Expected: map[string]int64{"todo": 1},
	})
	if err != nil {
		t.Fatalf("ApplyPositionUpdates() error = %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("requests = %d, want 2", len(keys))
	}
	if keys[0] == "" || keys[0] != keys[1] {
		t.Errorf("Idempotency-Key changed between attempts: %q vs %q", keys[0], keys[1])
	}
}

func TestStoreClient_GetDocument(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/documents/board" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		writeJSON(t, w, map[string]any{
			"id":         "board",
			"version":    5,
			"containers": []map[string]any{{"id": "todo", "title": "To Do", "version": 2}},
			"items":      []map[string]any{{"id": "card-1", "container_id": "todo", "position": 0}},
			"nodes":      []map[string]any{},
			"viewport":   map[string]any{"x": 0, "y": 0, "zoom": 1.5},
			"updated_at": "2025-01-01T00:00:00Z",
		})
	}))
	defer ts.Close()

	client := NewStoreClient(newTestClient(t, ts.URL, 1), slog.Default())
	doc, err := client.GetDocument(context.Background(), "board")
	if err != nil {
		t.Fatalf("GetDocument() error = %v", err)
	}
	if doc.Version != 5 || doc.Viewport.Zoom != 1.5 {
		t.Errorf("doc = v%d zoom %v, want v5 zoom 1.5", doc.Version, doc.Viewport.Zoom)
	}
	if len(doc.Items) != 1 || doc.Items[0].ContainerID != "todo" {
		t.Errorf("Items = %+v", doc.Items)
	}
}

func TestStoreClient_SaveDocument(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		var body map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		if _, ok := body["viewport"]; !ok {
			t.Error("viewport missing from patch")
		}
		if _, ok := body["items"]; ok {
			t.Error("unset items section sent")
		}
		writeJSON(t, w, map[string]any{"id": "board", "version": 6, "viewport": map[string]any{"zoom": 2}})
	}))
	defer ts.Close()

	client := NewStoreClient(newTestClient(t, ts.URL, 1), slog.Default())
	vp := document.Viewport{Zoom: 2}
	doc, err := client.SaveDocument(context.Background(), "board", document.Patch{Viewport: &vp})
	if err != nil {
		t.Fatalf("SaveDocument() error = %v", err)
	}
	if doc.Version != 6 {
		t.Errorf("Version = %d, want 6", doc.Version)
	}
}

func TestStoreClient_SaveDocument_Archived(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeProblem(w, http.StatusGone, codeStaleEdit)
	}))
	defer ts.Close()

	client := NewStoreClient(newTestClient(t, ts.URL, 1), slog.Default())
	vp := document.Viewport{Zoom: 1}
	_, err := client.SaveDocument(context.Background(), "board", document.Patch{Viewport: &vp})
	if !errors.Is(err, domain.ErrStaleEdit) {
		t.Errorf("error = %v, want ErrStaleEdit", err)
	}
}

func TestStoreClient_HealthCheck(t *testing.T) {
	t.Parallel()

	client := NewStoreClient(newTestClient(t, "http://127.0.0.1:0", 1), slog.Default())

	if got := client.Name(); got != "entity-store" {
		t.Errorf("Name() = %q, want entity-store", got)
	}
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() on fresh client = %v, want nil", err)
	}
}

func TestStoreClient_ExhaustedRetriesTranslateStatus(t *testing.T) {
	t.Parallel()

	var hits int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		writeProblem(w, http.StatusServiceUnavailable, "MAINTENANCE")
	}))
	defer ts.Close()

	client := NewStoreClient(newTestClient(t, ts.URL, 2), slog.Default())
	_, err := client.GetDocument(context.Background(), "board")
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
	if hits != 2 {
		t.Errorf("requests = %d, want 2", hits)
	}
}

func TestStoreClient_MalformedResponse(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"container_id":`))
	}))
	defer ts.Close()

	client := NewStoreClient(newTestClient(t, ts.URL, 1), slog.Default())
	if _, err := client.GetContainerItems(context.Background(), "todo"); err == nil {
		t.Error("GetContainerItems() error = nil, want decode error")
	}
}
