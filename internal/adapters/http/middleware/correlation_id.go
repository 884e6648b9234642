package middleware

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/jsamuelsen11/collab-sync/internal/platform/httpclient"
)

const (
	headerCorrelationID = "X-Correlation-ID"

	// queryCorrelationID carries the correlation ID on a WebSocket handshake,
	// where browser clients cannot set custom headers.
	queryCorrelationID = "correlation_id"
)

// correlationIDKey is the context key for storing correlation IDs.
type correlationIDKey struct{}

// WithCorrelationID returns a new context with the given correlation ID stored
// in it. It also stores the ID via httpclient.WithCorrelationID so that calls
// to the REST entity store include the X-Correlation-ID header.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	ctx = context.WithValue(ctx, correlationIDKey{}, id)
	ctx = httpclient.WithCorrelationID(ctx, id)
	return ctx
}

// CorrelationIDFromContext extracts the correlation ID from the context.
// Returns an empty string if no correlation ID is stored.
func CorrelationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return id
	}
	return ""
}

// CorrelationID returns middleware that extracts or derives a correlation ID
// for each request. It is taken from the X-Correlation-ID header, or for a
// WebSocket upgrade from the correlation_id query parameter, and otherwise
// falls back to the request ID. The ID is stored in the request context and
// set as a response header. Every event handled on an upgraded socket logs
// under the same ID.
//
// This middleware must run after RequestID so that the fallback value is
// available.
func CorrelationID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(headerCorrelationID)
			if id == "" && websocket.IsWebSocketUpgrade(r) {
				id = r.URL.Query().Get(queryCorrelationID)
			}
			if !validID(id) {
				id = RequestIDFromContext(r.Context())
			}
			ctx := WithCorrelationID(r.Context(), id)
			w.Header().Set(headerCorrelationID, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
