// Package http provides the inbound HTTP adapter including routing and server lifecycle.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jsamuelsen11/collab-sync/internal/adapters/http/handlers"
)

// Routes bundles the handlers mounted by NewRouter. A nil WebSocket leaves
// /ws unregistered.
type Routes struct {
	Presence  *handlers.PresenceHandler
	Ordering  *handlers.OrderingHandler
	Documents *handlers.DocumentHandler
	Health    *handlers.HealthHandler
	WebSocket http.Handler
}

// NewRouter creates an HTTP handler with all application routes registered.
// Middleware is applied globally in the order given, including to /ws; the
// middleware package recognizes the upgrade and leaves the session alone.
func NewRouter(routes Routes, middlewares ...func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	for _, mw := range middlewares {
		r.Use(mw)
	}

	// Health endpoints (outside /api/v1 prefix).
	r.Get("/health/live", routes.Health.Liveness)
	r.Get("/health/ready", routes.Health.Readiness)

	if routes.WebSocket != nil {
		r.Method(http.MethodGet, "/ws", routes.WebSocket)
	}

	// API v1 routes.
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/rooms/{roomId}/presence", routes.Presence.GetPresence)
		r.Get("/containers/{containerId}/items", routes.Ordering.ContainerItems)
		r.Post("/items/{itemId}/move", routes.Ordering.MoveItem)
		r.Get("/documents/{documentId}", routes.Documents.GetDocument)
	})

	return r
}
