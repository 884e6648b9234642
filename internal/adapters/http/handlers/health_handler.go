package handlers

import (
	"net/http"
	"sync/atomic"

	"github.com/jsamuelsen11/collab-sync/internal/ports"
)

const (
	statusOK       = "ok"
	statusReady    = "ready"
	statusNotReady = "not_ready"
	statusDraining = "draining"
)

// HealthHandler handles liveness and readiness HTTP endpoints.
//
// Readiness also gates new WebSocket sessions: once Drain is called the
// instance reports not ready, so the load balancer stops sending it clients
// while the sessions it already holds are closed and reconnect elsewhere.
type HealthHandler struct {
	registry ports.HealthRegistry
	draining atomic.Bool
}

// NewHealthHandler creates a new HealthHandler with the given health registry.
func NewHealthHandler(registry ports.HealthRegistry) *HealthHandler {
	return &HealthHandler{registry: registry}
}

// Drain makes every later readiness check fail. It cannot be undone.
func (h *HealthHandler) Drain() {
	h.draining.Store(true)
}

// Liveness handles GET /health/live. Always returns 200 OK.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": statusOK})
}

// Readiness handles GET /health/ready. Returns 200 if all checks pass,
// 503 if any check fails or the instance is draining. Dependency checks are
// skipped while draining.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.draining.Load() {
		writeJSON(w, r, http.StatusServiceUnavailable, map[string]any{"status": statusDraining})
		return
	}

	results := h.registry.CheckAll(r.Context())

	checks := make(map[string]string, len(results))
	healthy := true
	for name, err := range results {
		if err != nil {
			checks[name] = err.Error()
			healthy = false
		} else {
			checks[name] = statusOK
		}
	}

	status := statusReady
	code := http.StatusOK
	if !healthy {
		status = statusNotReady
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, r, code, map[string]any{
		"status": status,
		"checks": checks,
	})
}
