package middleware_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jsamuelsen11/collab-sync/internal/adapters/http/middleware"
	"github.com/jsamuelsen11/collab-sync/internal/platform/logging"
)

func TestLogging_LogsStartAndCompletion(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	handler := middleware.Logging(testLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/items/card-9/move", http.NoBody))

	out := buf.String()
	for _, want := range []string{
		"request started",
		"request completed",
		"POST",
		"/api/v1/items/card-9/move",
		"status=404",
		"duration=",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q", want)
		}
	}
}

func TestLogging_EnrichesLoggerWithIDs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	// Chain: RequestID → CorrelationID → Logging → handler
	handler := middleware.RequestID()(
		middleware.CorrelationID()(
			middleware.Logging(testLogger(&buf))(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				logging.FromContext(r.Context()).Info("handler log")
			})),
		),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/rooms/r1/presence", http.NoBody)
	req.Header.Set("X-Request-ID", "req-log-test")
	req.Header.Set("X-Correlation-ID", "corr-log-test")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var handlerLine string
	for line := range strings.SplitSeq(buf.String(), "\n") {
		if strings.Contains(line, "handler log") {
			handlerLine = line
		}
	}
	if handlerLine == "" {
		t.Fatal("handler log not captured, enriched logger not stored in context")
	}
	for _, want := range []string{"request_id=req-log-test", "correlation_id=corr-log-test"} {
		if !strings.Contains(handlerLine, want) {
			t.Errorf("handler log missing %q: %s", want, handlerLine)
		}
	}
}

func TestLogging_WebSocketSession(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	handler := middleware.Logging(testLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hijack(t, w)
	}))

	handler.ServeHTTP(newHijackWriter(t), upgradeRequest())

	out := buf.String()
	for _, want := range []string{"websocket session started", "websocket session ended", "status=101"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
	if strings.Contains(out, "request completed") {
		t.Error("upgrade logged as a plain request")
	}
}

func TestLogging_RedactsHeadersAtDebug(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	handler := middleware.Logging(testLogger(&buf))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	req := upgradeRequest()
	req.Header.Set("Sec-WebSocket-Protocol", "collab.v1, token.abc123")
	handler.ServeHTTP(newHijackWriter(t), req)

	out := buf.String()
	if !strings.Contains(out, "request headers") {
		t.Fatal("debug header log missing")
	}
	if strings.Contains(out, "abc123") || strings.Contains(out, "dGhlIHNhbXBsZSBub25jZQ==") {
		t.Errorf("sensitive header leaked: %s", out)
	}
}
