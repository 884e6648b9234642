package middleware_test

import (
	"bufio"
	"bytes"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// upgradeRequest is a GET /ws carrying the WebSocket handshake headers.
func upgradeRequest() *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/ws", http.NoBody)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("Sec-WebSocket-Version", "13")
	req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
	return req
}

// hijackWriter is a recorder whose connection can be taken over.
type hijackWriter struct {
	*httptest.ResponseRecorder
	conn net.Conn
}

func newHijackWriter(t *testing.T) *hijackWriter {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() {
		_ = server.Close()
		_ = client.Close()
	})
	return &hijackWriter{ResponseRecorder: httptest.NewRecorder(), conn: server}
}

func (h *hijackWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return h.conn, bufio.NewReadWriter(bufio.NewReader(h.conn), bufio.NewWriter(h.conn)), nil
}

// hijack takes over the connection the way the gateway's upgrader does.
func hijack(t *testing.T, w http.ResponseWriter) {
	t.Helper()
	if _, _, err := http.NewResponseController(w).Hijack(); err != nil {
		t.Fatalf("Hijack() error = %v", err)
	}
}
