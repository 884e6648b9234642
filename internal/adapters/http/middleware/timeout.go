package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jsamuelsen11/collab-sync/internal/platform/logging"
)

// Timeout bounds REST handlers to d. The handler runs on its own goroutine
// against a buffered writer with a context deadline; if it has not returned
// when the deadline passes the client gets a 504 and anything the handler
// writes later is dropped. A panic on the handler goroutine is re-raised on
// the serving goroutine so Recovery still sees it.
//
// WebSocket upgrades are exempt: a session lasts as long as the client stays
// connected and a buffered writer cannot be hijacked. d <= 0 disables the
// middleware.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if websocket.IsWebSocketUpgrade(r) {
				next.ServeHTTP(w, r)
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			bw := &bufferedWriter{header: make(http.Header)}
			done := make(chan any, 1)
			go func() {
				defer func() { done <- recover() }()
				next.ServeHTTP(bw, r.WithContext(ctx))
			}()

			select {
			case p := <-done:
				if p != nil {
					panic(p)
				}
				bw.copyTo(w)
			case <-ctx.Done():
				// Nothing has reached the client yet, so a handler that set a
				// status but never returned still times out cleanly.
				bw.expire()
				w.WriteHeader(http.StatusGatewayTimeout)
				go drainLate(r, done)
			}
		})
	}
}

// drainLate waits for a handler that outlived its deadline and logs a panic
// it raises, which nothing else would see.
func drainLate(r *http.Request, done <-chan any) {
	if p := <-done; p != nil {
		logging.FromContext(r.Context()).ErrorContext(r.Context(), "panic after request timeout",
			slog.String("panic", fmt.Sprint(p)),
			slog.String("path", r.URL.Path),
		)
	}
}

// bufferedWriter holds a handler's response until Timeout decides whether it
// is delivered or replaced by a 504.
type bufferedWriter struct {
	mu      sync.Mutex
	header  http.Header
	body    []byte
	status  int
	expired bool
}

func (b *bufferedWriter) Header() http.Header {
	return b.header
}

func (b *bufferedWriter) WriteHeader(code int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.status == 0 {
		b.status = code
	}
}

func (b *bufferedWriter) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.expired {
		return 0, http.ErrHandlerTimeout
	}
	if b.status == 0 {
		b.status = http.StatusOK
	}
	b.body = append(b.body, p...)
	return len(p), nil
}

// expire makes later writes fail with http.ErrHandlerTimeout.
func (b *bufferedWriter) expire() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.expired = true
}

func (b *bufferedWriter) copyTo(w http.ResponseWriter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	maps.Copy(w.Header(), b.header)
	if b.status != 0 {
		w.WriteHeader(b.status)
	}
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}
