package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/jsamuelsen11/collab-sync/internal/adapters/http/dto"
)

// errPanic is what the client sees; the panic value only goes to the log.
var errPanic = errors.New("internal server error")

// Recovery turns a handler panic into a logged stack trace and a 500 problem
// response. The response is skipped when headers already went out or the
// connection was hijacked by a WebSocket session. http.ErrAbortHandler is
// passed on so net/http can drop the connection quietly.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := newResponseWriter(w)
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if err, ok := v.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(v)
				}

				logger.ErrorContext(r.Context(), "panic recovered",
					slog.String("panic", fmt.Sprint(v)),
					slog.String("stack", string(debug.Stack())),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Bool("websocket", rw.hijacked),
				)
				if !rw.headerWritten && !rw.hijacked {
					dto.WriteErrorResponse(rw, r, errPanic)
				}
			}()

			next.ServeHTTP(rw, r)
		})
	}
}
