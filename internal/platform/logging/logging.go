// Package logging builds the process logger and carries per-request and
// per-connection loggers through context.
//
//	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
//	ctx = logging.WithLogger(ctx, logger)
//	ctx = logging.With(ctx, slog.String("event", env.Event))
//	logging.FromContext(ctx).Info("item moved")
//
// HTTP middleware adds request_id and correlation_id to the context logger.
// The WebSocket gateway adds client_id per connection and event per envelope.
// Services add the identifiers they work on:
//
//	logger.ErrorContext(ctx, "move failed",
//	    slog.String("operation", "MoveItem"),
//	    slog.String("room_id", roomID),
//	    slog.String("item_id", itemID),
//	    slog.Any("error", err),
//	)
//
// Every handler returned by New redacts credentials; see SensitiveHeaders.
package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

type contextKey struct{}

// New returns a logger writing to w. level is one of debug, info, warn, or
// error (anything else means info); format "text" selects the text handler
// and everything else JSON. Debug loggers include the source location.
func New(level, format string, w io.Writer) *slog.Logger {
	lvl := parseLevel(level)
	opts := &slog.HandlerOptions{
		Level:       lvl,
		AddSource:   lvl == slog.LevelDebug,
		ReplaceAttr: newRedactAttr(),
	}

	if format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// With returns ctx carrying the context logger enriched with attrs.
func With(ctx context.Context, attrs ...any) context.Context {
	return WithLogger(ctx, FromContext(ctx).With(attrs...))
}

// FromContext returns the logger stored in ctx, or slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(contextKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

func parseLevel(level string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
