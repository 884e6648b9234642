package appctx

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jsamuelsen11/collab-sync/internal/domain"
	"github.com/jsamuelsen11/collab-sync/internal/platform/logging"
)

// Commit executes staged actions in insertion order. If one fails, the
// actions that already succeeded are rolled back in reverse order. Rollback
// errors are logged and do not replace the returned error.
//
// After Commit returns the RequestContext is marked committed whether or
// not it succeeded. The returned error wraps the failing action's error.
func (rc *RequestContext) Commit(ctx context.Context) error {
	rc.queueMu.Lock()
	if rc.committed {
		rc.queueMu.Unlock()
		return ErrAlreadyCommitted
	}
	rc.committed = true
	actions := rc.actions
	rc.queueMu.Unlock()

	logger := logging.FromContext(ctx)

	for i, action := range actions {
		logger.DebugContext(ctx, "executing action",
			slog.String("operation", "RequestContext.Commit"),
			slog.Int("step", i+1),
			slog.Int("total", len(actions)),
			slog.String("action", action.Description()),
		)

		if err := action.Execute(ctx); err != nil {
			if i > 0 {
				logger.WarnContext(ctx, "action failed, rolling back earlier actions",
					slog.String("operation", "RequestContext.Commit"),
					slog.Int("failed_step", i+1),
					slog.String("action", action.Description()),
					slog.Any("error", err),
				)
			}
			rollback(ctx, actions[:i], logger)
			return fmt.Errorf("executing %s: %w", action.Description(), err)
		}
	}

	return nil
}

// rollback undoes done in reverse order, logging failures.
func rollback(ctx context.Context, done []domain.Action, logger *slog.Logger) {
	for i := len(done) - 1; i >= 0; i-- {
		action := done[i]

		logger.InfoContext(ctx, "rolling back action",
			slog.String("operation", "RequestContext.Commit"),
			slog.Int("step", i+1),
			slog.String("action", action.Description()),
		)

		if err := action.Rollback(ctx); err != nil {
			logger.ErrorContext(ctx, "rollback failed",
				slog.String("operation", "RequestContext.Commit"),
				slog.Int("step", i+1),
				slog.String("action", action.Description()),
				slog.Any("error", err),
			)
		}
	}
}
