// Package app provides application services that orchestrate use cases by
// coordinating between domain logic and infrastructure through port interfaces.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/metric"

	appctx "github.com/jsamuelsen11/collab-sync/internal/app/context"
	"github.com/jsamuelsen11/collab-sync/internal/domain"
	"github.com/jsamuelsen11/collab-sync/internal/domain/ordering"
	"github.com/jsamuelsen11/collab-sync/internal/platform/telemetry"
	"github.com/jsamuelsen11/collab-sync/internal/ports"
)

// Compile-time check that OrderingService implements ports.OrderingService.
var _ ports.OrderingService = (*OrderingService)(nil)

// DefaultMaxAttempts is how many times a move is re-planned after losing a
// version race before it fails.
const DefaultMaxAttempts = 3

// OrderingService implements ports.OrderingService. Each move is planned
// against fresh container snapshots and committed as one batch guarded by
// the containers' versions; a lost race re-reads and re-plans.
type OrderingService struct {
	items       ports.ItemStore
	documents   ports.DocumentStore
	broadcaster ports.RoomBroadcaster
	logger      *slog.Logger
	metrics     *telemetry.Metrics
	maxAttempts int
	verify      bool
}

// OrderingOption configures an OrderingService.
type OrderingOption func(*OrderingService)

// WithMaxAttempts sets the attempt limit for a move.
func WithMaxAttempts(n int) OrderingOption {
	return func(s *OrderingService) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithVerify makes every committed batch re-read its containers and roll
// back when the store left them out of order.
func WithVerify(on bool) OrderingOption {
	return func(s *OrderingService) { s.verify = on }
}

// WithOrderingMetrics records move counts, durations, and attempts.
func WithOrderingMetrics(m *telemetry.Metrics) OrderingOption {
	return func(s *OrderingService) { s.metrics = m }
}

// NewOrderingService creates an OrderingService. documents is used to send
// the refreshed document after moves that name one; broadcaster may be nil
// when nobody needs to hear about moves.
func NewOrderingService(
	items ports.ItemStore,
	documents ports.DocumentStore,
	broadcaster ports.RoomBroadcaster,
	logger *slog.Logger,
	opts ...OrderingOption,
) *OrderingService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &OrderingService{
		items:       items,
		documents:   documents,
		broadcaster: broadcaster,
		logger:      logger,
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MoveItem plans and commits req.Move and notifies the room.
func (s *OrderingService) MoveItem(ctx context.Context, req ports.MoveRequest) (*ports.MoveResult, error) {
	m := req.Move
	start := time.Now()

	s.logger.InfoContext(ctx, "moving item",
		slog.String("room_id", req.RoomID),
		slog.String("item_id", m.ItemID),
		slog.String("from", m.FromContainerID),
		slog.String("to", m.ToContainerID),
		slog.Int("to_position", m.ToPosition),
	)

	if err := m.Validate(); err != nil {
		s.record(ctx, m, "invalid", start, 0)
		return nil, err
	}

	var (
		res     *ports.MoveResult
		err     error
		attempt int
	)
	for attempt = 1; attempt <= s.maxAttempts; attempt++ {
		res, err = s.attempt(ctx, m)
		if !errors.Is(err, domain.ErrVersionConflict) {
			break
		}
		s.logger.DebugContext(ctx, "lost version race, re-planning",
			slog.String("item_id", m.ItemID),
			slog.Int("attempt", attempt),
		)
	}
	attempt = min(attempt, s.maxAttempts)

	if err != nil {
		err = classify(err, fmt.Sprintf("moving item %s after %d attempts", m.ItemID, attempt))
		s.record(ctx, m, resultLabel(err), start, attempt)
		s.logger.ErrorContext(ctx, "failed to move item",
			slog.String("operation", "MoveItem"),
			slog.String("item_id", m.ItemID),
			slog.Int("attempts", attempt),
			slog.Any("error", err),
		)
		if errors.Is(err, domain.ErrStoreWriteFailed) {
			s.resync(ctx, req)
		}
		return nil, err
	}

	if res.NoOp {
		s.record(ctx, m, "noop", start, attempt)
		return res, nil
	}

	s.record(ctx, m, "ok", start, attempt)
	s.notify(ctx, req, res)
	return res, nil
}

// ContainerItems returns a container's ordered items.
func (s *OrderingService) ContainerItems(ctx context.Context, containerID string) (ordering.Snapshot, error) {
	if strings.TrimSpace(containerID) == "" {
		return ordering.Snapshot{}, &domain.ValidationError{Fields: map[string]string{"containerId": domain.MsgRequired}}
	}

	snap, err := s.items.GetContainerItems(ctx, containerID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to fetch container items",
			slog.String("operation", "ContainerItems"),
			slog.String("container_id", containerID),
			slog.Any("error", err),
		)
		return ordering.Snapshot{}, err
	}
	snap.Items = ordering.Sorted(snap.Items)
	return snap, nil
}

// attempt runs one read-plan-commit cycle.
func (s *OrderingService) attempt(ctx context.Context, m ordering.Move) (*ports.MoveResult, error) {
	rc := appctx.New(ctx)

	from, err := appctx.GetOrFetch(rc, containerKey(m.FromContainerID), s.fetch(m.FromContainerID))
	if err != nil {
		return nil, err
	}
	to, err := appctx.GetOrFetch(rc, containerKey(m.ToContainerID), s.fetch(m.ToContainerID))
	if err != nil {
		return nil, err
	}

	before := []ordering.Snapshot{from}
	if m.CrossContainer() {
		before = append(before, to)
	}

	updates, err := ordering.Plan(m, from, to)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return &ports.MoveResult{Move: m, Containers: before, NoOp: true}, nil
	}

	batch := ordering.Batch{Expected: make(map[string]int64, len(before)), Updates: updates}
	for _, snap := range before {
		batch.Expected[snap.ContainerID] = snap.Version
	}
	if err := batch.Validate(); err != nil {
		return nil, err
	}

	after := ordering.Apply(before, updates)
	for i := range after {
		after[i].Version++
	}

	if err := rc.Stage("batch:"+m.ItemID, after, &applyBatch{store: s.items, batch: batch, before: before}); err != nil {
		return nil, err
	}
	if s.verify {
		if err := rc.AddAction(&verifyBatch{store: s.items, batch: batch}); err != nil {
			return nil, err
		}
	}
	if err := rc.Commit(ctx); err != nil {
		return nil, err
	}

	return &ports.MoveResult{Move: m, Updates: updates, Containers: after}, nil
}

func (s *OrderingService) fetch(containerID string) func(context.Context) (ordering.Snapshot, error) {
	return func(ctx context.Context) (ordering.Snapshot, error) {
		snap, err := s.items.GetContainerItems(ctx, containerID)
		if err != nil {
			return ordering.Snapshot{}, fmt.Errorf("reading container %s: %w", containerID, err)
		}
		return snap, nil
	}
}

func (s *OrderingService) notify(ctx context.Context, req ports.MoveRequest, res *ports.MoveResult) {
	if s.broadcaster == nil || req.RoomID == "" {
		return
	}
	s.broadcaster.ItemsMoved(ctx, req.RoomID, res)

	if req.DocumentID == "" || s.documents == nil {
		return
	}
	doc, err := s.documents.GetDocument(ctx, req.DocumentID)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to reload document after move",
			slog.String("operation", "MoveItem"),
			slog.String("document_id", req.DocumentID),
			slog.Any("error", err),
		)
		return
	}
	s.broadcaster.DocumentUpdated(ctx, req.RoomID, doc)
}

// resync pulls canonical state after a failed write and sends it to the
// room so that optimistic clients snap back.
func (s *OrderingService) resync(ctx context.Context, req ports.MoveRequest) {
	if s.broadcaster == nil || req.RoomID == "" {
		return
	}

	var state ports.ResyncState
	ids := []string{req.Move.FromContainerID}
	if req.Move.CrossContainer() {
		ids = append(ids, req.Move.ToContainerID)
	}
	for _, id := range ids {
		snap, err := s.items.GetContainerItems(ctx, id)
		if err != nil {
			s.logger.WarnContext(ctx, "resync read failed",
				slog.String("container_id", id),
				slog.Any("error", err),
			)
			continue
		}
		state.Containers = append(state.Containers, snap)
	}
	if req.DocumentID != "" && s.documents != nil {
		if doc, err := s.documents.GetDocument(ctx, req.DocumentID); err == nil {
			state.Document = doc
		}
	}
	if len(state.Containers) == 0 && state.Document == nil {
		return
	}
	s.broadcaster.Resync(ctx, req.RoomID, state)
}

func (s *OrderingService) record(ctx context.Context, m ordering.Move, result string, start time.Time, attempts int) {
	if s.metrics == nil {
		return
	}
	attrs := metric.WithAttributes(
		telemetry.AttrResult.String(result),
		telemetry.AttrCrossMove.Bool(m.CrossContainer()),
	)
	s.metrics.MoveTotal.Add(ctx, 1, attrs)
	s.metrics.MoveDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	if attempts > 0 {
		s.metrics.MoveAttempts.Record(ctx, int64(attempts), attrs)
	}
}

func containerKey(id string) string { return "container:" + id }

// classify passes through errors the caller can act on and folds every
// other failure into domain.ErrStoreWriteFailed.
func classify(err error, op string) error {
	switch {
	case errors.Is(err, domain.ErrStoreWriteFailed),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrStaleEdit):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreWriteFailed, err)
	}
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrVersionConflict):
		return "conflict"
	case errors.Is(err, domain.ErrStoreWriteFailed):
		return "error"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
