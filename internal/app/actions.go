package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/jsamuelsen11/collab-sync/internal/domain"
	"github.com/jsamuelsen11/collab-sync/internal/domain/ordering"
	"github.com/jsamuelsen11/collab-sync/internal/ports"
)

// applyBatch writes a position batch. Rollback writes the inverse batch so
// the touched containers return to their pre-move order.
type applyBatch struct {
	store  ports.ItemStore
	batch  ordering.Batch
	before []ordering.Snapshot
}

func (a *applyBatch) Execute(ctx context.Context) error {
	return a.store.ApplyPositionUpdates(ctx, a.batch)
}

func (a *applyBatch) Rollback(ctx context.Context) error {
	return a.store.ApplyPositionUpdates(ctx, a.batch.Invert(a.before))
}

func (a *applyBatch) Description() string {
	return fmt.Sprintf("apply %d position updates to %s",
		len(a.batch.Updates), strings.Join(a.batch.Containers(), ","))
}

// verifyBatch re-reads the touched containers after a write and fails if a
// container that the batch advanced is no longer densely ordered. Stores
// that enforce density themselves do not need it; it guards collaborators
// behind the REST store that accept whatever they are sent.
type verifyBatch struct {
	store ports.ItemStore
	batch ordering.Batch
}

func (v *verifyBatch) Execute(ctx context.Context) error {
	for _, id := range v.batch.Containers() {
		snap, err := v.store.GetContainerItems(ctx, id)
		if err != nil {
			return fmt.Errorf("re-reading container %s: %w", id, err)
		}
		if snap.Version != v.batch.Expected[id]+1 {
			// Another writer got in after us; its batch is responsible
			// for the order now.
			continue
		}
		if err := ordering.Validate(snap.Items); err != nil {
			return fmt.Errorf("container %s after write: %w: %w", id, domain.ErrStoreWriteFailed, err)
		}
	}
	return nil
}

func (v *verifyBatch) Rollback(context.Context) error { return nil }

func (v *verifyBatch) Description() string {
	return "verify density of " + strings.Join(v.batch.Containers(), ",")
}
