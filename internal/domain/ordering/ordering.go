// Package ordering maintains dense, zero-based positions for items stored in
// containers. Every container holding n items must carry positions 0..n-1
// with no gaps and no duplicates; the functions here plan and apply moves so
// that this holds after every committed batch.
package ordering

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jsamuelsen11/collab-sync/internal/domain"
)

// Item is an entity whose order within a container is tracked.
type Item struct {
	ID          string
	ContainerID string
	Position    int
}

// Snapshot is the ordered content of one container at a given version.
type Snapshot struct {
	ContainerID string
	Version     int64
	Items       []Item
}

// Update assigns an item to a container at a position.
type Update struct {
	ItemID      string
	ContainerID string
	Position    int
}

// Move requests that an item be relocated. FromPosition is informational:
// the position recorded in the source snapshot wins when they disagree.
type Move struct {
	ItemID          string
	FromContainerID string
	ToContainerID   string
	FromPosition    int
	ToPosition      int
}

// Validate checks the request fields that do not depend on store state.
func (m Move) Validate() error {
	fields := make(map[string]string)

	if strings.TrimSpace(m.ItemID) == "" {
		fields["itemId"] = domain.MsgRequired
	}
	if strings.TrimSpace(m.FromContainerID) == "" {
		fields["fromContainerId"] = domain.MsgRequired
	}
	if strings.TrimSpace(m.ToContainerID) == "" {
		fields["toContainerId"] = domain.MsgRequired
	}
	if m.ToPosition < 0 {
		fields["toPosition"] = domain.MsgNegative
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

// CrossContainer reports whether the move changes the item's container.
func (m Move) CrossContainer() bool {
	return m.FromContainerID != m.ToContainerID
}

// Batch is a set of position updates committed atomically. Expected maps
// each touched container to the version the updates were planned against.
type Batch struct {
	Expected map[string]int64
	Updates  []Update
}

// Containers returns the touched container IDs in sorted order.
func (b Batch) Containers() []string {
	ids := make([]string, 0, len(b.Expected))
	for id := range b.Expected {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Validate checks that every update targets a container listed in Expected
// and that no item appears twice.
func (b Batch) Validate() error {
	fields := make(map[string]string)
	seen := make(map[string]struct{}, len(b.Updates))

	for _, u := range b.Updates {
		if _, ok := b.Expected[u.ContainerID]; !ok {
			fields["updates"] = fmt.Sprintf("container %q has no expected version", u.ContainerID)
		}
		if _, dup := seen[u.ItemID]; dup {
			fields["updates"] = fmt.Sprintf("item %q updated twice", u.ItemID)
		}
		if u.Position < 0 {
			fields["updates"] = fmt.Sprintf("item %q: position %s", u.ItemID, domain.MsgNegative)
		}
		seen[u.ItemID] = struct{}{}
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

// Invert returns a batch that restores the positions in before. The
// returned batch expects the versions produced by committing b.
func (b Batch) Invert(before []Snapshot) Batch {
	prior := make(map[string]Item)
	for _, s := range before {
		for _, it := range s.Items {
			prior[it.ID] = it
		}
	}

	inv := Batch{Expected: make(map[string]int64, len(b.Expected))}
	for id, v := range b.Expected {
		inv.Expected[id] = v + 1
	}
	for _, u := range b.Updates {
		old, ok := prior[u.ItemID]
		if !ok {
			continue
		}
		inv.Updates = append(inv.Updates, Update{ItemID: old.ID, ContainerID: old.ContainerID, Position: old.Position})
	}
	return inv
}
