package ordering

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/jsamuelsen11/collab-sync/internal/domain"
)

// Plan computes the position updates that realize m against the current
// source and destination snapshots. For a same-container move, from and to
// are the same snapshot.
//
// Positions are treated as ranks: an item's slot is its index after sorting
// by position, so legacy gaps are closed by the returned updates. The
// target position is clamped to the valid range. A move that leaves the
// item where it is returns no updates.
func Plan(m Move, from, to Snapshot) ([]Update, error) {
	if from.ContainerID != m.FromContainerID {
		return nil, fmt.Errorf("planning move of %s: source snapshot is %q: %w", m.ItemID, from.ContainerID, domain.ErrContainerNotFound)
	}
	if to.ContainerID != m.ToContainerID {
		return nil, fmt.Errorf("planning move of %s: destination snapshot is %q: %w", m.ItemID, to.ContainerID, domain.ErrContainerNotFound)
	}

	src := Sorted(from.Items)
	idx := slices.IndexFunc(src, func(it Item) bool { return it.ID == m.ItemID })
	if idx < 0 {
		return nil, fmt.Errorf("item %s in container %s: %w", m.ItemID, m.FromContainerID, domain.ErrItemNotFound)
	}
	moved := src[idx]

	if !m.CrossContainer() {
		target := clamp(m.ToPosition, 0, len(src)-1)
		if target == idx {
			return nil, nil
		}
		order := slices.Delete(slices.Clone(src), idx, idx+1)
		order = slices.Insert(order, target, moved)
		return diff(from.ContainerID, order), nil
	}

	dst := Sorted(to.Items)
	dst = slices.DeleteFunc(dst, func(it Item) bool { return it.ID == m.ItemID })
	target := clamp(m.ToPosition, 0, len(dst))

	srcOrder := slices.Delete(slices.Clone(src), idx, idx+1)
	dstOrder := slices.Insert(dst, target, moved)

	updates := diff(from.ContainerID, srcOrder)
	return append(updates, diff(to.ContainerID, dstOrder)...), nil
}

// Apply returns copies of snaps with updates applied. Items that move to a
// container not present in snaps are dropped from their source. Versions
// are left untouched.
func Apply(snaps []Snapshot, updates []Update) []Snapshot {
	byItem := make(map[string]Update, len(updates))
	for _, u := range updates {
		byItem[u.ItemID] = u
	}

	out := make([]Snapshot, len(snaps))
	index := make(map[string]int, len(snaps))
	for i, s := range snaps {
		out[i] = Snapshot{ContainerID: s.ContainerID, Version: s.Version}
		index[s.ContainerID] = i
	}

	for _, s := range snaps {
		for _, it := range s.Items {
			if u, ok := byItem[it.ID]; ok {
				it.ContainerID = u.ContainerID
				it.Position = u.Position
			}
			if i, ok := index[it.ContainerID]; ok && !containsItem(out[i].Items, it.ID) {
				out[i].Items = append(out[i].Items, it)
			}
		}
	}

	for i := range out {
		out[i].Items = Sorted(out[i].Items)
	}
	return out
}

// Validate reports whether items form a dense 0..n-1 sequence.
func Validate(items []Item) error {
	sorted := Sorted(items)
	for i, it := range sorted {
		if it.Position != i {
			return &domain.ValidationError{Fields: map[string]string{
				"positions": fmt.Sprintf("container %s: item %s at %d, want %d", it.ContainerID, it.ID, it.Position, i),
			}}
		}
	}
	return nil
}

// Normalize returns the updates that make the container's positions dense
// while preserving relative order. Ties are broken by item ID.
func Normalize(s Snapshot) []Update {
	return diff(s.ContainerID, Sorted(s.Items))
}

// Sorted returns a copy of items ordered by position, then ID.
func Sorted(items []Item) []Item {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b Item) int {
		if c := cmp.Compare(a.Position, b.Position); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// diff returns an update for every item whose slot in order differs from
// what is stored.
func diff(containerID string, order []Item) []Update {
	var updates []Update
	for i, it := range order {
		if it.Position != i || it.ContainerID != containerID {
			updates = append(updates, Update{ItemID: it.ID, ContainerID: containerID, Position: i})
		}
	}
	return updates
}

func containsItem(items []Item, id string) bool {
	return slices.ContainsFunc(items, func(it Item) bool { return it.ID == id })
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
