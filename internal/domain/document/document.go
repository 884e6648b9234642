// Package document models the server-authoritative collaborative structure:
// containers with ordered items, free-form canvas nodes, and a viewport.
package document

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/jsamuelsen11/collab-sync/internal/domain"
	"github.com/jsamuelsen11/collab-sync/internal/domain/ordering"
)

// Container groups ordered items, such as a board column or a canvas frame.
type Container struct {
	ID      string
	Title   string
	Version int64
}

// Node is a positioned element on a canvas.
type Node struct {
	ID          string
	ContainerID string
	Kind        string
	X           float64
	Y           float64
	Width       float64
	Height      float64
	Data        map[string]any
}

// Viewport is the visible region of a canvas.
type Viewport struct {
	X    float64
	Y    float64
	Zoom float64
}

// Document is the canonical state of one collaborative structure. Version
// increases by one on every accepted mutation and orders observations; it is
// not used to detect conflicting commits.
type Document struct {
	ID         string
	Version    int64
	Archived   bool
	Containers []Container
	Items      []ordering.Item
	Nodes      []Node
	Viewport   Viewport
	UpdatedAt  time.Time
}

// Clone returns a deep copy of d.
func (d Document) Clone() Document {
	out := d
	out.Containers = slices.Clone(d.Containers)
	out.Items = slices.Clone(d.Items)
	out.Nodes = make([]Node, len(d.Nodes))
	for i, n := range d.Nodes {
		n.Data = maps.Clone(n.Data)
		out.Nodes[i] = n
	}
	if d.Nodes == nil {
		out.Nodes = nil
	}
	return out
}

// Snapshot returns the ordered items of one container.
func (d Document) Snapshot(containerID string) (ordering.Snapshot, bool) {
	idx := slices.IndexFunc(d.Containers, func(c Container) bool { return c.ID == containerID })
	if idx < 0 {
		return ordering.Snapshot{}, false
	}
	s := ordering.Snapshot{ContainerID: containerID, Version: d.Containers[idx].Version}
	for _, it := range d.Items {
		if it.ContainerID == containerID {
			s.Items = append(s.Items, it)
		}
	}
	s.Items = ordering.Sorted(s.Items)
	return s, true
}

// MoveItem plans m against the document's own containers and applies the
// result in place. It returns the updates that were applied.
func (d *Document) MoveItem(m ordering.Move) ([]ordering.Update, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	from, ok := d.Snapshot(m.FromContainerID)
	if !ok {
		return nil, fmt.Errorf("move %s: %w", m.ItemID, domain.ErrItemNotFound)
	}
	to, ok := d.Snapshot(m.ToContainerID)
	if !ok {
		return nil, fmt.Errorf("move %s to %s: %w", m.ItemID, m.ToContainerID, domain.ErrContainerNotFound)
	}

	updates, err := ordering.Plan(m, from, to)
	if err != nil || len(updates) == 0 {
		return nil, err
	}

	byItem := make(map[string]ordering.Update, len(updates))
	for _, u := range updates {
		byItem[u.ItemID] = u
	}
	for i, it := range d.Items {
		if u, ok := byItem[it.ID]; ok {
			d.Items[i].ContainerID = u.ContainerID
			d.Items[i].Position = u.Position
		}
	}
	return updates, nil
}

// MoveNode repositions a canvas node in place.
func (d *Document) MoveNode(id string, x, y float64) error {
	idx := slices.IndexFunc(d.Nodes, func(n Node) bool { return n.ID == id })
	if idx < 0 {
		return fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	d.Nodes[idx].X = x
	d.Nodes[idx].Y = y
	return nil
}

// ValidateItems checks that every container's items are densely ordered and
// that items only reference known containers.
func (d Document) ValidateItems() error {
	return validateItems(d.Containers, d.Items)
}

func validateItems(containers []Container, items []ordering.Item) error {
	known := make(map[string]struct{}, len(containers))
	for _, c := range containers {
		known[c.ID] = struct{}{}
	}

	grouped := make(map[string][]ordering.Item)
	for _, it := range items {
		if _, ok := known[it.ContainerID]; !ok {
			return &domain.ValidationError{Fields: map[string]string{
				"items": fmt.Sprintf("item %s references unknown container %q", it.ID, it.ContainerID),
			}}
		}
		grouped[it.ContainerID] = append(grouped[it.ContainerID], it)
	}
	for _, id := range slices.Sorted(maps.Keys(grouped)) {
		if err := ordering.Validate(grouped[id]); err != nil {
			return err
		}
	}
	return nil
}
