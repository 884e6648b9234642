package document

import (
	"fmt"

	"github.com/jsamuelsen11/collab-sync/internal/domain"
	"github.com/jsamuelsen11/collab-sync/internal/domain/ordering"
)

// Patch replaces whole sections of a document. Nil sections are left as
// they are. A patch is applied as one atomic write.
type Patch struct {
	Items    []ordering.Item
	Nodes    []Node
	Viewport *Viewport

	// SetItems and SetNodes distinguish "replace with empty" from "leave".
	SetItems bool
	SetNodes bool
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return !p.SetItems && !p.SetNodes && p.Viewport == nil
}

// FullPatch returns a patch replacing every section with d's contents.
func FullPatch(d Document) Patch {
	c := d.Clone()
	vp := c.Viewport
	return Patch{Items: c.Items, Nodes: c.Nodes, Viewport: &vp, SetItems: true, SetNodes: true}
}

// Validate checks the patch against the document it targets. Items may be
// repositioned but not created or removed.
func (p Patch) Validate(d Document) error {
	if p.IsEmpty() {
		return &domain.ValidationError{Fields: map[string]string{"patch": "must change at least one section"}}
	}
	if p.Viewport != nil && p.Viewport.Zoom <= 0 {
		return &domain.ValidationError{Fields: map[string]string{
			"viewport.zoom": fmt.Sprintf("must be positive, got %v", p.Viewport.Zoom),
		}}
	}
	if !p.SetItems {
		return nil
	}
	if err := sameItemSet(d.Items, p.Items); err != nil {
		return err
	}
	return validateItems(d.Containers, p.Items)
}

func sameItemSet(current, next []ordering.Item) error {
	have := make(map[string]struct{}, len(current))
	for _, it := range current {
		have[it.ID] = struct{}{}
	}
	seen := make(map[string]struct{}, len(next))
	for _, it := range next {
		if _, ok := have[it.ID]; !ok {
			return &domain.ValidationError{Fields: map[string]string{"items": fmt.Sprintf("unknown item %q", it.ID)}}
		}
		if _, dup := seen[it.ID]; dup {
			return &domain.ValidationError{Fields: map[string]string{"items": fmt.Sprintf("item %q listed twice", it.ID)}}
		}
		seen[it.ID] = struct{}{}
	}
	if len(seen) != len(have) {
		return &domain.ValidationError{Fields: map[string]string{
			"items": fmt.Sprintf("patch lists %d items, document has %d", len(seen), len(have)),
		}}
	}
	return nil
}

// ApplyTo returns a copy of d with the patch applied. Version and UpdatedAt
// are left to the store.
func (p Patch) ApplyTo(d Document) Document {
	out := d.Clone()
	if p.SetItems {
		out.Items = Document{Items: p.Items}.Clone().Items
	}
	if p.SetNodes {
		out.Nodes = Document{Nodes: p.Nodes}.Clone().Nodes
	}
	if p.Viewport != nil {
		out.Viewport = *p.Viewport
	}
	return out
}
