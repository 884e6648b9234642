// Package store holds what every store driver shares: the seeding contract
// used by the local and dev profiles and the demo board it seeds.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jsamuelsen11/collab-sync/internal/domain"
	"github.com/jsamuelsen11/collab-sync/internal/domain/document"
	"github.com/jsamuelsen11/collab-sync/internal/domain/ordering"
)

// DemoDocumentID is the id of the board created by Seed.
const DemoDocumentID = "demo-board"

// Seeder creates whole documents. Every store driver implements it.
type Seeder interface {
	CreateDocument(ctx context.Context, doc document.Document) error
}

// DemoBoard returns a three-column board with a few cards and one canvas
// node per card.
func DemoBoard(now time.Time) document.Document {
	columns := []struct {
		id    string
		title string
		cards []string
	}{
		{id: "todo", title: "To Do", cards: []string{"card-1", "card-2", "card-3"}},
		{id: "doing", title: "In Progress", cards: []string{"card-4"}},
		{id: "done", title: "Done", cards: []string{"card-5", "card-6"}},
	}

	doc := document.Document{
		ID:        DemoDocumentID,
		Version:   1,
		Viewport:  document.Viewport{Zoom: 1},
		UpdatedAt: now,
	}
	for col, c := range columns {
		doc.Containers = append(doc.Containers, document.Container{ID: c.id, Title: c.title, Version: 1})
		for pos, id := range c.cards {
			doc.Items = append(doc.Items, ordering.Item{ID: id, ContainerID: c.id, Position: pos})
			doc.Nodes = append(doc.Nodes, document.Node{
				ID:          "node-" + id,
				ContainerID: c.id,
				Kind:        "card",
				X:           float64(col) * 320,
				Y:           float64(pos) * 120,
				Width:       300,
				Height:      100,
				Data:        map[string]any{"title": "Card " + id[len("card-"):]},
			})
		}
	}
	return doc
}

// Seed creates the demo board unless it already exists.
func Seed(ctx context.Context, s Seeder, now time.Time) error {
	err := s.CreateDocument(ctx, DemoBoard(now))
	if err != nil && !errors.Is(err, domain.ErrConflict) {
		return fmt.Errorf("seeding demo board: %w", err)
	}
	return nil
}
