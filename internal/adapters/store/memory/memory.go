// Package memory is an in-process store driver. It keeps containers, items,
// and documents in maps behind one mutex and enforces the same version
// compare-and-swap and density rules as the SQL drivers. It backs the local
// profile and the engine's tests.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/jsamuelsen11/collab-sync/internal/adapters/store"
	"github.com/jsamuelsen11/collab-sync/internal/domain"
	"github.com/jsamuelsen11/collab-sync/internal/domain/document"
	"github.com/jsamuelsen11/collab-sync/internal/domain/ordering"
	"github.com/jsamuelsen11/collab-sync/internal/ports"
)

// Compile-time checks.
var (
	_ ports.Store  = (*Store)(nil)
	_ store.Seeder = (*Store)(nil)
)

type container struct {
	id         string
	documentID string
	title      string
	version    int64
}

type docRecord struct {
	id         string
	version    int64
	archived   bool
	containers []string
	nodes      []document.Node
	viewport   document.Viewport
	updatedAt  time.Time
}

// Store implements ports.Store in memory.
type Store struct {
	clock func() time.Time

	mu         sync.RWMutex
	containers map[string]*container
	items      map[string]ordering.Item
	documents  map[string]*docRecord
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides time.Now for UpdatedAt stamps.
func WithClock(fn func() time.Time) Option {
	return func(s *Store) { s.clock = fn }
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		clock:      time.Now,
		containers: make(map[string]*container),
		items:      make(map[string]ordering.Item),
		documents:  make(map[string]*docRecord),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetContainerItems returns the container's items in position order.
func (s *Store) GetContainerItems(_ context.Context, containerID string) (ordering.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.containers[containerID]
	if !ok {
		return ordering.Snapshot{}, fmt.Errorf("container %s: %w", containerID, domain.ErrContainerNotFound)
	}
	return ordering.Snapshot{
		ContainerID: c.id,
		Version:     c.version,
		Items:       s.itemsOfLocked(c.id),
	}, nil
}

// ApplyPositionUpdates commits batch atomically.
func (s *Store) ApplyPositionUpdates(_ context.Context, batch ordering.Batch) error {
	if err := batch.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range batch.Containers() {
		c, ok := s.containers[id]
		if !ok {
			return fmt.Errorf("container %s: %w", id, domain.ErrContainerNotFound)
		}
		if c.version != batch.Expected[id] {
			return fmt.Errorf("container %s at version %d, expected %d: %w",
				id, c.version, batch.Expected[id], domain.ErrVersionConflict)
		}
	}

	next := make(map[string]ordering.Item, len(batch.Updates))
	touched := make(map[string]struct{})
	for _, u := range batch.Updates {
		it, ok := s.items[u.ItemID]
		if !ok {
			return fmt.Errorf("item %s: %w", u.ItemID, domain.ErrItemNotFound)
		}
		touched[it.ContainerID] = struct{}{}
		touched[u.ContainerID] = struct{}{}
		next[u.ItemID] = ordering.Item{ID: u.ItemID, ContainerID: u.ContainerID, Position: u.Position}
	}

	for id := range touched {
		if _, ok := batch.Expected[id]; !ok {
			return fmt.Errorf("container %s changed without an expected version: %w", id, domain.ErrVersionConflict)
		}
		if err := ordering.Validate(s.itemsAfterLocked(id, next)); err != nil {
			return fmt.Errorf("container %s: %w", id, err)
		}
	}

	maps.Copy(s.items, next)
	s.bumpLocked(batch.Containers())
	return nil
}

// GetDocument assembles the canonical document.
func (s *Store) GetDocument(_ context.Context, id string) (*document.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.documents[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrDocumentNotFound)
	}
	doc := s.documentLocked(rec)
	return &doc, nil
}

// SaveDocument applies patch atomically. Containers whose items moved get
// their versions bumped so that in-flight moves planned against them fail
// their compare-and-swap.
func (s *Store) SaveDocument(_ context.Context, id string, patch document.Patch) (*document.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.documents[id]
	if !ok || rec.archived {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrStaleEdit)
	}

	current := s.documentLocked(rec)
	if err := patch.Validate(current); err != nil {
		return nil, err
	}

	if patch.SetItems {
		var changed []string
		for _, it := range patch.Items {
			old := s.items[it.ID]
			if old == it {
				continue
			}
			changed = append(changed, old.ContainerID, it.ContainerID)
			s.items[it.ID] = it
		}
		slices.Sort(changed)
		for _, cid := range slices.Compact(changed) {
			s.containers[cid].version++
		}
	}
	if patch.SetNodes {
		rec.nodes = document.Document{Nodes: patch.Nodes}.Clone().Nodes
	}
	if patch.Viewport != nil {
		rec.viewport = *patch.Viewport
	}
	rec.version++
	rec.updatedAt = s.clock()

	doc := s.documentLocked(rec)
	return &doc, nil
}

// CreateDocument stores doc with its containers, items, and nodes.
func (s *Store) CreateDocument(_ context.Context, doc document.Document) error {
	if err := doc.ValidateItems(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[doc.ID]; ok {
		return fmt.Errorf("document %s already exists: %w", doc.ID, domain.ErrConflict)
	}
	for _, c := range doc.Containers {
		if _, ok := s.containers[c.ID]; ok {
			return fmt.Errorf("container %s already exists: %w", c.ID, domain.ErrConflict)
		}
	}

	rec := &docRecord{
		id:        doc.ID,
		version:   max(doc.Version, 1),
		archived:  doc.Archived,
		nodes:     doc.Clone().Nodes,
		viewport:  doc.Viewport,
		updatedAt: doc.UpdatedAt,
	}
	if rec.updatedAt.IsZero() {
		rec.updatedAt = s.clock()
	}
	for _, c := range doc.Containers {
		rec.containers = append(rec.containers, c.ID)
		s.containers[c.ID] = &container{id: c.ID, documentID: doc.ID, title: c.Title, version: max(c.Version, 1)}
	}
	for _, it := range doc.Items {
		s.items[it.ID] = it
	}
	s.documents[doc.ID] = rec
	return nil
}

// CreateContainer adds an empty container, optionally to a document.
func (s *Store) CreateContainer(_ context.Context, documentID string, c document.Container) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.containers[c.ID]; ok {
		return fmt.Errorf("container %s already exists: %w", c.ID, domain.ErrConflict)
	}
	var rec *docRecord
	if documentID != "" {
		var ok bool
		if rec, ok = s.documents[documentID]; !ok {
			return fmt.Errorf("document %s: %w", documentID, domain.ErrDocumentNotFound)
		}
	}

	s.containers[c.ID] = &container{id: c.ID, documentID: documentID, title: c.Title, version: 1}
	if rec != nil {
		rec.containers = append(rec.containers, c.ID)
		rec.version++
		rec.updatedAt = s.clock()
	}
	return nil
}

// CreateItem appends a new item at the end of a container.
func (s *Store) CreateItem(_ context.Context, containerID, itemID string) (ordering.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.containers[containerID]; !ok {
		return ordering.Item{}, fmt.Errorf("container %s: %w", containerID, domain.ErrContainerNotFound)
	}
	if _, ok := s.items[itemID]; ok {
		return ordering.Item{}, fmt.Errorf("item %s already exists: %w", itemID, domain.ErrConflict)
	}

	it := ordering.Item{ID: itemID, ContainerID: containerID, Position: len(s.itemsOfLocked(containerID))}
	s.items[itemID] = it
	s.bumpLocked([]string{containerID})
	return it, nil
}

// DeleteItem removes an item and closes the gap it leaves.
func (s *Store) DeleteItem(_ context.Context, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[itemID]
	if !ok {
		return fmt.Errorf("item %s: %w", itemID, domain.ErrItemNotFound)
	}
	delete(s.items, itemID)

	c := s.containers[it.ContainerID]
	rest := ordering.Snapshot{ContainerID: c.id, Items: s.itemsOfLocked(c.id)}
	for _, u := range ordering.Normalize(rest) {
		s.items[u.ItemID] = ordering.Item{ID: u.ItemID, ContainerID: u.ContainerID, Position: u.Position}
	}
	s.bumpLocked([]string{c.id})
	return nil
}

// ArchiveDocument marks a document read-only. Later saves fail with
// domain.ErrStaleEdit.
func (s *Store) ArchiveDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.documents[id]
	if !ok {
		return fmt.Errorf("document %s: %w", id, domain.ErrDocumentNotFound)
	}
	rec.archived = true
	rec.version++
	rec.updatedAt = s.clock()
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// bumpLocked increments the versions of the given containers and of the
// documents that own them.
func (s *Store) bumpLocked(containerIDs []string) {
	docs := make(map[string]struct{})
	for _, id := range containerIDs {
		c := s.containers[id]
		c.version++
		if c.documentID != "" {
			docs[c.documentID] = struct{}{}
		}
	}
	now := s.clock()
	for id := range docs {
		if rec, ok := s.documents[id]; ok {
			rec.version++
			rec.updatedAt = now
		}
	}
}

func (s *Store) itemsOfLocked(containerID string) []ordering.Item {
	var out []ordering.Item
	for _, it := range s.items {
		if it.ContainerID == containerID {
			out = append(out, it)
		}
	}
	return ordering.Sorted(out)
}

// itemsAfterLocked lists a container's items as they would be with next
// applied.
func (s *Store) itemsAfterLocked(containerID string, next map[string]ordering.Item) []ordering.Item {
	var out []ordering.Item
	for id, it := range s.items {
		if n, ok := next[id]; ok {
			it = n
		}
		if it.ContainerID == containerID {
			out = append(out, it)
		}
	}
	return out
}

func (s *Store) documentLocked(rec *docRecord) document.Document {
	doc := document.Document{
		ID:        rec.id,
		Version:   rec.version,
		Archived:  rec.archived,
		Nodes:     document.Document{Nodes: rec.nodes}.Clone().Nodes,
		Viewport:  rec.viewport,
		UpdatedAt: rec.updatedAt,
	}
	for _, cid := range rec.containers {
		c := s.containers[cid]
		doc.Containers = append(doc.Containers, document.Container{ID: c.id, Title: c.title, Version: c.version})
		doc.Items = append(doc.Items, s.itemsOfLocked(cid)...)
	}
	return doc
}
