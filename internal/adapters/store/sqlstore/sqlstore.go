// Package sqlstore implements ports.Store on database/sql. The sqlite and
// postgres drivers open a *sql.DB for their engine and hand it here with
// the matching Dialect.
//
// Every position batch runs in one transaction. Each touched container's
// version is advanced with a compare-and-swap UPDATE; a zero row count means
// another batch won the race and the transaction is rolled back with
// domain.ErrVersionConflict.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
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

// Store implements ports.Store over a *sql.DB.
type Store struct {
	db      *sql.DB
	dialect Dialect
	clock   func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides time.Now for updated_at stamps.
func WithClock(fn func() time.Time) Option {
	return func(s *Store) { s.clock = fn }
}

// New wraps db. Call Migrate before first use on a fresh database.
func New(db *sql.DB, dialect Dialect, opts ...Option) *Store {
	s := &Store{db: db, dialect: dialect, clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB returns the underlying handle.
func (s *Store) DB() *sql.DB { return s.db }

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.Schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrating %s schema: %w", s.dialect.Name, err)
		}
	}
	return nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetContainerItems returns the container's items in position order.
func (s *Store) GetContainerItems(ctx context.Context, containerID string) (ordering.Snapshot, error) {
	var version int64
	err := s.db.QueryRowContext(ctx, s.q(`SELECT version FROM containers WHERE id = ?`), containerID).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return ordering.Snapshot{}, fmt.Errorf("container %s: %w", containerID, domain.ErrContainerNotFound)
	}
	if err != nil {
		return ordering.Snapshot{}, fmt.Errorf("reading container %s: %w", containerID, err)
	}

	items, err := s.containerItems(ctx, s.db, containerID)
	if err != nil {
		return ordering.Snapshot{}, err
	}
	return ordering.Snapshot{ContainerID: containerID, Version: version, Items: items}, nil
}

// ApplyPositionUpdates commits batch in one transaction.
func (s *Store) ApplyPositionUpdates(ctx context.Context, batch ordering.Batch) error {
	if err := batch.Validate(); err != nil {
		return err
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, id := range batch.Containers() {
			if err := s.casContainer(ctx, tx, id, batch.Expected[id]); err != nil {
				return err
			}
		}

		for _, u := range batch.Updates {
			var current string
			err := tx.QueryRowContext(ctx, s.q(`SELECT container_id FROM items WHERE id = ?`), u.ItemID).Scan(&current)
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("item %s: %w", u.ItemID, domain.ErrItemNotFound)
			}
			if err != nil {
				return fmt.Errorf("reading item %s: %w", u.ItemID, err)
			}
			if _, ok := batch.Expected[current]; !ok {
				return fmt.Errorf("container %s changed without an expected version: %w", current, domain.ErrVersionConflict)
			}

			if _, err := tx.ExecContext(ctx, s.q(`UPDATE items SET container_id = ?, position = ? WHERE id = ?`),
				u.ContainerID, u.Position, u.ItemID); err != nil {
				return fmt.Errorf("updating item %s: %w", u.ItemID, err)
			}
		}

		for _, id := range batch.Containers() {
			items, err := s.containerItems(ctx, tx, id)
			if err != nil {
				return err
			}
			if err := ordering.Validate(items); err != nil {
				return fmt.Errorf("container %s: %w", id, err)
			}
		}

		return s.bumpDocuments(ctx, tx, batch.Containers())
	})
}

// GetDocument assembles the canonical document.
func (s *Store) GetDocument(ctx context.Context, id string) (*document.Document, error) {
	doc, err := s.loadDocument(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// SaveDocument applies patch in one transaction.
func (s *Store) SaveDocument(ctx context.Context, id string, patch document.Patch) (*document.Document, error) {
	var saved *document.Document

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		current, err := s.loadDocument(ctx, tx, id)
		if errors.Is(err, domain.ErrDocumentNotFound) {
			return fmt.Errorf("document %s: %w", id, domain.ErrStaleEdit)
		}
		if err != nil {
			return err
		}
		if current.Archived {
			return fmt.Errorf("document %s is archived: %w", id, domain.ErrStaleEdit)
		}
		if err := patch.Validate(*current); err != nil {
			return err
		}

		if patch.SetItems {
			if err := s.saveItems(ctx, tx, *current, patch.Items); err != nil {
				return err
			}
		}
		next := patch.ApplyTo(*current)
		nodes, err := store.EncodeNodes(next.Nodes)
		if err != nil {
			return err
		}
		viewport, err := store.EncodeViewport(next.Viewport)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			s.q(`UPDATE documents SET nodes = ?, viewport = ?, version = version + 1, updated_at = ? WHERE id = ?`),
			nodes, viewport, s.clock().UnixMilli(), id); err != nil {
			return fmt.Errorf("updating document %s: %w", id, err)
		}

		saved, err = s.loadDocument(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// CreateDocument inserts doc with its containers, items, and nodes.
func (s *Store) CreateDocument(ctx context.Context, doc document.Document) error {
	if err := doc.ValidateItems(); err != nil {
		return err
	}
	nodes, err := store.EncodeNodes(doc.Nodes)
	if err != nil {
		return err
	}
	viewport, err := store.EncodeViewport(doc.Viewport)
	if err != nil {
		return err
	}
	updated := doc.UpdatedAt
	if updated.IsZero() {
		updated = s.clock()
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.mustNotExist(ctx, tx, "documents", doc.ID); err != nil {
			return err
		}
		for _, c := range doc.Containers {
			if err := s.mustNotExist(ctx, tx, "containers", c.ID); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx,
			s.q(`INSERT INTO documents (id, version, archived, viewport, nodes, updated_at) VALUES (?, ?, ?, ?, ?, ?)`),
			doc.ID, max(doc.Version, 1), doc.Archived, viewport, nodes, updated.UnixMilli()); err != nil {
			return fmt.Errorf("inserting document %s: %w", doc.ID, err)
		}
		for i, c := range doc.Containers {
			if _, err := tx.ExecContext(ctx,
				s.q(`INSERT INTO containers (id, document_id, title, version, seq) VALUES (?, ?, ?, ?, ?)`),
				c.ID, doc.ID, c.Title, max(c.Version, 1), i); err != nil {
				return fmt.Errorf("inserting container %s: %w", c.ID, err)
			}
		}
		for _, it := range doc.Items {
			if _, err := tx.ExecContext(ctx,
				s.q(`INSERT INTO items (id, container_id, position) VALUES (?, ?, ?)`),
				it.ID, it.ContainerID, it.Position); err != nil {
				return fmt.Errorf("inserting item %s: %w", it.ID, err)
			}
		}
		return nil
	})
}

// CreateContainer adds an empty container, optionally to a document.
func (s *Store) CreateContainer(ctx context.Context, documentID string, c document.Container) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.mustNotExist(ctx, tx, "containers", c.ID); err != nil {
			return err
		}
		var docID sql.NullString
		seq := 0
		if documentID != "" {
			docID = sql.NullString{String: documentID, Valid: true}
			err := tx.QueryRowContext(ctx,
				s.q(`SELECT COUNT(*) FROM containers WHERE document_id = ?`), documentID).Scan(&seq)
			if err != nil {
				return fmt.Errorf("counting containers: %w", err)
			}
			res, err := tx.ExecContext(ctx,
				s.q(`UPDATE documents SET version = version + 1, updated_at = ? WHERE id = ?`),
				s.clock().UnixMilli(), documentID)
			if err != nil {
				return fmt.Errorf("updating document %s: %w", documentID, err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return fmt.Errorf("document %s: %w", documentID, domain.ErrDocumentNotFound)
			}
		}
		if _, err := tx.ExecContext(ctx,
			s.q(`INSERT INTO containers (id, document_id, title, version, seq) VALUES (?, ?, ?, 1, ?)`),
			c.ID, docID, c.Title, seq); err != nil {
			return fmt.Errorf("inserting container %s: %w", c.ID, err)
		}
		return nil
	})
}

// CreateItem appends a new item at the end of a container.
func (s *Store) CreateItem(ctx context.Context, containerID, itemID string) (ordering.Item, error) {
	var it ordering.Item
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.mustNotExist(ctx, tx, "items", itemID); err != nil {
			return err
		}
		var n int
		if err := tx.QueryRowContext(ctx, s.q(`SELECT COUNT(*) FROM items WHERE container_id = ?`), containerID).Scan(&n); err != nil {
			return fmt.Errorf("counting items: %w", err)
		}
		if err := s.bumpContainer(ctx, tx, containerID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			s.q(`INSERT INTO items (id, container_id, position) VALUES (?, ?, ?)`),
			itemID, containerID, n); err != nil {
			return fmt.Errorf("inserting item %s: %w", itemID, err)
		}
		it = ordering.Item{ID: itemID, ContainerID: containerID, Position: n}
		return s.bumpDocuments(ctx, tx, []string{containerID})
	})
	return it, err
}

// DeleteItem removes an item and closes the gap it leaves.
func (s *Store) DeleteItem(ctx context.Context, itemID string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var containerID string
		err := tx.QueryRowContext(ctx, s.q(`SELECT container_id FROM items WHERE id = ?`), itemID).Scan(&containerID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("item %s: %w", itemID, domain.ErrItemNotFound)
		}
		if err != nil {
			return fmt.Errorf("reading item %s: %w", itemID, err)
		}
		if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM items WHERE id = ?`), itemID); err != nil {
			return fmt.Errorf("deleting item %s: %w", itemID, err)
		}

		rest, err := s.containerItems(ctx, tx, containerID)
		if err != nil {
			return err
		}
		for _, u := range ordering.Normalize(ordering.Snapshot{ContainerID: containerID, Items: rest}) {
			if _, err := tx.ExecContext(ctx, s.q(`UPDATE items SET position = ? WHERE id = ?`), u.Position, u.ItemID); err != nil {
				return fmt.Errorf("renumbering item %s: %w", u.ItemID, err)
			}
		}
		if err := s.bumpContainer(ctx, tx, containerID); err != nil {
			return err
		}
		return s.bumpDocuments(ctx, tx, []string{containerID})
	})
}

// ArchiveDocument marks a document read-only.
func (s *Store) ArchiveDocument(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		s.q(`UPDATE documents SET archived = ?, version = version + 1, updated_at = ? WHERE id = ?`),
		true, s.clock().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("archiving document %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrDocumentNotFound)
	}
	return nil
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) q(query string) string { return s.dialect.Rebind(query) }

// mustNotExist returns domain.ErrConflict if table already has a row with id.
// table is always a constant from this package.
func (s *Store) mustNotExist(ctx context.Context, tx *sql.Tx, table, id string) error {
	var one int
	err := tx.QueryRowContext(ctx, s.q(`SELECT 1 FROM `+table+` WHERE id = ?`), id).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil
	case err != nil:
		return fmt.Errorf("checking %s %s: %w", table, id, err)
	default:
		return fmt.Errorf("%s %s already exists: %w", table, id, domain.ErrConflict)
	}
}

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// casContainer advances a container's version if it is still at expected.
func (s *Store) casContainer(ctx context.Context, tx *sql.Tx, id string, expected int64) error {
	res, err := tx.ExecContext(ctx,
		s.q(`UPDATE containers SET version = version + 1 WHERE id = ? AND version = ?`), id, expected)
	if err != nil {
		return fmt.Errorf("advancing container %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}

	var actual int64
	err = tx.QueryRowContext(ctx, s.q(`SELECT version FROM containers WHERE id = ?`), id).Scan(&actual)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("container %s: %w", id, domain.ErrContainerNotFound)
	}
	if err != nil {
		return fmt.Errorf("reading container %s: %w", id, err)
	}
	return fmt.Errorf("container %s at version %d, expected %d: %w", id, actual, expected, domain.ErrVersionConflict)
}

func (s *Store) bumpContainer(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx, s.q(`UPDATE containers SET version = version + 1 WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("advancing container %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("container %s: %w", id, domain.ErrContainerNotFound)
	}
	return nil
}

// bumpDocuments advances the version of every document owning one of the
// containers, once per document.
func (s *Store) bumpDocuments(ctx context.Context, tx *sql.Tx, containerIDs []string) error {
	var docs []string
	for _, id := range containerIDs {
		var docID sql.NullString
		if err := tx.QueryRowContext(ctx, s.q(`SELECT document_id FROM containers WHERE id = ?`), id).Scan(&docID); err != nil {
			return fmt.Errorf("reading container %s: %w", id, err)
		}
		if docID.Valid && !slices.Contains(docs, docID.String) {
			docs = append(docs, docID.String)
		}
	}
	now := s.clock().UnixMilli()
	for _, id := range docs {
		if _, err := tx.ExecContext(ctx,
			s.q(`UPDATE documents SET version = version + 1, updated_at = ? WHERE id = ?`), now, id); err != nil {
			return fmt.Errorf("advancing document %s: %w", id, err)
		}
	}
	return nil
}

// saveItems writes repositioned items and advances the containers whose
// membership or order changed.
func (s *Store) saveItems(ctx context.Context, tx *sql.Tx, current document.Document, next []ordering.Item) error {
	prev := make(map[string]ordering.Item, len(current.Items))
	for _, it := range current.Items {
		prev[it.ID] = it
	}

	var changed []string
	for _, it := range next {
		old := prev[it.ID]
		if old == it {
			continue
		}
		if _, err := tx.ExecContext(ctx, s.q(`UPDATE items SET container_id = ?, position = ? WHERE id = ?`),
			it.ContainerID, it.Position, it.ID); err != nil {
			return fmt.Errorf("updating item %s: %w", it.ID, err)
		}
		changed = append(changed, old.ContainerID, it.ContainerID)
	}
	slices.Sort(changed)
	for _, id := range slices.Compact(changed) {
		if err := s.bumpContainer(ctx, tx, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) containerItems(ctx context.Context, db querier, containerID string) ([]ordering.Item, error) {
	rows, err := db.QueryContext(ctx,
		s.q(`SELECT id, position FROM items WHERE container_id = ? ORDER BY position, id`), containerID)
	if err != nil {
		return nil, fmt.Errorf("listing items of %s: %w", containerID, err)
	}
	defer rows.Close()

	var items []ordering.Item
	for rows.Next() {
		it := ordering.Item{ContainerID: containerID}
		if err := rows.Scan(&it.ID, &it.Position); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing items of %s: %w", containerID, err)
	}
	return items, nil
}

func (s *Store) loadDocument(ctx context.Context, db querier, id string) (*document.Document, error) {
	var (
		doc      = document.Document{ID: id}
		nodes    string
		viewport string
		updated  int64
	)
	err := db.QueryRowContext(ctx,
		s.q(`SELECT version, archived, viewport, nodes, updated_at FROM documents WHERE id = ?`), id).
		Scan(&doc.Version, &doc.Archived, &viewport, &nodes, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrDocumentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading document %s: %w", id, err)
	}
	doc.UpdatedAt = time.UnixMilli(updated).UTC()
	if doc.Nodes, err = store.DecodeNodes(nodes); err != nil {
		return nil, err
	}
	if doc.Viewport, err = store.DecodeViewport(viewport); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		s.q(`SELECT id, title, version FROM containers WHERE document_id = ? ORDER BY seq, id`), id)
	if err != nil {
		return nil, fmt.Errorf("listing containers of %s: %w", id, err)
	}
	for rows.Next() {
		var c document.Container
		if err := rows.Scan(&c.ID, &c.Title, &c.Version); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning container: %w", err)
		}
		doc.Containers = append(doc.Containers, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing containers of %s: %w", id, err)
	}

	for _, c := range doc.Containers {
		items, err := s.containerItems(ctx, db, c.ID)
		if err != nil {
			return nil, err
		}
		doc.Items = append(doc.Items, items...)
	}
	return &doc, nil
}
