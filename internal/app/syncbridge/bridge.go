// Package syncbridge keeps a client-side mirror of a canonical document and
// reconciles local edits with pushes from the server.
//
// Local mutations apply immediately. While a gesture is in progress (between
// BeginEdit and Commit or Discard) server pushes are buffered instead of
// applied, so the user's own drag is never overwritten mid-gesture. Commit
// sends the whole local document as one patch; the store applies it
// last-writer-wins.
package syncbridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	appctx "github.com/jsamuelsen11/collab-sync/internal/app/context"
	"github.com/jsamuelsen11/collab-sync/internal/domain/document"
	"github.com/jsamuelsen11/collab-sync/internal/domain/ordering"
	"github.com/jsamuelsen11/collab-sync/internal/ports"
)

// ErrNotSubscribed is returned by operations that need a document before
// Subscribe has loaded one.
var ErrNotSubscribed = errors.New("syncbridge: not subscribed")

// state is the bridge's mutable view. It is only touched through the
// SafeRef that holds it.
type state struct {
	canonical *document.Document
	local     *document.Document
	pending   *document.Document

	editing bool
	dirty   bool

	// gen counts local mutations so a commit can tell whether the user
	// kept editing while it was in flight.
	gen uint64
}

func (s *state) loaded() bool { return s.canonical != nil }

// resetLocal replaces local with a copy of canonical.
func (s *state) resetLocal() {
	d := s.canonical.Clone()
	s.local = &d
}

// absorbPending promotes the buffered push when it is newer than canonical.
func (s *state) absorbPending() {
	if s.pending != nil && s.pending.Version > s.canonical.Version {
		s.canonical = s.pending
	}
	s.pending = nil
}

// Bridge implements the client side of optimistic document sync.
type Bridge struct {
	store  ports.DocumentStore
	feed   ports.DocumentFeed
	logger *slog.Logger

	state *appctx.SafeRef[state]

	mu         sync.Mutex
	documentID string
	ctx        context.Context
	cancel     context.CancelFunc
	autoCommit time.Duration
	timer      *time.Timer
	onChange   func(document.Document)
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithAutoCommit commits local changes made outside a gesture once no
// further change has arrived for delay.
func WithAutoCommit(delay time.Duration) Option {
	return func(b *Bridge) { b.autoCommit = delay }
}

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bridge) { b.logger = l }
}

// New creates a Bridge that commits through store and listens on feed.
func New(store ports.DocumentStore, feed ports.DocumentFeed, opts ...Option) *Bridge {
	b := &Bridge{
		store: store,
		feed:  feed,
		state: appctx.NewRef(state{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.New(slog.DiscardHandler)
	}
	return b
}

// OnChange registers fn to receive the local document after every change.
// fn runs on the goroutine that caused the change and must not block.
func (b *Bridge) OnChange(fn func(document.Document)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onChange = fn
}

// Subscribe loads the canonical document and starts consuming pushes for it
// until ctx is canceled or Close is called.
func (b *Bridge) Subscribe(ctx context.Context, documentID string) error {
	doc, err := b.store.GetDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("loading document %s: %w", documentID, err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	pushes, err := b.feed.SubscribeDocument(subCtx, documentID)
	if err != nil {
		cancel()
		return fmt.Errorf("subscribing to document %s: %w", documentID, err)
	}

	b.mu.Lock()
	if b.cancel != nil {
		b.cancel()
	}
	b.documentID = documentID
	b.ctx = subCtx
	b.cancel = cancel
	b.mu.Unlock()

	b.state.Update(func(s *state) {
		*s = state{canonical: doc}
		s.resetLocal()
	})
	b.notify()

	go b.consume(subCtx, pushes)
	return nil
}

func (b *Bridge) consume(ctx context.Context, pushes <-chan document.Document) {
	for {
		select {
		case <-ctx.Done():
			return
		case doc, ok := <-pushes:
			if !ok {
				return
			}
			b.Receive(doc)
		}
	}
}

// Receive merges a pushed canonical document. Pushes no newer than what the
// bridge already holds are dropped. During a gesture, or while local changes
// wait for an auto commit, the latest push is buffered.
func (b *Bridge) Receive(doc document.Document) {
	applied := appctx.Modify(b.state, func(s *state) bool {
		if !s.loaded() || doc.Version <= s.canonical.Version {
			return false
		}
		if s.editing || s.dirty {
			if s.pending == nil || doc.Version > s.pending.Version {
				d := doc.Clone()
				s.pending = &d
			}
			return false
		}
		d := doc.Clone()
		s.canonical = &d
		s.resetLocal()
		return true
	})
	if applied {
		b.notify()
	}
}

// BeginEdit marks the start of a gesture. Pushes arriving until Commit or
// Discard are buffered.
func (b *Bridge) BeginEdit() {
	b.stopTimer()
	b.state.Update(func(s *state) { s.editing = true })
}

// ApplyLocal runs mutation against a copy of the local document and keeps
// the result if mutation succeeds.
func (b *Bridge) ApplyLocal(mutation func(*document.Document) error) error {
	type outcome struct {
		err     error
		editing bool
	}
	out := appctx.Modify(b.state, func(s *state) outcome {
		if !s.loaded() {
			return outcome{err: ErrNotSubscribed}
		}
		work := s.local.Clone()
		if err := mutation(&work); err != nil {
			return outcome{err: err}
		}
		s.local = &work
		s.gen++
		if !s.editing {
			s.dirty = true
		}
		return outcome{editing: s.editing}
	})
	if out.err != nil {
		return out.err
	}

	if !out.editing {
		b.scheduleCommit()
	}
	b.notify()
	return nil
}

// MoveItem applies an item move to the local document.
func (b *Bridge) MoveItem(m ordering.Move) error {
	return b.ApplyLocal(func(d *document.Document) error {
		_, err := d.MoveItem(m)
		return err
	})
}

// Commit sends the local document as one patch and ends the gesture. On
// success the saved document becomes canonical unless a newer push was
// buffered meanwhile. On failure local snaps back to canonical and the
// error is returned.
func (b *Bridge) Commit(ctx context.Context) (*document.Document, error) {
	b.stopTimer()

	b.mu.Lock()
	id := b.documentID
	b.mu.Unlock()

	type start struct {
		local   document.Document
		gen     uint64
		changed bool
		loaded  bool
	}
	st := appctx.Modify(b.state, func(s *state) start {
		if !s.loaded() {
			return start{}
		}
		return start{local: s.local.Clone(), gen: s.gen, changed: s.editing || s.dirty, loaded: true}
	})
	if !st.loaded {
		return nil, ErrNotSubscribed
	}
	if !st.changed {
		canon := b.Canonical()
		return &canon, nil
	}

	saved, err := b.store.SaveDocument(ctx, id, document.FullPatch(st.local))

	kept := appctx.Modify(b.state, func(s *state) bool {
		if err == nil {
			d := saved.Clone()
			if d.Version > s.canonical.Version {
				s.canonical = &d
			}
		}
		s.absorbPending()
		s.editing = false

		if s.gen != st.gen && err == nil {
			// Changes made while the commit was in flight stay local and
			// go out with the next commit.
			s.dirty = true
			return true
		}
		s.dirty = false
		s.resetLocal()
		return false
	})
	if kept {
		b.scheduleCommit()
	}
	b.notify()

	if err != nil {
		b.logger.WarnContext(ctx, "commit failed, restored canonical document",
			slog.String("document_id", id),
			slog.Any("error", err),
		)
		return nil, err
	}
	return saved, nil
}

// Discard ends the gesture and restores the latest canonical document,
// including any push buffered during the gesture.
func (b *Bridge) Discard() {
	b.stopTimer()
	changed := appctx.Modify(b.state, func(s *state) bool {
		if !s.loaded() {
			return false
		}
		s.editing = false
		s.dirty = false
		s.absorbPending()
		s.resetLocal()
		return true
	})
	if changed {
		b.notify()
	}
}

// Local returns a copy of the local document.
func (b *Bridge) Local() document.Document {
	return appctx.Modify(b.state, func(s *state) document.Document {
		if s.local == nil {
			return document.Document{}
		}
		return s.local.Clone()
	})
}

// Canonical returns a copy of the last known canonical document, not
// counting a buffered push.
func (b *Bridge) Canonical() document.Document {
	return appctx.Modify(b.state, func(s *state) document.Document {
		if s.canonical == nil {
			return document.Document{}
		}
		return s.canonical.Clone()
	})
}

// Editing reports whether a gesture is in progress.
func (b *Bridge) Editing() bool {
	return b.state.Get().editing
}

// Close stops the push subscription and any pending auto commit.
func (b *Bridge) Close() {
	b.stopTimer()
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
}

func (b *Bridge) scheduleCommit() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.autoCommit <= 0 || b.ctx == nil {
		return
	}
	if b.timer != nil {
		b.timer.Stop()
	}
	ctx := b.ctx
	b.timer = time.AfterFunc(b.autoCommit, func() {
		if ctx.Err() != nil {
			return
		}
		if _, err := b.Commit(ctx); err != nil {
			b.logger.WarnContext(ctx, "auto commit failed", slog.Any("error", err))
		}
	})
}

func (b *Bridge) stopTimer() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

func (b *Bridge) notify() {
	b.mu.Lock()
	fn := b.onChange
	b.mu.Unlock()

	if fn != nil {
		fn(b.Local())
	}
}
