// Package roomqueue provides a keyed serial dispatcher. Tasks submitted under
// the same key run one at a time in submission order; tasks under different
// keys run in parallel. The gateway keys tasks by room id so that events for a
// room are applied in arrival order without blocking other rooms.
package roomqueue

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// DefaultBacklog is the number of pending tasks a single key may hold when
// New is given a non-positive backlog.
const DefaultBacklog = 256

var (
	// ErrClosed is returned by Submit after Close has been called.
	ErrClosed = errors.New("roomqueue: closed")

	// ErrBacklog is returned by Submit when the key already holds the maximum
	// number of pending tasks.
	ErrBacklog = errors.New("roomqueue: backlog full")
)

type lane struct {
	pending []func()
	running bool
}

// Queue is a keyed serial dispatcher. The zero value is not usable; create
// one with New.
type Queue struct {
	backlog int
	logger  *slog.Logger

	mu     sync.Mutex
	lanes  map[string]*lane
	closed bool
	wg     sync.WaitGroup
}

// Option configures a Queue.
type Option func(*Queue)

// WithLogger sets the logger used to report recovered task panics.
func WithLogger(l *slog.Logger) Option {
	return func(q *Queue) {
		q.logger = l
	}
}

// New creates a Queue that holds at most backlog pending tasks per key.
func New(backlog int, opts ...Option) *Queue {
	if backlog <= 0 {
		backlog = DefaultBacklog
	}
	q := &Queue{
		backlog: backlog,
		logger:  slog.Default(),
		lanes:   make(map[string]*lane),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Submit enqueues fn under key and returns immediately. fn runs after every
// task previously submitted under the same key has finished.
func (q *Queue) Submit(key string, fn func()) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}

	l, ok := q.lanes[key]
	if !ok {
		l = &lane{}
		q.lanes[key] = l
	}
	if len(l.pending) >= q.backlog {
		return fmt.Errorf("key %q: %w", key, ErrBacklog)
	}
	l.pending = append(l.pending, fn)

	if !l.running {
		l.running = true
		q.wg.Add(1)
		go q.drain(key, l)
	}
	return nil
}

// Pending reports the number of tasks waiting under key, excluding the one
// currently running.
func (q *Queue) Pending(key string) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	if l, ok := q.lanes[key]; ok {
		return len(l.pending)
	}
	return 0
}

// Close rejects further submissions and waits for every queued task to run.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	q.wg.Wait()
}

func (q *Queue) drain(key string, l *lane) {
	defer q.wg.Done()

	for {
		q.mu.Lock()
		if len(l.pending) == 0 {
			l.running = false
			delete(q.lanes, key)
			q.mu.Unlock()
			return
		}
		fn := l.pending[0]
		l.pending[0] = nil
		l.pending = l.pending[1:]
		q.mu.Unlock()

		q.run(key, fn)
	}
}

func (q *Queue) run(key string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("room task panicked",
				slog.String("room_id", key),
				slog.Any("panic", r),
			)
		}
	}()
	fn()
}
