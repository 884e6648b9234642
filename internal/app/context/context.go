// Package appctx provides attempt-scoped context for orchestration services.
//
// RequestContext extends context.Context with memoized reads and staged
// store writes that are rolled back in reverse order when a later write
// fails. The ordering service creates one per move attempt:
//
//	rc := appctx.New(ctx)
//
//	// Read each container once per attempt.
//	src, err := appctx.GetOrFetch(rc, "container:todo", fetchTodo)
//
//	// Stage the planned batch; later reads of the key see the result.
//	err = rc.Stage("container:todo", after, applyBatch)
//
//	// Execute staged writes, undoing earlier ones if a later one fails.
//	err = rc.Commit(ctx)
package appctx

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jsamuelsen11/collab-sync/internal/domain"
)

// Compile-time check that RequestContext implements domain.WriteStager.
var _ domain.WriteStager = (*RequestContext)(nil)

// ErrAlreadyCommitted is returned when AddAction, Stage, or Commit is
// called on a RequestContext that has already been committed.
var ErrAlreadyCommitted = errors.New("appctx: request context already committed")

// ErrNilAction is returned when a nil Action is staged.
var ErrNilAction = errors.New("appctx: nil action")

// ErrTypeMismatch is returned by GetOrFetch when a cached value's type does
// not match the requested type T.
var ErrTypeMismatch = errors.New("appctx: cached value type mismatch")

// RequestContext is an attempt-scoped context wrapper providing memoized
// reads and staged writes. Reads are not safe for concurrent use; staging
// and Commit are.
type RequestContext struct {
	context.Context
	cache map[string]cacheEntry

	queueMu   sync.Mutex
	actions   []domain.Action
	committed bool
}

// cacheEntry stores the result of a GetOrFetch call, including any error.
type cacheEntry struct {
	value any
	err   error
}

// New creates a RequestContext wrapping ctx.
func New(ctx context.Context) *RequestContext {
	return &RequestContext{
		Context: ctx,
		cache:   make(map[string]cacheEntry),
	}
}

// GetOrFetch returns the cached value for key, or calls fetchFn and caches
// its result. Errors are cached too, so a missing container is reported
// once per attempt.
func GetOrFetch[T any](rc *RequestContext, key string, fetchFn func(ctx context.Context) (T, error)) (T, error) {
	if entry, ok := rc.cache[key]; ok {
		if entry.err != nil {
			var zero T
			return zero, entry.err
		}
		v, ok := entry.value.(T)
		if !ok {
			var zero T
			return zero, fmt.Errorf("%w: key %q holds %T, requested %T", ErrTypeMismatch, key, entry.value, zero)
		}
		return v, nil
	}

	val, err := fetchFn(rc.Context)
	rc.cache[key] = cacheEntry{value: val, err: err}
	return val, err
}

// Stage replaces the cached value for key with entity and queues action
// for Commit.
func (rc *RequestContext) Stage(key string, entity any, action domain.Action) error {
	if err := rc.AddAction(action); err != nil {
		return err
	}
	rc.cache[key] = cacheEntry{value: entity}
	return nil
}

// AddAction queues action for Commit without touching the cache.
func (rc *RequestContext) AddAction(action domain.Action) error {
	if action == nil {
		return ErrNilAction
	}

	rc.queueMu.Lock()
	defer rc.queueMu.Unlock()

	if rc.committed {
		return ErrAlreadyCommitted
	}
	rc.actions = append(rc.actions, action)
	return nil
}

// Staged reports how many actions are waiting for Commit.
func (rc *RequestContext) Staged() int {
	rc.queueMu.Lock()
	defer rc.queueMu.Unlock()
	return len(rc.actions)
}
