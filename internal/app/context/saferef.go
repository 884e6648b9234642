package appctx

import "sync"

// SafeRef guards a mutable value shared between goroutines, such as a sync
// bridge's state read by the UI while a subscription goroutine applies
// pushes. Get returns a shallow copy; values holding slices or maps should
// be copied by the caller before mutation.
type SafeRef[T any] struct {
	mu  sync.RWMutex
	val T
}

// NewRef creates a SafeRef initialized with val.
func NewRef[T any](val T) *SafeRef[T] {
	return &SafeRef[T]{val: val}
}

// Get returns a copy of the current value under a read lock.
func (r *SafeRef[T]) Get() T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.val
}

// Set replaces the current value.
func (r *SafeRef[T]) Set(val T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.val = val
}

// Update applies fn to the value under the write lock.
func (r *SafeRef[T]) Update(fn func(*T)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(&r.val)
}

// Modify applies fn under the write lock and returns its result, so a
// transition and the decision it produced are observed atomically.
func Modify[T, R any](r *SafeRef[T], fn func(*T) R) R {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(&r.val)
}
