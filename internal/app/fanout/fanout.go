// Package fanout runs a function across a slice of items with bounded
// concurrency, preserving input order in results. The gateway uses it to
// deliver one encoded frame to every local connection in a room.
package fanout

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Result holds the outcome of processing a single item.
// Either Value is populated (on success) or Err is non-nil (on failure).
type Result[R any] struct {
	Value R
	Err   error
}

// Run executes fn for each item in items using at most maxWorkers concurrent
// goroutines. Results are returned in the same order as the input items.
//
// Items that have not started when ctx is canceled record ctx.Err() and fn
// is not called for them. Items already running complete normally; fn is
// responsible for observing ctx.
//
// Run blocks until all started work completes. If items is empty, it returns
// an empty non-nil slice immediately. A maxWorkers below 1 is treated as 1.
func Run[T, R any](ctx context.Context, maxWorkers int, items []T, fn func(context.Context, T) (R, error)) []Result[R] {
	if len(items) == 0 {
		return []Result[R]{}
	}
	if maxWorkers < 1 {
		maxWorkers = 1
	}

	results := make([]Result[R], len(items))

	var g errgroup.Group
	g.SetLimit(maxWorkers)

	for i, item := range items {
		// Go blocks while the group is at its limit, so the check below sees
		// cancellations that happened while this item was waiting.
		if err := ctx.Err(); err != nil {
			results[i] = Result[R]{Err: err}
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = Result[R]{Err: err}
				return nil
			}
			val, err := fn(ctx, item)
			results[i] = Result[R]{Value: val, Err: err}
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// Deliver executes fn for each item like Run and returns the items whose call
// failed, in input order. A nil slice means every delivery succeeded.
func Deliver[T any](ctx context.Context, maxWorkers int, items []T, fn func(context.Context, T) error) []T {
	results := Run(ctx, maxWorkers, items, func(ctx context.Context, it T) (struct{}, error) {
		return struct{}{}, fn(ctx, it)
	})

	var failed []T
	for i, r := range results {
		if r.Err != nil {
			failed = append(failed, items[i])
		}
	}
	return failed
}
