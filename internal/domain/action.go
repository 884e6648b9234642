package domain

import "context"

// Action is one staged store write. A request commits its actions in order;
// if one fails, the ones already executed are rolled back newest first.
type Action interface {
	Execute(ctx context.Context) error

	// Rollback undoes a successful Execute, typically by writing back the
	// positions captured before it ran.
	Rollback(ctx context.Context) error

	// Description names the write in logs, e.g. "move card-3 to done@0".
	Description() string
}

// WriteStager collects actions for a single commit. Stage caches entity
// under key so later reads in the same request see the pending state.
type WriteStager interface {
	Stage(key string, entity any, action Action) error
}
