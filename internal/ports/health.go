package ports

import "context"

// HealthChecker is a dependency readiness depends on: the store driver, the
// presence bus, or the HTTP store's circuit breaker.
type HealthChecker interface {
	// Name keys the checker in the readiness report, e.g. "entity-store".
	Name() string

	// HealthCheck returns nil when the dependency can serve. It must return
	// once ctx is done.
	HealthCheck(ctx context.Context) error
}

// HealthRegistry runs every registered checker for the readiness check.
type HealthRegistry interface {
	Register(checker HealthChecker)

	// CheckAll returns one entry per checker name; nil means healthy.
	CheckAll(ctx context.Context) map[string]error
}
