package acl

import "context"

// Name identifies the store in readiness reports.
func (c *StoreClient) Name() string {
	return "entity-store"
}

// HealthCheck fails while the client's circuit breaker is open or half-open.
// It makes no network call.
func (c *StoreClient) HealthCheck(ctx context.Context) error {
	return c.req.HealthCheck(ctx)
}
