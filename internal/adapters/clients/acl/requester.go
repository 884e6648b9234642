package acl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/oklog/ulid/v2"

	"github.com/jsamuelsen11/collab-sync/internal/platform/httpclient"
)

// call describes one store round trip. want is the only status treated as
// success; anything else goes through TranslateHTTPError.
type call struct {
	method string
	path   string
	want   int
	in     any // JSON request body, nil for none
	out    any // decoded from a successful response, nil to discard
}

// Requester runs calls against the store through an httpclient.Client.
// POST calls get a fresh ULID Idempotency-Key so the client may replay them
// after a transient failure; the key stays the same across replays.
type Requester struct {
	client *httpclient.Client
	logger *slog.Logger
}

// NewRequester returns a Requester sending through client.
func NewRequester(client *httpclient.Client, logger *slog.Logger) *Requester {
	return &Requester{client: client, logger: logger}
}

// HealthCheck reports the client's breaker state.
func (r *Requester) HealthCheck(ctx context.Context) error {
	return r.client.HealthCheck(ctx)
}

func (r *Requester) do(ctx context.Context, c call) error {
	req, err := r.build(ctx, c)
	if err != nil {
		return err
	}

	resp, err := r.client.Do(ctx, req)
	if resp != nil {
		defer r.drain(ctx, resp)
	}
	switch {
	case resp != nil && resp.StatusCode != c.want:
		// Retries exhausted on a 5xx also land here, with err set; the
		// store's own answer says more than the retry error.
		r.logger.WarnContext(ctx, "store rejected request",
			slog.String("method", c.method),
			slog.String("path", c.path),
			slog.Int("status", resp.StatusCode),
		)
		return TranslateHTTPError(resp)
	case err != nil:
		r.logger.ErrorContext(ctx, "store request failed",
			slog.String("method", c.method),
			slog.String("path", c.path),
			slog.Any("error", err),
		)
		return fmt.Errorf("%s %s: %w", c.method, c.path, err)
	case c.out == nil:
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(c.out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", c.method, c.path, err)
	}
	return nil
}

func (r *Requester) build(ctx context.Context, c call) (*http.Request, error) {
	var body io.Reader = http.NoBody
	if c.in != nil {
		b, err := json.Marshal(c.in)
		if err != nil {
			return nil, fmt.Errorf("encoding %s %s body: %w", c.method, c.path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, c.method, r.client.BaseURL()+c.path, body)
	if err != nil {
		return nil, fmt.Errorf("building %s %s: %w", c.method, c.path, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.method == http.MethodPost {
		req.Header.Set(httpclient.IdempotencyKeyHeader, ulid.Make().String())
	}
	return req, nil
}

// drain discards what is left of the body so the connection can be reused.
func (r *Requester) drain(ctx context.Context, resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodySize))
	if err := resp.Body.Close(); err != nil {
		r.logger.DebugContext(ctx, "closing store response body", slog.Any("error", err))
	}
}
