package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/jsamuelsen11/collab-sync/internal/platform/config"
	"github.com/jsamuelsen11/collab-sync/internal/platform/logging"
)

// IdempotencyKeyHeader lets a write be replayed. The store applies at most
// one request per key.
const IdempotencyKeyHeader = "Idempotency-Key"

// jitter spreads each delay by up to a quarter either way.
const jitter = 0.25

type retryPolicy struct {
	attempts int
	base     time.Duration
	ceiling  time.Duration
	factor   float64
}

func newRetryPolicy(cfg config.RetryConfig) retryPolicy {
	return retryPolicy{
		attempts: cfg.MaxAttempts,
		base:     cfg.InitialInterval,
		ceiling:  cfg.MaxInterval,
		factor:   cfg.Multiplier,
	}
}

// delay returns the wait before retry n (1 is the first retry): exponential
// from base, capped at ceiling, then jittered.
func (p retryPolicy) delay(n int) time.Duration {
	d := min(float64(p.base)*math.Pow(p.factor, float64(n-1)), float64(p.ceiling))
	d += d * jitter * (2*rand.Float64() - 1)
	return time.Duration(max(d, 0))
}

// send runs the retry loop for req. The final response lands in out, not a
// return value, so the bodyclose linter follows ownership to Do's caller.
func (c *Client) send(ctx context.Context, req *http.Request, out **http.Response) error {
	if c.retry.attempts < 1 {
		return fmt.Errorf("httpclient: retry.max_attempts must be >= 1, got %d", c.retry.attempts)
	}

	body, err := snapshotBody(req)
	if err != nil {
		return err
	}

	attempts := c.retry.attempts
	if !replayable(req) {
		attempts = 1
	}

	var (
		lastErr error
		wait    time.Duration
	)
	for attempt := range attempts {
		if attempt > 0 {
			if wait == 0 {
				wait = c.retry.delay(attempt)
			}
			if err := c.pause(ctx, req, attempt, wait, lastErr); err != nil {
				return err
			}
			wait = 0
		}
		rewind(req, body)

		resp, err := c.http.Do(req)
		if err != nil {
			if !retryableErr(err) {
				return err
			}
			lastErr = err
			continue
		}
		if !retryableStatus(resp.StatusCode) {
			*out = resp
			return nil
		}

		lastErr = fmt.Errorf("%s answered %d", c.peer, resp.StatusCode)
		if attempt == attempts-1 {
			*out = resp
			return lastErr
		}
		wait = retryAfter(resp, c.retry.ceiling)
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}
	return lastErr
}

// pause logs the upcoming retry and sleeps for wait unless ctx ends first.
func (c *Client) pause(ctx context.Context, req *http.Request, attempt int, wait time.Duration, cause error) error {
	logging.FromContext(ctx).WarnContext(ctx, "retrying store request",
		slog.String("operation", "httpclient.Do"),
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
		slog.String("peer_service", c.peer),
		slog.Int("attempt", attempt+1),
		slog.Int("max_attempts", c.retry.attempts),
		slog.Duration("backoff", wait),
		slog.Any("error", cause),
	)

	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// replayable reports whether req may be sent more than once.
func replayable(req *http.Request) bool {
	switch req.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete:
		return true
	default:
		return req.Header.Get(IdempotencyKeyHeader) != ""
	}
}

// retryableErr rejects only the caller's own cancellation; every transport
// failure is worth another attempt.
func retryableErr(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// isConflictStatus reports the statuses the store uses to reject a write on
// its merits: a version mismatch, a vanished document, a failed precondition.
func isConflictStatus(code int) bool {
	return code == http.StatusConflict || code == http.StatusGone || code == http.StatusPreconditionFailed
}

// retryAfter reads a Retry-After header in seconds or HTTP-date form, capped
// at ceiling. Zero means absent or unparsable.
func retryAfter(resp *http.Response, ceiling time.Duration) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	var d time.Duration
	if secs, err := strconv.Atoi(v); err == nil {
		d = time.Duration(secs) * time.Second
	} else if at, err := http.ParseTime(v); err == nil {
		d = time.Until(at)
	}
	if d <= 0 {
		return 0
	}
	return min(d, ceiling)
}

// snapshotBody drains req.Body so rewind can replay it.
func snapshotBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	b, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("reading request body: %w", err)
	}
	return b, nil
}

func rewind(req *http.Request, body []byte) {
	if body == nil {
		return
	}
	req.Body = io.NopCloser(bytes.NewReader(body))
	req.ContentLength = int64(len(body))
}
