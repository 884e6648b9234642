package fanout_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jsamuelsen11/collab-sync/internal/app/fanout"
)

var errSendBufferFull = errors.New("send buffer full")

// conn stands in for a room member's socket.
type conn struct {
	id    string
	delay time.Duration
	full  bool
}

func (c conn) send(ctx context.Context, frame string) (string, error) {
	if c.full {
		return "", errSendBufferFull
	}
	select {
	case <-time.After(c.delay):
		return c.id + "<-" + frame, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestRun(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		workers int
		conns   []conn
		want    []string
		wantErr []error
	}{
		{name: "no members", workers: 4},
		{
			name:    "order follows input, not completion",
			workers: 3,
			conns:   []conn{{id: "c1", delay: 30 * time.Millisecond}, {id: "c2", delay: 10 * time.Millisecond}, {id: "c3"}},
			want:    []string{"c1<-f", "c2<-f", "c3<-f"},
			wantErr: []error{nil, nil, nil},
		},
		{
			name:    "one slow consumer fails alone",
			workers: 2,
			conns:   []conn{{id: "c1"}, {id: "c2", full: true}, {id: "c3"}},
			want:    []string{"c1<-f", "", "c3<-f"},
			wantErr: []error{nil, errSendBufferFull, nil},
		},
		{
			name:    "workers below one run serially",
			workers: 0,
			conns:   []conn{{id: "c1"}, {id: "c2"}},
			want:    []string{"c1<-f", "c2<-f"},
			wantErr: []error{nil, nil},
		},
		{
			name:    "more workers than members",
			workers: 100,
			conns:   []conn{{id: "c1"}},
			want:    []string{"c1<-f"},
			wantErr: []error{nil},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			results := fanout.Run(context.Background(), tt.workers, tt.conns, func(ctx context.Context, c conn) (string, error) {
				return c.send(ctx, "f")
			})

			if results == nil {
				t.Fatal("Run() = nil, want non-nil slice")
			}
			if len(results) != len(tt.conns) {
				t.Fatalf("len(results) = %d, want %d", len(results), len(tt.conns))
			}
			for i, r := range results {
				if r.Value != tt.want[i] || !errors.Is(r.Err, tt.wantErr[i]) {
					t.Errorf("results[%d] = {%q, %v}, want {%q, %v}", i, r.Value, r.Err, tt.want[i], tt.wantErr[i])
				}
			}
		})
	}
}

func TestRun_BoundsConcurrency(t *testing.T) {
	t.Parallel()

	const workers = 3
	var active, peak atomic.Int32

	members := make([]int, 15)
	fanout.Run(context.Background(), workers, members, func(context.Context, int) (struct{}, error) {
		cur := active.Add(1)
		defer active.Add(-1)
		for p := peak.Load(); cur > p && !peak.CompareAndSwap(p, cur); p = peak.Load() {
		}
		time.Sleep(5 * time.Millisecond)
		return struct{}{}, nil
	})

	if p := peak.Load(); p > workers {
		t.Errorf("peak concurrency = %d, want <= %d", p, workers)
	}
}

func TestRun_CancelSkipsPendingMembers(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu     sync.Mutex
		called []int
	)
	results := fanout.Run(ctx, 1, []int{0, 1, 2, 3}, func(_ context.Context, n int) (int, error) {
		mu.Lock()
		called = append(called, n)
		mu.Unlock()
		if n == 0 {
			cancel()
		}
		return n, nil
	})

	if results[0].Err != nil {
		t.Errorf("results[0].Err = %v, want nil for the member already running", results[0].Err)
	}
	for i := 1; i < len(results); i++ {
		if !errors.Is(results[i].Err, context.Canceled) {
			t.Errorf("results[%d].Err = %v, want context.Canceled", i, results[i].Err)
		}
	}
	if !slices.Equal(called, []int{0}) {
		t.Errorf("called = %v, want [0]", called)
	}
}

func TestDeliver(t *testing.T) {
	t.Parallel()

	members := []conn{{id: "c1"}, {id: "c2", full: true}, {id: "c3"}, {id: "c4", full: true}}

	failed := fanout.Deliver(context.Background(), 2, members, func(ctx context.Context, c conn) error {
		_, err := c.send(ctx, "presence:update")
		return err
	})

	ids := make([]string, 0, len(failed))
	for _, c := range failed {
		ids = append(ids, c.id)
	}
	if fmt.Sprint(ids) != "[c2 c4]" {
		t.Errorf("failed = %v, want [c2 c4]", ids)
	}

	if got := fanout.Deliver(context.Background(), 2, members[:1], func(ctx context.Context, c conn) error {
		_, err := c.send(ctx, "room:users")
		return err
	}); got != nil {
		t.Errorf("Deliver() = %v, want nil when every send succeeds", got)
	}
}
