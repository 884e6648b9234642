package roomqueue_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jsamuelsen11/collab-sync/internal/app/roomqueue"
)

func TestSubmit_SerializesPerKey(t *testing.T) {
	t.Parallel()

	q := roomqueue.New(0)

	var executing atomic.Int32
	var overlap atomic.Bool
	var mu sync.Mutex
	var order []int

	for i := range 50 {
		err := q.Submit("room-1", func() {
			if executing.Add(1) != 1 {
				overlap.Store(true)
			}
			time.Sleep(100 * time.Microsecond)
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			executing.Add(-1)
		})
		if err != nil {
			t.Fatalf("Submit(%d) error = %v", i, err)
		}
	}

	q.Close()

	if overlap.Load() {
		t.Error("tasks for the same key overlapped")
	}
	if len(order) != 50 {
		t.Fatalf("ran %d tasks, want 50", len(order))
	}
	for i, got := range order {
		if got != i {
			t.Fatalf("order[%d] = %d, want %d", i, got, i)
		}
	}
}

func TestSubmit_KeysRunInParallel(t *testing.T) {
	t.Parallel()

	q := roomqueue.New(0)
	defer q.Close()

	release := make(chan struct{})
	done := make(chan struct{})

	if err := q.Submit("room-a", func() { <-release }); err != nil {
		t.Fatalf("Submit(room-a) error = %v", err)
	}
	if err := q.Submit("room-b", func() { close(done) }); err != nil {
		t.Fatalf("Submit(room-b) error = %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("room-b task blocked behind room-a")
	}
	close(release)
}

func TestSubmit_Backlog(t *testing.T) {
	t.Parallel()

	q := roomqueue.New(2)
	release := make(chan struct{})
	started := make(chan struct{})

	if err := q.Submit("room", func() { close(started); <-release }); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	<-started

	for i := range 2 {
		if err := q.Submit("room", func() {}); err != nil {
			t.Fatalf("Submit(%d) error = %v", i, err)
		}
	}
	if got := q.Pending("room"); got != 2 {
		t.Errorf("Pending() = %d, want 2", got)
	}

	err := q.Submit("room", func() {})
	if !errors.Is(err, roomqueue.ErrBacklog) {
		t.Errorf("Submit() error = %v, want ErrBacklog", err)
	}

	close(release)
	q.Close()

	if got := q.Pending("room"); got != 0 {
		t.Errorf("Pending() after Close = %d, want 0", got)
	}
}

func TestSubmit_AfterClose(t *testing.T) {
	t.Parallel()

	q := roomqueue.New(4)
	q.Close()

	if err := q.Submit("room", func() {}); !errors.Is(err, roomqueue.ErrClosed) {
		t.Errorf("Submit() error = %v, want ErrClosed", err)
	}
}

func TestSubmit_RecoversPanic(t *testing.T) {
	t.Parallel()

	q := roomqueue.New(4)

	var ran atomic.Bool
	if err := q.Submit("room", func() { panic("boom") }); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if err := q.Submit("room", func() { ran.Store(true) }); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	q.Close()

	if !ran.Load() {
		t.Error("task after a panicking task did not run")
	}
}
