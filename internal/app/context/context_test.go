package appctx

import (
	"context"
	"errors"
	"slices"
	"testing"
)

// testAction records its calls into a shared log.
type testAction struct {
	desc        string
	executeErr  error
	rollbackErr error
	rolledBack  bool
	log         *[]string
}

func (a *testAction) Execute(context.Context) error {
	if a.executeErr != nil {
		return a.executeErr
	}
	if a.log != nil {
		*a.log = append(*a.log, "execute:"+a.desc)
	}
	return nil
}

func (a *testAction) Rollback(context.Context) error {
	a.rolledBack = true
	if a.log != nil {
		*a.log = append(*a.log, "rollback:"+a.desc)
	}
	return a.rollbackErr
}

func (a *testAction) Description() string { return a.desc }

func TestGetOrFetch_Memoizes(t *testing.T) {
	t.Parallel()
	rc := New(context.Background())
	calls := 0

	fetch := func(context.Context) (int64, error) {
		calls++
		return 7, nil
	}

	for range 3 {
		v, err := GetOrFetch(rc, "container:todo", fetch)
		if err != nil {
			t.Fatalf("GetOrFetch() error = %v", err)
		}
		if v != 7 {
			t.Fatalf("GetOrFetch() = %d, want 7", v)
		}
	}
	if calls != 1 {
		t.Errorf("fetch called %d times, want 1", calls)
	}
}

func TestGetOrFetch_CachesErrors(t *testing.T) {
	t.Parallel()
	rc := New(context.Background())
	calls := 0
	fetchErr := errors.New("container gone")

	fetch := func(context.Context) (string, error) {
		calls++
		return "", fetchErr
	}

	_, _ = GetOrFetch(rc, "container:x", fetch)
	_, err := GetOrFetch(rc, "container:x", fetch)

	if !errors.Is(err, fetchErr) {
		t.Errorf("GetOrFetch() error = %v, want %v", err, fetchErr)
	}
	if calls != 1 {
		t.Errorf("fetch called %d times, want 1", calls)
	}
}

func TestGetOrFetch_TypeMismatch(t *testing.T) {
	t.Parallel()
	rc := New(context.Background())

	_, _ = GetOrFetch(rc, "k", func(context.Context) (int, error) { return 1, nil })
	_, err := GetOrFetch(rc, "k", func(context.Context) (string, error) { return "x", nil })

	if !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("GetOrFetch() error = %v, want ErrTypeMismatch", err)
	}
}

func TestStage_ReadYourWrites(t *testing.T) {
	t.Parallel()
	rc := New(context.Background())

	_, _ = GetOrFetch(rc, "container:todo", func(context.Context) (string, error) { return "before", nil })
	if err := rc.Stage("container:todo", "after", &testAction{desc: "apply"}); err != nil {
		t.Fatalf("Stage() error = %v", err)
	}

	got, err := GetOrFetch(rc, "container:todo", func(context.Context) (string, error) {
		t.Fatal("fetch called for staged key")
		return "", nil
	})
	if err != nil {
		t.Fatalf("GetOrFetch() error = %v", err)
	}
	if got != "after" {
		t.Errorf("GetOrFetch() = %q, want staged %q", got, "after")
	}
	if rc.Staged() != 1 {
		t.Errorf("Staged() = %d, want 1", rc.Staged())
	}
}

func TestStage_Errors(t *testing.T) {
	t.Parallel()
	rc := New(context.Background())

	if err := rc.Stage("k", 1, nil); !errors.Is(err, ErrNilAction) {
		t.Errorf("Stage(nil) error = %v, want ErrNilAction", err)
	}

	_ = rc.Commit(context.Background())

	if err := rc.Stage("k", 1, &testAction{desc: "late"}); !errors.Is(err, ErrAlreadyCommitted) {
		t.Errorf("Stage() after commit error = %v, want ErrAlreadyCommitted", err)
	}
	if err := rc.AddAction(&testAction{desc: "late"}); !errors.Is(err, ErrAlreadyCommitted) {
		t.Errorf("AddAction() after commit error = %v, want ErrAlreadyCommitted", err)
	}
	if err := rc.Commit(context.Background()); !errors.Is(err, ErrAlreadyCommitted) {
		t.Errorf("second Commit() error = %v, want ErrAlreadyCommitted", err)
	}
}

func TestCommit_Success(t *testing.T) {
	t.Parallel()
	rc := New(context.Background())
	var log []string

	for _, d := range []string{"apply", "verify", "notify"} {
		_ = rc.AddAction(&testAction{desc: d, log: &log})
	}

	if err := rc.Commit(context.Background()); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	want := []string{"execute:apply", "execute:verify", "execute:notify"}
	if !slices.Equal(log, want) {
		t.Errorf("log = %v, want %v", log, want)
	}
}

func TestCommit_FailureRollsBackInReverse(t *testing.T) {
	t.Parallel()
	rc := New(context.Background())
	var log []string

	a := &testAction{desc: "a", log: &log}
	b := &testAction{desc: "b", log: &log, rollbackErr: errors.New("inverse conflicted")}
	c := &testAction{desc: "c", log: &log}
	d := &testAction{desc: "verify", log: &log, executeErr: errors.New("gap at 3")}
	for _, act := range []*testAction{a, b, c, d} {
		_ = rc.AddAction(act)
	}

	err := rc.Commit(context.Background())
	if err == nil {
		t.Fatal("Commit() error = nil, want error")
	}
	if got, want := err.Error(), "executing verify: gap at 3"; got != want {
		t.Errorf("Commit() error = %q, want %q", got, want)
	}

	want := []string{
		"execute:a", "execute:b", "execute:c",
		"rollback:c", "rollback:b", "rollback:a",
	}
	if !slices.Equal(log, want) {
		t.Errorf("log = %v, want %v", log, want)
	}
	if d.rolledBack {
		t.Error("failing action was rolled back, want only earlier actions")
	}
}

func TestCommit_FirstActionFailureHasNothingToUndo(t *testing.T) {
	t.Parallel()
	rc := New(context.Background())
	a := &testAction{desc: "apply", executeErr: errors.New("version conflict")}
	_ = rc.AddAction(a)

	if err := rc.Commit(context.Background()); err == nil {
		t.Fatal("Commit() error = nil, want error")
	}
	if a.rolledBack {
		t.Error("failed action was rolled back")
	}
	if !rc.committed {
		t.Error("committed = false after failed commit, want true")
	}
}
