package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"cf-coach/internal/codeforces"
)

type fakeSource struct {
	problems []codeforces.Problem
	contests []codeforces.Contest
	err      error
	calls    int
}

func (f *fakeSource) Problems(context.Context) ([]codeforces.Problem, error) {
	f.calls++
	return f.problems, f.err
}

func (f *fakeSource) Contests(context.Context) ([]codeforces.Contest, error) {
	f.calls++
	return f.contests, f.err
}

func TestFreshSnapshotSkipsRefresh(t *testing.T) {
	src := &fakeSource{problems: []codeforces.Problem{{ContestID: 1, Index: "A"}}}
	c := New(src, time.Hour, zap.NewNop())

	if got := c.Problems(context.Background()); len(got) != 1 {
		t.Fatalf("got %d problems, want 1", len(got))
	}
	if got := c.Problems(context.Background()); len(got) != 1 {
		t.Fatalf("got %d problems, want 1", len(got))
	}
	if src.calls != 1 {
		t.Fatalf("source called %d times, want 1", src.calls)
	}
}

func TestTTLExpiryTriggersRefresh(t *testing.T) {
	src := &fakeSource{problems: []codeforces.Problem{{ContestID: 1, Index: "A"}}}
	c := New(src, time.Hour, zap.NewNop())

	now := time.Now()
	c.now = func() time.Time { return now }
	c.Problems(context.Background())

	now = now.Add(2 * time.Hour)
	c.Problems(context.Background())
	if src.calls != 2 {
		t.Fatalf("source called %d times, want 2", src.calls)
	}
}

func TestServesStaleOnFailure(t *testing.T) {
	src := &fakeSource{problems: []codeforces.Problem{{ContestID: 1, Index: "A"}}}
	c := New(src, time.Hour, zap.NewNop())

	now := time.Now()
	c.now = func() time.Time { return now }
	c.Problems(context.Background())

	src.err = errors.New("network down")
	now = now.Add(2 * time.Hour)
	got := c.Problems(context.Background())
	if len(got) != 1 {
		t.Fatalf("expected stale snapshot on failure, got %d problems", len(got))
	}
}

func TestEmptyOnFirstFailure(t *testing.T) {
	src := &fakeSource{err: errors.New("boom")}
	c := New(src, time.Hour, zap.NewNop())

	if got := c.Contests(context.Background()); len(got) != 0 {
		t.Fatalf("expected empty snapshot, got %d", len(got))
	}
	// One refresh attempt per call, even while the snapshot stays stale.
	c.Contests(context.Background())
	if src.calls != 2 {
		t.Fatalf("source called %d times, want 2", src.calls)
	}
}
