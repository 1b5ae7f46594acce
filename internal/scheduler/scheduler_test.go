package scheduler

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

func TestStartRegistersJobs(t *testing.T) {
	s := New(zap.NewNop())
	s.SetWarmFunction(func(context.Context) {})
	s.SetPrepareFunction(func(context.Context) error { return nil })

	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	if got := len(s.cron.Entries()); got != 2 {
		t.Fatalf("registered %d jobs, want 2", got)
	}
}

func TestStartWithoutJobs(t *testing.T) {
	s := New(zap.NewNop())
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	s.Stop()
}
