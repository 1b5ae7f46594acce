package user

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"cf-coach/internal/selector"
	"cf-coach/internal/storage"
)

func TestRepoRoundTrip(t *testing.T) {
	repo := NewRepo(storage.NewMemory(), zap.NewNop())
	ctx := context.Background()

	if got := repo.Get(ctx, 5); got != nil {
		t.Fatalf("expected nil for absent profile, got %+v", got)
	}

	p := &Profile{
		ChatID:   5,
		Step:     StepAwaitRTTag,
		Mode:     selector.ModeRatingTag,
		Rating:   1300,
		JoinedAt: time.Now().UTC(),
	}
	if err := repo.Save(ctx, p); err != nil {
		t.Fatalf("save: %v", err)
	}

	got := repo.Get(ctx, 5)
	if got == nil || got.Step != StepAwaitRTTag || got.Mode != selector.ModeRatingTag || got.Rating != 1300 {
		t.Fatalf("round trip lost fields: %+v", got)
	}
}

func TestResetFlow(t *testing.T) {
	p := &Profile{ChatID: 1, Step: StepAwaitCount, Mode: selector.ModeRating, Rating: 1200, Tag: "dp", Index: "A"}
	p.ResetFlow()
	if p.Step != StepIdle || p.Mode != "" || p.Rating != 0 || p.Tag != "" || p.Index != "" {
		t.Fatalf("reset incomplete: %+v", p)
	}
}

func TestCorruptProfileTreatedAsAbsent(t *testing.T) {
	store := storage.NewMemory()
	repo := NewRepo(store, zap.NewNop())
	ctx := context.Background()

	store.Put(ctx, "user:9", "{not json")
	if got := repo.Get(ctx, 9); got != nil {
		t.Fatalf("corrupt record should read as absent, got %+v", got)
	}
}
