package achievements

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cf-coach/internal/history"
	"cf-coach/internal/storage"
	"cf-coach/internal/user"
)

func newEngine(t *testing.T) (*Engine, *user.Repo) {
	t.Helper()
	users := user.NewRepo(storage.NewMemory(), zap.NewNop())
	return NewEngine(users, zap.NewNop()), users
}

func logOf(n int, rating int, tags ...string) *history.Log {
	l := &history.Log{}
	for i := 0; i < n; i++ {
		l.Records = append(l.Records, history.Record{
			ChatID:    1,
			ContestID: i + 1,
			Index:     "A",
			Rating:    rating,
			Tags:      tags,
			SolvedAt:  time.Now(),
		})
	}
	return l
}

func TestFirstBlood(t *testing.T) {
	e, _ := newEngine(t)
	p := &user.Profile{ChatID: 1}

	pending := e.Evaluate(context.Background(), p, logOf(1, 1000, "math"))
	require.Len(t, pending, 1)
	assert.Equal(t, KeyFirstBlood, pending[0].Key)
	assert.True(t, p.Unlocked(KeyFirstBlood))
}

func TestEvaluateIsIdempotent(t *testing.T) {
	e, _ := newEngine(t)
	p := &user.Profile{ChatID: 1}
	l := logOf(1, 1000, "math")

	first := e.Evaluate(context.Background(), p, l)
	require.NotEmpty(t, first)
	second := e.Evaluate(context.Background(), p, l)
	assert.Empty(t, second, "unchanged history must unlock nothing on re-evaluation")
}

func TestCenturionBoundary(t *testing.T) {
	e, _ := newEngine(t)

	p99 := &user.Profile{ChatID: 1}
	e.Evaluate(context.Background(), p99, logOf(99, 1000, "math"))
	assert.False(t, p99.Unlocked(KeyCenturion), "99 solves must not unlock centurion")

	p100 := &user.Profile{ChatID: 2}
	pending := e.Evaluate(context.Background(), p100, logOf(100, 1000, "math"))
	assert.True(t, p100.Unlocked(KeyCenturion))
	count := 0
	for _, ua := range pending {
		if ua.Key == KeyCenturion {
			count++
		}
	}
	assert.Equal(t, 1, count, "centurion must be unlocked exactly once")
}

func TestExpertNeedsRating1600(t *testing.T) {
	e, _ := newEngine(t)
	p := &user.Profile{ChatID: 1}

	e.Evaluate(context.Background(), p, logOf(5, 1599, "dp"))
	assert.False(t, p.Unlocked(KeyExpert))

	e.Evaluate(context.Background(), p, logOf(6, 1600, "dp"))
	assert.True(t, p.Unlocked(KeyExpert))
}

func TestJackOfAllTrades(t *testing.T) {
	e, _ := newEngine(t)
	p := &user.Profile{ChatID: 1}

	l := &history.Log{}
	for i := 0; i < 10; i++ {
		l.Records = append(l.Records, history.Record{
			ContestID: i + 1, Index: "A", Tags: []string{fmt.Sprintf("tag%d", i)},
		})
	}
	l.Records = l.Records[:9]
	e.Evaluate(context.Background(), p, l)
	assert.False(t, p.Unlocked(KeyJackOfAllTrades), "9 tags is not enough")

	l.Records = append(l.Records, history.Record{ContestID: 10, Index: "A", Tags: []string{"tag9"}})
	e.Evaluate(context.Background(), p, l)
	assert.True(t, p.Unlocked(KeyJackOfAllTrades))
}

func TestUnlockPersistsProfile(t *testing.T) {
	e, users := newEngine(t)
	p := &user.Profile{ChatID: 42}
	require.NoError(t, users.Save(context.Background(), p))

	_, newly := e.Unlock(context.Background(), p, KeyWeekWarrior)
	require.True(t, newly)
	_, again := e.Unlock(context.Background(), p, KeyWeekWarrior)
	assert.False(t, again, "second unlock must be a no-op")

	stored := users.Get(context.Background(), 42)
	require.NotNil(t, stored)
	assert.True(t, stored.Unlocked(KeyWeekWarrior))
}
