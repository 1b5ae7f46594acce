// Package goals tracks the daily solve target and streak. Today's count
// is always recomputed from the solve log; the streak is credited at
// most once per calendar day, guarded by LastCredited.
package goals

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"cf-coach/internal/history"
	"cf-coach/internal/storage"
)

// WeekStreak is the streak length that counts as a week of hit goals.
const WeekStreak = 7

const dateLayout = "2006-01-02"

type Goal struct {
	Target    int    `json:"target"`
	StartDate string `json:"start_date"`
	Current   int    `json:"current"`
	Streak    int    `json:"streak"`
	// LastCredited is the calendar day that last incremented the
	// streak, preventing double credit within one day.
	LastCredited string `json:"last_credited,omitempty"`
}

// Progress is the result of one progress check.
type Progress struct {
	Goal      Goal
	Completed bool
	// NewlyCredited is true only on the first check of a day where the
	// target is met.
	NewlyCredited bool
}

func (p Progress) Percent() int {
	if p.Goal.Target <= 0 {
		return 0
	}
	pct := p.Goal.Current * 100 / p.Goal.Target
	if pct > 100 {
		pct = 100
	}
	return pct
}

type Tracker struct {
	store storage.Store
	log   *zap.Logger
	now   func() time.Time
}

func NewTracker(store storage.Store, log *zap.Logger) *Tracker {
	return &Tracker{store: store, log: log, now: time.Now}
}

// SetClock overrides the tracker's time source. Tests use it to walk
// across calendar days.
func (t *Tracker) SetClock(now func() time.Time) { t.now = now }

func key(chatID int64) string { return fmt.Sprintf("goal:%d", chatID) }

// Get returns the stored goal, or nil when none is set. Read failures
// are logged and reported as absent.
func (t *Tracker) Get(ctx context.Context, chatID int64) *Goal {
	raw, ok, err := t.store.Get(ctx, key(chatID))
	if err != nil {
		t.log.Error("goal read failed", zap.Int64("chat_id", chatID), zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	var g Goal
	if err := json.Unmarshal([]byte(raw), &g); err != nil {
		t.log.Error("goal decode failed", zap.Int64("chat_id", chatID), zap.Error(err))
		return nil
	}
	return &g
}

// Set overwrites the target and restarts the day counter. An existing
// streak survives target changes.
func (t *Tracker) Set(ctx context.Context, chatID int64, target int) (*Goal, error) {
	g := t.Get(ctx, chatID)
	if g == nil {
		g = &Goal{}
	}
	g.Target = target
	g.StartDate = t.now().UTC().Format(dateLayout)
	g.Current = 0
	return g, t.save(ctx, chatID, g)
}

// Check recomputes today's count from the solve log and credits the
// streak when the target is met for the first time today.
func (t *Tracker) Check(ctx context.Context, chatID int64, l *history.Log) *Progress {
	g := t.Get(ctx, chatID)
	if g == nil {
		return nil
	}

	today := t.now().UTC().Format(dateLayout)
	g.Current = 0
	for _, rec := range l.Records {
		if rec.SolvedAt.UTC().Format(dateLayout) == today {
			g.Current++
		}
	}

	p := &Progress{Completed: g.Current >= g.Target && g.Target > 0}
	if p.Completed && g.LastCredited != today {
		g.Streak++
		g.LastCredited = today
		p.NewlyCredited = true
	}
	if err := t.save(ctx, chatID, g); err != nil {
		t.log.Error("goal save failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	p.Goal = *g
	return p
}

func (t *Tracker) save(ctx context.Context, chatID int64, g *Goal) error {
	raw, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("encode goal: %w", err)
	}
	if err := t.store.Put(ctx, key(chatID), string(raw)); err != nil {
		return fmt.Errorf("save goal: %w", err)
	}
	return nil
}
