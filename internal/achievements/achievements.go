// Package achievements evaluates unlock predicates over a user's full
// solve log. The engine never sends messages itself: newly unlocked
// entries are returned for the caller to deliver.
package achievements

import (
	"context"
	"time"

	"go.uber.org/zap"

	"cf-coach/internal/history"
	"cf-coach/internal/user"
)

const (
	KeyFirstBlood      = "first_blood"
	KeyCenturion       = "centurion"
	KeyExpert          = "expert"
	KeyJackOfAllTrades = "jack_of_all_trades"
	KeyWeekWarrior     = "week_warrior"
	KeyDailyChampion   = "daily_champion"
)

type Achievement struct {
	Key         string
	Name        string
	Description string
	Icon        string
}

var catalog = []Achievement{
	{KeyFirstBlood, "First Blood", "Solve your first problem", "🩸"},
	{KeyCenturion, "Centurion", "Solve 100 problems", "💯"},
	{KeyExpert, "Expert", "Solve a problem rated 1600 or higher", "🧠"},
	{KeyJackOfAllTrades, "Jack of All Trades", "Solve problems across 10 different tags", "🃏"},
	{KeyWeekWarrior, "Week Warrior", "Hit your daily goal 7 days in a row", "🔥"},
	{KeyDailyChampion, "Daily Champion", "Complete a daily challenge", "🏆"},
}

// Catalog returns the fixed process-wide achievement set.
func Catalog() []Achievement {
	out := make([]Achievement, len(catalog))
	copy(out, catalog)
	return out
}

func byKey(key string) (Achievement, bool) {
	for _, a := range catalog {
		if a.Key == key {
			return a, true
		}
	}
	return Achievement{}, false
}

type Engine struct {
	users *user.Repo
	log   *zap.Logger
	now   func() time.Time
}

func NewEngine(users *user.Repo, log *zap.Logger) *Engine {
	return &Engine{users: users, log: log, now: time.Now}
}

// Evaluate recomputes the history-driven predicates against the full
// log and unlocks whatever is newly satisfied. Already-unlocked keys are
// never touched. The returned slice is the pending notification list.
func (e *Engine) Evaluate(ctx context.Context, p *user.Profile, l *history.Log) []user.UnlockedAchievement {
	var pending []user.UnlockedAchievement
	for key, satisfied := range map[string]bool{
		KeyFirstBlood:      len(l.Records) >= 1,
		KeyCenturion:       len(l.Records) >= 100,
		KeyExpert:          anyRatingAtLeast(l.Records, 1600),
		KeyJackOfAllTrades: distinctTags(l.Records) >= 10,
	} {
		if !satisfied {
			continue
		}
		if ua, newly := e.unlock(p, key); newly {
			pending = append(pending, ua)
		}
	}
	if len(pending) > 0 {
		if err := e.users.Save(ctx, p); err != nil {
			e.log.Error("failed to persist unlocks", zap.Int64("chat_id", p.ChatID), zap.Error(err))
		}
	}
	return pending
}

// Unlock force-unlocks a single achievement (streak and challenge
// milestones are decided by their trackers, not by history predicates).
// Returns ok=false when it was already unlocked.
func (e *Engine) Unlock(ctx context.Context, p *user.Profile, key string) (user.UnlockedAchievement, bool) {
	ua, newly := e.unlock(p, key)
	if !newly {
		return ua, false
	}
	if err := e.users.Save(ctx, p); err != nil {
		e.log.Error("failed to persist unlock", zap.Int64("chat_id", p.ChatID),
			zap.String("key", key), zap.Error(err))
	}
	return ua, true
}

func (e *Engine) unlock(p *user.Profile, key string) (user.UnlockedAchievement, bool) {
	if p.Unlocked(key) {
		return p.Achievements[key], false
	}
	a, ok := byKey(key)
	if !ok {
		return user.UnlockedAchievement{}, false
	}
	ua := user.UnlockedAchievement{
		Key:         a.Key,
		Name:        a.Name,
		Description: a.Description,
		Icon:        a.Icon,
		UnlockedAt:  e.now(),
	}
	if p.Achievements == nil {
		p.Achievements = make(map[string]user.UnlockedAchievement)
	}
	p.Achievements[key] = ua
	e.log.Info("achievement unlocked", zap.Int64("chat_id", p.ChatID), zap.String("key", key))
	return ua, true
}

func anyRatingAtLeast(records []history.Record, min int) bool {
	for _, r := range records {
		if r.Rating >= min {
			return true
		}
	}
	return false
}

func distinctTags(records []history.Record) int {
	seen := make(map[string]struct{})
	for _, r := range records {
		for _, t := range r.Tags {
			seen[t] = struct{}{}
		}
	}
	return len(seen)
}
