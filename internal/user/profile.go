// Package user holds the per-chat profile: the multi-turn conversation
// position, in-progress filter values and unlocked achievements.
package user

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"cf-coach/internal/selector"
	"cf-coach/internal/storage"
)

// Step is the user's position in the input-collection flow. The empty
// step means idle.
type Step string

const (
	StepIdle          Step = ""
	StepAwaitRating   Step = "await_rating"
	StepAwaitTag      Step = "await_tag"
	StepAwaitIndex    Step = "await_index"
	StepAwaitRTRating Step = "await_rating_tag_rating"
	StepAwaitRTTag    Step = "await_rating_tag_tag"
	StepAwaitCount    Step = "await_count"
	StepAwaitGoal     Step = "await_goal"
)

// UnlockedAchievement is a permanent per-user copy of a catalog entry
// plus the unlock time. Written once, never removed.
type UnlockedAchievement struct {
	Key         string    `json:"key"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	UnlockedAt  time.Time `json:"unlocked_at"`
}

type Profile struct {
	ChatID       int64                          `json:"chat_id"`
	Step         Step                           `json:"step,omitempty"`
	Mode         selector.Mode                  `json:"mode,omitempty"`
	Rating       int                            `json:"rating,omitempty"`
	Tag          string                         `json:"tag,omitempty"`
	Index        string                         `json:"index,omitempty"`
	JoinedAt     time.Time                      `json:"joined_at"`
	Achievements map[string]UnlockedAchievement `json:"achievements,omitempty"`
}

// ResetFlow clears the conversation step and all in-progress filters.
func (p *Profile) ResetFlow() {
	p.Step = StepIdle
	p.Mode = ""
	p.Rating = 0
	p.Tag = ""
	p.Index = ""
}

func (p *Profile) Unlocked(key string) bool {
	_, ok := p.Achievements[key]
	return ok
}

type Repo struct {
	store storage.Store
	log   *zap.Logger
}

func NewRepo(store storage.Store, log *zap.Logger) *Repo {
	return &Repo{store: store, log: log}
}

func key(chatID int64) string { return fmt.Sprintf("user:%d", chatID) }

// Get returns the stored profile, or nil when absent. Read failures are
// logged and reported as absent.
func (r *Repo) Get(ctx context.Context, chatID int64) *Profile {
	raw, ok, err := r.store.Get(ctx, key(chatID))
	if err != nil {
		r.log.Error("profile read failed", zap.Int64("chat_id", chatID), zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	var p Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		r.log.Error("profile decode failed", zap.Int64("chat_id", chatID), zap.Error(err))
		return nil
	}
	return &p
}

func (r *Repo) Save(ctx context.Context, p *Profile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := r.store.Put(ctx, key(p.ChatID), string(raw)); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}
