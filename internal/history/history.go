// Package history stores the append-only solve log per user plus a
// bounded recent view kept in the same record for fast reads.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"cf-coach/internal/codeforces"
	"cf-coach/internal/storage"
)

// RecentLimit bounds the materialized recent list.
const RecentLimit = 50

// Record is one solved-problem event. Immutable once appended.
type Record struct {
	ChatID    int64     `json:"chat_id"`
	ContestID int       `json:"contest_id"`
	Index     string    `json:"index"`
	Name      string    `json:"name"`
	Rating    int       `json:"rating,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	SolvedAt  time.Time `json:"solved_at"`
}

func (r Record) URL() string {
	return fmt.Sprintf("https://codeforces.com/problemset/problem/%d/%s", r.ContestID, r.Index)
}

// Log is the persisted per-user document: the full append-only list and
// the newest-first recent view, always a truncated mirror of the tail.
type Log struct {
	Records []Record `json:"records"`
	Recent  []Record `json:"recent"`
}

func NewRecord(chatID int64, p codeforces.Problem, at time.Time) Record {
	return Record{
		ChatID:    chatID,
		ContestID: p.ContestID,
		Index:     p.Index,
		Name:      p.Name,
		Rating:    p.Rating,
		Tags:      p.Tags,
		SolvedAt:  at,
	}
}

type Repo struct {
	store storage.Store
	log   *zap.Logger
}

func NewRepo(store storage.Store, log *zap.Logger) *Repo {
	return &Repo{store: store, log: log}
}

func key(chatID int64) string { return fmt.Sprintf("user_history:%d", chatID) }

// Load returns the user's log. Absence and read failure both come back
// as an empty log; failures are logged.
func (r *Repo) Load(ctx context.Context, chatID int64) *Log {
	raw, ok, err := r.store.Get(ctx, key(chatID))
	if err != nil {
		r.log.Error("history read failed", zap.Int64("chat_id", chatID), zap.Error(err))
		return &Log{}
	}
	if !ok {
		return &Log{}
	}
	var l Log
	if err := json.Unmarshal([]byte(raw), &l); err != nil {
		r.log.Error("history decode failed", zap.Int64("chat_id", chatID), zap.Error(err))
		return &Log{}
	}
	return &l
}

// Append adds rec to the log, prepends it to the recent view, truncates
// the view to RecentLimit and persists. Returns the updated log.
func (r *Repo) Append(ctx context.Context, chatID int64, rec Record) (*Log, error) {
	l := r.Load(ctx, chatID)
	l.Records = append(l.Records, rec)
	l.Recent = append([]Record{rec}, l.Recent...)
	if len(l.Recent) > RecentLimit {
		l.Recent = l.Recent[:RecentLimit]
	}
	raw, err := json.Marshal(l)
	if err != nil {
		return l, fmt.Errorf("encode history: %w", err)
	}
	if err := r.store.Put(ctx, key(chatID), string(raw)); err != nil {
		return l, fmt.Errorf("save history: %w", err)
	}
	return l, nil
}
