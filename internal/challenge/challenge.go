// Package challenge manages the shared date-keyed daily challenge: a
// fixed problem triple plus a joinable participant roster. The record
// is created lazily on first access each day. Concurrent joins race on
// a read-modify-write of the whole record; last writer wins.
package challenge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"cf-coach/internal/codeforces"
	"cf-coach/internal/selector"
	"cf-coach/internal/storage"
)

// ProblemCount is the size of the daily problem triple.
const ProblemCount = 3

const dateLayout = "2006-01-02"

var (
	ErrAlreadyJoined = errors.New("already joined today's challenge")
	ErrNotJoined     = errors.New("not a participant of today's challenge")
	ErrNoProblems    = errors.New("no problems available for today's challenge")
)

type Participant struct {
	JoinedAt  time.Time `json:"joined_at"`
	Completed bool      `json:"completed"`
}

type Challenge struct {
	Date         string                 `json:"date"`
	Problems     []codeforces.Problem   `json:"problems"`
	Participants map[string]Participant `json:"participants"`
}

func (c *Challenge) participant(chatID int64) (Participant, bool) {
	p, ok := c.Participants[strconv.FormatInt(chatID, 10)]
	return p, ok
}

type Tracker struct {
	store     storage.Store
	log       *zap.Logger
	minRating int
	maxRating int
	now       func() time.Time
}

func NewTracker(store storage.Store, minRating, maxRating int, log *zap.Logger) *Tracker {
	return &Tracker{store: store, log: log, minRating: minRating, maxRating: maxRating, now: time.Now}
}

func key(date string) string { return "challenge:" + date }

// Ensure returns today's challenge, creating it from the catalog when
// absent. The triple is picked in random mode within the tracker's
// rating band.
func (t *Tracker) Ensure(ctx context.Context, catalog []codeforces.Problem) (*Challenge, error) {
	date := t.now().UTC().Format(dateLayout)
	if c := t.get(ctx, date); c != nil {
		return c, nil
	}

	picked := selector.Filter(catalog, selector.ModeRandom,
		selector.Params{MinRating: t.minRating, MaxRating: t.maxRating}, ProblemCount)
	if len(picked) == 0 {
		return nil, ErrNoProblems
	}
	c := &Challenge{
		Date:         date,
		Problems:     picked,
		Participants: make(map[string]Participant),
	}
	if err := t.save(ctx, c); err != nil {
		return nil, err
	}
	t.log.Info("daily challenge created", zap.String("date", date), zap.Int("problems", len(picked)))
	return c, nil
}

// Join adds the user to today's roster. A repeat join is rejected.
func (t *Tracker) Join(ctx context.Context, chatID int64, catalog []codeforces.Problem) (*Challenge, error) {
	c, err := t.Ensure(ctx, catalog)
	if err != nil {
		return nil, err
	}
	if _, ok := c.participant(chatID); ok {
		return c, ErrAlreadyJoined
	}
	c.Participants[strconv.FormatInt(chatID, 10)] = Participant{JoinedAt: t.now()}
	return c, t.save(ctx, c)
}

// Complete marks the participant done. Returns newly=false when the
// flag was already set.
func (t *Tracker) Complete(ctx context.Context, chatID int64) (c *Challenge, newly bool, err error) {
	date := t.now().UTC().Format(dateLayout)
	c = t.get(ctx, date)
	if c == nil {
		return nil, false, ErrNotJoined
	}
	p, ok := c.participant(chatID)
	if !ok {
		return c, false, ErrNotJoined
	}
	if p.Completed {
		return c, false, nil
	}
	p.Completed = true
	c.Participants[strconv.FormatInt(chatID, 10)] = p
	return c, true, t.save(ctx, c)
}

func (t *Tracker) get(ctx context.Context, date string) *Challenge {
	raw, ok, err := t.store.Get(ctx, key(date))
	if err != nil {
		t.log.Error("challenge read failed", zap.String("date", date), zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	var c Challenge
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		t.log.Error("challenge decode failed", zap.String("date", date), zap.Error(err))
		return nil
	}
	return &c
}

func (t *Tracker) save(ctx context.Context, c *Challenge) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode challenge: %w", err)
	}
	if err := t.store.Put(ctx, key(c.Date), string(raw)); err != nil {
		return fmt.Errorf("save challenge: %w", err)
	}
	return nil
}
