package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"cf-coach/internal/achievements"
	"cf-coach/internal/cache"
	"cf-coach/internal/challenge"
	"cf-coach/internal/conversation"
	"cf-coach/internal/goals"
	"cf-coach/internal/history"
	"cf-coach/internal/selector"
	"cf-coach/internal/user"
)

// Dispatcher routes one inbound event to a handler and converts every
// failure into a degraded response. Nothing escapes it.
type Dispatcher struct {
	sender     Sender
	catalogs   *cache.Cache
	users      *user.Repo
	histories  *history.Repo
	engine     *achievements.Engine
	goals      *goals.Tracker
	challenges *challenge.Tracker
	log        *zap.Logger
	now        func() time.Time
}

func NewDispatcher(
	sender Sender,
	catalogs *cache.Cache,
	users *user.Repo,
	histories *history.Repo,
	engine *achievements.Engine,
	goalTracker *goals.Tracker,
	challenges *challenge.Tracker,
	log *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		sender:     sender,
		catalogs:   catalogs,
		users:      users,
		histories:  histories,
		engine:     engine,
		goals:      goalTracker,
		challenges: challenges,
		log:        log,
		now:        time.Now,
	}
}

// HandleUpdate processes one inbound event end to end.
func (d *Dispatcher) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	log := d.log.With(zap.String("event_id", uuid.NewString()))
	defer func() {
		if r := recover(); r != nil {
			log.Error("panic while handling update", zap.Any("panic", r))
		}
	}()

	switch {
	case upd.Message != nil:
		d.handleMessage(ctx, log, upd.Message)
	case upd.CallbackQuery != nil:
		d.handleCallback(ctx, log, upd.CallbackQuery)
	default:
		// Malformed or unsupported event kinds are acknowledged as
		// no-ops upstream; nothing to do here.
	}
}

func (d *Dispatcher) handleMessage(ctx context.Context, log *zap.Logger, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)
	log = log.With(zap.Int64("chat_id", chatID))
	log.Info("incoming message", zap.String("text", text))

	p := d.users.Get(ctx, chatID)
	if p == nil {
		// First contact: create the profile and show the menu.
		p = &user.Profile{ChatID: chatID, JoinedAt: d.now()}
		d.saveProfile(ctx, log, p)
		d.showMenu(chatID)
		return
	}

	if strings.HasPrefix(text, "/") {
		d.handleCommand(ctx, log, p, text)
		return
	}

	eff := conversation.Advance(p, text)
	d.applyEffect(ctx, log, p, eff)
}

func (d *Dispatcher) handleCallback(ctx context.Context, log *zap.Logger, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	log = log.With(zap.Int64("chat_id", chatID))
	log.Info("incoming callback", zap.String("data", cb.Data))

	p := d.users.Get(ctx, chatID)
	if p == nil {
		// First contact can happen through a callback too; the profile
		// is persisted before any branch so JoinedAt survives.
		p = &user.Profile{ChatID: chatID, JoinedAt: d.now()}
		d.saveProfile(ctx, log, p)
	}

	switch cb.Data {
	case cbModeRating, cbModeTag, cbModeIndex, cbModeRatingTag, cbModeRandom, cbModeRecent:
		eff := conversation.Begin(p, callbackMode(cb.Data))
		d.saveProfile(ctx, log, p)
		d.send(log, Outgoing{ChatID: chatID, Text: eff.Reply})
	case cbChallengeDone:
		d.completeChallenge(ctx, log, p)
	default:
		log.Warn("unknown callback", zap.String("data", cb.Data))
	}
}

func callbackMode(data string) selector.Mode {
	switch data {
	case cbModeRating:
		return selector.ModeRating
	case cbModeTag:
		return selector.ModeTag
	case cbModeIndex:
		return selector.ModeIndex
	case cbModeRatingTag:
		return selector.ModeRatingTag
	case cbModeRandom:
		return selector.ModeRandom
	case cbModeRecent:
		return selector.ModeRecentContest
	default:
		return ""
	}
}

func (d *Dispatcher) handleCommand(ctx context.Context, log *zap.Logger, p *user.Profile, text string) {
	fields := strings.Fields(text)
	cmd := fields[0]
	chatID := p.ChatID

	switch cmd {
	case "/start":
		p.ResetFlow()
		d.saveProfile(ctx, log, p)
		d.showMenu(chatID)

	case "/help":
		d.send(log, Outgoing{ChatID: chatID, Text: helpText, Markdown: true})

	case "/stats":
		l := d.histories.Load(ctx, chatID)
		d.send(log, Outgoing{ChatID: chatID, Text: renderStats(l, d.now()), Markdown: true})

	case "/history":
		l := d.histories.Load(ctx, chatID)
		d.send(log, Outgoing{ChatID: chatID, Text: renderHistory(l.Recent, 10), Markdown: true})

	case "/contest":
		contests := d.catalogs.Contests(ctx)
		d.send(log, Outgoing{ChatID: chatID, Text: renderContests(contests, 5), Markdown: true})

	case "/goal":
		d.handleGoal(ctx, log, p, fields[1:])

	case "/challenge":
		d.joinChallenge(ctx, log, p)

	case "/achievements":
		d.send(log, Outgoing{ChatID: chatID, Text: renderAchievements(p), Markdown: true})

	case "/browse":
		d.send(log, Outgoing{ChatID: chatID, Text: "🔎 More ways to pick problems:", Keyboard: browseKeyboard()})

	case "/compare":
		d.send(log, Outgoing{ChatID: chatID, Text: "🤝 Comparing with friends is coming soon."})

	default:
		d.send(log, Outgoing{ChatID: chatID, Text: "Unknown command. Try /help."})
	}
}

func (d *Dispatcher) applyEffect(ctx context.Context, log *zap.Logger, p *user.Profile, eff conversation.Effect) {
	switch {
	case eff.RunSelection:
		d.runSelection(ctx, log, p, eff.Count)
	case eff.SetGoal:
		d.saveProfile(ctx, log, p)
		d.setGoal(ctx, log, p, eff.Target)
	case eff.Invalid:
		d.send(log, Outgoing{ChatID: p.ChatID, Text: eff.Reply})
	default:
		d.saveProfile(ctx, log, p)
		if eff.Reply != "" {
			d.send(log, Outgoing{ChatID: p.ChatID, Text: eff.Reply})
		}
	}
}

// runSelection is the terminal step of the selection flow: filter the
// catalog, send the picks, record each as solved, evaluate achievements
// and reset the conversation.
func (d *Dispatcher) runSelection(ctx context.Context, log *zap.Logger, p *user.Profile, count int) {
	problems := d.catalogs.Problems(ctx)
	picked := selector.Filter(problems, p.Mode, selector.Params{
		Rating: p.Rating,
		Tag:    p.Tag,
		Index:  p.Index,
	}, count)

	if len(picked) == 0 {
		d.send(log, Outgoing{ChatID: p.ChatID, Text: "❌ No problems found for your filters."})
	} else {
		var l *history.Log
		for _, pr := range picked {
			d.send(log, Outgoing{ChatID: p.ChatID, Text: renderProblem(pr), Markdown: true})
			updated, err := d.histories.Append(ctx, p.ChatID, history.NewRecord(p.ChatID, pr, d.now()))
			if err != nil {
				log.Error("failed to record solve", zap.Error(err))
			}
			l = updated
		}
		d.send(log, Outgoing{ChatID: p.ChatID, Text: "✅ Done!"})
		d.notify(log, p.ChatID, d.engine.Evaluate(ctx, p, l))
	}

	p.ResetFlow()
	d.saveProfile(ctx, log, p)
}

func (d *Dispatcher) handleGoal(ctx context.Context, log *zap.Logger, p *user.Profile, args []string) {
	chatID := p.ChatID

	if len(args) > 0 {
		target, err := strconv.Atoi(args[0])
		if err != nil || target < 1 {
			d.send(log, Outgoing{ChatID: chatID, Text: "Usage: /goal 5 — a positive number of problems per day."})
			return
		}
		d.setGoal(ctx, log, p, target)
		return
	}

	if d.goals.Get(ctx, chatID) == nil {
		eff := conversation.BeginGoal(p)
		d.saveProfile(ctx, log, p)
		d.send(log, Outgoing{ChatID: chatID, Text: eff.Reply})
		return
	}

	l := d.histories.Load(ctx, chatID)
	progress := d.goals.Check(ctx, chatID, l)
	if progress == nil {
		// The record was readable a moment ago; a transient read
		// failure inside Check still has to produce a reply.
		d.send(log, Outgoing{ChatID: chatID, Text: "Could not read your goal right now, try again later."})
		return
	}
	d.send(log, Outgoing{ChatID: chatID, Text: renderProgress(progress), Markdown: true})
	if progress.NewlyCredited && progress.Goal.Streak >= goals.WeekStreak {
		if ua, newly := d.engine.Unlock(ctx, p, achievements.KeyWeekWarrior); newly {
			d.notify(log, chatID, []user.UnlockedAchievement{ua})
		}
	}
}

func (d *Dispatcher) setGoal(ctx context.Context, log *zap.Logger, p *user.Profile, target int) {
	g, err := d.goals.Set(ctx, p.ChatID, target)
	if err != nil {
		log.Error("failed to set goal", zap.Error(err))
		d.send(log, Outgoing{ChatID: p.ChatID, Text: "Could not save your goal, try again later."})
		return
	}
	d.send(log, Outgoing{ChatID: p.ChatID,
		Text: "🎯 Daily goal set: " + strconv.Itoa(g.Target) + " problem(s) per day. Check it with /goal."})
}

func (d *Dispatcher) joinChallenge(ctx context.Context, log *zap.Logger, p *user.Profile) {
	chatID := p.ChatID
	c, err := d.challenges.Join(ctx, chatID, d.catalogs.Problems(ctx))
	switch {
	case errors.Is(err, challenge.ErrAlreadyJoined):
		d.send(log, Outgoing{ChatID: chatID, Text: renderChallenge(c) + "\n\nYou already joined today — good luck!",
			Keyboard: challengeKeyboard(), Markdown: true})
	case err != nil:
		log.Error("failed to join challenge", zap.Error(err))
		d.send(log, Outgoing{ChatID: chatID, Text: "❌ Today's challenge is unavailable, try again later."})
	default:
		d.send(log, Outgoing{ChatID: chatID, Text: renderChallenge(c) + "\n\nYou're in! 💪",
			Keyboard: challengeKeyboard(), Markdown: true})
	}
}

func (d *Dispatcher) completeChallenge(ctx context.Context, log *zap.Logger, p *user.Profile) {
	chatID := p.ChatID
	_, newly, err := d.challenges.Complete(ctx, chatID)
	switch {
	case errors.Is(err, challenge.ErrNotJoined):
		d.send(log, Outgoing{ChatID: chatID, Text: "Join today's challenge first with /challenge."})
	case err != nil:
		log.Error("failed to complete challenge", zap.Error(err))
		d.send(log, Outgoing{ChatID: chatID, Text: "Could not record that, try again later."})
	case !newly:
		d.send(log, Outgoing{ChatID: chatID, Text: "Already marked done today. 👍"})
	default:
		d.send(log, Outgoing{ChatID: chatID, Text: "🏆 Challenge completed!"})
		if ua, unlocked := d.engine.Unlock(ctx, p, achievements.KeyDailyChampion); unlocked {
			d.notify(log, chatID, []user.UnlockedAchievement{ua})
		}
	}
}

func (d *Dispatcher) showMenu(chatID int64) {
	d.send(d.log, Outgoing{ChatID: chatID, Text: "🎯 Choose your mode to fetch problems:", Keyboard: menuKeyboard()})
}

// notify delivers achievement unlocks. Fire and forget: a failed send
// never rolls back the unlock.
func (d *Dispatcher) notify(log *zap.Logger, chatID int64, pending []user.UnlockedAchievement) {
	for _, ua := range pending {
		d.send(log, Outgoing{ChatID: chatID, Text: renderUnlock(ua), Markdown: true})
	}
}

func (d *Dispatcher) send(log *zap.Logger, msg Outgoing) {
	if err := d.sender.Send(msg); err != nil {
		log.Warn("delivery failed", zap.Int64("chat_id", msg.ChatID), zap.Error(err))
	}
}

func (d *Dispatcher) saveProfile(ctx context.Context, log *zap.Logger, p *user.Profile) {
	if err := d.users.Save(ctx, p); err != nil {
		log.Error("failed to save profile", zap.Error(err))
	}
}
