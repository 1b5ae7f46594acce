package telegram

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"cf-coach/internal/achievements"
	"cf-coach/internal/challenge"
	"cf-coach/internal/codeforces"
	"cf-coach/internal/goals"
	"cf-coach/internal/history"
	"cf-coach/internal/user"
)

// Callback data values.
const (
	cbModeRating    = "mode_rating"
	cbModeTag       = "mode_tag"
	cbModeIndex     = "mode_index"
	cbModeRatingTag = "mode_rating_tag"
	cbModeRandom    = "mode_random"
	cbModeRecent    = "mode_recent"
	cbChallengeDone = "challenge_done"
)

const helpText = `🤖 *CF Coach* — Codeforces practice companion

/start — pick a problem-selection mode
/browse — random range and recent-contest picks
/stats — your solving statistics
/history — recently solved problems
/goal [n] — set or check your daily goal
/challenge — join today's shared challenge
/achievements — your trophy shelf
/contest — upcoming contests
/compare — compare with a friend
/help — this message`

func menuKeyboard() *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("By Rating", cbModeRating),
			tgbotapi.NewInlineKeyboardButtonData("By Tag", cbModeTag),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("By Index (A/B/C)", cbModeIndex),
			tgbotapi.NewInlineKeyboardButtonData("By Rating + Tag", cbModeRatingTag),
		),
	)
	return &kb
}

func browseKeyboard() *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Random pick", cbModeRandom),
			tgbotapi.NewInlineKeyboardButtonData("Recent contests", cbModeRecent),
		),
	)
	return &kb
}

func challengeKeyboard() *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Mark done", cbChallengeDone),
		),
	)
	return &kb
}

func renderProblem(p codeforces.Problem) string {
	rating := "?"
	if p.Rating > 0 {
		rating = fmt.Sprintf("%d", p.Rating)
	}
	return fmt.Sprintf("[%s](%s) — %s⭐ (%s)", p.Name, p.URL(), rating, strings.Join(p.Tags, ", "))
}

func renderHistory(recent []history.Record, limit int) string {
	if len(recent) == 0 {
		return "No history yet."
	}
	if len(recent) > limit {
		recent = recent[:limit]
	}
	var b strings.Builder
	b.WriteString("🕓 *Recent Problems:*\n")
	for _, r := range recent {
		rating := "?"
		if r.Rating > 0 {
			rating = fmt.Sprintf("%d", r.Rating)
		}
		fmt.Fprintf(&b, "[%s](%s) — %s\n", r.Name, r.URL(), rating)
	}
	return b.String()
}

func renderStats(l *history.Log, now time.Time) string {
	if len(l.Records) == 0 {
		return "No solves recorded yet. Try /start!"
	}
	today := now.UTC().Format("2006-01-02")
	solvedToday, ratingSum, rated := 0, 0, 0
	tagCounts := make(map[string]int)
	for _, r := range l.Records {
		if r.SolvedAt.UTC().Format("2006-01-02") == today {
			solvedToday++
		}
		if r.Rating > 0 {
			ratingSum += r.Rating
			rated++
		}
		for _, t := range r.Tags {
			tagCounts[t]++
		}
	}

	var b strings.Builder
	b.WriteString("📊 *Your Stats*\n")
	fmt.Fprintf(&b, "Total solved: %d\n", len(l.Records))
	fmt.Fprintf(&b, "Solved today: %d\n", solvedToday)
	if rated > 0 {
		fmt.Fprintf(&b, "Average rating: %d\n", ratingSum/rated)
	}
	if top := topTags(tagCounts, 3); len(top) > 0 {
		fmt.Fprintf(&b, "Top tags: %s\n", strings.Join(top, ", "))
	}
	return b.String()
}

func topTags(counts map[string]int, n int) []string {
	type tc struct {
		tag   string
		count int
	}
	var all []tc
	for t, c := range counts {
		all = append(all, tc{t, c})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].count != all[j].count {
			return all[i].count > all[j].count
		}
		return all[i].tag < all[j].tag
	})
	if len(all) > n {
		all = all[:n]
	}
	out := make([]string, 0, len(all))
	for _, t := range all {
		out = append(out, fmt.Sprintf("%s (%d)", t.tag, t.count))
	}
	return out
}

func renderContests(contests []codeforces.Contest, limit int) string {
	var upcoming []codeforces.Contest
	for _, c := range contests {
		if c.Phase == "BEFORE" {
			upcoming = append(upcoming, c)
		}
	}
	if len(upcoming) == 0 {
		return "No upcoming contests found."
	}
	sort.Slice(upcoming, func(i, j int) bool {
		return upcoming[i].StartTimeSeconds < upcoming[j].StartTimeSeconds
	})
	if len(upcoming) > limit {
		upcoming = upcoming[:limit]
	}
	var b strings.Builder
	b.WriteString("🏁 *Upcoming Contests:*\n")
	for _, c := range upcoming {
		start := time.Unix(c.StartTimeSeconds, 0).UTC().Format("Jan 2 15:04 MST")
		fmt.Fprintf(&b, "%s — %s\n", c.Name, start)
	}
	return b.String()
}

func renderProgress(p *goals.Progress) string {
	filled := p.Percent() / 10
	bar := strings.Repeat("▓", filled) + strings.Repeat("░", 10-filled)
	var b strings.Builder
	b.WriteString("🎯 *Daily Goal*\n")
	fmt.Fprintf(&b, "%s %d%% (%d/%d)\n", bar, p.Percent(), p.Goal.Current, p.Goal.Target)
	if p.Completed {
		b.WriteString("Goal complete for today! 🎉\n")
	}
	fmt.Fprintf(&b, "Streak: %d day(s) 🔥", p.Goal.Streak)
	return b.String()
}

func renderAchievements(p *user.Profile) string {
	var b strings.Builder
	b.WriteString("🏅 *Achievements*\n")
	for _, a := range achievements.Catalog() {
		if ua, ok := p.Achievements[a.Key]; ok {
			fmt.Fprintf(&b, "%s *%s* — unlocked %s\n", ua.Icon, ua.Name, ua.UnlockedAt.UTC().Format("Jan 2, 2006"))
		} else {
			fmt.Fprintf(&b, "🔒 %s — %s\n", a.Name, a.Description)
		}
	}
	return b.String()
}

func renderUnlock(ua user.UnlockedAchievement) string {
	return fmt.Sprintf("%s *Achievement unlocked: %s*\n%s", ua.Icon, ua.Name, ua.Description)
}

func renderChallenge(c *challenge.Challenge) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🗓 *Daily Challenge — %s*\n", c.Date)
	for _, p := range c.Problems {
		b.WriteString(renderProblem(p) + "\n")
	}
	fmt.Fprintf(&b, "Participants: %d", len(c.Participants))
	return b.String()
}
