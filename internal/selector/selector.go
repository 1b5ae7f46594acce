// Package selector filters the cached problem catalog by the selection
// mode and returns a shuffled, size-capped subset.
package selector

import (
	"math/rand"
	"strings"

	"cf-coach/internal/codeforces"
)

type Mode string

const (
	ModeRating        Mode = "rating"
	ModeTag           Mode = "tag"
	ModeIndex         Mode = "index"
	ModeRatingTag     Mode = "rating_tag"
	ModeRandom        Mode = "random"
	ModeRecentContest Mode = "recent_contest"
)

const (
	MaxCount     = 10
	DefaultCount = 10

	// Full valid Codeforces rating band, used when a random range is
	// not narrowed by the caller.
	MinRating = 800
	MaxRating = 3500

	// Catalog rows carry no contest date; a high contest id is the
	// proxy for "recent".
	recentContestThreshold = 1800
)

type Params struct {
	Rating    int
	Tag       string
	Index     string
	MinRating int
	MaxRating int
}

// Filter returns at most count problems matching mode and params, in
// uniformly random order. Rows missing a contest id or index letter are
// always discarded. An empty result means "no problems found".
func Filter(problems []codeforces.Problem, mode Mode, p Params, count int) []codeforces.Problem {
	if count < 1 {
		count = DefaultCount
	}
	if count > MaxCount {
		count = MaxCount
	}

	var filtered []codeforces.Problem
	for _, pr := range problems {
		if pr.ContestID == 0 || pr.Index == "" {
			continue
		}
		if matches(pr, mode, p) {
			filtered = append(filtered, pr)
		}
	}

	rand.Shuffle(len(filtered), func(i, j int) {
		filtered[i], filtered[j] = filtered[j], filtered[i]
	})
	if len(filtered) > count {
		filtered = filtered[:count]
	}
	return filtered
}

func matches(pr codeforces.Problem, mode Mode, p Params) bool {
	switch mode {
	case ModeRating:
		return pr.Rating == p.Rating
	case ModeTag:
		return hasTag(pr, p.Tag)
	case ModeIndex:
		return pr.Index == p.Index
	case ModeRatingTag:
		return pr.Rating == p.Rating && hasTag(pr, p.Tag)
	case ModeRandom:
		lo, hi := p.MinRating, p.MaxRating
		if lo == 0 {
			lo = MinRating
		}
		if hi == 0 {
			hi = MaxRating
		}
		return pr.Rating >= lo && pr.Rating <= hi
	case ModeRecentContest:
		return pr.ContestID > recentContestThreshold
	default:
		return false
	}
}

func hasTag(pr codeforces.Problem, tag string) bool {
	if tag == "" {
		return false
	}
	needle := strings.ToLower(tag)
	for _, t := range pr.Tags {
		if strings.Contains(strings.ToLower(t), needle) {
			return true
		}
	}
	return false
}
