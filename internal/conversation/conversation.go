// Package conversation is the explicit multi-turn input-collection
// state machine. Begin and Advance mutate the profile's step and filter
// fields and return an Effect describing what the dispatcher should do;
// invalid input re-prompts without changing state.
package conversation

import (
	"strconv"
	"strings"

	"cf-coach/internal/selector"
	"cf-coach/internal/user"
)

// Effect is the outcome of a transition.
type Effect struct {
	// Reply is the prompt (or corrective message) to send, if any.
	Reply string
	// Invalid marks a rejected input; state and filters are untouched.
	Invalid bool
	// RunSelection asks the dispatcher to invoke the selector with the
	// profile's accumulated mode and filters.
	RunSelection bool
	Count        int
	// SetGoal asks the dispatcher to set the daily goal target.
	SetGoal bool
	Target  int
}

const countPrompt = "Enter number of problems (max 10):"

// Begin starts the flow for the chosen mode and returns the first
// prompt. Random and recent-contest modes need no filter input, so they
// go straight to the count question.
func Begin(p *user.Profile, mode selector.Mode) Effect {
	p.ResetFlow()
	p.Mode = mode
	switch mode {
	case selector.ModeRating:
		p.Step = user.StepAwaitRating
		return Effect{Reply: "Enter rating (e.g., 1200):"}
	case selector.ModeTag:
		p.Step = user.StepAwaitTag
		return Effect{Reply: "Enter tag (e.g., dp, greedy, math):"}
	case selector.ModeIndex:
		p.Step = user.StepAwaitIndex
		return Effect{Reply: "Enter index letter (e.g., A, B, C):"}
	case selector.ModeRatingTag:
		p.Step = user.StepAwaitRTRating
		return Effect{Reply: "Enter rating first (e.g., 1300):"}
	case selector.ModeRandom, selector.ModeRecentContest:
		p.Step = user.StepAwaitCount
		return Effect{Reply: countPrompt}
	default:
		p.ResetFlow()
		return Effect{Reply: "Use /start to choose a mode."}
	}
}

// BeginGoal enters the goal-target question.
func BeginGoal(p *user.Profile) Effect {
	p.ResetFlow()
	p.Step = user.StepAwaitGoal
	return Effect{Reply: "How many problems per day? Enter your daily goal:"}
}

// Advance feeds one free-text input into the current step.
func Advance(p *user.Profile, input string) Effect {
	input = strings.TrimSpace(input)

	switch p.Step {
	case user.StepAwaitRating:
		n, err := strconv.Atoi(input)
		if err != nil {
			return Effect{Reply: "Please enter a valid rating.", Invalid: true}
		}
		p.Rating = n
		p.Step = user.StepAwaitCount
		return Effect{Reply: countPrompt}

	case user.StepAwaitTag:
		if input == "" {
			return Effect{Reply: "Please enter a tag.", Invalid: true}
		}
		p.Tag = strings.ToLower(input)
		p.Step = user.StepAwaitCount
		return Effect{Reply: countPrompt}

	case user.StepAwaitIndex:
		if input == "" {
			return Effect{Reply: "Please enter an index letter.", Invalid: true}
		}
		p.Index = strings.ToUpper(input)
		p.Step = user.StepAwaitCount
		return Effect{Reply: countPrompt}

	case user.StepAwaitRTRating:
		n, err := strconv.Atoi(input)
		if err != nil {
			return Effect{Reply: "Please enter a numeric rating.", Invalid: true}
		}
		p.Rating = n
		p.Step = user.StepAwaitRTTag
		return Effect{Reply: "Now enter tag (e.g., dp, math, graphs):"}

	case user.StepAwaitRTTag:
		if input == "" {
			return Effect{Reply: "Please enter a tag.", Invalid: true}
		}
		p.Tag = strings.ToLower(input)
		p.Step = user.StepAwaitCount
		return Effect{Reply: countPrompt}

	case user.StepAwaitCount:
		n, err := strconv.Atoi(input)
		if err != nil {
			return Effect{Reply: "Please enter a valid number.", Invalid: true}
		}
		if n < 1 {
			n = 1
		}
		if n > selector.MaxCount {
			n = selector.MaxCount
		}
		return Effect{RunSelection: true, Count: n}

	case user.StepAwaitGoal:
		n, err := strconv.Atoi(input)
		if err != nil || n < 1 {
			return Effect{Reply: "Please enter a positive number.", Invalid: true}
		}
		p.ResetFlow()
		return Effect{SetGoal: true, Target: n}

	default:
		return Effect{Reply: "Use /start to choose a mode."}
	}
}
