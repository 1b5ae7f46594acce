package selector

import (
	"testing"

	"cf-coach/internal/codeforces"
)

func prob(contestID int, index string, rating int, tags ...string) codeforces.Problem {
	return codeforces.Problem{ContestID: contestID, Index: index, Name: "p", Rating: rating, Tags: tags}
}

func TestRatingMode(t *testing.T) {
	ps := []codeforces.Problem{
		prob(1, "A", 1200, "math"),
		prob(2, "B", 1300, "dp"),
		prob(3, "C", 1200, "greedy"),
	}
	got := Filter(ps, ModeRating, Params{Rating: 1200}, 10)
	if len(got) != 2 {
		t.Fatalf("got %d, want 2", len(got))
	}
	for _, p := range got {
		if p.Rating != 1200 {
			t.Fatalf("rating filter leaked %+v", p)
		}
	}
}

func TestTagModeCaseInsensitiveSubstring(t *testing.T) {
	ps := []codeforces.Problem{
		prob(1, "A", 1200, "Dynamic Programming"),
		prob(2, "B", 1300, "dp"),
		prob(3, "C", 1400, "greedy"),
	}
	got := Filter(ps, ModeTag, Params{Tag: "DP"}, 10)
	if len(got) != 1 || got[0].ContestID != 2 {
		t.Fatalf("unexpected tag match: %+v", got)
	}
	got = Filter(ps, ModeTag, Params{Tag: "program"}, 10)
	if len(got) != 1 || got[0].ContestID != 1 {
		t.Fatalf("substring match failed: %+v", got)
	}
}

func TestRatingTagMode(t *testing.T) {
	ps := []codeforces.Problem{
		prob(1, "A", 1300, "dp"),
		prob(2, "B", 1300, "greedy"),
		prob(3, "C", 1400, "dp"),
	}
	got := Filter(ps, ModeRatingTag, Params{Rating: 1300, Tag: "dp"}, 10)
	if len(got) != 1 || got[0].ContestID != 1 {
		t.Fatalf("unexpected rating+tag match: %+v", got)
	}
}

func TestIncompleteRowsDropped(t *testing.T) {
	ps := []codeforces.Problem{
		{Index: "A", Rating: 1200},   // no contest id
		{ContestID: 5, Rating: 1200}, // no index
		prob(6, "B", 1200),           // complete
	}
	for _, mode := range []Mode{ModeRating, ModeRandom, ModeRecentContest, ModeIndex, ModeTag} {
		got := Filter(ps, mode, Params{Rating: 1200, Index: "A", Tag: "x"}, 10)
		for _, p := range got {
			if p.ContestID == 0 || p.Index == "" {
				t.Fatalf("mode %s returned incomplete row %+v", mode, p)
			}
		}
	}
}

func TestCountClamp(t *testing.T) {
	var ps []codeforces.Problem
	for i := 1; i <= 30; i++ {
		ps = append(ps, prob(i, "A", 1500))
	}
	if got := Filter(ps, ModeRating, Params{Rating: 1500}, 99); len(got) != MaxCount {
		t.Fatalf("count not capped: %d", len(got))
	}
	if got := Filter(ps, ModeRating, Params{Rating: 1500}, 0); len(got) != DefaultCount {
		t.Fatalf("zero count should default: %d", len(got))
	}
	if got := Filter(ps, ModeRating, Params{Rating: 1500}, 3); len(got) != 3 {
		t.Fatalf("explicit count ignored: %d", len(got))
	}
}

func TestRandomModeRange(t *testing.T) {
	var ps []codeforces.Problem
	for r := 800; r <= 3500; r += 100 {
		ps = append(ps, prob(r, "A", r))
	}
	got := Filter(ps, ModeRandom, Params{MinRating: 1200, MaxRating: 1600}, 10)
	if len(got) == 0 {
		t.Fatal("expected matches inside range")
	}
	for _, p := range got {
		if p.Rating < 1200 || p.Rating > 1600 {
			t.Fatalf("rating %d outside [1200,1600]", p.Rating)
		}
	}
	// Default range covers the whole band.
	got = Filter(ps, ModeRandom, Params{}, 10)
	if len(got) != 10 {
		t.Fatalf("default range should match everything, got %d", len(got))
	}
}

func TestRecentContestMode(t *testing.T) {
	ps := []codeforces.Problem{
		prob(100, "A", 1200),
		prob(1900, "A", 1200),
		prob(2100, "B", 1500),
	}
	got := Filter(ps, ModeRecentContest, Params{}, 10)
	if len(got) != 2 {
		t.Fatalf("got %d, want 2", len(got))
	}
	for _, p := range got {
		if p.ContestID <= recentContestThreshold {
			t.Fatalf("old contest leaked: %+v", p)
		}
	}
}

func TestEmptyResultIsValid(t *testing.T) {
	ps := []codeforces.Problem{prob(1, "A", 1200)}
	if got := Filter(ps, ModeRating, Params{Rating: 3000}, 5); len(got) != 0 {
		t.Fatalf("expected no matches, got %d", len(got))
	}
}

// Every element of a fixed input should be selected with roughly equal
// frequency when count is below the input size.
func TestShuffleFairness(t *testing.T) {
	var ps []codeforces.Problem
	for i := 1; i <= 20; i++ {
		ps = append(ps, prob(i, "A", 1500))
	}
	counts := make(map[int]int)
	const trials = 4000
	for i := 0; i < trials; i++ {
		for _, p := range Filter(ps, ModeRating, Params{Rating: 1500}, 5) {
			counts[p.ContestID]++
		}
	}
	// Expected hits per element: trials * 5 / 20 = 1000.
	for id := 1; id <= 20; id++ {
		c := counts[id]
		if c < 800 || c > 1200 {
			t.Fatalf("element %d selected %d times, expected ~1000", id, c)
		}
	}
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	var ps []codeforces.Problem
	for i := 1; i <= 10; i++ {
		ps = append(ps, prob(i, "A", 1500))
	}
	Filter(ps, ModeRating, Params{Rating: 1500}, 5)
	for i, p := range ps {
		if p.ContestID != i+1 {
			t.Fatalf("input slice reordered at %d: %+v", i, p)
		}
	}
}
