package scheduler

import (
	"testing"

	"github.com/vidprefetch/cache/internal/model"
)

func withLength(id string, length int64, score float64) *model.VideoDownload {
	return &model.VideoDownload{ID: id, ContentLength: &length, Score: score}
}

func TestRankWorkedExample(t *testing.T) {
	// A(100B,1) B(10GB,9) C(200B,2) D(10GB,8) E(150B,3)
	a := withLength("A", 100, 1)
	b := withLength("B", 10_000_000_000, 9)
	c := withLength("C", 200, 2)
	d := withLength("D", 10_000_000_000, 8)
	e := withLength("E", 150, 3)

	candidates := []*model.VideoDownload{a, b, c, d, e}
	got := Rank(candidates, Targets{VideosAhead: 2, MinutesAhead: 0})

	want := []string{"A", "B", "D", "E", "C"}
	if len(got) != len(want) {
		t.Fatalf("len(got) = %d, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d = %s, want %s (full: %v)", i, got[i].ID, id, idsOf(got))
		}
	}
}

func idsOf(items []*model.VideoDownload) []string {
	out := make([]string, len(items))
	for i, v := range items {
		out[i] = v.ID
	}
	return out
}

func TestRankIsIdempotent(t *testing.T) {
	candidates := []*model.VideoDownload{
		withLength("A", 100, 1),
		withLength("B", 50, 5),
		{ID: "C", Score: 2},
		withLength("D", 75, 3),
	}
	targets := Targets{VideosAhead: 1, MinutesAhead: 0}

	first := Rank(candidates, targets)
	second := Rank(candidates, targets)

	if len(first) != len(second) {
		t.Fatalf("length differs between runs: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("order differs at %d: %s vs %s", i, first[i].ID, second[i].ID)
		}
	}
}

func TestRankIsPermutation(t *testing.T) {
	candidates := []*model.VideoDownload{
		withLength("A", 100, 1),
		withLength("B", 50, 5),
		{ID: "C", Score: 2},
		withLength("D", 75, 3),
		{ID: "E", Score: 9},
	}
	got := Rank(candidates, Targets{VideosAhead: 2, MinutesAhead: 1})

	if len(got) != len(candidates) {
		t.Fatalf("len(got) = %d, want %d", len(got), len(candidates))
	}
	seen := make(map[string]bool)
	for _, v := range got {
		if seen[v.ID] {
			t.Fatalf("id %s appeared more than once", v.ID)
		}
		seen[v.ID] = true
	}
}

func TestRankUnknownLengthSinksInNear(t *testing.T) {
	known := withLength("known", 500, 1)
	unknown := &model.VideoDownload{ID: "unknown", Score: 9}

	got := Rank([]*model.VideoDownload{unknown, known}, Targets{VideosAhead: 2, MinutesAhead: 0})
	if got[0].ID != "known" || got[1].ID != "unknown" {
		t.Fatalf("expected unknown-length item to sink to the end of near, got %v", idsOf(got))
	}
}

func TestRankFarSortsByScoreDescThenLengthAsc(t *testing.T) {
	// all candidates land in far by setting a zero VideosAhead target.
	candidates := []*model.VideoDownload{
		withLength("low-score-small", 10, 1),
		withLength("high-score-big", 1000, 9),
		withLength("high-score-small", 10, 9),
	}
	got := Rank(candidates, Targets{VideosAhead: 0, MinutesAhead: 0})
	want := []string{"high-score-small", "high-score-big", "low-score-small"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d = %s, want %s (full: %v)", i, got[i].ID, id, idsOf(got))
		}
	}
}
