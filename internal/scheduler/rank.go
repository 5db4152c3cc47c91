// Package scheduler re-computes the download queue from the discovered
// table on each tick using the two-phase near/far ranking rule.
package scheduler

import (
	"math"
	"sort"

	"github.com/vidprefetch/cache/internal/model"
)

// unknownLength sorts after every known content length, mirroring the
// spec's "unknown content_length compares as the maximum value" rule.
const unknownLength = math.MaxInt64

// Targets bounds how much of the candidate list is considered "near"
// before the ranker falls back to scoring the remainder as "far".
type Targets struct {
	VideosAhead  int
	MinutesAhead float64
}

// Rank partitions candidates (in their current iteration order) into a near
// prefix and a far suffix by walking from the front and accumulating both
// a count and a minutes total, stopping once both targets are met or the
// list is exhausted. near is then sorted by (content_length asc, score
// desc); far by (score desc, content_length asc); both sorts are stable.
// The result is near followed by far — a full replacement for the
// previous queue. Rank is a pure function: calling it twice on the same
// input yields the same output.
func Rank(candidates []*model.VideoDownload, t Targets) []*model.VideoDownload {
	cut := partitionPoint(candidates, t)

	near := make([]*model.VideoDownload, cut)
	copy(near, candidates[:cut])
	far := make([]*model.VideoDownload, len(candidates)-cut)
	copy(far, candidates[cut:])

	sort.SliceStable(near, func(i, j int) bool {
		li, lj := contentLength(near[i]), contentLength(near[j])
		if li != lj {
			return li < lj
		}
		return near[i].Score > near[j].Score
	})

	sort.SliceStable(far, func(i, j int) bool {
		if far[i].Score != far[j].Score {
			return far[i].Score > far[j].Score
		}
		return contentLength(far[i]) < contentLength(far[j])
	})

	out := make([]*model.VideoDownload, 0, len(candidates))
	out = append(out, near...)
	out = append(out, far...)
	return out
}

// partitionPoint returns the index at which both the count and minutes
// targets have been satisfied, walking the candidates in order.
func partitionPoint(candidates []*model.VideoDownload, t Targets) int {
	var count int
	var minutes float64
	for i, c := range candidates {
		if count >= t.VideosAhead && minutes >= t.MinutesAhead {
			return i
		}
		count++
		if c.LengthSeconds != nil {
			minutes += *c.LengthSeconds / 60.0
		}
	}
	return len(candidates)
}

func contentLength(v *model.VideoDownload) int64 {
	if v.ContentLength == nil {
		return unknownLength
	}
	return *v.ContentLength
}
