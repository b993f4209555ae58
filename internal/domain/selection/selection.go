package selection

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"github.com/forPelevin/scenecut/internal/types"
)

const (
	// AnchorCount scenes are always kept at each end of the timeline.
	AnchorCount = 2
	// TailGuard is trimmed off the last anchor to skip the frames leading into the next cut.
	TailGuard = 0.1

	minSpan   = 0.001
	tolerance = 1e-6
)

type Policy string

const (
	RandomFill  Policy = "random"
	LongestFill Policy = "longest"
)

func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case RandomFill, "":
		return RandomFill, nil
	case LongestFill, "longest-first":
		return LongestFill, nil
	default:
		return "", fmt.Errorf("unknown selection policy %q (want random or longest)", s)
	}
}

// Rand is the subset of *math/rand/v2.Rand the random fill needs. A nil
// Rand is replaced with a time-seeded source.
type Rand interface {
	IntN(n int) int
}

type Options struct {
	Policy Policy
	Rand   Rand
}

// Select picks a time-ordered subset of scenes whose total duration is at
// most target. The first and last AnchorCount scenes are always kept; the
// middle is filled from the remaining scenes according to opts.Policy.
// Lists with fewer than 2*AnchorCount scenes are returned unchanged.
func Select(scenes types.SceneList, target float64, opts Options) []types.SelectedSpan {
	if len(scenes) < 2*AnchorCount {
		out := make([]types.SelectedSpan, 0, len(scenes))
		for _, s := range scenes {
			out = append(out, types.SelectedSpan{Scene: s, Provenance: types.Middle})
		}
		return out
	}

	starts := tag(scenes[:AnchorCount], types.AnchorStart)
	ends := tag(scenes[len(scenes)-AnchorCount:], types.AnchorEnd)
	last := &ends[len(ends)-1]
	if last.Duration() > TailGuard {
		last.End -= TailGuard
	}
	middle := scenes[AnchorCount : len(scenes)-AnchorCount]

	anchors := append(append([]types.SelectedSpan(nil), starts...), ends...)
	budget := target - types.SpansDuration(anchors)
	if budget <= 0 {
		return truncateToBudget(anchors, target)
	}

	var picked types.SceneList
	switch opts.Policy {
	case LongestFill:
		picked = longestFill(middle, budget)
	default:
		rng := opts.Rand
		if rng == nil {
			rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
		}
		picked = randomFill(middle, budget, rng)
	}
	sort.SliceStable(picked, func(i, j int) bool { return picked[i].Start < picked[j].Start })

	out := make([]types.SelectedSpan, 0, len(anchors)+len(picked))
	out = append(out, starts...)
	for _, s := range picked {
		out = append(out, types.SelectedSpan{
			Scene:      s,
			Provenance: types.Middle,
			Truncated:  isTruncated(s, middle),
		})
	}
	out = append(out, ends...)
	return out
}

// truncateToBudget walks spans in order and cuts the one crossing target at
// exactly the budget; everything after it is dropped.
func truncateToBudget(spans []types.SelectedSpan, target float64) []types.SelectedSpan {
	var (
		out []types.SelectedSpan
		sum float64
	)
	for _, s := range spans {
		remaining := target - sum
		if remaining <= minSpan {
			break
		}
		if s.Duration() <= remaining+tolerance {
			out = append(out, s)
			sum += s.Duration()
			continue
		}
		s.End = s.Start + remaining
		s.Truncated = true
		out = append(out, s)
		break
	}
	return out
}

func randomFill(pool types.SceneList, budget float64, rng Rand) types.SceneList {
	available := append(types.SceneList(nil), pool...)
	var (
		out types.SceneList
		sum float64
	)
	for len(available) > 0 && sum < budget {
		i := rng.IntN(len(available))
		s := available[i]
		available = append(available[:i], available[i+1:]...)
		if sum+s.Duration() <= budget+tolerance {
			out = append(out, s)
			sum += s.Duration()
		}
	}
	return out
}

func longestFill(pool types.SceneList, budget float64) types.SceneList {
	byLength := append(types.SceneList(nil), pool...)
	sort.SliceStable(byLength, func(i, j int) bool {
		return byLength[i].Duration() > byLength[j].Duration()
	})

	var (
		out types.SceneList
		sum float64
	)
	for _, s := range byLength {
		remaining := budget - sum
		if remaining <= minSpan {
			break
		}
		if s.Duration() <= remaining+tolerance {
			out = append(out, s)
			sum += s.Duration()
			continue
		}
		s.End = s.Start + remaining
		out = append(out, s)
		break
	}
	return out
}

func tag(scenes types.SceneList, p types.Provenance) []types.SelectedSpan {
	out := make([]types.SelectedSpan, 0, len(scenes))
	for _, s := range scenes {
		out = append(out, types.SelectedSpan{Scene: s, Provenance: p})
	}
	return out
}

func isTruncated(s types.Scene, pool types.SceneList) bool {
	for _, p := range pool {
		if p.Start == s.Start {
			return p.End != s.End
		}
	}
	return false
}
