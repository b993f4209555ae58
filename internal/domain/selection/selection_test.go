package selection

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/forPelevin/scenecut/internal/types"
)

const eps = 1e-9

// scenesOf lays out back-to-back scenes with the given durations starting at 0.
func scenesOf(durations ...float64) types.SceneList {
	var (
		out types.SceneList
		t   float64
	)
	for _, d := range durations {
		out = append(out, types.Scene{Start: t, End: t + d})
		t += d
	}
	return out
}

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func TestSelect_SmallInputPassthrough(t *testing.T) {
	for n := 0; n < 2*AnchorCount; n++ {
		scenes := scenesOf(make([]float64, n)...)
		for i := range scenes {
			scenes[i].End = scenes[i].Start + float64(i+1)*10
		}
		got := Select(scenes, 5, Options{Policy: RandomFill, Rand: seeded(1)})
		if len(got) != len(scenes) {
			t.Fatalf("n=%d: expected %d spans, got %d", n, len(scenes), len(got))
		}
		for i := range got {
			if got[i].Scene != scenes[i] {
				t.Fatalf("n=%d: span %d changed: %+v vs %+v", n, i, got[i].Scene, scenes[i])
			}
		}
	}
}

func TestSelect_MiddleFitsEntirely(t *testing.T) {
	scenes := scenesOf(3, 4, 2, 2, 5, 4)

	for _, policy := range []Policy{RandomFill, LongestFill} {
		t.Run(string(policy), func(t *testing.T) {
			got := Select(scenes, 25, Options{Policy: policy, Rand: seeded(7)})
			if len(got) != 6 {
				t.Fatalf("expected all 6 scenes, got %d", len(got))
			}
			total := types.SpansDuration(got)
			if math.Abs(total-19.9) > 1e-6 {
				t.Fatalf("expected total 19.9s, got %.4f", total)
			}
			last := got[len(got)-1]
			if math.Abs(last.End-(scenes[5].End-TailGuard)) > eps {
				t.Fatalf("expected tail guard on last scene, got end %.3f", last.End)
			}
			wantProv := []types.Provenance{
				types.AnchorStart, types.AnchorStart,
				types.Middle, types.Middle,
				types.AnchorEnd, types.AnchorEnd,
			}
			for i, p := range wantProv {
				if got[i].Provenance != p {
					t.Fatalf("span %d: provenance %s, want %s", i, got[i].Provenance, p)
				}
			}
		})
	}
}

func TestSelect_AnchorsExceedTarget(t *testing.T) {
	// anchors: 10 + 10 + 6 + (4 - 0.1) = 29.9 > 25
	scenes := scenesOf(10, 10, 3, 3, 6, 4)
	got := Select(scenes, 25, Options{Policy: RandomFill, Rand: seeded(3)})

	if len(got) != 3 {
		t.Fatalf("expected 3 spans, got %d: %+v", len(got), got)
	}
	if total := types.SpansDuration(got); math.Abs(total-25) > 1e-6 {
		t.Fatalf("expected total 25s, got %.4f", total)
	}
	cut := got[2]
	if !cut.Truncated || cut.Provenance != types.AnchorEnd {
		t.Fatalf("expected truncated end anchor, got %+v", cut)
	}
	if math.Abs(cut.Duration()-5) > 1e-6 {
		t.Fatalf("expected truncated span of 5s, got %.4f", cut.Duration())
	}
	for _, s := range got {
		if s.Provenance == types.Middle {
			t.Fatalf("middle scene selected although budget is exhausted: %+v", s)
		}
	}
}

func TestSelect_AnchorsMeetTargetExactly(t *testing.T) {
	scenes := scenesOf(5, 5, 9, 5, 5.1)
	got := Select(scenes, 20, Options{Policy: LongestFill})
	if len(got) != 4 {
		t.Fatalf("expected the 4 anchors, got %d", len(got))
	}
	for _, s := range got {
		if s.Truncated {
			t.Fatalf("no anchor should be truncated: %+v", s)
		}
	}
}

func TestSelect_LongestFillTruncatesLast(t *testing.T) {
	// anchors 2+2+2+1.9 = 7.9, budget 4.1; longest middle scene (5s) is cut to 4.1s.
	scenes := scenesOf(2, 2, 1, 5, 3, 2, 2)
	got := Select(scenes, 12, Options{Policy: LongestFill})

	var middle []types.SelectedSpan
	for _, s := range got {
		if s.Provenance == types.Middle {
			middle = append(middle, s)
		}
	}
	if len(middle) != 1 {
		t.Fatalf("expected a single middle span, got %+v", middle)
	}
	if middle[0].Start != scenes[3].Start {
		t.Fatalf("expected the longest scene to be chosen, got %+v", middle[0])
	}
	if !middle[0].Truncated || math.Abs(middle[0].Duration()-4.1) > 1e-6 {
		t.Fatalf("expected truncation to 4.1s, got %+v", middle[0])
	}
	if total := types.SpansDuration(got); math.Abs(total-12) > 1e-6 {
		t.Fatalf("expected total 12s, got %.4f", total)
	}
}

func TestSelect_LongestFillIsDeterministic(t *testing.T) {
	scenes := scenesOf(1, 1, 4, 2, 6, 3, 5, 1, 1)
	first := Select(scenes, 15, Options{Policy: LongestFill})
	for i := 0; i < 5; i++ {
		again := Select(scenes, 15, Options{Policy: LongestFill})
		if len(again) != len(first) {
			t.Fatalf("run %d: length %d != %d", i, len(again), len(first))
		}
		for j := range first {
			if again[j] != first[j] {
				t.Fatalf("run %d: span %d differs: %+v vs %+v", i, j, again[j], first[j])
			}
		}
	}
}

func TestSelect_RandomFillRejectsWithoutTruncation(t *testing.T) {
	// budget = 12 - (1+1+1+0.9) = 8.1; no middle scene may be cut.
	scenes := scenesOf(1, 1, 5, 5, 5, 1, 1)
	for seed := uint64(0); seed < 50; seed++ {
		got := Select(scenes, 12, Options{Policy: RandomFill, Rand: seeded(seed)})
		for _, s := range got {
			if s.Truncated {
				t.Fatalf("seed %d: random fill truncated a span: %+v", seed, s)
			}
		}
		if n := len(got) - 2*AnchorCount; n != 1 {
			t.Fatalf("seed %d: expected exactly one middle scene, got %d", seed, n)
		}
	}
}

func TestSelect_RandomizedProperties(t *testing.T) {
	gen := seeded(42)
	for iter := 0; iter < 500; iter++ {
		n := 4 + gen.IntN(30)
		durations := make([]float64, n)
		for i := range durations {
			durations[i] = 0.5 + gen.Float64()*8
		}
		scenes := scenesOf(durations...)
		target := 5 + gen.Float64()*40
		policy := RandomFill
		if iter%2 == 1 {
			policy = LongestFill
		}

		got := Select(scenes, target, Options{Policy: policy, Rand: seeded(uint64(iter))})

		if total := types.SpansDuration(got); total > target+1e-5 {
			t.Fatalf("iter %d: total %.4f exceeds target %.4f", iter, total, target)
		}
		for i := 1; i < len(got); i++ {
			if got[i].Start <= got[i-1].Start {
				t.Fatalf("iter %d: starts not increasing at %d", iter, i)
			}
			if got[i].Start < got[i-1].End-eps {
				t.Fatalf("iter %d: overlap at %d", iter, i)
			}
		}
		if len(got) == 0 || got[0].Scene != scenes[0] && !got[0].Truncated {
			t.Fatalf("iter %d: first scene missing", iter)
		}
		if types.SceneList(scenes[:AnchorCount]).TotalDuration()+
			types.SceneList(scenes[n-AnchorCount:]).TotalDuration()-TailGuard < target {
			last := got[len(got)-1]
			if last.Start != scenes[n-1].Start || math.Abs(last.End-(scenes[n-1].End-TailGuard)) > eps {
				t.Fatalf("iter %d: last scene missing or not guarded: %+v", iter, last)
			}
		}
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"", RandomFill, false},
		{"random", RandomFill, false},
		{" Longest ", LongestFill, false},
		{"longest-first", LongestFill, false},
		{"shortest", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePolicy(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePolicy(%q) err = %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("ParsePolicy(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
