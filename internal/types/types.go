package types

import "time"

// Scene is a contiguous span of the source, in seconds.
type Scene struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func (s Scene) Duration() float64 { return s.End - s.Start }

// SceneList is ordered by Start and non-overlapping.
type SceneList []Scene

// Longer returns the scenes whose duration is at least min.
func (l SceneList) Longer(min float64) SceneList {
	out := make(SceneList, 0, len(l))
	for _, s := range l {
		if s.End <= s.Start {
			continue
		}
		if s.Duration() < min {
			continue
		}
		out = append(out, s)
	}
	return out
}

func (l SceneList) TotalDuration() float64 {
	var sum float64
	for _, s := range l {
		sum += s.Duration()
	}
	return sum
}

type Provenance int

const (
	AnchorStart Provenance = iota
	Middle
	AnchorEnd
)

func (p Provenance) String() string {
	switch p {
	case AnchorStart:
		return "anchor-start"
	case Middle:
		return "middle"
	case AnchorEnd:
		return "anchor-end"
	default:
		return "unknown"
	}
}

// SelectedSpan is a scene, possibly truncated, chosen for the output.
type SelectedSpan struct {
	Scene
	Provenance Provenance
	Truncated  bool
}

func SpansDuration(spans []SelectedSpan) float64 {
	var sum float64
	for _, s := range spans {
		sum += s.Duration()
	}
	return sum
}

// Segment is a span cut into its own file inside the run workspace.
type Segment struct {
	Span SelectedSpan
	File string
}

type RunSummary struct {
	RunID          string
	Input          string
	Output         string
	SourceDuration float64
	Scenes         int
	Selected       []SelectedSpan
	Extracted      []Segment
	OutputDuration float64
	AudioAttached  bool
	Degraded       bool
	Elapsed        time.Duration
}
