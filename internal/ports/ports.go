package ports

import (
	"context"
	"time"

	"github.com/forPelevin/scenecut/internal/types"
)

// Command is one external process invocation.
type Command struct {
	Name string
	Args []string
	Dir  string
}

type ExecResult struct {
	ExitCode int
	Stdout   []byte
	Stderr   string
	Duration time.Duration
}

// Executor runs an external tool to completion. A non-zero exit is
// reported as an error that carries the captured diagnostic text.
type Executor interface {
	Run(ctx context.Context, cmd Command) (ExecResult, error)
}

type MediaInfo struct {
	Duration float64
	HasAudio bool
}

type Prober interface {
	Probe(ctx context.Context, path string) (MediaInfo, error)
}

type DetectOptions struct {
	Threshold float64
	// MinSceneLen is in frames; 0 leaves the detector default.
	MinSceneLen int
	// MinSpan drops detected scenes shorter than this many seconds.
	MinSpan float64
	// SourceDuration closes the final scene for backends that only report cuts.
	SourceDuration float64
	WorkDir        string
}

type SceneDetector interface {
	Detect(ctx context.Context, path string, opts DetectOptions) (types.SceneList, error)
}

type VideoTool interface {
	TrimCopy(ctx context.Context, in string, start, duration float64, withAudio bool, out string) error
	ConcatCopy(ctx context.Context, manifest, out string) error
	ExtractAudio(ctx context.Context, in string, duration float64, out string) error
	Mux(ctx context.Context, video, audio, out string) error
}

type Workspace interface {
	Dir() string
	Path(name string) string
	Release() error
}

type Workspaces interface {
	Acquire(runID string) (Workspace, error)
}

// ProgressSink receives coarse percentages in [0,100].
type ProgressSink func(percent int)
