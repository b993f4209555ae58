package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/forPelevin/scenecut/internal/domain/selection"
	"github.com/forPelevin/scenecut/internal/ports"
	"github.com/forPelevin/scenecut/internal/types"
)

const DefaultTargetSeconds = 25.0

type Mode string

const (
	// ModeVideoOnly cuts segments without audio and muxes one audio track afterwards.
	ModeVideoOnly Mode = "video-only"
	// ModeVideoAudio cuts segments with their audio; concatenation alone produces the output.
	ModeVideoAudio Mode = "video-audio"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeVideoOnly, "":
		return ModeVideoOnly, nil
	case ModeVideoAudio:
		return ModeVideoAudio, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want video-only or video-audio)", s)
	}
}

type Deps struct {
	Prober     ports.Prober
	Detector   ports.SceneDetector
	Video      ports.VideoTool
	Workspaces ports.Workspaces
	// Rand feeds the random-fill policy; nil means time-seeded.
	Rand selection.Rand
	Log  zerolog.Logger
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase { return Usecase{d: d} }

type Input struct {
	InputPath string
	// OutputPath is normalized to an .mp4 path.
	OutputPath    string
	TargetSeconds float64
	Mode          Mode
	Policy        selection.Policy
	// Detect carries the detector tuning; WorkDir and SourceDuration are filled per run.
	Detect ports.DetectOptions
	RunID  string

	Progress ports.ProgressSink
	OnState  func(from, to State)
}

func (in Input) target() float64 {
	if in.TargetSeconds <= 0 {
		return DefaultTargetSeconds
	}
	return in.TargetSeconds
}

// OutputPath replaces any extension of p with .mp4.
func OutputPath(p string) string {
	if p == "" {
		return ""
	}
	return strings.TrimSuffix(p, filepath.Ext(p)) + ".mp4"
}

// Plan is the result of probing, detecting and selecting without cutting anything.
type Plan struct {
	RunID          string
	SourceDuration float64
	HasAudio       bool
	Scenes         types.SceneList
	Selected       []types.SelectedSpan
}

// Run executes one pipeline run. The workspace is released on every path,
// and DONE is entered only after it has been released.
func (u Usecase) Run(ctx context.Context, in Input) (types.RunSummary, error) {
	started := time.Now()
	in = u.prepare(in)
	t := newTracker(in.Progress, in.OnState)
	log := u.d.Log.With().Str("run_id", in.RunID).Logger()

	sum := types.RunSummary{RunID: in.RunID, Input: in.InputPath, Output: in.OutputPath}
	t.progress(progressStart)

	err := u.run(ctx, in, t, log, &sum)
	sum.Elapsed = time.Since(started)
	if err != nil {
		t.enter(StateFailed)
		log.Error().Err(err).Str("state", StateFailed.String()).Msg("run failed")
		return sum, err
	}

	t.enter(StateDone)
	t.progress(progressDone)
	log.Info().
		Str("output", sum.Output).
		Int("segments", len(sum.Extracted)).
		Float64("duration", sum.OutputDuration).
		Bool("audio", sum.AudioAttached).
		Dur("elapsed", sum.Elapsed).
		Msg("run complete")
	return sum, nil
}

func (u Usecase) run(ctx context.Context, in Input, t *tracker, log zerolog.Logger, sum *types.RunSummary) error {
	if in.InputPath == "" || in.OutputPath == "" {
		return stageErr(StateInit, ErrPrecondition, errors.New("input and output paths are required"))
	}

	info, err := u.probe(ctx, in, t, log)
	if err != nil {
		return err
	}
	sum.SourceDuration = info.Duration
	t.progress(progressProbed)

	return u.withWorkspace(in.RunID, t, log, func(ws ports.Workspace) error {
		scenes, spans, err := u.detectAndSelect(ctx, in, info, ws, t, log)
		if err != nil {
			return err
		}
		sum.Scenes = len(scenes)
		sum.Selected = spans

		t.enter(StateExtracting)
		segs, err := u.extract(ctx, in, spans, ws, log)
		if err != nil {
			return err
		}
		sum.Extracted = segs
		sum.OutputDuration = segmentsDuration(segs)
		t.progress(progressExtracted)

		t.enter(StateAssembling)
		res, err := u.assemble(ctx, in, info, segs, ws, log)
		if err != nil {
			return err
		}
		sum.AudioAttached = res.audio
		sum.Degraded = res.degraded
		return nil
	})
}

// Plan runs the stages up to selection. It shares Run's preconditions and
// workspace handling but never writes an output.
func (u Usecase) Plan(ctx context.Context, in Input) (Plan, error) {
	in = u.prepare(in)
	t := newTracker(in.Progress, in.OnState)
	log := u.d.Log.With().Str("run_id", in.RunID).Logger()
	t.progress(progressStart)

	info, err := u.probe(ctx, in, t, log)
	if err != nil {
		t.enter(StateFailed)
		return Plan{}, err
	}
	t.progress(progressProbed)

	p := Plan{RunID: in.RunID, SourceDuration: info.Duration, HasAudio: info.HasAudio}
	err = u.withWorkspace(in.RunID, t, log, func(ws ports.Workspace) error {
		scenes, spans, err := u.detectAndSelect(ctx, in, info, ws, t, log)
		p.Scenes, p.Selected = scenes, spans
		return err
	})
	if err != nil {
		t.enter(StateFailed)
		return Plan{}, err
	}
	return p, nil
}

func (u Usecase) prepare(in Input) Input {
	if in.RunID == "" {
		in.RunID = uuid.NewString()[:8]
	}
	if in.Mode == "" {
		in.Mode = ModeVideoOnly
	}
	if in.Policy == "" {
		in.Policy = selection.RandomFill
	}
	in.TargetSeconds = in.target()
	in.OutputPath = OutputPath(in.OutputPath)
	return in
}

func (u Usecase) probe(ctx context.Context, in Input, t *tracker, log zerolog.Logger) (ports.MediaInfo, error) {
	if in.InputPath == "" {
		return ports.MediaInfo{}, stageErr(StateInit, ErrPrecondition, errors.New("input path is required"))
	}
	t.enter(StateProbing)
	info, err := u.d.Prober.Probe(ctx, in.InputPath)
	if err != nil {
		return info, stageErr(StateProbing, ErrProbe, err)
	}
	log.Info().Float64("duration", info.Duration).Bool("audio", info.HasAudio).Msg("probed source")
	if info.Duration < in.TargetSeconds {
		return info, stageErr(StateProbing, ErrPrecondition,
			fmt.Errorf("source is %.2fs, target is %.2fs", info.Duration, in.TargetSeconds))
	}
	return info, nil
}

func (u Usecase) detectAndSelect(
	ctx context.Context,
	in Input,
	info ports.MediaInfo,
	ws ports.Workspace,
	t *tracker,
	log zerolog.Logger,
) (types.SceneList, []types.SelectedSpan, error) {
	t.enter(StateDetecting)
	opts := in.Detect
	opts.WorkDir = ws.Dir()
	opts.SourceDuration = info.Duration

	scenes, err := u.d.Detector.Detect(ctx, in.InputPath, opts)
	if err != nil {
		return nil, nil, stageErr(StateDetecting, ErrDetection, err)
	}
	if len(scenes) == 0 {
		return nil, nil, stageErr(StateDetecting, ErrDetection, errors.New("no scenes detected"))
	}
	log.Info().Int("scenes", len(scenes)).Msg("scenes detected")
	t.progress(progressDetected)

	t.enter(StateSelecting)
	spans := selection.Select(scenes, in.TargetSeconds, selection.Options{Policy: in.Policy, Rand: u.d.Rand})
	for _, s := range spans {
		log.Debug().
			Str("provenance", s.Provenance.String()).
			Float64("start", s.Start).
			Float64("end", s.End).
			Bool("truncated", s.Truncated).
			Msg("span selected")
	}
	log.Info().
		Int("spans", len(spans)).
		Float64("total", types.SpansDuration(spans)).
		Str("policy", string(in.Policy)).
		Msg("scenes selected")
	t.progress(progressSelected)
	return scenes, spans, nil
}

// withWorkspace acquires the run workspace, runs fn and releases the
// workspace whatever fn returns. Release failures are logged only.
// Acquiring the workspace is the first step of DETECTING.
func (u Usecase) withWorkspace(runID string, t *tracker, log zerolog.Logger, fn func(ports.Workspace) error) error {
	t.enter(StateDetecting)
	ws, err := u.d.Workspaces.Acquire(runID)
	if err != nil {
		return stageErr(StateDetecting, ErrWorkspace, err)
	}
	log.Debug().Str("dir", ws.Dir()).Msg("workspace acquired")
	defer func() {
		if err := ws.Release(); err != nil {
			log.Warn().Err(fmt.Errorf("%w: %w", ErrCleanup, err)).Str("dir", ws.Dir()).Msg("workspace not removed")
			return
		}
		log.Debug().Msg("workspace released")
	}()
	return fn(ws)
}

func (u Usecase) extract(
	ctx context.Context,
	in Input,
	spans []types.SelectedSpan,
	ws ports.Workspace,
	log zerolog.Logger,
) ([]types.Segment, error) {
	withAudio := in.Mode == ModeVideoAudio
	segs := make([]types.Segment, 0, len(spans))
	var lastErr error
	for i, span := range spans {
		file := ws.Path(fmt.Sprintf("segment_%03d.mp4", i))
		err := u.d.Video.TrimCopy(ctx, in.InputPath, span.Start, span.Duration(), withAudio, file)
		if err == nil {
			segs = append(segs, types.Segment{Span: span, File: file})
			continue
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, stageErr(StateExtracting, ErrSegmentExtraction, ctxErr)
		}
		lastErr = err
		log.Warn().
			Err(err).
			Int("index", i).
			Float64("start", span.Start).
			Float64("duration", span.Duration()).
			Msg("segment dropped")
	}
	if len(segs) == 0 {
		if lastErr == nil {
			lastErr = errors.New("nothing selected")
		}
		return nil, stageErr(StateExtracting, ErrSegmentExtraction, lastErr)
	}
	log.Info().Int("extracted", len(segs)).Int("dropped", len(spans)-len(segs)).Msg("segments extracted")
	return segs, nil
}

func segmentsDuration(segs []types.Segment) float64 {
	var sum float64
	for _, s := range segs {
		sum += s.Span.Duration()
	}
	return sum
}
