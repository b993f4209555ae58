package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/forPelevin/scenecut/internal/config"
	"github.com/forPelevin/scenecut/internal/domain/selection"
	"github.com/forPelevin/scenecut/internal/ports"
	"github.com/forPelevin/scenecut/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/scenecut/internal/ports/adapters/process"
	"github.com/forPelevin/scenecut/internal/ports/adapters/scenedetect"
	"github.com/forPelevin/scenecut/internal/types"
	"github.com/forPelevin/scenecut/internal/usecase"
	"github.com/forPelevin/scenecut/internal/workspace"
)

// SupportedExtensions are the input containers accepted by Validate.
var SupportedExtensions = []string{".mp4", ".mov", ".avi", ".mkv"}

type Config struct {
	Input string
	// Output is optional; empty means <OutputDir>/edited_<input name>.mp4.
	Output    string
	OutputDir string
	// WorkDir holds run workspaces and input locks; empty uses the system temp dir.
	WorkDir string

	TargetSeconds float64
	Mode          usecase.Mode
	Policy        selection.Policy
	Seed          int64

	Backend        string
	Threshold      float64
	MinSceneLen    int
	MinSpanSeconds float64
	SceneScore     float64

	FFmpegPath      string
	FFprobePath     string
	SceneDetectPath string

	Log      zerolog.Logger
	Progress ports.ProgressSink
}

// FromConfig maps a loaded configuration onto a run of input.
func FromConfig(c *config.Config, input, output string) (Config, error) {
	mode, err := usecase.ParseMode(c.Edit.Mode)
	if err != nil {
		return Config{}, err
	}
	policy, err := selection.ParsePolicy(c.Edit.Policy)
	if err != nil {
		return Config{}, err
	}
	return Config{
		Input:           input,
		Output:          output,
		OutputDir:       c.Paths.OutputDir,
		WorkDir:         c.Paths.WorkDir,
		TargetSeconds:   c.Edit.TargetSeconds,
		Mode:            mode,
		Policy:          policy,
		Seed:            c.Edit.Seed,
		Backend:         c.Detect.Backend,
		Threshold:       c.Detect.Threshold,
		MinSceneLen:     c.Detect.MinSceneLen,
		MinSpanSeconds:  c.Detect.MinSpanSeconds,
		SceneScore:      c.Detect.SceneScore,
		FFmpegPath:      c.Tools.FFmpeg,
		FFprobePath:     c.Tools.FFprobe,
		SceneDetectPath: c.Tools.SceneDetect,
		Log:             zerolog.Nop(),
	}, nil
}

func (c Config) Validate() error {
	if c.Input == "" {
		return errors.New("input is empty")
	}
	info, err := os.Stat(c.Input)
	if err != nil {
		return fmt.Errorf("stat input: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("input %s is not a regular file", c.Input)
	}
	ext := strings.ToLower(filepath.Ext(c.Input))
	if !slices.Contains(SupportedExtensions, ext) {
		return fmt.Errorf("unsupported input format %q (want one of %s)", ext, strings.Join(SupportedExtensions, " "))
	}
	if c.TargetSeconds <= 0 {
		return errors.New("target duration must be > 0")
	}
	if c.MinSpanSeconds < 0 {
		return errors.New("min span must be >= 0")
	}
	switch c.Backend {
	case config.BackendSceneDetect, config.BackendFFmpeg, "":
	default:
		return fmt.Errorf("unknown detector backend %q", c.Backend)
	}
	return nil
}

// Run validates cfg, takes the input lock and executes one run.
func Run(ctx context.Context, cfg Config) (types.RunSummary, error) {
	if err := cfg.Validate(); err != nil {
		return types.RunSummary{}, err
	}
	out, err := ResolveOutput(cfg)
	if err != nil {
		return types.RunSummary{}, err
	}

	lock, err := workspace.LockInput(cfg.WorkDir, cfg.Input)
	if err != nil {
		return types.RunSummary{}, err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			cfg.Log.Warn().Err(err).Str("lock", lock.Path()).Msg("release input lock")
		}
	}()

	in := cfg.input(out)
	cfg.Log.Info().
		Str("run_id", in.RunID).
		Str("input", cfg.Input).
		Str("output", in.OutputPath).
		Float64("target", in.TargetSeconds).
		Str("mode", string(in.Mode)).
		Str("policy", string(in.Policy)).
		Str("detector", cfg.backend()).
		Msg("starting run")
	return usecase.New(cfg.deps()).Run(ctx, in)
}

// Plan probes, detects and selects without extracting anything.
func Plan(ctx context.Context, cfg Config) (usecase.Plan, error) {
	if err := cfg.Validate(); err != nil {
		return usecase.Plan{}, err
	}
	return usecase.New(cfg.deps()).Plan(ctx, cfg.input(""))
}

// Process runs the default configuration over input and reports whether an
// output file was produced. Failures are logged, not returned.
func Process(ctx context.Context, input, output string, targetSeconds float64, progress ports.ProgressSink) bool {
	base, err := config.Resolved()
	if err != nil {
		log.Error().Err(err).Str("input", input).Msg("resolve config")
		return false
	}
	cfg, err := FromConfig(base, input, output)
	if err != nil {
		log.Error().Err(err).Str("input", input).Msg("resolve config")
		return false
	}
	if targetSeconds > 0 {
		cfg.TargetSeconds = targetSeconds
	}
	cfg.Progress = progress
	cfg.Log = log.Logger

	sum, err := Run(ctx, cfg)
	if err != nil {
		cfg.Log.Error().Err(err).Msg("run failed")
		return false
	}
	_, err = os.Stat(sum.Output)
	return err == nil
}

// ResolveOutput returns the .mp4 output path for cfg.
func ResolveOutput(cfg Config) (string, error) {
	if cfg.Output != "" {
		abs, err := filepath.Abs(cfg.Output)
		if err != nil {
			return "", err
		}
		return usecase.OutputPath(abs), nil
	}

	dir := cfg.OutputDir
	if info, err := os.Stat(dir); dir == "" || err != nil || !info.IsDir() {
		dir = filepath.Dir(cfg.Input)
	}
	abs, err := filepath.Abs(filepath.Join(dir, "edited_"+filepath.Base(cfg.Input)))
	if err != nil {
		return "", err
	}
	return usecase.OutputPath(abs), nil
}

func (c Config) input(output string) usecase.Input {
	threshold := c.Threshold
	if c.backend() == config.BackendFFmpeg {
		threshold = c.SceneScore
	}
	return usecase.Input{
		InputPath:     c.Input,
		OutputPath:    output,
		TargetSeconds: c.TargetSeconds,
		Mode:          c.Mode,
		Policy:        c.Policy,
		RunID:         runID(c.Input),
		Detect: ports.DetectOptions{
			Threshold:   threshold,
			MinSceneLen: c.MinSceneLen,
			MinSpan:     c.MinSpanSeconds,
		},
		Progress: c.Progress,
	}
}

func (c Config) deps() usecase.Deps {
	exec := process.New(c.Log)
	video := ffmpeg.New(exec, c.FFmpegPath, c.FFprobePath, c.Log)

	var detector ports.SceneDetector = video
	if c.backend() == config.BackendSceneDetect {
		detector = scenedetect.New(exec, c.SceneDetectPath, c.Log)
	}

	var rng selection.Rand
	if c.Seed > 0 {
		rng = rand.New(rand.NewPCG(uint64(c.Seed), uint64(c.Seed)))
	}

	return usecase.Deps{
		Prober:     video,
		Detector:   detector,
		Video:      video,
		Workspaces: workspace.Manager{Base: c.WorkDir},
		Rand:       rng,
		Log:        c.Log,
	}
}

func (c Config) backend() string {
	if c.Backend == "" {
		return config.BackendSceneDetect
	}
	return c.Backend
}

// runID is a short readable id: the normalized input name plus a random suffix.
func runID(input string) string {
	name := normalizePathSegment(strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)))
	if name == "" {
		name = "input"
	}
	if r := []rune(name); len(r) > 24 {
		name = strings.TrimRight(string(r[:24]), "-")
	}
	return name + "-" + uuid.NewString()[:8]
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

// ensure adapters implement ports
var (
	_ ports.Executor      = (*process.Executor)(nil)
	_ ports.Prober        = (*ffmpeg.Adapter)(nil)
	_ ports.VideoTool     = (*ffmpeg.Adapter)(nil)
	_ ports.SceneDetector = (*ffmpeg.Adapter)(nil)
	_ ports.SceneDetector = (*scenedetect.Adapter)(nil)
	_ ports.Workspaces    = workspace.Manager{}
)
