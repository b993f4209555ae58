package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/forPelevin/scenecut/internal/usecase"
)

func Main() {
	os.Exit(Execute(os.Args[1:], os.Stdout, os.Stderr))
}

// Execute runs the command line and returns the process exit code.
func Execute(args []string, stdout, stderr io.Writer) int {
	_ = godotenv.Load() // best-effort: load .env if present

	root := newRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		reportError(stderr, err)
		return 1
	}
	return 0
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "scenecut <input>",
		Short: "Cut a fixed-length highlight clip out of a video",
		Long: "scenecut detects scene cuts in a video, keeps the opening and closing scenes,\n" +
			"fills the rest of the target duration from the scenes in between and\n" +
			"stream-copies the result into a single mp4.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args[0])
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Config file (default ~/.config/scenecut/config.toml)")
	pf.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&opts.logFormat, "log-format", "", "Log format: console or json")
	pf.Float64Var(&opts.target, "target", 0, "Target duration in seconds (default 25)")
	pf.StringVar(&opts.preset, "preset", "", "Tuning preset: coarse or fine")
	pf.StringVar(&opts.mode, "mode", "", "video-only (one muxed audio track) or video-audio (audio per segment)")
	pf.StringVar(&opts.policy, "policy", "", "Middle fill policy: random or longest")
	pf.StringVar(&opts.detector, "detector", "", "Scene detector backend: scenedetect or ffmpeg")
	pf.Float64Var(&opts.threshold, "threshold", 0, "Content threshold for scenedetect")
	pf.Float64Var(&opts.sceneScore, "scene-score", 0, "Scene score (0..1) for the ffmpeg detector")
	pf.IntVar(&opts.minSceneLen, "min-scene-len", 0, "Minimum scene length in frames for scenedetect")
	pf.Float64Var(&opts.minSpan, "min-span", 0, "Drop detected scenes shorter than this many seconds")
	pf.Int64Var(&opts.seed, "seed", 0, "Seed for the random fill (0 = new seed every run)")
	pf.StringVar(&opts.workDir, "work-dir", "", "Parent directory for run workspaces")
	_ = pf.MarkHidden("work-dir")

	root.Flags().StringVarP(&opts.out, "out", "o", "", "Output file (default <output_dir>/edited_<input>.mp4)")
	root.Flags().BoolVar(&opts.noProgress, "no-progress", false, "Disable the progress bar")

	root.AddCommand(newPlanCommand(opts))
	root.AddCommand(newCheckCommand(opts))
	root.AddCommand(newConfigCommand(opts))
	return root
}

func reportError(w io.Writer, err error) {
	var se *usecase.StageError
	if errors.As(err, &se) {
		if diag := se.Diagnostic(); diag != "" {
			msg := strings.TrimSpace(strings.Replace(err.Error(), diag, "", 1))
			fmt.Fprintln(w, "error:", msg)
			fmt.Fprintln(w, "tool output:")
			fmt.Fprintln(w, lastLines(diag, 10))
			return
		}
	}
	fmt.Fprintln(w, "error:", err)
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
