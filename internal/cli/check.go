package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forPelevin/scenecut/internal/config"
	"github.com/forPelevin/scenecut/internal/deps"
)

func newCheckCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report whether the external tools are installed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			statuses := deps.CheckBinaries(requirements(cfg))

			rows := make([][]string, 0, len(statuses))
			for _, s := range statuses {
				state, detail := "ok", s.Path
				switch {
				case !s.Available && s.Optional:
					state, detail = "optional", s.Detail
				case !s.Available:
					state, detail = "missing", s.Detail
				}
				rows = append(rows, []string{s.Name, s.Command, state, detail})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Tool", "Command", "Status", "Detail"}, rows, nil))

			if missing := deps.Missing(statuses); len(missing) > 0 {
				return fmt.Errorf("%d required tool(s) missing", len(missing))
			}
			return nil
		},
	}
}

func requirements(cfg *config.Config) []deps.Requirement {
	return []deps.Requirement{
		{Name: "ffmpeg", Command: cfg.Tools.FFmpeg, Description: "segment cutting, concat and mux"},
		{Name: "ffprobe", Command: cfg.Tools.FFprobe, Description: "duration probe"},
		{
			Name:        "scenedetect",
			Command:     cfg.Tools.SceneDetect,
			Description: "PySceneDetect content detector",
			Optional:    cfg.Detect.Backend != config.BackendSceneDetect,
		},
	}
}
