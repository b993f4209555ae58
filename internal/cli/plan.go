package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/forPelevin/scenecut/internal/pipeline"
)

func newPlanCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "plan <input>",
		Short: "Show which scenes a run would keep, without cutting anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd, opts)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			absIn, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			pc, err := pipeline.FromConfig(cfg, absIn, "")
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			pc.Log = log

			p, err := pipeline.Plan(commandContext(cmd), pc)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderPlan(p, pc.TargetSeconds))
			return nil
		},
	}
}
