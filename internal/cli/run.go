package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/forPelevin/scenecut/internal/pipeline"
)

func run(cmd *cobra.Command, opts *options, input string) error {
	cfg, log, err := setup(cmd, opts)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	absIn, err := filepath.Abs(input)
	if err != nil {
		return err
	}
	pc, err := pipeline.FromConfig(cfg, absIn, opts.out)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	pc.Log = log
	if err := pc.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// an interrupt kills the running tool; the run then fails and cleans up
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bar := newProgress(cmd.ErrOrStderr(), opts.noProgress)
	pc.Progress = bar.set
	sum, err := pipeline.Run(ctx, pc)
	bar.finish()
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderSummary(sum))
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
