package cli

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/forPelevin/scenecut/internal/config"
	"github.com/forPelevin/scenecut/internal/logging"
)

type options struct {
	configPath string
	logLevel   string
	logFormat  string

	out        string
	noProgress bool

	target      float64
	preset      string
	mode        string
	policy      string
	detector    string
	threshold   float64
	sceneScore  float64
	minSceneLen int
	minSpan     float64
	seed        int64
	workDir     string
}

// loadConfig reads the config file and applies the flags the user set.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	f := cmd.Flags()
	cfg, _, _, err := config.Load(opts.configPath, func(c *config.Config) {
		if f.Changed("log-level") {
			c.Logging.Level = opts.logLevel
		}
		if f.Changed("log-format") {
			c.Logging.Format = opts.logFormat
		}
		if f.Changed("target") {
			c.Edit.TargetSeconds = opts.target
		}
		if f.Changed("preset") {
			c.Edit.Preset = opts.preset
		}
		if f.Changed("mode") {
			c.Edit.Mode = opts.mode
		}
		if f.Changed("policy") {
			c.Edit.Policy = opts.policy
		}
		if f.Changed("seed") {
			c.Edit.Seed = opts.seed
		}
		if f.Changed("detector") {
			c.Detect.Backend = opts.detector
		}
		if f.Changed("threshold") {
			c.Detect.Threshold = opts.threshold
		}
		if f.Changed("scene-score") {
			c.Detect.SceneScore = opts.sceneScore
		}
		if f.Changed("min-scene-len") {
			c.Detect.MinSceneLen = opts.minSceneLen
		}
		if f.Changed("min-span") {
			c.Detect.MinSpanSeconds = opts.minSpan
		}
		if f.Changed("work-dir") {
			c.Paths.WorkDir = opts.workDir
		}
	})
	return cfg, err
}

// setup loads the configuration and builds the logger for a command.
func setup(cmd *cobra.Command, opts *options) (*config.Config, zerolog.Logger, error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Writer: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log.Logger = logger
	return cfg, logger, nil
}
