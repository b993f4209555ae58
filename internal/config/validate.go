package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/forPelevin/scenecut/internal/domain/selection"
	"github.com/forPelevin/scenecut/internal/logging"
	"github.com/forPelevin/scenecut/internal/usecase"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEdit(); err != nil {
		return err
	}
	if err := c.validateDetect(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateEdit() error {
	if c.Edit.TargetSeconds <= 0 {
		return errors.New("edit.target_seconds must be positive")
	}
	if _, ok := LookupPreset(c.Edit.Preset); !ok {
		return fmt.Errorf("edit.preset %q is unknown (want one of %s)", c.Edit.Preset, strings.Join(PresetNames(), ", "))
	}
	if _, err := usecase.ParseMode(c.Edit.Mode); err != nil {
		return fmt.Errorf("edit.mode: %w", err)
	}
	if _, err := selection.ParsePolicy(c.Edit.Policy); err != nil {
		return fmt.Errorf("edit.policy: %w", err)
	}
	if c.Edit.Seed < 0 {
		return errors.New("edit.seed must not be negative")
	}
	return nil
}

func (c *Config) validateDetect() error {
	switch c.Detect.Backend {
	case BackendSceneDetect, BackendFFmpeg:
	default:
		return fmt.Errorf("detect.backend %q is unknown (want %s or %s)", c.Detect.Backend, BackendSceneDetect, BackendFFmpeg)
	}
	if c.Detect.Threshold <= 0 {
		return errors.New("detect.threshold must be positive")
	}
	if c.Detect.MinSceneLen < 0 {
		return errors.New("detect.min_scene_len must not be negative")
	}
	if c.Detect.MinSpanSeconds < 0 {
		return errors.New("detect.min_span_seconds must not be negative")
	}
	if c.Detect.SceneScore <= 0 || c.Detect.SceneScore >= 1 {
		return errors.New("detect.scene_score must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q is unknown (want console or json)", c.Logging.Format)
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}
