package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTools()
	c.ApplyPreset()
	c.normalizeLogging()
	return nil
}

func (c *Config) applyEnv() {
	overrides := []struct {
		key string
		dst *string
	}{
		{"SCENECUT_FFMPEG", &c.Tools.FFmpeg},
		{"SCENECUT_FFPROBE", &c.Tools.FFprobe},
		{"SCENECUT_SCENEDETECT", &c.Tools.SceneDetect},
		{"SCENECUT_OUTPUT_DIR", &c.Paths.OutputDir},
		{"SCENECUT_LOG_LEVEL", &c.Logging.Level},
	}
	for _, o := range overrides {
		if v, ok := os.LookupEnv(o.key); ok && strings.TrimSpace(v) != "" {
			*o.dst = strings.TrimSpace(v)
		}
	}
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.OutputDir, err = expandPath(strings.TrimSpace(c.Paths.OutputDir)); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.WorkDir, err = expandPath(strings.TrimSpace(c.Paths.WorkDir)); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTools() {
	c.Tools.FFmpeg = orDefault(c.Tools.FFmpeg, defaultFFmpeg)
	c.Tools.FFprobe = orDefault(c.Tools.FFprobe, defaultFFprobe)
	c.Tools.SceneDetect = orDefault(c.Tools.SceneDetect, defaultSceneDetect)
	c.Detect.Backend = strings.ToLower(orDefault(c.Detect.Backend, defaultBackend))
	if c.Detect.SceneScore == 0 {
		c.Detect.SceneScore = defaultSceneScore
	}
}

// ApplyPreset fills unset edit and detect fields from the named preset.
// Unknown presets are left for Validate to report.
func (c *Config) ApplyPreset() {
	c.Edit.Preset = strings.ToLower(orDefault(c.Edit.Preset, defaultPreset))
	if c.Edit.TargetSeconds == 0 {
		c.Edit.TargetSeconds = defaultTargetSeconds
	}
	p, ok := LookupPreset(c.Edit.Preset)
	if !ok {
		return
	}
	if strings.TrimSpace(c.Edit.Mode) == "" {
		c.Edit.Mode = p.Mode
	}
	if strings.TrimSpace(c.Edit.Policy) == "" {
		c.Edit.Policy = p.Policy
	}
	if c.Detect.Threshold == 0 {
		c.Detect.Threshold = p.Threshold
	}
	if c.Detect.MinSceneLen == 0 {
		c.Detect.MinSceneLen = p.MinSceneLen
	}
	if c.Detect.MinSpanSeconds == 0 {
		c.Detect.MinSpanSeconds = p.MinSpanSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(orDefault(c.Logging.Format, defaultLogFormat))
	c.Logging.Level = strings.ToLower(orDefault(c.Logging.Level, defaultLogLevel))
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}
