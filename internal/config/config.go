package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains output and scratch locations.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	WorkDir   string `toml:"work_dir"`
}

// Tools names the external binaries.
type Tools struct {
	FFmpeg      string `toml:"ffmpeg"`
	FFprobe     string `toml:"ffprobe"`
	SceneDetect string `toml:"scenedetect"`
}

// Edit controls selection and assembly.
type Edit struct {
	TargetSeconds float64 `toml:"target_seconds"`
	Preset        string  `toml:"preset"`
	Mode          string  `toml:"mode"`   // empty: taken from the preset
	Policy        string  `toml:"policy"` // empty: taken from the preset
	Seed          int64   `toml:"seed"`   // 0 seeds from the clock
}

// Detect tunes scene detection. Zero values are filled from the preset.
type Detect struct {
	Backend        string  `toml:"backend"`
	Threshold      float64 `toml:"threshold"`
	MinSceneLen    int     `toml:"min_scene_len"`
	MinSpanSeconds float64 `toml:"min_span_seconds"`
	// SceneScore is the 0..1 score used by the ffmpeg backend.
	SceneScore float64 `toml:"scene_score"`
}

type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

type Config struct {
	Paths   Paths   `toml:"paths"`
	Tools   Tools   `toml:"tools"`
	Edit    Edit    `toml:"edit"`
	Detect  Detect  `toml:"detect"`
	Logging Logging `toml:"logging"`
}

// Load locates, parses and validates a configuration file. Environment
// variables are applied over the file, then overrides in order, then the
// preset fills whatever is still unset.
func Load(path string, overrides ...func(*Config)) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	cfg.applyEnv()
	for _, o := range overrides {
		o(&cfg)
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// ErrConfigExists is returned by CreateSample when the target is present and
// overwrite is not set.
var ErrConfigExists = errors.New("config file already exists")

// CreateSample writes the commented sample configuration to path and returns
// the expanded path it wrote.
func CreateSample(path string, overwrite bool) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultConfigPath
	}
	expanded, err := expandPath(strings.TrimSpace(path))
	if err != nil {
		return "", err
	}
	info, err := os.Stat(expanded)
	switch {
	case err == nil && info.IsDir():
		return "", fmt.Errorf("%s is a directory", expanded)
	case err == nil && !overwrite:
		return "", fmt.Errorf("%w: %s", ErrConfigExists, expanded)
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("stat config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return "", fmt.Errorf("write sample config: %w", err)
	}
	return expanded, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// Resolved returns the defaults with environment overrides, the preset and
// path expansion applied, without reading any file.
func Resolved() (*Config, error) {
	cfg := Default()
	cfg.applyEnv()
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
