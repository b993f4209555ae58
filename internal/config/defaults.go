package config

import (
	"sort"
	"strings"
)

const (
	defaultConfigPath = "~/.config/scenecut/config.toml"
	projectConfigName = "scenecut.toml"

	defaultOutputDir     = "~/Downloads"
	defaultFFmpeg        = "ffmpeg"
	defaultFFprobe       = "ffprobe"
	defaultSceneDetect   = "scenedetect"
	defaultTargetSeconds = 25.0
	defaultPreset        = "coarse"
	defaultBackend       = BackendSceneDetect
	defaultSceneScore    = 0.3
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"
)

const (
	BackendSceneDetect = "scenedetect"
	BackendFFmpeg      = "ffmpeg"
)

// Preset is a complete detector and selector tuning.
type Preset struct {
	Name           string
	Threshold      float64
	MinSceneLen    int
	MinSpanSeconds float64
	Policy         string
	Mode           string
}

var presets = map[string]Preset{
	// cuts without audio, random middle fill
	"coarse": {
		Name:           "coarse",
		Threshold:      30,
		MinSpanSeconds: 0.5,
		Policy:         "random",
		Mode:           "video-only",
	},
	// cuts with audio, longest scenes first
	"fine": {
		Name:           "fine",
		Threshold:      27,
		MinSceneLen:    15,
		MinSpanSeconds: 1.0,
		Policy:         "longest",
		Mode:           "video-audio",
	},
}

func LookupPreset(name string) (Preset, bool) {
	p, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
		},
		Tools: Tools{
			FFmpeg:      defaultFFmpeg,
			FFprobe:     defaultFFprobe,
			SceneDetect: defaultSceneDetect,
		},
		Edit: Edit{
			TargetSeconds: defaultTargetSeconds,
			Preset:        defaultPreset,
		},
		Detect: Detect{
			Backend:    defaultBackend,
			SceneScore: defaultSceneScore,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
