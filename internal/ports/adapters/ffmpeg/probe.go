package ffmpeg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/forPelevin/scenecut/internal/ports"
)

var ErrNoDuration = errors.New("no usable duration in probe output")

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

type probeStream struct {
	CodecType string `json:"codec_type"`
	Duration  string `json:"duration"`
}

// Probe reads the primary video stream duration, falling back to the
// container duration when the stream does not report one.
func (a *Adapter) Probe(ctx context.Context, path string) (ports.MediaInfo, error) {
	res, err := a.exec.Run(ctx, ports.Command{
		Name: a.ffprobe,
		Args: []string{
			"-v", "error",
			"-show_entries", "stream=codec_type,duration:format=duration",
			"-of", "json",
			path,
		},
	})
	if err != nil {
		return ports.MediaInfo{}, fmt.Errorf("ffprobe: %w", err)
	}
	info, err := ParseProbe(res.Stdout)
	if err != nil {
		return ports.MediaInfo{}, err
	}
	a.log.Debug().Float64("duration", info.Duration).Bool("audio", info.HasAudio).Str("input", path).Msg("probed")
	return info, nil
}

// ParseProbe decodes ffprobe JSON output.
func ParseProbe(b []byte) (ports.MediaInfo, error) {
	var out probeOutput
	if err := json.Unmarshal(b, &out); err != nil {
		return ports.MediaInfo{}, fmt.Errorf("parse ffprobe json: %w", err)
	}

	var info ports.MediaInfo
	videoDuration := ""
	for _, s := range out.Streams {
		switch strings.ToLower(s.CodecType) {
		case "video":
			if videoDuration == "" {
				videoDuration = s.Duration
			}
		case "audio":
			info.HasAudio = true
		}
	}

	for _, raw := range []string{videoDuration, out.Format.Duration} {
		raw = strings.TrimSpace(raw)
		if raw == "" || raw == "N/A" {
			continue
		}
		sec, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return ports.MediaInfo{}, fmt.Errorf("parse duration %q: %w", raw, ErrNoDuration)
		}
		if sec <= 0 {
			continue
		}
		info.Duration = sec
		return info, nil
	}
	return ports.MediaInfo{}, ErrNoDuration
}
