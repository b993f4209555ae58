package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	ffmpeggo "github.com/u2takey/ffmpeg-go"

	"github.com/forPelevin/scenecut/internal/ports"
	"github.com/forPelevin/scenecut/internal/types"
)

var ErrNoScenes = errors.New("scene filter found no usable scenes")

var rePtsTime = regexp.MustCompile(`pts_time:([0-9]+(?:\.[0-9]+)?)`)

// Detect runs ffmpeg's scene-change score filter. opts.Threshold is the
// scene score in 0..1; scenes are closed with opts.SourceDuration.
func (a *Adapter) Detect(ctx context.Context, path string, opts ports.DetectOptions) (types.SceneList, error) {
	if opts.SourceDuration <= 0 {
		return nil, errors.New("ffmpeg scene detect: source duration is required")
	}
	score := opts.Threshold
	if score <= 0 || score >= 1 {
		score = 0.3
	}

	args := ffmpeggo.Input(path).Output("-", ffmpeggo.KwArgs{
		"vf": fmt.Sprintf("select='gt(scene,%s)',metadata=print:file=-", strconv.FormatFloat(score, 'f', -1, 64)),
		"an": "",
		"f":  "null",
	}).GetArgs()

	res, err := a.exec.Run(ctx, ports.Command{Name: a.ffmpeg, Args: args})
	if err != nil {
		return nil, fmt.Errorf("ffmpeg scene detect: %w", err)
	}

	scenes := ScenesFromCuts(ParseCuts(string(res.Stdout)), opts.SourceDuration).Longer(opts.MinSpan)
	a.log.Info().Int("scenes", len(scenes)).Float64("score", score).Msg("scene filter complete")
	if len(scenes) == 0 {
		return nil, ErrNoScenes
	}
	return scenes, nil
}

// ParseCuts extracts cut timestamps from metadata=print output.
func ParseCuts(output string) []float64 {
	var cuts []float64
	for _, m := range rePtsTime.FindAllStringSubmatch(output, -1) {
		sec, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		cuts = append(cuts, sec)
	}
	return cuts
}

// ScenesFromCuts partitions [0, total) at the given cut points.
func ScenesFromCuts(cuts []float64, total float64) types.SceneList {
	var (
		out  types.SceneList
		prev float64
	)
	for _, c := range cuts {
		if c <= prev || c >= total {
			continue
		}
		out = append(out, types.Scene{Start: prev, End: c})
		prev = c
	}
	if total > prev {
		out = append(out, types.Scene{Start: prev, End: total})
	}
	return out
}
