package ffmpeg

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	ffmpeggo "github.com/u2takey/ffmpeg-go"

	"github.com/forPelevin/scenecut/internal/logging"
	"github.com/forPelevin/scenecut/internal/ports"
)

type Adapter struct {
	exec    ports.Executor
	ffmpeg  string
	ffprobe string
	log     zerolog.Logger
}

func New(exec ports.Executor, ffmpegPath, ffprobePath string, log zerolog.Logger) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{
		exec:    exec,
		ffmpeg:  ffmpegPath,
		ffprobe: ffprobePath,
		log:     logging.WithComponent(log, "ffmpeg"),
	}
}

// TrimCopy cuts [start, start+duration) out of in without re-encoding.
// Audio is dropped unless withAudio is set.
func (a *Adapter) TrimCopy(ctx context.Context, in string, start, duration float64, withAudio bool, out string) error {
	outArgs := ffmpeggo.KwArgs{
		"c:v":               "copy",
		"avoid_negative_ts": "make_zero",
	}
	if withAudio {
		outArgs["c:a"] = "copy"
	} else {
		outArgs["an"] = ""
	}
	args := ffmpeggo.Input(in, ffmpeggo.KwArgs{
		"ss": fmtSeconds(start),
		"t":  fmtSeconds(duration),
	}).Output(out, outArgs).OverWriteOutput().GetArgs()

	if err := a.run(ctx, args); err != nil {
		return fmt.Errorf("ffmpeg trim segment: %w", err)
	}
	return nil
}

// ConcatCopy joins the files listed in a concat-demuxer manifest.
func (a *Adapter) ConcatCopy(ctx context.Context, manifest, out string) error {
	args := ffmpeggo.Input(manifest, ffmpeggo.KwArgs{
		"f":    "concat",
		"safe": "0",
	}).Output(out, ffmpeggo.KwArgs{"c": "copy"}).OverWriteOutput().GetArgs()

	if err := a.run(ctx, args); err != nil {
		return fmt.Errorf("ffmpeg concat: %w", err)
	}
	return nil
}

// ExtractAudio writes the first duration seconds of in's audio as MP3.
func (a *Adapter) ExtractAudio(ctx context.Context, in string, duration float64, out string) error {
	args := ffmpeggo.Input(in, ffmpeggo.KwArgs{
		"t": fmtSeconds(duration),
	}).Output(out, ffmpeggo.KwArgs{
		"vn":     "",
		"acodec": "libmp3lame",
		"q:a":    "0",
	}).OverWriteOutput().GetArgs()

	if err := a.run(ctx, args); err != nil {
		return fmt.Errorf("ffmpeg extract audio: %w", err)
	}
	return nil
}

// Mux copies the video stream of video and re-encodes audio to AAC.
func (a *Adapter) Mux(ctx context.Context, video, audio, out string) error {
	args := ffmpeggo.Output(
		[]*ffmpeggo.Stream{ffmpeggo.Input(video), ffmpeggo.Input(audio)},
		out,
		ffmpeggo.KwArgs{
			"c:v":      "copy",
			"c:a":      "aac",
			"shortest": "",
		},
	).OverWriteOutput().GetArgs()

	if err := a.run(ctx, args); err != nil {
		return fmt.Errorf("ffmpeg mux audio: %w", err)
	}
	return nil
}

func (a *Adapter) run(ctx context.Context, args []string) error {
	_, err := a.exec.Run(ctx, ports.Command{Name: a.ffmpeg, Args: args})
	return err
}

func fmtSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 3, 64)
}
