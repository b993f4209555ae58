package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/forPelevin/scenecut/internal/ports"
	"github.com/forPelevin/scenecut/internal/types"
)

type assembly struct {
	audio    bool
	degraded bool
}

// assemble joins segs inside the workspace and moves the finished file to
// in.OutputPath. The output path is only ever written with a complete file.
func (u Usecase) assemble(
	ctx context.Context,
	in Input,
	info ports.MediaInfo,
	segs []types.Segment,
	ws ports.Workspace,
	log zerolog.Logger,
) (assembly, error) {
	manifest := ws.Path("segments.txt")
	if err := WriteConcatManifest(manifest, segs); err != nil {
		return assembly{}, stageErr(StateAssembling, ErrConcatenation, err)
	}

	if in.Mode == ModeVideoAudio {
		final := ws.Path("final.mp4")
		if err := u.d.Video.ConcatCopy(ctx, manifest, final); err != nil {
			return assembly{}, stageErr(StateAssembling, ErrConcatenation, err)
		}
		if err := publish(final, in.OutputPath); err != nil {
			return assembly{}, stageErr(StateAssembling, ErrConcatenation, err)
		}
		return assembly{audio: info.HasAudio}, nil
	}

	silent := ws.Path("concat.mp4")
	if err := u.d.Video.ConcatCopy(ctx, manifest, silent); err != nil {
		return assembly{}, stageErr(StateAssembling, ErrConcatenation, err)
	}

	res := assembly{audio: true}
	final := ws.Path("final.mp4")
	if err := u.attachAudio(ctx, in, info, segmentsDuration(segs), silent, final, ws); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return assembly{}, stageErr(StateAssembling, ErrMux, ctxErr)
		}
		log.Warn().Err(err).Msg("audio not attached, writing silent video")
		res = assembly{degraded: true}
		final = silent
	}
	if err := publish(final, in.OutputPath); err != nil {
		return assembly{}, stageErr(StateAssembling, ErrMux, err)
	}
	return res, nil
}

func (u Usecase) attachAudio(
	ctx context.Context,
	in Input,
	info ports.MediaInfo,
	duration float64,
	silent, out string,
	ws ports.Workspace,
) error {
	if !info.HasAudio {
		return fmt.Errorf("%w: source has no audio stream", ErrMux)
	}
	audio := ws.Path("audio.mp3")
	if err := u.d.Video.ExtractAudio(ctx, in.InputPath, duration, audio); err != nil {
		return fmt.Errorf("%w: %w", ErrMux, err)
	}
	if err := u.d.Video.Mux(ctx, silent, audio, out); err != nil {
		return fmt.Errorf("%w: %w", ErrMux, err)
	}
	return nil
}

// WriteConcatManifest writes an ffmpeg concat demuxer list in segment order.
func WriteConcatManifest(path string, segs []types.Segment) error {
	if len(segs) == 0 {
		return errors.New("no segments to concatenate")
	}
	var b strings.Builder
	for _, s := range segs {
		abs, err := filepath.Abs(s.File)
		if err != nil {
			return err
		}
		fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(abs, "'", `'\''`))
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// publish moves src to out. When a rename is not possible the copy goes
// through a temporary file next to out, so out is replaced atomically.
func publish(src, out string) error {
	dir := filepath.Dir(out)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.Rename(src, out); err == nil {
		return nil
	}

	tmp, err := os.CreateTemp(dir, ".scenecut-*.mp4")
	if err != nil {
		return fmt.Errorf("publish output: %w", err)
	}
	tmpName := tmp.Name()
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("publish output: %w", err)
	}
	if err := copyFile(src, tmpName); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("publish output: %w", err)
	}
	if err := os.Rename(tmpName, out); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("publish output: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
