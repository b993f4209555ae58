package scenedetect

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/forPelevin/scenecut/internal/logging"
	"github.com/forPelevin/scenecut/internal/ports"
	"github.com/forPelevin/scenecut/internal/types"
)

const (
	listFile = "scenes.csv"

	colStart = "Start Time (seconds)"
	colEnd   = "End Time (seconds)"
)

var ErrNoScenes = errors.New("scenedetect returned no usable scenes")

// Adapter drives the PySceneDetect command line with the content detector.
type Adapter struct {
	exec ports.Executor
	bin  string
	log  zerolog.Logger
}

func New(exec ports.Executor, binPath string, log zerolog.Logger) *Adapter {
	if binPath == "" {
		binPath = "scenedetect"
	}
	return &Adapter{exec: exec, bin: binPath, log: logging.WithComponent(log, "scenedetect")}
}

func (a *Adapter) Detect(ctx context.Context, path string, opts ports.DetectOptions) (types.SceneList, error) {
	if opts.WorkDir == "" {
		return nil, errors.New("scenedetect: work dir is required")
	}

	args := []string{"--input", path, "--output", opts.WorkDir, "--quiet"}
	if opts.MinSceneLen > 0 {
		args = append(args, "--min-scene-len", strconv.Itoa(opts.MinSceneLen))
	}
	args = append(args, "detect-content")
	if opts.Threshold > 0 {
		args = append(args, "--threshold", strconv.FormatFloat(opts.Threshold, 'f', -1, 64))
	}
	args = append(args, "list-scenes", "--filename", listFile, "--skip-cuts", "--quiet")

	if _, err := a.exec.Run(ctx, ports.Command{Name: a.bin, Args: args}); err != nil {
		return nil, fmt.Errorf("scenedetect: %w", err)
	}

	f, err := os.Open(filepath.Join(opts.WorkDir, listFile))
	if err != nil {
		return nil, fmt.Errorf("scenedetect: read scene list: %w", err)
	}
	defer f.Close()

	raw, err := ParseSceneList(f)
	if err != nil {
		return nil, err
	}
	scenes := raw.Longer(opts.MinSpan)
	a.log.Info().
		Int("detected", len(raw)).
		Int("kept", len(scenes)).
		Float64("threshold", opts.Threshold).
		Msg("scene detection complete")
	if len(scenes) == 0 {
		return nil, ErrNoScenes
	}
	return scenes, nil
}

// ParseSceneList reads a list-scenes CSV. Rows before the header (the
// timecode line written without --skip-cuts) are ignored.
func ParseSceneList(r io.Reader) (types.SceneList, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	startIdx, endIdx := -1, -1
	var out types.SceneList
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse scene list: %w", err)
		}
		if startIdx < 0 {
			startIdx, endIdx = indexOf(rec, colStart), indexOf(rec, colEnd)
			if startIdx >= 0 && endIdx < 0 {
				return nil, fmt.Errorf("parse scene list: missing %q column", colEnd)
			}
			continue
		}
		if startIdx >= len(rec) || endIdx >= len(rec) {
			continue
		}
		start, err := strconv.ParseFloat(strings.TrimSpace(rec[startIdx]), 64)
		if err != nil {
			return nil, fmt.Errorf("parse scene start %q: %w", rec[startIdx], err)
		}
		end, err := strconv.ParseFloat(strings.TrimSpace(rec[endIdx]), 64)
		if err != nil {
			return nil, fmt.Errorf("parse scene end %q: %w", rec[endIdx], err)
		}
		out = append(out, types.Scene{Start: start, End: end})
	}
	if startIdx < 0 {
		return nil, fmt.Errorf("parse scene list: missing %q column", colStart)
	}
	return out, nil
}

func indexOf(rec []string, name string) int {
	for i, v := range rec {
		if strings.EqualFold(strings.TrimSpace(v), name) {
			return i
		}
	}
	return -1
}
