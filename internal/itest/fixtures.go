//go:build integration

package itest

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

var sceneColors = []string{"red", "blue", "green", "yellow", "purple", "white", "orange", "cyan", "gray", "pink"}

func requireTools(t *testing.T) {
	t.Helper()
	for _, bin := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(bin); err != nil {
			t.Skipf("%s not installed", bin)
		}
	}
}

// makeSceneVideo renders one solid-color scene per duration, so every
// boundary is a hard cut, with an optional sine audio track.
func makeSceneVideo(t *testing.T, dir, name string, durations []float64, withAudio bool) string {
	t.Helper()
	out := filepath.Join(dir, name)

	var args []string
	var total float64
	var labels strings.Builder
	for i, d := range durations {
		args = append(args, "-f", "lavfi", "-i",
			fmt.Sprintf("color=c=%s:s=320x240:r=25:d=%g", sceneColors[i%len(sceneColors)], d))
		fmt.Fprintf(&labels, "[%d:v]", i)
		total += d
	}
	filter := fmt.Sprintf("%sconcat=n=%d:v=1:a=0[v]", labels.String(), len(durations))

	if withAudio {
		args = append(args, "-f", "lavfi", "-i", fmt.Sprintf("sine=frequency=440:duration=%g", total))
	}
	args = append(args, "-filter_complex", filter, "-map", "[v]")
	if withAudio {
		args = append(args, "-map", fmt.Sprintf("%d:a", len(durations)), "-c:a", "aac")
	}
	args = append(args,
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-g", "25",
		"-y", out,
	)

	cmd := exec.Command("ffmpeg", args...)
	if b, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("ffmpeg fixture failed: %v\n%s", err, string(b))
	}
	return out
}
