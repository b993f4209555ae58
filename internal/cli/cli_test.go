package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"github.com/forPelevin/scenecut/internal/config"
	"github.com/forPelevin/scenecut/internal/types"
	"github.com/forPelevin/scenecut/internal/usecase"
)

func execute(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Execute(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

// isolate points HOME and the working directory at empty temp dirs so no
// user config or .env leaks into the test.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())
	return home
}

func TestRootRequiresInput(t *testing.T) {
	isolate(t)
	code, _, stderr := execute(t)
	if code != 1 || !strings.Contains(stderr, "arg") {
		t.Fatalf("code=%d stderr=%q", code, stderr)
	}
}

func TestRun_RejectsBadInput(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	notes := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(notes, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	cases := map[string]struct {
		input string
		want  string
	}{
		"missing":     {input: filepath.Join(dir, "missing.mp4"), want: "stat input"},
		"unsupported": {input: notes, want: "unsupported input format"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			code, _, stderr := execute(t, tc.input, "--no-progress")
			if code != 1 || !strings.Contains(stderr, tc.want) {
				t.Fatalf("code=%d stderr=%q, want %q", code, stderr, tc.want)
			}
		})
	}
}

func TestRun_RejectsInvalidFlags(t *testing.T) {
	isolate(t)
	code, _, stderr := execute(t, "in.mp4", "--policy", "shortest")
	if code != 1 || !strings.Contains(stderr, "edit.policy") {
		t.Fatalf("code=%d stderr=%q", code, stderr)
	}
}

func TestConfigInit(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "conf", "scenecut.toml")

	code, stdout, stderr := execute(t, "config", "init", "--path", path)
	if code != 0 {
		t.Fatalf("init failed: %s", stderr)
	}
	if !strings.Contains(stdout, path) {
		t.Fatalf("unexpected output %q", stdout)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("sample not written: %v", err)
	}

	if code, _, stderr := execute(t, "config", "init", "--path", path); code != 1 || !strings.Contains(stderr, "already exists") {
		t.Fatalf("expected refusal, code=%d stderr=%q", code, stderr)
	}
	if err := os.WriteFile(path, []byte("# edited\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if code, _, stderr := execute(t, "config", "init", "--path", path, "--overwrite"); code != 0 {
		t.Fatalf("overwrite failed: %s", stderr)
	}
	if b, _ := os.ReadFile(path); string(b) == "# edited\n" {
		t.Fatal("--overwrite did not replace the file")
	}
}

func TestConfigShow_FlagsOverrideFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "c.toml")
	if err := os.WriteFile(path, []byte("[edit]\ntarget_seconds = 40.0\npolicy = \"random\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	code, stdout, stderr := execute(t, "config", "show", "--config", path, "--preset", "fine", "--seed", "7")
	if code != 0 {
		t.Fatalf("show failed: %s", stderr)
	}
	var got config.Config
	if err := toml.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("output is not TOML: %v\n%s", err, stdout)
	}
	if got.Edit.TargetSeconds != 40 || got.Edit.Seed != 7 {
		t.Fatalf("unexpected edit %+v", got.Edit)
	}
	// explicit policy from the file survives, the rest comes from the preset
	if got.Edit.Policy != "random" || got.Edit.Mode != "video-audio" || got.Detect.Threshold != 27 {
		t.Fatalf("preset not applied correctly: %+v %+v", got.Edit, got.Detect)
	}
}

func TestCheck(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs")
	}
	isolate(t)
	bin := t.TempDir()
	stub := func(name string) string {
		p := filepath.Join(bin, name)
		if err := os.WriteFile(p, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
			t.Fatal(err)
		}
		return p
	}
	t.Setenv("SCENECUT_FFMPEG", stub("ffmpeg"))
	t.Setenv("SCENECUT_FFPROBE", stub("ffprobe"))
	t.Setenv("SCENECUT_SCENEDETECT", filepath.Join(bin, "scenedetect-missing"))

	code, stdout, stderr := execute(t, "check", "--detector", "ffmpeg")
	if code != 0 {
		t.Fatalf("check failed: %s\n%s", stderr, stdout)
	}
	if !strings.Contains(stdout, "optional") {
		t.Fatalf("scenedetect should be optional with the ffmpeg detector:\n%s", stdout)
	}

	code, stdout, _ = execute(t, "check")
	if code != 1 || !strings.Contains(stdout, "missing") {
		t.Fatalf("expected scenedetect missing, code=%d\n%s", code, stdout)
	}
}

func TestRenderPlan(t *testing.T) {
	p := usecase.Plan{
		SourceDuration: 30,
		Scenes:         make(types.SceneList, 6),
		Selected: []types.SelectedSpan{
			{Scene: types.Scene{Start: 0, End: 3}, Provenance: types.AnchorStart},
			{Scene: types.Scene{Start: 7, End: 9}, Provenance: types.Middle},
			{Scene: types.Scene{Start: 16, End: 19.9}, Provenance: types.AnchorEnd, Truncated: true},
		},
	}
	out := renderPlan(p, 25)
	for _, want := range []string{"6 scenes detected", "anchor-start", "middle", "anchor-end", "yes", "Total", "8.90s"} {
		if !strings.Contains(out, want) {
			t.Fatalf("plan output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderSummary(t *testing.T) {
	out := renderSummary(types.RunSummary{
		RunID:     "clip-1234abcd",
		Output:    "/tmp/edited_clip.mp4",
		Selected:  make([]types.SelectedSpan, 5),
		Extracted: make([]types.Segment, 4),
		Degraded:  true,
	})
	for _, want := range []string{"/tmp/edited_clip.mp4", "4 of 5", "silent fallback"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
}

type diagErr struct{}

func (diagErr) Error() string      { return "ffmpeg exited 1\nInvalid data found" }
func (diagErr) Diagnostic() string { return "Invalid data found" }

func TestReportError(t *testing.T) {
	var buf bytes.Buffer
	reportError(&buf, &usecase.StageError{Stage: usecase.StateAssembling, Kind: usecase.ErrConcatenation, Err: diagErr{}})
	out := buf.String()
	if !strings.Contains(out, "concatenation failed") || !strings.Contains(out, "tool output:") {
		t.Fatalf("unexpected report %q", out)
	}
	if strings.Count(out, "Invalid data found") != 1 {
		t.Fatalf("diagnostic should appear once: %q", out)
	}

	buf.Reset()
	reportError(&buf, errors.New("plain"))
	if buf.String() != "error: plain\n" {
		t.Fatalf("unexpected plain report %q", buf.String())
	}
}

func TestLastLines(t *testing.T) {
	if got := lastLines("a\nb\nc\n", 2); got != "b\nc" {
		t.Fatalf("got %q", got)
	}
}
