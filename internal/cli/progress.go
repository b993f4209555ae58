package cli

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"

	"github.com/forPelevin/scenecut/internal/logging"
)

// stageLabels names the stage that starts at each checkpoint.
var stageLabels = map[int]string{
	0:   "probing",
	20:  "detecting scenes",
	40:  "selecting",
	60:  "cutting segments",
	80:  "assembling",
	100: "done",
}

type progress struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

// newProgress draws a bar on w when w is a terminal; otherwise set is a no-op.
func newProgress(w io.Writer, disabled bool) *progress {
	if disabled || !logging.IsTerminal(w) {
		return &progress{w: w}
	}
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(stageLabels[0]),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "▐",
			BarEnd:        "▌",
		}),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetRenderBlankState(true),
	)
	return &progress{w: w, bar: bar}
}

func (p *progress) set(pct int) {
	if p.bar == nil {
		return
	}
	if label, ok := stageLabels[pct]; ok {
		p.bar.Describe(label)
	}
	_ = p.bar.Set(pct)
}

func (p *progress) finish() {
	if p.bar == nil {
		return
	}
	fmt.Fprintln(p.w)
}
