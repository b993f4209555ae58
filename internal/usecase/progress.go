package usecase

import "github.com/forPelevin/scenecut/internal/ports"

// Progress checkpoints, one per completed stage.
const (
	progressStart     = 0
	progressProbed    = 20
	progressDetected  = 40
	progressSelected  = 60
	progressExtracted = 80
	progressDone      = 100
)

// ProgressChannel adapts a channel to a ProgressSink. Sends never block the
// run: a checkpoint is dropped when the channel buffer is full.
func ProgressChannel(ch chan<- int) ports.ProgressSink {
	return func(p int) {
		select {
		case ch <- p:
		default:
		}
	}
}

// tracker forwards checkpoints and state transitions, keeping progress monotonic.
type tracker struct {
	sink    ports.ProgressSink
	onState func(from, to State)
	state   State
	last    int
}

func newTracker(sink ports.ProgressSink, onState func(from, to State)) *tracker {
	return &tracker{sink: sink, onState: onState, last: -1}
}

func (t *tracker) progress(p int) {
	if p <= t.last {
		return
	}
	t.last = p
	if t.sink != nil {
		t.sink(p)
	}
}

func (t *tracker) enter(s State) {
	if t.state.Terminal() || s == t.state {
		return
	}
	from := t.state
	t.state = s
	if t.onState != nil {
		t.onState(from, s)
	}
}
