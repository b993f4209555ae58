package usecase

type State int

const (
	StateInit State = iota
	StateProbing
	StateDetecting
	StateSelecting
	StateExtracting
	StateAssembling
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateProbing:
		return "PROBING"
	case StateDetecting:
		return "DETECTING"
	case StateSelecting:
		return "SELECTING"
	case StateExtracting:
		return "EXTRACTING"
	case StateAssembling:
		return "ASSEMBLING"
	case StateDone:
		return "DONE"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool { return s == StateDone || s == StateFailed }
