package testrun

// State is a phase of a test run.
type State int

const (
	StateInit State = iota
	StatePreparing
	StateWalking
	StateAggregating
	StateDone
	StateFailed
)

var stateNames = [...]string{"init", "preparing", "walking", "aggregating", "done", "failed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
