package negotiate

// State is the lifecycle position of a negotiation session.
type State int

const (
	Idle State = iota
	Iterating
	Converged // the oracle had nothing more to change
	Exhausted // the iteration ceiling was reached; the last layout stands
	Failed    // an oracle round failed and was not applied
	Cancelled // the caller's context ended the session
)

var stateNames = [...]string{
	Idle:      "idle",
	Iterating: "iterating",
	Converged: "converged",
	Exhausted: "exhausted",
	Failed:    "failed",
	Cancelled: "cancelled",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no further rounds can run.
func (s State) Terminal() bool {
	return s >= Converged
}
