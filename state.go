package fluxmesh

// State describes the lifecycle of a FluxAgent. The machine is
// Idle -> Flowing -> (Collapsed | Complete); both terminal states are
// absorbing and freeze the entropy ledger.
type State int

const (
	// StateIdle marks a constructed flux that has not been started.
	StateIdle State = iota
	// StateFlowing marks a flux actively draining its input source.
	StateFlowing
	// StateCollapsed is the terminal state reached by entropy exhaustion.
	StateCollapsed
	// StateComplete is the terminal state reached by normal source
	// exhaustion, the MaxEvents cap or cancellation.
	StateComplete
)

// Terminal reports whether the state is absorbing.
func (s State) Terminal() bool { return s == StateCollapsed || s == StateComplete }

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFlowing:
		return "flowing"
	case StateCollapsed:
		return "collapsed"
	case StateComplete:
		return "complete"
	default:
		return "unknown"
	}
}
