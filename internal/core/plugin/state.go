package plugin

// State is the lifecycle state of a tracked plugin.
type State int

// Plugin states. Loaded, Failed and Disabled are terminal until the next
// discovery pass replaces the entry.
const (
	StateDiscovered State = iota
	StateValidated
	StateLoaded
	StateFailed
	StateDisabled
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateDiscovered:
		return "discovered"
	case StateValidated:
		return "validated"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	case StateDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateLoaded || s == StateFailed || s == StateDisabled
}

// AllStates lists the states in lifecycle order.
func AllStates() []State {
	return []State{StateDiscovered, StateValidated, StateLoaded, StateFailed, StateDisabled}
}
