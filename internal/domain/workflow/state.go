package workflow

// State represents an expense status in the approval lifecycle.
type State string

const (
	StateDraft     State = "Draft"
	StateSubmitted State = "Submitted"
	StateApproved  State = "Approved"
	StateRejected  State = "Rejected"
)

var validStates = map[State]bool{
	StateDraft:     true,
	StateSubmitted: true,
	StateApproved:  true,
	StateRejected:  true,
}

var terminalStates = map[State]bool{
	StateApproved: true,
	StateRejected: true,
}

// IsTerminal returns true if the state is a terminal state (no further transitions allowed)
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid expense status
func (s State) IsValid() bool {
	return validStates[s]
}
