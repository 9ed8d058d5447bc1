package workflow

import "fmt"

// transitions defines the legal expense lifecycle:
// Draft -> Submitted -> {Approved, Rejected}. Approved and Rejected are
// terminal; there is no path back to Draft or between the two.
var transitions = map[State]map[Trigger]State{
	StateDraft: {
		TriggerSubmit: StateSubmitted,
	},
	StateSubmitted: {
		TriggerApprove: StateApproved,
		TriggerReject:  StateRejected,
	},
}

// CanFire returns true if the trigger is permitted from the given state.
func (s State) CanFire(trigger Trigger) bool {
	_, ok := transitions[s][trigger]
	return ok
}

// Fire returns the state reached by applying the trigger, or
// ErrInvalidTransition when the trigger is not permitted.
func (s State) Fire(trigger Trigger) (State, error) {
	next, ok := transitions[s][trigger]
	if !ok {
		return s, fmt.Errorf("%w: cannot fire trigger %s from state %s", ErrInvalidTransition, trigger, s)
	}
	return next, nil
}

// PermittedTriggers returns all triggers that can be fired from the given state.
func (s State) PermittedTriggers() []Trigger {
	perms := transitions[s]
	triggers := make([]Trigger, 0, len(perms))
	for trigger := range perms {
		triggers = append(triggers, trigger)
	}
	return triggers
}
