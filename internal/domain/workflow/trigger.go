package workflow

// Trigger represents an event that moves an expense between states.
type Trigger string

const (
	TriggerSubmit  Trigger = "SUBMIT"
	TriggerApprove Trigger = "APPROVE"
	TriggerReject  Trigger = "REJECT"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
