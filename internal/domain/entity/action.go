package entity

import "time"

// ActionType is an approver's decision on a step.
type ActionType string

const (
	ActionApproved ActionType = "Approved"
	ActionRejected ActionType = "Rejected"
)

// ApprovalAction is one recorded decision by one approver on one step of
// one expense. The ledger is append-only: rows are never updated or
// deleted once written.
type ApprovalAction struct {
	ID         int64      `json:"id"`
	ExpenseID  int64      `json:"expense_id"`
	StepID     int64      `json:"step_id"`
	ApproverID int64      `json:"approver_id"`
	Action     ActionType `json:"action"`
	Comments   string     `json:"comments,omitempty"`
	ActionAt   time.Time  `json:"action_at"`
}
