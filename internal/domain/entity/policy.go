package entity

import "time"

// RuleType selects how a single approval step is evaluated.
type RuleType string

const (
	RuleDirect           RuleType = "Direct"
	RulePercentage       RuleType = "Percentage"
	RuleSpecificApprover RuleType = "SpecificApprover"
)

// ApprovalPolicy is a company-scoped, amount-banded definition of an
// ordered approval pipeline. A nil bound means unbounded on that side;
// bounds are inclusive and compared against the expense amount in
// company currency.
type ApprovalPolicy struct {
	ID             int64           `json:"id"`
	CompanyID      int64           `json:"company_id"`
	Name           string          `json:"name"`
	MinAmountCents *int64          `json:"min_amount_cents,omitempty"`
	MaxAmountCents *int64          `json:"max_amount_cents,omitempty"`
	Steps          []*ApprovalStep `json:"steps"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Contains reports whether the policy's amount band contains the given
// company-currency amount.
func (p *ApprovalPolicy) Contains(amountCents int64) bool {
	if p.MinAmountCents != nil && amountCents < *p.MinAmountCents {
		return false
	}
	if p.MaxAmountCents != nil && amountCents > *p.MaxAmountCents {
		return false
	}
	return true
}

// ApprovalStep is one stage of a policy. Sequence orders steps within the
// policy. IsManagerStep overrides normal approver resolution: the sole
// eligible approver becomes the employee's manager, whatever the rule type.
// IsSequential is meaningful only for Direct steps, PercentageRequired only
// for Percentage steps, SpecificApproverID only for SpecificApprover steps.
type ApprovalStep struct {
	ID                 int64           `json:"id"`
	PolicyID           int64           `json:"policy_id"`
	Sequence           int             `json:"sequence"`
	RuleType           RuleType        `json:"rule_type"`
	IsManagerStep      bool            `json:"is_manager_step"`
	IsSequential       bool            `json:"is_sequential"`
	PercentageRequired *int            `json:"percentage_required,omitempty"`
	SpecificApproverID *int64          `json:"specific_approver_id,omitempty"`
	Approvers          []*StepApprover `json:"approvers"`
}

// RequiredApprovers returns the approvers flagged required, falling back
// to the full list when none are flagged.
func (s *ApprovalStep) RequiredApprovers() []*StepApprover {
	var required []*StepApprover
	for _, a := range s.Approvers {
		if a.IsRequired {
			required = append(required, a)
		}
	}
	if len(required) == 0 {
		return s.Approvers
	}
	return required
}

// StepApprover is one configured approver on a step. OrderIndex orders
// approvers within the step; ties keep insertion order.
type StepApprover struct {
	ID         int64 `json:"id"`
	StepID     int64 `json:"step_id"`
	ApproverID int64 `json:"approver_id"`
	IsRequired bool  `json:"is_required"`
	OrderIndex int   `json:"order_index"`
}
