package approval

import (
	"github.com/amalthea-hq/expensehub/internal/domain/entity"
)

// Evaluator decides whether a step is complete and, if so, whether
// completion means approval or rejection. It is a pure function of the
// step definition and the recorded actions against it.
type Evaluator struct{}

// Evaluate returns (complete, rejected) for the step given its recorded
// actions. A single Rejected action is terminal for the step regardless
// of rule type. When complete is false the rejected value is meaningless.
func (Evaluator) Evaluate(step *entity.ApprovalStep, actions []*entity.ApprovalAction) (complete bool, rejected bool) {
	approved := 0
	for _, a := range actions {
		switch a.Action {
		case entity.ActionRejected:
			// Rejection always short-circuits.
			return true, true
		case entity.ActionApproved:
			approved++
		}
	}

	if step.IsManagerStep || step.RuleType == entity.RuleSpecificApprover {
		return approved >= 1, false
	}

	if step.RuleType == entity.RulePercentage {
		total := len(step.Approvers)
		if total < 1 {
			total = 1
		}
		required := 100
		if step.PercentageRequired != nil {
			required = *step.PercentageRequired
		}
		if 100*approved/total >= required {
			return true, false
		}
		// Everyone acted and the threshold is still unmet: the deadlock
		// resolves to rejection.
		if len(actions) >= total {
			return true, true
		}
		return false, false
	}

	// Direct rule. Order enforcement for sequential steps lives in the
	// resolver; completion only counts approvals.
	flagged := 0
	for _, a := range step.Approvers {
		if a.IsRequired {
			flagged++
		}
	}
	if step.IsSequential || flagged > 0 {
		need := flagged
		if need == 0 {
			need = len(step.Approvers)
		}
		return approved >= need, false
	}

	// Parallel with no required approvers: first approval completes.
	return approved >= 1, false
}
