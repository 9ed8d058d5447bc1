package approval

import (
	"context"
	"fmt"
	"sort"

	"github.com/amalthea-hq/expensehub/internal/application/port"
	"github.com/amalthea-hq/expensehub/internal/domain/entity"
)

// Resolver computes the exact set of identities currently entitled to act
// on a still-open step.
type Resolver struct {
	directory port.Directory
}

// NewResolver creates a new Resolver
func NewResolver(directory port.Directory) *Resolver {
	return &Resolver{directory: directory}
}

// EligibleNow returns who may act on the step right now.
//
// Manager steps ignore the configured approver list entirely: the sole
// eligible identity is the employee's manager, and the set is empty when
// the employee has none. SpecificApprover steps resolve to the configured
// approver. Otherwise the configured list applies, ordered by order_index
// (ties keep insertion order): sequential steps expose only the first
// approver who has not yet acted, parallel steps expose all of them.
func (r *Resolver) EligibleNow(ctx context.Context, expense *entity.Expense, step *entity.ApprovalStep, actions []*entity.ApprovalAction) ([]int64, error) {
	if step.IsManagerStep {
		manager, err := r.directory.ManagerOf(ctx, expense.EmployeeID)
		if err != nil {
			return nil, fmt.Errorf("%w: resolve manager for employee %d: %v", ErrCollaboratorUnavailable, expense.EmployeeID, err)
		}
		if manager == nil {
			return []int64{}, nil
		}
		return []int64{*manager}, nil
	}

	if step.RuleType == entity.RuleSpecificApprover {
		if step.SpecificApproverID == nil {
			return []int64{}, nil
		}
		return []int64{*step.SpecificApproverID}, nil
	}

	acted := make(map[int64]bool, len(actions))
	for _, a := range actions {
		acted[a.ApproverID] = true
	}

	ordered := make([]*entity.StepApprover, len(step.Approvers))
	copy(ordered, step.Approvers)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].OrderIndex < ordered[j].OrderIndex
	})

	if step.RuleType == entity.RuleDirect && step.IsSequential {
		for _, a := range ordered {
			if !acted[a.ApproverID] {
				return []int64{a.ApproverID}, nil
			}
		}
		return []int64{}, nil
	}

	eligible := make([]int64, 0, len(ordered))
	for _, a := range ordered {
		if !acted[a.ApproverID] {
			eligible = append(eligible, a.ApproverID)
		}
	}
	return eligible, nil
}
