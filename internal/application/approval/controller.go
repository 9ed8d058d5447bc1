package approval

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/amalthea-hq/expensehub/internal/application/port"
	"github.com/amalthea-hq/expensehub/internal/domain/entity"
	"github.com/amalthea-hq/expensehub/internal/domain/workflow"
)

// Decision is the outcome of a submit or take-action call. NextApprovers
// is populated only while the expense is non-terminal and a step is open
// with a known eligible set.
type Decision struct {
	Status        string  `json:"status"`
	NextApprovers []int64 `json:"next_approvers,omitempty"`
}

// Controller orchestrates the selector, evaluator and resolver into the
// public workflow operations and advances the expense's overall status.
// Every state-changing operation runs inside a single transaction so
// that inserting an action and evaluating the step transition is atomic:
// two approvers racing on the same step cannot double-count, and the
// losing writer observes the already-advanced state.
type Controller struct {
	expenses  port.ExpenseRepository
	actions   port.ActionRepository
	selector  *Selector
	evaluator Evaluator
	resolver  *Resolver
	tx        port.TransactionManager
	logger    *zap.Logger
	now       func() time.Time
}

// NewController creates a new workflow Controller
func NewController(
	expenses port.ExpenseRepository,
	actions port.ActionRepository,
	selector *Selector,
	resolver *Resolver,
	tx port.TransactionManager,
	logger *zap.Logger,
) *Controller {
	return &Controller{
		expenses: expenses,
		actions:  actions,
		selector: selector,
		resolver: resolver,
		tx:       tx,
		logger:   logger,
		now:      time.Now,
	}
}

// Submit moves a Draft expense to Submitted and returns the eligible
// approvers for the first incomplete step of the selected policy. An
// empty approver list means no policy applies and the expense is
// immediately eligible for completion; finalizing it is left to the
// caller.
func (c *Controller) Submit(ctx context.Context, expenseID int64) (*Decision, error) {
	var decision *Decision

	err := c.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		expense, err := c.expenses.GetByID(txCtx, expenseID)
		if err != nil {
			return fmt.Errorf("get expense: %w", err)
		}
		if expense == nil {
			return fmt.Errorf("%w: expense %d", ErrNotFound, expenseID)
		}

		state := workflow.State(expense.Status)
		if expense.Status == "" {
			state = workflow.StateDraft
		}
		next, err := state.Fire(workflow.TriggerSubmit)
		if err != nil {
			return err
		}

		if err := c.expenses.UpdateStatus(txCtx, expenseID, next.String()); err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		expense.Status = next.String()

		policy, err := c.selector.Select(txCtx, expense)
		if err != nil {
			return err
		}
		if policy == nil {
			decision = &Decision{Status: expense.Status, NextApprovers: []int64{}}
			return nil
		}

		byStep, err := c.ledgerByStep(txCtx, expenseID)
		if err != nil {
			return err
		}

		open := c.firstOpenStep(policy, byStep)
		if open == nil {
			decision = &Decision{Status: expense.Status, NextApprovers: []int64{}}
			return nil
		}

		eligible, err := c.resolver.EligibleNow(txCtx, expense, open, byStep[open.ID])
		if err != nil {
			return err
		}

		decision = &Decision{Status: expense.Status, NextApprovers: eligible}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("Expense submitted for approval",
		zap.Int64("expense_id", expenseID),
		zap.Int64s("next_approvers", decision.NextApprovers))

	return decision, nil
}

// TakeAction records one approver's decision on the open step and
// advances the expense. A rejection anywhere is final and immediate; it
// is never overridden by later approvals.
func (c *Controller) TakeAction(ctx context.Context, expenseID, approverID int64, action entity.ActionType, comments string) (*Decision, error) {
	var decision *Decision

	err := c.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		expense, err := c.expenses.GetByID(txCtx, expenseID)
		if err != nil {
			return fmt.Errorf("get expense: %w", err)
		}
		if expense == nil {
			return fmt.Errorf("%w: expense %d", ErrNotFound, expenseID)
		}
		if expense.Status != entity.StatusSubmitted {
			return fmt.Errorf("%w: expense %d is %s", ErrNoPendingStep, expenseID, expense.Status)
		}

		policy, err := c.selector.Select(txCtx, expense)
		if err != nil {
			return err
		}
		if policy == nil {
			return fmt.Errorf("%w: no policy applies to expense %d", ErrNoPendingStep, expenseID)
		}

		byStep, err := c.ledgerByStep(txCtx, expenseID)
		if err != nil {
			return err
		}

		open := c.firstOpenStep(policy, byStep)
		if open == nil {
			return fmt.Errorf("%w: all steps complete for expense %d", ErrNoPendingStep, expenseID)
		}

		eligible, err := c.resolver.EligibleNow(txCtx, expense, open, byStep[open.ID])
		if err != nil {
			return err
		}
		if !contains(eligible, approverID) {
			return fmt.Errorf("%w: approver %d on step %d", ErrNotAuthorized, approverID, open.ID)
		}

		record := &entity.ApprovalAction{
			ExpenseID:  expenseID,
			StepID:     open.ID,
			ApproverID: approverID,
			Action:     action,
			Comments:   comments,
			ActionAt:   c.now(),
		}
		if err := c.actions.Create(txCtx, record); err != nil {
			return fmt.Errorf("record action: %w", err)
		}
		byStep[open.ID] = append(byStep[open.ID], record)

		complete, stepRejected := c.evaluator.Evaluate(open, byStep[open.ID])
		switch {
		case complete && stepRejected:
			if err := c.transition(txCtx, expense, workflow.TriggerReject); err != nil {
				return err
			}
			decision = &Decision{Status: expense.Status}

		case complete:
			next := c.nextOpenStep(policy, open, byStep)
			if next == nil {
				if err := c.transition(txCtx, expense, workflow.TriggerApprove); err != nil {
					return err
				}
				decision = &Decision{Status: expense.Status}
				return nil
			}
			nextEligible, err := c.resolver.EligibleNow(txCtx, expense, next, byStep[next.ID])
			if err != nil {
				return err
			}
			decision = &Decision{Status: expense.Status, NextApprovers: nextEligible}

		default:
			// Step still gathering decisions; report who can act next
			// on it (e.g. the following approver of a sequential step).
			stillEligible, err := c.resolver.EligibleNow(txCtx, expense, open, byStep[open.ID])
			if err != nil {
				return err
			}
			decision = &Decision{Status: expense.Status, NextApprovers: stillEligible}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("Approval action recorded",
		zap.Int64("expense_id", expenseID),
		zap.Int64("approver_id", approverID),
		zap.String("action", string(action)),
		zap.String("status", decision.Status))

	return decision, nil
}

// PendingForApprover returns the submitted expenses on which the given
// approver is currently eligible to act.
func (c *Controller) PendingForApprover(ctx context.Context, approverID int64) ([]*entity.Expense, error) {
	submitted, err := c.expenses.ListByStatus(ctx, entity.StatusSubmitted)
	if err != nil {
		return nil, fmt.Errorf("list submitted expenses: %w", err)
	}

	var pending []*entity.Expense
	for _, expense := range submitted {
		policy, err := c.selector.Select(ctx, expense)
		if err != nil {
			c.logger.Warn("Skipping expense in pending scan",
				zap.Int64("expense_id", expense.ID), zap.Error(err))
			continue
		}
		if policy == nil {
			continue
		}
		byStep, err := c.ledgerByStep(ctx, expense.ID)
		if err != nil {
			return nil, err
		}
		open := c.firstOpenStep(policy, byStep)
		if open == nil {
			continue
		}
		eligible, err := c.resolver.EligibleNow(ctx, expense, open, byStep[open.ID])
		if err != nil {
			c.logger.Warn("Skipping expense in pending scan",
				zap.Int64("expense_id", expense.ID), zap.Error(err))
			continue
		}
		if contains(eligible, approverID) {
			pending = append(pending, expense)
		}
	}
	return pending, nil
}

// transition fires the trigger against the expense's current status and
// persists the result.
func (c *Controller) transition(ctx context.Context, expense *entity.Expense, trigger workflow.Trigger) error {
	next, err := workflow.State(expense.Status).Fire(trigger)
	if err != nil {
		return err
	}
	if err := c.expenses.UpdateStatus(ctx, expense.ID, next.String()); err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	expense.Status = next.String()
	return nil
}

// ledgerByStep loads the expense's action ledger grouped by step.
func (c *Controller) ledgerByStep(ctx context.Context, expenseID int64) (map[int64][]*entity.ApprovalAction, error) {
	ledger, err := c.actions.ListByExpense(ctx, expenseID)
	if err != nil {
		return nil, fmt.Errorf("%w: list actions for expense %d: %v", ErrCollaboratorUnavailable, expenseID, err)
	}
	byStep := make(map[int64][]*entity.ApprovalAction)
	for _, a := range ledger {
		byStep[a.StepID] = append(byStep[a.StepID], a)
	}
	return byStep, nil
}

// firstOpenStep returns the first step in sequence order that is not yet
// complete, or nil when every step has completed.
func (c *Controller) firstOpenStep(policy *entity.ApprovalPolicy, byStep map[int64][]*entity.ApprovalAction) *entity.ApprovalStep {
	for _, step := range orderedSteps(policy) {
		if complete, _ := c.evaluator.Evaluate(step, byStep[step.ID]); !complete {
			return step
		}
	}
	return nil
}

// nextOpenStep returns the first incomplete step after the given one.
func (c *Controller) nextOpenStep(policy *entity.ApprovalPolicy, after *entity.ApprovalStep, byStep map[int64][]*entity.ApprovalAction) *entity.ApprovalStep {
	for _, step := range orderedSteps(policy) {
		if step.Sequence <= after.Sequence {
			continue
		}
		if complete, _ := c.evaluator.Evaluate(step, byStep[step.ID]); !complete {
			return step
		}
	}
	return nil
}

func orderedSteps(policy *entity.ApprovalPolicy) []*entity.ApprovalStep {
	steps := make([]*entity.ApprovalStep, len(policy.Steps))
	copy(steps, policy.Steps)
	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].Sequence < steps[j].Sequence
	})
	return steps
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
