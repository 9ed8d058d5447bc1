package approval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/amalthea-hq/expensehub/internal/domain/entity"
)

type controllerFixture struct {
	controller *Controller
	expenses   *mockExpenseRepo
	actions    *mockActionRepo
	directory  *mockDirectory
}

func newControllerFixture(policies []*entity.ApprovalPolicy, expenses ...*entity.Expense) *controllerFixture {
	directory := &mockDirectory{}
	policyRepo := &mockPolicyRepo{policies: policies}
	expenseRepo := newMockExpenseRepo(expenses...)
	actionRepo := &mockActionRepo{}
	logger := zap.NewNop()

	controller := NewController(
		expenseRepo,
		actionRepo,
		NewSelector(policyRepo, directory, logger),
		NewResolver(directory),
		&mockTxManager{},
		logger,
	)

	return &controllerFixture{
		controller: controller,
		expenses:   expenseRepo,
		actions:    actionRepo,
		directory:  directory,
	}
}

func sequentialPolicy(approverIDs ...int64) *entity.ApprovalPolicy {
	return &entity.ApprovalPolicy{
		ID:        1,
		CompanyID: 1,
		Name:      "Default",
		Steps: []*entity.ApprovalStep{
			{
				ID:           1,
				PolicyID:     1,
				Sequence:     1,
				RuleType:     entity.RuleDirect,
				IsSequential: true,
				Approvers:    requiredApprovers(approverIDs...),
			},
		},
	}
}

func draftExpense(id int64, amountCents int64) *entity.Expense {
	return &entity.Expense{
		ID:                 id,
		EmployeeID:         5,
		AmountCompanyCents: amountCents,
		Status:             entity.StatusDraft,
	}
}

func TestController_EndToEndSequentialRejection(t *testing.T) {
	// Single sequential Direct step with approvers [M1, M2], both
	// required: submit exposes M1, M1's approval exposes M2, M2's
	// rejection is terminal.
	f := newControllerFixture([]*entity.ApprovalPolicy{sequentialPolicy(101, 102)}, draftExpense(1, 5_000))
	ctx := context.Background()

	decision, err := f.controller.Submit(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusSubmitted, decision.Status)
	assert.Equal(t, []int64{101}, decision.NextApprovers)

	decision, err = f.controller.TakeAction(ctx, 1, 101, entity.ActionApproved, "ok")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusSubmitted, decision.Status)
	assert.Equal(t, []int64{102}, decision.NextApprovers, "step still open, second approver is up")

	decision, err = f.controller.TakeAction(ctx, 1, 102, entity.ActionRejected, "too expensive")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusRejected, decision.Status)
	assert.Empty(t, decision.NextApprovers)

	stored, err := f.expenses.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusRejected, stored.Status)
}

func TestController_SequentialApprovalCompletes(t *testing.T) {
	f := newControllerFixture([]*entity.ApprovalPolicy{sequentialPolicy(101, 102)}, draftExpense(1, 5_000))
	ctx := context.Background()

	_, err := f.controller.Submit(ctx, 1)
	require.NoError(t, err)

	_, err = f.controller.TakeAction(ctx, 1, 101, entity.ActionApproved, "")
	require.NoError(t, err)

	decision, err := f.controller.TakeAction(ctx, 1, 102, entity.ActionApproved, "")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusApproved, decision.Status)
}

func TestController_SequentialOrderEnforced(t *testing.T) {
	f := newControllerFixture([]*entity.ApprovalPolicy{sequentialPolicy(101, 102, 103)}, draftExpense(1, 5_000))
	ctx := context.Background()

	_, err := f.controller.Submit(ctx, 1)
	require.NoError(t, err)

	// The third approver may not act before the second.
	_, err = f.controller.TakeAction(ctx, 1, 103, entity.ActionApproved, "")
	assert.ErrorIs(t, err, ErrNotAuthorized)
	assert.Equal(t, 0, f.actions.count(), "unauthorized action must not be recorded")
}

func TestController_SubmitWithoutPolicy(t *testing.T) {
	f := newControllerFixture(nil, draftExpense(1, 5_000))

	decision, err := f.controller.Submit(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusSubmitted, decision.Status)
	assert.Empty(t, decision.NextApprovers, "no policy means immediately eligible for completion")
}

func TestController_SubmitTwice(t *testing.T) {
	f := newControllerFixture([]*entity.ApprovalPolicy{sequentialPolicy(101)}, draftExpense(1, 5_000))
	ctx := context.Background()

	_, err := f.controller.Submit(ctx, 1)
	require.NoError(t, err)

	_, err = f.controller.Submit(ctx, 1)
	assert.Error(t, err, "Submitted is not a legal source for submit")
}

func TestController_SubmitUnknownExpense(t *testing.T) {
	f := newControllerFixture(nil)

	_, err := f.controller.Submit(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestController_TerminalIdempotence(t *testing.T) {
	f := newControllerFixture([]*entity.ApprovalPolicy{sequentialPolicy(101)}, draftExpense(1, 5_000))
	ctx := context.Background()

	_, err := f.controller.Submit(ctx, 1)
	require.NoError(t, err)

	decision, err := f.controller.TakeAction(ctx, 1, 101, entity.ActionApproved, "")
	require.NoError(t, err)
	require.Equal(t, entity.StatusApproved, decision.Status)

	recorded := f.actions.count()
	_, err = f.controller.TakeAction(ctx, 1, 101, entity.ActionApproved, "")
	assert.ErrorIs(t, err, ErrNoPendingStep)
	assert.Equal(t, recorded, f.actions.count(), "terminal expense must accept no further actions")
}

func TestController_ActionWithoutPolicy(t *testing.T) {
	f := newControllerFixture(nil, &entity.Expense{ID: 1, EmployeeID: 5, Status: entity.StatusSubmitted})

	_, err := f.controller.TakeAction(context.Background(), 1, 101, entity.ActionApproved, "")
	assert.ErrorIs(t, err, ErrNoPendingStep)
}

func TestController_MultiStepAdvance(t *testing.T) {
	policy := &entity.ApprovalPolicy{
		ID:        1,
		CompanyID: 1,
		Steps: []*entity.ApprovalStep{
			{
				ID:                 1,
				Sequence:           1,
				RuleType:           entity.RuleSpecificApprover,
				SpecificApproverID: int64Ptr(201),
			},
			{
				ID:           2,
				Sequence:     2,
				RuleType:     entity.RuleDirect,
				IsSequential: true,
				Approvers:    requiredApprovers(301, 302),
			},
		},
	}
	f := newControllerFixture([]*entity.ApprovalPolicy{policy}, draftExpense(1, 5_000))
	ctx := context.Background()

	decision, err := f.controller.Submit(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{201}, decision.NextApprovers)

	// Completing the first step opens the second and reports its
	// eligible approvers alongside the unchanged status.
	decision, err = f.controller.TakeAction(ctx, 1, 201, entity.ActionApproved, "")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusSubmitted, decision.Status)
	assert.Equal(t, []int64{301}, decision.NextApprovers)
}

func TestController_PercentageStepApproves(t *testing.T) {
	policy := &entity.ApprovalPolicy{
		ID:        1,
		CompanyID: 1,
		Steps: []*entity.ApprovalStep{
			{
				ID:                 1,
				Sequence:           1,
				RuleType:           entity.RulePercentage,
				PercentageRequired: intPtr(50),
				Approvers:          approvers(401, 402, 403, 404),
			},
		},
	}
	f := newControllerFixture([]*entity.ApprovalPolicy{policy}, draftExpense(1, 5_000))
	ctx := context.Background()

	_, err := f.controller.Submit(ctx, 1)
	require.NoError(t, err)

	decision, err := f.controller.TakeAction(ctx, 1, 401, entity.ActionApproved, "")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusSubmitted, decision.Status)
	assert.Equal(t, []int64{402, 403, 404}, decision.NextApprovers, "remaining approvers may still act")

	decision, err = f.controller.TakeAction(ctx, 1, 403, entity.ActionApproved, "")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusApproved, decision.Status, "2 of 4 meets the 50% threshold")
}

func TestController_ManagerChangeDoesNotInvalidateAction(t *testing.T) {
	manager := int64(42)
	policy := &entity.ApprovalPolicy{
		ID:        1,
		CompanyID: 1,
		Steps: []*entity.ApprovalStep{
			{ID: 1, Sequence: 1, RuleType: entity.RuleDirect, IsManagerStep: true},
		},
	}
	f := newControllerFixture([]*entity.ApprovalPolicy{policy}, draftExpense(1, 5_000))
	f.directory.managerOfFunc = func(ctx context.Context, employeeID int64) (*int64, error) {
		return &manager, nil
	}
	ctx := context.Background()

	decision, err := f.controller.Submit(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{42}, decision.NextApprovers)

	decision, err = f.controller.TakeAction(ctx, 1, 42, entity.ActionApproved, "")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusApproved, decision.Status)

	// Reassigning the manager afterwards does not disturb the recorded
	// action or the terminal status.
	manager = 43
	stored, err := f.expenses.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusApproved, stored.Status)
	assert.Equal(t, 1, f.actions.count())
}

func TestController_PendingForApprover(t *testing.T) {
	f := newControllerFixture(
		[]*entity.ApprovalPolicy{sequentialPolicy(101, 102)},
		draftExpense(1, 5_000),
		draftExpense(2, 6_000),
		&entity.Expense{ID: 3, EmployeeID: 5, AmountCompanyCents: 7_000, Status: entity.StatusApproved},
	)
	ctx := context.Background()

	_, err := f.controller.Submit(ctx, 1)
	require.NoError(t, err)
	_, err = f.controller.Submit(ctx, 2)
	require.NoError(t, err)

	pending, err := f.controller.PendingForApprover(ctx, 101)
	require.NoError(t, err)
	assert.Len(t, pending, 2, "first sequential approver sees both submitted expenses")

	pending, err = f.controller.PendingForApprover(ctx, 102)
	require.NoError(t, err)
	assert.Empty(t, pending, "second approver is not yet eligible")

	// After 101 approves expense 1, 102 becomes eligible on it.
	_, err = f.controller.TakeAction(ctx, 1, 101, entity.ActionApproved, "")
	require.NoError(t, err)

	pending, err = f.controller.PendingForApprover(ctx, 102)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, int64(1), pending[0].ID)
}
