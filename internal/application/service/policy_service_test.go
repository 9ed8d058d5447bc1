package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amalthea-hq/expensehub/internal/application/port"
	"github.com/amalthea-hq/expensehub/internal/domain/entity"
)

type mockPolicyRepo struct {
	policies map[int64]*entity.ApprovalPolicy
	nextID   int64
}

func newMockPolicyRepo() *mockPolicyRepo {
	return &mockPolicyRepo{policies: make(map[int64]*entity.ApprovalPolicy), nextID: 1}
}

func (m *mockPolicyRepo) Replace(_ context.Context, policy *entity.ApprovalPolicy) (int64, error) {
	if policy.ID == 0 {
		policy.ID = m.nextID
		m.nextID++
	}
	m.policies[policy.ID] = policy
	return policy.ID, nil
}

func (m *mockPolicyRepo) GetByID(_ context.Context, id int64) (*entity.ApprovalPolicy, error) {
	return m.policies[id], nil
}

func (m *mockPolicyRepo) ListByCompany(_ context.Context, companyID int64) ([]*entity.ApprovalPolicy, error) {
	var policies []*entity.ApprovalPolicy
	for _, p := range m.policies {
		if p.CompanyID == companyID {
			policies = append(policies, p)
		}
	}
	return policies, nil
}

var _ port.PolicyRepository = (*mockPolicyRepo)(nil)

func policyTestUsers() *mockUserRepo {
	users := newMockUserRepo()
	users.users[1] = &entity.User{ID: 1, CompanyID: 1, Role: entity.RoleManager}
	users.users[2] = &entity.User{ID: 2, CompanyID: 1, Role: entity.RoleManager}
	users.users[3] = &entity.User{ID: 3, CompanyID: 2, Role: entity.RoleManager}
	users.nextID = 4
	return users
}

func TestPolicyService_Upsert_CreatesPolicy(t *testing.T) {
	repo := newMockPolicyRepo()
	svc := NewPolicyService(repo, policyTestUsers(), &mockTxManager{}, testLogger())

	pct := 60
	policy, err := svc.Upsert(context.Background(), 1, UpsertPolicyRequest{
		Name: "Standard",
		Steps: []PolicyStepRequest{
			{
				Sequence:           1,
				RuleType:           "Percentage",
				PercentageRequired: &pct,
				Approvers: []StepApproverRequest{
					{ApproverID: 1, OrderIndex: 0},
					{ApproverID: 2, OrderIndex: 1},
				},
			},
		},
	})
	require.NoError(t, err)
	assert.NotZero(t, policy.ID)
	assert.Equal(t, entity.RulePercentage, policy.Steps[0].RuleType)
}

func TestPolicyService_Upsert_Validation(t *testing.T) {
	pct := 60
	badPct := 0
	specific := int64(1)
	min := int64(500)
	max := int64(100)

	tests := []struct {
		name string
		req  UpsertPolicyRequest
	}{
		{
			name: "no steps",
			req:  UpsertPolicyRequest{Name: "Empty"},
		},
		{
			name: "percentage step without approvers",
			req: UpsertPolicyRequest{
				Name: "Bad",
				Steps: []PolicyStepRequest{
					{Sequence: 1, RuleType: "Percentage", PercentageRequired: &pct},
				},
			},
		},
		{
			name: "percentage out of range",
			req: UpsertPolicyRequest{
				Name: "Bad",
				Steps: []PolicyStepRequest{
					{
						Sequence:           1,
						RuleType:           "Percentage",
						PercentageRequired: &badPct,
						Approvers:          []StepApproverRequest{{ApproverID: 1}},
					},
				},
			},
		},
		{
			name: "specific without approver id",
			req: UpsertPolicyRequest{
				Name: "Bad",
				Steps: []PolicyStepRequest{
					{Sequence: 1, RuleType: "SpecificApprover"},
				},
			},
		},
		{
			name: "duplicate sequence",
			req: UpsertPolicyRequest{
				Name: "Bad",
				Steps: []PolicyStepRequest{
					{Sequence: 1, RuleType: "SpecificApprover", SpecificApproverID: &specific},
					{Sequence: 1, RuleType: "SpecificApprover", SpecificApproverID: &specific},
				},
			},
		},
		{
			name: "min above max",
			req: UpsertPolicyRequest{
				Name:           "Bad",
				MinAmountCents: &min,
				MaxAmountCents: &max,
				Steps: []PolicyStepRequest{
					{Sequence: 1, RuleType: "SpecificApprover", SpecificApproverID: &specific},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewPolicyService(newMockPolicyRepo(), policyTestUsers(), &mockTxManager{}, testLogger())
			_, err := svc.Upsert(context.Background(), 1, tt.req)
			assert.ErrorIs(t, err, ErrInvalidPolicy)
		})
	}
}

func TestPolicyService_Upsert_RejectsCrossCompanyApprover(t *testing.T) {
	svc := NewPolicyService(newMockPolicyRepo(), policyTestUsers(), &mockTxManager{}, testLogger())

	_, err := svc.Upsert(context.Background(), 1, UpsertPolicyRequest{
		Name: "Bad",
		Steps: []PolicyStepRequest{
			{
				Sequence:  1,
				RuleType:  "Direct",
				Approvers: []StepApproverRequest{{ApproverID: 3}}, // other company
			},
		},
	})
	assert.ErrorIs(t, err, ErrInvalidPolicy)
}

func TestPolicyService_Upsert_ManagerStepNeedsNoApprovers(t *testing.T) {
	svc := NewPolicyService(newMockPolicyRepo(), policyTestUsers(), &mockTxManager{}, testLogger())

	policy, err := svc.Upsert(context.Background(), 1, UpsertPolicyRequest{
		Name: "Manager first",
		Steps: []PolicyStepRequest{
			{Sequence: 1, RuleType: "Direct", IsManagerStep: true},
		},
	})
	require.NoError(t, err)
	assert.True(t, policy.Steps[0].IsManagerStep)
}

func TestPolicyService_Upsert_RejectsUnknownPolicyID(t *testing.T) {
	svc := NewPolicyService(newMockPolicyRepo(), policyTestUsers(), &mockTxManager{}, testLogger())

	specific := int64(1)
	_, err := svc.Upsert(context.Background(), 1, UpsertPolicyRequest{
		ID:   99,
		Name: "Ghost",
		Steps: []PolicyStepRequest{
			{Sequence: 1, RuleType: "SpecificApprover", SpecificApproverID: &specific},
		},
	})
	assert.ErrorIs(t, err, ErrInvalidPolicy)
}
