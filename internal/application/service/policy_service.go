package service

import (
	"context"
	"fmt"

	"github.com/amalthea-hq/expensehub/internal/application/port"
	"github.com/amalthea-hq/expensehub/internal/domain/entity"
)

// UpsertPolicyRequest replaces a policy definition wholesale. ID zero
// creates a new policy; a set ID rebuilds that policy's step graph.
type UpsertPolicyRequest struct {
	ID             int64               `json:"id"`
	Name           string              `json:"name" validate:"required,min=2"`
	MinAmountCents *int64              `json:"min_amount_cents"`
	MaxAmountCents *int64              `json:"max_amount_cents"`
	Steps          []PolicyStepRequest `json:"steps" validate:"required,min=1,dive"`
}

// PolicyStepRequest defines one step of the pipeline
type PolicyStepRequest struct {
	Sequence           int                   `json:"sequence" validate:"required,gt=0"`
	RuleType           string                `json:"rule_type" validate:"required,oneof=Direct Percentage SpecificApprover"`
	IsManagerStep      bool                  `json:"is_manager_step"`
	IsSequential       bool                  `json:"is_sequential"`
	PercentageRequired *int                  `json:"percentage_required"`
	SpecificApproverID *int64                `json:"specific_approver_id"`
	Approvers          []StepApproverRequest `json:"approvers" validate:"dive"`
}

// StepApproverRequest is one configured approver on a step
type StepApproverRequest struct {
	ApproverID int64 `json:"approver_id" validate:"required"`
	IsRequired bool  `json:"is_required"`
	OrderIndex int   `json:"order_index"`
}

// PolicyService manages approval policy definitions. Misconfigured
// steps are rejected here so the workflow engine never has to evaluate
// one.
type PolicyService interface {
	Upsert(ctx context.Context, companyID int64, req UpsertPolicyRequest) (*entity.ApprovalPolicy, error)
	Get(ctx context.Context, id int64) (*entity.ApprovalPolicy, error)
	List(ctx context.Context, companyID int64) ([]*entity.ApprovalPolicy, error)
}

type policyServiceImpl struct {
	policies  port.PolicyRepository
	users     port.UserRepository
	txManager port.TransactionManager
	logger    Logger
}

// NewPolicyService creates a new PolicyService
func NewPolicyService(
	policies port.PolicyRepository,
	users port.UserRepository,
	txManager port.TransactionManager,
	logger Logger,
) PolicyService {
	return &policyServiceImpl{
		policies:  policies,
		users:     users,
		txManager: txManager,
		logger:    logger,
	}
}

// Upsert validates and stores a policy definition in one transaction
func (s *policyServiceImpl) Upsert(ctx context.Context, companyID int64, req UpsertPolicyRequest) (*entity.ApprovalPolicy, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
	}
	if err := s.validateSemantics(ctx, companyID, req); err != nil {
		return nil, err
	}

	policy := toPolicy(companyID, req)

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if req.ID != 0 {
			existing, err := s.policies.GetByID(txCtx, req.ID)
			if err != nil {
				return err
			}
			if existing == nil || existing.CompanyID != companyID {
				return fmt.Errorf("%w: policy %d not found in company", ErrInvalidPolicy, req.ID)
			}
		}
		_, err := s.policies.Replace(txCtx, policy)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Policy upserted",
		"policy_id", policy.ID,
		"company_id", companyID,
		"steps", len(policy.Steps))
	return policy, nil
}

// Get retrieves one policy with its step graph
func (s *policyServiceImpl) Get(ctx context.Context, id int64) (*entity.ApprovalPolicy, error) {
	return s.policies.GetByID(ctx, id)
}

// List retrieves all policies of a company
func (s *policyServiceImpl) List(ctx context.Context, companyID int64) ([]*entity.ApprovalPolicy, error) {
	return s.policies.ListByCompany(ctx, companyID)
}

// validateSemantics enforces the cross-field rules the struct tags
// cannot express.
func (s *policyServiceImpl) validateSemantics(ctx context.Context, companyID int64, req UpsertPolicyRequest) error {
	if req.MinAmountCents != nil && req.MaxAmountCents != nil && *req.MinAmountCents > *req.MaxAmountCents {
		return fmt.Errorf("%w: min amount exceeds max amount", ErrInvalidPolicy)
	}

	seen := make(map[int]bool, len(req.Steps))
	for _, step := range req.Steps {
		if seen[step.Sequence] {
			return fmt.Errorf("%w: duplicate step sequence %d", ErrInvalidPolicy, step.Sequence)
		}
		seen[step.Sequence] = true

		switch entity.RuleType(step.RuleType) {
		case entity.RulePercentage:
			if step.PercentageRequired == nil || *step.PercentageRequired < 1 || *step.PercentageRequired > 100 {
				return fmt.Errorf("%w: step %d needs percentage_required in 1..100", ErrInvalidPolicy, step.Sequence)
			}
			// An empty voter list would make the step undecidable, so it
			// never reaches the evaluator.
			if len(step.Approvers) == 0 && !step.IsManagerStep {
				return fmt.Errorf("%w: percentage step %d has no approvers", ErrInvalidPolicy, step.Sequence)
			}
		case entity.RuleSpecificApprover:
			if step.SpecificApproverID == nil && !step.IsManagerStep {
				return fmt.Errorf("%w: step %d needs specific_approver_id", ErrInvalidPolicy, step.Sequence)
			}
		case entity.RuleDirect:
			if len(step.Approvers) == 0 && !step.IsManagerStep {
				return fmt.Errorf("%w: direct step %d has no approvers", ErrInvalidPolicy, step.Sequence)
			}
		}

		for _, approver := range step.Approvers {
			user, err := s.users.GetByID(ctx, approver.ApproverID)
			if err != nil {
				return err
			}
			if user == nil || user.CompanyID != companyID {
				return fmt.Errorf("%w: approver %d not found in company", ErrInvalidPolicy, approver.ApproverID)
			}
		}
		if step.SpecificApproverID != nil {
			user, err := s.users.GetByID(ctx, *step.SpecificApproverID)
			if err != nil {
				return err
			}
			if user == nil || user.CompanyID != companyID {
				return fmt.Errorf("%w: approver %d not found in company", ErrInvalidPolicy, *step.SpecificApproverID)
			}
		}
	}

	return nil
}

func toPolicy(companyID int64, req UpsertPolicyRequest) *entity.ApprovalPolicy {
	policy := &entity.ApprovalPolicy{
		ID:             req.ID,
		CompanyID:      companyID,
		Name:           req.Name,
		MinAmountCents: req.MinAmountCents,
		MaxAmountCents: req.MaxAmountCents,
	}
	for _, s := range req.Steps {
		step := &entity.ApprovalStep{
			Sequence:           s.Sequence,
			RuleType:           entity.RuleType(s.RuleType),
			IsManagerStep:      s.IsManagerStep,
			IsSequential:       s.IsSequential,
			PercentageRequired: s.PercentageRequired,
			SpecificApproverID: s.SpecificApproverID,
		}
		for _, a := range s.Approvers {
			step.Approvers = append(step.Approvers, &entity.StepApprover{
				ApproverID: a.ApproverID,
				IsRequired: a.IsRequired,
				OrderIndex: a.OrderIndex,
			})
		}
		policy.Steps = append(policy.Steps, step)
	}
	return policy
}
