package approval

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/amalthea-hq/expensehub/internal/application/port"
	"github.com/amalthea-hq/expensehub/internal/domain/entity"
)

// Selector finds the single applicable policy for an expense.
type Selector struct {
	policies  port.PolicyRepository
	directory port.Directory
	logger    *zap.Logger
}

// NewSelector creates a new Selector
func NewSelector(policies port.PolicyRepository, directory port.Directory, logger *zap.Logger) *Selector {
	return &Selector{
		policies:  policies,
		directory: directory,
		logger:    logger,
	}
}

// Select returns the most specific policy whose amount band contains the
// expense's company-currency amount, or nil when no policy applies (the
// expense then requires no approval). Candidates are ordered by
// min_amount descending (unset treated as -inf), then max_amount
// ascending (unset treated as +inf), then ID, so narrower, higher-floor
// bands beat broad catch-alls and repeated selection is deterministic.
func (s *Selector) Select(ctx context.Context, expense *entity.Expense) (*entity.ApprovalPolicy, error) {
	companyID, err := s.directory.CompanyOf(ctx, expense.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve company for employee %d: %v", ErrCollaboratorUnavailable, expense.EmployeeID, err)
	}

	policies, err := s.policies.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("%w: list policies for company %d: %v", ErrCollaboratorUnavailable, companyID, err)
	}

	var candidates []*entity.ApprovalPolicy
	for _, p := range policies {
		if p.Contains(expense.AmountCompanyCents) {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if li, lj := lowerBound(candidates[i]), lowerBound(candidates[j]); li != lj {
			return li > lj
		}
		if ui, uj := upperBound(candidates[i]), upperBound(candidates[j]); ui != uj {
			return ui < uj
		}
		return candidates[i].ID < candidates[j].ID
	})

	selected := candidates[0]
	s.logger.Debug("Policy selected",
		zap.Int64("expense_id", expense.ID),
		zap.Int64("policy_id", selected.ID),
		zap.Int("candidates", len(candidates)))

	return selected, nil
}

func lowerBound(p *entity.ApprovalPolicy) int64 {
	if p.MinAmountCents == nil {
		return math.MinInt64
	}
	return *p.MinAmountCents
}

func upperBound(p *entity.ApprovalPolicy) int64 {
	if p.MaxAmountCents == nil {
		return math.MaxInt64
	}
	return *p.MaxAmountCents
}
