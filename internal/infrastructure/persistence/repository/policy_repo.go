package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/amalthea-hq/expensehub/internal/application/port"
	"github.com/amalthea-hq/expensehub/internal/domain/entity"
	"github.com/amalthea-hq/expensehub/internal/infrastructure/persistence/sqlite"
)

// PolicyRepository implements port.PolicyRepository
type PolicyRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewPolicyRepository creates a new policy repository
func NewPolicyRepository(db *sqlite.DB, logger *zap.Logger) port.PolicyRepository {
	return &PolicyRepository{
		db:     db,
		logger: logger,
	}
}

// Replace creates the policy, or replaces it wholesale when policy.ID is
// set: existing steps and their approvers are deleted and rebuilt from
// the given graph. Callers wrap this in a transaction so a failed
// rebuild never leaves a policy without steps.
func (r *PolicyRepository) Replace(ctx context.Context, policy *entity.ApprovalPolicy) (int64, error) {
	ex := r.db.Executor(ctx)

	if policy.ID != 0 {
		result, err := ex.ExecContext(ctx, `
			UPDATE approval_policies
			SET company_id = ?, name = ?, min_amount_cents = ?, max_amount_cents = ?
			WHERE id = ?
		`, policy.CompanyID, policy.Name, policy.MinAmountCents, policy.MaxAmountCents, policy.ID)
		if err != nil {
			return 0, fmt.Errorf("failed to update policy: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return 0, sql.ErrNoRows
		}

		// Discard the old step graph; step_approvers go with their steps
		// via ON DELETE CASCADE.
		if _, err := ex.ExecContext(ctx, `DELETE FROM approval_steps WHERE policy_id = ?`, policy.ID); err != nil {
			return 0, fmt.Errorf("failed to clear policy steps: %w", err)
		}
	} else {
		result, err := ex.ExecContext(ctx, `
			INSERT INTO approval_policies (company_id, name, min_amount_cents, max_amount_cents)
			VALUES (?, ?, ?, ?)
		`, policy.CompanyID, policy.Name, policy.MinAmountCents, policy.MaxAmountCents)
		if err != nil {
			return 0, fmt.Errorf("failed to create policy: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("failed to get last insert id: %w", err)
		}
		policy.ID = id
	}

	for _, step := range policy.Steps {
		result, err := ex.ExecContext(ctx, `
			INSERT INTO approval_steps (
				policy_id, step_sequence, rule_type, is_manager_step,
				is_sequential, percentage_required, specific_approver_id
			) VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			policy.ID,
			step.Sequence,
			string(step.RuleType),
			step.IsManagerStep,
			step.IsSequential,
			step.PercentageRequired,
			step.SpecificApproverID,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to create step: %w", err)
		}
		stepID, err := result.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("failed to get last insert id: %w", err)
		}
		step.ID = stepID
		step.PolicyID = policy.ID

		for _, approver := range step.Approvers {
			result, err := ex.ExecContext(ctx, `
				INSERT INTO step_approvers (step_id, approver_id, is_required, order_index)
				VALUES (?, ?, ?, ?)
			`, stepID, approver.ApproverID, approver.IsRequired, approver.OrderIndex)
			if err != nil {
				return 0, fmt.Errorf("failed to create step approver: %w", err)
			}
			approverRowID, err := result.LastInsertId()
			if err != nil {
				return 0, fmt.Errorf("failed to get last insert id: %w", err)
			}
			approver.ID = approverRowID
			approver.StepID = stepID
		}
	}

	r.logger.Info("Policy replaced",
		zap.Int64("policy_id", policy.ID),
		zap.Int("steps", len(policy.Steps)))

	return policy.ID, nil
}

// GetByID retrieves a policy with its full step graph
func (r *PolicyRepository) GetByID(ctx context.Context, id int64) (*entity.ApprovalPolicy, error) {
	query := `
		SELECT id, company_id, name, min_amount_cents, max_amount_cents, created_at
		FROM approval_policies
		WHERE id = ?
	`

	policy, err := scanPolicy(r.db.Executor(ctx).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get policy", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get policy: %w", err)
	}

	if err := r.loadSteps(ctx, policy); err != nil {
		return nil, err
	}

	return policy, nil
}

// ListByCompany retrieves all policies of a company with their step
// graphs, steps ordered by sequence and approvers by order_index.
func (r *PolicyRepository) ListByCompany(ctx context.Context, companyID int64) ([]*entity.ApprovalPolicy, error) {
	query := `
		SELECT id, company_id, name, min_amount_cents, max_amount_cents, created_at
		FROM approval_policies
		WHERE company_id = ?
		ORDER BY id
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, companyID)
	if err != nil {
		r.logger.Error("Failed to list policies", zap.Int64("company_id", companyID), zap.Error(err))
		return nil, fmt.Errorf("failed to list policies: %w", err)
	}
	defer rows.Close()

	var policies []*entity.ApprovalPolicy
	for rows.Next() {
		policy, err := scanPolicy(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan policy: %w", err)
		}
		policies = append(policies, policy)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, policy := range policies {
		if err := r.loadSteps(ctx, policy); err != nil {
			return nil, err
		}
	}

	return policies, nil
}

func (r *PolicyRepository) loadSteps(ctx context.Context, policy *entity.ApprovalPolicy) error {
	rows, err := r.db.Executor(ctx).QueryContext(ctx, `
		SELECT id, policy_id, step_sequence, rule_type, is_manager_step,
			is_sequential, percentage_required, specific_approver_id
		FROM approval_steps
		WHERE policy_id = ?
		ORDER BY step_sequence
	`, policy.ID)
	if err != nil {
		return fmt.Errorf("failed to load steps: %w", err)
	}
	defer rows.Close()

	policy.Steps = nil
	for rows.Next() {
		var step entity.ApprovalStep
		var ruleType string
		var pct sql.NullInt64
		var specific sql.NullInt64

		err := rows.Scan(
			&step.ID,
			&step.PolicyID,
			&step.Sequence,
			&ruleType,
			&step.IsManagerStep,
			&step.IsSequential,
			&pct,
			&specific,
		)
		if err != nil {
			return fmt.Errorf("failed to scan step: %w", err)
		}

		step.RuleType = entity.RuleType(ruleType)
		if pct.Valid {
			v := int(pct.Int64)
			step.PercentageRequired = &v
		}
		if specific.Valid {
			step.SpecificApproverID = &specific.Int64
		}

		policy.Steps = append(policy.Steps, &step)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, step := range policy.Steps {
		if err := r.loadApprovers(ctx, step); err != nil {
			return err
		}
	}

	return nil
}

func (r *PolicyRepository) loadApprovers(ctx context.Context, step *entity.ApprovalStep) error {
	rows, err := r.db.Executor(ctx).QueryContext(ctx, `
		SELECT id, step_id, approver_id, is_required, order_index
		FROM step_approvers
		WHERE step_id = ?
		ORDER BY order_index, id
	`, step.ID)
	if err != nil {
		return fmt.Errorf("failed to load step approvers: %w", err)
	}
	defer rows.Close()

	step.Approvers = nil
	for rows.Next() {
		var approver entity.StepApprover
		err := rows.Scan(
			&approver.ID,
			&approver.StepID,
			&approver.ApproverID,
			&approver.IsRequired,
			&approver.OrderIndex,
		)
		if err != nil {
			return fmt.Errorf("failed to scan step approver: %w", err)
		}
		step.Approvers = append(step.Approvers, &approver)
	}

	return rows.Err()
}

func scanPolicy(row rowScanner) (*entity.ApprovalPolicy, error) {
	var policy entity.ApprovalPolicy
	var minAmount, maxAmount sql.NullInt64

	err := row.Scan(
		&policy.ID,
		&policy.CompanyID,
		&policy.Name,
		&minAmount,
		&maxAmount,
		&policy.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if minAmount.Valid {
		policy.MinAmountCents = &minAmount.Int64
	}
	if maxAmount.Valid {
		policy.MaxAmountCents = &maxAmount.Int64
	}

	return &policy, nil
}

// Verify interface compliance
var _ port.PolicyRepository = (*PolicyRepository)(nil)
