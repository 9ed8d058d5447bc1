package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/amalthea-hq/expensehub/internal/application/port"
	"github.com/amalthea-hq/expensehub/internal/domain/entity"
	"github.com/amalthea-hq/expensehub/internal/infrastructure/persistence/sqlite"
)

// ActionRepository implements port.ActionRepository. The ledger is
// append-only: this repository exposes no update or delete.
type ActionRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewActionRepository creates a new action repository
func NewActionRepository(db *sqlite.DB, logger *zap.Logger) port.ActionRepository {
	return &ActionRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends one approval action to the ledger
func (r *ActionRepository) Create(ctx context.Context, action *entity.ApprovalAction) error {
	query := `
		INSERT INTO expense_approval_actions (expense_id, step_id, approver_id, action, comments, action_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		action.ExpenseID,
		action.StepID,
		action.ApproverID,
		string(action.Action),
		action.Comments,
		action.ActionAt,
	)
	if err != nil {
		r.logger.Error("Failed to record approval action",
			zap.Int64("expense_id", action.ExpenseID),
			zap.Int64("approver_id", action.ApproverID),
			zap.Error(err))
		return fmt.Errorf("failed to record approval action: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	action.ID = id
	return nil
}

const actionColumns = `id, expense_id, step_id, approver_id, action, comments, action_at`

// ListByExpense retrieves every action recorded against an expense,
// oldest first.
func (r *ActionRepository) ListByExpense(ctx context.Context, expenseID int64) ([]*entity.ApprovalAction, error) {
	query := `SELECT ` + actionColumns + ` FROM expense_approval_actions WHERE expense_id = ? ORDER BY id`
	return r.list(ctx, query, expenseID)
}

// ListByExpenseStep retrieves the actions for one step of an expense,
// oldest first.
func (r *ActionRepository) ListByExpenseStep(ctx context.Context, expenseID, stepID int64) ([]*entity.ApprovalAction, error) {
	query := `SELECT ` + actionColumns + ` FROM expense_approval_actions WHERE expense_id = ? AND step_id = ? ORDER BY id`
	return r.list(ctx, query, expenseID, stepID)
}

func (r *ActionRepository) list(ctx context.Context, query string, args ...interface{}) ([]*entity.ApprovalAction, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list approval actions", zap.Error(err))
		return nil, fmt.Errorf("failed to list approval actions: %w", err)
	}
	defer rows.Close()

	var actions []*entity.ApprovalAction
	for rows.Next() {
		var action entity.ApprovalAction
		var actionType string

		err := rows.Scan(
			&action.ID,
			&action.ExpenseID,
			&action.StepID,
			&action.ApproverID,
			&actionType,
			&action.Comments,
			&action.ActionAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval action: %w", err)
		}

		action.Action = entity.ActionType(actionType)
		actions = append(actions, &action)
	}

	return actions, rows.Err()
}

// Verify interface compliance
var _ port.ActionRepository = (*ActionRepository)(nil)
