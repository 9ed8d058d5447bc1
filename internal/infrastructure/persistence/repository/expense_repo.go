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

// ExpenseRepository implements port.ExpenseRepository
type ExpenseRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *sqlite.DB, logger *zap.Logger) port.ExpenseRepository {
	return &ExpenseRepository{
		db:     db,
		logger: logger,
	}
}

const expenseColumns = `id, employee_id, paid_by_id, amount_cents, currency_code,
	amount_company_cents, category, description, expense_date, status,
	remarks, receipt_path, created_at`

// Create creates a new expense in Draft status unless one is set.
func (r *ExpenseRepository) Create(ctx context.Context, expense *entity.Expense) error {
	if expense.Status == "" {
		expense.Status = entity.StatusDraft
	}

	query := `
		INSERT INTO expenses (
			employee_id, paid_by_id, amount_cents, currency_code,
			amount_company_cents, category, description, expense_date,
			status, remarks, receipt_path
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		expense.EmployeeID,
		expense.PaidByID,
		expense.AmountCents,
		expense.CurrencyCode,
		expense.AmountCompanyCents,
		expense.Category,
		expense.Description,
		expense.ExpenseDate,
		expense.Status,
		expense.Remarks,
		expense.ReceiptPath,
	)
	if err != nil {
		r.logger.Error("Failed to create expense", zap.Int64("employee_id", expense.EmployeeID), zap.Error(err))
		return fmt.Errorf("failed to create expense: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	expense.ID = id
	return nil
}

// GetByID retrieves an expense by ID
func (r *ExpenseRepository) GetByID(ctx context.Context, id int64) (*entity.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = ?`

	expense, err := scanExpense(r.db.Executor(ctx).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get expense", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	return expense, nil
}

// ListByEmployee retrieves all expenses submitted by an employee
func (r *ExpenseRepository) ListByEmployee(ctx context.Context, employeeID int64) ([]*entity.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE employee_id = ? ORDER BY expense_date DESC, id DESC`
	return r.list(ctx, query, employeeID)
}

// ListByCompany retrieves all expenses of a company's employees
func (r *ExpenseRepository) ListByCompany(ctx context.Context, companyID int64) ([]*entity.Expense, error) {
	query := `
		SELECT e.id, e.employee_id, e.paid_by_id, e.amount_cents, e.currency_code,
			e.amount_company_cents, e.category, e.description, e.expense_date, e.status,
			e.remarks, e.receipt_path, e.created_at
		FROM expenses e
		JOIN users u ON u.id = e.employee_id
		WHERE u.company_id = ?
		ORDER BY e.expense_date DESC, e.id DESC
	`
	return r.list(ctx, query, companyID)
}

// ListByStatus retrieves all expenses with the given status
func (r *ExpenseRepository) ListByStatus(ctx context.Context, status string) ([]*entity.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE status = ? ORDER BY id`
	return r.list(ctx, query, status)
}

// UpdateStatus updates the expense status
func (r *ExpenseRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE expenses SET status = ? WHERE id = ?`

	_, err := r.db.Executor(ctx).ExecContext(ctx, query, status, id)
	if err != nil {
		r.logger.Error("Failed to update expense status", zap.Int64("id", id), zap.String("status", status), zap.Error(err))
		return fmt.Errorf("failed to update expense status: %w", err)
	}

	return nil
}

func (r *ExpenseRepository) list(ctx context.Context, query string, arg interface{}) ([]*entity.Expense, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, arg)
	if err != nil {
		r.logger.Error("Failed to list expenses", zap.Error(err))
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*entity.Expense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, expense)
	}

	return expenses, rows.Err()
}

func scanExpense(row rowScanner) (*entity.Expense, error) {
	var expense entity.Expense
	var paidBy sql.NullInt64
	var remarks, receiptPath sql.NullString

	err := row.Scan(
		&expense.ID,
		&expense.EmployeeID,
		&paidBy,
		&expense.AmountCents,
		&expense.CurrencyCode,
		&expense.AmountCompanyCents,
		&expense.Category,
		&expense.Description,
		&expense.ExpenseDate,
		&expense.Status,
		&remarks,
		&receiptPath,
		&expense.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if paidBy.Valid {
		expense.PaidByID = &paidBy.Int64
	}
	expense.Remarks = remarks.String
	expense.ReceiptPath = receiptPath.String

	return &expense, nil
}

// Verify interface compliance
var _ port.ExpenseRepository = (*ExpenseRepository)(nil)
