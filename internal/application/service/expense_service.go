package service

import (
	"context"
	"fmt"
	"time"

	"github.com/amalthea-hq/expensehub/internal/application/port"
	"github.com/amalthea-hq/expensehub/internal/domain/entity"
)

// CreateExpenseRequest is an employee drafting a new expense claim.
// AmountCents is in the claim currency; conversion into the company
// currency happens at creation time and is frozen thereafter.
type CreateExpenseRequest struct {
	AmountCents  int64  `json:"amount_cents" validate:"required,gt=0"`
	CurrencyCode string `json:"currency_code" validate:"required,len=3"`
	Category     string `json:"category" validate:"required"`
	Description  string `json:"description" validate:"required"`
	ExpenseDate  string `json:"expense_date" validate:"required"`
	PaidByID     *int64 `json:"paid_by_id"`
	Remarks      string `json:"remarks"`
	ReceiptPath  string `json:"receipt_path"`
}

// ExpenseTotals sums expenses per status in company-currency cents
type ExpenseTotals struct {
	DraftCents     int64 `json:"draft_cents"`
	SubmittedCents int64 `json:"submitted_cents"`
	ApprovedCents  int64 `json:"approved_cents"`
	RejectedCents  int64 `json:"rejected_cents"`
}

// ExpenseService manages expense claims outside the approval workflow
type ExpenseService interface {
	Create(ctx context.Context, employeeID int64, req CreateExpenseRequest) (*entity.Expense, error)
	Get(ctx context.Context, id int64) (*entity.Expense, error)
	ListMine(ctx context.Context, employeeID int64) ([]*entity.Expense, error)
	ListCompany(ctx context.Context, companyID int64) ([]*entity.Expense, error)
	Totals(ctx context.Context, employeeID int64) (*ExpenseTotals, error)
	History(ctx context.Context, expenseID int64) ([]*entity.ApprovalAction, error)
	NotifyStatus(ctx context.Context, expenseID int64)
}

type expenseServiceImpl struct {
	expenses  port.ExpenseRepository
	actions   port.ActionRepository
	users     port.UserRepository
	companies port.CompanyRepository
	currency  CurrencyService
	mailer    port.MailSender
	logger    Logger
}

// NewExpenseService creates a new ExpenseService. mailer may be nil,
// which disables status notifications.
func NewExpenseService(
	expenses port.ExpenseRepository,
	actions port.ActionRepository,
	users port.UserRepository,
	companies port.CompanyRepository,
	currency CurrencyService,
	mailer port.MailSender,
	logger Logger,
) ExpenseService {
	return &expenseServiceImpl{
		expenses:  expenses,
		actions:   actions,
		users:     users,
		companies: companies,
		currency:  currency,
		mailer:    mailer,
		logger:    logger,
	}
}

// Create drafts a new expense, converting the amount into the company
// currency at today's rate.
func (s *expenseServiceImpl) Create(ctx context.Context, employeeID int64, req CreateExpenseRequest) (*entity.Expense, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid expense request: %w", err)
	}

	expenseDate, err := time.Parse("2006-01-02", req.ExpenseDate)
	if err != nil {
		return nil, fmt.Errorf("invalid expense_date, want YYYY-MM-DD: %w", err)
	}

	employee, err := s.users.GetByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if employee == nil {
		return nil, fmt.Errorf("employee %d not found", employeeID)
	}

	company, err := s.companies.GetByID(ctx, employee.CompanyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, fmt.Errorf("company %d not found", employee.CompanyID)
	}

	companyCents, err := s.currency.ConvertCents(ctx, req.AmountCents, req.CurrencyCode, company.CurrencyCode)
	if err != nil {
		return nil, err
	}

	expense := &entity.Expense{
		EmployeeID:         employeeID,
		PaidByID:           req.PaidByID,
		AmountCents:        req.AmountCents,
		CurrencyCode:       req.CurrencyCode,
		AmountCompanyCents: companyCents,
		Category:           req.Category,
		Description:        req.Description,
		ExpenseDate:        expenseDate,
		Status:             entity.StatusDraft,
		Remarks:            req.Remarks,
		ReceiptPath:        req.ReceiptPath,
	}

	if err := s.expenses.Create(ctx, expense); err != nil {
		return nil, err
	}

	s.logger.Infow("Expense drafted",
		"expense_id", expense.ID,
		"employee_id", employeeID,
		"amount_cents", req.AmountCents,
		"currency", req.CurrencyCode,
		"company_cents", companyCents)
	return expense, nil
}

// Get retrieves one expense
func (s *expenseServiceImpl) Get(ctx context.Context, id int64) (*entity.Expense, error) {
	return s.expenses.GetByID(ctx, id)
}

// ListMine retrieves the employee's own expenses
func (s *expenseServiceImpl) ListMine(ctx context.Context, employeeID int64) ([]*entity.Expense, error) {
	return s.expenses.ListByEmployee(ctx, employeeID)
}

// ListCompany retrieves every expense in the company
func (s *expenseServiceImpl) ListCompany(ctx context.Context, companyID int64) ([]*entity.Expense, error) {
	return s.expenses.ListByCompany(ctx, companyID)
}

// History retrieves the approval ledger of an expense, oldest first
func (s *expenseServiceImpl) History(ctx context.Context, expenseID int64) ([]*entity.ApprovalAction, error) {
	return s.actions.ListByExpense(ctx, expenseID)
}

// NotifyStatus emails the employee the current status of their expense.
// Best-effort: failures are logged, never surfaced, so an approval
// decision is never rolled back over a mail outage.
func (s *expenseServiceImpl) NotifyStatus(ctx context.Context, expenseID int64) {
	if s.mailer == nil {
		return
	}

	expense, err := s.expenses.GetByID(ctx, expenseID)
	if err != nil || expense == nil {
		s.logger.Warnw("Status notification skipped, expense lookup failed",
			"expense_id", expenseID, "error", err)
		return
	}

	employee, err := s.users.GetByID(ctx, expense.EmployeeID)
	if err != nil || employee == nil {
		s.logger.Warnw("Status notification skipped, employee lookup failed",
			"expense_id", expenseID, "employee_id", expense.EmployeeID, "error", err)
		return
	}

	if err := s.mailer.SendExpenseStatus(ctx, employee.Email, employee.FullName, expense.ID, expense.Status); err != nil {
		s.logger.Warnw("Failed to send status notification",
			"expense_id", expenseID, "email", employee.Email, "error", err)
	}
}

// Totals sums the employee's expenses per status in company currency
func (s *expenseServiceImpl) Totals(ctx context.Context, employeeID int64) (*ExpenseTotals, error) {
	expenses, err := s.expenses.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	totals := &ExpenseTotals{}
	for _, e := range expenses {
		switch e.Status {
		case entity.StatusDraft:
			totals.DraftCents += e.AmountCompanyCents
		case entity.StatusSubmitted:
			totals.SubmittedCents += e.AmountCompanyCents
		case entity.StatusApproved:
			totals.ApprovedCents += e.AmountCompanyCents
		case entity.StatusRejected:
			totals.RejectedCents += e.AmountCompanyCents
		}
	}
	return totals, nil
}
