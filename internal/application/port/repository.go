package port

import (
	"context"

	"github.com/amalthea-hq/expensehub/internal/domain/entity"
)

// CompanyRepository defines persistence operations for Company
type CompanyRepository interface {
	Create(ctx context.Context, company *entity.Company) error
	GetByID(ctx context.Context, id int64) (*entity.Company, error)
	GetByName(ctx context.Context, name string) (*entity.Company, error)
}

// UserRepository defines persistence operations for User
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	ListByCompany(ctx context.Context, companyID int64) ([]*entity.User, error)
	UpdateManager(ctx context.Context, id int64, managerID *int64) error
}

// ExpenseRepository defines persistence operations for Expense
type ExpenseRepository interface {
	Create(ctx context.Context, expense *entity.Expense) error
	GetByID(ctx context.Context, id int64) (*entity.Expense, error)
	ListByEmployee(ctx context.Context, employeeID int64) ([]*entity.Expense, error)
	ListByCompany(ctx context.Context, companyID int64) ([]*entity.Expense, error)
	ListByStatus(ctx context.Context, status string) ([]*entity.Expense, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
}

// PolicyRepository defines persistence operations for ApprovalPolicy.
// Replace has wholesale semantics: when the policy exists its steps and
// approvers are discarded and rebuilt from the given graph in one
// transaction; partial edits are not supported.
type PolicyRepository interface {
	Replace(ctx context.Context, policy *entity.ApprovalPolicy) (int64, error)
	GetByID(ctx context.Context, id int64) (*entity.ApprovalPolicy, error)
	ListByCompany(ctx context.Context, companyID int64) ([]*entity.ApprovalPolicy, error)
}

// ActionRepository defines persistence operations for the append-only
// ApprovalAction ledger. There is no update or delete.
type ActionRepository interface {
	Create(ctx context.Context, action *entity.ApprovalAction) error
	ListByExpense(ctx context.Context, expenseID int64) ([]*entity.ApprovalAction, error)
	ListByExpenseStep(ctx context.Context, expenseID, stepID int64) ([]*entity.ApprovalAction, error)
}

// CountryRepository defines persistence operations for cached Country data
type CountryRepository interface {
	ReplaceAll(ctx context.Context, countries []*entity.Country) error
	ListActive(ctx context.Context) ([]*entity.Country, error)
	GetByID(ctx context.Context, id int64) (*entity.Country, error)
	OldestUpdate(ctx context.Context) (*entity.Country, error)
}

// RateRepository defines persistence operations for cached ExchangeRate data
type RateRepository interface {
	ReplaceForBase(ctx context.Context, base string, rates []*entity.ExchangeRate) error
	Get(ctx context.Context, base, target string) (*entity.ExchangeRate, error)
	ListByBase(ctx context.Context, base string) ([]*entity.ExchangeRate, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
