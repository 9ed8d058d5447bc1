package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amalthea-hq/expensehub/internal/application/port"
	"github.com/amalthea-hq/expensehub/internal/domain/entity"
)

type mockExpenseRepo struct {
	expenses map[int64]*entity.Expense
	nextID   int64
}

func newMockExpenseRepo() *mockExpenseRepo {
	return &mockExpenseRepo{expenses: make(map[int64]*entity.Expense), nextID: 1}
}

func (m *mockExpenseRepo) Create(_ context.Context, expense *entity.Expense) error {
	expense.ID = m.nextID
	m.nextID++
	m.expenses[expense.ID] = expense
	return nil
}

func (m *mockExpenseRepo) GetByID(_ context.Context, id int64) (*entity.Expense, error) {
	return m.expenses[id], nil
}

func (m *mockExpenseRepo) ListByEmployee(_ context.Context, employeeID int64) ([]*entity.Expense, error) {
	var expenses []*entity.Expense
	for _, e := range m.expenses {
		if e.EmployeeID == employeeID {
			expenses = append(expenses, e)
		}
	}
	return expenses, nil
}

func (m *mockExpenseRepo) ListByCompany(_ context.Context, _ int64) ([]*entity.Expense, error) {
	var expenses []*entity.Expense
	for _, e := range m.expenses {
		expenses = append(expenses, e)
	}
	return expenses, nil
}

func (m *mockExpenseRepo) ListByStatus(_ context.Context, status string) ([]*entity.Expense, error) {
	var expenses []*entity.Expense
	for _, e := range m.expenses {
		if e.Status == status {
			expenses = append(expenses, e)
		}
	}
	return expenses, nil
}

func (m *mockExpenseRepo) UpdateStatus(_ context.Context, id int64, status string) error {
	m.expenses[id].Status = status
	return nil
}

var _ port.ExpenseRepository = (*mockExpenseRepo)(nil)

func expenseTestFixture(t *testing.T) (ExpenseService, *mockExpenseRepo) {
	t.Helper()

	companies := newMockCompanyRepo()
	users := newMockUserRepo()

	require.NoError(t, companies.Create(context.Background(), &entity.Company{
		Name: "Acme Corp", CurrencyCode: "USD",
	}))
	require.NoError(t, users.Create(context.Background(), &entity.User{
		CompanyID: 1, Email: "eve@acme.example", FullName: "Eve", Role: entity.RoleEmployee,
	}))

	now := time.Now()
	rates := newMockRateRepo()
	require.NoError(t, rates.ReplaceForBase(context.Background(), "EUR", []*entity.ExchangeRate{
		{TargetCurrency: "USD", Rate: 1.25, LastUpdated: now},
	}))
	currency := newCurrencyService(rates, &mockRateSource{}, now)

	expenses := newMockExpenseRepo()
	svc := NewExpenseService(expenses, &mockActionRepo{}, users, companies, currency, nil, testLogger())
	return svc, expenses
}

func TestExpenseService_Create_ConvertsToCompanyCurrency(t *testing.T) {
	svc, _ := expenseTestFixture(t)

	expense, err := svc.Create(context.Background(), 1, CreateExpenseRequest{
		AmountCents:  10000,
		CurrencyCode: "EUR",
		Category:     "meals",
		Description:  "Client dinner",
		ExpenseDate:  "2025-03-10",
	})
	require.NoError(t, err)

	assert.Equal(t, entity.StatusDraft, expense.Status)
	assert.Equal(t, int64(10000), expense.AmountCents)
	assert.Equal(t, int64(12500), expense.AmountCompanyCents)
}

func TestExpenseService_Create_Validation(t *testing.T) {
	svc, _ := expenseTestFixture(t)

	_, err := svc.Create(context.Background(), 1, CreateExpenseRequest{
		AmountCents:  -5,
		CurrencyCode: "EUR",
		Category:     "meals",
		Description:  "Client dinner",
		ExpenseDate:  "2025-03-10",
	})
	assert.Error(t, err)

	_, err = svc.Create(context.Background(), 1, CreateExpenseRequest{
		AmountCents:  100,
		CurrencyCode: "EUR",
		Category:     "meals",
		Description:  "Client dinner",
		ExpenseDate:  "10/03/2025",
	})
	assert.Error(t, err, "date must be YYYY-MM-DD")
}

func TestExpenseService_NotifyStatus_MailsEmployee(t *testing.T) {
	companies := newMockCompanyRepo()
	users := newMockUserRepo()
	require.NoError(t, companies.Create(context.Background(), &entity.Company{
		Name: "Acme Corp", CurrencyCode: "USD",
	}))
	require.NoError(t, users.Create(context.Background(), &entity.User{
		CompanyID: 1, Email: "eve@acme.example", FullName: "Eve", Role: entity.RoleEmployee,
	}))

	expenses := newMockExpenseRepo()
	require.NoError(t, expenses.Create(context.Background(), &entity.Expense{
		EmployeeID: 1, Status: entity.StatusApproved,
	}))

	mailer := &mockMailer{}
	currency := newCurrencyService(newMockRateRepo(), &mockRateSource{}, time.Now())
	svc := NewExpenseService(expenses, &mockActionRepo{}, users, companies, currency, mailer, testLogger())

	svc.NotifyStatus(context.Background(), 1)
	assert.Equal(t, []string{"eve@acme.example"}, mailer.statusMails)

	// unknown expense is a logged no-op
	svc.NotifyStatus(context.Background(), 99)
	assert.Len(t, mailer.statusMails, 1)
}

func TestExpenseService_Totals(t *testing.T) {
	svc, repo := expenseTestFixture(t)

	for i, status := range []string{entity.StatusDraft, entity.StatusSubmitted, entity.StatusApproved, entity.StatusApproved} {
		require.NoError(t, repo.Create(context.Background(), &entity.Expense{
			EmployeeID:         1,
			AmountCompanyCents: int64((i + 1) * 1000),
			Status:             status,
		}))
	}

	totals, err := svc.Totals(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), totals.DraftCents)
	assert.Equal(t, int64(2000), totals.SubmittedCents)
	assert.Equal(t, int64(7000), totals.ApprovedCents)
	assert.Zero(t, totals.RejectedCents)
}
