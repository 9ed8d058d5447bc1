package approval

import (
	"context"
	"sync"

	"github.com/amalthea-hq/expensehub/internal/domain/entity"
)

// Hand-rolled port mocks shared by the engine tests.

type mockDirectory struct {
	companyOfFunc func(ctx context.Context, employeeID int64) (int64, error)
	managerOfFunc func(ctx context.Context, employeeID int64) (*int64, error)
}

func (m *mockDirectory) CompanyOf(ctx context.Context, employeeID int64) (int64, error) {
	if m.companyOfFunc != nil {
		return m.companyOfFunc(ctx, employeeID)
	}
	return 1, nil
}

func (m *mockDirectory) ManagerOf(ctx context.Context, employeeID int64) (*int64, error) {
	if m.managerOfFunc != nil {
		return m.managerOfFunc(ctx, employeeID)
	}
	return nil, nil
}

type mockPolicyRepo struct {
	policies []*entity.ApprovalPolicy
}

func (m *mockPolicyRepo) Replace(ctx context.Context, policy *entity.ApprovalPolicy) (int64, error) {
	return policy.ID, nil
}

func (m *mockPolicyRepo) GetByID(ctx context.Context, id int64) (*entity.ApprovalPolicy, error) {
	for _, p := range m.policies {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (m *mockPolicyRepo) ListByCompany(ctx context.Context, companyID int64) ([]*entity.ApprovalPolicy, error) {
	var out []*entity.ApprovalPolicy
	for _, p := range m.policies {
		if p.CompanyID == companyID {
			out = append(out, p)
		}
	}
	return out, nil
}

type mockExpenseRepo struct {
	mu       sync.Mutex
	expenses map[int64]*entity.Expense
}

func newMockExpenseRepo(expenses ...*entity.Expense) *mockExpenseRepo {
	m := &mockExpenseRepo{expenses: make(map[int64]*entity.Expense)}
	for _, e := range expenses {
		m.expenses[e.ID] = e
	}
	return m
}

func (m *mockExpenseRepo) Create(ctx context.Context, expense *entity.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expenses[expense.ID] = expense
	return nil
}

func (m *mockExpenseRepo) GetByID(ctx context.Context, id int64) (*entity.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.expenses[id]
	if !ok {
		return nil, nil
	}
	clone := *e
	return &clone, nil
}

func (m *mockExpenseRepo) ListByEmployee(ctx context.Context, employeeID int64) ([]*entity.Expense, error) {
	return nil, nil
}

func (m *mockExpenseRepo) ListByCompany(ctx context.Context, companyID int64) ([]*entity.Expense, error) {
	return nil, nil
}

func (m *mockExpenseRepo) ListByStatus(ctx context.Context, status string) ([]*entity.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Expense
	for _, e := range m.expenses {
		if e.Status == status {
			clone := *e
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *mockExpenseRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.expenses[id]; ok {
		e.Status = status
	}
	return nil
}

type mockActionRepo struct {
	mu      sync.Mutex
	nextID  int64
	actions []*entity.ApprovalAction
}

func (m *mockActionRepo) Create(ctx context.Context, action *entity.ApprovalAction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	action.ID = m.nextID
	m.actions = append(m.actions, action)
	return nil
}

func (m *mockActionRepo) ListByExpense(ctx context.Context, expenseID int64) ([]*entity.ApprovalAction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.ApprovalAction
	for _, a := range m.actions {
		if a.ExpenseID == expenseID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockActionRepo) ListByExpenseStep(ctx context.Context, expenseID, stepID int64) ([]*entity.ApprovalAction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.ApprovalAction
	for _, a := range m.actions {
		if a.ExpenseID == expenseID && a.StepID == stepID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockActionRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.actions)
}

type mockTxManager struct{}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
