package service

import (
	"context"
	"fmt"

	"github.com/amalthea-hq/expensehub/internal/application/port"
	"github.com/amalthea-hq/expensehub/internal/domain/entity"
)

type mockCompanyRepo struct {
	companies map[int64]*entity.Company
	nextID    int64
}

func newMockCompanyRepo() *mockCompanyRepo {
	return &mockCompanyRepo{companies: make(map[int64]*entity.Company), nextID: 1}
}

func (m *mockCompanyRepo) Create(_ context.Context, company *entity.Company) error {
	company.ID = m.nextID
	m.nextID++
	m.companies[company.ID] = company
	return nil
}

func (m *mockCompanyRepo) GetByID(_ context.Context, id int64) (*entity.Company, error) {
	return m.companies[id], nil
}

func (m *mockCompanyRepo) GetByName(_ context.Context, name string) (*entity.Company, error) {
	for _, c := range m.companies {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, nil
}

type mockUserRepo struct {
	users  map[int64]*entity.User
	nextID int64
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[int64]*entity.User), nextID: 1}
}

func (m *mockUserRepo) Create(_ context.Context, user *entity.User) error {
	user.ID = m.nextID
	m.nextID++
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id int64) (*entity.User, error) {
	return m.users[id], nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) ListByCompany(_ context.Context, companyID int64) ([]*entity.User, error) {
	var users []*entity.User
	for _, u := range m.users {
		if u.CompanyID == companyID {
			users = append(users, u)
		}
	}
	return users, nil
}

func (m *mockUserRepo) UpdateManager(_ context.Context, id int64, managerID *int64) error {
	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("user %d not found", id)
	}
	u.ManagerID = managerID
	return nil
}

type mockCountryRepo struct {
	countries map[int64]*entity.Country
	oldest    *entity.Country
}

func (m *mockCountryRepo) ReplaceAll(_ context.Context, countries []*entity.Country) error {
	if m.countries == nil {
		m.countries = make(map[int64]*entity.Country)
	}
	for i, c := range countries {
		c.ID = int64(i + 1)
		m.countries[c.ID] = c
	}
	return nil
}

func (m *mockCountryRepo) ListActive(_ context.Context) ([]*entity.Country, error) {
	var countries []*entity.Country
	for _, c := range m.countries {
		if c.IsActive {
			countries = append(countries, c)
		}
	}
	return countries, nil
}

func (m *mockCountryRepo) GetByID(_ context.Context, id int64) (*entity.Country, error) {
	return m.countries[id], nil
}

func (m *mockCountryRepo) OldestUpdate(_ context.Context) (*entity.Country, error) {
	return m.oldest, nil
}

type mockRateRepo struct {
	rates map[string]*entity.ExchangeRate
}

func rateKey(base, target string) string { return base + "/" + target }

func newMockRateRepo() *mockRateRepo {
	return &mockRateRepo{rates: make(map[string]*entity.ExchangeRate)}
}

func (m *mockRateRepo) ReplaceForBase(_ context.Context, base string, rates []*entity.ExchangeRate) error {
	for key, r := range m.rates {
		if r.BaseCurrency == base {
			delete(m.rates, key)
		}
	}
	for _, r := range rates {
		r.BaseCurrency = base
		m.rates[rateKey(base, r.TargetCurrency)] = r
	}
	return nil
}

func (m *mockRateRepo) Get(_ context.Context, base, target string) (*entity.ExchangeRate, error) {
	return m.rates[rateKey(base, target)], nil
}

func (m *mockRateRepo) ListByBase(_ context.Context, base string) ([]*entity.ExchangeRate, error) {
	var rates []*entity.ExchangeRate
	for _, r := range m.rates {
		if r.BaseCurrency == base {
			rates = append(rates, r)
		}
	}
	return rates, nil
}

type mockRateSource struct {
	table *port.RateTable
	err   error
	calls int
}

func (m *mockRateSource) FetchLatest(_ context.Context, base string) (*port.RateTable, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.table, nil
}

type mockCountrySource struct {
	countries []*entity.Country
	err       error
}

func (m *mockCountrySource) FetchAll(_ context.Context) ([]*entity.Country, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.countries, nil
}

type mockMailer struct {
	credentialMails []string
	statusMails     []string
}

func (m *mockMailer) SendCredentials(_ context.Context, to, _, _ string) error {
	m.credentialMails = append(m.credentialMails, to)
	return nil
}

func (m *mockMailer) SendExpenseStatus(_ context.Context, to, _ string, _ int64, _ string) error {
	m.statusMails = append(m.statusMails, to)
	return nil
}

type mockActionRepo struct {
	actions []*entity.ApprovalAction
	nextID  int64
}

func (m *mockActionRepo) Create(_ context.Context, action *entity.ApprovalAction) error {
	m.nextID++
	action.ID = m.nextID
	m.actions = append(m.actions, action)
	return nil
}

func (m *mockActionRepo) ListByExpense(_ context.Context, expenseID int64) ([]*entity.ApprovalAction, error) {
	var actions []*entity.ApprovalAction
	for _, a := range m.actions {
		if a.ExpenseID == expenseID {
			actions = append(actions, a)
		}
	}
	return actions, nil
}

func (m *mockActionRepo) ListByExpenseStep(_ context.Context, expenseID, stepID int64) ([]*entity.ApprovalAction, error) {
	var actions []*entity.ApprovalAction
	for _, a := range m.actions {
		if a.ExpenseID == expenseID && a.StepID == stepID {
			actions = append(actions, a)
		}
	}
	return actions, nil
}

type mockTxManager struct{}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

var _ port.CompanyRepository = (*mockCompanyRepo)(nil)
var _ port.UserRepository = (*mockUserRepo)(nil)
var _ port.CountryRepository = (*mockCountryRepo)(nil)
var _ port.RateRepository = (*mockRateRepo)(nil)
var _ port.RateSource = (*mockRateSource)(nil)
var _ port.CountrySource = (*mockCountrySource)(nil)
var _ port.MailSender = (*mockMailer)(nil)
var _ port.ActionRepository = (*mockActionRepo)(nil)
var _ port.TransactionManager = (*mockTxManager)(nil)
