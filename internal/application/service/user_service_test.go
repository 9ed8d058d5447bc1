package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/amalthea-hq/expensehub/internal/domain/entity"
)

func testLogger() Logger {
	return zap.NewNop().Sugar()
}

func seedCountry(repo *mockCountryRepo) {
	repo.countries = map[int64]*entity.Country{
		1: {
			ID:           1,
			NameCommon:   "United States",
			CurrencyCode: "USD",
			LastUpdated:  time.Now(),
			IsActive:     true,
		},
	}
}

func TestUserService_Signup(t *testing.T) {
	companies := newMockCompanyRepo()
	users := newMockUserRepo()
	countries := &mockCountryRepo{}
	seedCountry(countries)

	svc := NewUserService(companies, users, countries, &mockMailer{}, &mockTxManager{}, testLogger())

	admin, err := svc.Signup(context.Background(), SignupRequest{
		CompanyName: "Acme Corp",
		CountryID:   1,
		FullName:    "Ada Admin",
		Email:       "Ada@Acme.example",
		Password:    "s3cretpass",
	})
	require.NoError(t, err)

	assert.Equal(t, entity.RoleAdmin, admin.Role)
	assert.Equal(t, "ada@acme.example", admin.Email)
	assert.NotEqual(t, "s3cretpass", admin.PasswordHash)

	company, err := companies.GetByID(context.Background(), admin.CompanyID)
	require.NoError(t, err)
	require.NotNil(t, company)
	assert.Equal(t, "USD", company.CurrencyCode, "company currency comes from the selected country")
}

func TestUserService_Signup_DuplicateEmail(t *testing.T) {
	companies := newMockCompanyRepo()
	users := newMockUserRepo()
	countries := &mockCountryRepo{}
	seedCountry(countries)

	svc := NewUserService(companies, users, countries, &mockMailer{}, &mockTxManager{}, testLogger())

	req := SignupRequest{
		CompanyName: "Acme Corp",
		CountryID:   1,
		FullName:    "Ada Admin",
		Email:       "ada@acme.example",
		Password:    "s3cretpass",
	}
	_, err := svc.Signup(context.Background(), req)
	require.NoError(t, err)

	req.CompanyName = "Other Corp"
	_, err = svc.Signup(context.Background(), req)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestUserService_Login(t *testing.T) {
	companies := newMockCompanyRepo()
	users := newMockUserRepo()
	countries := &mockCountryRepo{}
	seedCountry(countries)

	svc := NewUserService(companies, users, countries, &mockMailer{}, &mockTxManager{}, testLogger())

	_, err := svc.Signup(context.Background(), SignupRequest{
		CompanyName: "Acme Corp",
		CountryID:   1,
		FullName:    "Ada Admin",
		Email:       "ada@acme.example",
		Password:    "s3cretpass",
	})
	require.NoError(t, err)

	t.Run("correct password", func(t *testing.T) {
		user, err := svc.Login(context.Background(), "ADA@acme.example", "s3cretpass")
		require.NoError(t, err)
		assert.Equal(t, "Ada Admin", user.FullName)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(context.Background(), "ada@acme.example", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(context.Background(), "nobody@acme.example", "s3cretpass")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestUserService_CreateUser_GeneratedPasswordEmailed(t *testing.T) {
	companies := newMockCompanyRepo()
	users := newMockUserRepo()
	countries := &mockCountryRepo{}
	seedCountry(countries)
	mailer := &mockMailer{}

	svc := NewUserService(companies, users, countries, mailer, &mockTxManager{}, testLogger())

	admin, err := svc.Signup(context.Background(), SignupRequest{
		CompanyName: "Acme Corp",
		CountryID:   1,
		FullName:    "Ada Admin",
		Email:       "ada@acme.example",
		Password:    "s3cretpass",
	})
	require.NoError(t, err)

	employee, err := svc.CreateUser(context.Background(), admin.CompanyID, CreateUserRequest{
		FullName: "Eve Employee",
		Email:    "eve@acme.example",
		Role:     "Employee",
	})
	require.NoError(t, err)

	assert.Equal(t, entity.RoleEmployee, employee.Role)
	assert.Equal(t, []string{"eve@acme.example"}, mailer.credentialMails)
}

func TestUserService_UpdateManager(t *testing.T) {
	companies := newMockCompanyRepo()
	users := newMockUserRepo()
	countries := &mockCountryRepo{}
	seedCountry(countries)

	svc := NewUserService(companies, users, countries, &mockMailer{}, &mockTxManager{}, testLogger())

	admin, err := svc.Signup(context.Background(), SignupRequest{
		CompanyName: "Acme Corp",
		CountryID:   1,
		FullName:    "Ada Admin",
		Email:       "ada@acme.example",
		Password:    "s3cretpass",
	})
	require.NoError(t, err)

	manager, err := svc.CreateUser(context.Background(), admin.CompanyID, CreateUserRequest{
		FullName: "Mia Manager",
		Email:    "mia@acme.example",
		Role:     "Manager",
		Password: "password123",
	})
	require.NoError(t, err)

	employee, err := svc.CreateUser(context.Background(), admin.CompanyID, CreateUserRequest{
		FullName: "Eve Employee",
		Email:    "eve@acme.example",
		Role:     "Employee",
		Password: "password123",
	})
	require.NoError(t, err)

	require.NoError(t, svc.UpdateManager(context.Background(), admin.CompanyID, employee.ID, &manager.ID))

	got, err := svc.GetUser(context.Background(), employee.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ManagerID)
	assert.Equal(t, manager.ID, *got.ManagerID)

	t.Run("self-management rejected", func(t *testing.T) {
		err := svc.UpdateManager(context.Background(), admin.CompanyID, employee.ID, &employee.ID)
		assert.Error(t, err)
	})
}
