package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/amalthea-hq/expensehub/internal/application/port"
	"github.com/amalthea-hq/expensehub/internal/domain/entity"
)

// Logger is the minimal logging dependency services need
type Logger interface {
	Infow(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
}

var validate = validator.New()

// SignupRequest creates a company and its first admin in one shot. The
// company currency comes from the selected country.
type SignupRequest struct {
	CompanyName string `json:"company_name" validate:"required,min=2"`
	CountryID   int64  `json:"country_id" validate:"required"`
	FullName    string `json:"full_name" validate:"required,min=2"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
}

// CreateUserRequest is an admin creating an employee or manager. When
// Password is empty a temporary one is generated and emailed.
type CreateUserRequest struct {
	FullName  string `json:"full_name" validate:"required,min=2"`
	Email     string `json:"email" validate:"required,email"`
	Role      string `json:"role" validate:"required,oneof=Employee Manager Admin"`
	Password  string `json:"password" validate:"omitempty,min=8"`
	ManagerID *int64 `json:"manager_id"`
}

// UserService manages companies, accounts and the reporting chain
type UserService interface {
	Signup(ctx context.Context, req SignupRequest) (*entity.User, error)
	Login(ctx context.Context, email, password string) (*entity.User, error)
	CreateUser(ctx context.Context, companyID int64, req CreateUserRequest) (*entity.User, error)
	GetUser(ctx context.Context, id int64) (*entity.User, error)
	ListUsers(ctx context.Context, companyID int64) ([]*entity.User, error)
	UpdateManager(ctx context.Context, companyID, userID int64, managerID *int64) error
}

type userServiceImpl struct {
	companies port.CompanyRepository
	users     port.UserRepository
	countries port.CountryRepository
	mailer    port.MailSender
	txManager port.TransactionManager
	logger    Logger
}

// NewUserService creates a new UserService
func NewUserService(
	companies port.CompanyRepository,
	users port.UserRepository,
	countries port.CountryRepository,
	mailer port.MailSender,
	txManager port.TransactionManager,
	logger Logger,
) UserService {
	return &userServiceImpl{
		companies: companies,
		users:     users,
		countries: countries,
		mailer:    mailer,
		txManager: txManager,
		logger:    logger,
	}
}

// Signup creates the company and its admin account in one transaction
func (s *userServiceImpl) Signup(ctx context.Context, req SignupRequest) (*entity.User, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid signup request: %w", err)
	}

	country, err := s.countries.GetByID(ctx, req.CountryID)
	if err != nil {
		return nil, err
	}
	if country == nil {
		return nil, fmt.Errorf("country %d not found", req.CountryID)
	}

	existing, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	existingCompany, err := s.companies.GetByName(ctx, req.CompanyName)
	if err != nil {
		return nil, err
	}
	if existingCompany != nil {
		return nil, ErrCompanyTaken
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	company := &entity.Company{
		Name:         req.CompanyName,
		CountryID:    req.CountryID,
		CurrencyCode: country.CurrencyCode,
	}
	user := &entity.User{
		Email:        normalizeEmail(req.Email),
		PasswordHash: hash,
		FullName:     req.FullName,
		Role:         entity.RoleAdmin,
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.companies.Create(txCtx, company); err != nil {
			return fmt.Errorf("create company: %w", err)
		}
		user.CompanyID = company.ID
		if err := s.users.Create(txCtx, user); err != nil {
			return fmt.Errorf("create admin: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Errorw("Signup failed", "company", req.CompanyName, "error", err)
		return nil, err
	}

	s.logger.Infow("Company signed up",
		"company_id", company.ID,
		"currency", company.CurrencyCode,
		"admin_id", user.ID)
	return user, nil
}

// Login verifies credentials and returns the account
func (s *userServiceImpl) Login(ctx context.Context, email, password string) (*entity.User, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// CreateUser creates an account inside the admin's company. A generated
// password is emailed to the new user; email failure does not roll the
// account back.
func (s *userServiceImpl) CreateUser(ctx context.Context, companyID int64, req CreateUserRequest) (*entity.User, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid user request: %w", err)
	}

	existing, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	if req.ManagerID != nil {
		manager, err := s.users.GetByID(ctx, *req.ManagerID)
		if err != nil {
			return nil, err
		}
		if manager == nil || manager.CompanyID != companyID {
			return nil, fmt.Errorf("manager %d not found in company", *req.ManagerID)
		}
	}

	password := req.Password
	generated := password == ""
	if generated {
		password = generatePassword()
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		CompanyID:    companyID,
		Email:        normalizeEmail(req.Email),
		PasswordHash: hash,
		FullName:     req.FullName,
		Role:         entity.Role(req.Role),
		ManagerID:    req.ManagerID,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if generated && s.mailer != nil {
		if err := s.mailer.SendCredentials(ctx, user.Email, user.FullName, password); err != nil {
			s.logger.Warnw("Failed to email credentials", "user_id", user.ID, "error", err)
		}
	}

	s.logger.Infow("User created", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// GetUser retrieves one account
func (s *userServiceImpl) GetUser(ctx context.Context, id int64) (*entity.User, error) {
	return s.users.GetByID(ctx, id)
}

// ListUsers retrieves all accounts of a company
func (s *userServiceImpl) ListUsers(ctx context.Context, companyID int64) ([]*entity.User, error) {
	return s.users.ListByCompany(ctx, companyID)
}

// UpdateManager reassigns a user's manager within the same company.
// Expenses already approved or pending keep their recorded actions.
func (s *userServiceImpl) UpdateManager(ctx context.Context, companyID, userID int64, managerID *int64) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil || user.CompanyID != companyID {
		return fmt.Errorf("user %d not found in company", userID)
	}

	if managerID != nil {
		if *managerID == userID {
			return fmt.Errorf("user cannot be their own manager")
		}
		manager, err := s.users.GetByID(ctx, *managerID)
		if err != nil {
			return err
		}
		if manager == nil || manager.CompanyID != companyID {
			return fmt.Errorf("manager %d not found in company", *managerID)
		}
	}

	return s.users.UpdateManager(ctx, userID, managerID)
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func generatePassword() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
