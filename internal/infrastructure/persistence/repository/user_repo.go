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

// UserRepository implements port.UserRepository
type UserRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlite.DB, logger *zap.Logger) port.UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

const userColumns = `id, company_id, email, password_hash, full_name, role, manager_id, created_at`

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (company_id, email, password_hash, full_name, role, manager_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		user.CompanyID,
		user.Email,
		user.PasswordHash,
		user.FullName,
		string(user.Role),
		user.ManagerID,
	)
	if err != nil {
		r.logger.Error("Failed to create user", zap.String("email", user.Email), zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	user.ID = id
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return r.scanOne(ctx, query, id)
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return r.scanOne(ctx, query, email)
}

// ListByCompany retrieves all users of a company
func (r *UserRepository) ListByCompany(ctx context.Context, companyID int64) ([]*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE company_id = ? ORDER BY id`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, companyID)
	if err != nil {
		r.logger.Error("Failed to list users", zap.Int64("company_id", companyID), zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

// UpdateManager reassigns a user's manager; nil clears it.
func (r *UserRepository) UpdateManager(ctx context.Context, id int64, managerID *int64) error {
	query := `UPDATE users SET manager_id = ? WHERE id = ?`

	_, err := r.db.Executor(ctx).ExecContext(ctx, query, managerID, id)
	if err != nil {
		r.logger.Error("Failed to update manager", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to update manager: %w", err)
	}

	return nil
}

func (r *UserRepository) scanOne(ctx context.Context, query string, arg interface{}) (*entity.User, error) {
	var user entity.User
	var managerID sql.NullInt64
	var role string

	err := r.db.Executor(ctx).QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.CompanyID,
		&user.Email,
		&user.PasswordHash,
		&user.FullName,
		&role,
		&managerID,
		&user.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get user", zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.Role = entity.Role(role)
	if managerID.Valid {
		user.ManagerID = &managerID.Int64
	}

	return &user, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*entity.User, error) {
	var user entity.User
	var managerID sql.NullInt64
	var role string

	err := row.Scan(
		&user.ID,
		&user.CompanyID,
		&user.Email,
		&user.PasswordHash,
		&user.FullName,
		&role,
		&managerID,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	user.Role = entity.Role(role)
	if managerID.Valid {
		user.ManagerID = &managerID.Int64
	}

	return &user, nil
}

// Verify interface compliance
var _ port.UserRepository = (*UserRepository)(nil)
