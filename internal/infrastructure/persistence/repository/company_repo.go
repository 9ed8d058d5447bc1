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

// CompanyRepository implements port.CompanyRepository
type CompanyRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewCompanyRepository creates a new company repository
func NewCompanyRepository(db *sqlite.DB, logger *zap.Logger) port.CompanyRepository {
	return &CompanyRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new company
func (r *CompanyRepository) Create(ctx context.Context, company *entity.Company) error {
	query := `
		INSERT INTO companies (name, country_id, currency_code)
		VALUES (?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		company.Name,
		company.CountryID,
		company.CurrencyCode,
	)
	if err != nil {
		r.logger.Error("Failed to create company", zap.Error(err))
		return fmt.Errorf("failed to create company: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	company.ID = id
	return nil
}

// GetByID retrieves a company by ID
func (r *CompanyRepository) GetByID(ctx context.Context, id int64) (*entity.Company, error) {
	query := `
		SELECT id, name, country_id, currency_code, created_at
		FROM companies
		WHERE id = ?
	`
	return r.scanOne(ctx, query, id)
}

// GetByName retrieves a company by name
func (r *CompanyRepository) GetByName(ctx context.Context, name string) (*entity.Company, error) {
	query := `
		SELECT id, name, country_id, currency_code, created_at
		FROM companies
		WHERE name = ?
	`
	return r.scanOne(ctx, query, name)
}

func (r *CompanyRepository) scanOne(ctx context.Context, query string, arg interface{}) (*entity.Company, error) {
	var company entity.Company

	err := r.db.Executor(ctx).QueryRowContext(ctx, query, arg).Scan(
		&company.ID,
		&company.Name,
		&company.CountryID,
		&company.CurrencyCode,
		&company.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get company", zap.Error(err))
		return nil, fmt.Errorf("failed to get company: %w", err)
	}

	return &company, nil
}

// Verify interface compliance
var _ port.CompanyRepository = (*CompanyRepository)(nil)
