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

// CountryRepository implements port.CountryRepository
type CountryRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewCountryRepository creates a new country repository
func NewCountryRepository(db *sqlite.DB, logger *zap.Logger) port.CountryRepository {
	return &CountryRepository{
		db:     db,
		logger: logger,
	}
}

const countryColumns = `id, name_common, name_official, currency_code, currency_name,
	currency_symbol, last_updated, is_active`

// ReplaceAll refreshes the country cache from one upstream fetch.
// Rows absent from the new snapshot are deactivated rather than
// deleted so companies keep a valid country reference.
func (r *CountryRepository) ReplaceAll(ctx context.Context, countries []*entity.Country) error {
	ex := r.db.Executor(ctx)

	if _, err := ex.ExecContext(ctx, `UPDATE countries SET is_active = 0`); err != nil {
		return fmt.Errorf("failed to deactivate countries: %w", err)
	}

	for _, country := range countries {
		result, err := ex.ExecContext(ctx, `
			UPDATE countries
			SET name_official = ?, currency_code = ?, currency_name = ?,
				currency_symbol = ?, last_updated = ?, is_active = 1
			WHERE name_common = ?
		`,
			country.NameOfficial,
			country.CurrencyCode,
			country.CurrencyName,
			country.CurrencySymbol,
			country.LastUpdated,
			country.NameCommon,
		)
		if err != nil {
			return fmt.Errorf("failed to update country: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected > 0 {
			continue
		}

		insert, err := ex.ExecContext(ctx, `
			INSERT INTO countries (name_common, name_official, currency_code,
				currency_name, currency_symbol, last_updated, is_active)
			VALUES (?, ?, ?, ?, ?, ?, 1)
		`,
			country.NameCommon,
			country.NameOfficial,
			country.CurrencyCode,
			country.CurrencyName,
			country.CurrencySymbol,
			country.LastUpdated,
		)
		if err != nil {
			return fmt.Errorf("failed to insert country: %w", err)
		}
		id, err := insert.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		country.ID = id
	}

	r.logger.Info("Country cache refreshed", zap.Int("count", len(countries)))
	return nil
}

// ListActive retrieves all active countries ordered by common name
func (r *CountryRepository) ListActive(ctx context.Context) ([]*entity.Country, error) {
	query := `SELECT ` + countryColumns + ` FROM countries WHERE is_active = 1 ORDER BY name_common`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list countries", zap.Error(err))
		return nil, fmt.Errorf("failed to list countries: %w", err)
	}
	defer rows.Close()

	var countries []*entity.Country
	for rows.Next() {
		country, err := scanCountry(rows)
		if err != nil {
			return nil, err
		}
		countries = append(countries, country)
	}

	return countries, rows.Err()
}

// GetByID retrieves a country by ID
func (r *CountryRepository) GetByID(ctx context.Context, id int64) (*entity.Country, error) {
	query := `SELECT ` + countryColumns + ` FROM countries WHERE id = ?`

	country, err := scanCountry(r.db.Executor(ctx).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get country", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get country: %w", err)
	}

	return country, nil
}

// OldestUpdate returns the least recently refreshed country, used to
// decide whether the cache is stale. Returns nil when the cache is empty.
func (r *CountryRepository) OldestUpdate(ctx context.Context) (*entity.Country, error) {
	query := `SELECT ` + countryColumns + ` FROM countries ORDER BY last_updated LIMIT 1`

	country, err := scanCountry(r.db.Executor(ctx).QueryRowContext(ctx, query))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get oldest country update: %w", err)
	}

	return country, nil
}

func scanCountry(row rowScanner) (*entity.Country, error) {
	var country entity.Country

	err := row.Scan(
		&country.ID,
		&country.NameCommon,
		&country.NameOfficial,
		&country.CurrencyCode,
		&country.CurrencyName,
		&country.CurrencySymbol,
		&country.LastUpdated,
		&country.IsActive,
	)
	if err != nil {
		return nil, err
	}

	return &country, nil
}

// Verify interface compliance
var _ port.CountryRepository = (*CountryRepository)(nil)
