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

// RateRepository implements port.RateRepository
type RateRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewRateRepository creates a new exchange rate repository
func NewRateRepository(db *sqlite.DB, logger *zap.Logger) port.RateRepository {
	return &RateRepository{
		db:     db,
		logger: logger,
	}
}

const rateColumns = `id, base_currency, target_currency, rate, api_date, time_last_updated, last_updated`

// ReplaceForBase swaps the cached rate table for one base currency with
// a fresh upstream snapshot.
func (r *RateRepository) ReplaceForBase(ctx context.Context, base string, rates []*entity.ExchangeRate) error {
	ex := r.db.Executor(ctx)

	if _, err := ex.ExecContext(ctx, `DELETE FROM exchange_rates WHERE base_currency = ?`, base); err != nil {
		return fmt.Errorf("failed to clear rates: %w", err)
	}

	for _, rate := range rates {
		result, err := ex.ExecContext(ctx, `
			INSERT INTO exchange_rates (base_currency, target_currency, rate,
				api_date, time_last_updated, last_updated)
			VALUES (?, ?, ?, ?, ?, ?)
		`,
			base,
			rate.TargetCurrency,
			rate.Rate,
			rate.APIDate,
			rate.TimeLastUpdated,
			rate.LastUpdated,
		)
		if err != nil {
			return fmt.Errorf("failed to insert rate: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		rate.ID = id
		rate.BaseCurrency = base
	}

	r.logger.Info("Exchange rates refreshed",
		zap.String("base", base),
		zap.Int("count", len(rates)))
	return nil
}

// Get retrieves one cached base/target rate. Returns nil when the pair
// is not cached.
func (r *RateRepository) Get(ctx context.Context, base, target string) (*entity.ExchangeRate, error) {
	query := `SELECT ` + rateColumns + ` FROM exchange_rates WHERE base_currency = ? AND target_currency = ?`

	rate, err := scanRate(r.db.Executor(ctx).QueryRowContext(ctx, query, base, target))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get exchange rate",
			zap.String("base", base),
			zap.String("target", target),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get exchange rate: %w", err)
	}

	return rate, nil
}

// ListByBase retrieves all cached rates for a base currency
func (r *RateRepository) ListByBase(ctx context.Context, base string) ([]*entity.ExchangeRate, error) {
	query := `SELECT ` + rateColumns + ` FROM exchange_rates WHERE base_currency = ? ORDER BY target_currency`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, base)
	if err != nil {
		r.logger.Error("Failed to list exchange rates", zap.String("base", base), zap.Error(err))
		return nil, fmt.Errorf("failed to list exchange rates: %w", err)
	}
	defer rows.Close()

	var rates []*entity.ExchangeRate
	for rows.Next() {
		rate, err := scanRate(rows)
		if err != nil {
			return nil, err
		}
		rates = append(rates, rate)
	}

	return rates, rows.Err()
}

func scanRate(row rowScanner) (*entity.ExchangeRate, error) {
	var rate entity.ExchangeRate

	err := row.Scan(
		&rate.ID,
		&rate.BaseCurrency,
		&rate.TargetCurrency,
		&rate.Rate,
		&rate.APIDate,
		&rate.TimeLastUpdated,
		&rate.LastUpdated,
	)
	if err != nil {
		return nil, err
	}

	return &rate, nil
}

// Verify interface compliance
var _ port.RateRepository = (*RateRepository)(nil)
