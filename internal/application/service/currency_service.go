package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/amalthea-hq/expensehub/internal/application/port"
	"github.com/amalthea-hq/expensehub/internal/domain/entity"
)

// Cache lifetimes for upstream reference data. Countries change rarely;
// rates drift all day.
const (
	countryCacheTTL = 24 * time.Hour
	rateCacheTTL    = time.Hour
)

// CurrencyService serves country and exchange rate reference data from
// the local cache, refreshing from upstream when stale. Upstream
// failures fall back to stale cache entries rather than erroring.
type CurrencyService interface {
	Countries(ctx context.Context) ([]*entity.Country, error)
	RefreshCountries(ctx context.Context) error
	Rates(ctx context.Context, base string) ([]*entity.ExchangeRate, error)
	RefreshRates(ctx context.Context, base string) error
	ConvertCents(ctx context.Context, amountCents int64, from, to string) (int64, error)
}

type currencyServiceImpl struct {
	countries     port.CountryRepository
	rates         port.RateRepository
	countrySource port.CountrySource
	rateSource    port.RateSource
	logger        Logger
	now           func() time.Time
}

// NewCurrencyService creates a new CurrencyService
func NewCurrencyService(
	countries port.CountryRepository,
	rates port.RateRepository,
	countrySource port.CountrySource,
	rateSource port.RateSource,
	logger Logger,
) CurrencyService {
	return &currencyServiceImpl{
		countries:     countries,
		rates:         rates,
		countrySource: countrySource,
		rateSource:    rateSource,
		logger:        logger,
		now:           time.Now,
	}
}

// Countries returns the cached country list, refreshing it when older
// than the TTL or empty.
func (s *currencyServiceImpl) Countries(ctx context.Context) ([]*entity.Country, error) {
	oldest, err := s.countries.OldestUpdate(ctx)
	if err != nil {
		return nil, err
	}

	if oldest == nil || s.now().Sub(oldest.LastUpdated) > countryCacheTTL {
		if err := s.RefreshCountries(ctx); err != nil {
			if oldest == nil {
				return nil, err
			}
			s.logger.Warnw("Country refresh failed, serving stale cache", "error", err)
		}
	}

	return s.countries.ListActive(ctx)
}

// RefreshCountries refetches the country list from upstream
func (s *currencyServiceImpl) RefreshCountries(ctx context.Context) error {
	fetched, err := s.countrySource.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("fetch countries: %w", err)
	}
	if err := s.countries.ReplaceAll(ctx, fetched); err != nil {
		return fmt.Errorf("store countries: %w", err)
	}
	return nil
}

// Rates returns the cached rate table for a base currency, refreshing
// when stale or missing.
func (s *currencyServiceImpl) Rates(ctx context.Context, base string) ([]*entity.ExchangeRate, error) {
	cached, err := s.rates.ListByBase(ctx, base)
	if err != nil {
		return nil, err
	}

	if s.stale(cached) {
		if err := s.RefreshRates(ctx, base); err != nil {
			if len(cached) == 0 {
				return nil, err
			}
			s.logger.Warnw("Rate refresh failed, serving stale cache", "base", base, "error", err)
			return cached, nil
		}
		return s.rates.ListByBase(ctx, base)
	}

	return cached, nil
}

// stale reports whether a cached rate table is missing or older than
// the rate TTL.
func (s *currencyServiceImpl) stale(rates []*entity.ExchangeRate) bool {
	if len(rates) == 0 {
		return true
	}
	for _, rate := range rates {
		if s.now().Sub(rate.LastUpdated) > rateCacheTTL {
			return true
		}
	}
	return false
}

// RefreshRates refetches the rate table for a base currency
func (s *currencyServiceImpl) RefreshRates(ctx context.Context, base string) error {
	table, err := s.rateSource.FetchLatest(ctx, base)
	if err != nil {
		return fmt.Errorf("fetch rates: %w", err)
	}

	now := s.now().UTC()
	rates := make([]*entity.ExchangeRate, 0, len(table.Rates))
	for target, rate := range table.Rates {
		rates = append(rates, &entity.ExchangeRate{
			BaseCurrency:    base,
			TargetCurrency:  target,
			Rate:            rate,
			APIDate:         table.APIDate,
			TimeLastUpdated: table.TimeLastUpdated,
			LastUpdated:     now,
		})
	}

	if err := s.rates.ReplaceForBase(ctx, base, rates); err != nil {
		return fmt.Errorf("store rates: %w", err)
	}
	return nil
}

// ConvertCents converts an integer-cent amount between currencies,
// rounding half away from zero.
func (s *currencyServiceImpl) ConvertCents(ctx context.Context, amountCents int64, from, to string) (int64, error) {
	if from == to {
		return amountCents, nil
	}

	rate, err := s.lookupRate(ctx, from, to)
	if err != nil {
		return 0, err
	}

	return int64(math.Round(float64(amountCents) * rate)), nil
}

func (s *currencyServiceImpl) lookupRate(ctx context.Context, from, to string) (float64, error) {
	cached, err := s.rates.Get(ctx, from, to)
	if err != nil {
		return 0, err
	}

	fresh := cached != nil && s.now().Sub(cached.LastUpdated) <= rateCacheTTL
	if !fresh {
		if err := s.RefreshRates(ctx, from); err != nil {
			if cached == nil {
				return 0, fmt.Errorf("%w: %s/%s: %v", ErrRateUnavailable, from, to, err)
			}
			s.logger.Warnw("Rate refresh failed, using stale rate",
				"base", from, "target", to, "error", err)
			return cached.Rate, nil
		}
		cached, err = s.rates.Get(ctx, from, to)
		if err != nil {
			return 0, err
		}
	}

	if cached == nil {
		return 0, fmt.Errorf("%w: %s/%s", ErrRateUnavailable, from, to)
	}
	return cached.Rate, nil
}
