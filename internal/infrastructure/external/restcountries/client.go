package restcountries

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/amalthea-hq/expensehub/internal/application/port"
	"github.com/amalthea-hq/expensehub/internal/domain/entity"
)

// DefaultBaseURL is the public REST Countries v3.1 endpoint
const DefaultBaseURL = "https://restcountries.com/v3.1"

// Client fetches country and currency reference data from the REST
// Countries API and implements port.CountrySource.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new REST Countries client
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// countryPayload is the subset of the v3.1 response we consume
type countryPayload struct {
	Name struct {
		Common   string `json:"common"`
		Official string `json:"official"`
	} `json:"name"`
	Currencies map[string]currencyPayload `json:"currencies"`
}

type currencyPayload struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// FetchAll retrieves every country with its primary currency. Countries
// without a currency (e.g. Antarctica) are skipped.
func (c *Client) FetchAll(ctx context.Context) ([]*entity.Country, error) {
	url := c.baseURL + "/all?fields=name,currencies"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("REST Countries request failed", zap.Error(err))
		return nil, fmt.Errorf("failed to fetch countries: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status from countries API: %d", resp.StatusCode)
	}

	var payload []countryPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode countries response: %w", err)
	}

	now := time.Now().UTC()
	countries := make([]*entity.Country, 0, len(payload))
	for _, p := range payload {
		code, currency, ok := firstCurrency(p)
		if !ok {
			continue
		}
		countries = append(countries, &entity.Country{
			NameCommon:     p.Name.Common,
			NameOfficial:   p.Name.Official,
			CurrencyCode:   code,
			CurrencyName:   currency.Name,
			CurrencySymbol: currency.Symbol,
			LastUpdated:    now,
			IsActive:       true,
		})
	}

	c.logger.Info("Fetched countries", zap.Int("count", len(countries)))
	return countries, nil
}

func firstCurrency(p countryPayload) (string, currencyPayload, bool) {
	for code, currency := range p.Currencies {
		return code, currency, true
	}
	return "", currencyPayload{}, false
}

// Verify interface compliance
var _ port.CountrySource = (*Client)(nil)
