package exchangerate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/amalthea-hq/expensehub/internal/application/port"
)

// DefaultBaseURL is the public exchangerate-api v4 endpoint
const DefaultBaseURL = "https://api.exchangerate-api.com/v4"

// Client fetches currency conversion rates and implements
// port.RateSource.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new exchange rate client
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

// ratePayload is the subset of the v4 latest response we consume
type ratePayload struct {
	Base            string             `json:"base"`
	Date            string             `json:"date"`
	TimeLastUpdated int64              `json:"time_last_updated"`
	Rates           map[string]float64 `json:"rates"`
}

// FetchLatest retrieves the current rate table for a base currency
func (c *Client) FetchLatest(ctx context.Context, base string) (*port.RateTable, error) {
	url := fmt.Sprintf("%s/latest/%s", c.baseURL, base)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Exchange rate request failed", zap.String("base", base), zap.Error(err))
		return nil, fmt.Errorf("failed to fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status from rates API: %d", resp.StatusCode)
	}

	var payload ratePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode rates response: %w", err)
	}
	if len(payload.Rates) == 0 {
		return nil, fmt.Errorf("rates API returned no rates for %s", base)
	}

	apiDate, err := time.Parse("2006-01-02", payload.Date)
	if err != nil {
		// The date is informational; a parse failure should not block
		// conversion, so fall back to now.
		apiDate = time.Now().UTC()
	}

	c.logger.Info("Fetched exchange rates",
		zap.String("base", base),
		zap.Int("count", len(payload.Rates)))

	return &port.RateTable{
		Base:            payload.Base,
		Rates:           payload.Rates,
		APIDate:         apiDate,
		TimeLastUpdated: payload.TimeLastUpdated,
	}, nil
}

// Verify interface compliance
var _ port.RateSource = (*Client)(nil)
