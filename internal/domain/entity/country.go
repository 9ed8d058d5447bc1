package entity

import "time"

// Country caches country and currency reference data fetched from the
// REST Countries API.
type Country struct {
	ID             int64     `json:"id"`
	NameCommon     string    `json:"name_common"`
	NameOfficial   string    `json:"name_official"`
	CurrencyCode   string    `json:"currency_code"`
	CurrencyName   string    `json:"currency_name"`
	CurrencySymbol string    `json:"currency_symbol"`
	LastUpdated    time.Time `json:"last_updated"`
	IsActive       bool      `json:"is_active"`
}

// ExchangeRate caches one base/target rate fetched from the exchange
// rate API.
type ExchangeRate struct {
	ID              int64     `json:"id"`
	BaseCurrency    string    `json:"base_currency"`
	TargetCurrency  string    `json:"target_currency"`
	Rate            float64   `json:"rate"`
	APIDate         time.Time `json:"api_date"`
	TimeLastUpdated int64     `json:"time_last_updated"`
	LastUpdated     time.Time `json:"last_updated"`
}
