package entity

import "time"

// Company represents a tenant company. Every user, expense and approval
// policy belongs to exactly one company.
type Company struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	CountryID    int64     `json:"country_id"`
	CurrencyCode string    `json:"currency_code"`
	CreatedAt    time.Time `json:"created_at"`
}
