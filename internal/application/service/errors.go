package service

import "errors"

var (
	// ErrInvalidCredentials is returned by Login on a bad email/password pair
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmailTaken is returned when signup or user creation hits a
	// duplicate email
	ErrEmailTaken = errors.New("email already registered")

	// ErrCompanyTaken is returned when signup hits a duplicate company name
	ErrCompanyTaken = errors.New("company already registered")

	// ErrInvalidPolicy is returned when a policy graph fails validation;
	// the wrapped message names the offending step
	ErrInvalidPolicy = errors.New("invalid policy")

	// ErrRateUnavailable is returned when a currency pair cannot be
	// converted from cache or upstream
	ErrRateUnavailable = errors.New("exchange rate unavailable")

	// ErrUnsupportedReceipt is returned for receipt uploads that are not
	// an accepted image or PDF type
	ErrUnsupportedReceipt = errors.New("unsupported receipt type")
)
