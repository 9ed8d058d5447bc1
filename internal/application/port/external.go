package port

import (
	"context"
	"time"

	"github.com/amalthea-hq/expensehub/internal/domain/entity"
)

// Directory resolves organizational lookups for an employee. The
// workflow engine consumes it as a pure lookup and never embeds its
// implementation.
type Directory interface {
	// CompanyOf returns the company the employee belongs to.
	CompanyOf(ctx context.Context, employeeID int64) (int64, error)

	// ManagerOf returns the employee's direct manager, nil when the
	// employee has none.
	ManagerOf(ctx context.Context, employeeID int64) (*int64, error)
}

// ReceiptFields is the structured data extracted from a receipt image.
type ReceiptFields struct {
	Amount       float64
	CurrencyCode string
	Category     string
	ExpenseDate  string
	Description  string
	Remarks      string
}

// ReceiptExtractor defines LLM-backed receipt parsing operations
type ReceiptExtractor interface {
	Extract(ctx context.Context, imageData []byte, mimeType string) (*ReceiptFields, error)
}

// MailSender defines outbound email operations
type MailSender interface {
	SendCredentials(ctx context.Context, to, fullName, password string) error
	SendExpenseStatus(ctx context.Context, to, fullName string, expenseID int64, status string) error
}

// CountrySource fetches country reference data from the upstream API
type CountrySource interface {
	FetchAll(ctx context.Context) ([]*entity.Country, error)
}

// RateTable is one API response worth of rates for a base currency.
type RateTable struct {
	Base            string
	Rates           map[string]float64
	APIDate         time.Time
	TimeLastUpdated int64
}

// RateSource fetches exchange rates from the upstream API
type RateSource interface {
	FetchLatest(ctx context.Context, base string) (*RateTable, error)
}

// FileStorage defines file storage operations for uploaded receipts
type FileStorage interface {
	Save(ctx context.Context, path string, content []byte) error
	Read(ctx context.Context, path string) ([]byte, error)
	Exists(ctx context.Context, path string) bool
	Delete(ctx context.Context, path string) error
	GetFullPath(relativePath string) string
}
