package entity

import "time"

// Expense statuses. Only the workflow controller moves an expense
// between them; Approved and Rejected are terminal.
const (
	StatusDraft     = "Draft"
	StatusSubmitted = "Submitted"
	StatusApproved  = "Approved"
	StatusRejected  = "Rejected"
)

// Expense is a single expense claim. Amounts are stored in integer cents:
// AmountCents in the original currency, AmountCompanyCents converted to the
// company currency at creation time. Policy bands match against
// AmountCompanyCents.
type Expense struct {
	ID                 int64     `json:"id"`
	EmployeeID         int64     `json:"employee_id"`
	PaidByID           *int64    `json:"paid_by_id,omitempty"`
	AmountCents        int64     `json:"amount_cents"`
	CurrencyCode       string    `json:"currency_code"`
	AmountCompanyCents int64     `json:"amount_in_company_currency_cents"`
	Category           string    `json:"category"`
	Description        string    `json:"description"`
	ExpenseDate        time.Time `json:"expense_date"`
	Status             string    `json:"status"`
	Remarks            string    `json:"remarks,omitempty"`
	ReceiptPath        string    `json:"receipt_path,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// IsTerminal reports whether the expense can accept no further approval
// actions.
func (e *Expense) IsTerminal() bool {
	return e.Status == StatusApproved || e.Status == StatusRejected
}
