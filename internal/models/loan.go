package models

import "time"

type LoanType string

const (
	LoanGiven LoanType = "given"
	LoanTaken LoanType = "taken"
)

func (t LoanType) Valid() bool {
	return t == LoanGiven || t == LoanTaken
}

// AccountType returns the type of the tracking account backing a loan
func (t LoanType) AccountType() AccountType {
	if t == LoanGiven {
		return AccountLoanReceivable
	}
	return AccountLoanPayable
}

// Loan is money lent or borrowed, tracked through a linked account
type Loan struct {
	ID           string    `json:"id"`
	PersonName   string    `json:"person_name"`
	LoanType     LoanType  `json:"loan_type"`
	Principal    float64   `json:"principal"`
	InterestRate float64   `json:"interest_rate"` // annual percent, 0 = interest-free
	StartDate    string    `json:"start_date"`
	Notes        string    `json:"notes,omitempty"`
	AccountID    string    `json:"account_id"`
	TotalRepaid  float64   `json:"total_repaid"`
	InterestPaid float64   `json:"interest_paid"`
	CreatedAt    time.Time `json:"created_at"`
}

type LoanInput struct {
	PersonName   string   `json:"person_name"`
	LoanType     LoanType `json:"loan_type"`
	Principal    float64  `json:"principal"`
	InterestRate float64  `json:"interest_rate"`
	StartDate    string   `json:"start_date"`
	Notes        string   `json:"notes,omitempty"`
}

// LoanPatch is a partial loan update; nil fields are left unchanged
type LoanPatch struct {
	PersonName   *string  `json:"person_name,omitempty"`
	Principal    *float64 `json:"principal,omitempty"`
	InterestRate *float64 `json:"interest_rate,omitempty"`
	StartDate    *string  `json:"start_date,omitempty"`
	Notes        *string  `json:"notes,omitempty"`
	TotalRepaid  *float64 `json:"total_repaid,omitempty"`
	InterestPaid *float64 `json:"interest_paid,omitempty"`
}

// InterestBreakdown is the simple-interest position of a loan on a given date.
// Monetary fields are rounded to 2 decimal places.
type InterestBreakdown struct {
	LoanID               string  `json:"loan_id"`
	AsOf                 string  `json:"as_of"`
	Principal            float64 `json:"principal"`
	OutstandingPrincipal float64 `json:"outstanding_principal"`
	InterestRate         float64 `json:"interest_rate"`
	DaysElapsed          int     `json:"days_elapsed"`
	AccruedInterest      float64 `json:"accrued_interest"`
	InterestPaid         float64 `json:"interest_paid"`
	InterestDue          float64 `json:"interest_due"`
	TotalDue             float64 `json:"total_due"`
}
