package models

import "time"

type AccountType string

const (
	AccountBank           AccountType = "bank"
	AccountCash           AccountType = "cash"
	AccountCreditCard     AccountType = "credit_card"
	AccountInvestment     AccountType = "investment"
	AccountLoanReceivable AccountType = "loan_receivable"
	AccountLoanPayable    AccountType = "loan_payable"
)

func (t AccountType) Valid() bool {
	switch t {
	case AccountBank, AccountCash, AccountCreditCard, AccountInvestment,
		AccountLoanReceivable, AccountLoanPayable:
		return true
	}
	return false
}

// Account is a money container with a maintained running balance.
// CurrentBalance always equals OpeningBalance plus the effects of every
// transaction still referencing the account.
type Account struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	AccountType    AccountType `json:"account_type"`
	OpeningBalance float64     `json:"opening_balance"`
	CurrentBalance float64     `json:"current_balance"`
	Description    string      `json:"description"`
	PersonName     string      `json:"person_name,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}

// AccountInput is used for both create and full update requests
type AccountInput struct {
	Name           string      `json:"name"`
	AccountType    AccountType `json:"account_type"`
	OpeningBalance float64     `json:"opening_balance"`
	Description    string      `json:"description"`
	PersonName     string      `json:"person_name,omitempty"`
}

// BalanceDrift describes an account whose stored balance disagrees with its transaction log
type BalanceDrift struct {
	AccountID string  `json:"account_id"`
	Stored    float64 `json:"stored"`
	Expected  float64 `json:"expected"`
	Drift     float64 `json:"drift"`
	Repaired  bool    `json:"repaired"`
}
