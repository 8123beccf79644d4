package models

import "time"

// TransactionType decides which way money moves for a transaction
type TransactionType string

const (
	TransactionExpense  TransactionType = "expense"
	TransactionIncome   TransactionType = "income"
	TransactionTransfer TransactionType = "transfer"
)

// Valid reports whether t is one of the known transaction types
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionExpense, TransactionIncome, TransactionTransfer:
		return true
	}
	return false
}

// Source records where a transaction came from
type Source string

const (
	SourceManual     Source = "manual"
	SourceBankImport Source = "bank_import"
)

// DateLayout is the ISO calendar date format used for every stored date.
// Dates in this layout sort lexicographically.
const DateLayout = "2006-01-02"

// Transaction is a dated money movement against one account, or two for transfers.
// Amount is always a non-negative magnitude; the sign comes from TransactionType.
type Transaction struct {
	ID              string          `json:"id"`
	Date            string          `json:"date"`
	Description     string          `json:"description"`
	Amount          float64         `json:"amount"`
	AccountID       string          `json:"account_id"`
	CategoryID      string          `json:"category_id,omitempty"`
	PayeeID         string          `json:"payee_id,omitempty"` // destination account for transfers
	TransactionType TransactionType `json:"transaction_type"`
	Source          Source          `json:"source"`
	Reference       string          `json:"reference,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// IsClassified reports whether a category or payee has been assigned
func (t Transaction) IsClassified() bool {
	return t.CategoryID != "" || t.PayeeID != ""
}

// TransactionInput is the payload for creating a transaction
type TransactionInput struct {
	Date            string          `json:"date"`
	Description     string          `json:"description"`
	Amount          float64         `json:"amount"`
	AccountID       string          `json:"account_id"`
	CategoryID      string          `json:"category_id,omitempty"`
	PayeeID         string          `json:"payee_id,omitempty"`
	TransactionType TransactionType `json:"transaction_type"`
	Source          Source          `json:"source,omitempty"`
	Reference       string          `json:"reference,omitempty"`
	Notes           string          `json:"notes,omitempty"`
}

// TransactionPatch is a partial update. A nil field leaves the stored value
// untouched. For CategoryID and PayeeID a pointer to "" clears the field.
type TransactionPatch struct {
	Date            *string          `json:"date,omitempty"`
	Description     *string          `json:"description,omitempty"`
	Amount          *float64         `json:"amount,omitempty"`
	AccountID       *string          `json:"account_id,omitempty"`
	CategoryID      *string          `json:"category_id,omitempty"`
	PayeeID         *string          `json:"payee_id,omitempty"`
	TransactionType *TransactionType `json:"transaction_type,omitempty"`
	Notes           *string          `json:"notes,omitempty"`
}

// Apply returns a copy of t with every non-nil patch field merged in
func (p TransactionPatch) Apply(t Transaction) Transaction {
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.AccountID != nil {
		t.AccountID = *p.AccountID
	}
	if p.CategoryID != nil {
		t.CategoryID = *p.CategoryID
	}
	if p.PayeeID != nil {
		t.PayeeID = *p.PayeeID
	}
	if p.TransactionType != nil {
		t.TransactionType = *p.TransactionType
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	return t
}

// SetsClassification reports whether the patch assigns a non-empty category or payee
func (p TransactionPatch) SetsClassification() bool {
	return (p.CategoryID != nil && *p.CategoryID != "") || (p.PayeeID != nil && *p.PayeeID != "")
}

// TransactionFilter narrows ListTransactions. Zero values mean "no filter".
type TransactionFilter struct {
	AccountID       string // matches account_id or payee_id
	CategoryIDs     []string
	TransactionType TransactionType
	Untagged        bool
	StartDate       string
	EndDate         string
	Limit           int
}

// Direction is the side of a bank statement row
type Direction string

const (
	DirectionDebit  Direction = "debit"
	DirectionCredit Direction = "credit"
)

// RawRow is one row extracted from a bank statement, before classification
type RawRow struct {
	Date        string    `json:"date"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Direction   Direction `json:"direction"`
	Reference   string    `json:"reference,omitempty"`
}

// BankSchema defines the column structure for each bank's statement export
type BankSchema struct {
	BankName           string
	DateColumn         string
	DescriptionColumn  string
	ReferenceColumn    string
	DebitColumn        string // For banks with separate debit/credit columns
	CreditColumn       string
	AmountColumn       string // For banks with single amount column
	DrCrColumn         string // For banks with Dr/Cr indicator
	HasSeparateAmounts bool
}
