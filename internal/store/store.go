// Package store persists ledger entities as flat keyed records per entity
// type. The store enforces no referential integrity between entities except
// that balance deltas must target existing accounts; everything else is the
// caller's job.
package store

import (
	"context"
	"errors"
	"sort"

	"github.com/ashmitsharp/moneybook-api/internal/models"
)

// ErrNotFound is returned when a keyed record does not exist
var ErrNotFound = errors.New("record not found")

// BalanceDeltas maps an account id to the signed amount added to its current balance
type BalanceDeltas map[string]float64

// Add accumulates amount onto the delta for accountID
func (d BalanceDeltas) Add(accountID string, amount float64) {
	if accountID == "" {
		return
	}
	d[accountID] += amount
}

// Merge adds every delta of other into d
func (d BalanceDeltas) Merge(other BalanceDeltas) {
	for id, amount := range other {
		d.Add(id, amount)
	}
}

// Negate returns the deltas that undo d
func (d BalanceDeltas) Negate() BalanceDeltas {
	out := make(BalanceDeltas, len(d))
	for id, amount := range d {
		out[id] = -amount
	}
	return out
}

// Compact drops accounts whose net delta is exactly zero
func (d BalanceDeltas) Compact() BalanceDeltas {
	for id, amount := range d {
		if amount == 0 {
			delete(d, id)
		}
	}
	return d
}

// AccountIDs returns the touched account ids in sorted order
func (d BalanceDeltas) AccountIDs() []string {
	ids := make([]string, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Store is the persistence contract used by the services.
//
// Methods that take BalanceDeltas commit the record change and every balance
// increment as one atomic unit: if any target account is missing the call
// fails with ErrNotFound and nothing is written.
type Store interface {
	CreateAccount(ctx context.Context, a models.Account) error
	GetAccount(ctx context.Context, id string) (models.Account, error)
	ListAccounts(ctx context.Context, accountType models.AccountType) ([]models.Account, error)
	// UpdateAccount overwrites name, type, description, person name and
	// opening balance. The current balance moves by the same amount as the
	// opening balance so accumulated transaction effects are preserved.
	UpdateAccount(ctx context.Context, a models.Account) (models.Account, error)
	DeleteAccount(ctx context.Context, id string) error
	SetCurrentBalance(ctx context.Context, id string, balance float64) error

	CreateCategory(ctx context.Context, c models.Category) error
	GetCategory(ctx context.Context, id string) (models.Category, error)
	ListCategories(ctx context.Context, categoryType models.CategoryType) ([]models.Category, error)
	UpdateCategory(ctx context.Context, c models.Category) error
	// DeleteCategory removes the category and its direct children
	DeleteCategory(ctx context.Context, id string) error

	InsertTransaction(ctx context.Context, t models.Transaction, deltas BalanceDeltas) error
	GetTransaction(ctx context.Context, id string) (models.Transaction, error)
	ListTransactions(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, error)
	ReplaceTransaction(ctx context.Context, t models.Transaction, deltas BalanceDeltas) error
	RemoveTransaction(ctx context.Context, id string, deltas BalanceDeltas) error

	// ListTagPatterns returns patterns in insertion order
	ListTagPatterns(ctx context.Context) ([]models.TagPattern, error)
	// UpsertTagPattern inserts p, or overwrites category/payee of the
	// existing pattern with the same key. The stored record is returned.
	UpsertTagPattern(ctx context.Context, p models.TagPattern) (models.TagPattern, error)
	DeleteTagPatternByKey(ctx context.Context, pattern string) error
	DeleteTagPattern(ctx context.Context, id string) error

	// CreateLoan stores the loan together with its tracking account
	CreateLoan(ctx context.Context, l models.Loan, a models.Account) error
	GetLoan(ctx context.Context, id string) (models.Loan, error)
	ListLoans(ctx context.Context, loanType models.LoanType) ([]models.Loan, error)
	// UpdateLoan overwrites the loan. A non-nil a is applied to the tracking
	// account with UpdateAccount semantics in the same unit; a missing
	// tracking account is skipped.
	UpdateLoan(ctx context.Context, l models.Loan, a *models.Account) error
	// DeleteLoan removes the loan and its tracking account
	DeleteLoan(ctx context.Context, id string) error
}
