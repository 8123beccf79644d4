package store

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/ashmitsharp/moneybook-api/internal/models"
)

// Memory is an in-memory Store. It is safe for concurrent use and every
// method is atomic with respect to the others. Data is lost on restart, so it
// is meant for development and tests.
type Memory struct {
	mu           sync.RWMutex
	accounts     map[string]models.Account
	categories   map[string]models.Category
	transactions map[string]models.Transaction
	loans        map[string]models.Loan
	patterns     []models.TagPattern // insertion order
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		accounts:     make(map[string]models.Account),
		categories:   make(map[string]models.Category),
		transactions: make(map[string]models.Transaction),
		loans:        make(map[string]models.Loan),
	}
}

func (m *Memory) CreateAccount(ctx context.Context, a models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.accounts[a.ID]; exists {
		return fmt.Errorf("account %s already exists", a.ID)
	}
	m.accounts[a.ID] = a
	return nil
}

func (m *Memory) GetAccount(ctx context.Context, id string) (models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[id]
	if !ok {
		return models.Account{}, ErrNotFound
	}
	return a, nil
}

func (m *Memory) ListAccounts(ctx context.Context, accountType models.AccountType) ([]models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		if accountType != "" && a.AccountType != accountType {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) UpdateAccount(ctx context.Context, a models.Account) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.accounts[a.ID]
	if !ok {
		return models.Account{}, ErrNotFound
	}
	updated := reviseAccount(old, a)
	m.accounts[a.ID] = updated
	return updated, nil
}

// reviseAccount applies the editable fields of a to old and shifts the
// current balance by the change in opening balance
func reviseAccount(old, a models.Account) models.Account {
	old.CurrentBalance += a.OpeningBalance - old.OpeningBalance
	old.OpeningBalance = a.OpeningBalance
	old.Name = a.Name
	old.AccountType = a.AccountType
	old.Description = a.Description
	old.PersonName = a.PersonName
	return old
}

func (m *Memory) DeleteAccount(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[id]; !ok {
		return ErrNotFound
	}
	delete(m.accounts, id)
	return nil
}

func (m *Memory) SetCurrentBalance(ctx context.Context, id string, balance float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return ErrNotFound
	}
	a.CurrentBalance = balance
	m.accounts[id] = a
	return nil
}

func (m *Memory) CreateCategory(ctx context.Context, c models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[c.ID] = c
	return nil
}

func (m *Memory) GetCategory(ctx context.Context, id string) (models.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.categories[id]
	if !ok {
		return models.Category{}, ErrNotFound
	}
	return c, nil
}

func (m *Memory) ListCategories(ctx context.Context, categoryType models.CategoryType) ([]models.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Category, 0, len(m.categories))
	for _, c := range m.categories {
		if categoryType != "" && c.Type != categoryType {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) UpdateCategory(ctx context.Context, c models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.categories[c.ID]
	if !ok {
		return ErrNotFound
	}
	c.CreatedAt = old.CreatedAt
	m.categories[c.ID] = c
	return nil
}

func (m *Memory) DeleteCategory(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for cid, c := range m.categories {
		if c.ParentID == id {
			delete(m.categories, cid)
		}
	}
	delete(m.categories, id)
	return nil
}

// applyDeltas must be called with the write lock held. It checks every
// target first so a missing account leaves all balances untouched.
func (m *Memory) applyDeltas(deltas BalanceDeltas) error {
	for _, id := range deltas.AccountIDs() {
		if _, ok := m.accounts[id]; !ok {
			return fmt.Errorf("account %s: %w", id, ErrNotFound)
		}
	}
	for id, amount := range deltas {
		a := m.accounts[id]
		a.CurrentBalance += amount
		m.accounts[id] = a
	}
	return nil
}

func (m *Memory) InsertTransaction(ctx context.Context, t models.Transaction, deltas BalanceDeltas) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.transactions[t.ID]; exists {
		return fmt.Errorf("transaction %s already exists", t.ID)
	}
	if err := m.applyDeltas(deltas); err != nil {
		return err
	}
	m.transactions[t.ID] = t
	return nil
}

func (m *Memory) GetTransaction(ctx context.Context, id string) (models.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.transactions[id]
	if !ok {
		return models.Transaction{}, ErrNotFound
	}
	return t, nil
}

func (m *Memory) ListTransactions(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Transaction
	for _, t := range m.transactions {
		if filter.AccountID != "" && t.AccountID != filter.AccountID && t.PayeeID != filter.AccountID {
			continue
		}
		if len(filter.CategoryIDs) > 0 && !slices.Contains(filter.CategoryIDs, t.CategoryID) {
			continue
		}
		if filter.TransactionType != "" && t.TransactionType != filter.TransactionType {
			continue
		}
		if filter.Untagged && t.IsClassified() {
			continue
		}
		if filter.StartDate != "" && t.Date < filter.StartDate {
			continue
		}
		if filter.EndDate != "" && t.Date > filter.EndDate {
			continue
		}
		out = append(out, t)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *Memory) ReplaceTransaction(ctx context.Context, t models.Transaction, deltas BalanceDeltas) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.transactions[t.ID]; !ok {
		return ErrNotFound
	}
	if err := m.applyDeltas(deltas); err != nil {
		return err
	}
	m.transactions[t.ID] = t
	return nil
}

func (m *Memory) RemoveTransaction(ctx context.Context, id string, deltas BalanceDeltas) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.transactions[id]; !ok {
		return ErrNotFound
	}
	if err := m.applyDeltas(deltas); err != nil {
		return err
	}
	delete(m.transactions, id)
	return nil
}

func (m *Memory) ListTagPatterns(ctx context.Context) ([]models.TagPattern, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.patterns), nil
}

func (m *Memory) UpsertTagPattern(ctx context.Context, p models.TagPattern) (models.TagPattern, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.patterns {
		if existing.Pattern == p.Pattern {
			existing.CategoryID = p.CategoryID
			existing.PayeeID = p.PayeeID
			existing.UpdatedAt = p.UpdatedAt
			m.patterns[i] = existing
			return existing, nil
		}
	}
	m.patterns = append(m.patterns, p)
	return p, nil
}

func (m *Memory) DeleteTagPatternByKey(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patterns = slices.DeleteFunc(m.patterns, func(p models.TagPattern) bool {
		return p.Pattern == pattern
	})
	return nil
}

func (m *Memory) DeleteTagPattern(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	before := len(m.patterns)
	m.patterns = slices.DeleteFunc(m.patterns, func(p models.TagPattern) bool {
		return p.ID == id
	})
	if len(m.patterns) == before {
		return ErrNotFound
	}
	return nil
}

func (m *Memory) CreateLoan(ctx context.Context, l models.Loan, a models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.accounts[a.ID]; exists {
		return fmt.Errorf("account %s already exists", a.ID)
	}
	m.accounts[a.ID] = a
	m.loans[l.ID] = l
	return nil
}

func (m *Memory) GetLoan(ctx context.Context, id string) (models.Loan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.loans[id]
	if !ok {
		return models.Loan{}, ErrNotFound
	}
	return l, nil
}

func (m *Memory) ListLoans(ctx context.Context, loanType models.LoanType) ([]models.Loan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Loan, 0, len(m.loans))
	for _, l := range m.loans {
		if loanType != "" && l.LoanType != loanType {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return strings.Compare(out[i].ID, out[j].ID) < 0
	})
	return out, nil
}

func (m *Memory) UpdateLoan(ctx context.Context, l models.Loan, a *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.loans[l.ID]; !ok {
		return ErrNotFound
	}
	m.loans[l.ID] = l
	if a == nil {
		return nil
	}
	if old, ok := m.accounts[a.ID]; ok {
		m.accounts[a.ID] = reviseAccount(old, *a)
	}
	return nil
}

func (m *Memory) DeleteLoan(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.loans[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.accounts, l.AccountID)
	delete(m.loans, id)
	return nil
}

var _ Store = (*Memory)(nil)
