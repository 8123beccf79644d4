package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ashmitsharp/moneybook-api/internal/models"
	"github.com/ashmitsharp/moneybook-api/internal/store"
)

type testEnv struct {
	store      store.Store
	tagger     *AutoTagger
	ledger     *Ledger
	categories *CategoryService
	loans      *LoanService
	importer   *Importer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithStore(t, store.NewMemory())
}

func newTestEnvWithStore(t *testing.T, s store.Store) *testEnv {
	t.Helper()
	log := zerolog.Nop()

	tagger, err := NewAutoTagger(s, 0, log)
	require.NoError(t, err)
	t.Cleanup(tagger.Close)

	ledger := NewLedger(s, tagger, log)
	return &testEnv{
		store:      s,
		tagger:     tagger,
		ledger:     ledger,
		categories: NewCategoryService(s, log),
		loans:      NewLoanService(s, ledger, log),
		importer:   NewImporter(ledger, tagger, log),
	}
}

func (e *testEnv) account(t *testing.T, name string, opening float64) models.Account {
	t.Helper()
	a, err := e.ledger.CreateAccount(context.Background(), models.AccountInput{
		Name:           name,
		AccountType:    models.AccountBank,
		OpeningBalance: opening,
	})
	require.NoError(t, err)
	return a
}

func (e *testEnv) balance(t *testing.T, id string) float64 {
	t.Helper()
	a, err := e.ledger.GetAccount(context.Background(), id)
	require.NoError(t, err)
	return a.CurrentBalance
}

func (e *testEnv) category(t *testing.T, name string, typ models.CategoryType) models.Category {
	t.Helper()
	c, err := e.categories.CreateCategory(context.Background(), models.CategoryInput{Name: name, Type: typ})
	require.NoError(t, err)
	return c
}

func expense(accountID string, amount float64, desc string) models.TransactionInput {
	return models.TransactionInput{
		Date:            "2024-03-01",
		Description:     desc,
		Amount:          amount,
		AccountID:       accountID,
		TransactionType: models.TransactionExpense,
	}
}

func newMemoryStore() store.Store { return store.NewMemory() }

func ptr[T any](v T) *T { return &v }

// failingPatternStore rejects every tag pattern write
type failingPatternStore struct {
	store.Store
}

func (failingPatternStore) UpsertTagPattern(ctx context.Context, p models.TagPattern) (models.TagPattern, error) {
	return models.TagPattern{}, errors.New("pattern store unavailable")
}

func (failingPatternStore) DeleteTagPatternByKey(ctx context.Context, pattern string) error {
	return errors.New("pattern store unavailable")
}

// slowLoanStore holds the first loan update for delay and closes entered
// once that update has reached the store
type slowLoanStore struct {
	store.Store
	delay   time.Duration
	once    sync.Once
	entered chan struct{}
}

func (s *slowLoanStore) UpdateLoan(ctx context.Context, l models.Loan, a *models.Account) error {
	first := false
	s.once.Do(func() {
		first = true
		close(s.entered)
	})
	if first {
		time.Sleep(s.delay)
	}
	return s.Store.UpdateLoan(ctx, l, a)
}

// lateAccountStore creates late right after the first account listing, the
// way a concurrent CreateAccount would
type lateAccountStore struct {
	store.Store
	once sync.Once
	late models.Account
}

func (s *lateAccountStore) ListAccounts(ctx context.Context, accountType models.AccountType) ([]models.Account, error) {
	out, err := s.Store.ListAccounts(ctx, accountType)
	s.once.Do(func() {
		_ = s.Store.CreateAccount(ctx, s.late)
	})
	return out, err
}
