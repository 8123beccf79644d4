package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ashmitsharp/moneybook-api/internal/models"
	"github.com/ashmitsharp/moneybook-api/internal/store"
)

// DefaultTransactionLimit caps ListTransactions when the filter sets no limit
const DefaultTransactionLimit = 500

// Ledger owns accounts and transactions and keeps every account's current
// balance equal to its opening balance plus the effects of its transactions.
//
// Transaction operations lock the transaction id first, then every account
// they touch in sorted order. The store commits the record change together
// with all balance deltas, so readers never see a half-applied update.
type Ledger struct {
	store  store.Store
	tagger *AutoTagger
	locks  *keyedMutex
	log    zerolog.Logger
	now    func() time.Time
	newID  func() string
}

func NewLedger(s store.Store, tagger *AutoTagger, log zerolog.Logger) *Ledger {
	return &Ledger{
		store:  s,
		tagger: tagger,
		locks:  newKeyedMutex(),
		log:    log.With().Str("component", "ledger").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.New().String() },
	}
}

// validAmount rejects negative, NaN and infinite amounts and fractions of a cent
func validAmount(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0) && !math.IsNaN(v) && wholeCents(v)
}

func validDate(s string) bool {
	_, err := time.Parse(models.DateLayout, s)
	return err == nil
}

// Accounts

func validateAccountInput(in models.AccountInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return invalidf("account name is required")
	}
	if !in.AccountType.Valid() {
		return invalidf("unknown account type %q", in.AccountType)
	}
	if math.IsInf(in.OpeningBalance, 0) || math.IsNaN(in.OpeningBalance) {
		return invalidf("opening balance must be a finite number")
	}
	if !wholeCents(in.OpeningBalance) {
		return invalidf("opening balance must have at most 2 decimal places")
	}
	return nil
}

// CreateAccount creates an account whose current balance starts at the opening balance
func (l *Ledger) CreateAccount(ctx context.Context, in models.AccountInput) (models.Account, error) {
	if err := validateAccountInput(in); err != nil {
		return models.Account{}, err
	}

	a := models.Account{
		ID:             l.newID(),
		Name:           strings.TrimSpace(in.Name),
		AccountType:    in.AccountType,
		OpeningBalance: in.OpeningBalance,
		CurrentBalance: in.OpeningBalance,
		Description:    in.Description,
		PersonName:     in.PersonName,
		CreatedAt:      l.now(),
	}
	if err := l.store.CreateAccount(ctx, a); err != nil {
		return models.Account{}, translate(err, "create account")
	}

	l.log.Info().Str("account_id", a.ID).Str("account_type", string(a.AccountType)).Msg("Account created")
	return a, nil
}

func (l *Ledger) GetAccount(ctx context.Context, id string) (models.Account, error) {
	a, err := l.store.GetAccount(ctx, id)
	if err != nil {
		return models.Account{}, translate(err, "account "+id)
	}
	return a, nil
}

func (l *Ledger) ListAccounts(ctx context.Context, accountType models.AccountType) ([]models.Account, error) {
	if accountType != "" && !accountType.Valid() {
		return nil, invalidf("unknown account type %q", accountType)
	}
	accounts, err := l.store.ListAccounts(ctx, accountType)
	if err != nil {
		return nil, translate(err, "list accounts")
	}
	return accounts, nil
}

// UpdateAccount replaces the account's editable fields. A changed opening
// balance moves the current balance by the same amount.
func (l *Ledger) UpdateAccount(ctx context.Context, id string, in models.AccountInput) (models.Account, error) {
	if err := validateAccountInput(in); err != nil {
		return models.Account{}, err
	}

	release := l.locks.lockAll(id)
	defer release()

	a, err := l.store.UpdateAccount(ctx, models.Account{
		ID:             id,
		Name:           strings.TrimSpace(in.Name),
		AccountType:    in.AccountType,
		OpeningBalance: in.OpeningBalance,
		Description:    in.Description,
		PersonName:     in.PersonName,
	})
	if err != nil {
		return models.Account{}, translate(err, "account "+id)
	}
	return a, nil
}

// DeleteAccount removes the account. Transactions referencing it are kept.
func (l *Ledger) DeleteAccount(ctx context.Context, id string) error {
	release := l.locks.lockAll(id)
	defer release()

	if err := l.store.DeleteAccount(ctx, id); err != nil {
		return translate(err, "account "+id)
	}
	l.log.Info().Str("account_id", id).Msg("Account deleted")
	return nil
}

// Transactions

// validateTransaction checks the fields of a fully merged transaction
func validateTransaction(t models.Transaction) error {
	if !t.TransactionType.Valid() {
		return invalidf("unknown transaction type %q", t.TransactionType)
	}
	if !validAmount(t.Amount) {
		return invalidf("amount must be a non-negative number with at most 2 decimal places")
	}
	if !validDate(t.Date) {
		return invalidf("date %q must be formatted as YYYY-MM-DD", t.Date)
	}
	if t.AccountID == "" {
		return invalidf("account_id is required")
	}
	if t.Source != models.SourceManual && t.Source != models.SourceBankImport {
		return invalidf("unknown source %q", t.Source)
	}
	if t.TransactionType == models.TransactionTransfer {
		if t.PayeeID == "" {
			return invalidf("transfer requires payee_id")
		}
		if t.PayeeID == t.AccountID {
			return invalidf("transfer payee must differ from account")
		}
	}
	return nil
}

// balanceAccounts lists the accounts whose balance t affects
func balanceAccounts(t models.Transaction) []string {
	if t.TransactionType == models.TransactionTransfer {
		return []string{t.AccountID, t.PayeeID}
	}
	return []string{t.AccountID}
}

// requireAccounts fails with ErrNotFound if any id does not exist
func (l *Ledger) requireAccounts(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, err := l.store.GetAccount(ctx, id); err != nil {
			return translate(err, "account "+id)
		}
	}
	return nil
}

// dropOrphans removes deltas aimed at accounts that no longer exist. It is
// only used for reversals: the effect of a transaction on a deleted account
// has nothing left to undo.
func (l *Ledger) dropOrphans(ctx context.Context, deltas store.BalanceDeltas, keep ...string) error {
	for _, id := range deltas.AccountIDs() {
		_, err := l.store.GetAccount(ctx, id)
		switch {
		case err == nil:
		case errors.Is(err, store.ErrNotFound):
			required := false
			for _, k := range keep {
				if k == id {
					required = true
				}
			}
			if required {
				return translate(err, "account "+id)
			}
			l.log.Warn().Str("account_id", id).Float64("delta", deltas[id]).Msg("Skipping reversal on deleted account")
			delete(deltas, id)
		default:
			return translate(err, "account "+id)
		}
	}
	return nil
}

// CreateTransaction validates the input, stores the transaction with its
// balance effect and learns its classification when one is set.
func (l *Ledger) CreateTransaction(ctx context.Context, in models.TransactionInput) (models.Transaction, error) {
	source := in.Source
	if source == "" {
		source = models.SourceManual
	}
	t := models.Transaction{
		ID:              l.newID(),
		Date:            in.Date,
		Description:     in.Description,
		Amount:          in.Amount,
		AccountID:       in.AccountID,
		CategoryID:      in.CategoryID,
		PayeeID:         in.PayeeID,
		TransactionType: in.TransactionType,
		Source:          source,
		Reference:       in.Reference,
		Notes:           in.Notes,
		CreatedAt:       l.now(),
	}
	if err := validateTransaction(t); err != nil {
		return models.Transaction{}, err
	}

	release := l.locks.lockAll(balanceAccounts(t)...)
	defer release()

	if err := l.requireAccounts(ctx, balanceAccounts(t)...); err != nil {
		return models.Transaction{}, err
	}
	if err := l.store.InsertTransaction(ctx, t, effect(t).Compact()); err != nil {
		return models.Transaction{}, translate(err, "create transaction")
	}

	l.log.Debug().Str("transaction_id", t.ID).Str("account_id", t.AccountID).
		Str("type", string(t.TransactionType)).Float64("amount", t.Amount).Msg("Transaction created")

	if t.IsClassified() {
		l.tagger.Learn(ctx, t.Description, t.CategoryID, t.PayeeID)
	}
	return t, nil
}

func (l *Ledger) GetTransaction(ctx context.Context, id string) (models.Transaction, error) {
	t, err := l.store.GetTransaction(ctx, id)
	if err != nil {
		return models.Transaction{}, translate(err, "transaction "+id)
	}
	return t, nil
}

// ListTransactions returns transactions newest first. A category filter also
// matches the category's direct children.
func (l *Ledger) ListTransactions(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, error) {
	if filter.TransactionType != "" && !filter.TransactionType.Valid() {
		return nil, invalidf("unknown transaction type %q", filter.TransactionType)
	}
	if filter.StartDate != "" && !validDate(filter.StartDate) {
		return nil, invalidf("start date %q must be formatted as YYYY-MM-DD", filter.StartDate)
	}
	if filter.EndDate != "" && !validDate(filter.EndDate) {
		return nil, invalidf("end date %q must be formatted as YYYY-MM-DD", filter.EndDate)
	}
	if filter.Limit <= 0 {
		filter.Limit = DefaultTransactionLimit
	}

	if len(filter.CategoryIDs) > 0 {
		categories, err := l.store.ListCategories(ctx, "")
		if err != nil {
			return nil, translate(err, "list categories")
		}
		filter.CategoryIDs = withChildren(filter.CategoryIDs, categories)
	}

	txs, err := l.store.ListTransactions(ctx, filter)
	if err != nil {
		return nil, translate(err, "list transactions")
	}
	return txs, nil
}

func withChildren(ids []string, categories []models.Category) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, c := range categories {
		if c.ParentID != "" && seen[c.ParentID] && !seen[c.ID] {
			seen[c.ID] = true
			out = append(out, c.ID)
		}
	}
	return out
}

// UpdateTransaction merges patch into the stored transaction, reverses the
// original balance effect and applies the new one in a single store write.
// When the patch assigns a category or payee the pattern for the original
// description is replaced by one for the updated transaction.
func (l *Ledger) UpdateTransaction(ctx context.Context, id string, patch models.TransactionPatch) (models.Transaction, error) {
	original, updated, err := l.update(ctx, id, patch)
	if err != nil {
		return models.Transaction{}, err
	}
	if patch.SetsClassification() {
		l.tagger.Relearn(ctx, original.Description, updated)
	}
	return updated, nil
}

// update is the locked read-merge-write used by UpdateTransaction and BulkTag.
// It returns the stored snapshot and the merged result.
func (l *Ledger) update(ctx context.Context, id string, patch models.TransactionPatch) (models.Transaction, models.Transaction, error) {
	releaseTx := l.locks.lockAll("txn:" + id)
	defer releaseTx()

	original, err := l.store.GetTransaction(ctx, id)
	if err != nil {
		return models.Transaction{}, models.Transaction{}, translate(err, "transaction "+id)
	}

	updated := patch.Apply(original)
	if err := validateTransaction(updated); err != nil {
		return models.Transaction{}, models.Transaction{}, err
	}

	touched := append(balanceAccounts(original), balanceAccounts(updated)...)
	release := l.locks.lockAll(touched...)
	defer release()

	required := balanceAccounts(updated)
	if err := l.requireAccounts(ctx, required...); err != nil {
		return models.Transaction{}, models.Transaction{}, err
	}

	deltas := replaceEffect(original, updated)
	if err := l.dropOrphans(ctx, deltas, required...); err != nil {
		return models.Transaction{}, models.Transaction{}, err
	}
	if err := l.store.ReplaceTransaction(ctx, updated, deltas); err != nil {
		return models.Transaction{}, models.Transaction{}, translate(err, "transaction "+id)
	}

	l.log.Debug().Str("transaction_id", id).Interface("deltas", deltas).Msg("Transaction updated")
	return original, updated, nil
}

// DeleteTransaction reverses the transaction's effect and removes it.
// Deleting a missing transaction is a no-op.
func (l *Ledger) DeleteTransaction(ctx context.Context, id string) error {
	releaseTx := l.locks.lockAll("txn:" + id)
	defer releaseTx()

	t, err := l.store.GetTransaction(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return translate(err, "transaction "+id)
	}

	release := l.locks.lockAll(balanceAccounts(t)...)
	defer release()

	deltas := effect(t).Negate().Compact()
	if err := l.dropOrphans(ctx, deltas); err != nil {
		return err
	}
	err = l.store.RemoveTransaction(ctx, id, deltas)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return translate(err, "transaction "+id)
	}

	l.log.Debug().Str("transaction_id", id).Msg("Transaction deleted")
	return nil
}

// BulkTag assigns the category and/or payee to every listed transaction and
// learns one pattern per distinct description key. Ids that do not exist or
// whose update fails validation are skipped. The number of transactions
// actually updated is returned.
func (l *Ledger) BulkTag(ctx context.Context, ids []string, categoryID, payeeID string) (int, error) {
	if categoryID == "" && payeeID == "" {
		return 0, invalidf("category_id or payee_id is required")
	}
	if categoryID != "" {
		if _, err := l.store.GetCategory(ctx, categoryID); err != nil {
			return 0, translate(err, "category "+categoryID)
		}
	}

	var patch models.TransactionPatch
	if categoryID != "" {
		patch.CategoryID = &categoryID
	}
	if payeeID != "" {
		patch.PayeeID = &payeeID
	}

	learned := make(map[string]bool)
	count := 0
	for _, id := range ids {
		_, updated, err := l.update(ctx, id, patch)
		switch {
		case err == nil:
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidArgument):
			l.log.Warn().Err(err).Str("transaction_id", id).Msg("Bulk tag skipped transaction")
			continue
		default:
			return count, err
		}
		count++

		key := DeriveKey(updated.Description)
		if learned[key] {
			continue
		}
		learned[key] = true
		l.tagger.Learn(ctx, updated.Description, updated.CategoryID, updated.PayeeID)
	}

	l.log.Info().Int("requested", len(ids)).Int("updated", count).Msg("Bulk tag complete")
	return count, nil
}
