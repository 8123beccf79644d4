package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ashmitsharp/moneybook-api/internal/models"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres is a Store backed by a pgx connection pool. Monetary columns are
// NUMERIC(15,2) and read back as float8.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func expectRow(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Accounts

const accountColumns = `id, name, account_type, opening_balance::float8, current_balance::float8,
	description, COALESCE(person_name, ''), created_at`

func scanAccount(row pgx.Row) (models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.Name, &a.AccountType, &a.OpeningBalance, &a.CurrentBalance,
		&a.Description, &a.PersonName, &a.CreatedAt)
	return a, notFound(err)
}

func insertAccount(ctx context.Context, q querier, a models.Account) error {
	query := `
		INSERT INTO accounts (id, name, account_type, opening_balance, current_balance, description, person_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8)
	`
	_, err := q.Exec(ctx, query, a.ID, a.Name, a.AccountType, a.OpeningBalance,
		a.CurrentBalance, a.Description, a.PersonName, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (p *Postgres) CreateAccount(ctx context.Context, a models.Account) error {
	return insertAccount(ctx, p.pool, a)
}

func (p *Postgres) GetAccount(ctx context.Context, id string) (models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(p.pool.QueryRow(ctx, query, id))
}

func (p *Postgres) ListAccounts(ctx context.Context, accountType models.AccountType) ([]models.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE ($1 = '' OR account_type = $1)
		ORDER BY created_at, id
	`
	rows, err := p.pool.Query(ctx, query, string(accountType))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := []models.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// updateAccountSQL moves current_balance by the change in opening_balance
const updateAccountSQL = `
	UPDATE accounts
	SET name = $2, account_type = $3, description = $4, person_name = NULLIF($5, ''),
		current_balance = current_balance + ($6 - opening_balance),
		opening_balance = $6
	WHERE id = $1`

func (p *Postgres) UpdateAccount(ctx context.Context, a models.Account) (models.Account, error) {
	query := updateAccountSQL + ` RETURNING ` + accountColumns
	return scanAccount(p.pool.QueryRow(ctx, query, a.ID, a.Name, a.AccountType,
		a.Description, a.PersonName, a.OpeningBalance))
}

func (p *Postgres) DeleteAccount(ctx context.Context, id string) error {
	return expectRow(p.pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id))
}

func (p *Postgres) SetCurrentBalance(ctx context.Context, id string, balance float64) error {
	return expectRow(p.pool.Exec(ctx, `UPDATE accounts SET current_balance = $2 WHERE id = $1`, id, balance))
}

// applyDeltas increments balances in sorted account order so concurrent
// transactions always take row locks in the same sequence.
func applyDeltas(ctx context.Context, tx pgx.Tx, deltas BalanceDeltas) error {
	for _, id := range deltas.AccountIDs() {
		tag, err := tx.Exec(ctx,
			`UPDATE accounts SET current_balance = current_balance + $2 WHERE id = $1`, id, deltas[id])
		if err := expectRow(tag, err); err != nil {
			return fmt.Errorf("account %s: %w", id, err)
		}
	}
	return nil
}

// Categories

const categoryColumns = `id, name, type, COALESCE(parent_id, ''), COALESCE(icon, ''), COALESCE(color, ''), created_at`

func scanCategory(row pgx.Row) (models.Category, error) {
	var c models.Category
	err := row.Scan(&c.ID, &c.Name, &c.Type, &c.ParentID, &c.Icon, &c.Color, &c.CreatedAt)
	return c, notFound(err)
}

func (p *Postgres) CreateCategory(ctx context.Context, c models.Category) error {
	query := `
		INSERT INTO categories (id, name, type, parent_id, icon, color, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7)
	`
	_, err := p.pool.Exec(ctx, query, c.ID, c.Name, c.Type, c.ParentID, c.Icon, c.Color, c.CreatedAt)
	return err
}

func (p *Postgres) GetCategory(ctx context.Context, id string) (models.Category, error) {
	return scanCategory(p.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
}

func (p *Postgres) ListCategories(ctx context.Context, categoryType models.CategoryType) ([]models.Category, error) {
	query := `
		SELECT ` + categoryColumns + `
		FROM categories
		WHERE ($1 = '' OR type = $1)
		ORDER BY created_at, id
	`
	rows, err := p.pool.Query(ctx, query, string(categoryType))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (p *Postgres) UpdateCategory(ctx context.Context, c models.Category) error {
	query := `
		UPDATE categories
		SET name = $2, type = $3, parent_id = NULLIF($4, ''), icon = NULLIF($5, ''), color = NULLIF($6, '')
		WHERE id = $1
	`
	return expectRow(p.pool.Exec(ctx, query, c.ID, c.Name, c.Type, c.ParentID, c.Icon, c.Color))
}

func (p *Postgres) DeleteCategory(ctx context.Context, id string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1 OR parent_id = $1`, id)
	return err
}

// Transactions

const transactionColumns = `id, to_char(date, 'YYYY-MM-DD'), description, amount::float8, account_id,
	COALESCE(category_id, ''), COALESCE(payee_id, ''), transaction_type, source,
	COALESCE(reference, ''), COALESCE(notes, ''), created_at`

func scanTransaction(row pgx.Row) (models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(&t.ID, &t.Date, &t.Description, &t.Amount, &t.AccountID, &t.CategoryID,
		&t.PayeeID, &t.TransactionType, &t.Source, &t.Reference, &t.Notes, &t.CreatedAt)
	return t, notFound(err)
}

func (p *Postgres) InsertTransaction(ctx context.Context, t models.Transaction, deltas BalanceDeltas) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		query := `
			INSERT INTO transactions (id, date, description, amount, account_id, category_id, payee_id,
				transaction_type, source, reference, notes, created_at)
			VALUES ($1, $2::text::date, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8, $9,
				NULLIF($10, ''), NULLIF($11, ''), $12)
		`
		_, err := tx.Exec(ctx, query, t.ID, t.Date, t.Description, t.Amount, t.AccountID, t.CategoryID,
			t.PayeeID, t.TransactionType, t.Source, t.Reference, t.Notes, t.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		return applyDeltas(ctx, tx, deltas)
	})
}

func (p *Postgres) GetTransaction(ctx context.Context, id string) (models.Transaction, error) {
	return scanTransaction(p.pool.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id))
}

func (p *Postgres) ListTransactions(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.AccountID != "" {
		n := arg(filter.AccountID)
		where = append(where, fmt.Sprintf("(account_id = %s OR payee_id = %s)", n, n))
	}
	if len(filter.CategoryIDs) > 0 {
		where = append(where, "category_id = ANY("+arg(filter.CategoryIDs)+")")
	}
	if filter.TransactionType != "" {
		where = append(where, "transaction_type = "+arg(string(filter.TransactionType)))
	}
	if filter.Untagged {
		where = append(where, "category_id IS NULL AND payee_id IS NULL")
	}
	if filter.StartDate != "" {
		where = append(where, "date >= "+arg(filter.StartDate)+"::text::date")
	}
	if filter.EndDate != "" {
		where = append(where, "date <= "+arg(filter.EndDate)+"::text::date")
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date DESC, created_at DESC, id"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

func (p *Postgres) ReplaceTransaction(ctx context.Context, t models.Transaction, deltas BalanceDeltas) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		query := `
			UPDATE transactions
			SET date = $2::text::date, description = $3, amount = $4, account_id = $5,
				category_id = NULLIF($6, ''), payee_id = NULLIF($7, ''), transaction_type = $8,
				source = $9, reference = NULLIF($10, ''), notes = NULLIF($11, '')
			WHERE id = $1
		`
		if err := expectRow(tx.Exec(ctx, query, t.ID, t.Date, t.Description, t.Amount, t.AccountID,
			t.CategoryID, t.PayeeID, t.TransactionType, t.Source, t.Reference, t.Notes)); err != nil {
			return err
		}
		return applyDeltas(ctx, tx, deltas)
	})
}

func (p *Postgres) RemoveTransaction(ctx context.Context, id string, deltas BalanceDeltas) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if err := expectRow(tx.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)); err != nil {
			return err
		}
		return applyDeltas(ctx, tx, deltas)
	})
}

// Tag patterns

const tagPatternColumns = `id, pattern, COALESCE(category_id, ''), COALESCE(payee_id, ''), created_at, updated_at`

func scanTagPattern(row pgx.Row) (models.TagPattern, error) {
	var tp models.TagPattern
	err := row.Scan(&tp.ID, &tp.Pattern, &tp.CategoryID, &tp.PayeeID, &tp.CreatedAt, &tp.UpdatedAt)
	return tp, notFound(err)
}

func (p *Postgres) ListTagPatterns(ctx context.Context) ([]models.TagPattern, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+tagPatternColumns+` FROM tag_patterns ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	patterns := []models.TagPattern{}
	for rows.Next() {
		tp, err := scanTagPattern(rows)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, tp)
	}
	return patterns, rows.Err()
}

func (p *Postgres) UpsertTagPattern(ctx context.Context, tp models.TagPattern) (models.TagPattern, error) {
	query := `
		INSERT INTO tag_patterns (id, pattern, category_id, payee_id, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6)
		ON CONFLICT (pattern) DO UPDATE
		SET category_id = EXCLUDED.category_id,
			payee_id = EXCLUDED.payee_id,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + tagPatternColumns
	return scanTagPattern(p.pool.QueryRow(ctx, query, tp.ID, tp.Pattern, tp.CategoryID, tp.PayeeID,
		tp.CreatedAt, tp.UpdatedAt))
}

func (p *Postgres) DeleteTagPatternByKey(ctx context.Context, pattern string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM tag_patterns WHERE pattern = $1`, pattern)
	return err
}

func (p *Postgres) DeleteTagPattern(ctx context.Context, id string) error {
	return expectRow(p.pool.Exec(ctx, `DELETE FROM tag_patterns WHERE id = $1`, id))
}

// Loans

const loanColumns = `id, person_name, loan_type, principal::float8, interest_rate::float8,
	to_char(start_date, 'YYYY-MM-DD'), COALESCE(notes, ''), account_id, total_repaid::float8,
	interest_paid::float8, created_at`

func scanLoan(row pgx.Row) (models.Loan, error) {
	var l models.Loan
	err := row.Scan(&l.ID, &l.PersonName, &l.LoanType, &l.Principal, &l.InterestRate, &l.StartDate,
		&l.Notes, &l.AccountID, &l.TotalRepaid, &l.InterestPaid, &l.CreatedAt)
	return l, notFound(err)
}

func (p *Postgres) CreateLoan(ctx context.Context, l models.Loan, a models.Account) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if err := insertAccount(ctx, tx, a); err != nil {
			return err
		}
		query := `
			INSERT INTO loans (id, person_name, loan_type, principal, interest_rate, start_date, notes,
				account_id, total_repaid, interest_paid, created_at)
			VALUES ($1, $2, $3, $4, $5, $6::text::date, NULLIF($7, ''), $8, $9, $10, $11)
		`
		_, err := tx.Exec(ctx, query, l.ID, l.PersonName, l.LoanType, l.Principal, l.InterestRate,
			l.StartDate, l.Notes, l.AccountID, l.TotalRepaid, l.InterestPaid, l.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert loan: %w", err)
		}
		return nil
	})
}

func (p *Postgres) GetLoan(ctx context.Context, id string) (models.Loan, error) {
	return scanLoan(p.pool.QueryRow(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = $1`, id))
}

func (p *Postgres) ListLoans(ctx context.Context, loanType models.LoanType) ([]models.Loan, error) {
	query := `
		SELECT ` + loanColumns + `
		FROM loans
		WHERE ($1 = '' OR loan_type = $1)
		ORDER BY created_at, id
	`
	rows, err := p.pool.Query(ctx, query, string(loanType))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	loans := []models.Loan{}
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, l)
	}
	return loans, rows.Err()
}

func (p *Postgres) UpdateLoan(ctx context.Context, l models.Loan, a *models.Account) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		query := `
			UPDATE loans
			SET person_name = $2, principal = $3, interest_rate = $4, start_date = $5::text::date,
				notes = NULLIF($6, ''), total_repaid = $7, interest_paid = $8
			WHERE id = $1
		`
		err := expectRow(tx.Exec(ctx, query, l.ID, l.PersonName, l.Principal, l.InterestRate,
			l.StartDate, l.Notes, l.TotalRepaid, l.InterestPaid))
		if err != nil || a == nil {
			return err
		}
		_, err = tx.Exec(ctx, updateAccountSQL, a.ID, a.Name, a.AccountType, a.Description, a.PersonName, a.OpeningBalance)
		if err != nil {
			return fmt.Errorf("update loan account: %w", err)
		}
		return nil
	})
}

func (p *Postgres) DeleteLoan(ctx context.Context, id string) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		var accountID string
		err := tx.QueryRow(ctx, `DELETE FROM loans WHERE id = $1 RETURNING account_id`, id).Scan(&accountID)
		if err != nil {
			return notFound(err)
		}
		_, err = tx.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, accountID)
		return err
	})
}

var _ Store = (*Postgres)(nil)
