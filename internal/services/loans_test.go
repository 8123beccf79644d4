package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/ashmitsharp/moneybook-api/internal/models"
	"github.com/ashmitsharp/moneybook-api/internal/store"
)

func TestLoanService_CreateLoanCreatesAccount(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	tests := []struct {
		loanType models.LoanType
		wantType models.AccountType
	}{
		{models.LoanGiven, models.AccountLoanReceivable},
		{models.LoanTaken, models.AccountLoanPayable},
	}

	for _, tt := range tests {
		t.Run(string(tt.loanType), func(t *testing.T) {
			loan, err := env.loans.CreateLoan(ctx, models.LoanInput{
				PersonName: "Ravi", LoanType: tt.loanType, Principal: 5000, InterestRate: 8, StartDate: "2024-02-01",
			})
			require.NoError(t, err)

			acc, err := env.ledger.GetAccount(ctx, loan.AccountID)
			require.NoError(t, err)
			assert.Equal(t, "Loan - Ravi", acc.Name)
			assert.Equal(t, tt.wantType, acc.AccountType)
			assert.Equal(t, 5000.0, acc.OpeningBalance)
			assert.Equal(t, 5000.0, acc.CurrentBalance)
			assert.Equal(t, "Ravi", acc.PersonName)
		})
	}
}

func TestLoanService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	tests := []struct {
		name  string
		input models.LoanInput
	}{
		{"missing person", models.LoanInput{LoanType: models.LoanGiven, Principal: 1, StartDate: "2024-01-01"}},
		{"unknown type", models.LoanInput{PersonName: "A", LoanType: "gift", Principal: 1, StartDate: "2024-01-01"}},
		{"negative principal", models.LoanInput{PersonName: "A", LoanType: models.LoanGiven, Principal: -1, StartDate: "2024-01-01"}},
		{"fraction of a cent", models.LoanInput{PersonName: "A", LoanType: models.LoanGiven, Principal: 100.001, StartDate: "2024-01-01"}},
		{"negative rate", models.LoanInput{PersonName: "A", LoanType: models.LoanGiven, Principal: 1, InterestRate: -2, StartDate: "2024-01-01"}},
		{"bad start date", models.LoanInput{PersonName: "A", LoanType: models.LoanGiven, Principal: 1, StartDate: "Jan 1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.loans.CreateLoan(ctx, tt.input)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}

	accounts, err := env.ledger.ListAccounts(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestLoanService_UpdateLoanSyncsAccount(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	loan, err := env.loans.CreateLoan(ctx, models.LoanInput{
		PersonName: "Ravi", LoanType: models.LoanGiven, Principal: 5000, StartDate: "2024-02-01",
	})
	require.NoError(t, err)

	// a repayment recorded against the loan account
	_, err = env.ledger.CreateTransaction(ctx, models.TransactionInput{
		Date: "2024-03-01", Amount: 1000, AccountID: loan.AccountID, TransactionType: models.TransactionExpense,
	})
	require.NoError(t, err)

	updated, err := env.loans.UpdateLoan(ctx, loan.ID, models.LoanPatch{
		PersonName:  ptr("Ravi Kumar"),
		Principal:   ptr(6000.0),
		TotalRepaid: ptr(1000.0),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ravi Kumar", updated.PersonName)
	assert.Equal(t, 1000.0, updated.TotalRepaid)

	acc, err := env.ledger.GetAccount(ctx, loan.AccountID)
	require.NoError(t, err)
	assert.Equal(t, "Loan - Ravi Kumar", acc.Name)
	assert.Equal(t, "Ravi Kumar", acc.PersonName)
	assert.Equal(t, 6000.0, acc.OpeningBalance)
	assert.Equal(t, 5000.0, acc.CurrentBalance)

	_, err = env.loans.UpdateLoan(ctx, loan.ID, models.LoanPatch{PersonName: ptr("  ")})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = env.loans.UpdateLoan(ctx, "missing", models.LoanPatch{Notes: ptr("x")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoanService_ConcurrentPrincipalUpdatesStayInStep(t *testing.T) {
	ctx := context.Background()
	slow := &slowLoanStore{Store: store.NewMemory(), delay: 20 * time.Millisecond, entered: make(chan struct{})}
	env := newTestEnvWithStore(t, slow)

	loan, err := env.loans.CreateLoan(ctx, models.LoanInput{
		PersonName: "Ravi", LoanType: models.LoanGiven, Principal: 50, StartDate: "2024-02-01",
	})
	require.NoError(t, err)

	var g errgroup.Group
	g.Go(func() error {
		_, err := env.loans.UpdateLoan(ctx, loan.ID, models.LoanPatch{Principal: ptr(100.0)})
		return err
	})
	<-slow.entered
	g.Go(func() error {
		_, err := env.loans.UpdateLoan(ctx, loan.ID, models.LoanPatch{Principal: ptr(200.0)})
		return err
	})
	require.NoError(t, g.Wait())

	got, err := env.loans.GetLoan(ctx, loan.ID)
	require.NoError(t, err)
	acc, err := env.ledger.GetAccount(ctx, loan.AccountID)
	require.NoError(t, err)
	assert.Equal(t, 200.0, got.Principal)
	assert.Equal(t, got.Principal, acc.OpeningBalance)
	assert.Equal(t, got.Principal, acc.CurrentBalance)
}

func TestLoanService_UpdateWithMissingAccountStillSavesLoan(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	loan, err := env.loans.CreateLoan(ctx, models.LoanInput{
		PersonName: "Ravi", LoanType: models.LoanTaken, Principal: 900, StartDate: "2024-02-01",
	})
	require.NoError(t, err)
	require.NoError(t, env.store.DeleteAccount(ctx, loan.AccountID))

	updated, err := env.loans.UpdateLoan(ctx, loan.ID, models.LoanPatch{Principal: ptr(1200.0)})
	require.NoError(t, err)
	assert.Equal(t, 1200.0, updated.Principal)

	got, err := env.loans.GetLoan(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, 1200.0, got.Principal)
}

func TestLoanService_DeleteLoanRemovesAccount(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	loan, err := env.loans.CreateLoan(ctx, models.LoanInput{
		PersonName: "Ravi", LoanType: models.LoanTaken, Principal: 900, StartDate: "2024-02-01",
	})
	require.NoError(t, err)

	require.NoError(t, env.loans.DeleteLoan(ctx, loan.ID))

	_, err = env.ledger.GetAccount(ctx, loan.AccountID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.loans.GetLoan(ctx, loan.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, env.loans.DeleteLoan(ctx, loan.ID), ErrNotFound)
}

func TestLoanService_ListLoansByType(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	for _, lt := range []models.LoanType{models.LoanGiven, models.LoanTaken, models.LoanGiven} {
		_, err := env.loans.CreateLoan(ctx, models.LoanInput{PersonName: "P", LoanType: lt, Principal: 1, StartDate: "2024-01-01"})
		require.NoError(t, err)
	}

	given, err := env.loans.ListLoans(ctx, models.LoanGiven)
	require.NoError(t, err)
	assert.Len(t, given, 2)

	_, err = env.loans.ListLoans(ctx, "borrowed")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
