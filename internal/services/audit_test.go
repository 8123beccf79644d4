package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashmitsharp/moneybook-api/internal/models"
	"github.com/ashmitsharp/moneybook-api/internal/store"
)

func TestLedger_AuditBalances(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.account(t, "A", 1000)
	b := env.account(t, "B", 0)

	_, err := env.ledger.CreateTransaction(ctx, expense(a.ID, 120.55, "Groceries"))
	require.NoError(t, err)
	_, err = env.ledger.CreateTransaction(ctx, models.TransactionInput{
		Date: "2024-03-01", Amount: 300, AccountID: a.ID, PayeeID: b.ID, TransactionType: models.TransactionTransfer,
	})
	require.NoError(t, err)

	drifts, err := env.ledger.AuditBalances(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, drifts)

	// a write that bypasses the ledger
	require.NoError(t, env.store.SetCurrentBalance(ctx, b.ID, 999))

	drifts, err = env.ledger.AuditBalances(ctx, false)
	require.NoError(t, err)
	require.Len(t, drifts, 1)
	assert.Equal(t, b.ID, drifts[0].AccountID)
	assert.Equal(t, 999.0, drifts[0].Stored)
	assert.Equal(t, 300.0, drifts[0].Expected)
	assert.Equal(t, 699.0, drifts[0].Drift)
	assert.False(t, drifts[0].Repaired)
	assert.Equal(t, 999.0, env.balance(t, b.ID))

	drifts, err = env.ledger.AuditBalances(ctx, true)
	require.NoError(t, err)
	require.Len(t, drifts, 1)
	assert.True(t, drifts[0].Repaired)
	assert.Equal(t, 300.0, env.balance(t, b.ID))

	drifts, err = env.ledger.AuditBalances(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, drifts)
}

func TestLedger_AuditSkipsAccountsCreatedMidRun(t *testing.T) {
	ctx := context.Background()
	late := models.Account{ID: "late", Name: "Late", AccountType: models.AccountCash, OpeningBalance: 0, CurrentBalance: 50}
	env := newTestEnvWithStore(t, &lateAccountStore{Store: store.NewMemory(), late: late})
	env.account(t, "A", 100)

	drifts, err := env.ledger.AuditBalances(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, drifts)
	assert.Equal(t, 50.0, env.balance(t, "late"))

	// the next run holds its lock
	drifts, err = env.ledger.AuditBalances(ctx, true)
	require.NoError(t, err)
	require.Len(t, drifts, 1)
	assert.Equal(t, "late", drifts[0].AccountID)
	assert.True(t, drifts[0].Repaired)
	assert.Equal(t, 0.0, env.balance(t, "late"))
}
