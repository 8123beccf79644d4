package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashmitsharp/moneybook-api/internal/models"
)

func TestSeedDefaults_Idempotent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(t, SeedDefaults(ctx, env.categories, env.ledger))
	first, err := env.categories.ListCategories(ctx, "")
	require.NoError(t, err)

	require.NoError(t, SeedDefaults(ctx, env.categories, env.ledger))
	second, err := env.categories.ListCategories(ctx, "")
	require.NoError(t, err)
	assert.Len(t, second, len(first))

	// 11 expense + 4 income parents, 12 subcategories
	assert.Len(t, first, 27)

	income, err := env.categories.ListCategories(ctx, models.CategoryIncome)
	require.NoError(t, err)
	assert.Len(t, income, 4)

	cash, err := env.ledger.ListAccounts(ctx, models.AccountCash)
	require.NoError(t, err)
	require.Len(t, cash, 1)
	assert.Equal(t, "Cash", cash[0].Name)
}
