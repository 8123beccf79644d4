package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashmitsharp/moneybook-api/internal/models"
)

func TestCategoryService_Hierarchy(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	food := env.category(t, "Food", models.CategoryExpense)
	salary := env.category(t, "Salary", models.CategoryIncome)

	dining, err := env.categories.CreateCategory(ctx, models.CategoryInput{Name: "Dining", Type: models.CategoryExpense, ParentID: food.ID})
	require.NoError(t, err)

	tests := []struct {
		name    string
		input   models.CategoryInput
		wantErr error
	}{
		{"missing name", models.CategoryInput{Type: models.CategoryExpense}, ErrInvalidArgument},
		{"unknown type", models.CategoryInput{Name: "X", Type: "asset"}, ErrInvalidArgument},
		{"grandchild", models.CategoryInput{Name: "Cafe", Type: models.CategoryExpense, ParentID: dining.ID}, ErrInvalidArgument},
		{"type mismatch with parent", models.CategoryInput{Name: "Bonus", Type: models.CategoryExpense, ParentID: salary.ID}, ErrInvalidArgument},
		{"unknown parent", models.CategoryInput{Name: "X", Type: models.CategoryExpense, ParentID: "ghost"}, ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.categories.CreateCategory(ctx, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCategoryService_Update(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	food := env.category(t, "Food", models.CategoryExpense)
	misc := env.category(t, "Misc", models.CategoryExpense)
	_, err := env.categories.CreateCategory(ctx, models.CategoryInput{Name: "Dining", Type: models.CategoryExpense, ParentID: food.ID})
	require.NoError(t, err)

	updated, err := env.categories.UpdateCategory(ctx, misc.ID, models.CategoryInput{Name: "Snacks", Type: models.CategoryExpense, ParentID: food.ID})
	require.NoError(t, err)
	assert.Equal(t, "Snacks", updated.Name)
	assert.Equal(t, food.ID, updated.ParentID)
	assert.Equal(t, misc.CreatedAt, updated.CreatedAt)

	_, err = env.categories.UpdateCategory(ctx, food.ID, models.CategoryInput{Name: "Food", Type: models.CategoryExpense, ParentID: food.ID})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	other := env.category(t, "Other", models.CategoryExpense)
	_, err = env.categories.UpdateCategory(ctx, food.ID, models.CategoryInput{Name: "Food", Type: models.CategoryExpense, ParentID: other.ID})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = env.categories.UpdateCategory(ctx, "ghost", models.CategoryInput{Name: "X", Type: models.CategoryExpense})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCategoryService_DeleteCascadesChildren(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	food := env.category(t, "Food", models.CategoryExpense)
	_, err := env.categories.CreateCategory(ctx, models.CategoryInput{Name: "Dining", Type: models.CategoryExpense, ParentID: food.ID})
	require.NoError(t, err)
	env.category(t, "Salary", models.CategoryIncome)

	require.NoError(t, env.categories.DeleteCategory(ctx, food.ID))

	remaining, err := env.categories.ListCategories(ctx, "")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "Salary", remaining[0].Name)

	assert.ErrorIs(t, env.categories.DeleteCategory(ctx, food.ID), ErrNotFound)
}
