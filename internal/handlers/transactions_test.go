package handlers

import (
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionRoutes_CreateUpdateDelete(t *testing.T) {
	srv := newTestServer(t, nil)
	acc := srv.account(t, "Savings", 1000)

	status, txn := srv.do(t, "POST", "/v1/transactions", map[string]any{
		"date":             "2024-03-01",
		"description":      "UPI/Swiggy/123",
		"amount":           250,
		"account_id":       acc.ID,
		"transaction_type": "expense",
	})
	require.Equal(t, fiber.StatusCreated, status, txn)
	assert.Equal(t, "manual", txn["source"])
	assert.Equal(t, 750.0, srv.balance(t, acc.ID))

	id := txn["id"].(string)
	status, txn = srv.do(t, "PATCH", "/v1/transactions/"+id, map[string]any{"amount": 300})
	require.Equal(t, fiber.StatusOK, status, txn)
	assert.Equal(t, float64(300), txn["amount"])
	assert.Equal(t, 700.0, srv.balance(t, acc.ID))

	status, _ = srv.do(t, "DELETE", "/v1/transactions/"+id, nil)
	assert.Equal(t, fiber.StatusNoContent, status)
	assert.Equal(t, 1000.0, srv.balance(t, acc.ID))

	// deleting again is not an error
	status, _ = srv.do(t, "DELETE", "/v1/transactions/"+id, nil)
	assert.Equal(t, fiber.StatusNoContent, status)

	status, _ = srv.do(t, "GET", "/v1/transactions/"+id, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestTransactionRoutes_ListFilters(t *testing.T) {
	srv := newTestServer(t, nil)
	acc := srv.account(t, "Savings", 0)
	food := srv.category(t, "Food", "expense")

	for _, in := range []map[string]any{
		{"date": "2024-03-01", "description": "Swiggy", "amount": 100, "account_id": acc.ID, "transaction_type": "expense", "category_id": food.ID},
		{"date": "2024-03-05", "description": "Salary", "amount": 5000, "account_id": acc.ID, "transaction_type": "income"},
		{"date": "2024-04-01", "description": "ATM", "amount": 200, "account_id": acc.ID, "transaction_type": "expense"},
	} {
		status, body := srv.do(t, "POST", "/v1/transactions", in)
		require.Equal(t, fiber.StatusCreated, status, body)
	}

	tests := []struct {
		name  string
		query string
		count int
	}{
		{"all", "", 3},
		{"by account", "?account_id=" + acc.ID, 3},
		{"by category", "?category_id=" + food.ID, 1},
		{"by type", "?type=expense", 2},
		{"untagged", "?untagged=true", 2},
		{"date range", "?start_date=2024-03-01&end_date=2024-03-31", 2},
		{"limit", "?limit=1", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := srv.do(t, "GET", "/v1/transactions"+tt.query, nil)
			require.Equal(t, fiber.StatusOK, status, body)
			assert.Equal(t, float64(tt.count), body["count"])
		})
	}

	t.Run("newest first", func(t *testing.T) {
		_, body := srv.do(t, "GET", "/v1/transactions", nil)
		txns := body["transactions"].([]any)
		assert.Equal(t, "2024-04-01", txns[0].(map[string]any)["date"])
	})
}

func TestTransactionRoutes_BadQuery(t *testing.T) {
	srv := newTestServer(t, nil)

	for _, query := range []string{"?limit=0", "?limit=abc", "?untagged=maybe", "?type=refund", "?start_date=01/03/2024"} {
		t.Run(query, func(t *testing.T) {
			status, body := srv.do(t, "GET", "/v1/transactions"+query, nil)
			assert.Equal(t, fiber.StatusBadRequest, status, body)
		})
	}
}

func TestTransactionRoutes_BulkTag(t *testing.T) {
	srv := newTestServer(t, nil)
	acc := srv.account(t, "Savings", 0)
	food := srv.category(t, "Food", "expense")

	var ids []any
	for _, desc := range []string{"UPI/Swiggy/111", "UPI/Swiggy/222"} {
		_, body := srv.do(t, "POST", "/v1/transactions", map[string]any{
			"date": "2024-03-01", "description": desc, "amount": 100,
			"account_id": acc.ID, "transaction_type": "expense",
		})
		ids = append(ids, body["id"])
	}
	ids = append(ids, "missing")

	status, body := srv.do(t, "POST", "/v1/transactions/bulk-tag", map[string]any{
		"transaction_ids": ids,
		"category_id":     food.ID,
	})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, float64(2), body["updated"])
	assert.Equal(t, float64(3), body["requested"])

	// one pattern learned for the shared key
	status, body = srv.do(t, "GET", "/v1/tag-patterns", nil)
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, float64(1), body["count"])
	pattern := body["patterns"].([]any)[0].(map[string]any)
	assert.Equal(t, "UPI/Swiggy/", pattern["pattern"])

	status, _ = srv.do(t, "DELETE", "/v1/tag-patterns/"+pattern["id"].(string), nil)
	assert.Equal(t, fiber.StatusNoContent, status)

	status, body = srv.do(t, "POST", "/v1/transactions/bulk-tag", map[string]any{"category_id": food.ID})
	assert.Equal(t, fiber.StatusBadRequest, status, body)

	status, body = srv.do(t, "POST", "/v1/transactions/bulk-tag", map[string]any{"transaction_ids": ids})
	assert.Equal(t, fiber.StatusBadRequest, status, body)
}
