package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/ashmitsharp/moneybook-api/internal/models"
	"github.com/ashmitsharp/moneybook-api/internal/utils"
)

// TransactionHandler handles transaction-related requests
type TransactionHandler struct {
	transactions TransactionService
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(transactions TransactionService) *TransactionHandler {
	return &TransactionHandler{transactions: transactions}
}

// parseTransactionFilter reads the list filter from the query string
func parseTransactionFilter(c fiber.Ctx) (models.TransactionFilter, error) {
	filter := models.TransactionFilter{
		AccountID:       c.Query("account_id"),
		TransactionType: models.TransactionType(c.Query("type")),
		StartDate:       c.Query("start_date"),
		EndDate:         c.Query("end_date"),
	}

	if raw := c.Query("category_id"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				filter.CategoryIDs = append(filter.CategoryIDs, id)
			}
		}
	}

	if raw := c.Query("untagged"); raw != "" {
		untagged, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, utils.NewBadRequestError("untagged must be a boolean", raw)
		}
		filter.Untagged = untagged
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return filter, utils.NewBadRequestError("limit must be a positive integer", raw)
		}
		filter.Limit = limit
	}

	return filter, nil
}

// GetTransactions returns transactions newest first
// GET /v1/transactions?account_id=&category_id=a,b&type=expense&untagged=true&start_date=&end_date=&limit=500
func (h *TransactionHandler) GetTransactions(c fiber.Ctx) error {
	filter, err := parseTransactionFilter(c)
	if err != nil {
		return err
	}

	transactions, err := h.transactions.ListTransactions(c.Context(), filter)
	if err != nil {
		return err
	}
	return utils.ListResponse(c, "transactions", transactions, len(transactions))
}

// GetTransaction returns one transaction
// GET /v1/transactions/:id
func (h *TransactionHandler) GetTransaction(c fiber.Ctx) error {
	txn, err := h.transactions.GetTransaction(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(txn)
}

// CreateTransaction records a transaction and applies it to account balances
// POST /v1/transactions
func (h *TransactionHandler) CreateTransaction(c fiber.Ctx) error {
	var req models.TransactionInput
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	txn, err := h.transactions.CreateTransaction(c.Context(), req)
	if err != nil {
		return err
	}
	return utils.CreatedResponse(c, txn)
}

// UpdateTransaction applies a partial update
// PATCH /v1/transactions/:id
func (h *TransactionHandler) UpdateTransaction(c fiber.Ctx) error {
	var req models.TransactionPatch
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	txn, err := h.transactions.UpdateTransaction(c.Context(), c.Params("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(txn)
}

// DeleteTransaction removes a transaction and reverses its balance effect.
// Deleting a missing transaction succeeds.
// DELETE /v1/transactions/:id
func (h *TransactionHandler) DeleteTransaction(c fiber.Ctx) error {
	if err := h.transactions.DeleteTransaction(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return utils.NoContent(c)
}

// BulkTagRequest represents the request body for bulk tagging
type BulkTagRequest struct {
	TransactionIDs []string `json:"transaction_ids"`
	CategoryID     string   `json:"category_id"`
	PayeeID        string   `json:"payee_id"`
}

// BulkTag assigns a category and/or payee to many transactions at once
// POST /v1/transactions/bulk-tag
func (h *TransactionHandler) BulkTag(c fiber.Ctx) error {
	var req BulkTagRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	if len(req.TransactionIDs) == 0 {
		return utils.NewBadRequestError("transaction_ids is required", nil)
	}

	updated, err := h.transactions.BulkTag(c.Context(), req.TransactionIDs, req.CategoryID, req.PayeeID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"updated":   updated,
		"requested": len(req.TransactionIDs),
	})
}
