package handlers

import (
	"github.com/gofiber/fiber/v3"

	"github.com/ashmitsharp/moneybook-api/internal/models"
	"github.com/ashmitsharp/moneybook-api/internal/utils"
)

// AccountHandler handles account management
type AccountHandler struct {
	accounts AccountService
}

func NewAccountHandler(accounts AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// ListAccounts returns all accounts, optionally filtered by type
// GET /v1/accounts?type=bank
func (h *AccountHandler) ListAccounts(c fiber.Ctx) error {
	accounts, err := h.accounts.ListAccounts(c.Context(), models.AccountType(c.Query("type")))
	if err != nil {
		return err
	}
	return utils.ListResponse(c, "accounts", accounts, len(accounts))
}

// GetAccount returns one account
// GET /v1/accounts/:id
func (h *AccountHandler) GetAccount(c fiber.Ctx) error {
	account, err := h.accounts.GetAccount(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(account)
}

// CreateAccount creates an account whose current balance starts at its opening balance
// POST /v1/accounts
func (h *AccountHandler) CreateAccount(c fiber.Ctx) error {
	var req models.AccountInput
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	account, err := h.accounts.CreateAccount(c.Context(), req)
	if err != nil {
		return err
	}
	return utils.CreatedResponse(c, account)
}

// UpdateAccount replaces the account fields. Changing the opening balance
// shifts the current balance by the same amount.
// PUT /v1/accounts/:id
func (h *AccountHandler) UpdateAccount(c fiber.Ctx) error {
	var req models.AccountInput
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	account, err := h.accounts.UpdateAccount(c.Context(), c.Params("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(account)
}

// DeleteAccount removes an account. Its transactions are kept.
// DELETE /v1/accounts/:id
func (h *AccountHandler) DeleteAccount(c fiber.Ctx) error {
	if err := h.accounts.DeleteAccount(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return utils.NoContent(c)
}
