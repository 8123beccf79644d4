package handlers

import (
	"github.com/gofiber/fiber/v3"

	"github.com/ashmitsharp/moneybook-api/internal/models"
	"github.com/ashmitsharp/moneybook-api/internal/utils"
)

// LoanHandler handles money lent and borrowed
type LoanHandler struct {
	loans LoanService
}

func NewLoanHandler(loans LoanService) *LoanHandler {
	return &LoanHandler{loans: loans}
}

// ListLoans returns all loans, optionally filtered by loan_type
// GET /v1/loans?loan_type=given
func (h *LoanHandler) ListLoans(c fiber.Ctx) error {
	loans, err := h.loans.ListLoans(c.Context(), models.LoanType(c.Query("loan_type")))
	if err != nil {
		return err
	}
	return utils.ListResponse(c, "loans", loans, len(loans))
}

// GET /v1/loans/:id
func (h *LoanHandler) GetLoan(c fiber.Ctx) error {
	loan, err := h.loans.GetLoan(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(loan)
}

// CreateLoan creates the loan and its tracking account
// POST /v1/loans
func (h *LoanHandler) CreateLoan(c fiber.Ctx) error {
	var req models.LoanInput
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	loan, err := h.loans.CreateLoan(c.Context(), req)
	if err != nil {
		return err
	}
	return utils.CreatedResponse(c, loan)
}

// UpdateLoan applies a partial update
// PATCH /v1/loans/:id
func (h *LoanHandler) UpdateLoan(c fiber.Ctx) error {
	var req models.LoanPatch
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	loan, err := h.loans.UpdateLoan(c.Context(), c.Params("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(loan)
}

// DeleteLoan removes the loan and its tracking account
// DELETE /v1/loans/:id
func (h *LoanHandler) DeleteLoan(c fiber.Ctx) error {
	if err := h.loans.DeleteLoan(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return utils.NoContent(c)
}

// GetInterest returns the simple-interest position of the loan
// GET /v1/loans/:id/interest?as_of=2024-06-30
func (h *LoanHandler) GetInterest(c fiber.Ctx) error {
	breakdown, err := h.loans.CalculateLoanInterest(c.Context(), c.Params("id"), c.Query("as_of"))
	if err != nil {
		return err
	}
	return c.JSON(breakdown)
}
