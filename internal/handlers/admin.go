package handlers

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/ashmitsharp/moneybook-api/internal/utils"
)

// AdminHandler exposes maintenance operations
type AdminHandler struct {
	auditor BalanceAuditor
	seed    func(ctx context.Context) error
}

func NewAdminHandler(auditor BalanceAuditor, seed func(ctx context.Context) error) *AdminHandler {
	return &AdminHandler{auditor: auditor, seed: seed}
}

// AuditBalances recomputes every balance from the transaction log and
// reports drift. With fix=true drifted balances are repaired.
// POST /v1/admin/audit-balances?fix=true
func (h *AdminHandler) AuditBalances(c fiber.Ctx) error {
	fix := false
	if raw := c.Query("fix"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return utils.NewBadRequestError("fix must be a boolean", raw)
		}
		fix = parsed
	}

	drifts, err := h.auditor.AuditBalances(c.Context(), fix)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"drifts":   drifts,
		"count":    len(drifts),
		"repaired": fix,
	})
}

// SeedDefaults creates the default categories and Cash account if missing
// POST /v1/admin/seed-defaults
func (h *AdminHandler) SeedDefaults(c fiber.Ctx) error {
	if h.seed == nil {
		return utils.NewUnavailableError("seeding is not configured")
	}
	if err := h.seed(c.Context()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
