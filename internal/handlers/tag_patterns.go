package handlers

import (
	"github.com/gofiber/fiber/v3"

	"github.com/ashmitsharp/moneybook-api/internal/utils"
)

// TagPatternHandler exposes the learned auto-tag patterns. Patterns are
// created by tagging transactions, never directly.
type TagPatternHandler struct {
	patterns TagPatternService
}

func NewTagPatternHandler(patterns TagPatternService) *TagPatternHandler {
	return &TagPatternHandler{patterns: patterns}
}

// ListPatterns returns patterns in the order they are matched
// GET /v1/tag-patterns
func (h *TagPatternHandler) ListPatterns(c fiber.Ctx) error {
	patterns, err := h.patterns.ListPatterns(c.Context())
	if err != nil {
		return err
	}
	return utils.ListResponse(c, "patterns", patterns, len(patterns))
}

// DeletePattern forgets a learned pattern
// DELETE /v1/tag-patterns/:id
func (h *TagPatternHandler) DeletePattern(c fiber.Ctx) error {
	if err := h.patterns.DeletePattern(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return utils.NoContent(c)
}
