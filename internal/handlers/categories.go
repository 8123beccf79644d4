package handlers

import (
	"github.com/gofiber/fiber/v3"

	"github.com/ashmitsharp/moneybook-api/internal/models"
	"github.com/ashmitsharp/moneybook-api/internal/utils"
)

// CategoryHandler handles the category tree
type CategoryHandler struct {
	categories CategoryService
}

func NewCategoryHandler(categories CategoryService) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

// ListCategories returns all categories, optionally filtered by type
// GET /v1/categories?type=expense
func (h *CategoryHandler) ListCategories(c fiber.Ctx) error {
	categories, err := h.categories.ListCategories(c.Context(), models.CategoryType(c.Query("type")))
	if err != nil {
		return err
	}
	return utils.ListResponse(c, "categories", categories, len(categories))
}

// GET /v1/categories/:id
func (h *CategoryHandler) GetCategory(c fiber.Ctx) error {
	category, err := h.categories.GetCategory(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(category)
}

// POST /v1/categories
func (h *CategoryHandler) CreateCategory(c fiber.Ctx) error {
	var req models.CategoryInput
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	category, err := h.categories.CreateCategory(c.Context(), req)
	if err != nil {
		return err
	}
	return utils.CreatedResponse(c, category)
}

// PUT /v1/categories/:id
func (h *CategoryHandler) UpdateCategory(c fiber.Ctx) error {
	var req models.CategoryInput
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	category, err := h.categories.UpdateCategory(c.Context(), c.Params("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(category)
}

// DeleteCategory removes a category and its subcategories
// DELETE /v1/categories/:id
func (h *CategoryHandler) DeleteCategory(c fiber.Ctx) error {
	if err := h.categories.DeleteCategory(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return utils.NoContent(c)
}
