package utils

import "github.com/gofiber/fiber/v3"

// ListResponse sends a collection under key together with its count
func ListResponse(c fiber.Ctx, key string, items any, count int) error {
	return c.JSON(fiber.Map{
		key:     items,
		"count": count,
	})
}

// CreatedResponse sends data with 201 Created
func CreatedResponse(c fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(data)
}

// NoContent sends an empty 204 response
func NoContent(c fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}
