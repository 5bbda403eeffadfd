package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// orgFromContext reads the organization scoping set by RequireAuth.
func orgFromContext(c *fiber.Ctx) (uuid.UUID, error) {
	raw, ok := c.Locals("org_id").(string)
	if !ok {
		return uuid.Nil, fiber.NewError(401, "Unauthorized")
	}
	return uuid.Parse(raw)
}

func userIDFromContext(c *fiber.Ctx) string {
	if id, ok := c.Locals("user_id").(string); ok {
		return id
	}
	return ""
}
