package handlers

import (
	"storefront/internal/apperrors"

	"github.com/gofiber/fiber/v2"
)

// respondError maps a core error onto the HTTP boundary.
func respondError(c *fiber.Ctx, err error) error {
	status := apperrors.StatusCode(err)
	body := fiber.Map{"message": err.Error()}
	if status == fiber.StatusInternalServerError {
		// Do not leak storage details to clients.
		body["message"] = "internal server error"
	}
	return c.Status(status).JSON(body)
}

// currentUserID reads the authenticated user's id set by the JWT middleware.
func currentUserID(c *fiber.Ctx) string {
	if id, ok := c.Locals("user_id").(string); ok {
		return id
	}
	return ""
}

// isAdmin reports whether the authenticated user carries the admin role.
func isAdmin(c *fiber.Ctx) bool {
	role, _ := c.Locals("role").(string)
	return role == "admin"
}
