package middleware

import (
	"log"

	"github.com/gofiber/fiber/v2"
)

// AdminOnly lets through only the configured admin identity. It must run
// after UserContextMiddleware.
func AdminOnly(adminID string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := UserID(c)
		if adminID == "" || userID != adminID {
			log.Printf("🚫 [ADMIN] %q denied on %s", userID, c.Path())
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "admin only",
			})
		}
		return c.Next()
	}
}
