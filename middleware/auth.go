// middleware/auth.go
package middleware

import (
	"log"

	"github.com/gofiber/fiber/v2"
)

const (
	LocalUserID      = "user_id"
	LocalDisplayName = "display_name"
)

// UserContextMiddleware extracts the caller identity set by the Gateway.
// Mount it on the /s group only.
func UserContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get("X-User-ID")
		if userID == "" {
			log.Printf("❌ [USER_CTX] X-User-ID required but missing on secured route: %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID, request must come through gateway with auth context",
			})
		}

		displayName := c.Get("X-User-Name")
		if displayName == "" {
			displayName = userID
		}

		c.Locals(LocalUserID, userID)
		c.Locals(LocalDisplayName, displayName)
		return c.Next()
	}
}

// UserID returns the identity stored by UserContextMiddleware.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalUserID).(string)
	return id
}

func DisplayName(c *fiber.Ctx) string {
	name, _ := c.Locals(LocalDisplayName).(string)
	return name
}
