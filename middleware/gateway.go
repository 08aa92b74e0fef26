// middleware/gateway.go
package middleware

import (
	"crypto/subtle"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// GatewayAuthMiddleware admits only requests carrying the gateway's shared token,
// either as "Bearer <token>" or raw.
func GatewayAuthMiddleware(expectedToken string) fiber.Handler {
	if expectedToken == "" {
		log.Fatal("❌ GAME_SERVICE_TOKEN is not set: gateway requests cannot be authenticated")
	}
	expected := []byte(expectedToken)

	return func(c *fiber.Ctx) error {
		token, ok := gatewayToken(c)
		if !ok {
			log.Printf("🚫 [GATEWAY_AUTH] %s %s without Authorization header", c.Method(), c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "gateway authentication token missing",
			})
		}
		if subtle.ConstantTimeCompare([]byte(token), expected) != 1 {
			log.Printf("❌ [GATEWAY_AUTH] %s %s rejected: token mismatch", c.Method(), c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid gateway authentication token",
			})
		}

		log.Printf("✅ [GATEWAY_AUTH] %s %s accepted", c.Method(), c.Path())
		return c.Next()
	}
}

func gatewayToken(c *fiber.Ctx) (string, bool) {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if header == "" {
		return "", false
	}
	if scheme, rest, found := strings.Cut(header, " "); found && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(rest), true
	}
	return header, true
}
