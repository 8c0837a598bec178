package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"gridbase/internal/engine"
)

// Middleware validates the bearer token and stashes the caller's identity on
// the request. Downstream handlers read Locals("userID") only.
func Middleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return engine.UnauthorizedError("Missing auth token")
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return engine.UnauthorizedError("Invalid auth header format")
		}

		claims, err := ParseToken(parts[1], secret)
		if err != nil {
			return engine.UnauthorizedError("Invalid or expired token")
		}

		c.Locals("userID", claims.Subject)
		c.Locals("isAdmin", claims.Admin)
		return c.Next()
	}
}
