package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/beezy_gate/internal/utils"
)

// JWTFromCookie reads the session token from the cookie, falling back to a
// bearer header for non-browser clients.
func JWTFromCookie(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := c.Cookies(utils.SessionCookie)
		if tokenStr == "" {
			if h := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
				tokenStr = strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
			}
		}
		if tokenStr == "" {
			return fiber.ErrUnauthorized
		}

		token, _, err := utils.ParseJWT(secret, tokenStr)
		if err != nil {
			return fiber.ErrUnauthorized
		}

		c.Locals("user", token)
		return c.Next()
	}
}
