package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/beezy_gate/internal/models"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/store"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/utils"
)

func AttachJWTLocals() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Locals("user")
		if raw == nil {
			return fiber.ErrUnauthorized
		}

		token, ok := raw.(*jwt.Token)
		if !ok || token == nil {
			return fiber.ErrUnauthorized
		}

		claims, ok := token.Claims.(*utils.Claims)
		if !ok {
			return fiber.ErrUnauthorized
		}

		uid := strings.TrimSpace(claims.UserID)
		role := strings.ToLower(strings.TrimSpace(claims.Role))

		if uid == "" {
			return fiber.ErrUnauthorized
		}

		c.Locals("userId", uid)
		c.Locals("role", role)

		return c.Next()
	}
}

type UserGetter interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// LoadActor loads the session user from the store so gates see the current
// role, not the one baked into the token.
func LoadActor(users UserGetter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, _ := c.Locals("userId").(string)
		id, err := uuid.Parse(raw)
		if err != nil {
			return fiber.ErrUnauthorized
		}

		u, err := users.GetUser(c.UserContext(), id)
		if errors.Is(err, store.ErrNotFound) {
			return fiber.ErrUnauthorized
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load user")
		}
		if !u.IsActive {
			return fiber.NewError(fiber.StatusForbidden, "account is not active")
		}

		c.Locals("actor", u)
		c.Locals("role", string(u.Role))
		return c.Next()
	}
}

// Actor returns the user loaded by LoadActor, or nil.
func Actor(c *fiber.Ctx) *models.User {
	u, _ := c.Locals("actor").(*models.User)
	return u
}
