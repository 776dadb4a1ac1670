package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/domain"
	applog "storefront/internal/log"
	"storefront/internal/services"
)

const userKey = "user"

func bearerToken(c *fiber.Ctx) string {
	h := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// CurrentUser returns the user put in Locals by RequireUser/RequireAdmin.
func CurrentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals(userKey).(*domain.User)
	return u
}

func denyAuth(c *fiber.Ctx, err error) error {
	if errors.Is(err, domain.ErrUnauthorized) {
		applog.Security(c, "auth.required", nil)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
	}
	return fail(c, "auth.session", err, nil)
}

// RequireUser enforces a valid bearer token.
func RequireUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := auth.Authenticate(c.UserContext(), bearerToken(c))
		if err != nil {
			return denyAuth(c, err)
		}
		c.Locals(userKey, u)
		return c.Next()
	}
}

func RequireAdmin(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := auth.Authenticate(c.UserContext(), bearerToken(c))
		if err != nil {
			return denyAuth(c, err)
		}
		c.Locals(userKey, u)
		if !u.IsAdmin() {
			applog.Security(c, "access.denied.admin", nil)
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "admin access required"})
		}
		return c.Next()
	}
}
