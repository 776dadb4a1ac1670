package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "storefront/internal/log"
	"storefront/internal/services"
)

type AuthHandler struct {
	Auth *services.AuthService
}

type signupRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /auth/signup
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body", "invalid JSON body")
	}
	u, err := h.Auth.Signup(c.UserContext(), req.Email, req.Name, req.Password)
	if err != nil {
		return fail(c, "auth.signup", err, map[string]any{"email": req.Email})
	}
	applog.Audit(c, "auth.signup", map[string]any{"email": u.Email, "new_user_id": u.ID})
	return c.Status(fiber.StatusCreated).JSON(u)
}

// POST /auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body", "invalid JSON body")
	}
	sess, err := h.Auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return fail(c, "auth.login", err, map[string]any{"email": req.Email})
	}
	c.Locals(userKey, sess.User)
	applog.Audit(c, "auth.login.success", map[string]any{"email": sess.User.Email})
	return c.JSON(sess)
}

// POST /auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.Auth.Logout(c.UserContext(), bearerToken(c)); err != nil {
		return fail(c, "auth.logout", err, nil)
	}
	applog.Audit(c, "auth.logout", nil)
	return c.SendStatus(fiber.StatusNoContent)
}

// GET /auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	return c.JSON(CurrentUser(c))
}
