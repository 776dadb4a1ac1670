package handlers

import (
	"errors"
	"maps"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/domain"
	applog "storefront/internal/log"
)

const friendlyError = "Something went wrong. Please try again."

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrInvalidTransition):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

// fail logs err under "<action>.fail" and writes the JSON error body.
// Business errors are shown to the client; anything else is not.
func fail(c *fiber.Ctx, action string, err error, fields map[string]any) error {
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		c.Status(status)
		applog.Error(c, action+".fail", err, fields)
		return c.JSON(fiber.Map{"error": friendlyError})
	}
	f := map[string]any{"error": err.Error()}
	maps.Copy(f, fields)
	c.Status(status)
	applog.Security(c, action+".fail", f)
	return c.JSON(fiber.Map{"error": err.Error()})
}

func badRequest(c *fiber.Ctx, field, msg string) error {
	applog.Security(c, "validation.fail", map[string]any{"field": field})
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

// ErrorHandler is the app-wide fallback for errors returned by handlers and
// middleware. 5xx bodies never carry the underlying error.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		c.Status(status)
		applog.Error(c, "server.error", err, nil)
		return c.JSON(fiber.Map{"error": friendlyError})
	}
	msg := err.Error()
	var fe *fiber.Error
	if errors.As(err, &fe) {
		msg = fe.Message
	}
	return c.Status(status).JSON(fiber.Map{"error": msg})
}
