package handlers

import (
	"github.com/gofiber/fiber/v2"

	"storefront/internal/domain"
	applog "storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"
)

type OrderHandler struct {
	Order *services.OrderService
}

type checkoutRequest struct {
	ShippingAddress domain.ShippingAddress `json:"shippingAddress"`
}

// POST /orders/checkout
func (h *OrderHandler) Checkout(c *fiber.Ctx) error {
	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body", "invalid JSON body")
	}
	o, err := h.Order.Checkout(c.UserContext(), CurrentUser(c).ID, req.ShippingAddress)
	if err != nil {
		return fail(c, "order.place", err, nil)
	}
	applog.Audit(c, "order.place", map[string]any{
		"order_id": o.ID,
		"total":    o.Total.String(),
		"lines":    len(o.Items),
	})
	return c.Status(fiber.StatusCreated).JSON(o)
}

// GET /orders/:id
func (h *OrderHandler) View(c *fiber.Ctx) error {
	oid, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "order", "invalid order id")
	}
	o, err := h.Order.GetForUser(c.UserContext(), CurrentUser(c).ID, oid)
	if err != nil {
		return fail(c, "order.view", err, map[string]any{"order_id": oid})
	}
	return c.JSON(o)
}

// GET /orders
func (h *OrderHandler) History(c *fiber.Ctx) error {
	orders, err := h.Order.ListForUser(c.UserContext(), CurrentUser(c).ID)
	if err != nil {
		return fail(c, "orders.history", err, nil)
	}
	return c.JSON(orders)
}
