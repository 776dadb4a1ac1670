package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	applog "storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"
)

type CartHandler struct {
	Cart *services.CartService
}

// cartView is the cart plus its computed subtotal.
type cartView struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Items     []domain.Line   `json:"items"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func viewCart(c domain.Cart) cartView {
	items := c.Items
	if items == nil {
		items = []domain.Line{}
	}
	return cartView{
		ID:        c.ID,
		UserID:    c.UserID,
		Items:     items,
		Subtotal:  c.Subtotal(),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

type addToCartRequest struct {
	ProductID string `json:"productId"`
	Quantity  *int   `json:"quantity"`
}

// GET /cart
func (h *CartHandler) View(c *fiber.Ctx) error {
	cart, err := h.Cart.GetOrCreate(c.UserContext(), CurrentUser(c).ID)
	if err != nil {
		return fail(c, "cart.view", err, nil)
	}
	return c.JSON(viewCart(cart))
}

// POST /cart/add
func (h *CartHandler) Add(c *fiber.Ctx) error {
	var req addToCartRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body", "invalid JSON body")
	}
	productID, ok := validate.ID(req.ProductID)
	if !ok {
		return badRequest(c, "productId", "missing or invalid productId")
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	cart, err := h.Cart.AddItem(c.UserContext(), CurrentUser(c).ID, productID, qty)
	if err != nil {
		return fail(c, "cart.add", err, map[string]any{"product_id": productID, "qty": qty})
	}
	applog.Info(c, "cart.add", map[string]any{"product_id": productID, "qty": qty})
	return c.JSON(viewCart(cart))
}

// POST /cart/remove/:productId
func (h *CartHandler) Remove(c *fiber.Ctx) error {
	productID, ok := validate.ID(c.Params("productId"))
	if !ok {
		return badRequest(c, "productId", "invalid productId")
	}
	cart, err := h.Cart.RemoveItem(c.UserContext(), CurrentUser(c).ID, productID)
	if err != nil {
		return fail(c, "cart.remove", err, map[string]any{"product_id": productID})
	}
	applog.Info(c, "cart.remove", map[string]any{"product_id": productID})
	return c.JSON(viewCart(cart))
}

// POST /cart/clear
func (h *CartHandler) Clear(c *fiber.Ctx) error {
	cart, err := h.Cart.Clear(c.UserContext(), CurrentUser(c).ID)
	if err != nil {
		return fail(c, "cart.clear", err, nil)
	}
	applog.Info(c, "cart.clear", nil)
	return c.JSON(viewCart(cart))
}
