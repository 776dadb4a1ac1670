package handlers

import (
	"io"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/domain"
	applog "storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"
)

type AdminHandler struct {
	Catalog *services.CatalogService
	Orders  *services.OrderService
	Inv     *services.InventoryService
	// MaxUpload caps the image payload read from a multipart upload.
	MaxUpload int64
}

// POST /admin/products
func (h *AdminHandler) CreateProduct(c *fiber.Ctx) error {
	var in services.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "invalid JSON body")
	}
	p, err := h.Catalog.Create(c.UserContext(), in)
	if err != nil {
		return fail(c, "admin.products.create", err, map[string]any{"name": in.Name})
	}
	applog.Audit(c, "admin.products.create", map[string]any{"product_id": p.ID, "stock": p.Stock})
	return c.Status(fiber.StatusCreated).JSON(p)
}

// PUT /admin/products/:id
func (h *AdminHandler) UpdateProduct(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "product", "invalid product id")
	}
	var patch domain.ProductPatch
	if err := c.BodyParser(&patch); err != nil {
		return badRequest(c, "body", "invalid JSON body")
	}
	p, err := h.Catalog.Update(c.UserContext(), id, patch)
	if err != nil {
		return fail(c, "admin.products.update", err, map[string]any{"product_id": id})
	}
	applog.Audit(c, "admin.products.update", map[string]any{"product_id": id})
	return c.JSON(p)
}

// DELETE /admin/products/:id
func (h *AdminHandler) DeleteProduct(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "product", "invalid product id")
	}
	if err := h.Catalog.Delete(c.UserContext(), id); err != nil {
		return fail(c, "admin.products.delete", err, map[string]any{"product_id": id})
	}
	applog.Audit(c, "admin.products.delete", map[string]any{"product_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}

// POST /admin/products/:id/upload-image (multipart field "image")
func (h *AdminHandler) UploadImage(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "product", "invalid product id")
	}
	fh, err := c.FormFile("image")
	if err != nil {
		return badRequest(c, "image", "multipart field \"image\" is required")
	}
	if h.MaxUpload > 0 && fh.Size > h.MaxUpload {
		applog.Security(c, "admin.products.image.too_large", map[string]any{"product_id": id, "size": fh.Size})
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{"error": "image too large"})
	}
	f, err := fh.Open()
	if err != nil {
		return fail(c, "admin.products.image", err, map[string]any{"product_id": id})
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return fail(c, "admin.products.image", err, map[string]any{"product_id": id})
	}

	p, err := h.Catalog.UploadImage(c.UserContext(), id, data, fh.Filename)
	if err != nil {
		return fail(c, "admin.products.image", err, map[string]any{"product_id": id, "filename": fh.Filename})
	}
	applog.Audit(c, "admin.products.image", map[string]any{"product_id": id, "path": p.ImageURL})
	return c.JSON(p)
}

// GET /admin/orders
func (h *AdminHandler) OrdersPage(c *fiber.Ctx) error {
	ords, err := h.Orders.ListAll(c.UserContext())
	if err != nil {
		return fail(c, "admin.orders.list", err, nil)
	}
	return c.JSON(ords)
}

type statusRequest struct {
	Status string `json:"status"`
}

// PUT /admin/orders/:id/status
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "order", "invalid order id")
	}
	var req statusRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body", "invalid JSON body")
	}
	o, err := h.Orders.UpdateStatus(c.UserContext(), id, req.Status)
	if err != nil {
		return fail(c, "admin.orders.update", err, map[string]any{"order_id": id, "status": req.Status})
	}
	applog.Audit(c, "admin.orders.update", map[string]any{"order_id": id, "status": string(o.Status)})
	return c.JSON(o)
}

// GET /admin/inventory
func (h *AdminHandler) Inventory(c *fiber.Ctx) error {
	rows, err := h.Inv.List(c.UserContext())
	if err != nil {
		return fail(c, "admin.inventory.list", err, nil)
	}
	return c.JSON(rows)
}

type inventoryRequest struct {
	Qty *int `json:"qty"`
}

// PUT /admin/inventory/:productId
func (h *AdminHandler) UpdateInventory(c *fiber.Ctx) error {
	pid, ok := validate.ID(c.Params("productId"))
	if !ok {
		return badRequest(c, "product", "invalid product id")
	}
	var req inventoryRequest
	if err := c.BodyParser(&req); err != nil || req.Qty == nil {
		return badRequest(c, "qty", "qty is required")
	}
	if err := h.Inv.SetStock(c.UserContext(), pid, *req.Qty); err != nil {
		return fail(c, "admin.inventory.save", err, map[string]any{"product": pid, "qty": *req.Qty})
	}
	applog.Audit(c, "admin.inventory.save", map[string]any{"product": pid, "qty": *req.Qty})
	return c.JSON(fiber.Map{"product_id": pid, "qty": *req.Qty})
}
