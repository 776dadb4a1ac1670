package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/domain"
	"storefront/internal/services"
	"storefront/internal/validate"
)

type SearchHandler struct {
	Catalog *services.CatalogService
}

// GET /products?skip&limit&category&search
func (h *SearchHandler) Search(c *fiber.Ctx) error {
	skip, err := queryInt(c, "skip", 0)
	if err != nil {
		return badRequest(c, "skip", "skip must be an integer")
	}
	limit, err := queryInt(c, "limit", validate.DefaultLimit)
	if err != nil {
		return badRequest(c, "limit", "limit must be an integer")
	}
	f := domain.ProductFilter{
		Category: c.Query("category"),
		Search:   strings.TrimSpace(c.Query("search")),
	}
	products, err := h.Catalog.List(c.UserContext(), f, skip, limit)
	if err != nil {
		return fail(c, "product.search", err, map[string]any{"search": f.Search, "category": f.Category})
	}
	return c.JSON(products)
}

// queryInt reads an optional integer query parameter, falling back to def
// only when it is absent.
func queryInt(c *fiber.Ctx, key string, def int) (int, error) {
	raw, ok := c.Queries()[key]
	if !ok {
		return def, nil
	}
	raw = strings.TrimSpace(raw)
	return strconv.Atoi(raw)
}
