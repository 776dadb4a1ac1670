package handlers

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	applog "storefront/internal/log"
	"storefront/internal/media"
)

// NewApp builds the fiber app with middlewares and every route mounted.
func NewApp(d *Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "storefront",
		ErrorHandler: ErrorHandler,
		BodyLimit:    d.BodyLimit,
	})

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	if d.Metrics != nil {
		app.Use(d.Metrics.Middleware())
	}
	app.Use(applog.Access())
	app.Use(recover.New())
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: d.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	// ---------- Static uploads ----------
	uploadDir := d.UploadDir
	if abs, err := filepath.Abs(uploadDir); err == nil {
		uploadDir = abs
	}
	// Guarded uploads to avoid traversal
	app.Get(media.URLPrefix+"*", func(c *fiber.Ctx) error {
		path := c.Params("*")
		rawLower := strings.ToLower(path)
		if strings.Contains(rawLower, "..") || strings.Contains(rawLower, "%2e") || strings.Contains(rawLower, "\x00") {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		clean := filepath.Clean(path)
		if clean == "." || strings.Contains(clean, "..") || filepath.IsAbs(clean) {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.SendFile(filepath.Join(uploadDir, clean), false)
	})

	// ---------- Auth ----------
	requireUser := RequireUser(d.Auth)
	auth := app.Group("/auth")
	auth.Post("/signup", d.AuthHandler.Signup)
	auth.Post("/login", limiter.New(limiter.Config{
		Max:        d.LoginAttempts,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many attempts, try again later"})
		},
	}), d.AuthHandler.Login)
	auth.Post("/logout", requireUser, d.AuthHandler.Logout)
	auth.Get("/me", requireUser, d.AuthHandler.Me)

	// ---------- Catalog ----------
	app.Get("/products", requireUser, d.SearchHandler.Search)
	app.Get("/products/:id", requireUser, d.ProductHandler.Detail)
	app.Get("/products/:id/availability", requireUser, d.InventoryHandler.Check)
	app.Get("/categories", requireUser, d.CategoryHandler.List)

	// ---------- Cart & Orders ----------
	cart := app.Group("/cart", requireUser)
	cart.Get("/", d.CartHandler.View)
	cart.Post("/add", d.CartHandler.Add)
	cart.Post("/remove/:productId", d.CartHandler.Remove)
	cart.Post("/clear", d.CartHandler.Clear)

	orders := app.Group("/orders", requireUser)
	orders.Get("/", d.OrderHandler.History)
	orders.Post("/checkout", d.OrderHandler.Checkout)
	orders.Get("/:id", d.OrderHandler.View)

	// ---------- Admin ----------
	admin := app.Group("/admin", RequireAdmin(d.Auth))
	admin.Post("/products", d.AdminHandler.CreateProduct)
	admin.Put("/products/:id", d.AdminHandler.UpdateProduct)
	admin.Delete("/products/:id", d.AdminHandler.DeleteProduct)
	admin.Post("/products/:id/upload-image", d.AdminHandler.UploadImage)
	admin.Get("/orders", d.AdminHandler.OrdersPage)
	admin.Put("/orders/:id/status", d.AdminHandler.UpdateOrderStatus)
	admin.Get("/inventory", d.AdminHandler.Inventory)
	admin.Put("/inventory/:productId", d.AdminHandler.UpdateInventory)

	// ---------- Health, metrics & 404 ----------
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	if d.Metrics != nil {
		app.Get("/metrics", d.Metrics.Handler())
	}
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	})
	return app
}
