package handlers

import (
	"storefront/internal/config"
	"storefront/internal/metrics"
	"storefront/internal/repos"
	"storefront/internal/services"
)

type Deps struct {
	Auth    *services.AuthService
	Metrics *metrics.Metrics

	UploadDir   string
	CORSOrigins string
	BodyLimit   int
	// LoginAttempts is the per-IP login budget every 10 minutes.
	LoginAttempts int

	AuthHandler      *AuthHandler
	CategoryHandler  *CategoryHandler
	ProductHandler   *ProductHandler
	InventoryHandler *InventoryHandler
	SearchHandler    *SearchHandler
	CartHandler      *CartHandler
	OrderHandler     *OrderHandler
	AdminHandler     *AdminHandler
}

func NewDeps(store *repos.Store, cfg config.Config, auth *services.AuthService, files services.FileStore, m *metrics.Metrics) *Deps {
	catalogSvc := services.NewCatalogService(store, files)
	invSvc := services.NewInventoryService(store)
	cartSvc := services.NewCartService(store)
	orderSvc := services.NewOrderService(store, m)

	return &Deps{
		Auth:          auth,
		Metrics:       m,
		UploadDir:     cfg.UploadDir,
		CORSOrigins:   cfg.CORSOrigins,
		BodyLimit:     cfg.MaxUploadBytes + 1<<20,
		LoginAttempts: 5,

		AuthHandler:      &AuthHandler{Auth: auth},
		CategoryHandler:  &CategoryHandler{Catalog: catalogSvc},
		ProductHandler:   &ProductHandler{Catalog: catalogSvc},
		InventoryHandler: &InventoryHandler{Inv: invSvc},
		SearchHandler:    &SearchHandler{Catalog: catalogSvc},
		CartHandler:      &CartHandler{Cart: cartSvc},
		OrderHandler:     &OrderHandler{Order: orderSvc},
		AdminHandler: &AdminHandler{
			Catalog:   catalogSvc,
			Orders:    orderSvc,
			Inv:       invSvc,
			MaxUpload: int64(cfg.MaxUploadBytes),
		},
	}
}
