package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/domain"
	"storefront/internal/metrics"
	"storefront/internal/repos"
	"storefront/internal/services"
)

type env struct {
	store   *repos.Store
	catalog *services.CatalogService
	inv     *services.InventoryService
	cart    *services.CartService
	orders  *services.OrderService
	auth    *services.AuthService
	metrics *metrics.Metrics
}

type fakeFiles struct {
	name string
	data []byte
}

func (f *fakeFiles) StoreFile(data []byte, name string) (string, error) {
	f.name, f.data = name, data
	return "/uploads/fake.png", nil
}

func newEnv(t *testing.T) *env {
	t.Helper()
	return newEnvAt(t, ":memory:")
}

// newEnvAt builds the services over dsn; file databases get a real
// connection pool.
func newEnvAt(t *testing.T, dsn string) *env {
	t.Helper()
	st, err := repos.Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	m := metrics.New()
	auth := services.NewAuthService(st.Users, 30*time.Minute)
	auth.Cost = bcrypt.MinCost
	return &env{
		store:   st,
		catalog: services.NewCatalogService(st, &fakeFiles{}),
		inv:     services.NewInventoryService(st),
		cart:    services.NewCartService(st),
		orders:  services.NewOrderService(st, m),
		auth:    auth,
		metrics: m,
	}
}

func (e *env) product(t *testing.T, name, price string, stock int) domain.Product {
	t.Helper()
	p, err := e.catalog.Create(context.Background(), services.ProductInput{
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Category: "misc",
		Stock:    stock,
	})
	require.NoError(t, err)
	return p
}

func (e *env) stock(t *testing.T, id string) int {
	t.Helper()
	n, err := e.inv.GetAvailability(context.Background(), id)
	require.NoError(t, err)
	return n
}

func address() domain.ShippingAddress {
	return domain.ShippingAddress{
		AddressLine1: "1 Main St",
		City:         "Springfield",
		State:        "IL",
		PostalCode:   "62701",
		Country:      "US",
	}
}
