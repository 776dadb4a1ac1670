package services_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
	"storefront/internal/services"
	"storefront/internal/validate"
)

func TestCatalog_CreateValidation(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	_, err := e.catalog.Create(ctx, services.ProductInput{Name: "  ", Price: decimal.NewFromInt(1)})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = e.catalog.Create(ctx, services.ProductInput{Name: "x", Price: decimal.NewFromInt(-1)})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = e.catalog.Create(ctx, services.ProductInput{Name: "x", Stock: -1})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	p, err := e.catalog.Create(ctx, services.ProductInput{Name: " Lamp ", Price: decimal.RequireFromString("9.99"), Category: "home"})
	require.NoError(t, err)
	require.Equal(t, "Lamp", p.Name)

	got, err := e.catalog.Get(ctx, p.ID)
	require.NoError(t, err)
	require.True(t, got.Price.Equal(p.Price))
}

func TestCatalog_ListBounds(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	for i := 0; i < 12; i++ {
		e.product(t, "Item", "1.00", 1)
	}

	page, err := e.catalog.List(ctx, domain.ProductFilter{}, 0, validate.DefaultLimit)
	require.NoError(t, err)
	require.Len(t, page, 10)

	page, err = e.catalog.List(ctx, domain.ProductFilter{}, 10, 100)
	require.NoError(t, err)
	require.Len(t, page, 2)

	for _, tc := range []struct{ skip, limit int }{{-1, 10}, {0, 101}, {0, -5}, {0, 0}} {
		_, err = e.catalog.List(ctx, domain.ProductFilter{}, tc.skip, tc.limit)
		require.ErrorIs(t, err, domain.ErrInvalidInput, "skip=%d limit=%d", tc.skip, tc.limit)
	}

	_, err = e.catalog.List(ctx, domain.ProductFilter{Search: "<script>"}, 0, 10)
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	cats, err := e.catalog.Categories(ctx)
	require.NoError(t, err)
	require.Equal(t, []domain.Category{{Name: "misc", Products: 12}}, cats)
}

func TestCatalog_PartialUpdate(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	p := e.product(t, "Lamp", "10.00", 4)

	stock := 7
	got, err := e.catalog.Update(ctx, p.ID, domain.ProductPatch{Stock: &stock})
	require.NoError(t, err)
	require.Equal(t, 7, got.Stock)
	require.Equal(t, "Lamp", got.Name)
	require.True(t, got.Price.Equal(p.Price))

	neg := decimal.NewFromInt(-2)
	_, err = e.catalog.Update(ctx, p.ID, domain.ProductPatch{Price: &neg})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	empty := ""
	_, err = e.catalog.Update(ctx, p.ID, domain.ProductPatch{Name: &empty})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = e.catalog.Update(ctx, "missing", domain.ProductPatch{Stock: &stock})
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.Equal(t, 7, e.stock(t, p.ID))
}

func TestCatalog_UploadImage(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	files := &fakeFiles{}
	e.catalog.Files = files
	p := e.product(t, "Lamp", "10.00", 4)

	got, err := e.catalog.UploadImage(ctx, p.ID, []byte("img"), "lamp.png")
	require.NoError(t, err)
	require.Equal(t, "/uploads/fake.png", got.ImageURL)
	require.Equal(t, "lamp.png", files.name)

	files.name = ""
	_, err = e.catalog.UploadImage(ctx, "missing", []byte("img"), "x.png")
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.Empty(t, files.name, "nothing stored for unknown product")
}

func TestInventory_Availability(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	cases := []struct {
		stock  int
		status string
	}{
		{6, services.AvailInStock},
		{5, services.AvailInStock},
		{4, services.AvailLowStock},
		{1, services.AvailLowStock},
		{0, services.AvailOutOfStock},
	}
	for _, tc := range cases {
		p := e.product(t, "Item", "1.00", tc.stock)
		a, err := e.inv.CheckAvailability(ctx, p.ID)
		require.NoError(t, err)
		require.Equal(t, tc.status, a.Status, "stock %d", tc.stock)
		require.Equal(t, tc.stock, a.Qty)
	}

	_, err := e.inv.CheckAvailability(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)

	p := e.product(t, "Item", "1.00", 3)
	left, err := e.inv.DecrementStock(ctx, p.ID, 3)
	require.NoError(t, err)
	require.Equal(t, 0, left)
	_, err = e.inv.DecrementStock(ctx, p.ID, 1)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	rows, err := e.inv.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, len(cases)+1)
}
