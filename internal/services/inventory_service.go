package services

import (
	"context"

	"storefront/internal/domain"
	"storefront/internal/repos"
)

const (
	AvailInStock    = "IN_STOCK"
	AvailLowStock   = "LOW_STOCK"
	AvailOutOfStock = "OUT_OF_STOCK"
)

type InventoryService struct {
	Store *repos.Store
}

func NewInventoryService(store *repos.Store) *InventoryService {
	return &InventoryService{Store: store}
}

// GetAvailability returns the current stock of a product.
func (s *InventoryService) GetAvailability(ctx context.Context, productID string) (int, error) {
	return s.Store.Inventory.Qty(ctx, productID)
}

// CheckAvailability converts qty → IN_STOCK / LOW_STOCK / OUT_OF_STOCK.
func (s *InventoryService) CheckAvailability(ctx context.Context, productID string) (domain.Availability, error) {
	qty, err := s.GetAvailability(ctx, productID)
	if err != nil {
		return domain.Availability{}, err
	}
	status := AvailOutOfStock
	switch {
	case qty >= 5:
		status = AvailInStock
	case qty > 0:
		status = AvailLowStock
	}
	return domain.Availability{Status: status, Qty: qty}, nil
}

// DecrementStock removes qty units outside any checkout. Checkout itself
// decrements through the transaction-bound repo.
func (s *InventoryService) DecrementStock(ctx context.Context, productID string, qty int) (int, error) {
	return s.Store.Inventory.Decrement(ctx, productID, qty)
}

func (s *InventoryService) List(ctx context.Context) ([]repos.InventoryRow, error) {
	return s.Store.Inventory.ListAll(ctx)
}

func (s *InventoryService) SetStock(ctx context.Context, productID string, qty int) error {
	return s.Store.Inventory.SetQty(ctx, productID, qty)
}
