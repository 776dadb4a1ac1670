package services

import (
	"context"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repos"
	"storefront/internal/validate"
)

// CartService keeps one cart per user. Adding checks stock but does not
// reserve it; checkout checks again.
type CartService struct {
	Store *repos.Store
}

func NewCartService(store *repos.Store) *CartService {
	return &CartService{Store: store}
}

func (s *CartService) GetOrCreate(ctx context.Context, userID string) (domain.Cart, error) {
	var cart domain.Cart
	err := s.Store.InTx(ctx, func(tx *repos.Tx) error {
		if _, err := tx.Carts.Ensure(ctx, userID, time.Now()); err != nil {
			return err
		}
		c, err := tx.Carts.ByUser(ctx, userID)
		cart = c
		return err
	})
	return cart, err
}

// AddItem merges qty into the product's line, or appends a new line with
// the product's current name and price.
func (s *CartService) AddItem(ctx context.Context, userID, productID string, qty int) (domain.Cart, error) {
	if err := validate.Quantity(qty); err != nil {
		return domain.Cart{}, err
	}
	var cart domain.Cart
	err := s.Store.InTx(ctx, func(tx *repos.Tx) error {
		p, err := tx.Products.Get(ctx, productID)
		if err != nil {
			return err
		}
		if p.Stock < qty {
			return &domain.StockError{ProductID: p.ID, Name: p.Name, Requested: qty, Available: p.Stock}
		}
		now := time.Now()
		cartID, err := tx.Carts.Ensure(ctx, userID, now)
		if err != nil {
			return err
		}
		line := domain.Line{ProductID: p.ID, Name: p.Name, Price: p.Price, Quantity: qty}
		if err := tx.Carts.UpsertLine(ctx, cartID, line, now); err != nil {
			return err
		}
		if err := tx.Carts.Touch(ctx, cartID, now); err != nil {
			return err
		}
		cart, err = tx.Carts.ByUser(ctx, userID)
		return err
	})
	return cart, err
}

// RemoveItem drops the product's line. A product not in the cart is a no-op.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (domain.Cart, error) {
	return s.mutate(ctx, userID, func(tx *repos.Tx, cartID string) error {
		return tx.Carts.RemoveLine(ctx, cartID, productID)
	})
}

func (s *CartService) Clear(ctx context.Context, userID string) (domain.Cart, error) {
	return s.mutate(ctx, userID, func(tx *repos.Tx, cartID string) error {
		return tx.Carts.ClearLines(ctx, cartID)
	})
}

// mutate runs fn against an existing cart and returns the cart afterwards.
func (s *CartService) mutate(ctx context.Context, userID string, fn func(tx *repos.Tx, cartID string) error) (domain.Cart, error) {
	var cart domain.Cart
	err := s.Store.InTx(ctx, func(tx *repos.Tx) error {
		c, err := tx.Carts.ByUser(ctx, userID)
		if err != nil {
			return err
		}
		if err := fn(tx, c.ID); err != nil {
			return err
		}
		if err := tx.Carts.Touch(ctx, c.ID, time.Now()); err != nil {
			return err
		}
		cart, err = tx.Carts.ByUser(ctx, userID)
		return err
	})
	if err != nil {
		return domain.Cart{}, err
	}
	return cart, nil
}
