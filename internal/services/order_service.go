package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/domain"
	"storefront/internal/metrics"
	"storefront/internal/repos"
	"storefront/internal/validate"
)

var tracer = otel.Tracer("storefront/services")

type OrderService struct {
	Store   *repos.Store
	Metrics *metrics.Metrics
}

func NewOrderService(store *repos.Store, m *metrics.Metrics) *OrderService {
	return &OrderService{Store: store, Metrics: m}
}

// Checkout turns the user's cart into a pending order. Stock decrements,
// the order insert and the cart clear commit together or not at all.
func (s *OrderService) Checkout(ctx context.Context, userID string, addr domain.ShippingAddress) (order domain.Order, err error) {
	ctx, span := tracer.Start(ctx, "order.checkout", trace.WithAttributes(attribute.String("user.id", userID)))
	units := 0
	defer func() {
		endSpan(span, err)
		s.Metrics.ObserveCheckout(err, units)
	}()

	addr, err = validate.ShippingAddress(addr)
	if err != nil {
		return domain.Order{}, err
	}

	err = s.Store.InTx(ctx, func(tx *repos.Tx) error {
		cart, err := tx.Carts.ByUser(ctx, userID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrEmptyCart
		}
		if err != nil {
			return err
		}
		if len(cart.Items) == 0 {
			return domain.ErrEmptyCart
		}

		for _, l := range cart.Items {
			if _, err := tx.Inventory.Decrement(ctx, l.ProductID, l.Quantity); err != nil {
				return stockFailure(err, l)
			}
		}

		now := time.Now()
		items := make([]domain.Line, len(cart.Items))
		copy(items, cart.Items)
		order = domain.Order{
			ID:              uuid.NewString(),
			UserID:          userID,
			Items:           items,
			Total:           domain.LinesTotal(items),
			Status:          domain.StatusPending,
			ShippingAddress: addr,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := tx.Orders.Create(ctx, order); err != nil {
			return err
		}
		if err := tx.Carts.ClearLines(ctx, cart.ID); err != nil {
			return err
		}
		return tx.Carts.Touch(ctx, cart.ID, now)
	})
	if err != nil {
		return domain.Order{}, err
	}
	for _, l := range order.Items {
		units += l.Quantity
	}
	span.SetAttributes(attribute.String("order.id", order.ID), attribute.Int("order.lines", len(order.Items)))
	return order, nil
}

// stockFailure names the line's product on a stock error. A product deleted
// since it was added to the cart counts as out of stock.
func stockFailure(err error, l domain.Line) error {
	var se *domain.StockError
	switch {
	case errors.As(err, &se):
		se.Name = l.Name
		return se
	case errors.Is(err, domain.ErrNotFound):
		return &domain.StockError{ProductID: l.ProductID, Name: l.Name, Requested: l.Quantity}
	default:
		return err
	}
}

func (s *OrderService) ListForUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.Store.Orders.ListByUser(ctx, userID)
}

// GetForUser hides other users' orders behind ErrNotFound.
func (s *OrderService) GetForUser(ctx context.Context, userID, orderID string) (domain.Order, error) {
	o, err := s.Store.Orders.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if o.UserID != userID {
		return domain.Order{}, fmt.Errorf("order %s: %w", orderID, domain.ErrNotFound)
	}
	return o, nil
}

func (s *OrderService) ListAll(ctx context.Context) ([]domain.Order, error) {
	return s.Store.Orders.ListLatest(ctx, 0)
}

// UpdateStatus moves an order along the status machine. The write is
// conditional on the status read in the same transaction.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID, status string) (order domain.Order, err error) {
	ctx, span := tracer.Start(ctx, "order.update_status", trace.WithAttributes(
		attribute.String("order.id", orderID),
		attribute.String("order.status.requested", status),
	))
	defer func() { endSpan(span, err) }()

	next, ok := domain.ParseOrderStatus(status)
	if !ok {
		return domain.Order{}, domain.Invalid("unknown order status %q", status)
	}

	err = s.Store.InTx(ctx, func(tx *repos.Tx) error {
		o, err := tx.Orders.Get(ctx, orderID)
		if err != nil {
			return err
		}
		if !o.Status.CanTransitionTo(next) {
			return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, o.Status, next)
		}
		now := time.Now()
		changed, err := tx.Orders.UpdateStatus(ctx, o.ID, o.Status, next, now)
		if err != nil {
			return err
		}
		if !changed {
			return fmt.Errorf("%w: order %s changed concurrently", domain.ErrInvalidTransition, o.ID)
		}
		o.Status = next
		o.UpdatedAt = now
		order = o
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	s.Metrics.ObserveStatusChange(next)
	return order, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
