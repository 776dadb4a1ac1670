package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

type CartRepo struct{ db DBTX }

func NewCartRepo(db DBTX) *CartRepo { return &CartRepo{db: db} }

type cartRow struct {
	ID        string `db:"id"`
	UserID    string `db:"user_id"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

type lineRow struct {
	ProductID string          `db:"product_id"`
	Name      string          `db:"name"`
	Price     decimal.Decimal `db:"price"`
	Qty       int             `db:"qty"`
}

func (r lineRow) toDomain() domain.Line {
	return domain.Line{ProductID: r.ProductID, Name: r.Name, Price: r.Price, Quantity: r.Qty}
}

// Ensure returns the id of the user's cart, creating an empty one if needed.
// Concurrent first calls for the same user converge on one row.
func (r *CartRepo) Ensure(ctx context.Context, userID string, at time.Time) (string, error) {
	ts := stamp(at)
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO carts(id, user_id, created_at, updated_at)
		VALUES(?, ?, ?, ?)
		ON CONFLICT(user_id) DO NOTHING
	`, uuid.NewString(), userID, ts, ts); err != nil {
		return "", storageErr(err)
	}
	var cartID string
	if err := r.db.GetContext(ctx, &cartID, `SELECT id FROM carts WHERE user_id = ?`, userID); err != nil {
		return "", storageErr(err)
	}
	return cartID, nil
}

// ByUser loads the user's cart with its lines in insertion order.
func (r *CartRepo) ByUser(ctx context.Context, userID string) (domain.Cart, error) {
	var c cartRow
	if err := r.db.GetContext(ctx, &c, `
		SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id = ?
	`, userID); err != nil {
		return domain.Cart{}, notFoundOr(err, "cart")
	}
	rows := []lineRow{}
	if err := r.db.SelectContext(ctx, &rows, `
		SELECT product_id, name, price, qty
		FROM cart_items
		WHERE cart_id = ?
		ORDER BY position
	`, c.ID); err != nil {
		return domain.Cart{}, storageErr(err)
	}
	items := make([]domain.Line, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toDomain())
	}
	return domain.Cart{
		ID:        c.ID,
		UserID:    c.UserID,
		Items:     items,
		CreatedAt: parseStamp(c.CreatedAt),
		UpdatedAt: parseStamp(c.UpdatedAt),
	}, nil
}

// UpsertLine appends a line or, when the product is already in the cart,
// adds to its quantity. The existing name/price snapshot is kept.
func (r *CartRepo) UpsertLine(ctx context.Context, cartID string, l domain.Line, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cart_items(cart_id, product_id, position, name, price, qty, created_at)
		VALUES(?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM cart_items WHERE cart_id = ?), ?, ?, ?, ?)
		ON CONFLICT(cart_id, product_id) DO UPDATE
		SET qty = cart_items.qty + excluded.qty
	`, cartID, l.ProductID, cartID, l.Name, l.Price.String(), l.Quantity, stamp(at))
	return storageErr(err)
}

func (r *CartRepo) RemoveLine(ctx context.Context, cartID, productID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = ? AND product_id = ?`, cartID, productID)
	return storageErr(err)
}

func (r *CartRepo) ClearLines(ctx context.Context, cartID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = ?`, cartID)
	return storageErr(err)
}

func (r *CartRepo) Touch(ctx context.Context, cartID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE carts SET updated_at = ? WHERE id = ?`, stamp(at), cartID)
	return storageErr(err)
}
