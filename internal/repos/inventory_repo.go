package repos

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"storefront/internal/domain"
)

// InventoryRepo owns the stock counter on products. Checkout uses it through
// a transaction-bound Tx; the admin inventory page uses it directly.
type InventoryRepo struct{ db DBTX }

func NewInventoryRepo(db DBTX) *InventoryRepo { return &InventoryRepo{db: db} }

// InventoryRow is one line of the admin stock listing.
type InventoryRow struct {
	ProductID string `db:"product_id" json:"product_id"`
	Name      string `db:"name" json:"name"`
	Qty       int    `db:"qty" json:"qty"`
}

// ListAll returns every product's stock ordered by name.
func (r *InventoryRepo) ListAll(ctx context.Context) ([]InventoryRow, error) {
	rows := []InventoryRow{}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id AS product_id, name, stock AS qty
		FROM products
		ORDER BY name, id
	`)
	if err != nil {
		return nil, storageErr(err)
	}
	return rows, nil
}

// Qty returns current stock for a product, or domain.ErrNotFound.
func (r *InventoryRepo) Qty(ctx context.Context, productID string) (int, error) {
	var qty int
	if err := r.db.GetContext(ctx, &qty, `SELECT stock FROM products WHERE id = ?`, productID); err != nil {
		return 0, notFoundOr(err, "product "+productID)
	}
	return qty, nil
}

// Decrement subtracts "by" units in one conditional update and returns the
// new stock. There is no separate read before the write: the WHERE clause
// is the stock check.
func (r *InventoryRepo) Decrement(ctx context.Context, productID string, by int) (int, error) {
	if by < 1 {
		return 0, domain.Invalid("quantity must be at least 1")
	}
	var left int
	err := r.db.GetContext(ctx, &left, `
		UPDATE products
		SET stock = stock - ?, updated_at = ?
		WHERE id = ? AND stock >= ?
		RETURNING stock
	`, by, stamp(time.Now()), productID, by)
	if err == nil {
		return left, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, storageErr(err)
	}
	// Nothing matched: the product is gone or short.
	have, err := r.Qty(ctx, productID)
	if err != nil {
		return 0, err
	}
	return 0, &domain.StockError{ProductID: productID, Requested: by, Available: have}
}

// SetQty overwrites the stock of an existing product.
func (r *InventoryRepo) SetQty(ctx context.Context, productID string, qty int) error {
	if qty < 0 {
		return domain.Invalid("stock must not be negative")
	}
	res, err := r.db.ExecContext(ctx, `UPDATE products SET stock = ?, updated_at = ? WHERE id = ?`,
		qty, stamp(time.Now()), productID)
	return affectedOne(res, err, "product "+productID)
}
