package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

type OrderRepo struct{ db DBTX }

func NewOrderRepo(db DBTX) *OrderRepo { return &OrderRepo{db: db} }

type orderRow struct {
	ID         string          `db:"id"`
	UserID     string          `db:"user_id"`
	Total      decimal.Decimal `db:"total"`
	Status     string          `db:"status"`
	Line1      string          `db:"ship_line1"`
	Line2      string          `db:"ship_line2"`
	City       string          `db:"ship_city"`
	State      string          `db:"ship_state"`
	PostalCode string          `db:"ship_postal_code"`
	Country    string          `db:"ship_country"`
	CreatedAt  string          `db:"created_at"`
	UpdatedAt  string          `db:"updated_at"`
}

func (r orderRow) toDomain(items []domain.Line) domain.Order {
	if items == nil {
		items = []domain.Line{}
	}
	return domain.Order{
		ID:     r.ID,
		UserID: r.UserID,
		Items:  items,
		Total:  r.Total,
		Status: domain.OrderStatus(r.Status),
		ShippingAddress: domain.ShippingAddress{
			AddressLine1: r.Line1,
			AddressLine2: r.Line2,
			City:         r.City,
			State:        r.State,
			PostalCode:   r.PostalCode,
			Country:      r.Country,
		},
		CreatedAt: parseStamp(r.CreatedAt),
		UpdatedAt: parseStamp(r.UpdatedAt),
	}
}

type orderItemRow struct {
	OrderID   string          `db:"order_id"`
	ProductID string          `db:"product_id"`
	Name      string          `db:"name"`
	Price     decimal.Decimal `db:"price"`
	Qty       int             `db:"qty"`
}

const orderColumns = `id, user_id, total, status, ship_line1, ship_line2, ship_city, ship_state,
	ship_postal_code, ship_country, created_at, updated_at`

// Create inserts the order header and its lines.
func (r *OrderRepo) Create(ctx context.Context, o domain.Order) error {
	a := o.ShippingAddress
	if _, err := r.db.ExecContext(ctx, `
	  INSERT INTO orders(`+orderColumns+`)
	  VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, o.ID, o.UserID, o.Total.String(), string(o.Status),
		a.AddressLine1, a.AddressLine2, a.City, a.State, a.PostalCode, a.Country,
		stamp(o.CreatedAt), stamp(o.UpdatedAt)); err != nil {
		return storageErr(err)
	}
	for i, it := range o.Items {
		if _, err := r.db.ExecContext(ctx, `
		  INSERT INTO order_items(order_id, line_no, product_id, name, price, qty)
		  VALUES(?, ?, ?, ?, ?, ?)
		`, o.ID, i+1, it.ProductID, it.Name, it.Price.String(), it.Quantity); err != nil {
			return storageErr(err)
		}
	}
	return nil
}

func (r *OrderRepo) Get(ctx context.Context, id string) (domain.Order, error) {
	var row orderRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id); err != nil {
		return domain.Order{}, notFoundOr(err, "order "+id)
	}
	out, err := r.withItems(ctx, []orderRow{row})
	if err != nil {
		return domain.Order{}, err
	}
	return out[0], nil
}

// ListByUser returns a user's orders, newest first.
func (r *OrderRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	var rows []orderRow
	if err := r.db.SelectContext(ctx, &rows, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
	`, userID); err != nil {
		return nil, storageErr(err)
	}
	return r.withItems(ctx, rows)
}

// ListLatest returns all orders, newest first. limit <= 0 means no limit.
func (r *OrderRepo) ListLatest(ctx context.Context, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = -1
	}
	var rows []orderRow
	if err := r.db.SelectContext(ctx, &rows, `
		SELECT `+orderColumns+`
		FROM orders
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit); err != nil {
		return nil, storageErr(err)
	}
	return r.withItems(ctx, rows)
}

// UpdateStatus moves an order from one status to another. It reports false
// when the order is no longer in the expected status.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = ?, updated_at = ? WHERE id = ? AND status = ?
	`, string(to), stamp(at), id, string(from))
	if err != nil {
		return false, storageErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storageErr(err)
	}
	return n == 1, nil
}

func (r *OrderRepo) withItems(ctx context.Context, rows []orderRow) ([]domain.Order, error) {
	out := make([]domain.Order, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	query, args, err := sqlx.In(`
		SELECT order_id, product_id, name, price, qty
		FROM order_items
		WHERE order_id IN (?)
		ORDER BY order_id, line_no
	`, ids)
	if err != nil {
		return nil, storageErr(err)
	}
	var items []orderItemRow
	if err := r.db.SelectContext(ctx, &items, r.db.Rebind(query), args...); err != nil {
		return nil, storageErr(err)
	}
	byOrder := make(map[string][]domain.Line, len(rows))
	for _, it := range items {
		byOrder[it.OrderID] = append(byOrder[it.OrderID], domain.Line{
			ProductID: it.ProductID, Name: it.Name, Price: it.Price, Quantity: it.Qty,
		})
	}
	for _, row := range rows {
		out = append(out, row.toDomain(byOrder[row.ID]))
	}
	return out, nil
}
