package repos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

type ProductRepo struct{ db DBTX }

func NewProductRepo(db DBTX) *ProductRepo { return &ProductRepo{db: db} }

type productRow struct {
	ID          string          `db:"id"`
	Name        string          `db:"name"`
	Description string          `db:"description"`
	Price       decimal.Decimal `db:"price"`
	Category    string          `db:"category"`
	Stock       int             `db:"stock"`
	ImageURL    string          `db:"image_url"`
	CreatedAt   string          `db:"created_at"`
	UpdatedAt   string          `db:"updated_at"`
}

func (r productRow) toDomain() domain.Product {
	return domain.Product{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Category:    r.Category,
		Stock:       r.Stock,
		ImageURL:    r.ImageURL,
		CreatedAt:   parseStamp(r.CreatedAt),
		UpdatedAt:   parseStamp(r.UpdatedAt),
	}
}

const productColumns = `id, name, description, price, category, stock, image_url, created_at, updated_at`

func (r *ProductRepo) Create(ctx context.Context, p domain.Product) error {
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO products(`+productColumns+`)
	  VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.Description, p.Price.String(), p.Category, p.Stock, p.ImageURL,
		stamp(p.CreatedAt), stamp(p.UpdatedAt))
	if isUniqueViolation(err) {
		return fmt.Errorf("product %s: %w", p.ID, domain.ErrConflict)
	}
	return storageErr(err)
}

func (r *ProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	var row productRow
	err := r.db.GetContext(ctx, &row, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	if err != nil {
		return domain.Product{}, notFoundOr(err, "product "+id)
	}
	return row.toDomain(), nil
}

// List returns a page of products, newest first. Search is a
// case-insensitive substring match on name or category.
func (r *ProductRepo) List(ctx context.Context, f domain.ProductFilter, skip, limit int) ([]domain.Product, error) {
	where := `1 = 1`
	args := []any{}
	if f.Category != "" {
		where += ` AND category = ?`
		args = append(args, f.Category)
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		pat := "%" + escapeLike(q) + "%"
		where += ` AND (LOWER(name) LIKE ? ESCAPE '\' OR LOWER(category) LIKE ? ESCAPE '\')`
		args = append(args, pat, pat)
	}
	query := `
	  SELECT ` + productColumns + `
	  FROM products
	  WHERE ` + where + `
	  ORDER BY created_at DESC, rowid DESC
	  LIMIT ? OFFSET ?`
	args = append(args, limit, skip)

	var rows []productRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, storageErr(err)
	}
	out := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// Save overwrites the mutable fields of an existing product.
func (r *ProductRepo) Save(ctx context.Context, p domain.Product) error {
	res, err := r.db.ExecContext(ctx, `
	  UPDATE products
	  SET name = ?, description = ?, price = ?, category = ?, stock = ?, image_url = ?, updated_at = ?
	  WHERE id = ?
	`, p.Name, p.Description, p.Price.String(), p.Category, p.Stock, p.ImageURL, stamp(p.UpdatedAt), p.ID)
	return affectedOne(res, err, "product "+p.ID)
}

func (r *ProductRepo) SetImage(ctx context.Context, id, path string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE products SET image_url = ?, updated_at = ? WHERE id = ?`,
		path, stamp(at), id)
	return affectedOne(res, err, "product "+id)
}

func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	return affectedOne(res, err, "product "+id)
}

func affectedOne(res sql.Result, err error, what string) error {
	if err != nil {
		return storageErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr(err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return nil
}
