package repos

import (
	"context"

	"storefront/internal/domain"
)

// CategoryRepo reads categories derived from the products table.
type CategoryRepo struct{ db DBTX }

func NewCategoryRepo(db DBTX) *CategoryRepo { return &CategoryRepo{db: db} }

func (r *CategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	out := []domain.Category{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT
	    category AS name,
	    COUNT(*) AS products
	  FROM products
	  WHERE category <> ''
	  GROUP BY category
	  ORDER BY category
	`)
	if err != nil {
		return nil, storageErr(err)
	}
	return out, nil
}
