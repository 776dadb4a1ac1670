package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/repos"
	"storefront/internal/validate"
)

// FileStore persists an uploaded file and returns its public path.
type FileStore interface {
	StoreFile(data []byte, originalName string) (string, error)
}

type CatalogService struct {
	Store *repos.Store
	Files FileStore
}

func NewCatalogService(store *repos.Store, files FileStore) *CatalogService {
	return &CatalogService{Store: store, Files: files}
}

// ProductInput is the admin payload for creating a product.
type ProductInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Stock       int             `json:"stock"`
	ImageURL    string          `json:"image_url"`
}

func (s *CatalogService) List(ctx context.Context, f domain.ProductFilter, skip, limit int) ([]domain.Product, error) {
	skip, limit, err := validate.Page(skip, limit)
	if err != nil {
		return nil, err
	}
	f.Category = strings.TrimSpace(f.Category)
	if f.Search != "" {
		q, ok := validate.Q(f.Search)
		if !ok {
			return nil, domain.Invalid("search may contain letters, digits, spaces and ' . _ - (max 50)")
		}
		f.Search = q
	}
	return s.Store.Products.List(ctx, f, skip, limit)
}

func (s *CatalogService) Get(ctx context.Context, id string) (domain.Product, error) {
	return s.Store.Products.Get(ctx, id)
}

func (s *CatalogService) Categories(ctx context.Context) ([]domain.Category, error) {
	return s.Store.Categories.List(ctx)
}

func (s *CatalogService) Create(ctx context.Context, in ProductInput) (domain.Product, error) {
	now := time.Now()
	p := domain.Product{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		Category:    strings.TrimSpace(in.Category),
		Stock:       in.Stock,
		ImageURL:    strings.TrimSpace(in.ImageURL),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := checkProduct(&p); err != nil {
		return domain.Product{}, err
	}
	if err := s.Store.Products.Create(ctx, p); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

// Update applies the non-nil fields of patch and re-validates the result.
func (s *CatalogService) Update(ctx context.Context, id string, patch domain.ProductPatch) (domain.Product, error) {
	var out domain.Product
	err := s.Store.InTx(ctx, func(tx *repos.Tx) error {
		p, err := tx.Products.Get(ctx, id)
		if err != nil {
			return err
		}
		if patch.Name != nil {
			p.Name = *patch.Name
		}
		if patch.Description != nil {
			p.Description = strings.TrimSpace(*patch.Description)
		}
		if patch.Price != nil {
			p.Price = *patch.Price
		}
		if patch.Category != nil {
			p.Category = strings.TrimSpace(*patch.Category)
		}
		if patch.Stock != nil {
			p.Stock = *patch.Stock
		}
		if patch.ImageURL != nil {
			p.ImageURL = strings.TrimSpace(*patch.ImageURL)
		}
		if err := checkProduct(&p); err != nil {
			return err
		}
		p.UpdatedAt = time.Now()
		if err := tx.Products.Save(ctx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	return out, err
}

func (s *CatalogService) Delete(ctx context.Context, id string) error {
	return s.Store.Products.Delete(ctx, id)
}

// UploadImage stores the file and points the product at it. The product is
// checked first so a bad id leaves no file behind.
func (s *CatalogService) UploadImage(ctx context.Context, id string, data []byte, filename string) (domain.Product, error) {
	if _, err := s.Store.Products.Get(ctx, id); err != nil {
		return domain.Product{}, err
	}
	path, err := s.Files.StoreFile(data, filename)
	if err != nil {
		return domain.Product{}, err
	}
	if err := s.SetImage(ctx, id, path); err != nil {
		return domain.Product{}, err
	}
	return s.Store.Products.Get(ctx, id)
}

func (s *CatalogService) SetImage(ctx context.Context, id, path string) error {
	return s.Store.Products.SetImage(ctx, id, path, time.Now())
}

func checkProduct(p *domain.Product) error {
	name, ok := validate.Text(p.Name, 200)
	if !ok {
		return domain.Invalid("name is required (max 200 characters)")
	}
	p.Name = name
	if err := validate.Price(p.Price); err != nil {
		return err
	}
	return validate.Stock(p.Stock)
}
