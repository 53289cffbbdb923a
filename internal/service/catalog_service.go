package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/egannguyen/salon-shop/backend/internal/auth"
	"github.com/egannguyen/salon-shop/backend/internal/entity"
	"github.com/egannguyen/salon-shop/backend/internal/repository"
)

// CatalogService serves the product catalog.
type CatalogService struct {
	repo repository.ProductRepository
}

func NewCatalogService(repo repository.ProductRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

func (s *CatalogService) List(ctx context.Context, filter entity.ProductFilter) ([]entity.Product, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.repo.FindAll(ctx, filter)
}

// Get returns an active product. Inactive products are hidden from shoppers.
func (s *CatalogService) Get(ctx context.Context, id string) (*entity.Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, entity.ErrNotFound
	}
	return p, nil
}

// Create adds a product to the catalog.
func (s *CatalogService) Create(ctx context.Context, id *entity.Identity, p *entity.Product) error {
	if err := auth.Authorize(id, auth.CapManageCatalog); err != nil {
		return err
	}
	p.Name = strings.TrimSpace(p.Name)
	p.SKU = strings.ToUpper(strings.TrimSpace(p.SKU))
	switch {
	case p.Name == "":
		return entity.Invalid("name", "name is required")
	case p.SKU == "":
		return entity.Invalid("sku", "sku is required")
	case !p.Price.IsPositive():
		return entity.Invalid("price", "price must be positive")
	case p.Stock < 0:
		return entity.Invalid("stock", "stock cannot be negative")
	}

	p.ID = uuid.New().String()
	p.SoldCount = 0
	p.CreatedAt = time.Now()
	if err := s.repo.Create(ctx, p); err != nil {
		return err
	}
	slog.Info("Product created", "product_id", p.ID, "sku", p.SKU, "by", id.UserID)
	return nil
}
