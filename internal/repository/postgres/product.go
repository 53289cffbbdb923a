package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/egannguyen/salon-shop/backend/internal/entity"
	"github.com/egannguyen/salon-shop/backend/internal/repository"
)

const productColumns = `id, sku, name, description, price, image_url, category, brand, stock, sold_count,
	is_active, is_featured, is_new, is_bestseller, is_on_sale, created_at`

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new ProductRepository backed by Postgres.
func NewProductRepository(db *sql.DB) repository.ProductRepository {
	return &productRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (entity.Product, error) {
	var p entity.Product
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.Price, &p.ImageURL, &p.Category, &p.Brand,
		&p.Stock, &p.SoldCount, &p.IsActive, &p.IsFeatured, &p.IsNew, &p.IsBestseller, &p.IsOnSale, &p.CreatedAt)
	return p, err
}

func (r *productRepository) FindAll(ctx context.Context, f entity.ProductFilter) ([]entity.Product, error) {
	where := []string{"is_active"}
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Category != "" {
		where = append(where, "LOWER(category) = LOWER("+arg(f.Category)+")")
	}
	if f.Brand != "" {
		where = append(where, "LOWER(brand) = LOWER("+arg(f.Brand)+")")
	}
	if f.Search != "" {
		p := arg("%" + f.Search + "%")
		where = append(where, "(name ILIKE "+p+" OR description ILIKE "+p+")")
	}
	if f.Featured {
		where = append(where, "is_featured")
	}
	if f.OnSale {
		where = append(where, "is_on_sale")
	}
	if f.Bestseller {
		where = append(where, "is_bestseller")
	}

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := "SELECT " + productColumns + " FROM products WHERE " + strings.Join(where, " AND ") +
		" ORDER BY name LIMIT " + arg(limit) + " OFFSET " + arg(max(f.Offset, 0))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *productRepository) FindByID(ctx context.Context, id string) (*entity.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("product %s: %w", id, entity.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query product %s: %w", id, err)
	}
	return &p, nil
}

func (r *productRepository) FindByIDs(ctx context.Context, ids []string) (map[string]entity.Product, error) {
	out := make(map[string]entity.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.db.QueryContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func (r *productRepository) Create(ctx context.Context, p *entity.Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO products ("+productColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)",
		p.ID, p.SKU, p.Name, p.Description, p.Price, p.ImageURL, p.Category, p.Brand, p.Stock, p.SoldCount,
		p.IsActive, p.IsFeatured, p.IsNew, p.IsBestseller, p.IsOnSale, p.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return entity.Invalid("sku", "a product with sku %s already exists", p.SKU)
		}
		return fmt.Errorf("failed to insert product %s: %w", p.ID, err)
	}
	return nil
}

func (r *productRepository) Seed(ctx context.Context, products []entity.Product) error {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&count)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil // already seeded
	}

	for i := range products {
		if err := r.Create(ctx, &products[i]); err != nil {
			return fmt.Errorf("failed to seed product %s: %w", products[i].ID, err)
		}
	}
	return nil
}
