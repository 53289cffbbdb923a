package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/egannguyen/salon-shop/backend/internal/auth"
	"github.com/egannguyen/salon-shop/backend/internal/entity"
	"github.com/egannguyen/salon-shop/backend/internal/repository"
)

// CartService handles cart operations backed by the cart store.
type CartService struct {
	store    repository.CartStore
	products repository.ProductRepository
}

func NewCartService(store repository.CartStore, products repository.ProductRepository) *CartService {
	return &CartService{store: store, products: products}
}

// Get returns the caller's cart priced against the live catalog.
func (s *CartService) Get(ctx context.Context, id *entity.Identity) (*entity.Cart, error) {
	if err := auth.Authorize(id, auth.CapShop); err != nil {
		return nil, err
	}
	quantities, err := s.store.Get(ctx, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	ids := make([]string, 0, len(quantities))
	for pid := range quantities {
		ids = append(ids, pid)
	}
	products := map[string]entity.Product{}
	if len(ids) > 0 {
		products, err = s.products.FindByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to load cart products: %w", err)
		}
	}
	return entity.NewCart(id.UserID, quantities, products), nil
}

// AddItem adds quantity of a product, merging with what is already in the cart.
func (s *CartService) AddItem(ctx context.Context, id *entity.Identity, productID string, quantity int) (*entity.Cart, error) {
	if err := auth.Authorize(id, auth.CapShop); err != nil {
		return nil, err
	}
	if quantity <= 0 {
		return nil, entity.Invalid("quantity", "quantity must be positive")
	}

	current, err := s.store.Get(ctx, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if err := s.checkAvailable(ctx, productID, current[productID]+quantity); err != nil {
		return nil, err
	}

	if _, err := s.store.Add(ctx, id.UserID, productID, quantity); err != nil {
		return nil, fmt.Errorf("failed to add item to cart: %w", err)
	}
	slog.Info("Item added to cart", "user_id", id.UserID, "product_id", productID, "quantity", quantity)
	return s.Get(ctx, id)
}

// UpdateItem sets the quantity of a product. Zero removes the line.
func (s *CartService) UpdateItem(ctx context.Context, id *entity.Identity, productID string, quantity int) (*entity.Cart, error) {
	if err := auth.Authorize(id, auth.CapShop); err != nil {
		return nil, err
	}
	if quantity < 0 {
		return nil, entity.Invalid("quantity", "quantity cannot be negative")
	}
	if quantity > 0 {
		if err := s.checkAvailable(ctx, productID, quantity); err != nil {
			return nil, err
		}
	}
	if err := s.store.Set(ctx, id.UserID, productID, quantity); err != nil {
		return nil, fmt.Errorf("failed to update cart: %w", err)
	}
	return s.Get(ctx, id)
}

// RemoveItem drops a product from the cart.
func (s *CartService) RemoveItem(ctx context.Context, id *entity.Identity, productID string) (*entity.Cart, error) {
	if err := auth.Authorize(id, auth.CapShop); err != nil {
		return nil, err
	}
	if err := s.store.Remove(ctx, id.UserID, productID); err != nil {
		return nil, fmt.Errorf("failed to remove cart item: %w", err)
	}
	return s.Get(ctx, id)
}

func (s *CartService) checkAvailable(ctx context.Context, productID string, quantity int) error {
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return err
	}
	if !p.IsActive {
		return entity.Invalid("product_id", "product %s is not available", p.Name)
	}
	if p.Stock < quantity {
		return fmt.Errorf("%w: only %d of %s left", entity.ErrInsufficientStock, p.Stock, p.Name)
	}
	return nil
}
