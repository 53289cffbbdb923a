package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egannguyen/salon-shop/backend/internal/entity"
	"github.com/egannguyen/salon-shop/backend/internal/repository/memory"
)

func TestSeedCatalogIsIdempotent(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	require.NoError(t, seedCatalog(ctx, store.Products(), store.Coupons()))
	require.NoError(t, seedCatalog(ctx, store.Products(), store.Coupons()))

	products, err := store.Products().FindAll(ctx, entity.ProductFilter{Limit: 100})
	require.NoError(t, err)
	assert.Len(t, products, len(seedProducts()))

	coupons, err := store.Coupons().List(ctx)
	require.NoError(t, err)
	assert.Len(t, coupons, 4)

	save10, err := store.Coupons().FindByCode(ctx, "save10")
	require.NoError(t, err)
	assert.Equal(t, entity.DiscountPercentage, save10.Type)
	assert.Equal(t, "10", save10.Value.String())
}

func TestSeedProductsHaveUniqueSKUs(t *testing.T) {
	seen := map[string]bool{}
	for _, p := range seedProducts() {
		assert.False(t, seen[p.SKU], "duplicate sku %s", p.SKU)
		seen[p.SKU] = true
		assert.True(t, p.Price.IsPositive(), p.ID)
	}
}
