package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/egannguyen/salon-shop/backend/internal/entity"
	"github.com/egannguyen/salon-shop/backend/internal/repository"
)

var (
	demoCustomer = entity.Identity{UserID: "demo-customer", Email: "customer@salon-shop.local", Name: "Demo Customer", Role: entity.RoleCustomer}
	demoAdmin    = entity.Identity{UserID: "demo-admin", Email: "admin@salon-shop.local", Name: "Demo Admin", Role: entity.RoleAdmin}
)

func vnd(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func seedProducts() []entity.Product {
	return []entity.Product{
		{ID: "prod-001", SKU: "HC-ARG-100", Name: "Argan Oil Hair Serum", Description: "Lightweight serum that tames frizz and adds shine without weighing hair down.", Price: vnd(320000), ImageURL: "https://images.unsplash.com/photo-1608248597279-f99d160bfcbc?w=400", Category: "Hair Care", Brand: "Maison Lumière", Stock: 60, IsActive: true, IsFeatured: true, IsBestseller: true},
		{ID: "prod-002", SKU: "HC-KER-250", Name: "Keratin Repair Shampoo", Description: "Sulfate-free shampoo with hydrolysed keratin for colour-treated hair.", Price: vnd(245000), ImageURL: "https://images.unsplash.com/photo-1535585209827-a15fcdbc4c2d?w=400", Category: "Hair Care", Brand: "Maison Lumière", Stock: 120, IsActive: true, IsBestseller: true},
		{ID: "prod-003", SKU: "HC-MSK-200", Name: "Deep Conditioning Mask", Description: "Weekly treatment with shea butter and rice protein.", Price: vnd(390000), ImageURL: "https://images.unsplash.com/photo-1526947425960-945c6e72858f?w=400", Category: "Hair Care", Brand: "Verdant", Stock: 45, IsActive: true, IsNew: true},
		{ID: "prod-004", SKU: "ST-HSP-150", Name: "Heat Protect Spray", Description: "Shields hair up to 230°C for blow-drying and flat irons.", Price: vnd(210000), ImageURL: "https://images.unsplash.com/photo-1571781926291-c477ebfd024b?w=400", Category: "Styling", Brand: "Verdant", Stock: 80, IsActive: true, IsOnSale: true},
		{ID: "prod-005", SKU: "ST-CLY-075", Name: "Matte Styling Clay", Description: "Strong hold, low shine clay for textured looks.", Price: vnd(180000), ImageURL: "https://images.unsplash.com/photo-1597854710175-5ee4f7d6b6a0?w=400", Category: "Styling", Brand: "Barber & Co", Stock: 70, IsActive: true},
		{ID: "prod-006", SKU: "NL-GEL-SET", Name: "Gel Polish Starter Set", Description: "Six long-wear gel colours with base and top coat.", Price: vnd(650000), ImageURL: "https://images.unsplash.com/photo-1604654894610-df63bc536371?w=400", Category: "Nails", Brand: "Petal", Stock: 25, IsActive: true, IsFeatured: true, IsNew: true},
		{ID: "prod-007", SKU: "NL-CUT-015", Name: "Cuticle Oil Pen", Description: "Vitamin E cuticle oil in a travel brush pen.", Price: vnd(95000), ImageURL: "https://images.unsplash.com/photo-1519014816548-bf5fe059798b?w=400", Category: "Nails", Brand: "Petal", Stock: 150, IsActive: true, IsOnSale: true},
		{ID: "prod-008", SKU: "SK-SRM-030", Name: "Vitamin C Brightening Serum", Description: "15% ascorbic acid serum for an even skin tone.", Price: vnd(540000), ImageURL: "https://images.unsplash.com/photo-1620916566398-39f1143ab7be?w=400", Category: "Skin Care", Brand: "Verdant", Stock: 40, IsActive: true, IsBestseller: true},
		{ID: "prod-009", SKU: "TL-DRY-PRO", Name: "Professional Ionic Hair Dryer", Description: "2200W dryer with cold shot and three nozzles.", Price: vnd(1850000), ImageURL: "https://images.unsplash.com/photo-1522338140262-f46f5913618a?w=400", Category: "Tools", Brand: "Barber & Co", Stock: 15, IsActive: true, IsFeatured: true},
		{ID: "prod-010", SKU: "TL-BRS-RND", Name: "Ceramic Round Brush", Description: "Ceramic barrel brush for smooth, voluminous blowouts.", Price: vnd(275000), ImageURL: "https://images.unsplash.com/photo-1590439471364-192aa70c0b53?w=400", Category: "Tools", Brand: "Barber & Co", Stock: 0, IsActive: true},
	}
}

func seedCoupons(now time.Time) []entity.Coupon {
	return []entity.Coupon{
		{Code: "SAVE10", Description: "10% off any order", Type: entity.DiscountPercentage, Value: vnd(10), IsActive: true},
		{
			Code: "WELCOME50K", Description: "50,000 off your first order over 300,000", Type: entity.DiscountFixedAmount,
			Value: vnd(50000), MinOrderAmount: decimal.NewNullDecimal(vnd(300000)), PerUserLimit: 1, IsActive: true,
		},
		{
			Code: "SHIPFREE", Description: "Free shipping this month", Type: entity.DiscountFreeShipping,
			IsActive: true, EndsAt: now.AddDate(0, 1, 0),
		},
		{
			Code: "VIP20", Description: "20% off, up to 200,000, first 100 customers", Type: entity.DiscountPercentage,
			Value: vnd(20), MaxDiscount: decimal.NewNullDecimal(vnd(200000)), UsageLimit: intPtr(100), IsActive: true,
		},
	}
}

func intPtr(n int) *int { return &n }

// seedCatalog inserts demo products and coupons. Products are skipped when the
// catalog is not empty; coupons are created only if their code is unused.
func seedCatalog(ctx context.Context, products repository.ProductRepository, coupons repository.CouponRepository) error {
	if err := products.Seed(ctx, seedProducts()); err != nil {
		return err
	}

	now := time.Now()
	for _, c := range seedCoupons(now) {
		_, err := coupons.FindByCode(ctx, c.Code)
		if err == nil {
			continue
		}
		if !errors.Is(err, entity.ErrNotFound) {
			return fmt.Errorf("failed to look up coupon %s: %w", c.Code, err)
		}
		c.StartsAt = now
		c.CreatedAt = now
		if err := coupons.Create(ctx, &c); err != nil {
			return fmt.Errorf("failed to seed coupon %s: %w", c.Code, err)
		}
	}

	slog.Info("Catalog seeded")
	return nil
}
