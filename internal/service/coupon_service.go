package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/egannguyen/salon-shop/backend/internal/auth"
	"github.com/egannguyen/salon-shop/backend/internal/entity"
	"github.com/egannguyen/salon-shop/backend/internal/pricing"
	"github.com/egannguyen/salon-shop/backend/internal/repository"
)

// CouponPreview is the effect a coupon would have on a subtotal.
type CouponPreview struct {
	Code         string          `json:"code"`
	Type         string          `json:"type"`
	Description  string          `json:"description,omitempty"`
	Discount     decimal.Decimal `json:"discount"`
	FreeShipping bool            `json:"free_shipping"`
}

// CouponService validates and manages promotional codes.
type CouponService struct {
	repo repository.CouponRepository
	now  func() time.Time
}

func NewCouponService(repo repository.CouponRepository) *CouponService {
	return &CouponService{repo: repo, now: time.Now}
}

// Validate previews code against subtotal without consuming a use.
func (s *CouponService) Validate(ctx context.Context, id *entity.Identity, code string, subtotal decimal.Decimal) (*CouponPreview, error) {
	if err := auth.Authorize(id, auth.CapShop); err != nil {
		return nil, err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, entity.Invalid("code", "coupon code is required")
	}
	if subtotal.IsNegative() {
		return nil, entity.Invalid("subtotal", "subtotal cannot be negative")
	}

	c, err := s.repo.FindByCode(ctx, code)
	if errors.Is(err, entity.ErrNotFound) {
		return nil, entity.Invalid("coupon_code", "coupon %s does not exist", strings.ToUpper(code))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load coupon: %w", err)
	}
	if c.PerUserLimit > 0 {
		used, err := s.repo.CountUserUsage(ctx, c.ID, id.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to count coupon usage: %w", err)
		}
		if used >= c.PerUserLimit {
			return nil, entity.Invalid("coupon_code", "coupon %s has already been used", c.Code)
		}
	}

	res, err := pricing.EvaluateCoupon(c, subtotal, s.now())
	if err != nil {
		return nil, err
	}
	return &CouponPreview{
		Code:         c.Code,
		Type:         string(c.Type),
		Description:  c.Description,
		Discount:     res.Discount,
		FreeShipping: res.FreeShipping,
	}, nil
}

// Create registers a new coupon.
func (s *CouponService) Create(ctx context.Context, id *entity.Identity, c *entity.Coupon) error {
	if err := auth.Authorize(id, auth.CapManageCoupons); err != nil {
		return err
	}
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	if err := validateCoupon(c); err != nil {
		return err
	}

	c.ID = uuid.New().String()
	c.UsedCount = 0
	c.CreatedAt = s.now()
	if c.StartsAt.IsZero() {
		c.StartsAt = c.CreatedAt
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return err
	}
	slog.Info("Coupon created", "code", c.Code, "type", c.Type, "by", id.UserID)
	return nil
}

func validateCoupon(c *entity.Coupon) error {
	if c.Code == "" {
		return entity.Invalid("code", "code is required")
	}
	if !c.Type.Valid() {
		return entity.Invalid("type", "unknown discount type %q", c.Type)
	}
	switch c.Type {
	case entity.DiscountPercentage:
		if !c.Value.IsPositive() || c.Value.GreaterThan(decimal.NewFromInt(100)) {
			return entity.Invalid("value", "percentage must be between 0 and 100")
		}
	case entity.DiscountFixedAmount:
		if !c.Value.IsPositive() {
			return entity.Invalid("value", "amount must be positive")
		}
	}
	if c.MaxDiscount.Valid && !c.MaxDiscount.Decimal.IsPositive() {
		return entity.Invalid("max_discount", "max discount must be positive")
	}
	if c.MinOrderAmount.Valid && c.MinOrderAmount.Decimal.IsNegative() {
		return entity.Invalid("min_order_amount", "minimum order amount cannot be negative")
	}
	if c.UsageLimit != nil && *c.UsageLimit <= 0 {
		return entity.Invalid("usage_limit", "usage limit must be positive")
	}
	if c.PerUserLimit < 0 {
		return entity.Invalid("per_user_limit", "per-user limit cannot be negative")
	}
	if !c.EndsAt.IsZero() && !c.StartsAt.IsZero() && !c.EndsAt.After(c.StartsAt) {
		return entity.Invalid("ends_at", "coupon must end after it starts")
	}
	return nil
}

// List returns all coupons.
func (s *CouponService) List(ctx context.Context, id *entity.Identity) ([]entity.Coupon, error) {
	if err := auth.Authorize(id, auth.CapManageCoupons); err != nil {
		return nil, err
	}
	return s.repo.List(ctx)
}
