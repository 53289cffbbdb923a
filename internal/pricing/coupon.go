package pricing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/egannguyen/salon-shop/backend/internal/entity"
)

var hundred = decimal.NewFromInt(100)

// CouponResult is the effect of a coupon on an order.
type CouponResult struct {
	Discount     decimal.Decimal `json:"discount"`
	FreeShipping bool            `json:"free_shipping"`
}

// CheckCouponUsable verifies the active flag, validity window and usage limit.
func CheckCouponUsable(c *entity.Coupon, now time.Time) error {
	if !c.IsActive {
		return entity.Invalid("coupon_code", "coupon %s is not active", c.Code)
	}
	if now.Before(c.StartsAt) {
		return entity.Invalid("coupon_code", "coupon %s is not valid yet", c.Code)
	}
	if !c.EndsAt.IsZero() && now.After(c.EndsAt) {
		return entity.Invalid("coupon_code", "coupon %s has expired", c.Code)
	}
	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return fmt.Errorf("%w: %s", entity.ErrCouponExhausted, c.Code)
	}
	return nil
}

// EvaluateCoupon computes the discount c grants on subtotal at time now.
// Percentage discounts are clamped to the coupon's cap, and no discount ever
// exceeds the subtotal.
func EvaluateCoupon(c *entity.Coupon, subtotal decimal.Decimal, now time.Time) (CouponResult, error) {
	if err := CheckCouponUsable(c, now); err != nil {
		return CouponResult{}, err
	}
	if c.MinOrderAmount.Valid && subtotal.LessThan(c.MinOrderAmount.Decimal) {
		return CouponResult{}, entity.Invalid("coupon_code",
			"minimum order amount for coupon %s is %s", c.Code, c.MinOrderAmount.Decimal.StringFixed(0))
	}

	res := CouponResult{Discount: decimal.Zero}
	switch c.Type {
	case entity.DiscountPercentage:
		res.Discount = subtotal.Mul(c.Value).Div(hundred).Round(0)
		if c.MaxDiscount.Valid && res.Discount.GreaterThan(c.MaxDiscount.Decimal) {
			res.Discount = c.MaxDiscount.Decimal
		}
	case entity.DiscountFixedAmount:
		res.Discount = c.Value
	case entity.DiscountFreeShipping:
		res.FreeShipping = true
	default:
		return CouponResult{}, fmt.Errorf("unknown discount type %q on coupon %s", c.Type, c.Code)
	}

	if res.Discount.GreaterThan(subtotal) {
		res.Discount = subtotal
	}
	return res, nil
}
