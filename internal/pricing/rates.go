// Package pricing holds the pure arithmetic of checkout: coupon discounts,
// reward-point redemption, tax, shipping and loyalty tiers. Amounts are whole
// currency units; every computed amount is rounded to zero decimal places.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/egannguyen/salon-shop/backend/internal/entity"
)

// Rates are the pricing constants of the shop.
type Rates struct {
	TaxRate decimal.Decimal

	// PointsBlock points redeem for PointsBlockValue currency. Only whole blocks
	// of the balance are spendable.
	PointsBlock      int64
	PointsBlockValue decimal.Decimal

	// EarnUnit is the spend that earns one base point.
	EarnUnit decimal.Decimal

	Shipping map[entity.ShippingMethod]decimal.Decimal
}

// DefaultRates: 18% VAT, 100 points = 1,000, one point per 1,000 spent.
func DefaultRates() Rates {
	return Rates{
		TaxRate:          decimal.NewFromFloat(0.18),
		PointsBlock:      100,
		PointsBlockValue: decimal.NewFromInt(1000),
		EarnUnit:         decimal.NewFromInt(1000),
		Shipping: map[entity.ShippingMethod]decimal.Decimal{
			entity.ShippingStandard: decimal.NewFromInt(10000),
			entity.ShippingExpress:  decimal.NewFromInt(30000),
		},
	}
}

// ShippingCost returns the flat rate for method.
func (r Rates) ShippingCost(method entity.ShippingMethod) (decimal.Decimal, error) {
	cost, ok := r.Shipping[method]
	if !ok {
		return decimal.Zero, entity.Invalid("shipping_method", "unsupported shipping method %q", method)
	}
	return cost, nil
}

// Tax applies the flat rate to the taxable amount, rounded to the nearest unit.
func Tax(taxable, rate decimal.Decimal) decimal.Decimal {
	if !taxable.IsPositive() {
		return decimal.Zero
	}
	return taxable.Mul(rate).Round(0)
}
