package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/egannguyen/salon-shop/backend/internal/entity"
)

// QuoteInput is everything that determines an order's totals.
type QuoteInput struct {
	Items          []entity.OrderItem
	Coupon         *entity.Coupon
	ShippingMethod entity.ShippingMethod
	PointsBalance  int64
	UsePoints      bool
	Now            time.Time
}

// Breakdown is the priced result of a checkout.
type Breakdown struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	Discount       decimal.Decimal `json:"discount_amount"`
	PointsDiscount decimal.Decimal `json:"points_discount"`
	PointsUsed     int64           `json:"points_used"`
	Shipping       decimal.Decimal `json:"shipping_cost"`
	Tax            decimal.Decimal `json:"tax_amount"`
	Total          decimal.Decimal `json:"total_amount"`
	FreeShipping   bool            `json:"free_shipping"`
}

// Subtotal sums the line totals of items.
func Subtotal(items []entity.OrderItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.LineTotal())
	}
	return sum
}

// Quote prices an order:
//
//	total = subtotal - discount - pointsDiscount + shipping + tax
//	tax   = round(rate * (subtotal - discount - pointsDiscount))
func Quote(in QuoteInput, r Rates) (Breakdown, error) {
	b := Breakdown{
		Subtotal:       Subtotal(in.Items),
		Discount:       decimal.Zero,
		PointsDiscount: decimal.Zero,
	}

	shipping, err := r.ShippingCost(in.ShippingMethod)
	if err != nil {
		return Breakdown{}, err
	}
	b.Shipping = shipping

	if in.Coupon != nil {
		res, err := EvaluateCoupon(in.Coupon, b.Subtotal, in.Now)
		if err != nil {
			return Breakdown{}, err
		}
		b.Discount = res.Discount
		if res.FreeShipping {
			b.FreeShipping = true
			b.Shipping = decimal.Zero
		}
	}

	payable := b.Subtotal.Sub(b.Discount)
	if in.UsePoints {
		b.PointsDiscount, b.PointsUsed = RedeemPoints(in.PointsBalance, payable, r)
	}

	taxable := payable.Sub(b.PointsDiscount)
	b.Tax = Tax(taxable, r.TaxRate)
	b.Total = taxable.Add(b.Shipping).Add(b.Tax)
	return b, nil
}
