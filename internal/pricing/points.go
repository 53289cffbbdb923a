package pricing

import "github.com/shopspring/decimal"

// RedeemPoints converts a point balance into a discount against payable.
// Only whole blocks are spendable. When the balance is worth more than payable
// the discount is capped at payable and the points consumed are rounded up.
func RedeemPoints(balance int64, payable decimal.Decimal, r Rates) (discount decimal.Decimal, pointsUsed int64) {
	if r.PointsBlock <= 0 || balance < r.PointsBlock || !payable.IsPositive() {
		return decimal.Zero, 0
	}

	blocks := balance / r.PointsBlock
	value := r.PointsBlockValue.Mul(decimal.NewFromInt(blocks))
	if value.LessThanOrEqual(payable) {
		return value, blocks * r.PointsBlock
	}

	discount = payable
	pointsUsed = discount.
		Mul(decimal.NewFromInt(r.PointsBlock)).
		Div(r.PointsBlockValue).
		Ceil().
		IntPart()
	return discount, pointsUsed
}

// PointsValue is the currency worth of the spendable part of balance.
func PointsValue(balance int64, r Rates) decimal.Decimal {
	if r.PointsBlock <= 0 {
		return decimal.Zero
	}
	return r.PointsBlockValue.Mul(decimal.NewFromInt(balance / r.PointsBlock))
}
