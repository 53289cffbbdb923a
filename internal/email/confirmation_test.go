package email

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egannguyen/salon-shop/backend/internal/entity"
)

func TestDeliveryEstimate(t *testing.T) {
	placed := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	from, to := DeliveryEstimate(entity.ShippingStandard, placed)
	assert.Equal(t, 22, from.Day())
	assert.Equal(t, 24, to.Day())

	from, to = DeliveryEstimate(entity.ShippingExpress, placed)
	assert.Equal(t, 20, from.Day())
	assert.Equal(t, 21, to.Day())
}

func TestOrderConfirmation(t *testing.T) {
	e := entity.OrderPlaced{
		OrderNumber:   "ORD-261019-090000-ABCDEF12",
		CustomerName:  "Mai",
		CustomerEmail: "mai@example.com",
		Items: []entity.OrderItem{
			{Name: "Argan Oil Shampoo", Variant: "500ml", Quantity: 2, Price: decimal.NewFromInt(50000)},
		},
		Subtotal:       decimal.NewFromInt(100000),
		DiscountAmount: decimal.NewFromInt(10000),
		PointsDiscount: decimal.Zero,
		ShippingCost:   decimal.NewFromInt(10000),
		TaxAmount:      decimal.NewFromInt(16200),
		TotalAmount:    decimal.NewFromInt(116200),
		ShippingMethod: entity.ShippingStandard,
		PaymentMethod:  entity.PaymentCOD,
		ShippingAddress: &entity.Address{
			FullName: "Mai Tran", Line1: "12 Hang Bai", City: "Hanoi",
		},
		PlacedAt: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC),
	}

	msg, err := OrderConfirmation(e)
	require.NoError(t, err)

	assert.Equal(t, "mai@example.com", msg.To)
	assert.Contains(t, msg.Subject, e.OrderNumber)
	assert.Contains(t, msg.Body, "Hi Mai,")
	assert.Contains(t, msg.Body, "Argan Oil Shampoo (500ml) x2")
	assert.Contains(t, msg.Body, "Coupon discount: -10000")
	assert.NotContains(t, msg.Body, "Points discount")
	assert.Contains(t, msg.Body, "Total:           116200")
	assert.Contains(t, msg.Body, "Mai Tran, 12 Hang Bai, Hanoi")
	assert.Contains(t, msg.Body, "Oct 22 - Oct 24, 2026")
	assert.Contains(t, msg.Body, "COD")
}
