package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egannguyen/salon-shop/backend/internal/entity"
)

func placedEvent() entity.OrderPlaced {
	return entity.OrderPlaced{
		OrderID:       "o-1",
		OrderNumber:   "ORD-260310-093000-ABCDEF12",
		UserID:        customer.UserID,
		CustomerName:  "Mai Nguyen",
		CustomerEmail: "mai@example.com",
		Items: []entity.OrderItem{
			{ProductID: "p-serum", Name: "Argan Hair Serum", Price: decimal.NewFromInt(50000), Quantity: 2},
		},
		Subtotal:       decimal.NewFromInt(100000),
		DiscountAmount: decimal.NewFromInt(10000),
		PointsDiscount: decimal.Zero,
		TaxAmount:      decimal.NewFromInt(16200),
		ShippingCost:   decimal.NewFromInt(10000),
		TotalAmount:    decimal.NewFromInt(116200),
		ShippingMethod: entity.ShippingStandard,
		PaymentMethod:  entity.PaymentCOD,
		PlacedAt:       fixedNow,
	}
}

func TestEmailWorker_SendsConfirmation(t *testing.T) {
	sender := &recordingSender{}
	sub := &replaySubscriber{payloads: [][]byte{mustJSON(placedEvent())}}
	w := NewEmailWorker(sub, sender, "email-test")

	w.Run(context.Background())

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "mai@example.com", msg.To)
	assert.Contains(t, msg.Subject, "ORD-260310-093000-ABCDEF12")
	assert.Contains(t, msg.Body, "116200")
}

func TestEmailWorker_FailuresAreSwallowed(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp: connection refused")}
	w := NewEmailWorker(&replaySubscriber{}, sender, "email-test")

	err := w.HandleOrderPlaced(context.Background(), mustJSON(placedEvent()))
	assert.NoError(t, err)

	evt := placedEvent()
	evt.CustomerEmail = ""
	assert.NoError(t, w.HandleOrderPlaced(context.Background(), mustJSON(evt)))

	assert.Error(t, w.HandleOrderPlaced(context.Background(), []byte("{not json")))
}
