package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event represents a domain event.
type Event interface {
	EventType() string
}

const (
	TopicOrdersPlaced       = "orders.placed"
	TopicOrderStatusChanged = "orders.status_changed"
)

// OrderPlaced is emitted once a checkout has been committed.
type OrderPlaced struct {
	OrderID         string          `json:"order_id"`
	OrderNumber     string          `json:"order_number"`
	UserID          string          `json:"user_id"`
	CustomerName    string          `json:"customer_name"`
	CustomerEmail   string          `json:"customer_email"`
	Items           []OrderItem     `json:"items"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	PointsDiscount  decimal.Decimal `json:"points_discount"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	ShippingCost    decimal.Decimal `json:"shipping_cost"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	ShippingMethod  ShippingMethod  `json:"shipping_method"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	ShippingAddress *Address        `json:"shipping_address,omitempty"`
	PlacedAt        time.Time       `json:"placed_at"`
}

func (e OrderPlaced) EventType() string { return "OrderPlaced" }

// NewOrderPlaced snapshots an order into its placed event.
func NewOrderPlaced(o *Order) OrderPlaced {
	return OrderPlaced{
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		UserID:          o.UserID,
		CustomerName:    o.ContactName,
		CustomerEmail:   o.ContactEmail,
		Items:           o.Items,
		Subtotal:        o.Subtotal,
		DiscountAmount:  o.DiscountAmount,
		PointsDiscount:  o.PointsDiscount,
		TaxAmount:       o.TaxAmount,
		ShippingCost:    o.ShippingCost,
		TotalAmount:     o.TotalAmount,
		ShippingMethod:  o.ShippingMethod,
		PaymentMethod:   o.PaymentMethod,
		ShippingAddress: o.ShippingAddress,
		PlacedAt:        o.CreatedAt,
	}
}

// OrderStatusChanged is emitted after every successful status transition.
type OrderStatusChanged struct {
	OrderID     string      `json:"order_id"`
	OrderNumber string      `json:"order_number"`
	UserID      string      `json:"user_id"`
	From        OrderStatus `json:"from"`
	To          OrderStatus `json:"to"`
	ChangedBy   string      `json:"changed_by"`
	ChangedAt   time.Time   `json:"changed_at"`
}

func (e OrderStatusChanged) EventType() string { return "OrderStatusChanged" }
