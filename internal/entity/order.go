package entity

import (
	"fmt"
	"slices"
	"time"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending        OrderStatus = "PENDING"
	OrderConfirmed      OrderStatus = "CONFIRMED"
	OrderProcessing     OrderStatus = "PROCESSING"
	OrderShipped        OrderStatus = "SHIPPED"
	OrderOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	OrderDelivered      OrderStatus = "DELIVERED"
	OrderCancelled      OrderStatus = "CANCELLED"
	OrderRefunded       OrderStatus = "REFUNDED"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:        {OrderConfirmed, OrderCancelled},
	OrderConfirmed:      {OrderProcessing, OrderCancelled},
	OrderProcessing:     {OrderShipped, OrderCancelled},
	OrderShipped:        {OrderOutForDelivery, OrderDelivered},
	OrderOutForDelivery: {OrderDelivered},
	OrderDelivered:      {OrderRefunded},
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderProcessing, OrderShipped,
		OrderOutForDelivery, OrderDelivered, OrderCancelled, OrderRefunded:
		return true
	}
	return false
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return slices.Contains(orderTransitions[s], next)
}

// Cancellable reports whether stock and points can still be released.
func (s OrderStatus) Cancellable() bool {
	return s.CanTransitionTo(OrderCancelled)
}

// NewOrderHistory returns the initial history row of a freshly placed order.
func NewOrderHistory(at time.Time, actor string) []StatusHistory {
	return []StatusHistory{{Status: OrderPending, Note: "Order placed", ChangedBy: actor, CreatedAt: at}}
}

// Transition moves the order to next and appends a history entry.
func (o *Order) Transition(next OrderStatus, note, actor string, at time.Time) error {
	if !o.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, next)
	}
	o.Status = next
	o.UpdatedAt = at
	o.History = append(o.History, StatusHistory{
		Status:    next,
		Note:      note,
		ChangedBy: actor,
		CreatedAt: at,
	})
	return nil
}

// LatestHistory returns the newest history entry, which reflects the current status.
func (o *Order) LatestHistory() (StatusHistory, bool) {
	if len(o.History) == 0 {
		return StatusHistory{}, false
	}
	return o.History[len(o.History)-1], true
}
