package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/egannguyen/salon-shop/backend/internal/auth"
	"github.com/egannguyen/salon-shop/backend/internal/entity"
	"github.com/egannguyen/salon-shop/backend/internal/messaging"
	"github.com/egannguyen/salon-shop/backend/internal/ordernum"
	"github.com/egannguyen/salon-shop/backend/internal/pricing"
	"github.com/egannguyen/salon-shop/backend/internal/repository"
)

const (
	orderNumberAttempts   = 3
	defaultPublishTimeout = 5 * time.Second
)

// CheckoutItem is one requested product and quantity.
type CheckoutItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Variant   string `json:"variant,omitempty"`
}

// CheckoutRequest is the customer's checkout submission.
type CheckoutRequest struct {
	Items           []CheckoutItem        `json:"items"`
	ShippingAddress *entity.Address       `json:"shipping_address"`
	ShippingMethod  entity.ShippingMethod `json:"shipping_method"`
	ShippingZone    string                `json:"shipping_zone,omitempty"`
	ContactName     string                `json:"contact_name"`
	ContactEmail    string                `json:"contact_email"`
	ContactPhone    string                `json:"contact_phone,omitempty"`
	PaymentMethod   entity.PaymentMethod  `json:"payment_method"`
	CouponCode      string                `json:"coupon_code,omitempty"`
	UsePoints       bool                  `json:"use_points"`
	Notes           string                `json:"notes,omitempty"`
}

// OrderServiceDeps groups the collaborators of OrderService.
type OrderServiceDeps struct {
	Products  repository.ProductRepository
	Coupons   repository.CouponRepository
	Orders    repository.OrderRepository
	Rewards   repository.RewardRepository
	Checkouts repository.CheckoutStore
	Cart      repository.CartStore
	Notifier  Notifier
	Publisher messaging.Publisher
	Earner    PointsEarner
	Rates     pricing.Rates
	Now       func() time.Time

	// PublishTimeout bounds each background event publish.
	PublishTimeout time.Duration
}

// PointsEarner credits and refunds loyalty points tied to an order.
type PointsEarner interface {
	EarnForOrder(ctx context.Context, o *entity.Order) (int64, error)
	SettleRefund(ctx context.Context, o *entity.Order) error
}

// OrderService orchestrates checkout and the order lifecycle.
type OrderService struct {
	products  repository.ProductRepository
	coupons   repository.CouponRepository
	orders    repository.OrderRepository
	rewards   repository.RewardRepository
	checkouts repository.CheckoutStore
	cart      repository.CartStore
	notifier  Notifier
	publisher messaging.Publisher
	earner    PointsEarner
	rates     pricing.Rates
	now       func() time.Time

	publishTimeout time.Duration
	pending        sync.WaitGroup
	mu             sync.Mutex
	lastPublish    chan struct{}
}

func NewOrderService(d OrderServiceDeps) *OrderService {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	timeout := d.PublishTimeout
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	return &OrderService{
		products:  d.Products,
		coupons:   d.Coupons,
		orders:    d.Orders,
		rewards:   d.Rewards,
		checkouts: d.Checkouts,
		cart:      d.Cart,
		notifier:  d.Notifier,
		publisher: d.Publisher,
		earner:    d.Earner,
		rates:     d.Rates,
		now:       now,

		publishTimeout: timeout,
	}
}

// Checkout validates the request, prices it and commits the order, stock,
// coupon usage and points redemption as one unit. Side effects after the
// commit are best-effort.
func (s *OrderService) Checkout(ctx context.Context, id *entity.Identity, req CheckoutRequest) (*entity.Order, error) {
	if err := auth.Authorize(id, auth.CapShop); err != nil {
		return nil, err
	}

	quantities, err := mergeItems(req.Items)
	if err != nil {
		return nil, err
	}
	if err := validateContact(&req); err != nil {
		return nil, err
	}

	items, err := s.snapshotItems(ctx, req.Items, quantities)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var coupon *entity.Coupon
	if code := strings.TrimSpace(req.CouponCode); code != "" {
		coupon, err = s.lookupCoupon(ctx, code, id.UserID)
		if err != nil {
			return nil, err
		}
	}

	var balance int64
	if req.UsePoints {
		balance, err = s.rewards.Balance(ctx, id.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to read points balance: %w", err)
		}
	}

	quote, err := pricing.Quote(pricing.QuoteInput{
		Items:          items,
		Coupon:         coupon,
		ShippingMethod: req.ShippingMethod,
		PointsBalance:  balance,
		UsePoints:      req.UsePoints,
		Now:            now,
	}, s.rates)
	if err != nil {
		return nil, err
	}

	order := &entity.Order{
		ID:              uuid.New().String(),
		UserID:          id.UserID,
		Status:          entity.OrderPending,
		Subtotal:        quote.Subtotal,
		DiscountAmount:  quote.Discount,
		PointsDiscount:  quote.PointsDiscount,
		TaxAmount:       quote.Tax,
		ShippingCost:    quote.Shipping,
		TotalAmount:     quote.Total,
		PointsUsed:      quote.PointsUsed,
		ShippingMethod:  req.ShippingMethod,
		PaymentMethod:   req.PaymentMethod,
		Notes:           req.Notes,
		ContactName:     req.ContactName,
		ContactEmail:    req.ContactEmail,
		ContactPhone:    req.ContactPhone,
		ShippingAddress: req.ShippingAddress,
		ShippingZone:    req.ShippingZone,
		Items:           items,
		History:         entity.NewOrderHistory(now, id.UserID),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if coupon != nil {
		order.CouponCode = coupon.Code
	}

	checkout := &entity.Checkout{Order: order, Coupon: coupon, PointsUsed: quote.PointsUsed}
	for attempt := 1; ; attempt++ {
		order.OrderNumber = ordernum.Generate(now)
		err = s.checkouts.PlaceOrder(ctx, checkout)
		if !errors.Is(err, entity.ErrDuplicateOrderNum) || attempt == orderNumberAttempts {
			break
		}
		slog.Warn("Order number collision, regenerating", "order_number", order.OrderNumber, "attempt", attempt)
	}
	if err != nil {
		return nil, err
	}

	slog.Info("Order placed",
		"order_number", order.OrderNumber,
		"user_id", order.UserID,
		"total", order.TotalAmount.String(),
		"coupon", order.CouponCode,
		"points_used", order.PointsUsed,
	)

	s.afterPlaced(ctx, order)
	return order, nil
}

func (s *OrderService) afterPlaced(ctx context.Context, o *entity.Order) {
	if s.cart != nil {
		if err := s.cart.Clear(ctx, o.UserID); err != nil {
			slog.Warn("Failed to clear cart", "user_id", o.UserID, "err", err)
		}
	}
	s.notify(ctx, o)
	s.publish(ctx, entity.TopicOrdersPlaced, o.OrderNumber, entity.NewOrderPlaced(o))
}

// publish hands the event to the broker in the background so a slow broker
// never delays the response. Events go out in the order they were queued,
// each bounded by publishTimeout and detached from the request's cancellation.
func (s *OrderService) publish(ctx context.Context, topic, key string, event any) {
	if s.publisher == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)

	s.mu.Lock()
	prev := s.lastPublish
	done := make(chan struct{})
	s.lastPublish = done
	s.mu.Unlock()

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer close(done)
		if prev != nil {
			<-prev
		}

		pubCtx, cancel := context.WithTimeout(ctx, s.publishTimeout)
		defer cancel()
		if err := s.publisher.PublishEvent(pubCtx, topic, key, event); err != nil {
			slog.Error("Failed to publish order event", "topic", topic, "order_number", key, "err", err)
		}
	}()
}

// Wait blocks until every queued event has been published or has timed out.
func (s *OrderService) Wait() {
	s.pending.Wait()
}

func (s *OrderService) notify(ctx context.Context, o *entity.Order) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, o.UserID, o.OrderNumber, o.Status, o.ID); err != nil {
		slog.Warn("Failed to create notification", "order_number", o.OrderNumber, "status", o.Status, "err", err)
	}
}

func mergeItems(items []CheckoutItem) (map[string]int, error) {
	if len(items) == 0 {
		return nil, entity.Invalid("items", "cart is empty")
	}
	quantities := make(map[string]int, len(items))
	for _, it := range items {
		if it.ProductID == "" {
			return nil, entity.Invalid("items", "product id is required")
		}
		if it.Quantity <= 0 {
			return nil, entity.Invalid("items", "quantity for %s must be positive", it.ProductID)
		}
		quantities[it.ProductID] += it.Quantity
	}
	return quantities, nil
}

func validateContact(req *CheckoutRequest) error {
	req.ContactName = strings.TrimSpace(req.ContactName)
	req.ContactEmail = strings.TrimSpace(req.ContactEmail)
	if req.ContactName == "" {
		return entity.Invalid("contact_name", "contact name is required")
	}
	if !strings.Contains(req.ContactEmail, "@") {
		return entity.Invalid("contact_email", "a valid contact email is required")
	}
	if a := req.ShippingAddress; a != nil && (strings.TrimSpace(a.Line1) == "" || strings.TrimSpace(a.City) == "") {
		return entity.Invalid("shipping_address", "shipping address needs a street and city")
	}
	if req.ShippingMethod == "" {
		req.ShippingMethod = entity.ShippingStandard
	}
	if !req.PaymentMethod.Valid() {
		return entity.Invalid("payment_method", "unsupported payment method %q", req.PaymentMethod)
	}
	return nil
}

// snapshotItems resolves the requested products and copies their current
// name, SKU and price into order lines, one line per product in request order.
func (s *OrderService) snapshotItems(ctx context.Context, requested []CheckoutItem, quantities map[string]int) ([]entity.OrderItem, error) {
	ids := make([]string, 0, len(quantities))
	for _, it := range requested {
		if _, seen := quantities[it.ProductID]; seen && !slices.Contains(ids, it.ProductID) {
			ids = append(ids, it.ProductID)
		}
	}

	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	items := make([]entity.OrderItem, 0, len(ids))
	for _, pid := range ids {
		p, ok := products[pid]
		if !ok || !p.IsActive {
			return nil, entity.Invalid("items", "product %s is not available", pid)
		}
		qty := quantities[pid]
		if p.Stock < qty {
			return nil, fmt.Errorf("%w: %s has %d left", entity.ErrInsufficientStock, p.Name, p.Stock)
		}
		var variant string
		for _, it := range requested {
			if it.ProductID == pid && it.Variant != "" {
				variant = it.Variant
				break
			}
		}
		items = append(items, entity.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			SKU:       p.SKU,
			Price:     p.Price,
			Quantity:  qty,
			Variant:   variant,
		})
	}
	return items, nil
}

func (s *OrderService) lookupCoupon(ctx context.Context, code, userID string) (*entity.Coupon, error) {
	coupon, err := s.coupons.FindByCode(ctx, code)
	if errors.Is(err, entity.ErrNotFound) {
		return nil, entity.Invalid("coupon_code", "coupon %s does not exist", strings.ToUpper(code))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load coupon: %w", err)
	}
	if coupon.PerUserLimit > 0 {
		used, err := s.coupons.CountUserUsage(ctx, coupon.ID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to count coupon usage: %w", err)
		}
		if used >= coupon.PerUserLimit {
			return nil, entity.Invalid("coupon_code", "coupon %s has already been used", coupon.Code)
		}
	}
	return coupon, nil
}

// GetOrder returns the order with the given number. Orders of other users
// are reported as not found unless the caller manages orders.
func (s *OrderService) GetOrder(ctx context.Context, id *entity.Identity, number string) (*entity.Order, error) {
	if err := auth.Authorize(id, auth.CapShop); err != nil {
		return nil, err
	}
	if !ordernum.Valid(number) {
		return nil, entity.ErrNotFound
	}
	o, err := s.orders.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if o.UserID != id.UserID && auth.Authorize(id, auth.CapManageOrders) != nil {
		return nil, entity.ErrNotFound
	}
	return o, nil
}

// ListMyOrders returns the caller's orders, newest first.
func (s *OrderService) ListMyOrders(ctx context.Context, id *entity.Identity, limit int) ([]entity.Order, error) {
	if err := auth.Authorize(id, auth.CapShop); err != nil {
		return nil, err
	}
	return s.orders.FindByUser(ctx, id.UserID, limit)
}

// ListRecent returns the latest orders across all users, optionally
// filtered by status.
func (s *OrderService) ListRecent(ctx context.Context, id *entity.Identity, status entity.OrderStatus, limit int) ([]entity.Order, error) {
	if err := auth.Authorize(id, auth.CapManageOrders); err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, entity.Invalid("status", "unknown order status %q", status)
	}
	return s.orders.FindRecent(ctx, status, limit)
}

// UpdateStatus moves an order along the transition table. Cancellation is
// routed through the checkout store so stock and points are restored.
func (s *OrderService) UpdateStatus(ctx context.Context, id *entity.Identity, number string, next entity.OrderStatus, note string) (*entity.Order, error) {
	if err := auth.Authorize(id, auth.CapManageOrders); err != nil {
		return nil, err
	}
	if !next.Valid() {
		return nil, entity.Invalid("status", "unknown order status %q", next)
	}
	o, err := s.orders.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if next == entity.OrderCancelled {
		if err := s.cancel(ctx, o, note, id); err != nil {
			return nil, err
		}
		return o, nil
	}

	from := o.Status
	if err := o.Transition(next, note, id.UserID, s.now()); err != nil {
		return nil, err
	}
	if err := s.orders.UpdateStatus(ctx, o, from); err != nil {
		return nil, err
	}

	if s.earner != nil {
		switch next {
		case entity.OrderDelivered:
			if _, err := s.earner.EarnForOrder(ctx, o); err != nil {
				slog.Error("Failed to credit reward points", "order_number", o.OrderNumber, "err", err)
			}
		case entity.OrderRefunded:
			if err := s.earner.SettleRefund(ctx, o); err != nil {
				slog.Error("Failed to settle refunded points", "order_number", o.OrderNumber, "err", err)
			}
		}
	}

	s.statusChanged(ctx, o, from, id)
	return o, nil
}

// Cancel cancels an order. Customers may cancel their own orders while they
// are still PENDING; holders of CapCancelAnyOrder may cancel any cancellable
// order.
func (s *OrderService) Cancel(ctx context.Context, id *entity.Identity, number, reason string) (*entity.Order, error) {
	if err := auth.Authorize(id, auth.CapShop); err != nil {
		return nil, err
	}
	o, err := s.orders.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}

	if auth.Authorize(id, auth.CapCancelAnyOrder) != nil {
		if o.UserID != id.UserID {
			return nil, entity.ErrNotFound
		}
		if o.Status != entity.OrderPending {
			return nil, fmt.Errorf("%w: order %s is %s and can no longer be cancelled", entity.ErrInvalidTransition, o.OrderNumber, o.Status)
		}
	}
	if err := s.cancel(ctx, o, reason, id); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *OrderService) cancel(ctx context.Context, o *entity.Order, note string, id *entity.Identity) error {
	from := o.Status
	if note == "" {
		note = "Order cancelled"
	}
	if err := o.Transition(entity.OrderCancelled, note, id.UserID, s.now()); err != nil {
		return err
	}
	if err := s.checkouts.CancelOrder(ctx, o, from); err != nil {
		return err
	}
	slog.Info("Order cancelled", "order_number", o.OrderNumber, "from", from, "by", id.UserID)
	s.statusChanged(ctx, o, from, id)
	return nil
}

func (s *OrderService) statusChanged(ctx context.Context, o *entity.Order, from entity.OrderStatus, id *entity.Identity) {
	s.notify(ctx, o)
	evt := entity.OrderStatusChanged{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		UserID:      o.UserID,
		From:        from,
		To:          o.Status,
		ChangedBy:   id.UserID,
		ChangedAt:   o.UpdatedAt,
	}
	s.publish(ctx, entity.TopicOrderStatusChanged, o.OrderNumber, evt)
}
