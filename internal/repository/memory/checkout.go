package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/egannguyen/salon-shop/backend/internal/entity"
	"github.com/egannguyen/salon-shop/backend/internal/repository"
)

type checkoutStore struct{ s *Store }

// PlaceOrder checks every condition before writing anything, which gives the
// same all-or-nothing outcome as the Postgres transaction.
func (c checkoutStore) PlaceOrder(_ context.Context, co *entity.Checkout) error {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()
	o := co.Order

	if _, exists := s.orders[o.OrderNumber]; exists {
		return fmt.Errorf("%w: %s", entity.ErrDuplicateOrderNum, o.OrderNumber)
	}

	need := map[string]int{}
	for _, it := range o.Items {
		need[it.ProductID] += it.Quantity
	}
	for _, it := range o.Items {
		p, ok := s.products[it.ProductID]
		if !ok || !p.IsActive || p.Stock < need[it.ProductID] {
			return fmt.Errorf("%w: %s", entity.ErrInsufficientStock, it.Name)
		}
	}

	var coupon *entity.Coupon
	if co.Coupon != nil {
		coupon = s.coupons[co.Coupon.ID]
		if coupon == nil || !coupon.IsActive || (coupon.UsageLimit != nil && coupon.UsedCount >= *coupon.UsageLimit) {
			return fmt.Errorf("%w: %s", entity.ErrCouponExhausted, co.Coupon.Code)
		}
		if coupon.PerUserLimit > 0 && s.countUsageLocked(coupon.ID, o.UserID) >= coupon.PerUserLimit {
			return entity.Invalid("coupon_code", "coupon %s can be used %d time(s) per customer", coupon.Code, coupon.PerUserLimit)
		}
	}

	if co.PointsUsed > s.balances[o.UserID] {
		return fmt.Errorf("%w: balance %d, requested %d", entity.ErrInsufficientPoints, s.balances[o.UserID], co.PointsUsed)
	}

	for _, it := range o.Items {
		p := s.products[it.ProductID]
		p.Stock -= it.Quantity
		p.SoldCount += it.Quantity
	}
	if coupon != nil {
		coupon.UsedCount++
		s.usages = append(s.usages, couponUsage{couponID: coupon.ID, userID: o.UserID, orderID: o.ID})
	}
	if co.PointsUsed > 0 {
		// Balance was checked above; the append cannot fail.
		_ = s.appendRewardLocked(&entity.RewardEntry{
			UserID:      o.UserID,
			Points:      -co.PointsUsed,
			Type:        entity.RewardRedeemed,
			OrderID:     o.ID,
			Description: "Redeemed on order " + o.OrderNumber,
			CreatedAt:   o.CreatedAt,
		})
	}
	s.orders[o.OrderNumber] = cloneOrder(o)
	return nil
}

func (c checkoutStore) CancelOrder(_ context.Context, o *entity.Order, from entity.OrderStatus) error {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.transitionLocked(o, from); err != nil {
		return err
	}

	for _, it := range o.Items {
		if p, ok := s.products[it.ProductID]; ok {
			p.Stock += it.Quantity
			p.SoldCount = max(p.SoldCount-it.Quantity, 0)
		}
	}

	if o.CouponCode != "" {
		kept := s.usages[:0]
		released := false
		for _, u := range s.usages {
			if u.orderID == o.ID {
				released = true
				continue
			}
			kept = append(kept, u)
		}
		s.usages = kept
		if coupon := s.couponByCodeLocked(o.CouponCode); released && coupon != nil && coupon.UsedCount > 0 {
			coupon.UsedCount--
		}
	}

	if o.PointsUsed > 0 {
		h, _ := o.LatestHistory()
		_ = s.appendRewardLocked(&entity.RewardEntry{
			UserID:      o.UserID,
			Points:      o.PointsUsed,
			Type:        entity.RewardRefunded,
			OrderID:     o.ID,
			Description: "Refund for cancelled order " + o.OrderNumber,
			CreatedAt:   h.CreatedAt,
		})
	}
	return nil
}

type cartStore struct {
	mu    sync.Mutex
	carts map[string]map[string]int
}

// NewCartStore returns a process-local CartStore.
func NewCartStore() repository.CartStore {
	return &cartStore{carts: map[string]map[string]int{}}
}

func (c *cartStore) Get(_ context.Context, userID string) (map[string]int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int, len(c.carts[userID]))
	for k, v := range c.carts[userID] {
		out[k] = v
	}
	return out, nil
}

func (c *cartStore) Add(_ context.Context, userID, productID string, quantity int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.carts[userID] == nil {
		c.carts[userID] = map[string]int{}
	}
	c.carts[userID][productID] += quantity
	return c.carts[userID][productID], nil
}

func (c *cartStore) Set(_ context.Context, userID, productID string, quantity int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if quantity <= 0 {
		delete(c.carts[userID], productID)
		return nil
	}
	if c.carts[userID] == nil {
		c.carts[userID] = map[string]int{}
	}
	c.carts[userID][productID] = quantity
	return nil
}

func (c *cartStore) Remove(_ context.Context, userID, productID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.carts[userID], productID)
	return nil
}

func (c *cartStore) Clear(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.carts, userID)
	return nil
}
