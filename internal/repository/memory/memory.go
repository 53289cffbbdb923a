// Package memory implements the repository interfaces on in-process maps.
// It backs the service and HTTP tests and lets the server run without
// Postgres (store.driver = memory). State is lost on restart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/egannguyen/salon-shop/backend/internal/entity"
	"github.com/egannguyen/salon-shop/backend/internal/repository"
)

type couponUsage struct {
	couponID string
	userID   string
	orderID  string
}

// Store holds every table behind one mutex, so a checkout is applied
// atomically with respect to all readers.
type Store struct {
	mu            sync.Mutex
	products      map[string]*entity.Product
	coupons       map[string]*entity.Coupon
	usages        []couponUsage
	orders        map[string]*entity.Order // by order number
	ledger        []entity.RewardEntry
	balances      map[string]int64
	notifications []entity.Notification
	now           func() time.Time
}

func NewStore() *Store {
	return &Store{
		products: map[string]*entity.Product{},
		coupons:  map[string]*entity.Coupon{},
		orders:   map[string]*entity.Order{},
		balances: map[string]int64{},
		now:      time.Now,
	}
}

func (s *Store) Products() repository.ProductRepository           { return productRepo{s} }
func (s *Store) Coupons() repository.CouponRepository             { return couponRepo{s} }
func (s *Store) Orders() repository.OrderRepository               { return orderRepo{s} }
func (s *Store) Rewards() repository.RewardRepository             { return rewardRepo{s} }
func (s *Store) Notifications() repository.NotificationRepository { return notificationRepo{s} }
func (s *Store) Checkouts() repository.CheckoutStore              { return checkoutStore{s} }

func cloneOrder(o *entity.Order) *entity.Order {
	c := *o
	c.Items = append([]entity.OrderItem(nil), o.Items...)
	c.History = append([]entity.StatusHistory(nil), o.History...)
	return &c
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 200 {
		return 50
	}
	return limit
}

// --- Products ---

type productRepo struct{ s *Store }

func (r productRepo) FindAll(_ context.Context, f entity.ProductFilter) ([]entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	search := strings.ToLower(f.Search)
	var out []entity.Product
	for _, p := range r.s.products {
		switch {
		case !p.IsActive,
			f.Category != "" && !strings.EqualFold(p.Category, f.Category),
			f.Brand != "" && !strings.EqualFold(p.Brand, f.Brand),
			search != "" && !strings.Contains(strings.ToLower(p.Name+" "+p.Description), search),
			f.Featured && !p.IsFeatured,
			f.OnSale && !p.IsOnSale,
			f.Bestseller && !p.IsBestseller:
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	offset := max(f.Offset, 0)
	if offset >= len(out) {
		return []entity.Product{}, nil
	}
	out = out[offset:]
	if limit := normalizeLimit(f.Limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r productRepo) FindByID(_ context.Context, id string) (*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r productRepo) FindByIDs(_ context.Context, ids []string) (map[string]entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[string]entity.Product, len(ids))
	for _, id := range ids {
		if p, ok := r.s.products[id]; ok {
			out[id] = *p
		}
	}
	return out, nil
}

func (r productRepo) Create(_ context.Context, p *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.createProductLocked(p)
}

func (s *Store) createProductLocked(p *entity.Product) error {
	if _, exists := s.products[p.ID]; exists {
		return entity.Invalid("id", "product %s already exists", p.ID)
	}
	for _, existing := range s.products {
		if strings.EqualFold(existing.SKU, p.SKU) {
			return entity.Invalid("sku", "sku %s already exists", p.SKU)
		}
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	cp := *p
	s.products[p.ID] = &cp
	return nil
}

func (r productRepo) Seed(_ context.Context, products []entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if len(r.s.products) > 0 {
		return nil
	}
	for i := range products {
		if err := r.s.createProductLocked(&products[i]); err != nil {
			return fmt.Errorf("failed to seed product %s: %w", products[i].ID, err)
		}
	}
	return nil
}

// --- Coupons ---

type couponRepo struct{ s *Store }

func (s *Store) couponByCodeLocked(code string) *entity.Coupon {
	for _, c := range s.coupons {
		if strings.EqualFold(c.Code, code) {
			return c
		}
	}
	return nil
}

func (r couponRepo) FindByCode(_ context.Context, code string) (*entity.Coupon, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := r.s.couponByCodeLocked(strings.TrimSpace(code))
	if c == nil {
		return nil, entity.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r couponRepo) Create(_ context.Context, c *entity.Coupon) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	if r.s.couponByCodeLocked(c.Code) != nil {
		return entity.Invalid("code", "coupon %s already exists", c.Code)
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = r.s.now()
	}
	if c.StartsAt.IsZero() {
		c.StartsAt = c.CreatedAt
	}
	cp := *c
	r.s.coupons[c.ID] = &cp
	return nil
}

func (r couponRepo) List(_ context.Context) ([]entity.Coupon, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]entity.Coupon, 0, len(r.s.coupons))
	for _, c := range r.s.coupons {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r couponRepo) CountUserUsage(_ context.Context, couponID, userID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.countUsageLocked(couponID, userID), nil
}

func (s *Store) countUsageLocked(couponID, userID string) int {
	n := 0
	for _, u := range s.usages {
		if u.couponID == couponID && u.userID == userID {
			n++
		}
	}
	return n
}

// --- Orders ---

type orderRepo struct{ s *Store }

func (r orderRepo) FindByNumber(_ context.Context, number string) (*entity.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[number]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (r orderRepo) list(match func(*entity.Order) bool, limit int) []entity.Order {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []entity.Order{}
	for _, o := range r.s.orders {
		if match(o) {
			out = append(out, *cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].OrderNumber > out[j].OrderNumber
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if n := normalizeLimit(limit); len(out) > n {
		out = out[:n]
	}
	return out
}

func (r orderRepo) FindByUser(_ context.Context, userID string, limit int) ([]entity.Order, error) {
	return r.list(func(o *entity.Order) bool { return o.UserID == userID }, limit), nil
}

func (r orderRepo) FindRecent(_ context.Context, status entity.OrderStatus, limit int) ([]entity.Order, error) {
	return r.list(func(o *entity.Order) bool { return status == "" || o.Status == status }, limit), nil
}

func (r orderRepo) UpdateStatus(_ context.Context, o *entity.Order, from entity.OrderStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.transitionLocked(o, from)
}

func (s *Store) transitionLocked(o *entity.Order, from entity.OrderStatus) error {
	stored, ok := s.orders[o.OrderNumber]
	if !ok {
		return entity.ErrNotFound
	}
	if stored.Status != from {
		return fmt.Errorf("%w: order %s is no longer %s", entity.ErrInvalidTransition, o.OrderNumber, from)
	}
	s.orders[o.OrderNumber] = cloneOrder(o)
	return nil
}

// --- Rewards ---

type rewardRepo struct{ s *Store }

func (r rewardRepo) Balance(_ context.Context, userID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.balances[userID], nil
}

func (r rewardRepo) Entries(_ context.Context, userID string, limit int) ([]entity.RewardEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []entity.RewardEntry{}
	for i := len(r.s.ledger) - 1; i >= 0 && len(out) < normalizeLimit(limit); i-- {
		if r.s.ledger[i].UserID == userID {
			out = append(out, r.s.ledger[i])
		}
	}
	return out, nil
}

func (r rewardRepo) Append(_ context.Context, e *entity.RewardEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.appendRewardLocked(e)
}

func (r rewardRepo) OrderPoints(_ context.Context, orderID string, typ entity.RewardEntryType) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var sum int64
	for _, e := range r.s.ledger {
		if e.OrderID == orderID && e.Type == typ {
			sum += e.Points
		}
	}
	return sum, nil
}

func (s *Store) appendRewardLocked(e *entity.RewardEntry) error {
	next := s.balances[e.UserID] + e.Points
	if next < 0 {
		return fmt.Errorf("%w: balance %d, requested %d", entity.ErrInsufficientPoints, s.balances[e.UserID], -e.Points)
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	s.ledger = append(s.ledger, *e)
	s.balances[e.UserID] = next
	return nil
}

func (r rewardRepo) Recompute(_ context.Context, userID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var sum int64
	for _, e := range r.s.ledger {
		if e.UserID == userID {
			sum += e.Points
		}
	}
	r.s.balances[userID] = sum
	return sum, nil
}

// --- Notifications ---

type notificationRepo struct{ s *Store }

func (r notificationRepo) Create(_ context.Context, n *entity.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n.ID = uuid.New().String()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = r.s.now()
	}
	r.s.notifications = append(r.s.notifications, *n)
	return nil
}

func (r notificationRepo) FindByUser(_ context.Context, userID string, unreadOnly bool, limit int) ([]entity.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []entity.Notification{}
	for i := len(r.s.notifications) - 1; i >= 0 && len(out) < normalizeLimit(limit); i-- {
		n := r.s.notifications[i]
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r notificationRepo) MarkRead(_ context.Context, userID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.notifications {
		if r.s.notifications[i].ID == id && r.s.notifications[i].UserID == userID {
			r.s.notifications[i].IsRead = true
			return nil
		}
	}
	return entity.ErrNotFound
}
