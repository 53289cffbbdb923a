package repository

import (
	"context"

	"github.com/egannguyen/salon-shop/backend/internal/entity"
)

// ProductRepository handles persistence for Products.
type ProductRepository interface {
	FindAll(ctx context.Context, filter entity.ProductFilter) ([]entity.Product, error)
	FindByID(ctx context.Context, id string) (*entity.Product, error)
	// FindByIDs returns the products that exist, keyed by id.
	FindByIDs(ctx context.Context, ids []string) (map[string]entity.Product, error)
	Create(ctx context.Context, p *entity.Product) error
	// Seed inserts initial products if none exist.
	Seed(ctx context.Context, products []entity.Product) error
}

// CouponRepository handles persistence for Coupons.
type CouponRepository interface {
	// FindByCode matches case-insensitively.
	FindByCode(ctx context.Context, code string) (*entity.Coupon, error)
	Create(ctx context.Context, c *entity.Coupon) error
	List(ctx context.Context) ([]entity.Coupon, error)
	CountUserUsage(ctx context.Context, couponID, userID string) (int, error)
}

// OrderRepository handles reads and status updates for Orders.
type OrderRepository interface {
	FindByNumber(ctx context.Context, orderNumber string) (*entity.Order, error)
	FindByUser(ctx context.Context, userID string, limit int) ([]entity.Order, error)
	FindRecent(ctx context.Context, status entity.OrderStatus, limit int) ([]entity.Order, error)
	// UpdateStatus persists o.Status and its newest history entry, provided the
	// stored status is still from. A lost race yields entity.ErrInvalidTransition.
	UpdateStatus(ctx context.Context, o *entity.Order, from entity.OrderStatus) error
}

// RewardRepository is the points ledger. The ledger is the source of truth;
// the balance is materialized in the same transaction as each append.
type RewardRepository interface {
	Balance(ctx context.Context, userID string) (int64, error)
	Entries(ctx context.Context, userID string, limit int) ([]entity.RewardEntry, error)
	Append(ctx context.Context, entry *entity.RewardEntry) error
	// OrderPoints sums the entries of one type recorded against an order.
	OrderPoints(ctx context.Context, orderID string, typ entity.RewardEntryType) (int64, error)
	// Recompute rebuilds the materialized balance from the ledger.
	Recompute(ctx context.Context, userID string) (int64, error)
}

// NotificationRepository handles in-app notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	FindByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]entity.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
}

// CheckoutStore commits multi-row order mutations as single units of work.
type CheckoutStore interface {
	// PlaceOrder decrements stock, consumes the coupon, inserts the order with
	// its items and first history row, and records the points redemption.
	// Nothing is persisted if any step fails.
	PlaceOrder(ctx context.Context, c *entity.Checkout) error
	// CancelOrder persists o's transition to CANCELLED from the given status,
	// restocks its items and refunds redeemed points.
	CancelOrder(ctx context.Context, o *entity.Order, from entity.OrderStatus) error
}

// CartStore keeps per-user product quantities.
type CartStore interface {
	Get(ctx context.Context, userID string) (map[string]int, error)
	Add(ctx context.Context, userID, productID string, quantity int) (int, error)
	Set(ctx context.Context, userID, productID string, quantity int) error
	Remove(ctx context.Context, userID, productID string) error
	Clear(ctx context.Context, userID string) error
}
