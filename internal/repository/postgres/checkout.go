package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/lib/pq"

	"github.com/egannguyen/salon-shop/backend/internal/entity"
	"github.com/egannguyen/salon-shop/backend/internal/repository"
)

type checkoutStore struct {
	db *sql.DB
}

// NewCheckoutStore creates a CheckoutStore that commits each checkout in a
// single Postgres transaction.
func NewCheckoutStore(db *sql.DB) repository.CheckoutStore {
	return &checkoutStore{db: db}
}

func (s *checkoutStore) PlaceOrder(ctx context.Context, c *entity.Checkout) error {
	o := c.Order

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Lock rows in a stable order so concurrent checkouts cannot deadlock.
	items := append([]entity.OrderItem(nil), o.Items...)
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })

	for _, item := range items {
		res, err := tx.ExecContext(ctx,
			"UPDATE products SET stock = stock - $1, sold_count = sold_count + $1 WHERE id = $2 AND is_active AND stock >= $1",
			item.Quantity, item.ProductID,
		)
		if err != nil {
			return fmt.Errorf("failed to update product stock: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", entity.ErrInsufficientStock, item.Name)
		}
	}

	if c.Coupon != nil {
		if err := consumeCoupon(ctx, tx, c.Coupon, o.UserID); err != nil {
			return err
		}
	}

	var address any
	if o.ShippingAddress != nil {
		raw, err := json.Marshal(o.ShippingAddress)
		if err != nil {
			return fmt.Errorf("failed to encode shipping address: %w", err)
		}
		address = string(raw)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO orders ("+orderColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)",
		o.ID, o.OrderNumber, o.UserID, o.Status, o.Subtotal, o.DiscountAmount, o.PointsDiscount, o.TaxAmount,
		o.ShippingCost, o.TotalAmount, o.PointsUsed, o.CouponCode, o.ShippingMethod, o.PaymentMethod, o.Notes,
		o.ContactName, o.ContactEmail, o.ContactPhone, address, o.ShippingZone, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("%w: %s", entity.ErrDuplicateOrderNum, o.OrderNumber)
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for _, item := range o.Items {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO order_items (order_id, product_id, name, sku, price, quantity, variant) VALUES ($1, $2, $3, $4, $5, $6, $7)",
			o.ID, item.ProductID, item.Name, item.SKU, item.Price, item.Quantity, item.Variant,
		)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	for _, h := range o.History {
		if err := insertHistory(ctx, tx, o.ID, h); err != nil {
			return err
		}
	}

	if c.Coupon != nil {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO coupon_usages (coupon_id, user_id, order_id, used_at) VALUES ($1, $2, $3, $4)",
			c.Coupon.ID, o.UserID, o.ID, o.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to record coupon usage: %w", err)
		}
	}

	if c.PointsUsed > 0 {
		err = appendReward(ctx, tx, &entity.RewardEntry{
			UserID:      o.UserID,
			Points:      -c.PointsUsed,
			Type:        entity.RewardRedeemed,
			OrderID:     o.ID,
			Description: "Redeemed on order " + o.OrderNumber,
			CreatedAt:   o.CreatedAt,
		})
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// consumeCoupon increments the usage counter only while it is below the
// limit, and enforces the per-user limit under the same transaction.
func consumeCoupon(ctx context.Context, tx *sql.Tx, c *entity.Coupon, userID string) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE coupons SET used_count = used_count + 1 WHERE id = $1 AND is_active AND (usage_limit IS NULL OR used_count < usage_limit)",
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update coupon usage: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", entity.ErrCouponExhausted, c.Code)
	}

	if c.PerUserLimit > 0 {
		var used int
		err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM coupon_usages WHERE coupon_id = $1 AND user_id = $2",
			c.ID, userID,
		).Scan(&used)
		if err != nil {
			return fmt.Errorf("failed to count coupon usage: %w", err)
		}
		if used >= c.PerUserLimit {
			return entity.Invalid("coupon_code", "coupon %s can be used %d time(s) per customer", c.Code, c.PerUserLimit)
		}
	}
	return nil
}

func (s *checkoutStore) CancelOrder(ctx context.Context, o *entity.Order, from entity.OrderStatus) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := transitionOrder(ctx, tx, o, from); err != nil {
		return err
	}

	for _, item := range o.Items {
		_, err := tx.ExecContext(ctx,
			"UPDATE products SET stock = stock + $1, sold_count = GREATEST(sold_count - $1, 0) WHERE id = $2",
			item.Quantity, item.ProductID,
		)
		if err != nil {
			return fmt.Errorf("failed to restock product %s: %w", item.ProductID, err)
		}
	}

	if o.CouponCode != "" {
		res, err := tx.ExecContext(ctx, "DELETE FROM coupon_usages WHERE order_id = $1", o.ID)
		if err != nil {
			return fmt.Errorf("failed to release coupon usage: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			_, err = tx.ExecContext(ctx,
				"UPDATE coupons SET used_count = GREATEST(used_count - 1, 0) WHERE LOWER(code) = LOWER($1)",
				o.CouponCode,
			)
			if err != nil {
				return fmt.Errorf("failed to release coupon: %w", err)
			}
		}
	}

	if o.PointsUsed > 0 {
		h, _ := o.LatestHistory()
		err := appendReward(ctx, tx, &entity.RewardEntry{
			UserID:      o.UserID,
			Points:      o.PointsUsed,
			Type:        entity.RewardRefunded,
			OrderID:     o.ID,
			Description: "Refund for cancelled order " + o.OrderNumber,
			CreatedAt:   h.CreatedAt,
		})
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
