package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/egannguyen/salon-shop/backend/internal/entity"
	"github.com/egannguyen/salon-shop/backend/internal/repository"
)

const orderColumns = `id, order_number, user_id, status, subtotal, discount_amount, points_discount, tax_amount,
	shipping_cost, total_amount, points_used, coupon_code, shipping_method, payment_method, notes,
	contact_name, contact_email, contact_phone, shipping_address, shipping_zone, created_at, updated_at`

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new OrderRepository backed by Postgres.
func NewOrderRepository(db *sql.DB) repository.OrderRepository {
	return &orderRepository{db: db}
}

func scanOrder(row rowScanner) (entity.Order, error) {
	var (
		o       entity.Order
		address []byte
	)
	err := row.Scan(&o.ID, &o.OrderNumber, &o.UserID, &o.Status, &o.Subtotal, &o.DiscountAmount, &o.PointsDiscount,
		&o.TaxAmount, &o.ShippingCost, &o.TotalAmount, &o.PointsUsed, &o.CouponCode, &o.ShippingMethod,
		&o.PaymentMethod, &o.Notes, &o.ContactName, &o.ContactEmail, &o.ContactPhone, &address, &o.ShippingZone,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return o, err
	}
	if len(address) > 0 {
		var a entity.Address
		if err := json.Unmarshal(address, &a); err != nil {
			return o, fmt.Errorf("failed to decode shipping address: %w", err)
		}
		o.ShippingAddress = &a
	}
	return o, nil
}

func (r *orderRepository) FindByNumber(ctx context.Context, orderNumber string) (*entity.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE order_number = $1", orderNumber))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %s: %w", orderNumber, entity.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query order %s: %w", orderNumber, err)
	}

	if o.Items, err = r.loadItems(ctx, o.ID); err != nil {
		return nil, err
	}
	if o.History, err = r.loadHistory(ctx, o.ID); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepository) FindByUser(ctx context.Context, userID string, limit int) ([]entity.Order, error) {
	return r.list(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2",
		userID, normalizeLimit(limit),
	)
}

func (r *orderRepository) FindRecent(ctx context.Context, status entity.OrderStatus, limit int) ([]entity.Order, error) {
	if status == "" {
		return r.list(ctx, "SELECT "+orderColumns+" FROM orders ORDER BY created_at DESC LIMIT $1", normalizeLimit(limit))
	}
	return r.list(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE status = $1 ORDER BY created_at DESC LIMIT $2",
		status, normalizeLimit(limit),
	)
}

func (r *orderRepository) list(ctx context.Context, query string, args ...any) ([]entity.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []entity.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order rows: %w", err)
	}

	// Fetch items for each order
	for i := range orders {
		if orders[i].Items, err = r.loadItems(ctx, orders[i].ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *orderRepository) loadItems(ctx context.Context, orderID string) ([]entity.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT product_id, name, sku, price, quantity, variant FROM order_items WHERE order_id = $1 ORDER BY id",
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []entity.OrderItem
	for rows.Next() {
		var it entity.OrderItem
		if err := rows.Scan(&it.ProductID, &it.Name, &it.SKU, &it.Price, &it.Quantity, &it.Variant); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *orderRepository) loadHistory(ctx context.Context, orderID string) ([]entity.StatusHistory, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT status, note, changed_by, created_at FROM order_status_history WHERE order_id = $1 ORDER BY id",
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query order history: %w", err)
	}
	defer rows.Close()

	var history []entity.StatusHistory
	for rows.Next() {
		var h entity.StatusHistory
		if err := rows.Scan(&h.Status, &h.Note, &h.ChangedBy, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order history: %w", err)
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

func (r *orderRepository) UpdateStatus(ctx context.Context, o *entity.Order, from entity.OrderStatus) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := transitionOrder(ctx, tx, o, from); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// transitionOrder writes o.Status guarded by the expected previous status and
// appends o's newest history entry.
func transitionOrder(ctx context.Context, tx *sql.Tx, o *entity.Order, from entity.OrderStatus) error {
	h, ok := o.LatestHistory()
	if !ok || h.Status != o.Status {
		return fmt.Errorf("order %s has no history entry for status %s", o.OrderNumber, o.Status)
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4",
		o.Status, h.CreatedAt, o.ID, from,
	)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	} else if n == 0 {
		return fmt.Errorf("%w: order %s is no longer %s", entity.ErrInvalidTransition, o.OrderNumber, from)
	}

	return insertHistory(ctx, tx, o.ID, h)
}

func insertHistory(ctx context.Context, tx *sql.Tx, orderID string, h entity.StatusHistory) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO order_status_history (order_id, status, note, changed_by, created_at) VALUES ($1, $2, $3, $4, $5)",
		orderID, h.Status, h.Note, h.ChangedBy, h.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order history: %w", err)
	}
	return nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 200 {
		return 50
	}
	return limit
}
