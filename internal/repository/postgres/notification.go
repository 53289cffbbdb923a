package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/egannguyen/salon-shop/backend/internal/entity"
	"github.com/egannguyen/salon-shop/backend/internal/repository"
)

type notificationRepository struct {
	db *sql.DB
}

// NewNotificationRepository creates a new NotificationRepository backed by Postgres.
func NewNotificationRepository(db *sql.DB) repository.NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO notifications (id, user_id, title, message, order_id, order_number, status, is_read, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)",
		n.ID, n.UserID, n.Title, n.Message, n.OrderID, n.OrderNumber, n.Status, n.IsRead, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

func (r *notificationRepository) FindByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]entity.Notification, error) {
	query := "SELECT id, user_id, title, message, order_id, order_number, status, is_read, created_at FROM notifications WHERE user_id = $1"
	if unreadOnly {
		query += " AND NOT is_read"
	}
	query += " ORDER BY created_at DESC LIMIT $2"

	rows, err := r.db.QueryContext(ctx, query, userID, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var out []entity.Notification
	for rows.Next() {
		var n entity.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.OrderID, &n.OrderNumber, &n.Status, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *notificationRepository) MarkRead(ctx context.Context, userID, notificationID string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2",
		notificationID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("notification %s: %w", notificationID, entity.ErrNotFound)
	}
	return nil
}
