package service

import (
	"context"
	"fmt"

	"github.com/egannguyen/salon-shop/backend/internal/auth"
	"github.com/egannguyen/salon-shop/backend/internal/entity"
	"github.com/egannguyen/salon-shop/backend/internal/repository"
)

// Notifier creates a user-facing alert about an order.
type Notifier interface {
	Notify(ctx context.Context, userID, orderNumber string, status entity.OrderStatus, orderID string) error
}

// NotificationService stores and lists in-app notifications.
type NotificationService struct {
	repo repository.NotificationRepository
}

func NewNotificationService(repo repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

var statusMessages = map[entity.OrderStatus]struct{ title, body string }{
	entity.OrderPending:        {"Order placed", "We received your order %s and will confirm it shortly."},
	entity.OrderConfirmed:      {"Order confirmed", "Your order %s has been confirmed."},
	entity.OrderProcessing:     {"Order processing", "We are preparing your order %s."},
	entity.OrderShipped:        {"Order shipped", "Your order %s is on its way."},
	entity.OrderOutForDelivery: {"Out for delivery", "Your order %s is out for delivery today."},
	entity.OrderDelivered:      {"Order delivered", "Your order %s was delivered. Enjoy!"},
	entity.OrderCancelled:      {"Order cancelled", "Your order %s has been cancelled."},
	entity.OrderRefunded:       {"Order refunded", "Your order %s has been refunded."},
}

func (s *NotificationService) Notify(ctx context.Context, userID, orderNumber string, status entity.OrderStatus, orderID string) error {
	msg, ok := statusMessages[status]
	if !ok {
		msg = statusMessages[entity.OrderPending]
	}
	return s.repo.Create(ctx, &entity.Notification{
		UserID:      userID,
		Title:       msg.title,
		Message:     fmt.Sprintf(msg.body, orderNumber),
		OrderID:     orderID,
		OrderNumber: orderNumber,
		Status:      status,
	})
}

// List returns the caller's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, id *entity.Identity, unreadOnly bool) ([]entity.Notification, error) {
	if err := auth.Authorize(id, auth.CapShop); err != nil {
		return nil, err
	}
	return s.repo.FindByUser(ctx, id.UserID, unreadOnly, 50)
}

// MarkRead marks one of the caller's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, id *entity.Identity, notificationID string) error {
	if err := auth.Authorize(id, auth.CapShop); err != nil {
		return err
	}
	return s.repo.MarkRead(ctx, id.UserID, notificationID)
}
