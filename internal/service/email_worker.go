package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/egannguyen/salon-shop/backend/internal/email"
	"github.com/egannguyen/salon-shop/backend/internal/entity"
	"github.com/egannguyen/salon-shop/backend/internal/messaging"
)

const emailSendTimeout = 15 * time.Second

// EmailWorker sends order confirmation emails for placed orders.
type EmailWorker struct {
	subscriber messaging.Subscriber
	sender     email.Sender
	groupID    string
}

func NewEmailWorker(subscriber messaging.Subscriber, sender email.Sender, groupID string) *EmailWorker {
	return &EmailWorker{subscriber: subscriber, sender: sender, groupID: groupID}
}

// Run consumes orders.placed until ctx is cancelled.
func (w *EmailWorker) Run(ctx context.Context) {
	slog.Info("Email worker started", "topic", entity.TopicOrdersPlaced, "group", w.groupID)
	w.subscriber.Consume(ctx, entity.TopicOrdersPlaced, w.groupID, w.HandleOrderPlaced)
}

// HandleOrderPlaced renders and sends one confirmation. Send failures are
// logged and swallowed; the order is already committed.
func (w *EmailWorker) HandleOrderPlaced(ctx context.Context, payload []byte) error {
	var evt entity.OrderPlaced
	if err := json.Unmarshal(payload, &evt); err != nil {
		return fmt.Errorf("failed to decode order placed event: %w", err)
	}
	if evt.CustomerEmail == "" {
		slog.Warn("Order has no contact email, skipping confirmation", "order_number", evt.OrderNumber)
		return nil
	}

	msg, err := email.OrderConfirmation(evt)
	if err != nil {
		return err
	}

	sendCtx, cancel := context.WithTimeout(ctx, emailSendTimeout)
	defer cancel()
	if err := w.sender.Send(sendCtx, msg); err != nil {
		slog.Error("Failed to send confirmation email", "order_number", evt.OrderNumber, "to", evt.CustomerEmail, "err", err)
		return nil
	}
	slog.Info("Confirmation email sent", "order_number", evt.OrderNumber, "to", evt.CustomerEmail)
	return nil
}
