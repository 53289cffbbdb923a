package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/egannguyen/salon-shop/backend/internal/email"
	"github.com/egannguyen/salon-shop/backend/internal/entity"
	"github.com/egannguyen/salon-shop/backend/internal/messaging"
	"github.com/egannguyen/salon-shop/backend/internal/repository"
)

// collidingCheckout fails the first n placements with an order number clash.
type collidingCheckout struct {
	repository.CheckoutStore

	mu         sync.Mutex
	duplicates int
	attempts   int
}

func (c *collidingCheckout) PlaceOrder(ctx context.Context, co *entity.Checkout) error {
	c.mu.Lock()
	c.attempts++
	if c.duplicates > 0 {
		c.duplicates--
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", entity.ErrDuplicateOrderNum, co.Order.OrderNumber)
	}
	c.mu.Unlock()
	return c.CheckoutStore.PlaceOrder(ctx, co)
}

type published struct {
	topic string
	key   string
	event any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, published{topic: topic, key: key, event: event})
	return nil
}

func (p *recordingPublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.topic)
	}
	return out
}

// stalledPublisher never acknowledges a write; it returns once ctx ends.
type stalledPublisher struct {
	mu  sync.Mutex
	err error
}

func (p *stalledPublisher) PublishEvent(ctx context.Context, _, _ string, _ any) error {
	<-ctx.Done()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = ctx.Err()
	return p.err
}

func (p *stalledPublisher) lastErr() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// replaySubscriber feeds recorded payloads to the handler once.
type replaySubscriber struct {
	payloads [][]byte
}

func (s *replaySubscriber) Consume(ctx context.Context, _ string, _ string, handler messaging.Handler) {
	for _, p := range s.payloads {
		_ = handler(ctx, p)
	}
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

type recordingSender struct {
	mu   sync.Mutex
	sent []email.Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg email.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}
