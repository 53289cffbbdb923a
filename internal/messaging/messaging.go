// Package messaging defines the broker-neutral side of order event delivery.
package messaging

import "context"

// Handler processes one message payload. A returned error is logged by the
// subscriber; the offset is committed either way.
type Handler func(ctx context.Context, payload []byte) error

// Publisher writes an event to a topic, keyed so that every event of one
// order lands on the same partition.
type Publisher interface {
	PublishEvent(ctx context.Context, topic string, key string, event any) error
}

// Subscriber reads a topic as part of a consumer group.
// Consume blocks until ctx is cancelled.
type Subscriber interface {
	Consume(ctx context.Context, topic string, groupID string, handler Handler)
}
