package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/egannguyen/salon-shop/backend/internal/repository"
)

type cartStore struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewCartStore creates a CartStore keeping one hash per user
// (field = product id, value = quantity). Carts expire after ttl of inactivity.
func NewCartStore(client *goredis.Client, ttl time.Duration) repository.CartStore {
	return &cartStore{client: client, ttl: ttl}
}

func cartKey(userID string) string {
	return "cart:" + userID
}

func (s *cartStore) Get(ctx context.Context, userID string) (map[string]int, error) {
	raw, err := s.client.HGetAll(ctx, cartKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	out := make(map[string]int, len(raw))
	for productID, v := range raw {
		qty, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("corrupt cart quantity for %s: %w", productID, err)
		}
		if qty > 0 {
			out[productID] = qty
		}
	}
	return out, nil
}

func (s *cartStore) Add(ctx context.Context, userID, productID string, quantity int) (int, error) {
	key := cartKey(userID)

	pipe := s.client.TxPipeline()
	incr := pipe.HIncrBy(ctx, key, productID, int64(quantity))
	s.touch(ctx, pipe, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to add cart item: %w", err)
	}
	return int(incr.Val()), nil
}

func (s *cartStore) Set(ctx context.Context, userID, productID string, quantity int) error {
	if quantity <= 0 {
		return s.Remove(ctx, userID, productID)
	}
	key := cartKey(userID)

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, productID, quantity)
	s.touch(ctx, pipe, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set cart item: %w", err)
	}
	return nil
}

func (s *cartStore) Remove(ctx context.Context, userID, productID string) error {
	if err := s.client.HDel(ctx, cartKey(userID), productID).Err(); err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	return nil
}

func (s *cartStore) Clear(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, cartKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func (s *cartStore) touch(ctx context.Context, pipe goredis.Pipeliner, key string) {
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
}
