package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*miniredis.Miniredis, *cartStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewCartStore(client, time.Hour).(*cartStore)
}

func TestCartStoreAddMergesQuantities(t *testing.T) {
	_, s := newTestStore(t)
	ctx := context.Background()

	n, err := s.Add(ctx, "u-1", "prod-001", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.Add(ctx, "u-1", "prod-001", 3)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	_, err = s.Add(ctx, "u-1", "prod-002", 1)
	require.NoError(t, err)

	cart, err := s.Get(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"prod-001": 5, "prod-002": 1}, cart)
}

func TestCartStoreSetRemoveClear(t *testing.T) {
	_, s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "u-1", "prod-001", 4))
	require.NoError(t, s.Set(ctx, "u-1", "prod-002", 1))
	require.NoError(t, s.Set(ctx, "u-1", "prod-002", 0))

	cart, err := s.Get(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"prod-001": 4}, cart)

	require.NoError(t, s.Remove(ctx, "u-1", "prod-001"))
	cart, err = s.Get(ctx, "u-1")
	require.NoError(t, err)
	assert.Empty(t, cart)

	require.NoError(t, s.Set(ctx, "u-1", "prod-003", 2))
	require.NoError(t, s.Clear(ctx, "u-1"))
	cart, err = s.Get(ctx, "u-1")
	require.NoError(t, err)
	assert.Empty(t, cart)
}

func TestCartStoreIsolatesUsersAndExpires(t *testing.T) {
	mr, s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "u-1", "prod-001", 1))
	require.NoError(t, s.Set(ctx, "u-2", "prod-009", 7))

	cart, err := s.Get(ctx, "u-2")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"prod-009": 7}, cart)

	assert.Equal(t, time.Hour, mr.TTL("cart:u-1"))
	mr.FastForward(2 * time.Hour)

	cart, err = s.Get(ctx, "u-1")
	require.NoError(t, err)
	assert.Empty(t, cart)
}
