package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egannguyen/salon-shop/backend/internal/entity"
	"github.com/egannguyen/salon-shop/backend/internal/pricing"
	"github.com/egannguyen/salon-shop/backend/internal/repository/memory"
)

func TestRewardService_Summary(t *testing.T) {
	repo := memory.NewStore().Rewards()
	svc := NewRewardService(repo, pricing.DefaultRates(), pricing.DefaultTiers())
	ctx := context.Background()
	require.NoError(t, repo.Append(ctx, &entity.RewardEntry{UserID: customer.UserID, Points: 1250, Type: entity.RewardAdjusted}))

	sum, err := svc.Summary(ctx, customer, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1250), sum.Balance)
	assert.Equal(t, "12000", sum.PointsValue.String())
	assert.Equal(t, "Silver", sum.Tier.Name)
	require.NotNil(t, sum.NextTier)
	assert.Equal(t, "Gold", sum.NextTier.Name)
	assert.Equal(t, int64(3750), sum.PointsToNext)
	assert.Len(t, sum.Entries, 1)

	_, err = svc.Summary(ctx, other, customer.UserID)
	assert.ErrorIs(t, err, entity.ErrForbidden)

	sum, err = svc.Summary(ctx, admin, customer.UserID)
	require.NoError(t, err)
	assert.Equal(t, int64(1250), sum.Balance)
}

func TestRewardService_EarnUsesTierMultiplier(t *testing.T) {
	repo := memory.NewStore().Rewards()
	svc := NewRewardService(repo, pricing.DefaultRates(), pricing.DefaultTiers())
	ctx := context.Background()
	require.NoError(t, repo.Append(ctx, &entity.RewardEntry{UserID: customer.UserID, Points: 5000, Type: entity.RewardAdjusted}))

	order := &entity.Order{
		ID: "o-1", OrderNumber: "ORD-260310-093000-ABCDEF12", UserID: customer.UserID,
		Subtotal:       decimal.NewFromInt(220000),
		DiscountAmount: decimal.NewFromInt(20000),
		PointsDiscount: decimal.Zero,
	}
	earned, err := svc.EarnForOrder(ctx, order)
	require.NoError(t, err)
	// 200,000 paid at Gold (1.5x) earns 300.
	assert.Equal(t, int64(300), earned)

	balance, _ := repo.Balance(ctx, customer.UserID)
	assert.Equal(t, int64(5300), balance)
}

func TestRewardService_SettleRefundAndRecompute(t *testing.T) {
	repo := memory.NewStore().Rewards()
	svc := NewRewardService(repo, pricing.DefaultRates(), pricing.DefaultTiers())
	ctx := context.Background()

	require.NoError(t, svc.SettleRefund(ctx, &entity.Order{ID: "o-1", OrderNumber: "ORD-1", UserID: customer.UserID, PointsUsed: 400}))
	require.NoError(t, svc.SettleRefund(ctx, &entity.Order{ID: "o-2", OrderNumber: "ORD-2", UserID: customer.UserID}))

	_, err := svc.Recompute(ctx, customer, customer.UserID)
	assert.ErrorIs(t, err, entity.ErrForbidden)

	balance, err := svc.Recompute(ctx, admin, customer.UserID)
	require.NoError(t, err)
	assert.Equal(t, int64(400), balance)
}

func TestRewardService_SettleRefundReversesEarnedPoints(t *testing.T) {
	repo := memory.NewStore().Rewards()
	svc := NewRewardService(repo, pricing.DefaultRates(), pricing.DefaultTiers())
	ctx := context.Background()

	delivered := &entity.Order{
		ID: "o-1", OrderNumber: "ORD-1", UserID: customer.UserID,
		Subtotal: decimal.NewFromInt(200000), PointsUsed: 100, PointsDiscount: decimal.NewFromInt(1000),
	}
	earned, err := svc.EarnForOrder(ctx, delivered)
	require.NoError(t, err)
	require.Positive(t, earned)

	require.NoError(t, svc.SettleRefund(ctx, delivered))

	balance, _ := repo.Balance(ctx, customer.UserID)
	assert.Equal(t, int64(100), balance, "redeemed points come back, earned points go")
	reversed, err := repo.OrderPoints(ctx, "o-1", entity.RewardReversed)
	require.NoError(t, err)
	assert.Equal(t, -earned, reversed)
}

func TestRewardService_SettleRefundCapsReversalAtBalance(t *testing.T) {
	repo := memory.NewStore().Rewards()
	svc := NewRewardService(repo, pricing.DefaultRates(), pricing.DefaultTiers())
	ctx := context.Background()

	delivered := &entity.Order{ID: "o-1", OrderNumber: "ORD-1", UserID: customer.UserID, Subtotal: decimal.NewFromInt(300000)}
	earned, err := svc.EarnForOrder(ctx, delivered)
	require.NoError(t, err)
	require.Equal(t, int64(300), earned)

	// The customer spends most of it on another order first.
	require.NoError(t, repo.Append(ctx, &entity.RewardEntry{UserID: customer.UserID, Points: -200, Type: entity.RewardRedeemed, OrderID: "o-2"}))

	require.NoError(t, svc.SettleRefund(ctx, delivered))

	balance, _ := repo.Balance(ctx, customer.UserID)
	assert.Zero(t, balance)
	reversed, _ := repo.OrderPoints(ctx, "o-1", entity.RewardReversed)
	assert.Equal(t, int64(-100), reversed)
}

func TestRewardService_TiersAreSorted(t *testing.T) {
	tiers := pricing.DefaultTiers()
	tiers[0], tiers[3] = tiers[3], tiers[0]
	svc := NewRewardService(memory.NewStore().Rewards(), pricing.DefaultRates(), tiers)

	got := svc.Tiers()
	require.Len(t, got, 4)
	assert.Equal(t, "Bronze", got[0].Name)
	assert.Equal(t, "Platinum", got[3].Name)
}
