package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/egannguyen/salon-shop/backend/internal/auth"
	"github.com/egannguyen/salon-shop/backend/internal/entity"
	"github.com/egannguyen/salon-shop/backend/internal/pricing"
	"github.com/egannguyen/salon-shop/backend/internal/repository"
)

// RewardSummary is a user's loyalty standing.
type RewardSummary struct {
	Balance      int64                `json:"balance"`
	PointsValue  decimal.Decimal      `json:"points_value"`
	Tier         entity.RewardTier    `json:"tier"`
	NextTier     *entity.RewardTier   `json:"next_tier,omitempty"`
	PointsToNext int64                `json:"points_to_next,omitempty"`
	Entries      []entity.RewardEntry `json:"entries"`
}

// RewardService orchestrates the points ledger and tier classification.
type RewardService struct {
	repo  repository.RewardRepository
	rates pricing.Rates
	tiers []entity.RewardTier
}

func NewRewardService(repo repository.RewardRepository, rates pricing.Rates, tiers []entity.RewardTier) *RewardService {
	return &RewardService{repo: repo, rates: rates, tiers: pricing.SortTiers(tiers)}
}

// Tiers returns the loyalty bands in ascending order.
func (s *RewardService) Tiers() []entity.RewardTier {
	return s.tiers
}

// Summary returns the balance, tier and recent ledger of userID. Callers may
// only read their own ledger unless they hold CapViewAllRewards.
func (s *RewardService) Summary(ctx context.Context, id *entity.Identity, userID string) (*RewardSummary, error) {
	if err := auth.Authorize(id, auth.CapShop); err != nil {
		return nil, err
	}
	if userID == "" {
		userID = id.UserID
	}
	if userID != id.UserID {
		if err := auth.Authorize(id, auth.CapViewAllRewards); err != nil {
			return nil, err
		}
	}

	balance, err := s.repo.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}
	entries, err := s.repo.Entries(ctx, userID, 50)
	if err != nil {
		return nil, err
	}

	sum := &RewardSummary{
		Balance:     balance,
		PointsValue: pricing.PointsValue(balance, s.rates),
		Tier:        pricing.TierFor(balance, s.tiers),
		Entries:     entries,
	}
	if next, ok := pricing.NextTier(balance, s.tiers); ok {
		sum.NextTier = &next
		sum.PointsToNext = next.MinPoints - balance
	}
	return sum, nil
}

// EarnForOrder credits the points a delivered order earns at the user's
// current tier multiplier. Returns the points credited.
func (s *RewardService) EarnForOrder(ctx context.Context, o *entity.Order) (int64, error) {
	balance, err := s.repo.Balance(ctx, o.UserID)
	if err != nil {
		return 0, err
	}
	tier := pricing.TierFor(balance, s.tiers)
	paid := o.Subtotal.Sub(o.DiscountAmount).Sub(o.PointsDiscount)

	points := pricing.EarnedPoints(paid, tier, s.rates)
	if points <= 0 {
		return 0, nil
	}

	err = s.repo.Append(ctx, &entity.RewardEntry{
		UserID:      o.UserID,
		Points:      points,
		Type:        entity.RewardEarned,
		OrderID:     o.ID,
		Description: fmt.Sprintf("Earned on order %s (%s tier)", o.OrderNumber, tier.Name),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to credit points for %s: %w", o.OrderNumber, err)
	}
	slog.Info("Reward points earned", "user_id", o.UserID, "order_number", o.OrderNumber, "points", points, "tier", tier.Name)
	return points, nil
}

// SettleRefund returns the points spent on a refunded order and takes back
// the points it earned on delivery. The reversal is capped at the balance
// left after the refund; points already spent elsewhere are not clawed back.
func (s *RewardService) SettleRefund(ctx context.Context, o *entity.Order) error {
	if o.PointsUsed > 0 {
		err := s.repo.Append(ctx, &entity.RewardEntry{
			UserID:      o.UserID,
			Points:      o.PointsUsed,
			Type:        entity.RewardRefunded,
			OrderID:     o.ID,
			Description: "Refund for order " + o.OrderNumber,
		})
		if err != nil {
			return fmt.Errorf("failed to refund points for %s: %w", o.OrderNumber, err)
		}
	}

	earned, err := s.repo.OrderPoints(ctx, o.ID, entity.RewardEarned)
	if err != nil {
		return err
	}
	if earned <= 0 {
		return nil
	}
	balance, err := s.repo.Balance(ctx, o.UserID)
	if err != nil {
		return err
	}
	reverse := min(earned, balance)
	if reverse < earned {
		slog.Warn("Earned points partly spent, reversing what is left",
			"user_id", o.UserID, "order_number", o.OrderNumber, "earned", earned, "reversed", reverse)
	}
	if reverse <= 0 {
		return nil
	}

	err = s.repo.Append(ctx, &entity.RewardEntry{
		UserID:      o.UserID,
		Points:      -reverse,
		Type:        entity.RewardReversed,
		OrderID:     o.ID,
		Description: "Reversal of points earned on refunded order " + o.OrderNumber,
	})
	if err != nil {
		return fmt.Errorf("failed to reverse earned points for %s: %w", o.OrderNumber, err)
	}
	return nil
}

// Recompute rebuilds userID's materialized balance from the ledger.
func (s *RewardService) Recompute(ctx context.Context, id *entity.Identity, userID string) (int64, error) {
	if err := auth.Authorize(id, auth.CapViewAllRewards); err != nil {
		return 0, err
	}
	return s.repo.Recompute(ctx, userID)
}
