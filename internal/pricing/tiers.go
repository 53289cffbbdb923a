package pricing

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/egannguyen/salon-shop/backend/internal/entity"
)

// DefaultTiers is the loyalty table used when none is configured.
func DefaultTiers() []entity.RewardTier {
	return []entity.RewardTier{
		{Name: "Bronze", MinPoints: 0, Multiplier: decimal.NewFromInt(1), Benefits: []string{"Earn 1 point per 1,000 spent"}},
		{Name: "Silver", MinPoints: 1000, Multiplier: decimal.NewFromFloat(1.25), Benefits: []string{"1.25x points", "Birthday voucher"}},
		{Name: "Gold", MinPoints: 5000, Multiplier: decimal.NewFromFloat(1.5), Benefits: []string{"1.5x points", "Free express shipping day", "Priority booking"}},
		{Name: "Platinum", MinPoints: 10000, Multiplier: decimal.NewFromInt(2), Benefits: []string{"2x points", "Dedicated stylist", "Early access to sales"}},
	}
}

// SortTiers orders tiers by ascending threshold.
func SortTiers(tiers []entity.RewardTier) []entity.RewardTier {
	out := append([]entity.RewardTier(nil), tiers...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].MinPoints < out[j].MinPoints })
	return out
}

// TierFor classifies balance by a linear scan over the bands. Balances below
// every threshold fall into the lowest band.
func TierFor(balance int64, tiers []entity.RewardTier) entity.RewardTier {
	if len(tiers) == 0 {
		return entity.RewardTier{Name: "Member", Multiplier: decimal.NewFromInt(1)}
	}
	best := -1
	lowest := 0
	for i, t := range tiers {
		if t.MinPoints < tiers[lowest].MinPoints {
			lowest = i
		}
		if t.MinPoints <= balance && (best < 0 || t.MinPoints > tiers[best].MinPoints) {
			best = i
		}
	}
	if best < 0 {
		return tiers[lowest]
	}
	return tiers[best]
}

// NextTier returns the band directly above balance, if any.
func NextTier(balance int64, tiers []entity.RewardTier) (entity.RewardTier, bool) {
	next := -1
	for i, t := range tiers {
		if t.MinPoints > balance && (next < 0 || t.MinPoints < tiers[next].MinPoints) {
			next = i
		}
	}
	if next < 0 {
		return entity.RewardTier{}, false
	}
	return tiers[next], true
}

// EarnedPoints is floor(amount / EarnUnit * multiplier).
func EarnedPoints(amount decimal.Decimal, tier entity.RewardTier, r Rates) int64 {
	if !amount.IsPositive() || !r.EarnUnit.IsPositive() {
		return 0
	}
	mult := tier.Multiplier
	if mult.IsZero() {
		mult = decimal.NewFromInt(1)
	}
	return amount.Div(r.EarnUnit).Mul(mult).Floor().IntPart()
}
