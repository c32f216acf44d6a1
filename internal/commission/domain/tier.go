package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Tier is the bracket [MinAmount, MaxAmount). A nil MaxAmount is open-ended.
type Tier struct {
	MinAmount decimal.Decimal  `json:"min_amount"`
	MaxAmount *decimal.Decimal `json:"max_amount,omitempty"`
	Rate      decimal.Decimal  `json:"percentage_rate"`
}

func (t Tier) Contains(amount decimal.Decimal) bool {
	if amount.LessThan(t.MinAmount) {
		return false
	}
	return t.MaxAmount == nil || amount.LessThan(*t.MaxAmount)
}

// ResolveTier returns the first tier containing amount and its index.
// Tiers are scanned in the given order; they are never sorted here.
func ResolveTier(amount decimal.Decimal, tiers []Tier) (Tier, int, bool) {
	for i, tier := range tiers {
		if tier.Contains(amount) {
			return tier, i, true
		}
	}
	return Tier{}, -1, false
}

// ValidateTiers checks that tiers are ascending and non-overlapping and that
// only the last tier is open-ended.
func ValidateTiers(tiers []Tier) error {
	if len(tiers) == 0 {
		return fmt.Errorf("%w: no tiers", ErrInvalidTier)
	}
	for i, tier := range tiers {
		if tier.MinAmount.IsNegative() {
			return fmt.Errorf("%w: tier %d: negative min_amount", ErrInvalidTier, i)
		}
		if tier.Rate.IsNegative() || tier.Rate.GreaterThan(hundred) {
			return fmt.Errorf("%w: tier %d: rate %s out of range 0-100", ErrInvalidTier, i, tier.Rate)
		}
		if tier.MaxAmount != nil && !tier.MaxAmount.GreaterThan(tier.MinAmount) {
			return fmt.Errorf("%w: tier %d: max_amount must exceed min_amount", ErrInvalidTier, i)
		}
		if i == 0 {
			continue
		}
		prev := tiers[i-1]
		if prev.MaxAmount == nil {
			return fmt.Errorf("%w: tier %d follows an open-ended tier", ErrTiersOverlapping, i)
		}
		if tier.MinAmount.LessThan(*prev.MaxAmount) {
			return fmt.Errorf("%w: tier %d starts at %s before tier %d ends at %s",
				ErrTiersOverlapping, i, tier.MinAmount, i-1, prev.MaxAmount)
		}
	}
	return nil
}
