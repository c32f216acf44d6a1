package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func twoTiers() []Tier {
	return []Tier{
		{MinAmount: dec("0"), MaxAmount: decPtr("1000"), Rate: dec("5")},
		{MinAmount: dec("1000"), Rate: dec("8")},
	}
}

func TestResolveTierPicksSecondBracket(t *testing.T) {
	tier, idx, ok := ResolveTier(dec("1500"), twoTiers())
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.True(t, tier.Rate.Equal(dec("8")))
}

func TestResolveTierBoundaries(t *testing.T) {
	tiers := twoTiers()

	_, idx, ok := ResolveTier(dec("999.99"), tiers)
	require.True(t, ok)
	assert.Equal(t, 0, idx)

	_, idx, ok = ResolveTier(dec("1000"), tiers)
	require.True(t, ok)
	assert.Equal(t, 1, idx, "max is exclusive")

	_, _, ok = ResolveTier(dec("-1"), tiers)
	assert.False(t, ok)
}

func TestResolveTierFirstMatchPrecedence(t *testing.T) {
	// Overlapping on purpose: the resolver must not sort or pick the best tier.
	tiers := []Tier{
		{MinAmount: dec("0"), MaxAmount: decPtr("500"), Rate: dec("1")},
		{MinAmount: dec("100"), MaxAmount: decPtr("2000"), Rate: dec("2")},
		{MinAmount: dec("0"), Rate: dec("3")},
	}

	for amount := int64(-50); amount <= 2500; amount += 25 {
		a := decimal.NewFromInt(amount)
		tier, idx, ok := ResolveTier(a, tiers)
		if !ok {
			assert.True(t, a.IsNegative(), "amount %s should match", a)
			continue
		}
		assert.True(t, tier.Contains(a))
		for j := 0; j < idx; j++ {
			assert.False(t, tiers[j].Contains(a), "earlier tier %d also matches %s", j, a)
		}
	}
}

func TestValidateTiers(t *testing.T) {
	assert.NoError(t, ValidateTiers(twoTiers()))

	assert.ErrorIs(t, ValidateTiers(nil), ErrInvalidTier)

	overlapping := []Tier{
		{MinAmount: dec("0"), MaxAmount: decPtr("1000"), Rate: dec("5")},
		{MinAmount: dec("900"), Rate: dec("8")},
	}
	assert.ErrorIs(t, ValidateTiers(overlapping), ErrTiersOverlapping)

	openInMiddle := []Tier{
		{MinAmount: dec("0"), Rate: dec("5")},
		{MinAmount: dec("1000"), Rate: dec("8")},
	}
	assert.ErrorIs(t, ValidateTiers(openInMiddle), ErrTiersOverlapping)

	inverted := []Tier{{MinAmount: dec("10"), MaxAmount: decPtr("5"), Rate: dec("1")}}
	assert.ErrorIs(t, ValidateTiers(inverted), ErrInvalidTier)

	badRate := []Tier{{MinAmount: dec("0"), Rate: dec("101")}}
	assert.ErrorIs(t, ValidateTiers(badRate), ErrInvalidTier)
}
