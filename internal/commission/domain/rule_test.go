package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRuleVariants(t *testing.T) {
	rule, err := NewRule(RuleSpec{ID: "pct", Kind: KindPercentage, PercentageRate: "10"})
	require.NoError(t, err)
	pct, ok := rule.(PercentageRule)
	require.True(t, ok)
	assert.True(t, pct.Rate.Equal(dec("10")))
	assert.True(t, pct.AppliesTo.IsDefault())

	rule, err = NewRule(RuleSpec{
		ID:          "fixed",
		Kind:        KindFixed,
		FixedAmount: "250",
		AppliesTo:   AppliesToSpec{PartyType: "Seller", ProductIDs: []string{"p-1", " "}},
	})
	require.NoError(t, err)
	fixed := rule.(FixedRule)
	require.NotNil(t, fixed.AppliesTo.PartyType)
	assert.Equal(t, PartySeller, *fixed.AppliesTo.PartyType)
	assert.Equal(t, []string{"p-1"}, fixed.AppliesTo.ProductIDs)

	rule, err = NewRule(RuleSpec{
		ID:   "tiered",
		Kind: KindTiered,
		Tiers: []TierSpec{
			{MinAmount: "0", MaxAmount: "1000", PercentageRate: "5"},
			{MinAmount: "1000", PercentageRate: "8"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, KindTiered, rule.Kind())
	assert.Len(t, rule.(TieredRule).Tiers, 2)
}

func TestNewRuleRejectsMismatchedPayload(t *testing.T) {
	cases := map[string]RuleSpec{
		"percentage with fixed": {ID: "a", Kind: KindPercentage, PercentageRate: "5", FixedAmount: "1"},
		"percentage missing":    {ID: "b", Kind: KindPercentage},
		"fixed with tiers":      {ID: "c", Kind: KindFixed, FixedAmount: "1", Tiers: []TierSpec{{MinAmount: "0", PercentageRate: "1"}}},
		"tiered with rate":      {ID: "d", Kind: KindTiered, PercentageRate: "1"},
		"rate out of range":     {ID: "e", Kind: KindPercentage, PercentageRate: "120"},
		"negative fixed":        {ID: "f", Kind: KindFixed, FixedAmount: "-3"},
		"unknown party":         {ID: "g", Kind: KindPercentage, PercentageRate: "1", AppliesTo: AppliesToSpec{PartyType: "reseller"}},
		"missing id":            {Kind: KindPercentage, PercentageRate: "1"},
	}
	for name, spec := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewRule(spec)
			assert.ErrorIs(t, err, ErrInvalidRule)
		})
	}

	_, err := NewRule(RuleSpec{ID: "h", Kind: "bonus"})
	assert.ErrorIs(t, err, ErrInvalidRuleKind)

	_, err = NewRule(RuleSpec{ID: "i", Kind: KindTiered, Tiers: []TierSpec{
		{MinAmount: "0", MaxAmount: "100", PercentageRate: "1"},
		{MinAmount: "50", PercentageRate: "2"},
	}})
	assert.ErrorIs(t, err, ErrTiersOverlapping)
}

func TestParseParty(t *testing.T) {
	p, err := ParseParty(" Seller:42 ", "IDR")
	require.NoError(t, err)
	assert.Equal(t, Party{Type: PartySeller, ID: "42", Currency: "IDR"}, p)
	assert.Equal(t, "seller:42", p.Key())

	_, err = ParseParty("seller:", "IDR")
	assert.ErrorIs(t, err, ErrInvalidParty)
	_, err = ParseParty("buyer:1", "IDR")
	assert.ErrorIs(t, err, ErrInvalidParty)
}
