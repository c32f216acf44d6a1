package domain

import (
	"testing"

	orderdomain "github.com/smallbiznis/settlement/internal/order/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func partyPtr(p PartyType) *PartyType { return &p }

func TestMatchFirstRuleWins(t *testing.T) {
	rules := []Rule{
		PercentageRule{RuleMeta: RuleMeta{ID: "supplier-only", AppliesTo: AppliesTo{PartyType: partyPtr(PartySupplier)}}, Rate: dec("1")},
		PercentageRule{RuleMeta: RuleMeta{ID: "product-x", AppliesTo: AppliesTo{ProductIDs: []string{"x"}}}, Rate: dec("2")},
		PercentageRule{RuleMeta: RuleMeta{ID: "seller-x", AppliesTo: AppliesTo{PartyType: partyPtr(PartySeller), ProductIDs: []string{"x"}}}, Rate: dec("3")},
		PercentageRule{RuleMeta: RuleMeta{ID: "default"}, Rate: dec("10")},
	}

	rule, ok := Match(orderdomain.LineItem{ProductID: "x"}, PartySeller, rules)
	require.True(t, ok)
	assert.Equal(t, "product-x", rule.Meta().ID)

	rule, ok = Match(orderdomain.LineItem{ProductID: "y"}, PartySeller, rules)
	require.True(t, ok)
	assert.Equal(t, "default", rule.Meta().ID)

	rule, ok = Match(orderdomain.LineItem{ProductID: "y"}, PartySupplier, rules)
	require.True(t, ok)
	assert.Equal(t, "supplier-only", rule.Meta().ID)
}

func TestMatchNoRule(t *testing.T) {
	rules := []Rule{
		FixedRule{RuleMeta: RuleMeta{ID: "partner-only", AppliesTo: AppliesTo{PartyType: partyPtr(PartyPartner)}}, Amount: dec("5")},
	}
	_, ok := Match(orderdomain.LineItem{ProductID: "a"}, PartySeller, rules)
	assert.False(t, ok)
}

func TestRuleSetValidate(t *testing.T) {
	assert.ErrorIs(t, RuleSet{ID: "v1"}.Validate(), ErrEmptyRuleSet)

	dup := RuleSet{ID: "v1", Rules: []Rule{
		PercentageRule{RuleMeta: RuleMeta{ID: "a"}, Rate: dec("1")},
		FixedRule{RuleMeta: RuleMeta{ID: "a"}, Amount: dec("1")},
	}}
	assert.ErrorIs(t, dup.Validate(), ErrDuplicateRuleID)

	badTiers := RuleSet{ID: "v1", Rules: []Rule{
		TieredRule{RuleMeta: RuleMeta{ID: "t"}, Tiers: []Tier{
			{MinAmount: dec("0"), MaxAmount: decPtr("10"), Rate: dec("1")},
			{MinAmount: dec("5"), Rate: dec("2")},
		}},
	}}
	assert.ErrorIs(t, badTiers.Validate(), ErrTiersOverlapping)

	ok := RuleSet{ID: "v1", Rules: []Rule{TieredRule{RuleMeta: RuleMeta{ID: "t"}, Tiers: twoTiers()}}}
	assert.NoError(t, ok.Validate())
}
