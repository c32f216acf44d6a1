// Package calculator turns a matched commission rule and an order line into
// the gross, commission and net amounts owed to one party.
package calculator

import (
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/settlement/internal/commission/domain"
	orderdomain "github.com/smallbiznis/settlement/internal/order/domain"
)

// AmountScale is the number of decimal places amounts are stored with.
const AmountScale = 4

// Result holds the amounts for one (line, party) pair. Net always equals
// Gross minus Commission.
type Result struct {
	Gross       decimal.Decimal
	Commission  decimal.Decimal
	Net         decimal.Decimal
	TierIndex   int
	TierApplied bool
}

// IsRelevant reports whether the line contributes to the party's settlement.
func IsRelevant(item orderdomain.LineItem, party domain.Party) bool {
	switch party.Type {
	case domain.PartySeller:
		return item.SellerID != "" && item.SellerID == party.ID
	case domain.PartySupplier:
		return item.SupplierID != "" && item.SupplierID == party.ID
	case domain.PartyPlatform:
		return true
	case domain.PartyPartner:
		return item.Attribute(orderdomain.AttrPartnerID) == party.ID ||
			item.Attribute(orderdomain.AttrReferralPartnerID) == party.ID
	default:
		return false
	}
}

// Calculate applies rule to item from the point of view of partyType.
//
// Sellers are charged the rule amount on the line total. Suppliers are paid
// base cost and never charged. Platforms and partners receive the rule
// amount as gross.
func Calculate(rule domain.Rule, item orderdomain.LineItem, partyType domain.PartyType) Result {
	var res Result

	switch partyType {
	case domain.PartySeller:
		res.Gross = item.TotalPrice
		res.Commission, res.TierIndex, res.TierApplied = RuleAmount(rule, item.TotalPrice, item.Quantity)
	case domain.PartySupplier:
		res.Gross = BaseAmount(item)
		res.Commission = decimal.Zero
		res.TierIndex = -1
	case domain.PartyPlatform, domain.PartyPartner:
		res.Gross, res.TierIndex, res.TierApplied = RuleAmount(rule, item.TotalPrice, item.Quantity)
		res.Commission = decimal.Zero
	default:
		res.Gross = decimal.Zero
		res.Commission = decimal.Zero
		res.TierIndex = -1
	}

	res.Net = res.Gross.Sub(res.Commission)
	return res
}

// RuleAmount evaluates rule against a base amount, rounded to AmountScale. A
// tiered rule whose tiers do not cover amount yields zero with tierApplied
// false.
func RuleAmount(rule domain.Rule, amount decimal.Decimal, quantity int64) (value decimal.Decimal, tierIndex int, tierApplied bool) {
	value, tierIndex, tierApplied = ruleAmount(rule, amount, quantity)
	return value.Round(AmountScale), tierIndex, tierApplied
}

func ruleAmount(rule domain.Rule, amount decimal.Decimal, quantity int64) (decimal.Decimal, int, bool) {
	switch r := rule.(type) {
	case domain.PercentageRule:
		return Percent(amount, r.Rate), -1, false
	case domain.FixedRule:
		return r.Amount.Mul(decimal.NewFromInt(quantity)), -1, false
	case domain.TieredRule:
		tier, idx, ok := domain.ResolveTier(amount, r.Tiers)
		if !ok {
			return decimal.Zero, -1, false
		}
		return Percent(amount, tier.Rate), idx, true
	default:
		return decimal.Zero, -1, false
	}
}

// BaseAmount is the supplier cost of the line, zero without a snapshot.
func BaseAmount(item orderdomain.LineItem) decimal.Decimal {
	if !item.BasePriceSnapshot.Valid {
		return decimal.Zero
	}
	return item.BasePriceSnapshot.Decimal.Mul(decimal.NewFromInt(item.Quantity)).Round(AmountScale)
}

// Percent returns rate percent of amount without leaving decimal arithmetic.
func Percent(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate.Shift(-2))
}
