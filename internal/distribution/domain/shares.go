package domain

import (
	"github.com/shopspring/decimal"
	orgdomain "github.com/smallbiznis/settlement/internal/organization/domain"
	policydomain "github.com/smallbiznis/settlement/internal/policy/domain"
)

// Shares is how one organization's collection splits across the hierarchy.
// Branch+Division+National always equals the collected total.
type Shares struct {
	Branch     decimal.Decimal `json:"branch"`
	Division   decimal.Decimal `json:"division"`
	National   decimal.Decimal `json:"national"`
	Remittance decimal.Decimal `json:"remittance"`
}

// CalculateShares rounds the national and division shares to whole units and
// leaves the remainder with the branch. Branches remit national+division to
// their division, divisions remit national, national remits nothing.
func CalculateShares(total decimal.Decimal, orgType orgdomain.Type, rates policydomain.DistributionRates) Shares {
	national := total.Mul(rates.NationalRate).Round(0)
	division := total.Mul(rates.DivisionRate).Round(0)
	shares := Shares{
		National:   national,
		Division:   division,
		Branch:     total.Sub(national).Sub(division),
		Remittance: decimal.Zero,
	}

	switch orgType {
	case orgdomain.TypeBranch:
		shares.Remittance = national.Add(division)
	case orgdomain.TypeDivision:
		shares.Remittance = national
	}
	return shares
}

var hundred = decimal.NewFromInt(100)

// CollectionRate is paid/invoiced as a percentage with two decimals.
func CollectionRate(paid, invoiced decimal.Decimal) decimal.Decimal {
	if !invoiced.IsPositive() {
		return decimal.Zero
	}
	return paid.Div(invoiced).Mul(hundred).Round(2)
}
