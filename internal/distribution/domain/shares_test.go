package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	orgdomain "github.com/smallbiznis/settlement/internal/organization/domain"
	policydomain "github.com/smallbiznis/settlement/internal/policy/domain"
	"github.com/stretchr/testify/assert"
)

func TestCalculateSharesBranch(t *testing.T) {
	shares := CalculateShares(decimal.NewFromInt(100000), orgdomain.TypeBranch, policydomain.DefaultRates())

	assert.True(t, shares.National.Equal(decimal.NewFromInt(60000)))
	assert.True(t, shares.Division.Equal(decimal.NewFromInt(25000)))
	assert.True(t, shares.Branch.Equal(decimal.NewFromInt(15000)))
	assert.True(t, shares.Remittance.Equal(decimal.NewFromInt(85000)))
}

func TestCalculateSharesRemittanceByType(t *testing.T) {
	total := decimal.NewFromInt(100000)
	rates := policydomain.DefaultRates()

	assert.True(t, CalculateShares(total, orgdomain.TypeDivision, rates).Remittance.Equal(decimal.NewFromInt(60000)))
	assert.True(t, CalculateShares(total, orgdomain.TypeNational, rates).Remittance.IsZero())
}

func TestCalculateSharesConservesTotal(t *testing.T) {
	rates := policydomain.DistributionRates{
		NationalRate: decimal.RequireFromString("0.333"),
		DivisionRate: decimal.RequireFromString("0.333"),
		BranchRate:   decimal.RequireFromString("0.334"),
	}
	for _, raw := range []string{"0", "1", "7", "99", "1001", "33333", "100001", "2500000.5"} {
		total := decimal.RequireFromString(raw)
		for _, typ := range []orgdomain.Type{orgdomain.TypeBranch, orgdomain.TypeDivision, orgdomain.TypeNational} {
			s := CalculateShares(total, typ, rates)
			sum := s.Branch.Add(s.Division).Add(s.National)
			if !sum.Equal(total) {
				t.Fatalf("total %s (%s): shares sum to %s", raw, typ, sum)
			}
		}
	}
}

func TestCollectionRate(t *testing.T) {
	assert.True(t, CollectionRate(decimal.NewFromInt(2), decimal.NewFromInt(3)).Equal(decimal.RequireFromString("66.67")))
	assert.True(t, CollectionRate(decimal.NewFromInt(5), decimal.Zero).IsZero())
}
