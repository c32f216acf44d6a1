// Package domain defines the commission and distribution policy consumed by
// the settlement engine and the distribution automation.
package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	commissiondomain "github.com/smallbiznis/settlement/internal/commission/domain"
)

var (
	ErrInvalidRates    = errors.New("invalid_distribution_rates")
	ErrRatesUnbalanced = errors.New("distribution_rates_unbalanced")
)

// DistributionRates splits collected fees between the three tiers of the
// hierarchy. The rates are expected to sum to one.
type DistributionRates struct {
	NationalRate decimal.Decimal `json:"national_rate"`
	DivisionRate decimal.Decimal `json:"division_rate"`
	BranchRate   decimal.Decimal `json:"branch_rate"`
}

func DefaultRates() DistributionRates {
	return DistributionRates{
		NationalRate: decimal.RequireFromString("0.6"),
		DivisionRate: decimal.RequireFromString("0.25"),
		BranchRate:   decimal.RequireFromString("0.15"),
	}
}

func (r DistributionRates) Sum() decimal.Decimal {
	return r.NationalRate.Add(r.DivisionRate).Add(r.BranchRate)
}

func (r DistributionRates) Balanced() bool {
	return r.Sum().Equal(decimal.NewFromInt(1))
}

// Validate rejects rates outside [0, 1] and rates that do not sum to one.
func (r DistributionRates) Validate() error {
	one := decimal.NewFromInt(1)
	for name, rate := range map[string]decimal.Decimal{
		"national_rate": r.NationalRate,
		"division_rate": r.DivisionRate,
		"branch_rate":   r.BranchRate,
	} {
		if rate.IsNegative() || rate.GreaterThan(one) {
			return fmt.Errorf("%w: %s %s out of range 0-1", ErrInvalidRates, name, rate)
		}
	}
	if !r.Balanced() {
		return fmt.Errorf("%w: sum is %s", ErrRatesUnbalanced, r.Sum())
	}
	return nil
}

// Policy is one validated snapshot of the policy file.
type Policy struct {
	RuleSet      commissiondomain.RuleSet
	DefaultRates DistributionRates
	RatesByYear  map[int]DistributionRates
}

// Rates returns the rates configured for year, or the default rates.
func (p Policy) Rates(year int) DistributionRates {
	if rates, ok := p.RatesByYear[year]; ok {
		return rates
	}
	return p.DefaultRates
}

type Source interface {
	RuleSet(ctx context.Context) (commissiondomain.RuleSet, error)
	DistributionRates(ctx context.Context, year int) (DistributionRates, error)
}
