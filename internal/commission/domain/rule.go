package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindPercentage Kind = "percentage"
	KindFixed      Kind = "fixed"
	KindTiered     Kind = "tiered"
)

// AppliesTo narrows a rule to a party type and/or a set of products.
// An empty ProductIDs slice means "any product".
type AppliesTo struct {
	PartyType  *PartyType `json:"party_type,omitempty"`
	ProductIDs []string   `json:"product_ids,omitempty"`
}

// IsDefault reports whether the filter matches everything.
func (a AppliesTo) IsDefault() bool {
	return a.PartyType == nil && len(a.ProductIDs) == 0
}

type RuleMeta struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	AppliesTo AppliesTo `json:"applies_to"`
}

// Rule is one of PercentageRule, FixedRule or TieredRule.
type Rule interface {
	Meta() RuleMeta
	Kind() Kind
	isRule()
}

// PercentageRule charges Rate percent (0-100) of the base amount.
type PercentageRule struct {
	RuleMeta
	Rate decimal.Decimal
}

// FixedRule charges Amount per unit of quantity.
type FixedRule struct {
	RuleMeta
	Amount decimal.Decimal
}

// TieredRule charges the rate of the first tier containing the base amount.
type TieredRule struct {
	RuleMeta
	Tiers []Tier
}

func (r RuleMeta) Meta() RuleMeta { return r }

func (PercentageRule) Kind() Kind { return KindPercentage }
func (FixedRule) Kind() Kind      { return KindFixed }
func (TieredRule) Kind() Kind     { return KindTiered }

func (PercentageRule) isRule() {}
func (FixedRule) isRule()      {}
func (TieredRule) isRule()     {}

// RuleSpec is the flat, configuration-friendly shape of a rule. Amounts are
// decimal strings so no float parsing happens on the way in.
type RuleSpec struct {
	ID             string        `mapstructure:"id" json:"id" validate:"required"`
	Name           string        `mapstructure:"name" json:"name"`
	Kind           Kind          `mapstructure:"kind" json:"kind" validate:"required,oneof=percentage fixed tiered"`
	PercentageRate string        `mapstructure:"percentage_rate" json:"percentage_rate,omitempty"`
	FixedAmount    string        `mapstructure:"fixed_amount" json:"fixed_amount,omitempty"`
	Tiers          []TierSpec    `mapstructure:"tiers" json:"tiers,omitempty" validate:"dive"`
	AppliesTo      AppliesToSpec `mapstructure:"applies_to" json:"applies_to"`
}

type AppliesToSpec struct {
	PartyType  string   `mapstructure:"party_type" json:"party_type,omitempty"`
	ProductIDs []string `mapstructure:"product_ids" json:"product_ids,omitempty"`
}

type TierSpec struct {
	MinAmount      string `mapstructure:"min_amount" json:"min_amount" validate:"required"`
	MaxAmount      string `mapstructure:"max_amount" json:"max_amount,omitempty"`
	PercentageRate string `mapstructure:"percentage_rate" json:"percentage_rate" validate:"required"`
}

// NewRule decodes a spec into its variant. Exactly the payload matching
// Kind must be populated.
func NewRule(spec RuleSpec) (Rule, error) {
	id := strings.TrimSpace(spec.ID)
	if id == "" {
		return nil, fmt.Errorf("%w: missing id", ErrInvalidRule)
	}

	meta := RuleMeta{ID: id, Name: strings.TrimSpace(spec.Name)}
	if pt := strings.TrimSpace(spec.AppliesTo.PartyType); pt != "" {
		partyType := PartyType(strings.ToLower(pt))
		if !partyType.Valid() {
			return nil, fmt.Errorf("%w: rule %s: unknown party type %q", ErrInvalidRule, id, pt)
		}
		meta.AppliesTo.PartyType = &partyType
	}
	for _, productID := range spec.AppliesTo.ProductIDs {
		if productID = strings.TrimSpace(productID); productID != "" {
			meta.AppliesTo.ProductIDs = append(meta.AppliesTo.ProductIDs, productID)
		}
	}

	hasRate := strings.TrimSpace(spec.PercentageRate) != ""
	hasFixed := strings.TrimSpace(spec.FixedAmount) != ""
	hasTiers := len(spec.Tiers) > 0

	switch spec.Kind {
	case KindPercentage:
		if !hasRate || hasFixed || hasTiers {
			return nil, fmt.Errorf("%w: rule %s: percentage rule needs only percentage_rate", ErrInvalidRule, id)
		}
		rate, err := parseRate(spec.PercentageRate)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", id, err)
		}
		return PercentageRule{RuleMeta: meta, Rate: rate}, nil
	case KindFixed:
		if !hasFixed || hasRate || hasTiers {
			return nil, fmt.Errorf("%w: rule %s: fixed rule needs only fixed_amount", ErrInvalidRule, id)
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(spec.FixedAmount))
		if err != nil || amount.IsNegative() {
			return nil, fmt.Errorf("%w: rule %s: fixed_amount %q", ErrInvalidRule, id, spec.FixedAmount)
		}
		return FixedRule{RuleMeta: meta, Amount: amount}, nil
	case KindTiered:
		if !hasTiers || hasRate || hasFixed {
			return nil, fmt.Errorf("%w: rule %s: tiered rule needs only tiers", ErrInvalidRule, id)
		}
		tiers := make([]Tier, 0, len(spec.Tiers))
		for i, ts := range spec.Tiers {
			tier, err := ts.toTier()
			if err != nil {
				return nil, fmt.Errorf("rule %s: tier %d: %w", id, i, err)
			}
			tiers = append(tiers, tier)
		}
		if err := ValidateTiers(tiers); err != nil {
			return nil, fmt.Errorf("rule %s: %w", id, err)
		}
		return TieredRule{RuleMeta: meta, Tiers: tiers}, nil
	default:
		return nil, fmt.Errorf("%w: rule %s: %q", ErrInvalidRuleKind, id, spec.Kind)
	}
}

func (ts TierSpec) toTier() (Tier, error) {
	min, err := decimal.NewFromString(strings.TrimSpace(ts.MinAmount))
	if err != nil {
		return Tier{}, fmt.Errorf("%w: min_amount %q", ErrInvalidTier, ts.MinAmount)
	}
	tier := Tier{MinAmount: min}
	if raw := strings.TrimSpace(ts.MaxAmount); raw != "" {
		max, err := decimal.NewFromString(raw)
		if err != nil {
			return Tier{}, fmt.Errorf("%w: max_amount %q", ErrInvalidTier, ts.MaxAmount)
		}
		tier.MaxAmount = &max
	}
	rate, err := parseRate(ts.PercentageRate)
	if err != nil {
		return Tier{}, err
	}
	tier.Rate = rate
	return tier, nil
}

var hundred = decimal.NewFromInt(100)

func parseRate(raw string) (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: percentage_rate %q", ErrInvalidRule, raw)
	}
	if rate.IsNegative() || rate.GreaterThan(hundred) {
		return decimal.Zero, fmt.Errorf("%w: percentage_rate %s out of range 0-100", ErrInvalidRule, rate)
	}
	return rate, nil
}
