package domain

import (
	"fmt"
	"slices"

	orderdomain "github.com/smallbiznis/settlement/internal/order/domain"
)

// RuleSet is a versioned, ordered list of rules. Order is precedence.
type RuleSet struct {
	ID    string `json:"id"`
	Rules []Rule `json:"rules"`
}

// Validate checks the set is usable for a run.
func (rs RuleSet) Validate() error {
	if len(rs.Rules) == 0 {
		return ErrEmptyRuleSet
	}
	seen := make(map[string]struct{}, len(rs.Rules))
	for i, rule := range rs.Rules {
		if rule == nil {
			return fmt.Errorf("%w: rule %d is nil", ErrInvalidRule, i)
		}
		id := rule.Meta().ID
		if _, ok := seen[id]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateRuleID, id)
		}
		seen[id] = struct{}{}
		if tiered, ok := rule.(TieredRule); ok {
			if err := ValidateTiers(tiered.Tiers); err != nil {
				return fmt.Errorf("rule %s: %w", id, err)
			}
		}
	}
	return nil
}

// Match returns the first rule, in list order, whose filters accept the item
// and party. Without a specific match it falls back to the first default rule.
func Match(item orderdomain.LineItem, partyType PartyType, rules []Rule) (Rule, bool) {
	for _, rule := range rules {
		if applies(rule.Meta().AppliesTo, item, partyType) {
			return rule, true
		}
	}
	for _, rule := range rules {
		if rule.Meta().AppliesTo.IsDefault() {
			return rule, true
		}
	}
	return nil, false
}

func applies(filter AppliesTo, item orderdomain.LineItem, partyType PartyType) bool {
	if filter.PartyType != nil && *filter.PartyType != partyType {
		return false
	}
	if len(filter.ProductIDs) > 0 && !slices.Contains(filter.ProductIDs, item.ProductID) {
		return false
	}
	return true
}
