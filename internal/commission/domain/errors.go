package domain

import "errors"

var (
	ErrInvalidParty     = errors.New("invalid_party")
	ErrInvalidRule      = errors.New("invalid_rule")
	ErrInvalidRuleKind  = errors.New("invalid_rule_kind")
	ErrDuplicateRuleID  = errors.New("duplicate_rule_id")
	ErrEmptyRuleSet     = errors.New("empty_rule_set")
	ErrInvalidTier      = errors.New("invalid_tier")
	ErrTiersOverlapping = errors.New("tiers_overlapping")
)
