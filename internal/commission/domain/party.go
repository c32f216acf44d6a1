package domain

import (
	"fmt"
	"strings"
)

type PartyType string

const (
	PartySeller   PartyType = "seller"
	PartySupplier PartyType = "supplier"
	PartyPartner  PartyType = "partner"
	PartyPlatform PartyType = "platform"
)

func (p PartyType) Valid() bool {
	switch p {
	case PartySeller, PartySupplier, PartyPartner, PartyPlatform:
		return true
	default:
		return false
	}
}

// Party identifies one settlement recipient for a run.
type Party struct {
	Type     PartyType `json:"party_type"`
	ID       string    `json:"party_id"`
	Currency string    `json:"currency"`
}

// Key is the "type:id" form used for diagnostics and grouping.
func (p Party) Key() string {
	return PartyKey(p.Type, p.ID)
}

func PartyKey(t PartyType, id string) string {
	return string(t) + ":" + id
}

// ParseParty parses "type:id".
func ParseParty(raw, currency string) (Party, error) {
	kind, id, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok || strings.TrimSpace(id) == "" {
		return Party{}, fmt.Errorf("%w: %q", ErrInvalidParty, raw)
	}
	pt := PartyType(strings.ToLower(strings.TrimSpace(kind)))
	if !pt.Valid() {
		return Party{}, fmt.Errorf("%w: unknown party type %q", ErrInvalidParty, kind)
	}
	return Party{Type: pt, ID: strings.TrimSpace(id), Currency: currency}, nil
}
