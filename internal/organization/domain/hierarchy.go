package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidType      = errors.New("invalid_organization_type")
	ErrMissingParent    = errors.New("missing_parent_organization")
	ErrInvalidHierarchy = errors.New("invalid_organization_hierarchy")
)

// ValidateHierarchy checks that every national node is a root and every
// other node reaches exactly one national ancestor through parents of the
// expected type: branch -> division -> national.
func ValidateHierarchy(orgs []Organization) error {
	byID := make(map[string]Organization, len(orgs))
	for _, org := range orgs {
		if !org.Type.Valid() {
			return fmt.Errorf("%w: %s has type %q", ErrInvalidType, org.ID, org.Type)
		}
		byID[org.ID] = org
	}

	for _, org := range orgs {
		if org.Type == TypeNational {
			if org.ParentID != nil && *org.ParentID != "" {
				return fmt.Errorf("%w: national %s has a parent", ErrInvalidHierarchy, org.ID)
			}
			continue
		}
		if org.ParentID == nil || *org.ParentID == "" {
			return fmt.Errorf("%w: %s %s has no parent", ErrMissingParent, org.Type, org.ID)
		}

		parent, ok := byID[*org.ParentID]
		if !ok {
			return fmt.Errorf("%w: %s references %s", ErrMissingParent, org.ID, *org.ParentID)
		}
		if want := ParentType(org.Type); parent.Type != want {
			return fmt.Errorf("%w: %s %s reports to %s %s, want %s", ErrInvalidHierarchy, org.Type, org.ID, parent.Type, parent.ID, want)
		}
	}
	return nil
}

// ParentType is the type an organization remits to. National has none.
func ParentType(t Type) Type {
	switch t {
	case TypeBranch:
		return TypeDivision
	case TypeDivision:
		return TypeNational
	default:
		return ""
	}
}
