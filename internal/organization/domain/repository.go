package domain

import (
	"context"
)

// Directory is the read side of the organization hierarchy.
type Directory interface {
	// Get returns nil, nil when the organization does not exist.
	Get(ctx context.Context, id string) (*Organization, error)
	// List returns the given organizations, or all of them when ids is
	// empty, ordered by id.
	List(ctx context.Context, ids []string) ([]Organization, error)
	// Members returns the ids of members collected by the organization.
	Members(ctx context.Context, orgID string) ([]string, error)
}
