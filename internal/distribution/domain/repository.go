package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	orgdomain "github.com/smallbiznis/settlement/internal/organization/domain"
	settlementdomain "github.com/smallbiznis/settlement/internal/settlement/domain"
	"gorm.io/gorm"
)

// ListFilter narrows settlement listings. Month 0 matches every month of
// Year, empty Type and Status match all.
type ListFilter struct {
	Year   int
	Month  int
	Type   orgdomain.Type
	Status settlementdomain.Status
}

type Repository interface {
	// FindByOrgPeriod and FindByID return nil, nil when nothing matches.
	FindByOrgPeriod(ctx context.Context, db *gorm.DB, orgID string, year, month int) (*OrgSettlement, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*OrgSettlement, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]OrgSettlement, error)
	Insert(ctx context.Context, db *gorm.DB, s *OrgSettlement) error
	// UpdateAmounts rewrites the computed columns of a recalculated settlement.
	UpdateAmounts(ctx context.Context, db *gorm.DB, s *OrgSettlement) error
	// UpdateLifecycle writes status columns only when the stored status is
	// still from. It reports whether a row changed.
	UpdateLifecycle(ctx context.Context, db *gorm.DB, s *OrgSettlement, from settlementdomain.Status) (bool, error)
}
