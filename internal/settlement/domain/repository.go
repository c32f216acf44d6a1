package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	commissiondomain "github.com/smallbiznis/settlement/internal/commission/domain"
	"gorm.io/gorm"
)

// Repository methods take the *gorm.DB to run on, so callers decide the
// transaction scope.
type Repository interface {
	InsertSettlements(ctx context.Context, db *gorm.DB, settlements []*Settlement) error
	InsertItems(ctx context.Context, db *gorm.DB, items []*SettlementItem) error
	FindByPartyPeriod(ctx context.Context, db *gorm.DB, partyType commissiondomain.PartyType, partyID string, start, end time.Time) ([]Settlement, error)
	DeleteWithItems(ctx context.Context, db *gorm.DB, ids []snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Settlement, error)
	ListItems(ctx context.Context, db *gorm.DB, settlementID snowflake.ID) ([]SettlementItem, error)
	// UpdateLifecycle writes status and lifecycle columns only when the
	// stored status still equals from. It reports whether a row changed.
	UpdateLifecycle(ctx context.Context, db *gorm.DB, s *Settlement, from Status) (bool, error)
}
