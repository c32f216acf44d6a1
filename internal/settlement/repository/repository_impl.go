package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	commissiondomain "github.com/smallbiznis/settlement/internal/commission/domain"
	settlementdomain "github.com/smallbiznis/settlement/internal/settlement/domain"
	"gorm.io/gorm"
)

const insertBatchSize = 500

type repo struct{}

func Provide() settlementdomain.Repository {
	return &repo{}
}

func (r *repo) InsertSettlements(ctx context.Context, db *gorm.DB, settlements []*settlementdomain.Settlement) error {
	if len(settlements) == 0 {
		return nil
	}
	return db.WithContext(ctx).CreateInBatches(settlements, insertBatchSize).Error
}

func (r *repo) InsertItems(ctx context.Context, db *gorm.DB, items []*settlementdomain.SettlementItem) error {
	if len(items) == 0 {
		return nil
	}
	return db.WithContext(ctx).CreateInBatches(items, insertBatchSize).Error
}

func (r *repo) FindByPartyPeriod(ctx context.Context, db *gorm.DB, partyType commissiondomain.PartyType, partyID string, start, end time.Time) ([]settlementdomain.Settlement, error) {
	var items []settlementdomain.Settlement
	err := db.WithContext(ctx).
		Where("party_type = ? AND party_id = ? AND period_start = ? AND period_end = ?", partyType, partyID, start, end).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// DeleteWithItems removes items before headers so it does not depend on
// ON DELETE CASCADE being enforced by the driver.
func (r *repo) DeleteWithItems(ctx context.Context, db *gorm.DB, ids []snowflake.ID) error {
	if len(ids) == 0 {
		return nil
	}
	if err := db.WithContext(ctx).Exec(`DELETE FROM settlement_items WHERE settlement_id IN ?`, ids).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).Exec(`DELETE FROM settlements WHERE id IN ?`, ids).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*settlementdomain.Settlement, error) {
	var settlement settlementdomain.Settlement
	err := db.WithContext(ctx).Raw(`SELECT * FROM settlements WHERE id = ?`, id).Scan(&settlement).Error
	if err != nil {
		return nil, err
	}
	if settlement.ID == 0 {
		return nil, nil
	}
	return &settlement, nil
}

func (r *repo) ListItems(ctx context.Context, db *gorm.DB, settlementID snowflake.ID) ([]settlementdomain.SettlementItem, error) {
	var items []settlementdomain.SettlementItem
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM settlement_items WHERE settlement_id = ? ORDER BY id ASC`,
		settlementID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdateLifecycle(ctx context.Context, db *gorm.DB, s *settlementdomain.Settlement, from settlementdomain.Status) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE settlements
		 SET status = ?, confirmed_at = ?, confirmed_by = ?, remitted_at = ?, remittance_reference = ?,
		     completed_at = ?, cancelled_at = ?, cancel_reason = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		s.Status,
		s.ConfirmedAt,
		s.ConfirmedBy,
		s.RemittedAt,
		s.RemittanceReference,
		s.CompletedAt,
		s.CancelledAt,
		s.CancelReason,
		s.UpdatedAt,
		s.ID,
		from,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
