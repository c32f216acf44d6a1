package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/settlement/internal/distribution/domain"
	settlementdomain "github.com/smallbiznis/settlement/internal/settlement/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByOrgPeriod(ctx context.Context, db *gorm.DB, orgID string, year, month int) (*domain.OrgSettlement, error) {
	var items []domain.OrgSettlement
	err := db.WithContext(ctx).
		Where("organization_id = ? AND year = ? AND month = ?", orgID, year, month).
		Limit(1).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.OrgSettlement, error) {
	var items []domain.OrgSettlement
	if err := db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&items).Error; err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.OrgSettlement, error) {
	stmt := db.WithContext(ctx).Model(&domain.OrgSettlement{}).Where("year = ?", filter.Year)
	if filter.Month > 0 {
		stmt = stmt.Where("month = ?", filter.Month)
	}
	if filter.Type != "" {
		stmt = stmt.Where("organization_type = ?", filter.Type)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}

	var items []domain.OrgSettlement
	if err := stmt.Order("organization_id ASC, month ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, s *domain.OrgSettlement) error {
	return db.WithContext(ctx).Create(s).Error
}

func (r *repo) UpdateAmounts(ctx context.Context, db *gorm.DB, s *domain.OrgSettlement) error {
	return db.WithContext(ctx).
		Model(&domain.OrgSettlement{}).
		Where("id = ?", s.ID).
		Updates(map[string]any{
			"organization_name":        s.OrganizationName,
			"member_count":             s.MemberCount,
			"total_collected":          s.TotalCollected,
			"branch_share":             s.BranchShare,
			"division_share":           s.DivisionShare,
			"national_share":           s.NationalShare,
			"remittance_amount":        s.RemittanceAmount,
			"remit_to_organization_id": s.RemitToOrganizationID,
			"details":                  s.Details,
			"updated_at":               s.UpdatedAt,
		}).Error
}

func (r *repo) UpdateLifecycle(ctx context.Context, db *gorm.DB, s *domain.OrgSettlement, from settlementdomain.Status) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE organization_settlements
		 SET status = ?, confirmed_at = ?, confirmed_by = ?, confirmed_by_name = ?,
		     remitted_at = ?, remitted_by = ?, remittance_reference = ?,
		     completed_at = ?, cancelled_at = ?, cancel_reason = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		s.Status,
		s.ConfirmedAt,
		s.ConfirmedBy,
		s.ConfirmedByName,
		s.RemittedAt,
		s.RemittedBy,
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
