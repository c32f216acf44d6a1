package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/smallbiznis/settlement/internal/organization/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewDirectory(db *gorm.DB) domain.Directory {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, id string) (*domain.Organization, error) {
	var org domain.Organization
	err := r.db.WithContext(ctx).First(&org, "id = ?", strings.TrimSpace(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *repository) List(ctx context.Context, ids []string) ([]domain.Organization, error) {
	var orgs []domain.Organization
	query := r.db.WithContext(ctx).Order("id ASC")
	if len(ids) > 0 {
		query = query.Where("id IN ?", ids)
	}
	if err := query.Find(&orgs).Error; err != nil {
		return nil, err
	}
	return orgs, nil
}

func (r *repository) Members(ctx context.Context, orgID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Raw(
		`SELECT id FROM organization_members WHERE org_id = ? ORDER BY id ASC`,
		orgID,
	).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
