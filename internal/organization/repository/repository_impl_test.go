package repository

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/settlement/internal/organization/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestDirectory(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Organization{}, &domain.OrganizationMember{}))

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	national := "nat"
	require.NoError(t, db.Create([]domain.Organization{
		{ID: "nat", Name: "National", Type: domain.TypeNational, CreatedAt: now, UpdatedAt: now},
		{ID: "div", Name: "Division", Type: domain.TypeDivision, ParentID: &national, CreatedAt: now, UpdatedAt: now},
	}).Error)
	require.NoError(t, db.Create([]domain.OrganizationMember{
		{ID: "m2", OrgID: "div", CreatedAt: now},
		{ID: "m1", OrgID: "div", CreatedAt: now},
		{ID: "m3", OrgID: "nat", CreatedAt: now},
	}).Error)

	dir := NewDirectory(db)
	ctx := context.Background()

	org, err := dir.Get(ctx, "div")
	require.NoError(t, err)
	require.NotNil(t, org)
	assert.Equal(t, domain.TypeDivision, org.Type)
	assert.Equal(t, "nat", *org.ParentID)

	missing, err := dir.Get(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, missing)

	all, err := dir.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	require.NoError(t, domain.ValidateHierarchy(all))

	some, err := dir.List(ctx, []string{"nat"})
	require.NoError(t, err)
	assert.Len(t, some, 1)

	members, err := dir.Members(ctx, "div")
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2"}, members)
}
