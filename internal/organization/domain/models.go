// Package domain describes the collecting organizations that fees cascade
// through: branches report to a division, divisions to the national body.
package domain

import (
	"time"
)

type Type string

const (
	TypeBranch   Type = "branch"
	TypeDivision Type = "division"
	TypeNational Type = "national"
)

func (t Type) Valid() bool {
	switch t {
	case TypeBranch, TypeDivision, TypeNational:
		return true
	default:
		return false
	}
}

// Organization is one node of the collecting hierarchy.
type Organization struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name      string    `gorm:"type:text;not null" json:"name"`
	Type      Type      `gorm:"type:varchar(16);not null;index" json:"type"`
	ParentID  *string   `gorm:"type:varchar(64);index" json:"parent_id,omitempty"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Organization) TableName() string { return "organizations" }

// OrganizationMember links a fee-paying member to the organization that
// collects from them.
type OrganizationMember struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	OrgID     string    `gorm:"type:varchar(64);not null;index" json:"org_id"`
	Name      string    `gorm:"type:text" json:"name"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

// TableName sets the database table name.
func (OrganizationMember) TableName() string { return "organization_members" }
