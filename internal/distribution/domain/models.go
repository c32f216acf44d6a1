// Package domain models the cascading fee distribution of collecting
// organizations: each branch, division and national body gets one
// settlement per year and month, and lower tiers remit shares upward.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	orgdomain "github.com/smallbiznis/settlement/internal/organization/domain"
	settlementdomain "github.com/smallbiznis/settlement/internal/settlement/domain"
	"gorm.io/datatypes"
)

// OrgSettlement is the distribution outcome for one organization and period.
// Month 0 is an annual settlement.
type OrgSettlement struct {
	ID                    snowflake.ID                 `gorm:"primaryKey" json:"id"`
	OrganizationID        string                       `gorm:"type:varchar(64);not null;uniqueIndex:ux_organization_settlements_period,priority:1" json:"organization_id"`
	OrganizationType      orgdomain.Type               `gorm:"type:varchar(16);not null;index" json:"organization_type"`
	OrganizationName      string                       `gorm:"type:text" json:"organization_name"`
	Year                  int                          `gorm:"not null;uniqueIndex:ux_organization_settlements_period,priority:2" json:"year"`
	Month                 int                          `gorm:"not null;uniqueIndex:ux_organization_settlements_period,priority:3" json:"month"`
	MemberCount           int                          `gorm:"not null" json:"member_count"`
	TotalCollected        decimal.Decimal              `gorm:"type:numeric(20,4);not null" json:"total_collected"`
	BranchShare           decimal.Decimal              `gorm:"type:numeric(20,4);not null" json:"branch_share"`
	DivisionShare         decimal.Decimal              `gorm:"type:numeric(20,4);not null" json:"division_share"`
	NationalShare         decimal.Decimal              `gorm:"type:numeric(20,4);not null" json:"national_share"`
	RemittanceAmount      decimal.Decimal              `gorm:"type:numeric(20,4);not null" json:"remittance_amount"`
	RemitToOrganizationID *string                      `gorm:"type:varchar(64)" json:"remit_to_organization_id,omitempty"`
	Details               datatypes.JSONType[Details]  `gorm:"type:jsonb" json:"details"`
	Status                settlementdomain.Status      `gorm:"type:varchar(16);not null;index" json:"status"`
	ConfirmedAt           *time.Time                   `json:"confirmed_at,omitempty"`
	ConfirmedBy           *string                      `gorm:"type:varchar(64)" json:"confirmed_by,omitempty"`
	ConfirmedByName       *string                      `gorm:"type:text" json:"confirmed_by_name,omitempty"`
	RemittedAt            *time.Time                   `json:"remitted_at,omitempty"`
	RemittedBy            *string                      `gorm:"type:varchar(64)" json:"remitted_by,omitempty"`
	RemittanceReference   *string                      `gorm:"type:varchar(64)" json:"remittance_reference,omitempty"`
	CompletedAt           *time.Time                   `json:"completed_at,omitempty"`
	CancelledAt           *time.Time                   `json:"cancelled_at,omitempty"`
	CancelReason          *string                      `gorm:"type:text" json:"cancel_reason,omitempty"`
	CreatedAt             time.Time                    `gorm:"not null" json:"created_at"`
	UpdatedAt             time.Time                    `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (OrgSettlement) TableName() string { return "organization_settlements" }

// Details is the collection breakdown behind an OrgSettlement.
type Details struct {
	InvoiceCount       int                    `json:"invoice_count"`
	PaidInvoiceCount   int                    `json:"paid_invoice_count"`
	UnpaidInvoiceCount int                    `json:"unpaid_invoice_count"`
	TotalInvoiceAmount decimal.Decimal        `json:"total_invoice_amount"`
	TotalPaidAmount    decimal.Decimal        `json:"total_paid_amount"`
	CollectionRate     decimal.Decimal        `json:"collection_rate"`
	PaymentMethods     map[string]MethodTotal `json:"payment_methods"`
}

type MethodTotal struct {
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}
