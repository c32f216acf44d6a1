package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	commissiondomain "github.com/smallbiznis/settlement/internal/commission/domain"
	"gorm.io/datatypes"
)

const (
	EngineVersion           = "v2"
	ReasonCodeOrderComplete = "order_completed"
)

// Settlement is the aggregated outcome for one party over one period.
type Settlement struct {
	ID                    snowflake.ID               `json:"id" gorm:"primaryKey"`
	PartyType             commissiondomain.PartyType `json:"party_type" gorm:"type:varchar(16);not null;index:idx_settlements_party_period,priority:1"`
	PartyID               string                     `json:"party_id" gorm:"type:varchar(64);not null;index:idx_settlements_party_period,priority:2"`
	PeriodStart           time.Time                  `json:"period_start" gorm:"not null;index:idx_settlements_party_period,priority:3"`
	PeriodEnd             time.Time                  `json:"period_end" gorm:"not null;index:idx_settlements_party_period,priority:4"`
	TotalSaleAmount       decimal.Decimal            `json:"total_sale_amount" gorm:"type:numeric(20,4);not null"`
	TotalBaseAmount       decimal.Decimal            `json:"total_base_amount" gorm:"type:numeric(20,4);not null"`
	TotalCommissionAmount decimal.Decimal            `json:"total_commission_amount" gorm:"type:numeric(20,4);not null"`
	TotalMarginAmount     decimal.Decimal            `json:"total_margin_amount" gorm:"type:numeric(20,4);not null"`
	PayableAmount         decimal.Decimal            `json:"payable_amount" gorm:"type:numeric(20,4);not null"`
	Currency              string                     `json:"currency" gorm:"type:varchar(8);not null"`
	Status                Status                     `json:"status" gorm:"type:varchar(16);not null;index"`
	Metadata              datatypes.JSONMap          `json:"metadata,omitempty" gorm:"type:jsonb"`
	ConfirmedAt           *time.Time                 `json:"confirmed_at,omitempty"`
	ConfirmedBy           *string                    `json:"confirmed_by,omitempty" gorm:"type:varchar(64)"`
	RemittedAt            *time.Time                 `json:"remitted_at,omitempty"`
	RemittanceReference   *string                    `json:"remittance_reference,omitempty" gorm:"type:varchar(64)"`
	CompletedAt           *time.Time                 `json:"completed_at,omitempty"`
	CancelledAt           *time.Time                 `json:"cancelled_at,omitempty"`
	CancelReason          *string                    `json:"cancel_reason,omitempty"`
	CreatedAt             time.Time                  `json:"created_at" gorm:"not null"`
	UpdatedAt             time.Time                  `json:"updated_at" gorm:"not null"`
}

func (Settlement) TableName() string { return "settlements" }

func (s Settlement) PartyKey() string {
	return commissiondomain.PartyKey(s.PartyType, s.PartyID)
}

// SettlementItem is one (order line, party) contribution to a Settlement.
// NetAmount always equals GrossAmount minus CommissionAmount.
type SettlementItem struct {
	ID                snowflake.ID               `json:"id" gorm:"primaryKey"`
	SettlementID      snowflake.ID               `json:"settlement_id" gorm:"not null;index"`
	OrderID           string                     `json:"order_id" gorm:"type:varchar(64);not null;index"`
	OrderItemID       string                     `json:"order_item_id" gorm:"type:varchar(64);not null"`
	PartyType         commissiondomain.PartyType `json:"party_type" gorm:"type:varchar(16);not null"`
	PartyID           string                     `json:"party_id" gorm:"type:varchar(64);not null"`
	GrossAmount       decimal.Decimal            `json:"gross_amount" gorm:"type:numeric(20,4);not null"`
	CommissionAmount  decimal.Decimal            `json:"commission_amount" gorm:"type:numeric(20,4);not null"`
	NetAmount         decimal.Decimal            `json:"net_amount" gorm:"type:numeric(20,4);not null"`
	ProductName       string                     `json:"product_name"`
	Quantity          int64                      `json:"quantity" gorm:"not null"`
	SalePriceSnapshot decimal.NullDecimal        `json:"sale_price_snapshot" gorm:"type:numeric(20,4)"`
	BasePriceSnapshot decimal.NullDecimal        `json:"base_price_snapshot" gorm:"type:numeric(20,4)"`
	SellerID          string                     `json:"seller_id,omitempty" gorm:"type:varchar(64)"`
	SupplierID        string                     `json:"supplier_id,omitempty" gorm:"type:varchar(64)"`
	RuleID            string                     `json:"rule_id" gorm:"type:varchar(64);not null"`
	ReasonCode        string                     `json:"reason_code" gorm:"type:varchar(32);not null"`
	Metadata          datatypes.JSONMap          `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt         time.Time                  `json:"created_at" gorm:"not null"`
}

func (SettlementItem) TableName() string { return "settlement_items" }

func (i SettlementItem) PartyKey() string {
	return commissiondomain.PartyKey(i.PartyType, i.PartyID)
}

// Commission summarizes what one rule produced for one party in a run.
type Commission struct {
	PartyType  commissiondomain.PartyType `json:"party_type"`
	PartyID    string                     `json:"party_id"`
	RuleID     string                     `json:"rule_id"`
	RuleName   string                     `json:"rule_name"`
	RuleKind   commissiondomain.Kind      `json:"rule_kind"`
	ItemsCount int                        `json:"items_count"`
	BaseAmount decimal.Decimal            `json:"base_amount"`
	Amount     decimal.Decimal            `json:"amount"`
}
