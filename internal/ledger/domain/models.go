package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RemittanceLedgerEntry is an incoming remittance notice posted against the
// receiving organization. One entry per source settlement.
type RemittanceLedgerEntry struct {
	ID                      snowflake.ID    `gorm:"primaryKey" json:"id"`
	ReceivingOrganizationID string          `gorm:"type:varchar(64);not null;index:idx_remittance_ledger_receiver,priority:1" json:"receiving_organization_id"`
	SendingOrganizationID   string          `gorm:"type:varchar(64);not null" json:"sending_organization_id"`
	SourceSettlementID      snowflake.ID    `gorm:"not null;uniqueIndex:ux_remittance_ledger_source" json:"source_settlement_id"`
	Amount                  decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"amount"`
	Year                    int             `gorm:"not null;index:idx_remittance_ledger_receiver,priority:2" json:"year"`
	Month                   int             `gorm:"not null;index:idx_remittance_ledger_receiver,priority:3" json:"month"`
	Reference               string          `gorm:"type:varchar(64);not null" json:"reference"`
	OccurredAt              time.Time       `gorm:"not null" json:"occurred_at"`
	CreatedAt               time.Time       `gorm:"not null" json:"created_at"`
}

// TableName sets the database table name.
func (RemittanceLedgerEntry) TableName() string { return "remittance_ledger_entries" }

// IncomingRemittance is the input for posting one remittance.
type IncomingRemittance struct {
	ReceivingOrganizationID string
	SendingOrganizationID   string
	SourceSettlementID      snowflake.ID
	Amount                  decimal.Decimal
	Year                    int
	Month                   int
	Reference               string
	OccurredAt              time.Time
}

type Service interface {
	// PostIncoming writes the entry on db, which may be the caller's
	// transaction. It reports false when the source settlement was already
	// posted.
	PostIncoming(ctx context.Context, db *gorm.DB, in IncomingRemittance) (bool, error)
	ListIncoming(ctx context.Context, orgID string, year, month int) ([]RemittanceLedgerEntry, error)
	IncomingTotal(ctx context.Context, orgID string, year, month int) (decimal.Decimal, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidSourceID     = errors.New("invalid_source_id")
	ErrInvalidAmount       = errors.New("invalid_amount")
	ErrInvalidPeriod       = errors.New("invalid_period")
	ErrInvalidReference    = errors.New("invalid_reference")
	ErrInvalidOccurredAt   = errors.New("invalid_occurred_at")
)
