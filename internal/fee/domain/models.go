// Package domain is the read-only view of member fee invoices and payments
// that the distribution automation collects from.
package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

const (
	InvoiceStatusPaid   = "paid"
	InvoiceStatusUnpaid = "unpaid"

	PaymentStatusCompleted = "completed"

	// PaymentMethodUnknown labels payments recorded without a method.
	PaymentMethodUnknown = "unknown"
)

type FeeInvoice struct {
	ID        string          `gorm:"primaryKey;type:varchar(64)" json:"id"`
	MemberID  string          `gorm:"type:varchar(64);not null;index" json:"member_id"`
	Year      int             `gorm:"not null;index:idx_fee_invoices_period,priority:1" json:"year"`
	Month     int             `gorm:"not null;index:idx_fee_invoices_period,priority:2" json:"month"`
	Amount    decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"amount"`
	Status    string          `gorm:"type:varchar(16);not null" json:"status"`
	CreatedAt time.Time       `gorm:"not null" json:"created_at"`
}

// TableName sets the database table name.
func (FeeInvoice) TableName() string { return "fee_invoices" }

func (i FeeInvoice) Paid() bool { return i.Status == InvoiceStatusPaid }

type FeePayment struct {
	ID        string          `gorm:"primaryKey;type:varchar(64)" json:"id"`
	InvoiceID string          `gorm:"type:varchar(64);not null;index" json:"invoice_id"`
	Method    string          `gorm:"type:varchar(32)" json:"method"`
	Amount    decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"amount"`
	Status    string          `gorm:"type:varchar(16);not null" json:"status"`
	CreatedAt time.Time       `gorm:"not null" json:"created_at"`
}

// TableName sets the database table name.
func (FeePayment) TableName() string { return "fee_payments" }

type Reader interface {
	// ListInvoices returns invoices of the given members for year. Month 0
	// selects the whole year.
	ListInvoices(ctx context.Context, year, month int, memberIDs []string) ([]FeeInvoice, error)
	// ListCompletedPayments returns completed payments of the invoices.
	ListCompletedPayments(ctx context.Context, invoiceIDs []string) ([]FeePayment, error)
}
