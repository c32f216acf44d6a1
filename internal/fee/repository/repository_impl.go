package repository

import (
	"context"

	"github.com/smallbiznis/settlement/internal/fee/domain"
	"gorm.io/gorm"
)

// Large rosters are queried in chunks to stay under driver bind limits.
const chunkSize = 500

type repo struct {
	db *gorm.DB
}

func NewReader(db *gorm.DB) domain.Reader {
	return &repo{db: db}
}

func (r *repo) ListInvoices(ctx context.Context, year, month int, memberIDs []string) ([]domain.FeeInvoice, error) {
	invoices := make([]domain.FeeInvoice, 0)
	for _, chunk := range chunks(memberIDs) {
		var batch []domain.FeeInvoice
		query := r.db.WithContext(ctx).
			Where("year = ?", year).
			Where("member_id IN ?", chunk)
		if month > 0 {
			query = query.Where("month = ?", month)
		}
		if err := query.Order("id ASC").Find(&batch).Error; err != nil {
			return nil, err
		}
		invoices = append(invoices, batch...)
	}
	return invoices, nil
}

func (r *repo) ListCompletedPayments(ctx context.Context, invoiceIDs []string) ([]domain.FeePayment, error) {
	payments := make([]domain.FeePayment, 0)
	for _, chunk := range chunks(invoiceIDs) {
		var batch []domain.FeePayment
		err := r.db.WithContext(ctx).
			Where("invoice_id IN ?", chunk).
			Where("status = ?", domain.PaymentStatusCompleted).
			Order("id ASC").
			Find(&batch).Error
		if err != nil {
			return nil, err
		}
		payments = append(payments, batch...)
	}
	return payments, nil
}

func chunks(ids []string) [][]string {
	out := make([][]string, 0, len(ids)/chunkSize+1)
	for start := 0; start < len(ids); start += chunkSize {
		end := min(start+chunkSize, len(ids))
		out = append(out, ids[start:end])
	}
	return out
}
