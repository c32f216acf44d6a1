package domain

import (
	"context"
	"time"
)

// Reader is the order store port. Orders are returned with their items,
// ordered by order date then id.
type Reader interface {
	ListSettleable(ctx context.Context, periodStart, periodEnd time.Time) ([]Order, error)
}
