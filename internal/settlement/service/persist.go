package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	settlementdomain "github.com/smallbiznis/settlement/internal/settlement/domain"
	"gorm.io/gorm"
)

// persist writes one run inside tx. Pending settlements already stored for
// the same (party, period) are deleted with their items first; any other
// status aborts the whole run. Ids and timestamps are stamped on the given
// slices, which the caller discards when tx rolls back.
func (s *Engine) persist(ctx context.Context, tx *gorm.DB, settlements []*settlementdomain.Settlement, items []*settlementdomain.SettlementItem, now time.Time) ([]snowflake.ID, error) {
	replaced := make([]snowflake.ID, 0)
	for _, header := range settlements {
		existing, err := s.repo.FindByPartyPeriod(ctx, tx, header.PartyType, header.PartyID, header.PeriodStart, header.PeriodEnd)
		if err != nil {
			return nil, &settlementdomain.PersistenceError{PartyType: string(header.PartyType), PartyID: header.PartyID, Err: err}
		}
		for _, prior := range existing {
			if prior.Status != settlementdomain.StatusPending {
				return nil, &settlementdomain.PersistenceError{
					PartyType: string(header.PartyType),
					PartyID:   header.PartyID,
					Err:       fmt.Errorf("%w: settlement %s is %s", settlementdomain.ErrSettlementLocked, prior.ID, prior.Status),
				}
			}
			replaced = append(replaced, prior.ID)
		}
	}

	if err := s.repo.DeleteWithItems(ctx, tx, replaced); err != nil {
		return nil, &settlementdomain.PersistenceError{Err: fmt.Errorf("replace pending settlements: %w", err)}
	}

	parents := make(map[string]snowflake.ID, len(settlements))
	for _, header := range settlements {
		header.ID = s.genID.Generate()
		header.CreatedAt = now
		header.UpdatedAt = now
		parents[header.PartyKey()] = header.ID
	}
	if err := s.repo.InsertSettlements(ctx, tx, settlements); err != nil {
		return nil, &settlementdomain.PersistenceError{Err: fmt.Errorf("insert settlements: %w", err)}
	}

	for _, item := range items {
		parent, ok := parents[item.PartyKey()]
		if !ok {
			return nil, &settlementdomain.PersistenceError{
				PartyType: string(item.PartyType),
				PartyID:   item.PartyID,
				Err:       fmt.Errorf("item %s has no settlement", item.OrderItemID),
			}
		}
		item.ID = s.genID.Generate()
		item.SettlementID = parent
		item.CreatedAt = now
	}
	if err := s.repo.InsertItems(ctx, tx, items); err != nil {
		return nil, &settlementdomain.PersistenceError{Err: fmt.Errorf("insert settlement items: %w", err)}
	}

	return replaced, nil
}

// countDuplicates reports stored settlements that a persisted run would
// replace or collide with. It never writes.
func (s *Engine) countDuplicates(ctx context.Context, settlements []settlementdomain.Settlement) (int, error) {
	count := 0
	for _, header := range settlements {
		existing, err := s.repo.FindByPartyPeriod(ctx, s.db, header.PartyType, header.PartyID, header.PeriodStart, header.PeriodEnd)
		if err != nil {
			return 0, err
		}
		count += len(existing)
	}
	return count, nil
}
