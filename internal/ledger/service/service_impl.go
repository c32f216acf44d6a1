package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/settlement/internal/clock"
	ledgerdomain "github.com/smallbiznis/settlement/internal/ledger/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
}

func NewService(p Params) ledgerdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("ledger.service"),
		genID: p.GenID,
		clock: p.Clock,
	}
}

func (s *Service) PostIncoming(ctx context.Context, db *gorm.DB, in ledgerdomain.IncomingRemittance) (bool, error) {
	in.ReceivingOrganizationID = strings.TrimSpace(in.ReceivingOrganizationID)
	in.SendingOrganizationID = strings.TrimSpace(in.SendingOrganizationID)
	if in.ReceivingOrganizationID == "" || in.SendingOrganizationID == "" {
		return false, ledgerdomain.ErrInvalidOrganization
	}
	if in.SourceSettlementID == 0 {
		return false, ledgerdomain.ErrInvalidSourceID
	}
	if !in.Amount.IsPositive() {
		return false, ledgerdomain.ErrInvalidAmount
	}
	if in.Year <= 0 || in.Month < 0 || in.Month > 12 {
		return false, ledgerdomain.ErrInvalidPeriod
	}
	in.Reference = strings.TrimSpace(in.Reference)
	if in.Reference == "" {
		return false, ledgerdomain.ErrInvalidReference
	}
	if in.OccurredAt.IsZero() {
		return false, ledgerdomain.ErrInvalidOccurredAt
	}
	if db == nil {
		db = s.db
	}

	entry := ledgerdomain.RemittanceLedgerEntry{
		ID:                      s.genID.Generate(),
		ReceivingOrganizationID: in.ReceivingOrganizationID,
		SendingOrganizationID:   in.SendingOrganizationID,
		SourceSettlementID:      in.SourceSettlementID,
		Amount:                  in.Amount,
		Year:                    in.Year,
		Month:                   in.Month,
		Reference:               in.Reference,
		OccurredAt:              in.OccurredAt.UTC(),
		CreatedAt:               s.clock.Now().UTC(),
	}
	result := insertOnce(db.WithContext(ctx), &entry)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		s.log.Debug("remittance already posted", zap.String("source_settlement_id", in.SourceSettlementID.String()))
		return false, nil
	}
	return true, nil
}

func (s *Service) ListIncoming(ctx context.Context, orgID string, year, month int) ([]ledgerdomain.RemittanceLedgerEntry, error) {
	var entries []ledgerdomain.RemittanceLedgerEntry
	err := s.db.WithContext(ctx).Raw(
		`SELECT id, receiving_organization_id, sending_organization_id, source_settlement_id,
		        amount, year, month, reference, occurred_at, created_at
		 FROM remittance_ledger_entries
		 WHERE receiving_organization_id = ? AND year = ? AND month = ?
		 ORDER BY occurred_at ASC, id ASC`,
		strings.TrimSpace(orgID),
		year,
		month,
	).Scan(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Service) IncomingTotal(ctx context.Context, orgID string, year, month int) (decimal.Decimal, error) {
	entries, err := s.ListIncoming(ctx, orgID, year, month)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, entry := range entries {
		total = total.Add(entry.Amount)
	}
	return total, nil
}


// insertOnce writes entry unless its source settlement was already posted.
func insertOnce(db *gorm.DB, entry *ledgerdomain.RemittanceLedgerEntry) *gorm.DB {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source_settlement_id"}},
		DoNothing: true,
	}).Create(entry)
}
