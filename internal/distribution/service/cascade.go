package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/settlement/internal/audit/domain"
	"github.com/smallbiznis/settlement/internal/distribution/domain"
	ledgerdomain "github.com/smallbiznis/settlement/internal/ledger/domain"
	obscontext "github.com/smallbiznis/settlement/internal/observability/context"
	"github.com/smallbiznis/settlement/internal/observability/logger"
	"github.com/smallbiznis/settlement/internal/observability/tracing"
	orgdomain "github.com/smallbiznis/settlement/internal/organization/domain"
	settlementdomain "github.com/smallbiznis/settlement/internal/settlement/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const referencePrefix = "AUTO-"

// ProcessCascadeRemittance remits every confirmed branch settlement of the
// period to its division, then every confirmed division settlement to the
// national body. Each remittance commits on its own with its ledger entry.
func (s *Automation) ProcessCascadeRemittance(ctx context.Context, year, month int, performedBy string) (result *domain.CascadeResult, err error) {
	started := time.Now()
	if err := validatePeriod(year, month); err != nil {
		s.metrics.RecordRun(ctx, runKindCascade, "invalid", time.Since(started))
		return nil, err
	}

	runID := ulid.Make().String()
	ctx = obscontext.WithRunID(ctx, runID)
	ctx, span := tracing.Start(ctx, "distribution.cascade",
		attribute.String("run_id", runID),
		attribute.Int("year", year),
		attribute.Int("month", month),
	)
	defer func() { tracing.End(span, err) }()

	log := logger.WithContext(ctx, s.log)
	defer func() {
		outcome := "success"
		if err != nil || (result != nil && !result.Success) {
			outcome = "failure"
		}
		s.metrics.RecordRun(ctx, runKindCascade, outcome, time.Since(started))
	}()

	result = &domain.CascadeResult{
		RunID:              runID,
		Year:               year,
		Month:              month,
		BranchToDivision:   domain.RemittanceFlow{Amount: decimal.Zero},
		DivisionToNational: domain.RemittanceFlow{Amount: decimal.Zero},
	}

	flows := []struct {
		from orgdomain.Type
		flow *domain.RemittanceFlow
	}{
		{orgdomain.TypeBranch, &result.BranchToDivision},
		{orgdomain.TypeDivision, &result.DivisionToNational},
	}
	for _, f := range flows {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := s.remitTier(ctx, log, f.from, year, month, performedBy, f.flow); err != nil {
			return result, err
		}
	}

	result.Success = len(result.BranchToDivision.Errors) == 0 && len(result.DivisionToNational.Errors) == 0
	log.Info("cascade remittance finished",
		zap.Int("branch_remitted", result.BranchToDivision.Processed),
		zap.Int("division_remitted", result.DivisionToNational.Processed),
		zap.String("branch_amount", result.BranchToDivision.Amount.String()),
		zap.String("division_amount", result.DivisionToNational.Amount.String()),
	)
	s.recordAudit(ctx, auditdomain.ActionDistributionCascade, "distribution_run", runID, performedBy, map[string]any{
		"year":                 year,
		"month":                month,
		"branch_to_division":   result.BranchToDivision.Processed,
		"division_to_national": result.DivisionToNational.Processed,
		"branch_amount":        result.BranchToDivision.Amount.String(),
		"division_amount":      result.DivisionToNational.Amount.String(),
	})
	return result, nil
}

func (s *Automation) remitTier(
	ctx context.Context,
	log *zap.Logger,
	from orgdomain.Type,
	year, month int,
	performedBy string,
	flow *domain.RemittanceFlow,
) error {
	ctx, span := tracing.Start(ctx, "distribution.cascade_tier",
		attribute.String("organization_type", string(from)),
	)

	confirmed, err := s.repo.List(ctx, s.db, domain.ListFilter{
		Year:   year,
		Month:  month,
		Type:   from,
		Status: settlementdomain.StatusConfirmed,
	})
	if err != nil {
		tracing.End(span, err)
		return fmt.Errorf("list confirmed %s settlements: %w", from, err)
	}
	flow.Total = len(confirmed)

	for i := range confirmed {
		settlement := &confirmed[i]
		if settlement.RemitToOrganizationID == nil || !settlement.RemittanceAmount.IsPositive() {
			continue
		}
		if err := s.remit(ctx, settlement, performedBy); err != nil {
			log.Warn("failed to remit settlement",
				zap.String("settlement_id", settlement.ID.String()),
				zap.String("org_id", settlement.OrganizationID),
				zap.Error(err),
			)
			if errors.Is(err, settlementdomain.ErrInvalidTransition) {
				s.metrics.RecordTransitionError(ctx, string(settlementdomain.StatusConfirmed), string(settlementdomain.StatusRemitted))
			}
			flow.Errors = append(flow.Errors, settlementdomain.NewRecordError(settlement.ID.String(), err))
			continue
		}
		flow.Processed++
		flow.Amount = flow.Amount.Add(settlement.RemittanceAmount)
		s.metrics.RecordRemittance(ctx, string(from), string(orgdomain.ParentType(from)))
	}

	tracing.End(span, nil)
	return nil
}

// remit marks one confirmed settlement remitted and posts the incoming
// entry against the receiving organization in the same transaction.
func (s *Automation) remit(ctx context.Context, settlement *domain.OrgSettlement, performedBy string) error {
	ctx = obscontext.WithOrgID(ctx, settlement.OrganizationID)
	parentID := *settlement.RemitToOrganizationID
	parent, err := s.directory.Get(ctx, parentID)
	if err != nil {
		return err
	}
	if parent == nil {
		return &settlementdomain.LookupError{Kind: "organization", ID: parentID}
	}

	id := settlement.ID.String()
	if err := settlementdomain.CheckTransition(id, settlement.Status, settlementdomain.StatusRemitted); err != nil {
		return err
	}

	now := s.clock.Now().UTC()
	reference := referencePrefix + ulid.Make().String()
	settlement.Status = settlementdomain.StatusRemitted
	settlement.RemittedAt = &now
	settlement.RemittanceReference = &reference
	settlement.UpdatedAt = now
	if performedBy != "" {
		settlement.RemittedBy = &performedBy
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		changed, err := s.repo.UpdateLifecycle(ctx, tx, settlement, settlementdomain.StatusConfirmed)
		if err != nil {
			return err
		}
		if !changed {
			return &settlementdomain.TransitionError{ID: id, From: settlementdomain.StatusConfirmed, To: settlementdomain.StatusRemitted}
		}
		_, err = s.ledger.PostIncoming(ctx, tx, ledgerdomain.IncomingRemittance{
			ReceivingOrganizationID: parent.ID,
			SendingOrganizationID:   settlement.OrganizationID,
			SourceSettlementID:      settlement.ID,
			Amount:                  settlement.RemittanceAmount,
			Year:                    settlement.Year,
			Month:                   settlement.Month,
			Reference:               reference,
			OccurredAt:              now,
		})
		return err
	})
	if err != nil {
		return err
	}

	s.recordAudit(ctx, auditdomain.ActionDistributionRemit, "organization_settlement", id, performedBy, map[string]any{
		"from_organization": settlement.OrganizationID,
		"to_organization":   parent.ID,
		"amount":            settlement.RemittanceAmount.String(),
		"reference":         reference,
	})
	return nil
}
