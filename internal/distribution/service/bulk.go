package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/settlement/internal/audit/domain"
	"github.com/smallbiznis/settlement/internal/distribution/domain"
	settlementdomain "github.com/smallbiznis/settlement/internal/settlement/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BulkConfirm confirms pending settlements.
func (s *Automation) BulkConfirm(ctx context.Context, ids []string, performedBy, performedByName string) (*domain.BulkResult, error) {
	performedBy = strings.TrimSpace(performedBy)
	performedByName = strings.TrimSpace(performedByName)
	return s.bulk(ctx, ids, settlementdomain.StatusConfirmed, auditdomain.ActionDistributionConfirm, performedBy, nil,
		func(st *domain.OrgSettlement, now time.Time) {
			st.ConfirmedAt = &now
			if performedBy != "" {
				st.ConfirmedBy = &performedBy
			}
			if performedByName != "" {
				st.ConfirmedByName = &performedByName
			}
		})
}

// BulkComplete completes remitted settlements.
func (s *Automation) BulkComplete(ctx context.Context, ids []string, performedBy string) (*domain.BulkResult, error) {
	return s.bulk(ctx, ids, settlementdomain.StatusCompleted, auditdomain.ActionDistributionComplete, performedBy, nil,
		func(st *domain.OrgSettlement, now time.Time) {
			st.CompletedAt = &now
		})
}

// BulkCancel cancels pending or confirmed settlements.
func (s *Automation) BulkCancel(ctx context.Context, ids []string, performedBy, reason string) (*domain.BulkResult, error) {
	reason = strings.TrimSpace(reason)
	return s.bulk(ctx, ids, settlementdomain.StatusCancelled, auditdomain.ActionDistributionCancel, performedBy,
		map[string]any{"reason": reason},
		func(st *domain.OrgSettlement, now time.Time) {
			st.CancelledAt = &now
			if reason != "" {
				st.CancelReason = &reason
			}
		})
}

// bulk applies one transition to each id on its own. Failures are reported
// per id and do not stop the batch.
func (s *Automation) bulk(
	ctx context.Context,
	ids []string,
	to settlementdomain.Status,
	action string,
	performedBy string,
	metadata map[string]any,
	apply func(*domain.OrgSettlement, time.Time),
) (*domain.BulkResult, error) {
	result := &domain.BulkResult{Requested: len(ids)}
	succeeded := make([]string, 0, len(ids))

	for _, raw := range ids {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		id := strings.TrimSpace(raw)
		if err := s.transition(ctx, id, to, apply); err != nil {
			var terr *settlementdomain.TransitionError
			if errors.As(err, &terr) {
				s.metrics.RecordTransitionError(ctx, string(terr.From), string(terr.To))
			}
			result.Errors = append(result.Errors, settlementdomain.NewRecordError(id, err))
			continue
		}
		result.Succeeded++
		succeeded = append(succeeded, id)
	}

	s.log.Info("bulk settlement transition",
		zap.String("to_status", string(to)),
		zap.Int("requested", result.Requested),
		zap.Int("succeeded", result.Succeeded),
	)
	if result.Succeeded > 0 {
		meta := map[string]any{
			"to_status":      string(to),
			"settlement_ids": succeeded,
			"requested":      result.Requested,
			"failed":         len(result.Errors),
		}
		for k, v := range metadata {
			meta[k] = v
		}
		s.recordAudit(ctx, action, "organization_settlement_batch", succeeded[0], performedBy, meta)
	}
	return result, nil
}

func (s *Automation) transition(ctx context.Context, id string, to settlementdomain.Status, apply func(*domain.OrgSettlement, time.Time)) error {
	sid, err := snowflake.ParseString(id)
	if err != nil {
		return settlementdomain.ErrInvalidID
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.FindByID(ctx, tx, sid)
		if err != nil {
			return err
		}
		if current == nil {
			return &settlementdomain.LookupError{Kind: "settlement", ID: id}
		}

		from := current.Status
		if err := settlementdomain.CheckTransition(id, from, to); err != nil {
			return err
		}

		now := s.clock.Now().UTC()
		current.Status = to
		current.UpdatedAt = now
		apply(current, now)

		changed, err := s.repo.UpdateLifecycle(ctx, tx, current, from)
		if err != nil {
			return err
		}
		if !changed {
			return &settlementdomain.TransitionError{ID: id, From: from, To: to}
		}
		return nil
	})
}
