package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/settlement/internal/audit/domain"
	"github.com/smallbiznis/settlement/internal/clock"
	obsmetrics "github.com/smallbiznis/settlement/internal/observability/metrics"
	settlementdomain "github.com/smallbiznis/settlement/internal/settlement/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Lifecycle struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	repo    settlementdomain.Repository
	audit   auditdomain.Service
	metrics *obsmetrics.Metrics
}

func NewLifecycle(p Params) settlementdomain.Lifecycle {
	return &Lifecycle{
		db:      p.DB,
		log:     p.Log.Named("settlement.lifecycle"),
		clock:   p.Clock,
		repo:    p.Repo,
		audit:   p.Audit,
		metrics: p.Metrics,
	}
}

func (s *Lifecycle) Get(ctx context.Context, id string) (*settlementdomain.Settlement, []settlementdomain.SettlementItem, error) {
	sid, err := parseID(id)
	if err != nil {
		return nil, nil, err
	}

	settlement, err := s.repo.FindByID(ctx, s.db, sid)
	if err != nil {
		return nil, nil, err
	}
	if settlement == nil {
		return nil, nil, &settlementdomain.LookupError{Kind: "settlement", ID: id}
	}

	items, err := s.repo.ListItems(ctx, s.db, sid)
	if err != nil {
		return nil, nil, err
	}
	return settlement, items, nil
}

func (s *Lifecycle) Confirm(ctx context.Context, id string, actor string) (*settlementdomain.Settlement, error) {
	return s.transition(ctx, id, settlementdomain.StatusConfirmed, auditdomain.ActionSettlementConfirm, actor, nil,
		func(st *settlementdomain.Settlement, now time.Time) {
			st.ConfirmedAt = &now
			if actor = strings.TrimSpace(actor); actor != "" {
				st.ConfirmedBy = &actor
			}
		})
}

func (s *Lifecycle) MarkRemitted(ctx context.Context, id string, reference string, actor string) (*settlementdomain.Settlement, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, &settlementdomain.ConfigurationError{Field: "reference", Reason: "remittance reference is required"}
	}
	return s.transition(ctx, id, settlementdomain.StatusRemitted, auditdomain.ActionSettlementRemit, actor,
		map[string]any{"reference": reference},
		func(st *settlementdomain.Settlement, now time.Time) {
			st.RemittedAt = &now
			st.RemittanceReference = &reference
		})
}

func (s *Lifecycle) Complete(ctx context.Context, id string, actor string) (*settlementdomain.Settlement, error) {
	return s.transition(ctx, id, settlementdomain.StatusCompleted, auditdomain.ActionSettlementComplete, actor, nil,
		func(st *settlementdomain.Settlement, now time.Time) {
			st.CompletedAt = &now
		})
}

func (s *Lifecycle) Cancel(ctx context.Context, id string, actor string, reason string) (*settlementdomain.Settlement, error) {
	reason = strings.TrimSpace(reason)
	return s.transition(ctx, id, settlementdomain.StatusCancelled, auditdomain.ActionSettlementCancel, actor,
		map[string]any{"reason": reason},
		func(st *settlementdomain.Settlement, now time.Time) {
			st.CancelledAt = &now
			if reason != "" {
				st.CancelReason = &reason
			}
		})
}

// transition loads the settlement, checks the move is legal and writes it
// only if no one else changed the status in between.
func (s *Lifecycle) transition(
	ctx context.Context,
	id string,
	to settlementdomain.Status,
	action string,
	actor string,
	metadata map[string]any,
	apply func(*settlementdomain.Settlement, time.Time),
) (*settlementdomain.Settlement, error) {
	sid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var updated *settlementdomain.Settlement
	var from settlementdomain.Status
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.FindByID(ctx, tx, sid)
		if err != nil {
			return err
		}
		if current == nil {
			return &settlementdomain.LookupError{Kind: "settlement", ID: id}
		}

		from = current.Status
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
		updated = current
		return nil
	})
	if err != nil {
		if errors.Is(err, settlementdomain.ErrInvalidTransition) {
			s.metrics.RecordTransitionError(ctx, string(from), string(to))
		}
		return nil, err
	}

	s.log.Info("settlement status changed",
		zap.String("settlement_id", id),
		zap.String("from_status", string(from)),
		zap.String("to_status", string(to)),
	)
	s.recordAudit(ctx, action, id, actor, from, to, metadata)
	return updated, nil
}

func (s *Lifecycle) recordAudit(ctx context.Context, action, id, actor string, from, to settlementdomain.Status, extra map[string]any) {
	if s.audit == nil {
		return
	}
	metadata := map[string]any{
		"from_status": string(from),
		"to_status":   string(to),
	}
	for k, v := range extra {
		metadata[k] = v
	}

	actorType := string(auditdomain.ActorTypeSystem)
	var actorID *string
	if actor = strings.TrimSpace(actor); actor != "" {
		actorType = string(auditdomain.ActorTypeUser)
		actorID = &actor
	}
	if err := s.audit.AuditLog(ctx, actorType, actorID, action, "settlement", &id, metadata); err != nil {
		s.log.Warn("failed to audit settlement transition", zap.String("settlement_id", id), zap.Error(err))
	}
}

func parseID(id string) (snowflake.ID, error) {
	sid, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return 0, settlementdomain.ErrInvalidID
	}
	return sid, nil
}
