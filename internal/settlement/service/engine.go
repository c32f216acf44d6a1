package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	auditdomain "github.com/smallbiznis/settlement/internal/audit/domain"
	"github.com/smallbiznis/settlement/internal/clock"
	commissiondomain "github.com/smallbiznis/settlement/internal/commission/domain"
	obscontext "github.com/smallbiznis/settlement/internal/observability/context"
	"github.com/smallbiznis/settlement/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/settlement/internal/observability/metrics"
	"github.com/smallbiznis/settlement/internal/observability/tracing"
	orderdomain "github.com/smallbiznis/settlement/internal/order/domain"
	settlementdomain "github.com/smallbiznis/settlement/internal/settlement/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const runKindEngine = "engine"

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    settlementdomain.Repository
	Orders  orderdomain.Reader
	Audit   auditdomain.Service `optional:"true"`
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Engine struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    settlementdomain.Repository
	orders  orderdomain.Reader
	audit   auditdomain.Service
	metrics *obsmetrics.Metrics
}

func NewEngine(p Params) settlementdomain.Engine {
	return newEngine(p)
}

func newEngine(p Params) *Engine {
	return &Engine{
		db:      p.DB,
		log:     p.Log.Named("settlement.engine"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		orders:  p.Orders,
		audit:   p.Audit,
		metrics: p.Metrics,
	}
}

// GenerateSettlements reads settleable orders in the period, computes one
// settlement per party with items and persists the run in one transaction.
// On a persistence failure the computed result is still returned alongside
// the error so callers can inspect what would have been written.
func (s *Engine) GenerateSettlements(ctx context.Context, cfg settlementdomain.Config) (result *settlementdomain.Result, err error) {
	started := time.Now()

	cfg, err = normalizeConfig(cfg)
	if err != nil {
		s.metrics.RecordRun(ctx, runKindEngine, "invalid", time.Since(started))
		return nil, err
	}

	runID := ulid.Make().String()
	ctx = obscontext.WithRunID(ctx, runID)
	ctx, span := tracing.Start(ctx, "settlement.generate",
		attribute.String("run_id", runID),
		attribute.Int("parties", len(cfg.Parties)),
		attribute.Bool("dry_run", cfg.DryRun),
	)
	defer func() { tracing.End(span, err) }()

	log := logger.WithContext(ctx, s.log)
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "failure"
		}
		s.metrics.RecordRun(ctx, runKindEngine, outcome, time.Since(started))
	}()

	orders, err := s.orders.ListSettleable(ctx, cfg.PeriodStart, cfg.PeriodEnd)
	if err != nil {
		log.Error("failed to read settleable orders", zap.Error(err))
		return nil, err
	}

	outcomes, err := calculateParties(ctx, orders, cfg.Parties, cfg.RuleSet.Rules, cfg.MaxParallelism)
	if err != nil {
		return nil, err
	}

	result = fold(cfg, runID, outcomes)
	result.Diagnostics.OrdersScanned = len(orders)
	s.reportUnmatched(ctx, log, result.Diagnostics.UnmatchedItems)
	for _, out := range outcomes {
		s.metrics.RecordItems(ctx, string(out.party.Type), len(out.items))
	}

	if cfg.DryRun {
		dups, err := s.countDuplicates(ctx, result.Settlements)
		if err != nil {
			return result, err
		}
		result.Diagnostics.DuplicatesDetected = dups
		log.Info("settlement dry run computed",
			zap.Int("settlements", len(result.Settlements)),
			zap.Int("items", len(result.SettlementItems)),
			zap.Int("duplicates", dups),
		)
		s.recordAudit(ctx, cfg, result)
		return result, nil
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	if len(result.Settlements) == 0 {
		log.Info("no settleable items for parties in period")
		s.recordAudit(ctx, cfg, result)
		return result, nil
	}

	replaced, err := s.persistRun(ctx, result)
	if err != nil {
		log.Error("settlement run rolled back", zap.Error(err))
		return result, err
	}
	result.Diagnostics.DuplicatesDetected = len(replaced)
	result.Diagnostics.ReplacedIDs = replaced

	log.Info("settlement run persisted",
		zap.Int("settlements", len(result.Settlements)),
		zap.Int("items", len(result.SettlementItems)),
		zap.Int("replaced", len(replaced)),
	)
	s.recordAudit(ctx, cfg, result)
	return result, nil
}

// persistRun writes copies of the computed rows so a rollback leaves result
// untouched. Ids are copied back only after commit.
func (s *Engine) persistRun(ctx context.Context, result *settlementdomain.Result) ([]snowflake.ID, error) {
	ctx, span := tracing.Start(ctx, "settlement.persist",
		attribute.Int("settlements", len(result.Settlements)),
		attribute.Int("items", len(result.SettlementItems)),
	)

	headers := make([]*settlementdomain.Settlement, len(result.Settlements))
	for i := range result.Settlements {
		header := result.Settlements[i]
		headers[i] = &header
	}
	items := make([]*settlementdomain.SettlementItem, len(result.SettlementItems))
	for i := range result.SettlementItems {
		item := result.SettlementItems[i]
		items[i] = &item
	}

	now := s.clock.Now().UTC()
	var replaced []snowflake.ID
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		replaced, err = s.persist(ctx, tx, headers, items, now)
		return err
	})
	if err != nil {
		var perr *settlementdomain.PersistenceError
		if !errors.As(err, &perr) {
			err = &settlementdomain.PersistenceError{Err: err}
		}
		tracing.End(span, err)
		return nil, err
	}
	tracing.End(span, nil)

	for i, header := range headers {
		result.Settlements[i] = *header
	}
	for i, item := range items {
		result.SettlementItems[i] = *item
	}
	return replaced, nil
}

func (s *Engine) reportUnmatched(ctx context.Context, log *zap.Logger, unmatched []settlementdomain.UnmatchedRuleWarning) {
	if len(unmatched) == 0 {
		return
	}
	byType := map[string]int{}
	for _, w := range unmatched {
		partyType, partyID, _ := strings.Cut(w.PartyKey, ":")
		logger.WithParty(log, partyType, partyID).Warn("no commission rule matched order line",
			zap.String("order_id", w.OrderID),
			zap.String("order_item_id", w.OrderItemID),
			zap.String("product_id", w.ProductID),
		)
		byType[partyType]++
	}
	for partyType, n := range byType {
		s.metrics.RecordUnmatched(ctx, partyType, n)
	}
}

func (s *Engine) recordAudit(ctx context.Context, cfg settlementdomain.Config, result *settlementdomain.Result) {
	if s.audit == nil {
		return
	}

	actorType := string(auditdomain.ActorTypeSystem)
	var actorID *string
	if performedBy := strings.TrimSpace(cfg.PerformedBy); performedBy != "" && performedBy != string(auditdomain.ActorTypeSystem) {
		actorType = string(auditdomain.ActorTypeUser)
		actorID = &performedBy
	}

	runID := result.RunID
	metadata := map[string]any{
		"period_start":        cfg.PeriodStart.Format(time.RFC3339),
		"period_end":          cfg.PeriodEnd.Format(time.RFC3339),
		"rule_set_id":         cfg.RuleSet.ID,
		"dry_run":             cfg.DryRun,
		"settlements":         len(result.Settlements),
		"items":               len(result.SettlementItems),
		"duplicates_detected": result.Diagnostics.DuplicatesDetected,
	}
	if cfg.Tag != "" {
		metadata["tag"] = cfg.Tag
	}
	if err := s.audit.AuditLog(ctx, actorType, actorID, auditdomain.ActionSettlementRun, "settlement_run", &runID, metadata); err != nil {
		s.log.Warn("failed to audit settlement run", zap.String("run_id", runID), zap.Error(err))
	}
}

func normalizeConfig(cfg settlementdomain.Config) (settlementdomain.Config, error) {
	if cfg.PeriodStart.IsZero() || cfg.PeriodEnd.IsZero() {
		return cfg, &settlementdomain.ConfigurationError{Field: "period", Reason: "start and end are required"}
	}
	cfg.PeriodStart = cfg.PeriodStart.UTC()
	cfg.PeriodEnd = cfg.PeriodEnd.UTC()
	if cfg.PeriodEnd.Before(cfg.PeriodStart) {
		return cfg, &settlementdomain.ConfigurationError{Field: "period", Reason: "end is before start"}
	}

	if len(cfg.Parties) == 0 {
		return cfg, &settlementdomain.ConfigurationError{Field: "parties", Reason: "at least one party is required"}
	}
	seen := make(map[string]struct{}, len(cfg.Parties))
	parties := make([]commissiondomain.Party, 0, len(cfg.Parties))
	for _, party := range cfg.Parties {
		party.ID = strings.TrimSpace(party.ID)
		party.Currency = strings.ToUpper(strings.TrimSpace(party.Currency))
		if !party.Type.Valid() || party.ID == "" {
			return cfg, &settlementdomain.ConfigurationError{
				Field:  "parties",
				Reason: "invalid party " + party.Key(),
				Err:    commissiondomain.ErrInvalidParty,
			}
		}
		if party.Currency == "" {
			return cfg, &settlementdomain.ConfigurationError{Field: "parties", Reason: "currency missing for " + party.Key()}
		}
		if _, dup := seen[party.Key()]; dup {
			return cfg, &settlementdomain.ConfigurationError{Field: "parties", Reason: "duplicate party " + party.Key()}
		}
		seen[party.Key()] = struct{}{}
		parties = append(parties, party)
	}
	cfg.Parties = parties

	if err := cfg.RuleSet.Validate(); err != nil {
		return cfg, &settlementdomain.ConfigurationError{Field: "rule_set", Reason: err.Error(), Err: err}
	}

	cfg.Tag = strings.TrimSpace(cfg.Tag)
	if cfg.MaxParallelism < 1 {
		cfg.MaxParallelism = 1
	}
	return cfg, nil
}
