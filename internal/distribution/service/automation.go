package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/settlement/internal/audit/domain"
	"github.com/smallbiznis/settlement/internal/clock"
	"github.com/smallbiznis/settlement/internal/distribution/domain"
	feedomain "github.com/smallbiznis/settlement/internal/fee/domain"
	ledgerdomain "github.com/smallbiznis/settlement/internal/ledger/domain"
	obscontext "github.com/smallbiznis/settlement/internal/observability/context"
	"github.com/smallbiznis/settlement/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/settlement/internal/observability/metrics"
	"github.com/smallbiznis/settlement/internal/observability/tracing"
	orgdomain "github.com/smallbiznis/settlement/internal/organization/domain"
	policydomain "github.com/smallbiznis/settlement/internal/policy/domain"
	settlementdomain "github.com/smallbiznis/settlement/internal/settlement/domain"
	"github.com/smallbiznis/settlement/pkg/db"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	runKindAutomation = "automation"
	runKindCascade    = "cascade"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      domain.Repository
	Directory orgdomain.Directory `optional:"true"`
	Fees      feedomain.Reader
	Policy    policydomain.Source
	Ledger    ledgerdomain.Service
	Audit     auditdomain.Service `optional:"true"`
	Metrics   *obsmetrics.Metrics `optional:"true"`
}

type Automation struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	repo      domain.Repository
	directory orgdomain.Directory
	fees      feedomain.Reader
	policy    policydomain.Source
	ledger    ledgerdomain.Service
	audit     auditdomain.Service
	metrics   *obsmetrics.Metrics
}

// NewAutomation requires the organization directory; membership is never
// derived from anything else.
func NewAutomation(p Params) (domain.Service, error) {
	if p.Directory == nil {
		return nil, &settlementdomain.ConfigurationError{Field: "directory", Reason: "organization directory is required"}
	}
	if p.Fees == nil || p.Policy == nil || p.Ledger == nil {
		return nil, &settlementdomain.ConfigurationError{Field: "dependencies", Reason: "fee reader, policy and ledger are required"}
	}
	return &Automation{
		db:        p.DB,
		log:       p.Log.Named("distribution.automation"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		directory: p.Directory,
		fees:      p.Fees,
		policy:    p.Policy,
		ledger:    p.Ledger,
		audit:     p.Audit,
		metrics:   p.Metrics,
	}, nil
}

var phaseOrder = []orgdomain.Type{orgdomain.TypeBranch, orgdomain.TypeDivision, orgdomain.TypeNational}

type outcome int

const (
	outcomeCreated outcome = iota
	outcomeUpdated
	outcomeSkipped
)

// RunAutoSettlement computes one settlement per organization and period in
// three phases, branches first. A failing organization is recorded in its
// phase and the batch continues.
func (s *Automation) RunAutoSettlement(ctx context.Context, opts domain.AutomationOptions, performedBy string) (result *domain.AutomationResult, err error) {
	started := time.Now()
	if err := validatePeriod(opts.Year, opts.Month); err != nil {
		s.metrics.RecordRun(ctx, runKindAutomation, "invalid", time.Since(started))
		return nil, err
	}

	runID := ulid.Make().String()
	ctx = obscontext.WithRunID(ctx, runID)
	ctx, span := tracing.Start(ctx, "distribution.auto_settlement",
		attribute.String("run_id", runID),
		attribute.Int("year", opts.Year),
		attribute.Int("month", opts.Month),
		attribute.Bool("dry_run", opts.DryRun),
	)
	defer func() { tracing.End(span, err) }()

	log := logger.WithContext(ctx, s.log)
	defer func() {
		outcome := "success"
		if err != nil || (result != nil && !result.Success) {
			outcome = "failure"
		}
		s.metrics.RecordRun(ctx, runKindAutomation, outcome, time.Since(started))
	}()

	rates, err := s.policy.DistributionRates(ctx, opts.Year)
	if err != nil {
		return nil, fmt.Errorf("load distribution rates: %w", err)
	}

	result = &domain.AutomationResult{
		RunID:  runID,
		Year:   opts.Year,
		Month:  opts.Month,
		DryRun: opts.DryRun,
		Totals: domain.Totals{
			TotalCollected:   decimal.Zero,
			BranchShare:      decimal.Zero,
			DivisionShare:    decimal.Zero,
			NationalShare:    decimal.Zero,
			RemittanceAmount: decimal.Zero,
		},
	}
	if !rates.Balanced() {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"distribution rates for %d sum to %s, branch share absorbs the difference", opts.Year, rates.Sum()))
	}

	orgs, err := s.directory.List(ctx, opts.OrganizationIDs)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	result.Warnings = append(result.Warnings, missingOrganizations(opts.OrganizationIDs, orgs)...)
	if len(opts.OrganizationIDs) == 0 {
		if err := orgdomain.ValidateHierarchy(orgs); err != nil {
			result.Warnings = append(result.Warnings, err.Error())
		}
	}

	byType := map[orgdomain.Type][]orgdomain.Organization{}
	for _, org := range orgs {
		if !org.Type.Valid() {
			result.Warnings = append(result.Warnings, fmt.Sprintf("organization %s has unknown type %q", org.ID, org.Type))
			continue
		}
		byType[org.Type] = append(byType[org.Type], org)
	}

	for _, orgType := range phaseOrder {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		s.runPhase(ctx, log, orgType, byType[orgType], opts, rates, result)
	}

	result.Success = result.Phases.ErrorCount() == 0
	log.Info("auto settlement finished",
		zap.Int("year", opts.Year),
		zap.Int("month", opts.Month),
		zap.Bool("dry_run", opts.DryRun),
		zap.Int("organizations", result.Totals.OrganizationsProcessed),
		zap.Int("errors", result.Phases.ErrorCount()),
	)
	if !opts.DryRun {
		s.recordAudit(ctx, auditdomain.ActionDistributionRun, "distribution_run", runID, performedBy, map[string]any{
			"year":            opts.Year,
			"month":           opts.Month,
			"force":           opts.ForceRecalculate,
			"organizations":   result.Totals.OrganizationsProcessed,
			"total_collected": result.Totals.TotalCollected.String(),
			"errors":          result.Phases.ErrorCount(),
		})
	}
	return result, nil
}

func (s *Automation) runPhase(
	ctx context.Context,
	log *zap.Logger,
	orgType orgdomain.Type,
	orgs []orgdomain.Organization,
	opts domain.AutomationOptions,
	rates policydomain.DistributionRates,
	result *domain.AutomationResult,
) {
	ctx, span := tracing.Start(ctx, "distribution.phase",
		attribute.String("organization_type", string(orgType)),
		attribute.Int("organizations", len(orgs)),
	)
	defer tracing.End(span, nil)

	phase := result.Phases.Phase(orgType)
	for _, org := range orgs {
		out, settlement, err := s.settleOrganization(ctx, org, opts, rates)
		if err != nil {
			log.Warn("failed to settle organization",
				zap.String("org_id", org.ID),
				zap.String("organization_type", string(org.Type)),
				zap.Error(err),
			)
			phase.Errors = append(phase.Errors, settlementdomain.NewRecordError(org.ID, err))
			continue
		}

		// skipped organizations are not processed
		switch out {
		case outcomeCreated:
			phase.Processed++
			phase.Created++
		case outcomeUpdated:
			phase.Processed++
			phase.Updated++
		case outcomeSkipped:
			phase.Skipped++
			continue
		}

		totals := &result.Totals
		totals.OrganizationsProcessed++
		totals.TotalCollected = totals.TotalCollected.Add(settlement.TotalCollected)
		totals.BranchShare = totals.BranchShare.Add(settlement.BranchShare)
		totals.DivisionShare = totals.DivisionShare.Add(settlement.DivisionShare)
		totals.NationalShare = totals.NationalShare.Add(settlement.NationalShare)
		totals.RemittanceAmount = totals.RemittanceAmount.Add(settlement.RemittanceAmount)
	}
}

// settleOrganization computes and, unless dry run, writes one settlement.
// An existing settlement is skipped unless recalculation is forced, and only
// pending settlements can be recalculated.
func (s *Automation) settleOrganization(
	ctx context.Context,
	org orgdomain.Organization,
	opts domain.AutomationOptions,
	rates policydomain.DistributionRates,
) (outcome, *domain.OrgSettlement, error) {
	ctx = obscontext.WithOrgID(ctx, org.ID)
	existing, err := s.repo.FindByOrgPeriod(ctx, s.db, org.ID, opts.Year, opts.Month)
	if err != nil {
		return 0, nil, err
	}
	if existing != nil && !opts.ForceRecalculate {
		return outcomeSkipped, existing, nil
	}
	if existing != nil && existing.Status != settlementdomain.StatusPending {
		return 0, nil, fmt.Errorf("%w: settlement %s is %s", settlementdomain.ErrSettlementLocked, existing.ID, existing.Status)
	}

	details, err := s.collect(ctx, org.ID, opts.Year, opts.Month)
	if err != nil {
		return 0, nil, err
	}
	shares := domain.CalculateShares(details.TotalPaidAmount, org.Type, rates)

	now := s.clock.Now().UTC()
	settlement := &domain.OrgSettlement{
		OrganizationID:        org.ID,
		OrganizationType:      org.Type,
		OrganizationName:      org.Name,
		Year:                  opts.Year,
		Month:                 opts.Month,
		MemberCount:           details.PaidInvoiceCount,
		TotalCollected:        details.TotalPaidAmount,
		BranchShare:           shares.Branch,
		DivisionShare:         shares.Division,
		NationalShare:         shares.National,
		RemittanceAmount:      shares.Remittance,
		RemitToOrganizationID: remitTarget(org),
		Details:               datatypes.NewJSONType(details),
		Status:                settlementdomain.StatusPending,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if existing != nil {
		settlement.ID = existing.ID
		settlement.CreatedAt = existing.CreatedAt
		if !opts.DryRun {
			if err := s.repo.UpdateAmounts(ctx, s.db, settlement); err != nil {
				return 0, nil, err
			}
		}
		return outcomeUpdated, settlement, nil
	}

	if !opts.DryRun {
		settlement.ID = s.genID.Generate()
		if err := s.repo.Insert(ctx, s.db, settlement); err != nil {
			// another run created the period first
			if db.IsDuplicateKeyErr(err) {
				return outcomeSkipped, settlement, nil
			}
			return 0, nil, err
		}
	}
	return outcomeCreated, settlement, nil
}

// collect summarizes paid invoices of the organization's members.
func (s *Automation) collect(ctx context.Context, orgID string, year, month int) (domain.Details, error) {
	details := domain.Details{
		TotalInvoiceAmount: decimal.Zero,
		TotalPaidAmount:    decimal.Zero,
		CollectionRate:     decimal.Zero,
		PaymentMethods:     map[string]domain.MethodTotal{},
	}

	members, err := s.directory.Members(ctx, orgID)
	if err != nil {
		return details, fmt.Errorf("list members: %w", err)
	}
	if len(members) == 0 {
		return details, nil
	}

	invoices, err := s.fees.ListInvoices(ctx, year, month, members)
	if err != nil {
		return details, fmt.Errorf("list invoices: %w", err)
	}

	paidIDs := make([]string, 0, len(invoices))
	for _, inv := range invoices {
		details.InvoiceCount++
		details.TotalInvoiceAmount = details.TotalInvoiceAmount.Add(inv.Amount)
		if !inv.Paid() {
			details.UnpaidInvoiceCount++
			continue
		}
		details.PaidInvoiceCount++
		details.TotalPaidAmount = details.TotalPaidAmount.Add(inv.Amount)
		paidIDs = append(paidIDs, inv.ID)
	}
	details.CollectionRate = domain.CollectionRate(details.TotalPaidAmount, details.TotalInvoiceAmount)

	if len(paidIDs) == 0 {
		return details, nil
	}
	payments, err := s.fees.ListCompletedPayments(ctx, paidIDs)
	if err != nil {
		return details, fmt.Errorf("list payments: %w", err)
	}
	for _, p := range payments {
		method := strings.TrimSpace(p.Method)
		if method == "" {
			method = feedomain.PaymentMethodUnknown
		}
		total := details.PaymentMethods[method]
		total.Count++
		total.Amount = total.Amount.Add(p.Amount)
		details.PaymentMethods[method] = total
	}
	return details, nil
}

func remitTarget(org orgdomain.Organization) *string {
	if org.Type == orgdomain.TypeNational || org.ParentID == nil {
		return nil
	}
	parent := strings.TrimSpace(*org.ParentID)
	if parent == "" {
		return nil
	}
	return &parent
}

func missingOrganizations(requested []string, found []orgdomain.Organization) []string {
	if len(requested) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(found))
	for _, org := range found {
		seen[org.ID] = struct{}{}
	}
	var warnings []string
	for _, id := range requested {
		if _, ok := seen[id]; !ok {
			warnings = append(warnings, fmt.Sprintf("organization %s not found", id))
		}
	}
	return warnings
}

func validatePeriod(year, month int) error {
	if year <= 0 {
		return &settlementdomain.ConfigurationError{Field: "year", Reason: "must be positive"}
	}
	if month < 0 || month > 12 {
		return &settlementdomain.ConfigurationError{Field: "month", Reason: "must be between 0 and 12"}
	}
	return nil
}

func (s *Automation) recordAudit(ctx context.Context, action, targetType, targetID, actor string, metadata map[string]any) {
	if s.audit == nil {
		return
	}
	actorType := string(auditdomain.ActorTypeSystem)
	var actorID *string
	if actor = strings.TrimSpace(actor); actor != "" && actor != string(auditdomain.ActorTypeSystem) {
		actorType = string(auditdomain.ActorTypeUser)
		actorID = &actor
	}
	if err := s.audit.AuditLog(ctx, actorType, actorID, action, targetType, &targetID, metadata); err != nil {
		s.log.Warn("failed to audit distribution action", zap.String("action", action), zap.String("target_id", targetID), zap.Error(err))
	}
}
