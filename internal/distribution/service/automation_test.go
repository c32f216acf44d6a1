package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/settlement/internal/audit/domain"
	auditrepository "github.com/smallbiznis/settlement/internal/audit/repository"
	auditservice "github.com/smallbiznis/settlement/internal/audit/service"
	"github.com/smallbiznis/settlement/internal/clock"
	commissiondomain "github.com/smallbiznis/settlement/internal/commission/domain"
	"github.com/smallbiznis/settlement/internal/distribution/domain"
	"github.com/smallbiznis/settlement/internal/distribution/repository"
	feedomain "github.com/smallbiznis/settlement/internal/fee/domain"
	feerepository "github.com/smallbiznis/settlement/internal/fee/repository"
	ledgerdomain "github.com/smallbiznis/settlement/internal/ledger/domain"
	ledgerservice "github.com/smallbiznis/settlement/internal/ledger/service"
	orgdomain "github.com/smallbiznis/settlement/internal/organization/domain"
	orgrepository "github.com/smallbiznis/settlement/internal/organization/repository"
	policydomain "github.com/smallbiznis/settlement/internal/policy/domain"
	settlementdomain "github.com/smallbiznis/settlement/internal/settlement/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type staticPolicy struct {
	rates policydomain.DistributionRates
}

func (p staticPolicy) RuleSet(context.Context) (commissiondomain.RuleSet, error) {
	return commissiondomain.RuleSet{}, nil
}

func (p staticPolicy) DistributionRates(context.Context, int) (policydomain.DistributionRates, error) {
	return p.rates, nil
}

type testEnv struct {
	db     *gorm.DB
	params Params
	ledger ledgerdomain.Service
}

var seededAt = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&orgdomain.Organization{},
		&orgdomain.OrganizationMember{},
		&feedomain.FeeInvoice{},
		&feedomain.FeePayment{},
		&domain.OrgSettlement{},
		&ledgerdomain.RemittanceLedgerEntry{},
		&auditdomain.AuditLog{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, 4, 1, 2, 0, 0, 0, time.UTC))

	ledger := ledgerservice.NewService(ledgerservice.Params{DB: db, Log: zap.NewNop(), GenID: node, Clock: clk})
	audit := auditservice.NewService(auditservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clk,
		Repo:  auditrepository.Provide(),
	})

	env := &testEnv{
		db:     db,
		ledger: ledger,
		params: Params{
			DB:        db,
			Log:       zap.NewNop(),
			GenID:     node,
			Clock:     clk,
			Repo:      repository.Provide(),
			Directory: orgrepository.NewDirectory(db),
			Fees:      feerepository.NewReader(db),
			Policy:    staticPolicy{rates: policydomain.DefaultRates()},
			Ledger:    ledger,
			Audit:     audit,
		},
	}
	env.seedHierarchy(t)
	return env
}

// seedHierarchy creates nat <- div <- br. Branch members paid 100000 of
// 150000 invoiced in March 2026, the division member paid 20000.
func (e *testEnv) seedHierarchy(t *testing.T) {
	t.Helper()
	nat, div := "nat", "div"
	require.NoError(t, e.db.Create([]orgdomain.Organization{
		{ID: "nat", Name: "National", Type: orgdomain.TypeNational, CreatedAt: seededAt, UpdatedAt: seededAt},
		{ID: "div", Name: "Division", Type: orgdomain.TypeDivision, ParentID: &nat, CreatedAt: seededAt, UpdatedAt: seededAt},
		{ID: "br", Name: "Branch", Type: orgdomain.TypeBranch, ParentID: &div, CreatedAt: seededAt, UpdatedAt: seededAt},
	}).Error)
	require.NoError(t, e.db.Create([]orgdomain.OrganizationMember{
		{ID: "m1", OrgID: "br", CreatedAt: seededAt},
		{ID: "m2", OrgID: "br", CreatedAt: seededAt},
		{ID: "m3", OrgID: "br", CreatedAt: seededAt},
		{ID: "m5", OrgID: "div", CreatedAt: seededAt},
	}).Error)
	require.NoError(t, e.db.Create([]feedomain.FeeInvoice{
		{ID: "inv-1", MemberID: "m1", Year: 2026, Month: 3, Amount: dec("40000"), Status: feedomain.InvoiceStatusPaid, CreatedAt: seededAt},
		{ID: "inv-2", MemberID: "m2", Year: 2026, Month: 3, Amount: dec("60000"), Status: feedomain.InvoiceStatusPaid, CreatedAt: seededAt},
		{ID: "inv-3", MemberID: "m3", Year: 2026, Month: 3, Amount: dec("50000"), Status: feedomain.InvoiceStatusUnpaid, CreatedAt: seededAt},
		{ID: "inv-4", MemberID: "m1", Year: 2026, Month: 2, Amount: dec("40000"), Status: feedomain.InvoiceStatusPaid, CreatedAt: seededAt},
		{ID: "inv-5", MemberID: "m5", Year: 2026, Month: 3, Amount: dec("20000"), Status: feedomain.InvoiceStatusPaid, CreatedAt: seededAt},
	}).Error)
	require.NoError(t, e.db.Create([]feedomain.FeePayment{
		{ID: "pay-1", InvoiceID: "inv-1", Method: "transfer", Amount: dec("40000"), Status: feedomain.PaymentStatusCompleted, CreatedAt: seededAt},
		{ID: "pay-2", InvoiceID: "inv-2", Amount: dec("60000"), Status: feedomain.PaymentStatusCompleted, CreatedAt: seededAt},
		{ID: "pay-3", InvoiceID: "inv-3", Method: "card", Amount: dec("50000"), Status: "failed", CreatedAt: seededAt},
		{ID: "pay-5", InvoiceID: "inv-5", Method: "transfer", Amount: dec("20000"), Status: feedomain.PaymentStatusCompleted, CreatedAt: seededAt},
	}).Error)
}

func (e *testEnv) automation(t *testing.T) *Automation {
	t.Helper()
	svc, err := NewAutomation(e.params)
	require.NoError(t, err)
	return svc.(*Automation)
}

func (e *testEnv) settlement(t *testing.T, orgID string) *domain.OrgSettlement {
	t.Helper()
	st, err := e.params.Repo.FindByOrgPeriod(context.Background(), e.db, orgID, 2026, 3)
	require.NoError(t, err)
	require.NotNil(t, st, "settlement for %s", orgID)
	return st
}

func (e *testEnv) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(model).Count(&n).Error)
	return n
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func march() domain.AutomationOptions {
	return domain.AutomationOptions{Year: 2026, Month: 3}
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, got.Equal(dec(want)), "want %s, got %s", want, got)
}

func TestNewAutomationRequiresDirectory(t *testing.T) {
	_, err := NewAutomation(Params{Log: zap.NewNop()})
	require.Error(t, err)
	assert.ErrorIs(t, err, settlementdomain.ErrInvalidConfiguration)

	var cerr *settlementdomain.ConfigurationError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "directory", cerr.Field)
}

func TestRunAutoSettlementComputesShares(t *testing.T) {
	env := newTestEnv(t)
	result, err := env.automation(t).RunAutoSettlement(context.Background(), march(), "ops-1")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.NotEmpty(t, result.RunID)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, 1, result.Phases.Branch.Created)
	assert.Equal(t, 1, result.Phases.Division.Created)
	assert.Equal(t, 1, result.Phases.National.Created)
	assert.Equal(t, 3, result.Totals.OrganizationsProcessed)
	assertDecimal(t, "120000", result.Totals.TotalCollected)

	br := env.settlement(t, "br")
	assert.Equal(t, settlementdomain.StatusPending, br.Status)
	assertDecimal(t, "100000", br.TotalCollected)
	assertDecimal(t, "60000", br.NationalShare)
	assertDecimal(t, "25000", br.DivisionShare)
	assertDecimal(t, "15000", br.BranchShare)
	assertDecimal(t, "85000", br.RemittanceAmount)
	require.NotNil(t, br.RemitToOrganizationID)
	assert.Equal(t, "div", *br.RemitToOrganizationID)
	assert.Equal(t, 2, br.MemberCount)

	details := br.Details.Data()
	assert.Equal(t, 3, details.InvoiceCount)
	assert.Equal(t, 2, details.PaidInvoiceCount)
	assert.Equal(t, 1, details.UnpaidInvoiceCount)
	assertDecimal(t, "150000", details.TotalInvoiceAmount)
	assertDecimal(t, "66.67", details.CollectionRate)
	assert.Equal(t, 1, details.PaymentMethods["transfer"].Count)
	assertDecimal(t, "60000", details.PaymentMethods[feedomain.PaymentMethodUnknown].Amount)

	div := env.settlement(t, "div")
	assertDecimal(t, "12000", div.RemittanceAmount)
	assert.Equal(t, "nat", *div.RemitToOrganizationID)

	nat := env.settlement(t, "nat")
	assert.True(t, nat.TotalCollected.IsZero())
	assert.True(t, nat.RemittanceAmount.IsZero())
	assert.Nil(t, nat.RemitToOrganizationID)

	var n int64
	require.NoError(t, env.db.Model(&auditdomain.AuditLog{}).Where("action = ?", auditdomain.ActionDistributionRun).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestRunAutoSettlementIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	svc := env.automation(t)
	ctx := context.Background()

	_, err := svc.RunAutoSettlement(ctx, march(), "")
	require.NoError(t, err)
	second, err := svc.RunAutoSettlement(ctx, march(), "")
	require.NoError(t, err)

	assert.True(t, second.Success)
	assert.Equal(t, 1, second.Phases.Branch.Skipped)
	assert.Equal(t, 1, second.Phases.Division.Skipped)
	assert.Equal(t, 1, second.Phases.National.Skipped)
	assert.Zero(t, second.Phases.Branch.Created)
	assert.Zero(t, second.Phases.Branch.Processed)
	assert.Zero(t, second.Phases.Division.Processed)
	assert.Zero(t, second.Phases.National.Processed)
	assert.Zero(t, second.Totals.OrganizationsProcessed)
	assert.EqualValues(t, 3, env.count(t, &domain.OrgSettlement{}))
}

func TestRunAutoSettlementForceRecalculate(t *testing.T) {
	env := newTestEnv(t)
	svc := env.automation(t)
	ctx := context.Background()

	_, err := svc.RunAutoSettlement(ctx, march(), "")
	require.NoError(t, err)
	original := env.settlement(t, "br")

	require.NoError(t, env.db.Model(&feedomain.FeeInvoice{}).Where("id = ?", "inv-3").Update("status", feedomain.InvoiceStatusPaid).Error)

	opts := march()
	opts.OrganizationIDs = []string{"br"}
	opts.ForceRecalculate = true
	result, err := svc.RunAutoSettlement(ctx, opts, "")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Phases.Branch.Updated)
	assert.Equal(t, 1, result.Phases.Branch.Processed)
	assert.Zero(t, result.Phases.Division.Processed)

	br := env.settlement(t, "br")
	assert.Equal(t, original.ID, br.ID)
	assertDecimal(t, "150000", br.TotalCollected)
	assertDecimal(t, "90000", br.NationalShare)
	assertDecimal(t, "127500", br.RemittanceAmount)
	assertDecimal(t, "100", br.Details.Data().CollectionRate)
	assert.EqualValues(t, 3, env.count(t, &domain.OrgSettlement{}))
}

func TestRunAutoSettlementForceKeepsConfirmedSettlements(t *testing.T) {
	env := newTestEnv(t)
	svc := env.automation(t)
	ctx := context.Background()

	_, err := svc.RunAutoSettlement(ctx, march(), "")
	require.NoError(t, err)
	br := env.settlement(t, "br")
	bulk, err := svc.BulkConfirm(ctx, []string{br.ID.String()}, "ops-1", "Ops One")
	require.NoError(t, err)
	require.Equal(t, 1, bulk.Succeeded)

	opts := march()
	opts.ForceRecalculate = true
	result, err := svc.RunAutoSettlement(ctx, opts, "")
	require.NoError(t, err)

	assert.False(t, result.Success)
	require.Len(t, result.Phases.Branch.Errors, 1)
	assert.Equal(t, "br", result.Phases.Branch.Errors[0].ID)
	assert.Contains(t, result.Phases.Branch.Errors[0].Error, settlementdomain.ErrSettlementLocked.Error())
	assert.Equal(t, 1, result.Phases.Division.Updated)
	assert.Equal(t, 1, result.Phases.National.Updated)
}

func TestRunAutoSettlementDryRunWritesNothing(t *testing.T) {
	env := newTestEnv(t)
	opts := march()
	opts.DryRun = true

	result, err := env.automation(t).RunAutoSettlement(context.Background(), opts, "ops-1")
	require.NoError(t, err)

	assert.True(t, result.DryRun)
	assert.Equal(t, 1, result.Phases.Branch.Created)
	assertDecimal(t, "97000", result.Totals.RemittanceAmount)
	assert.Zero(t, env.count(t, &domain.OrgSettlement{}))
	assert.Zero(t, env.count(t, &auditdomain.AuditLog{}))
}

func TestRunAutoSettlementWarnings(t *testing.T) {
	env := newTestEnv(t)
	env.params.Policy = staticPolicy{rates: policydomain.DistributionRates{
		NationalRate: dec("0.5"),
		DivisionRate: dec("0.25"),
		BranchRate:   dec("0.15"),
	}}

	opts := march()
	opts.OrganizationIDs = []string{"br", "ghost"}
	result, err := env.automation(t).RunAutoSettlement(context.Background(), opts, "")
	require.NoError(t, err)

	require.Len(t, result.Warnings, 2)
	assert.Contains(t, result.Warnings[0], "0.9")
	assert.Contains(t, result.Warnings[1], "ghost")

	br := env.settlement(t, "br")
	sum := br.BranchShare.Add(br.DivisionShare).Add(br.NationalShare)
	assert.True(t, sum.Equal(br.TotalCollected))
	assertDecimal(t, "25000", br.BranchShare)
}

func TestRunAutoSettlementWarnsOnBrokenHierarchy(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.db.Exec(`UPDATE organizations SET parent_id = NULL WHERE id = ?`, "br").Error)

	result, err := env.automation(t).RunAutoSettlement(context.Background(), march(), "")
	require.NoError(t, err)

	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "br has no parent")
	assert.Equal(t, 1, result.Phases.Branch.Created)
}

func TestRunAutoSettlementRejectsInvalidPeriod(t *testing.T) {
	env := newTestEnv(t)
	svc := env.automation(t)

	_, err := svc.RunAutoSettlement(context.Background(), domain.AutomationOptions{Year: 0, Month: 3}, "")
	assert.ErrorIs(t, err, settlementdomain.ErrInvalidConfiguration)
	_, err = svc.RunAutoSettlement(context.Background(), domain.AutomationOptions{Year: 2026, Month: 13}, "")
	assert.ErrorIs(t, err, settlementdomain.ErrInvalidConfiguration)
}

func confirmAll(t *testing.T, env *testEnv, svc *Automation) {
	t.Helper()
	ids := []string{
		env.settlement(t, "br").ID.String(),
		env.settlement(t, "div").ID.String(),
		env.settlement(t, "nat").ID.String(),
	}
	result, err := svc.BulkConfirm(context.Background(), ids, "ops-1", "Ops One")
	require.NoError(t, err)
	require.Equal(t, 3, result.Succeeded)
}

func TestProcessCascadeRemittance(t *testing.T) {
	env := newTestEnv(t)
	svc := env.automation(t)
	ctx := context.Background()

	_, err := svc.RunAutoSettlement(ctx, march(), "")
	require.NoError(t, err)
	confirmAll(t, env, svc)

	result, err := svc.ProcessCascadeRemittance(ctx, 2026, 3, "ops-1")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.BranchToDivision.Total)
	assert.Equal(t, 1, result.BranchToDivision.Processed)
	assertDecimal(t, "85000", result.BranchToDivision.Amount)
	assert.Equal(t, 1, result.DivisionToNational.Processed)
	assertDecimal(t, "12000", result.DivisionToNational.Amount)

	br := env.settlement(t, "br")
	assert.Equal(t, settlementdomain.StatusRemitted, br.Status)
	require.NotNil(t, br.RemittanceReference)
	assert.True(t, strings.HasPrefix(*br.RemittanceReference, "AUTO-"))
	assert.Equal(t, settlementdomain.StatusConfirmed, env.settlement(t, "nat").Status)

	entries, err := env.ledger.ListIncoming(ctx, "div", 2026, 3)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "br", entries[0].SendingOrganizationID)
	assert.Equal(t, br.ID, entries[0].SourceSettlementID)
	assertDecimal(t, "85000", entries[0].Amount)
	assert.Equal(t, *br.RemittanceReference, entries[0].Reference)

	total, err := env.ledger.IncomingTotal(ctx, "nat", 2026, 3)
	require.NoError(t, err)
	assertDecimal(t, "12000", total)

	again, err := svc.ProcessCascadeRemittance(ctx, 2026, 3, "ops-1")
	require.NoError(t, err)
	assert.Zero(t, again.BranchToDivision.Total)
	assert.Zero(t, again.DivisionToNational.Total)
	assert.EqualValues(t, 2, env.count(t, &ledgerdomain.RemittanceLedgerEntry{}))

	var n int64
	require.NoError(t, env.db.Model(&auditdomain.AuditLog{}).Where("action = ?", auditdomain.ActionDistributionRemit).Count(&n).Error)
	assert.EqualValues(t, 2, n)

	bulk, err := svc.BulkComplete(ctx, []string{br.ID.String()}, "ops-1")
	require.NoError(t, err)
	assert.Equal(t, 1, bulk.Succeeded)
	assert.Equal(t, settlementdomain.StatusCompleted, env.settlement(t, "br").Status)
}

func TestBulkCompleteRequiresRemitted(t *testing.T) {
	env := newTestEnv(t)
	svc := env.automation(t)
	ctx := context.Background()

	_, err := svc.RunAutoSettlement(ctx, march(), "")
	require.NoError(t, err)
	confirmAll(t, env, svc)

	br := env.settlement(t, "br")
	div := env.settlement(t, "div")
	bulk, err := svc.BulkComplete(ctx, []string{br.ID.String(), div.ID.String()}, "ops-1")
	require.NoError(t, err)

	assert.Equal(t, 2, bulk.Requested)
	assert.Equal(t, 0, bulk.Succeeded)
	require.Len(t, bulk.Errors, 2)
	assert.Equal(t, br.ID.String(), bulk.Errors[0].ID)
	assert.Contains(t, bulk.Errors[0].Error, "cannot transition from confirmed to completed")
	assert.Equal(t, div.ID.String(), bulk.Errors[1].ID)

	assert.Equal(t, settlementdomain.StatusConfirmed, env.settlement(t, "br").Status)
	assert.Nil(t, env.settlement(t, "br").CompletedAt)
	assert.Equal(t, settlementdomain.StatusConfirmed, env.settlement(t, "div").Status)
}

func TestProcessCascadeRemittanceMissingParent(t *testing.T) {
	env := newTestEnv(t)
	svc := env.automation(t)
	ctx := context.Background()

	_, err := svc.RunAutoSettlement(ctx, march(), "")
	require.NoError(t, err)
	confirmAll(t, env, svc)
	require.NoError(t, env.db.Exec(`DELETE FROM organizations WHERE id = ?`, "div").Error)

	result, err := svc.ProcessCascadeRemittance(ctx, 2026, 3, "")
	require.NoError(t, err)

	assert.False(t, result.Success)
	require.Len(t, result.BranchToDivision.Errors, 1)
	assert.Contains(t, result.BranchToDivision.Errors[0].Error, "organization div not found")
	assert.Zero(t, result.BranchToDivision.Processed)
	assert.Equal(t, 1, result.DivisionToNational.Processed)
	assert.Equal(t, settlementdomain.StatusConfirmed, env.settlement(t, "br").Status)
	assert.EqualValues(t, 1, env.count(t, &ledgerdomain.RemittanceLedgerEntry{}))
}

func TestBulkTransitionsReportPerRecordErrors(t *testing.T) {
	env := newTestEnv(t)
	svc := env.automation(t)
	ctx := context.Background()

	_, err := svc.RunAutoSettlement(ctx, march(), "")
	require.NoError(t, err)
	brID := env.settlement(t, "br").ID.String()
	divID := env.settlement(t, "div").ID.String()

	completed, err := svc.BulkComplete(ctx, []string{brID, "12345", "nope"}, "ops-1")
	require.NoError(t, err)
	assert.Equal(t, 3, completed.Requested)
	assert.Zero(t, completed.Succeeded)
	require.Len(t, completed.Errors, 3)
	assert.Contains(t, completed.Errors[0].Error, "cannot transition from pending to completed")
	assert.Contains(t, completed.Errors[1].Error, "not found")
	assert.Equal(t, settlementdomain.ErrInvalidID.Error(), completed.Errors[2].Error)

	cancelled, err := svc.BulkCancel(ctx, []string{divID}, "ops-1", "recount")
	require.NoError(t, err)
	assert.Equal(t, 1, cancelled.Succeeded)
	div := env.settlement(t, "div")
	assert.Equal(t, settlementdomain.StatusCancelled, div.Status)
	assert.Equal(t, "recount", *div.CancelReason)

	confirmed, err := svc.BulkConfirm(ctx, []string{brID, divID}, "ops-1", "Ops One")
	require.NoError(t, err)
	assert.Equal(t, 1, confirmed.Succeeded)
	require.Len(t, confirmed.Errors, 1)
	assert.Equal(t, divID, confirmed.Errors[0].ID)

	br := env.settlement(t, "br")
	assert.Equal(t, "Ops One", *br.ConfirmedByName)
	assert.NotNil(t, br.ConfirmedAt)
}

func TestReportAndDashboard(t *testing.T) {
	env := newTestEnv(t)
	svc := env.automation(t)
	ctx := context.Background()

	_, err := svc.RunAutoSettlement(ctx, march(), "")
	require.NoError(t, err)
	_, err = svc.BulkConfirm(ctx, []string{env.settlement(t, "br").ID.String()}, "ops-1", "")
	require.NoError(t, err)

	report, err := svc.Report(ctx, 2026, 3)
	require.NoError(t, err)
	assert.Equal(t, "2026-03", report.Summary.Period)
	assert.Equal(t, 3, report.Summary.Organizations)
	assertDecimal(t, "120000", report.Summary.TotalCollected)
	assert.Equal(t, 3, report.Summary.TotalMembers)
	assertDecimal(t, "72000", report.Summary.NationalShare)
	require.Len(t, report.ByOrganization, 3)
	assert.Equal(t, "br", report.ByOrganization[0].OrganizationID)
	// (66.67 + 100 + 0) / 3
	assertDecimal(t, "55.56", report.Summary.AvgCollectionRate)

	dash, err := svc.Dashboard(ctx, 2026)
	require.NoError(t, err)
	assert.Equal(t, 3, dash.Overview.Total)
	assert.Equal(t, 2, dash.Overview.Pending)
	assert.Equal(t, 1, dash.Overview.Confirmed)
	assert.Equal(t, 1, dash.ByType[orgdomain.TypeBranch].Count)
	assertDecimal(t, "85000", dash.ByType[orgdomain.TypeBranch].PendingRemittance)
	assertDecimal(t, "66.67", dash.ByType[orgdomain.TypeBranch].AvgCollectionRate)
}
