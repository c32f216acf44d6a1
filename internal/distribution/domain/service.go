package domain

import (
	"context"

	"github.com/shopspring/decimal"
	orgdomain "github.com/smallbiznis/settlement/internal/organization/domain"
	settlementdomain "github.com/smallbiznis/settlement/internal/settlement/domain"
)

type Service interface {
	RunAutoSettlement(ctx context.Context, opts AutomationOptions, performedBy string) (*AutomationResult, error)
	ProcessCascadeRemittance(ctx context.Context, year, month int, performedBy string) (*CascadeResult, error)
	BulkConfirm(ctx context.Context, ids []string, performedBy, performedByName string) (*BulkResult, error)
	BulkComplete(ctx context.Context, ids []string, performedBy string) (*BulkResult, error)
	BulkCancel(ctx context.Context, ids []string, performedBy, reason string) (*BulkResult, error)
	Report(ctx context.Context, year, month int) (*Report, error)
	Dashboard(ctx context.Context, year int) (*Dashboard, error)
}

// AutomationOptions selects the period and organizations of a run. Month 0
// settles the whole year. Empty OrganizationIDs selects every organization.
type AutomationOptions struct {
	Year             int      `json:"year"`
	Month            int      `json:"month"`
	OrganizationIDs  []string `json:"organization_ids,omitempty"`
	DryRun           bool     `json:"dry_run"`
	ForceRecalculate bool     `json:"force_recalculate"`
}

type PhaseResult struct {
	Processed int                            `json:"processed"`
	Created   int                            `json:"created"`
	Updated   int                            `json:"updated"`
	Skipped   int                            `json:"skipped"`
	Errors    []settlementdomain.RecordError `json:"errors,omitempty"`
}

type Phases struct {
	Branch   PhaseResult `json:"branch"`
	Division PhaseResult `json:"division"`
	National PhaseResult `json:"national"`
}

// Phase returns the result slot for an organization type.
func (p *Phases) Phase(t orgdomain.Type) *PhaseResult {
	switch t {
	case orgdomain.TypeBranch:
		return &p.Branch
	case orgdomain.TypeDivision:
		return &p.Division
	case orgdomain.TypeNational:
		return &p.National
	default:
		return nil
	}
}

func (p Phases) ErrorCount() int {
	return len(p.Branch.Errors) + len(p.Division.Errors) + len(p.National.Errors)
}

// Totals sums the organizations computed by a run, written or not.
type Totals struct {
	OrganizationsProcessed int             `json:"organizations_processed"`
	TotalCollected         decimal.Decimal `json:"total_collected"`
	BranchShare            decimal.Decimal `json:"branch_share"`
	DivisionShare          decimal.Decimal `json:"division_share"`
	NationalShare          decimal.Decimal `json:"national_share"`
	RemittanceAmount       decimal.Decimal `json:"remittance_amount"`
}

type AutomationResult struct {
	RunID    string   `json:"run_id"`
	Success  bool     `json:"success"`
	Year     int      `json:"year"`
	Month    int      `json:"month"`
	DryRun   bool     `json:"dry_run"`
	Phases   Phases   `json:"phases"`
	Totals   Totals   `json:"totals"`
	Warnings []string `json:"warnings,omitempty"`
}

// RemittanceFlow counts one tier of the cascade. Total includes confirmed
// settlements that had nothing to remit.
type RemittanceFlow struct {
	Total     int                            `json:"total"`
	Processed int                            `json:"processed"`
	Amount    decimal.Decimal                `json:"amount"`
	Errors    []settlementdomain.RecordError `json:"errors,omitempty"`
}

type CascadeResult struct {
	RunID              string         `json:"run_id"`
	Success            bool           `json:"success"`
	Year               int            `json:"year"`
	Month              int            `json:"month"`
	BranchToDivision   RemittanceFlow `json:"branch_to_division"`
	DivisionToNational RemittanceFlow `json:"division_to_national"`
}

type BulkResult struct {
	Requested int                            `json:"requested"`
	Succeeded int                            `json:"succeeded"`
	Errors    []settlementdomain.RecordError `json:"errors,omitempty"`
}

type Report struct {
	Summary        ReportSummary `json:"summary"`
	ByOrganization []ReportRow   `json:"by_organization"`
}

type ReportSummary struct {
	Period            string          `json:"period"`
	Organizations     int             `json:"organizations"`
	TotalCollected    decimal.Decimal `json:"total_collected"`
	TotalMembers      int             `json:"total_members"`
	AvgCollectionRate decimal.Decimal `json:"avg_collection_rate"`
	NationalShare     decimal.Decimal `json:"national_share"`
	DivisionShare     decimal.Decimal `json:"division_share"`
	BranchShare       decimal.Decimal `json:"branch_share"`
}

type ReportRow struct {
	OrganizationID   string                  `json:"organization_id"`
	OrganizationName string                  `json:"organization_name"`
	OrganizationType orgdomain.Type          `json:"organization_type"`
	Month            int                     `json:"month"`
	MemberCount      int                     `json:"member_count"`
	TotalCollected   decimal.Decimal         `json:"total_collected"`
	CollectionRate   decimal.Decimal         `json:"collection_rate"`
	RemittanceAmount decimal.Decimal         `json:"remittance_amount"`
	Status           settlementdomain.Status `json:"status"`
}

type Dashboard struct {
	Year     int                            `json:"year"`
	Overview DashboardOverview              `json:"overview"`
	ByType   map[orgdomain.Type]TypeSummary `json:"by_type"`
}

type DashboardOverview struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Confirmed int `json:"confirmed"`
	Remitted  int `json:"remitted"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
}

type TypeSummary struct {
	Count             int             `json:"count"`
	TotalCollected    decimal.Decimal `json:"total_collected"`
	AvgCollectionRate decimal.Decimal `json:"avg_collection_rate"`
	// PendingRemittance is owed by settlements not yet remitted.
	PendingRemittance decimal.Decimal `json:"pending_remittance"`
}
