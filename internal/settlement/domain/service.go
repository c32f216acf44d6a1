package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	commissiondomain "github.com/smallbiznis/settlement/internal/commission/domain"
)

// Engine computes and persists per-party settlements for a period.
type Engine interface {
	GenerateSettlements(ctx context.Context, cfg Config) (*Result, error)
}

// Lifecycle moves engine settlements through their statuses.
type Lifecycle interface {
	Get(ctx context.Context, id string) (*Settlement, []SettlementItem, error)
	Confirm(ctx context.Context, id string, actor string) (*Settlement, error)
	MarkRemitted(ctx context.Context, id string, reference string, actor string) (*Settlement, error)
	Complete(ctx context.Context, id string, actor string) (*Settlement, error)
	Cancel(ctx context.Context, id string, actor string, reason string) (*Settlement, error)
}

type Config struct {
	PeriodStart time.Time
	PeriodEnd   time.Time
	Parties     []commissiondomain.Party
	RuleSet     commissiondomain.RuleSet
	DryRun      bool
	Tag         string
	// MaxParallelism bounds concurrent per-party calculation. Values below
	// one mean sequential.
	MaxParallelism int
	PerformedBy    string
}

type Result struct {
	RunID           string           `json:"run_id"`
	DryRun          bool             `json:"dry_run"`
	Settlements     []Settlement     `json:"settlements"`
	SettlementItems []SettlementItem `json:"settlement_items"`
	Commissions     []Commission     `json:"commissions"`
	Diagnostics     Diagnostics      `json:"diagnostics"`
}

type Diagnostics struct {
	RuleHits           map[string]int             `json:"rule_hits"`
	TiersApplied       map[string]int             `json:"tiers_applied"`
	TotalsByParty      map[string]decimal.Decimal `json:"totals_by_party"`
	Unmatched          map[string]int             `json:"unmatched"`
	UnmatchedItems     []UnmatchedRuleWarning     `json:"unmatched_items,omitempty"`
	DuplicatesDetected int                        `json:"duplicates_detected"`
	ReplacedIDs        []snowflake.ID             `json:"replaced_ids,omitempty"`
	OrdersScanned      int                        `json:"orders_scanned"`
	ItemsCount         int                        `json:"items_count"`
}

// UnmatchedRuleWarning names an order line that no rule applied to. The line
// is skipped; it never fails the run.
type UnmatchedRuleWarning struct {
	PartyKey    string `json:"party_key"`
	OrderID     string `json:"order_id"`
	OrderItemID string `json:"order_item_id"`
	ProductID   string `json:"product_id"`
}

func NewDiagnostics() Diagnostics {
	return Diagnostics{
		RuleHits:      map[string]int{},
		TiersApplied:  map[string]int{},
		TotalsByParty: map[string]decimal.Decimal{},
		Unmatched:     map[string]int{},
	}
}
