package service

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/settlement/internal/commission/calculator"
	commissiondomain "github.com/smallbiznis/settlement/internal/commission/domain"
	orderdomain "github.com/smallbiznis/settlement/internal/order/domain"
	settlementdomain "github.com/smallbiznis/settlement/internal/settlement/domain"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
)

// partyOutcome is everything computed for one party. It is built without
// shared state so parties can be calculated concurrently.
type partyOutcome struct {
	party        commissiondomain.Party
	items        []settlementdomain.SettlementItem
	baseTotal    decimal.Decimal
	ruleHits     map[string]int
	tiersApplied map[string]int
	unmatched    []settlementdomain.UnmatchedRuleWarning
	commissions  []*settlementdomain.Commission
}

// calculateParties runs calculateParty for every party, at most parallelism
// at a time, and returns outcomes in the order parties were given.
func calculateParties(ctx context.Context, orders []orderdomain.Order, parties []commissiondomain.Party, rules []commissiondomain.Rule, parallelism int) ([]partyOutcome, error) {
	outcomes := make([]partyOutcome, len(parties))
	if parallelism < 1 {
		parallelism = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i, party := range parties {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = calculateParty(orders, party, rules)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func calculateParty(orders []orderdomain.Order, party commissiondomain.Party, rules []commissiondomain.Rule) partyOutcome {
	out := partyOutcome{
		party:        party,
		baseTotal:    decimal.Zero,
		ruleHits:     map[string]int{},
		tiersApplied: map[string]int{},
	}
	byRule := map[string]*settlementdomain.Commission{}

	for _, order := range orders {
		for _, line := range order.Items {
			if !calculator.IsRelevant(line, party) {
				continue
			}

			rule, ok := commissiondomain.Match(line, party.Type, rules)
			if !ok {
				out.unmatched = append(out.unmatched, settlementdomain.UnmatchedRuleWarning{
					PartyKey:    party.Key(),
					OrderID:     order.ID,
					OrderItemID: line.ID,
					ProductID:   line.ProductID,
				})
				continue
			}

			meta := rule.Meta()
			out.ruleHits[meta.ID]++

			amounts := calculator.Calculate(rule, line, party.Type)
			if amounts.TierApplied {
				out.tiersApplied[meta.ID]++
			}

			out.items = append(out.items, newItem(order, line, party, rule, amounts))
			out.baseTotal = out.baseTotal.Add(calculator.BaseAmount(line))
			accumulateCommission(byRule, &out.commissions, party, rule, line, amounts)
		}
	}
	return out
}

func newItem(order orderdomain.Order, line orderdomain.LineItem, party commissiondomain.Party, rule commissiondomain.Rule, amounts calculator.Result) settlementdomain.SettlementItem {
	meta := rule.Meta()
	metadata := datatypes.JSONMap{
		"ruleId":    meta.ID,
		"ruleName":  meta.Name,
		"ruleType":  string(rule.Kind()),
		"productId": line.ProductID,
	}
	if amounts.TierApplied {
		metadata["tierIndex"] = amounts.TierIndex
	}

	return settlementdomain.SettlementItem{
		OrderID:           order.ID,
		OrderItemID:       line.ID,
		PartyType:         party.Type,
		PartyID:           party.ID,
		GrossAmount:       amounts.Gross,
		CommissionAmount:  amounts.Commission,
		NetAmount:         amounts.Net,
		ProductName:       line.ProductName,
		Quantity:          line.Quantity,
		SalePriceSnapshot: decimal.NewNullDecimal(line.SalePrice()),
		BasePriceSnapshot: line.BasePriceSnapshot,
		SellerID:          line.SellerID,
		SupplierID:        line.SupplierID,
		RuleID:            meta.ID,
		ReasonCode:        settlementdomain.ReasonCodeOrderComplete,
		Metadata:          metadata,
	}
}

// accumulateCommission tracks the rule amount per (party, rule): the
// commission charged to sellers, or the gross earned by platforms and
// partners. Suppliers are paid cost and produce no commission.
func accumulateCommission(byRule map[string]*settlementdomain.Commission, ordered *[]*settlementdomain.Commission, party commissiondomain.Party, rule commissiondomain.Rule, line orderdomain.LineItem, amounts calculator.Result) {
	var amount decimal.Decimal
	switch party.Type {
	case commissiondomain.PartySeller:
		amount = amounts.Commission
	case commissiondomain.PartyPlatform, commissiondomain.PartyPartner:
		amount = amounts.Gross
	default:
		return
	}

	meta := rule.Meta()
	c, ok := byRule[meta.ID]
	if !ok {
		c = &settlementdomain.Commission{
			PartyType:  party.Type,
			PartyID:    party.ID,
			RuleID:     meta.ID,
			RuleName:   meta.Name,
			RuleKind:   rule.Kind(),
			BaseAmount: decimal.Zero,
			Amount:     decimal.Zero,
		}
		byRule[meta.ID] = c
		*ordered = append(*ordered, c)
	}
	c.ItemsCount++
	c.BaseAmount = c.BaseAmount.Add(line.TotalPrice)
	c.Amount = c.Amount.Add(amount)
}

// fold reduces party outcomes into settlement headers, items, commission
// summaries and diagnostics. Parties with no items produce no header.
func fold(cfg settlementdomain.Config, runID string, outcomes []partyOutcome) *settlementdomain.Result {
	result := &settlementdomain.Result{
		RunID:       runID,
		DryRun:      cfg.DryRun,
		Diagnostics: settlementdomain.NewDiagnostics(),
	}
	diag := &result.Diagnostics

	for _, out := range outcomes {
		for id, n := range out.ruleHits {
			diag.RuleHits[id] += n
		}
		for id, n := range out.tiersApplied {
			diag.TiersApplied[id] += n
		}
		if len(out.unmatched) > 0 {
			diag.Unmatched[out.party.Key()] += len(out.unmatched)
			diag.UnmatchedItems = append(diag.UnmatchedItems, out.unmatched...)
		}
		for _, c := range out.commissions {
			if c.Amount.IsZero() {
				continue
			}
			result.Commissions = append(result.Commissions, *c)
		}

		if len(out.items) == 0 {
			continue
		}

		sale, commission, payable := decimal.Zero, decimal.Zero, decimal.Zero
		for _, item := range out.items {
			sale = sale.Add(item.GrossAmount)
			commission = commission.Add(item.CommissionAmount)
			payable = payable.Add(item.NetAmount)
		}

		metadata := datatypes.JSONMap{
			"settlementEngineVersion": settlementdomain.EngineVersion,
			"itemsCount":              len(out.items),
			"currency":                out.party.Currency,
			"ruleSetId":               cfg.RuleSet.ID,
			"runId":                   runID,
		}
		if cfg.Tag != "" {
			metadata["tag"] = cfg.Tag
		}

		result.Settlements = append(result.Settlements, settlementdomain.Settlement{
			PartyType:             out.party.Type,
			PartyID:               out.party.ID,
			PeriodStart:           cfg.PeriodStart,
			PeriodEnd:             cfg.PeriodEnd,
			TotalSaleAmount:       sale,
			TotalBaseAmount:       out.baseTotal,
			TotalCommissionAmount: commission,
			TotalMarginAmount:     sale.Sub(commission),
			PayableAmount:         payable,
			Currency:              out.party.Currency,
			Status:                settlementdomain.StatusPending,
			Metadata:              metadata,
		})
		result.SettlementItems = append(result.SettlementItems, out.items...)
		diag.TotalsByParty[out.party.Key()] = payable
	}

	diag.ItemsCount = len(result.SettlementItems)
	return result
}
