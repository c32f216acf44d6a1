package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/settlement/internal/distribution/domain"
	orgdomain "github.com/smallbiznis/settlement/internal/organization/domain"
	settlementdomain "github.com/smallbiznis/settlement/internal/settlement/domain"
)

// Report lists the settlements of a period with a summary. Month 0 covers
// every settlement of the year.
func (s *Automation) Report(ctx context.Context, year, month int) (*domain.Report, error) {
	if err := validatePeriod(year, month); err != nil {
		return nil, err
	}

	settlements, err := s.repo.List(ctx, s.db, domain.ListFilter{Year: year, Month: month})
	if err != nil {
		return nil, err
	}

	period := fmt.Sprintf("%d", year)
	if month > 0 {
		period = fmt.Sprintf("%d-%02d", year, month)
	}
	report := &domain.Report{
		Summary: domain.ReportSummary{
			Period:            period,
			Organizations:     len(settlements),
			TotalCollected:    decimal.Zero,
			AvgCollectionRate: decimal.Zero,
			NationalShare:     decimal.Zero,
			DivisionShare:     decimal.Zero,
			BranchShare:       decimal.Zero,
		},
		ByOrganization: make([]domain.ReportRow, 0, len(settlements)),
	}

	rates := make([]decimal.Decimal, 0, len(settlements))
	for _, st := range settlements {
		details := st.Details.Data()
		sum := &report.Summary
		sum.TotalCollected = sum.TotalCollected.Add(st.TotalCollected)
		sum.TotalMembers += st.MemberCount
		sum.NationalShare = sum.NationalShare.Add(st.NationalShare)
		sum.DivisionShare = sum.DivisionShare.Add(st.DivisionShare)
		sum.BranchShare = sum.BranchShare.Add(st.BranchShare)
		rates = append(rates, details.CollectionRate)

		report.ByOrganization = append(report.ByOrganization, domain.ReportRow{
			OrganizationID:   st.OrganizationID,
			OrganizationName: st.OrganizationName,
			OrganizationType: st.OrganizationType,
			Month:            st.Month,
			MemberCount:      st.MemberCount,
			TotalCollected:   st.TotalCollected,
			CollectionRate:   details.CollectionRate,
			RemittanceAmount: st.RemittanceAmount,
			Status:           st.Status,
		})
	}
	report.Summary.AvgCollectionRate = average(rates)
	return report, nil
}

// Dashboard summarizes every settlement of the year by status and type.
func (s *Automation) Dashboard(ctx context.Context, year int) (*domain.Dashboard, error) {
	if err := validatePeriod(year, 0); err != nil {
		return nil, err
	}

	settlements, err := s.repo.List(ctx, s.db, domain.ListFilter{Year: year})
	if err != nil {
		return nil, err
	}

	dash := &domain.Dashboard{
		Year:   year,
		ByType: map[orgdomain.Type]domain.TypeSummary{},
	}
	rates := map[orgdomain.Type][]decimal.Decimal{}
	for _, st := range settlements {
		dash.Overview.Total++
		switch st.Status {
		case settlementdomain.StatusPending:
			dash.Overview.Pending++
		case settlementdomain.StatusConfirmed:
			dash.Overview.Confirmed++
		case settlementdomain.StatusRemitted:
			dash.Overview.Remitted++
		case settlementdomain.StatusCompleted:
			dash.Overview.Completed++
		case settlementdomain.StatusCancelled:
			dash.Overview.Cancelled++
		}

		summary, ok := dash.ByType[st.OrganizationType]
		if !ok {
			summary = domain.TypeSummary{
				TotalCollected:    decimal.Zero,
				AvgCollectionRate: decimal.Zero,
				PendingRemittance: decimal.Zero,
			}
		}
		summary.Count++
		summary.TotalCollected = summary.TotalCollected.Add(st.TotalCollected)
		if st.Status == settlementdomain.StatusPending || st.Status == settlementdomain.StatusConfirmed {
			summary.PendingRemittance = summary.PendingRemittance.Add(st.RemittanceAmount)
		}
		dash.ByType[st.OrganizationType] = summary
		rates[st.OrganizationType] = append(rates[st.OrganizationType], st.Details.Data().CollectionRate)
	}
	for orgType, summary := range dash.ByType {
		summary.AvgCollectionRate = average(rates[orgType])
		dash.ByType[orgType] = summary
	}
	return dash, nil
}

func average(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	return decimal.Sum(decimal.Zero, values...).Div(decimal.NewFromInt(int64(len(values)))).Round(2)
}
