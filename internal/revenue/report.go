package revenue

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/jobledger/jobledger/internal/projects"
	"github.com/jobledger/jobledger/internal/settings"
)

// WIPRow is one project's work-in-progress line.
type WIPRow struct {
	ProjectID           int64           `json:"project_id"`
	ProjectName         string          `json:"project_name"`
	ContractAmount      decimal.Decimal `json:"contract_amount"`
	CostsToDate         decimal.Decimal `json:"costs_to_date"`
	CurrentBudget       decimal.Decimal `json:"current_budget"`
	EACAmount           decimal.Decimal `json:"eac_amount"`
	PercentComplete     decimal.Decimal `json:"percent_complete"`
	RevenueRecognized   decimal.Decimal `json:"revenue_recognized"`
	BillingsToDate      decimal.Decimal `json:"billings_to_date"`
	OverBilling         decimal.Decimal `json:"over_billing"`
	UnderBilling        decimal.Decimal `json:"under_billing"`
	PendingRevenue      decimal.Decimal `json:"pending_revenue"`
	RevenueDisplay      string          `json:"revenue_display"`
	OverBillingDisplay  string          `json:"over_billing_display"`
	UnderBillingDisplay string          `json:"under_billing_display"`
	Warnings            []string        `json:"warnings,omitempty"`
}

// WIPReport is the full report for one period.
type WIPReport struct {
	PeriodID      int64           `json:"period_id"`
	EACReporting  bool            `json:"eac_reporting"`
	Rows          []WIPRow        `json:"rows"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	TotalBillings decimal.Decimal `json:"total_billings"`
}

// Reporter builds WIP reports. Concurrent requests for the same period
// collapse into one computation.
type Reporter struct {
	revenue  *Service
	projects *projects.Service
	settings *settings.Service
	billings BillingSource

	group   singleflight.Group
	printer *message.Printer
}

// NewReporter constructs a Reporter.
func NewReporter(revenueSvc *Service, projectSvc *projects.Service, settingSvc *settings.Service, billings BillingSource) *Reporter {
	return &Reporter{
		revenue:  revenueSvc,
		projects: projectSvc,
		settings: settingSvc,
		billings: billings,
		printer:  message.NewPrinter(language.AmericanEnglish),
	}
}

// Build computes the WIP report for a period across all active projects.
func (r *Reporter) Build(ctx context.Context, periodID int64) (WIPReport, error) {
	key := fmt.Sprintf("wip:%d", periodID)
	result, err := r.buildShared(ctx, key, periodID)
	if err != nil {
		return WIPReport{}, err
	}
	return result, nil
}

func (r *Reporter) buildShared(ctx context.Context, key string, periodID int64) (WIPReport, error) {
	resultChan := r.group.DoChan(key, func() (interface{}, error) {
		return r.build(ctx, periodID)
	})
	select {
	case <-ctx.Done():
		return WIPReport{}, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return WIPReport{}, res.Err
		}
		return res.Val.(WIPReport), nil
	}
}

func (r *Reporter) build(ctx context.Context, periodID int64) (WIPReport, error) {
	eacEnabled, err := r.settings.UseEACReporting(ctx)
	if err != nil {
		return WIPReport{}, err
	}

	active, err := r.projects.ListActive(ctx)
	if err != nil {
		return WIPReport{}, err
	}

	cutoff, err := r.revenue.periods.CutoffIDsFor(ctx, periodID)
	if err != nil {
		return WIPReport{}, err
	}

	report := WIPReport{
		PeriodID:      periodID,
		EACReporting:  eacEnabled,
		TotalRevenue:  decimal.Zero,
		TotalBillings: decimal.Zero,
	}
	for _, project := range active {
		rec, err := r.revenue.Recognized(ctx, project.ID, periodID, eacEnabled)
		if err != nil {
			return WIPReport{}, err
		}
		billed, err := r.billings.BillingsToDate(ctx, project.ID, cutoff)
		if err != nil {
			return WIPReport{}, err
		}
		pendingRevenue, err := r.revenue.budgets.PendingRevenueForecast(ctx, project.ID, cutoff)
		if err != nil {
			return WIPReport{}, err
		}
		over, under := OverUnder(billed, rec.RevenueRecognized)

		report.Rows = append(report.Rows, WIPRow{
			ProjectID:           project.ID,
			ProjectName:         project.Name,
			ContractAmount:      rec.TotalContractAmount,
			CostsToDate:         rec.CostsToDate,
			CurrentBudget:       rec.CurrentBudgetAmount,
			EACAmount:           rec.EACAmount,
			PercentComplete:     rec.PercentComplete,
			RevenueRecognized:   rec.RevenueRecognized,
			BillingsToDate:      billed,
			OverBilling:         over,
			UnderBilling:        under,
			PendingRevenue:      pendingRevenue,
			RevenueDisplay:      r.formatMoney(rec.RevenueRecognized),
			OverBillingDisplay:  r.formatMoney(over),
			UnderBillingDisplay: r.formatMoney(under),
			Warnings:            rec.Warnings,
		})
		report.TotalRevenue = report.TotalRevenue.Add(rec.RevenueRecognized)
		report.TotalBillings = report.TotalBillings.Add(billed)
	}
	return report, nil
}

func (r *Reporter) formatMoney(d decimal.Decimal) string {
	f, _ := d.Round(2).Float64()
	return r.printer.Sprintf("$%v", number.Decimal(f, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}
