package billing

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jobledger/jobledger/internal/periods"
	"github.com/jobledger/jobledger/internal/revenue"
	"github.com/jobledger/jobledger/internal/settings"
)

// PrefillSuggestion seeds a new billing with the unbilled portion of
// recognized revenue.
type PrefillSuggestion struct {
	RevenueRecognized decimal.Decimal `json:"revenue_recognized"`
	BillingsToDate    decimal.Decimal `json:"billings_to_date"`
	SuggestedAmount   decimal.Decimal `json:"suggested_amount"`
	PercentComplete   decimal.Decimal `json:"percent_complete"`
}

// Prefiller computes billing suggestions from the revenue engine. It goes
// through the same recognition path as the WIP report and journal preview,
// so the three can never disagree.
type Prefiller struct {
	revenue  *revenue.Service
	billing  *Service
	settings *settings.Service
	periods  *periods.Service
}

// NewPrefiller constructs a Prefiller.
func NewPrefiller(revenueSvc *revenue.Service, billingSvc *Service, settingSvc *settings.Service, periodSvc *periods.Service) *Prefiller {
	return &Prefiller{revenue: revenueSvc, billing: billingSvc, settings: settingSvc, periods: periodSvc}
}

// Suggest returns the prefill figures for a new billing in the period.
// A fully billed (or over-billed) project suggests zero, never a negative.
func (p *Prefiller) Suggest(ctx context.Context, projectID, periodID int64) (PrefillSuggestion, error) {
	eacEnabled, err := p.settings.UseEACReporting(ctx)
	if err != nil {
		return PrefillSuggestion{}, err
	}
	rec, err := p.revenue.Recognized(ctx, projectID, periodID, eacEnabled)
	if err != nil {
		return PrefillSuggestion{}, err
	}
	cutoff, err := p.periods.CutoffIDsFor(ctx, periodID)
	if err != nil {
		return PrefillSuggestion{}, err
	}
	billed, err := p.billing.BillingsToDate(ctx, projectID, cutoff)
	if err != nil {
		return PrefillSuggestion{}, err
	}

	suggested := rec.RevenueRecognized.Sub(billed)
	if suggested.IsNegative() {
		suggested = decimal.Zero
	}
	return PrefillSuggestion{
		RevenueRecognized: rec.RevenueRecognized,
		BillingsToDate:    billed,
		SuggestedAmount:   suggested,
		PercentComplete:   rec.PercentComplete,
	}, nil
}
