package revenue

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/jobledger/jobledger/internal/budgets"
	"github.com/jobledger/jobledger/internal/costs"
	"github.com/jobledger/jobledger/internal/forecast"
	"github.com/jobledger/jobledger/internal/periods"
	"github.com/jobledger/jobledger/internal/projects"
)

var oneHundred = decimal.NewFromInt(100)

// BillingSource supplies the cumulative billed-to-date figure. Implemented
// by the billing service; an interface here keeps the dependency pointing
// one way.
type BillingSource interface {
	BillingsToDate(ctx context.Context, projectID int64, periodIDs map[int64]struct{}) (decimal.Decimal, error)
}

// Result is the output of one revenue recognition computation.
type Result struct {
	RevenueRecognized   decimal.Decimal
	PercentComplete     decimal.Decimal
	TotalContractAmount decimal.Decimal
	CostsToDate         decimal.Decimal
	EACAmount           decimal.Decimal
	CurrentBudgetAmount decimal.Decimal
	Warnings            []string
}

// Service computes percentage-of-completion revenue. The computation is
// deterministic: every caller (WIP report, billing prefill, journal
// preview) goes through Recognized and sees the same figures.
type Service struct {
	projects *projects.Service
	costs    *costs.Service
	budgets  *budgets.Service
	forecast *forecast.Service
	periods  *periods.Service
	billings BillingSource
	logger   *slog.Logger
}

// NewService constructs a Service instance.
func NewService(projectSvc *projects.Service, costSvc *costs.Service, budgetSvc *budgets.Service, forecastSvc *forecast.Service, periodSvc *periods.Service, billings BillingSource, logger *slog.Logger) *Service {
	return &Service{
		projects: projectSvc,
		costs:    costSvc,
		budgets:  budgetSvc,
		forecast: forecastSvc,
		periods:  periodSvc,
		billings: billings,
		logger:   logger,
	}
}

// Recognized computes recognized revenue for a project through the given
// period. Percent complete divides costs to date by the basis: the project
// EAC when EAC reporting is enabled and a positive EAC exists, otherwise
// the current budget. The fallback also covers enabled-but-unentered EAC so
// recognition is never blocked by missing forecast data.
func (s *Service) Recognized(ctx context.Context, projectID, periodID int64, eacEnabled bool) (Result, error) {
	contractTotal, err := s.projects.TotalContractAmount(ctx, projectID)
	if err != nil {
		return Result{}, err
	}
	if contractTotal.IsZero() {
		return zeroResult(), nil
	}

	cutoff, err := s.periods.CutoffIDsFor(ctx, periodID)
	if err != nil {
		return Result{}, err
	}

	costsToDate, err := s.costs.CostsToDate(ctx, costs.Query{ProjectID: projectID, PeriodIDs: cutoff})
	if err != nil {
		return Result{}, err
	}

	budget, err := s.budgets.CurrentBudget(ctx, projectID, cutoff)
	if err != nil {
		return Result{}, err
	}

	eacAmount := decimal.Zero
	if eacEnabled {
		eacAmount, err = s.forecast.EACData(ctx, projectID, periodID)
		if err != nil {
			return Result{}, err
		}
	}

	basis := budget.Amount
	if eacEnabled && eacAmount.GreaterThan(decimal.Zero) {
		basis = eacAmount
	}

	percentComplete := decimal.Zero
	if basis.GreaterThan(decimal.Zero) {
		percentComplete = costsToDate.Total.Div(basis).Mul(oneHundred)
	}
	recognized := percentComplete.Div(oneHundred).Mul(contractTotal)

	return Result{
		RevenueRecognized:   recognized,
		PercentComplete:     percentComplete,
		TotalContractAmount: contractTotal,
		CostsToDate:         costsToDate.Total,
		EACAmount:           eacAmount,
		CurrentBudgetAmount: budget.Amount,
		Warnings:            budget.Warnings,
	}, nil
}

// OverUnder splits the billed-versus-recognized difference. At most one of
// the pair is non-zero.
func OverUnder(billingsToDate, revenueRecognized decimal.Decimal) (over, under decimal.Decimal) {
	diff := billingsToDate.Sub(revenueRecognized)
	if diff.GreaterThan(decimal.Zero) {
		return diff, decimal.Zero
	}
	return decimal.Zero, diff.Neg()
}

func zeroResult() Result {
	return Result{
		RevenueRecognized:   decimal.Zero,
		PercentComplete:     decimal.Zero,
		TotalContractAmount: decimal.Zero,
		CostsToDate:         decimal.Zero,
		EACAmount:           decimal.Zero,
		CurrentBudgetAmount: decimal.Zero,
	}
}
