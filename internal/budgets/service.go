package budgets

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
)

// Result carries a resolved current-budget figure plus any data-integrity
// warnings discovered while resolving it. Warnings never halt computation.
type Result struct {
	Amount   decimal.Decimal
	Warnings []string
}

// Service resolves current budget: original lines plus approved change
// orders plus forecast-included pending change orders.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService constructs a Service instance.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// CurrentBudget resolves the project's current budget. cutoffPeriodIDs
// scopes only the pending-change-order contribution; a nil set means no
// cutoff. Approved internal and external change orders are permanent and
// never period-scoped.
func (s *Service) CurrentBudget(ctx context.Context, projectID int64, cutoffPeriodIDs map[int64]struct{}) (Result, error) {
	result := Result{Amount: decimal.Zero}

	budget, warning, err := s.activeOriginalBudget(ctx, projectID)
	if err != nil {
		return Result{}, err
	}
	if warning != "" {
		result.Warnings = append(result.Warnings, warning)
		if s.logger != nil {
			s.logger.Warn("budget integrity", slog.Int64("project_id", projectID), slog.String("warning", warning))
		}
	}
	if budget != nil {
		lines, err := s.repo.ListBudgetLines(ctx, budget.ID)
		if err != nil {
			return Result{}, err
		}
		for _, line := range lines {
			if line.Status != StatusActive {
				continue
			}
			result.Amount = result.Amount.Add(line.Amount)
		}
	}

	icoLines, err := s.repo.ListApprovedICOLines(ctx, projectID)
	if err != nil {
		return Result{}, err
	}
	for _, line := range icoLines {
		result.Amount = result.Amount.Add(line.ChangeAmount)
	}

	ecos, err := s.repo.ListApprovedECOs(ctx, projectID)
	if err != nil {
		return Result{}, err
	}
	for _, eco := range ecos {
		result.Amount = result.Amount.Add(eco.TotalBudgetChangeAmount)
	}

	pcos, err := s.repo.ListForecastPendingChangeOrders(ctx, projectID)
	if err != nil {
		return Result{}, err
	}
	for _, pco := range pcos {
		if cutoffPeriodIDs != nil {
			if _, ok := cutoffPeriodIDs[pco.AccountingPeriodID]; !ok {
				continue
			}
		}
		result.Amount = result.Amount.Add(pco.CostAmount)
	}

	return result, nil
}

// LineBudgetWithChangeOrders returns a budget line's amount plus the sum of
// matching approved internal change order line amounts: the line-level
// "budget including change orders" view used by the forecaster.
func (s *Service) LineBudgetWithChangeOrders(ctx context.Context, projectID int64, line BudgetLine) (decimal.Decimal, error) {
	total := line.Amount
	icoLines, err := s.repo.ListApprovedICOLines(ctx, projectID)
	if err != nil {
		return decimal.Zero, err
	}
	for _, change := range icoLines {
		if change.CostCodeID == line.CostCodeID && change.CostTypeID == line.CostTypeID {
			total = total.Add(change.ChangeAmount)
		}
	}
	return total, nil
}

// ActiveOriginalLines returns the active lines of the project's active
// Original budget, the line population for EAC forecasting and snapshots.
func (s *Service) ActiveOriginalLines(ctx context.Context, projectID int64) ([]BudgetLine, error) {
	budget, _, err := s.activeOriginalBudget(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if budget == nil {
		return nil, nil
	}
	lines, err := s.repo.ListBudgetLines(ctx, budget.ID)
	if err != nil {
		return nil, err
	}
	active := lines[:0]
	for _, line := range lines {
		if line.Status == StatusActive {
			active = append(active, line)
		}
	}
	return active, nil
}

// GetLine returns a budget line by id.
func (s *Service) GetLine(ctx context.Context, id int64) (BudgetLine, error) {
	return s.repo.GetBudgetLine(ctx, id)
}

// PendingRevenueForecast sums forecast-included pending change order revenue
// amounts; surfaced alongside WIP figures, never inside recognized revenue.
func (s *Service) PendingRevenueForecast(ctx context.Context, projectID int64, cutoffPeriodIDs map[int64]struct{}) (decimal.Decimal, error) {
	pcos, err := s.repo.ListForecastPendingChangeOrders(ctx, projectID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, pco := range pcos {
		if cutoffPeriodIDs != nil {
			if _, ok := cutoffPeriodIDs[pco.AccountingPeriodID]; !ok {
				continue
			}
		}
		total = total.Add(pco.RevenueAmount)
	}
	return total, nil
}

// PendingCostForecast sums forecast-included pending change order cost
// amounts. Added on top of live EAC aggregates for open periods.
func (s *Service) PendingCostForecast(ctx context.Context, projectID int64, cutoffPeriodIDs map[int64]struct{}) (decimal.Decimal, error) {
	pcos, err := s.repo.ListForecastPendingChangeOrders(ctx, projectID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, pco := range pcos {
		if cutoffPeriodIDs != nil {
			if _, ok := cutoffPeriodIDs[pco.AccountingPeriodID]; !ok {
				continue
			}
		}
		total = total.Add(pco.CostAmount)
	}
	return total, nil
}

// activeOriginalBudget picks the unambiguous active Original budget. More
// than one active Original is a data fault: the most recently created wins
// and a warning is returned. Having none is not an error; the project's
// current budget is simply zero.
func (s *Service) activeOriginalBudget(ctx context.Context, projectID int64) (*Budget, string, error) {
	all, err := s.repo.ListOriginalBudgets(ctx, projectID)
	if err != nil {
		return nil, "", err
	}
	var active []Budget
	for _, b := range all {
		if b.Status == StatusActive {
			active = append(active, b)
		}
	}
	switch len(active) {
	case 0:
		return nil, "", nil
	case 1:
		chosen := active[0]
		return &chosen, "", nil
	default:
		// repository orders by created_at DESC, id DESC
		chosen := active[0]
		warning := fmt.Sprintf("project %d has %d active original budgets; using budget %d", projectID, len(active), chosen.ID)
		return &chosen, warning, nil
	}
}
