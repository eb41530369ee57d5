package forecast

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/jobledger/jobledger/internal/budgets"
	"github.com/jobledger/jobledger/internal/commitments"
	"github.com/jobledger/jobledger/internal/costs"
	"github.com/jobledger/jobledger/internal/periods"
)

// ErrPeriodClosed indicates a buyout edit against a closed period.
var ErrPeriodClosed = errors.New("forecast: buyout decisions can only be entered in an open period")

// Service computes estimate-at-completion figures and manages their frozen
// per-period snapshots.
type Service struct {
	repo        Repository
	budgets     *budgets.Service
	commitments *commitments.Service
	costs       *costs.Service
	periods     *periods.Service
	logger      *slog.Logger
}

// NewService constructs a Service instance.
func NewService(repo Repository, budgetSvc *budgets.Service, commitmentSvc *commitments.Service, costSvc *costs.Service, periodSvc *periods.Service, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		budgets:     budgetSvc,
		commitments: commitmentSvc,
		costs:       costSvc,
		periods:     periodSvc,
		logger:      logger,
	}
}

// SetBuyout records the operator's buyout decision for a budget line. The
// target period must still be open; closed-period figures are frozen.
func (s *Service) SetBuyout(ctx context.Context, b BudgetLineBuyout) error {
	period, err := s.periods.Get(ctx, b.AccountingPeriodID)
	if err != nil {
		return err
	}
	if period.Status != periods.PeriodStatusOpen {
		return ErrPeriodClosed
	}
	return s.repo.UpsertBuyout(ctx, b)
}

// BudgetLineEAC computes the live estimate-at-completion for one budget line
// in one period. Actuals are scoped to that exact period, not cumulative:
// the figure tracks spend against committed within the period under review.
func (s *Service) BudgetLineEAC(ctx context.Context, projectID, budgetLineID, periodID int64) (EACResult, error) {
	line, err := s.budgets.GetLine(ctx, budgetLineID)
	if err != nil {
		return EACResult{}, err
	}
	return s.computeLine(ctx, projectID, line, periodID)
}

func (s *Service) computeLine(ctx context.Context, projectID int64, line budgets.BudgetLine, periodID int64) (EACResult, error) {
	actuals, err := s.costs.CostsToDate(ctx, costs.Query{
		ProjectID:  projectID,
		PeriodIDs:  map[int64]struct{}{periodID: {}},
		CostCodeID: &line.CostCodeID,
		CostTypeID: &line.CostTypeID,
	})
	if err != nil {
		return EACResult{}, err
	}

	committed, err := s.commitments.CommittedByCostCode(ctx, projectID, line.CostCodeID, line.CostTypeID)
	if err != nil {
		return EACResult{}, err
	}

	budgeted, err := s.budgets.LineBudgetWithChangeOrders(ctx, projectID, line)
	if err != nil {
		return EACResult{}, err
	}

	boughtOut, err := s.repo.IsBoughtOut(ctx, line.ID)
	if err != nil {
		return EACResult{}, err
	}

	return ComputeEAC(line.ID, budgeted, committed.Committed, committed.ChangeOrders, actuals.Total, boughtOut), nil
}

// LiveProjectEAC computes per-line EAC across the project's active Original
// budget lines and returns the per-line results with their sum.
func (s *Service) LiveProjectEAC(ctx context.Context, projectID, periodID int64) (decimal.Decimal, []EACResult, error) {
	lines, err := s.budgets.ActiveOriginalLines(ctx, projectID)
	if err != nil {
		return decimal.Zero, nil, err
	}
	total := decimal.Zero
	results := make([]EACResult, 0, len(lines))
	for _, line := range lines {
		r, err := s.computeLine(ctx, projectID, line, periodID)
		if err != nil {
			return decimal.Zero, nil, err
		}
		results = append(results, r)
		total = total.Add(r.EACAmount)
	}
	return total, results, nil
}

// EACData returns the project's aggregate EAC for a period. Closed periods
// read from snapshots; an open period is always computed live, with
// forecast-included pending change order costs added on top.
func (s *Service) EACData(ctx context.Context, projectID, periodID int64) (decimal.Decimal, error) {
	period, err := s.periods.Get(ctx, periodID)
	if err != nil {
		return decimal.Zero, err
	}

	if period.Status == periods.PeriodStatusClosed {
		snaps, err := s.repo.ListSnapshots(ctx, projectID, periodID)
		if err != nil {
			return decimal.Zero, err
		}
		if len(snaps) > 0 {
			total := decimal.Zero
			for _, snap := range snaps {
				total = total.Add(snap.EACAmount)
			}
			return total, nil
		}
		s.logger.Warn("closed period has no forecast snapshots, computing live",
			slog.Int64("project_id", projectID), slog.Int64("period_id", periodID))
		total, _, err := s.LiveProjectEAC(ctx, projectID, periodID)
		return total, err
	}

	total, _, err := s.LiveProjectEAC(ctx, projectID, periodID)
	if err != nil {
		return decimal.Zero, err
	}
	cutoff, err := s.periods.CutoffIDsFor(ctx, periodID)
	if err != nil {
		return decimal.Zero, err
	}
	pcoCosts, err := s.budgets.PendingCostForecast(ctx, projectID, cutoff)
	if err != nil {
		return decimal.Zero, err
	}
	return total.Add(pcoCosts), nil
}

// BuildSnapshots computes the snapshot rows a period close should freeze:
// one row per active Original budget line, for every project that entered
// any buyout decision in the period. Pure computation; the close
// transaction persists the rows.
func (s *Service) BuildSnapshots(ctx context.Context, periodID int64) ([]Snapshot, error) {
	projectIDs, err := s.repo.ProjectsWithBuyouts(ctx, periodID)
	if err != nil {
		return nil, err
	}
	var out []Snapshot
	for _, projectID := range projectIDs {
		_, results, err := s.LiveProjectEAC(ctx, projectID, periodID)
		if err != nil {
			return nil, err
		}
		for _, r := range results {
			out = append(out, SnapshotFromResult(projectID, periodID, r))
		}
	}
	return out, nil
}
