package forecast

import (
	"context"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jobledger/jobledger/internal/periods"
)

type memoryForecastRepo struct {
	buyouts   []BudgetLineBuyout
	snapshots []Snapshot
}

func (m *memoryForecastRepo) IsBoughtOut(ctx context.Context, budgetLineID int64) (bool, error) {
	for _, b := range m.buyouts {
		if b.BudgetLineID == budgetLineID && b.IsBoughtOut {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryForecastRepo) UpsertBuyout(ctx context.Context, b BudgetLineBuyout) error {
	m.buyouts = append(m.buyouts, b)
	return nil
}

func (m *memoryForecastRepo) ProjectsWithBuyouts(ctx context.Context, periodID int64) ([]int64, error) {
	seen := map[int64]bool{}
	var out []int64
	for _, b := range m.buyouts {
		if b.AccountingPeriodID == periodID && !seen[b.ProjectID] {
			seen[b.ProjectID] = true
			out = append(out, b.ProjectID)
		}
	}
	return out, nil
}

func (m *memoryForecastRepo) ListSnapshots(ctx context.Context, projectID, periodID int64) ([]Snapshot, error) {
	var out []Snapshot
	for _, s := range m.snapshots {
		if s.ProjectID == projectID && s.AccountingPeriodID == periodID {
			out = append(out, s)
		}
	}
	return out, nil
}

type memoryPeriodRepo struct {
	rows []periods.Period
}

func (m *memoryPeriodRepo) List(ctx context.Context) ([]periods.Period, error) {
	return m.rows, nil
}

func (m *memoryPeriodRepo) GetByID(ctx context.Context, id int64) (periods.Period, error) {
	for _, p := range m.rows {
		if p.ID == id {
			return p, nil
		}
	}
	return periods.Period{}, periods.ErrPeriodNotFound
}

func (m *memoryPeriodRepo) Insert(ctx context.Context, year, month int, status periods.PeriodStatus) (periods.Period, error) {
	p := periods.Period{ID: int64(len(m.rows) + 1), Year: year, Month: month, Status: status}
	m.rows = append(m.rows, p)
	return p, nil
}

func (m *memoryPeriodRepo) CountOpen(ctx context.Context) (int, error) {
	n := 0
	for _, p := range m.rows {
		if p.Status == periods.PeriodStatusOpen {
			n++
		}
	}
	return n, nil
}

func (m *memoryPeriodRepo) CountDependents(ctx context.Context, id int64) (int, error) {
	return 0, nil
}

func (m *memoryPeriodRepo) Delete(ctx context.Context, id int64) error {
	return nil
}

func TestEACDataClosedPeriodReadsSnapshots(t *testing.T) {
	repo := &memoryForecastRepo{
		snapshots: []Snapshot{
			{ProjectID: 7, AccountingPeriodID: 3, BudgetLineID: 1, EACAmount: money("40000")},
			{ProjectID: 7, AccountingPeriodID: 3, BudgetLineID: 2, EACAmount: money("25000")},
		},
	}
	periodSvc := periods.NewService(&memoryPeriodRepo{rows: []periods.Period{
		{ID: 3, Year: 2026, Month: 3, Status: periods.PeriodStatusClosed},
	}})
	// live computation collaborators stay nil: a closed period with
	// snapshots must never reach them
	svc := NewService(repo, nil, nil, nil, periodSvc, slog.Default())

	got, err := svc.EACData(context.Background(), 7, 3)
	require.NoError(t, err)
	require.True(t, got.Equal(money("65000")), "got %s", got)
}

func TestEACDataClosedPeriodIgnoresOtherProjects(t *testing.T) {
	repo := &memoryForecastRepo{
		snapshots: []Snapshot{
			{ProjectID: 7, AccountingPeriodID: 3, BudgetLineID: 1, EACAmount: money("40000")},
			{ProjectID: 8, AccountingPeriodID: 3, BudgetLineID: 9, EACAmount: money("99999")},
		},
	}
	periodSvc := periods.NewService(&memoryPeriodRepo{rows: []periods.Period{
		{ID: 3, Year: 2026, Month: 3, Status: periods.PeriodStatusClosed},
	}})
	svc := NewService(repo, nil, nil, nil, periodSvc, slog.Default())

	got, err := svc.EACData(context.Background(), 7, 3)
	require.NoError(t, err)
	require.True(t, got.Equal(money("40000")))
}

func TestSetBuyoutRejectsClosedPeriod(t *testing.T) {
	repo := &memoryForecastRepo{}
	periodSvc := periods.NewService(&memoryPeriodRepo{rows: []periods.Period{
		{ID: 3, Year: 2026, Month: 3, Status: periods.PeriodStatusClosed},
	}})
	svc := NewService(repo, nil, nil, nil, periodSvc, slog.Default())

	err := svc.SetBuyout(context.Background(), BudgetLineBuyout{ProjectID: 7, BudgetLineID: 1, AccountingPeriodID: 3, IsBoughtOut: true})
	require.ErrorIs(t, err, ErrPeriodClosed)
	require.Empty(t, repo.buyouts)
}

func TestSnapshotFromResultCarriesAllFigures(t *testing.T) {
	savings := decimal.RequireFromString("-500")
	r := EACResult{
		BudgetLineID:         1,
		BudgetedAmount:       money("10000"),
		CommittedAmount:      money("9000"),
		TotalCommittedAmount: money("9500"),
		ActualsAmount:        money("4000"),
		ETCAmount:            money("5500"),
		EACAmount:            money("9500"),
		BuyoutSavings:        &savings,
	}
	snap := SnapshotFromResult(7, 3, r)
	require.Equal(t, int64(7), snap.ProjectID)
	require.Equal(t, int64(3), snap.AccountingPeriodID)
	require.True(t, snap.EACAmount.Equal(money("9500")))
	require.NotNil(t, snap.BuyoutSavings)
}
