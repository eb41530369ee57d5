package revenue

import (
	"context"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jobledger/jobledger/internal/ap"
	"github.com/jobledger/jobledger/internal/budgets"
	"github.com/jobledger/jobledger/internal/commitments"
	"github.com/jobledger/jobledger/internal/costs"
	"github.com/jobledger/jobledger/internal/expenses"
	"github.com/jobledger/jobledger/internal/forecast"
	"github.com/jobledger/jobledger/internal/labor"
	"github.com/jobledger/jobledger/internal/periods"
	"github.com/jobledger/jobledger/internal/projects"
)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type memoryProjectRepo struct {
	projects  []projects.Project
	contracts []projects.Contract
}

func (m *memoryProjectRepo) GetProject(ctx context.Context, id int64) (projects.Project, error) {
	for _, p := range m.projects {
		if p.ID == id {
			return p, nil
		}
	}
	return projects.Project{}, projects.ErrProjectNotFound
}

func (m *memoryProjectRepo) ListProjects(ctx context.Context) ([]projects.Project, error) {
	return m.projects, nil
}

func (m *memoryProjectRepo) ListActiveProjects(ctx context.Context) ([]projects.Project, error) {
	var out []projects.Project
	for _, p := range m.projects {
		if p.Status == projects.ProjectStatusActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memoryProjectRepo) ListContracts(ctx context.Context, projectID int64) ([]projects.Contract, error) {
	var out []projects.Contract
	for _, c := range m.contracts {
		if c.ProjectID == projectID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memoryProjectRepo) GetContract(ctx context.Context, id int64) (projects.Contract, error) {
	for _, c := range m.contracts {
		if c.ID == id {
			return c, nil
		}
	}
	return projects.Contract{}, projects.ErrContractNotFound
}

type memoryBudgetRepo struct {
	budgets []budgets.Budget
	lines   []budgets.BudgetLine
}

func (m *memoryBudgetRepo) ListOriginalBudgets(ctx context.Context, projectID int64) ([]budgets.Budget, error) {
	var out []budgets.Budget
	for _, b := range m.budgets {
		if b.ProjectID == projectID && b.Type == budgets.BudgetTypeOriginal {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memoryBudgetRepo) ListBudgetLines(ctx context.Context, budgetID int64) ([]budgets.BudgetLine, error) {
	var out []budgets.BudgetLine
	for _, l := range m.lines {
		if l.BudgetID == budgetID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memoryBudgetRepo) GetBudgetLine(ctx context.Context, id int64) (budgets.BudgetLine, error) {
	for _, l := range m.lines {
		if l.ID == id {
			return l, nil
		}
	}
	return budgets.BudgetLine{}, budgets.ErrBudgetNotFound
}

func (m *memoryBudgetRepo) ListApprovedICOLines(ctx context.Context, projectID int64) ([]budgets.InternalChangeOrderLine, error) {
	return nil, nil
}

func (m *memoryBudgetRepo) ListApprovedECOs(ctx context.Context, projectID int64) ([]budgets.ExternalChangeOrder, error) {
	return nil, nil
}

func (m *memoryBudgetRepo) ListForecastPendingChangeOrders(ctx context.Context, projectID int64) ([]budgets.PendingChangeOrder, error) {
	return nil, nil
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

type stubCostSources struct {
	invoices []ap.Invoice
}

func (s *stubCostSources) ListApprovedByProject(ctx context.Context, projectID int64) ([]ap.Invoice, error) {
	return s.invoices, nil
}

type emptyLabor struct{}

func (emptyLabor) ListActiveByProject(ctx context.Context, projectID int64) ([]labor.Cost, error) {
	return nil, nil
}

type emptyExpenses struct{}

func (emptyExpenses) ListApprovedByProject(ctx context.Context, projectID int64) ([]expenses.Expense, error) {
	return nil, nil
}

type memoryCommitmentRepo struct {
	items []commitments.CommitmentItem
}

func (m *memoryCommitmentRepo) GetCommitment(ctx context.Context, id int64) (commitments.Commitment, error) {
	return commitments.Commitment{}, commitments.ErrCommitmentNotFound
}

func (m *memoryCommitmentRepo) ListByProject(ctx context.Context, projectID int64) ([]commitments.Commitment, error) {
	return nil, nil
}

func (m *memoryCommitmentRepo) ListItemsByProject(ctx context.Context, projectID int64) ([]commitments.CommitmentItem, error) {
	return m.items, nil
}

func (m *memoryCommitmentRepo) WithTx(ctx context.Context, fn func(context.Context, commitments.TxRepository) error) error {
	return nil
}

type stubForecastRepo struct {
	snapshots []forecast.Snapshot
}

func (s *stubForecastRepo) IsBoughtOut(ctx context.Context, budgetLineID int64) (bool, error) {
	return false, nil
}

func (s *stubForecastRepo) UpsertBuyout(ctx context.Context, b forecast.BudgetLineBuyout) error {
	return nil
}

func (s *stubForecastRepo) ProjectsWithBuyouts(ctx context.Context, periodID int64) ([]int64, error) {
	return nil, nil
}

func (s *stubForecastRepo) ListSnapshots(ctx context.Context, projectID, periodID int64) ([]forecast.Snapshot, error) {
	return s.snapshots, nil
}

// newFixture wires an in-memory graph for one project: a $100,000 contract,
// a $90,000 original budget, and a single approved AP invoice of $8,100 net
// with $900 retention held.
func newFixture(t *testing.T) *Service {
	t.Helper()
	logger := slog.Default()

	projectRepo := &memoryProjectRepo{
		projects: []projects.Project{{ID: 7, Name: "Project X", Status: projects.ProjectStatusActive}},
		contracts: []projects.Contract{
			{ID: 1, ProjectID: 7, ContractAmount: money("100000"), Status: projects.ContractStatusActive},
		},
	}
	budgetRepo := &memoryBudgetRepo{
		budgets: []budgets.Budget{{ID: 1, ProjectID: 7, Type: budgets.BudgetTypeOriginal, Status: budgets.StatusActive}},
		lines: []budgets.BudgetLine{
			{ID: 1, BudgetID: 1, CostCodeID: 100, CostTypeID: 1, Amount: money("90000"), Status: budgets.StatusActive},
		},
	}
	periodRepo := &memoryPeriodRepo{rows: []periods.Period{
		{ID: 1, Year: 2026, Month: 1, Status: periods.PeriodStatusOpen},
	}}
	sources := &stubCostSources{invoices: []ap.Invoice{
		{ID: 1, AccountingPeriodID: 1, TotalAmount: money("8100"), RetentionHeld: money("900"), Status: ap.InvoiceStatusApproved},
	}}

	projectSvc := projects.NewService(projectRepo)
	budgetSvc := budgets.NewService(budgetRepo, logger)
	periodSvc := periods.NewService(periodRepo)
	costSvc := costs.NewService(sources, emptyLabor{}, emptyExpenses{})
	commitmentSvc := commitments.NewService(&memoryCommitmentRepo{})
	forecastSvc := forecast.NewService(&stubForecastRepo{}, budgetSvc, commitmentSvc, costSvc, periodSvc, logger)

	return NewService(projectSvc, costSvc, budgetSvc, forecastSvc, periodSvc, nil, logger)
}

func TestRecognizedTenPercentComplete(t *testing.T) {
	svc := newFixture(t)

	got, err := svc.Recognized(context.Background(), 7, 1, false)
	require.NoError(t, err)

	// invoice contributes at gross: 8100 + 900 = 9000
	require.True(t, got.CostsToDate.Equal(money("9000")), "costs %s", got.CostsToDate)
	require.True(t, got.CurrentBudgetAmount.Equal(money("90000")))
	require.True(t, got.PercentComplete.Equal(money("10")), "pct %s", got.PercentComplete)
	require.True(t, got.RevenueRecognized.Equal(money("10000")), "revenue %s", got.RevenueRecognized)
}

func TestRecognizedNoContractsIsZero(t *testing.T) {
	svc := newFixture(t)
	// project 99 has no contracts
	got, err := svc.Recognized(context.Background(), 99, 1, false)
	require.NoError(t, err)
	require.True(t, got.RevenueRecognized.IsZero())
	require.True(t, got.PercentComplete.IsZero())
	require.True(t, got.TotalContractAmount.IsZero())
}

func TestRecognizedEACFallbackEquivalence(t *testing.T) {
	// closed period whose snapshots carry zero EAC: enabling EAC reporting
	// must fall back to current budget and match the disabled branch
	logger := slog.Default()
	projectRepo := &memoryProjectRepo{
		projects: []projects.Project{{ID: 7, Status: projects.ProjectStatusActive}},
		contracts: []projects.Contract{
			{ID: 1, ProjectID: 7, ContractAmount: money("100000"), Status: projects.ContractStatusActive},
		},
	}
	budgetRepo := &memoryBudgetRepo{
		budgets: []budgets.Budget{{ID: 1, ProjectID: 7, Type: budgets.BudgetTypeOriginal, Status: budgets.StatusActive}},
		lines: []budgets.BudgetLine{
			{ID: 1, BudgetID: 1, CostCodeID: 100, CostTypeID: 1, Amount: money("90000"), Status: budgets.StatusActive},
		},
	}
	periodRepo := &memoryPeriodRepo{rows: []periods.Period{{ID: 1, Year: 2026, Month: 1, Status: periods.PeriodStatusClosed}}}
	sources := &stubCostSources{invoices: []ap.Invoice{
		{ID: 1, AccountingPeriodID: 1, TotalAmount: money("8100"), RetentionHeld: money("900"), Status: ap.InvoiceStatusApproved},
	}}
	costSvc := costs.NewService(sources, emptyLabor{}, emptyExpenses{})
	budgetSvc := budgets.NewService(budgetRepo, logger)
	periodSvc := periods.NewService(periodRepo)
	forecastRepo := &stubForecastRepo{snapshots: []forecast.Snapshot{
		{ProjectID: 7, AccountingPeriodID: 1, BudgetLineID: 1, EACAmount: decimal.Zero},
	}}
	commitmentSvc := commitments.NewService(&memoryCommitmentRepo{})
	forecastSvc := forecast.NewService(forecastRepo, budgetSvc, commitmentSvc, costSvc, periodSvc, logger)
	svc := NewService(projects.NewService(projectRepo), costSvc, budgetSvc, forecastSvc, periodSvc, nil, logger)

	ctx := context.Background()
	disabled, err := svc.Recognized(ctx, 7, 1, false)
	require.NoError(t, err)
	enabled, err := svc.Recognized(ctx, 7, 1, true)
	require.NoError(t, err)

	require.True(t, enabled.EACAmount.IsZero())
	require.True(t, enabled.PercentComplete.Equal(disabled.PercentComplete))
	require.True(t, enabled.RevenueRecognized.Equal(disabled.RevenueRecognized))
}

func TestOverUnderExclusivity(t *testing.T) {
	cases := []struct {
		billed, revenue, wantOver, wantUnder string
	}{
		{"8000", "10000", "0", "2000"},
		{"12000", "10000", "2000", "0"},
		{"10000", "10000", "0", "0"},
	}
	for _, tc := range cases {
		over, under := OverUnder(money(tc.billed), money(tc.revenue))
		require.True(t, over.Equal(money(tc.wantOver)), "billed=%s over=%s", tc.billed, over)
		require.True(t, under.Equal(money(tc.wantUnder)), "billed=%s under=%s", tc.billed, under)
		require.True(t, decimal.Min(over, under).IsZero())
	}
}

func TestRecognizedZeroBasisYieldsZero(t *testing.T) {
	logger := slog.Default()
	projectRepo := &memoryProjectRepo{
		projects: []projects.Project{{ID: 7, Status: projects.ProjectStatusActive}},
		contracts: []projects.Contract{
			{ID: 1, ProjectID: 7, ContractAmount: money("100000"), Status: projects.ContractStatusActive},
		},
	}
	budgetRepo := &memoryBudgetRepo{}
	periodRepo := &memoryPeriodRepo{rows: []periods.Period{{ID: 1, Year: 2026, Month: 1, Status: periods.PeriodStatusOpen}}}
	costSvc := costs.NewService(&stubCostSources{}, emptyLabor{}, emptyExpenses{})
	budgetSvc := budgets.NewService(budgetRepo, logger)
	periodSvc := periods.NewService(periodRepo)
	forecastSvc := forecast.NewService(&stubForecastRepo{}, budgetSvc, nil, costSvc, periodSvc, logger)
	svc := NewService(projects.NewService(projectRepo), costSvc, budgetSvc, forecastSvc, periodSvc, nil, logger)

	got, err := svc.Recognized(context.Background(), 7, 1, false)
	require.NoError(t, err)
	require.True(t, got.PercentComplete.IsZero())
	require.True(t, got.RevenueRecognized.IsZero())
}
