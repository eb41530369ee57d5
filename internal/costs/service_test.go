package costs

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jobledger/jobledger/internal/ap"
	"github.com/jobledger/jobledger/internal/expenses"
	"github.com/jobledger/jobledger/internal/labor"
)

type stubSources struct {
	invoices []ap.Invoice
	labor    []labor.Cost
	expenses []expenses.Expense
}

func (s *stubSources) ListApprovedByProject(ctx context.Context, projectID int64) ([]ap.Invoice, error) {
	return s.invoices, nil
}

func (s *stubSources) ListActiveByProject(ctx context.Context, projectID int64) ([]labor.Cost, error) {
	return s.labor, nil
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newService(src *stubSources) *Service {
	return NewService(src, src, expenseSource{src})
}

type expenseSource struct {
	src *stubSources
}

func (e expenseSource) ListApprovedByProject(ctx context.Context, projectID int64) ([]expenses.Expense, error) {
	return e.src.expenses, nil
}

func TestCostsToDateSumsAllSourcesAtGross(t *testing.T) {
	src := &stubSources{
		invoices: []ap.Invoice{
			{ID: 1, AccountingPeriodID: 1, TotalAmount: money("8100"), RetentionHeld: money("900")},
		},
		labor: []labor.Cost{
			{ID: 2, AccountingPeriodID: 1, Amount: money("2500")},
		},
		expenses: []expenses.Expense{
			{ID: 3, AccountingPeriodID: 1, Amount: money("400")},
		},
	}
	svc := newService(src)

	got, err := svc.CostsToDate(context.Background(), Query{ProjectID: 7})
	require.NoError(t, err)
	// invoice contributes at gross: 8100 + 900 = 9000
	require.True(t, got.Total.Equal(money("11900")), "got %s", got.Total)
	require.Len(t, got.Lines, 3)
	require.Equal(t, SourceAPInvoice, got.Lines[0].Source)
	require.True(t, got.Lines[0].Amount.Equal(money("9000")))
}

func TestCostsToDatePeriodCutoffFilters(t *testing.T) {
	src := &stubSources{
		invoices: []ap.Invoice{
			{ID: 1, AccountingPeriodID: 1, TotalAmount: money("1000")},
			{ID: 2, AccountingPeriodID: 2, TotalAmount: money("2000")},
		},
	}
	svc := newService(src)

	got, err := svc.CostsToDate(context.Background(), Query{ProjectID: 7, PeriodIDs: map[int64]struct{}{1: {}}})
	require.NoError(t, err)
	require.True(t, got.Total.Equal(money("1000")))
	require.Len(t, got.Lines, 1)
}

func TestCostsToDateCutoffMonotonicity(t *testing.T) {
	src := &stubSources{
		invoices: []ap.Invoice{
			{ID: 1, AccountingPeriodID: 1, TotalAmount: money("1000")},
			{ID: 2, AccountingPeriodID: 2, TotalAmount: money("2000")},
			{ID: 3, AccountingPeriodID: 3, TotalAmount: money("1500")},
		},
	}
	svc := newService(src)
	ctx := context.Background()

	prev := decimal.Zero
	cutoff := map[int64]struct{}{}
	for periodID := int64(1); periodID <= 3; periodID++ {
		cutoff[periodID] = struct{}{}
		got, err := svc.CostsToDate(ctx, Query{ProjectID: 7, PeriodIDs: cutoff})
		require.NoError(t, err)
		require.True(t, got.Total.GreaterThanOrEqual(prev), "cumulative costs must not decrease")
		prev = got.Total
	}
}

func TestCostsToDateCostCodeScoping(t *testing.T) {
	code, typ := int64(100), int64(1)
	src := &stubSources{
		invoices: []ap.Invoice{
			{ID: 1, AccountingPeriodID: 1, TotalAmount: money("5000"), RetentionHeld: money("500"), Lines: []ap.InvoiceLine{
				{CostCodeID: 100, CostTypeID: 1, TotalAmount: money("3000"), RetentionHeld: money("300")},
				{CostCodeID: 200, CostTypeID: 1, TotalAmount: money("2000"), RetentionHeld: money("200")},
			}},
		},
		labor: []labor.Cost{
			{ID: 2, AccountingPeriodID: 1, CostCodeID: 100, CostTypeID: 1, Amount: money("800")},
			{ID: 3, AccountingPeriodID: 1, CostCodeID: 200, CostTypeID: 1, Amount: money("999")},
		},
	}
	svc := newService(src)

	got, err := svc.CostsToDate(context.Background(), Query{ProjectID: 7, CostCodeID: &code, CostTypeID: &typ})
	require.NoError(t, err)
	// matching invoice line at gross (3000) + matching labor (800)
	require.True(t, got.Total.Equal(money("3800")), "got %s", got.Total)
}

func TestCostsToDateEmptyProjectIsZero(t *testing.T) {
	svc := newService(&stubSources{})
	got, err := svc.CostsToDate(context.Background(), Query{ProjectID: 404})
	require.NoError(t, err)
	require.True(t, got.Total.IsZero())
	require.Empty(t, got.Lines)
}
