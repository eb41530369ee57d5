package costs

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jobledger/jobledger/internal/ap"
	"github.com/jobledger/jobledger/internal/expenses"
	"github.com/jobledger/jobledger/internal/labor"
)

// Source labels identify where each breakdown line came from.
const (
	SourceAPInvoice      = "ap_invoice"
	SourceLaborCost      = "labor_cost"
	SourceProjectExpense = "project_expense"
)

// InvoiceSource supplies approved AP invoices per project.
type InvoiceSource interface {
	ListApprovedByProject(ctx context.Context, projectID int64) ([]ap.Invoice, error)
}

// LaborSource supplies active labor costs per project.
type LaborSource interface {
	ListActiveByProject(ctx context.Context, projectID int64) ([]labor.Cost, error)
}

// ExpenseSource supplies approved project expenses per project.
type ExpenseSource interface {
	ListApprovedByProject(ctx context.Context, projectID int64) ([]expenses.Expense, error)
}

// Query scopes an aggregation. PeriodIDs is a membership set built from the
// cutoff resolver (nil means no period filter; a single-element set scopes
// to one exact period). CostCodeID/CostTypeID filter as a pair when both are
// set.
type Query struct {
	ProjectID  int64
	PeriodIDs  map[int64]struct{}
	CostCodeID *int64
	CostTypeID *int64
}

// Line is one contribution to the cost total.
type Line struct {
	Source      string
	ReferenceID int64
	Amount      decimal.Decimal
}

// Breakdown is an aggregation result with its audit trail.
type Breakdown struct {
	Total decimal.Decimal
	Lines []Line
}

// Service aggregates actual costs from AP invoices (at gross), labor, and
// expenses. Read-only; a project with no records yields a zero breakdown.
type Service struct {
	invoices InvoiceSource
	labor    LaborSource
	expenses ExpenseSource
}

// NewService constructs a Service instance.
func NewService(invoices InvoiceSource, labor LaborSource, expenses ExpenseSource) *Service {
	return &Service{invoices: invoices, labor: labor, expenses: expenses}
}

// CostsToDate sums actual costs for the query scope. AP invoices contribute
// at gross (net total plus retention held): retention held is cost already
// incurred, just not yet paid.
func (s *Service) CostsToDate(ctx context.Context, q Query) (Breakdown, error) {
	out := Breakdown{Total: decimal.Zero}

	invoices, err := s.invoices.ListApprovedByProject(ctx, q.ProjectID)
	if err != nil {
		return Breakdown{}, err
	}
	for _, invoice := range invoices {
		if !q.periodIncluded(invoice.AccountingPeriodID) {
			continue
		}
		amount := invoiceContribution(invoice, q)
		if amount.IsZero() {
			continue
		}
		out.Lines = append(out.Lines, Line{Source: SourceAPInvoice, ReferenceID: invoice.ID, Amount: amount})
		out.Total = out.Total.Add(amount)
	}

	laborCosts, err := s.labor.ListActiveByProject(ctx, q.ProjectID)
	if err != nil {
		return Breakdown{}, err
	}
	for _, cost := range laborCosts {
		if !q.periodIncluded(cost.AccountingPeriodID) || !q.costCodeIncluded(cost.CostCodeID, cost.CostTypeID) {
			continue
		}
		out.Lines = append(out.Lines, Line{Source: SourceLaborCost, ReferenceID: cost.ID, Amount: cost.Amount})
		out.Total = out.Total.Add(cost.Amount)
	}

	expenseRows, err := s.expenses.ListApprovedByProject(ctx, q.ProjectID)
	if err != nil {
		return Breakdown{}, err
	}
	for _, expense := range expenseRows {
		if !q.periodIncluded(expense.AccountingPeriodID) || !q.costCodeIncluded(expense.CostCodeID, expense.CostTypeID) {
			continue
		}
		out.Lines = append(out.Lines, Line{Source: SourceProjectExpense, ReferenceID: expense.ID, Amount: expense.Amount})
		out.Total = out.Total.Add(expense.Amount)
	}

	return out, nil
}

// invoiceContribution is the invoice's gross amount, or the matching lines'
// gross when the query scopes to a cost-code/cost-type pair.
func invoiceContribution(invoice ap.Invoice, q Query) decimal.Decimal {
	if q.CostCodeID == nil || q.CostTypeID == nil {
		return invoice.GrossAmount()
	}
	total := decimal.Zero
	for _, line := range invoice.Lines {
		if line.CostCodeID == *q.CostCodeID && line.CostTypeID == *q.CostTypeID {
			// line gross: subtotal plus released retention (held retention
			// cancels out of net-plus-held)
			total = total.Add(line.TotalAmount.Add(line.RetentionReleased))
		}
	}
	return total
}

func (q Query) periodIncluded(periodID int64) bool {
	if q.PeriodIDs == nil {
		return true
	}
	_, ok := q.PeriodIDs[periodID]
	return ok
}

func (q Query) costCodeIncluded(costCodeID, costTypeID int64) bool {
	if q.CostCodeID == nil || q.CostTypeID == nil {
		return true
	}
	return costCodeID == *q.CostCodeID && costTypeID == *q.CostTypeID
}
