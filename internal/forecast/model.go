package forecast

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetLineBuyout records the operator's buyout decision for one budget
// line in one period. The decision is sticky: once any open period carries
// is_bought_out=true for a line, the line counts as bought out everywhere.
type BudgetLineBuyout struct {
	ID                 int64
	ProjectID          int64
	BudgetLineID       int64
	AccountingPeriodID int64
	IsBoughtOut        bool
	BuyoutDate         *time.Time
	BuyoutAmount       *decimal.Decimal
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Snapshot freezes one budget line's computed forecast figures at period
// close. Rows exist only for closed periods and are deleted on reopen.
type Snapshot struct {
	ID                           int64
	ProjectID                    int64
	AccountingPeriodID           int64
	BudgetLineID                 int64
	BudgetedAmount               decimal.Decimal
	CommittedAmount              decimal.Decimal
	CommitmentChangeOrdersAmount decimal.Decimal
	TotalCommittedAmount         decimal.Decimal
	ActualsAmount                decimal.Decimal
	ETCAmount                    decimal.Decimal
	EACAmount                    decimal.Decimal
	BuyoutSavings                *decimal.Decimal
	CreatedAt                    time.Time
}

// EACResult carries the computed estimate-at-completion figures for one
// budget line. BuyoutSavings is nil unless the line is bought out.
type EACResult struct {
	BudgetLineID                 int64
	BudgetedAmount               decimal.Decimal
	CommittedAmount              decimal.Decimal
	CommitmentChangeOrdersAmount decimal.Decimal
	TotalCommittedAmount         decimal.Decimal
	ActualsAmount                decimal.Decimal
	ETCAmount                    decimal.Decimal
	EACAmount                    decimal.Decimal
	BuyoutSavings                *decimal.Decimal
}

// ComputeEAC applies the estimate-to-complete rule to one line's inputs.
//
// A bought-out line with commitments burns toward its committed price, so
// remaining spend is committed minus actuals. Every other line burns toward
// its budget. Savings are only meaningful once the price is locked by a
// buyout: committed minus budgeted, positive when the buy came in under.
func ComputeEAC(budgetLineID int64, budgeted, committed, changeOrders, actuals decimal.Decimal, isBoughtOut bool) EACResult {
	totalCommitted := committed.Add(changeOrders)

	var etc decimal.Decimal
	if totalCommitted.GreaterThan(decimal.Zero) && isBoughtOut {
		etc = totalCommitted.Sub(actuals)
	} else {
		etc = budgeted.Sub(actuals)
	}

	result := EACResult{
		BudgetLineID:                 budgetLineID,
		BudgetedAmount:               budgeted,
		CommittedAmount:              committed,
		CommitmentChangeOrdersAmount: changeOrders,
		TotalCommittedAmount:         totalCommitted,
		ActualsAmount:                actuals,
		ETCAmount:                    etc,
		EACAmount:                    actuals.Add(etc),
	}
	if isBoughtOut {
		savings := totalCommitted.Sub(budgeted)
		result.BuyoutSavings = &savings
	}
	return result
}

// SnapshotFromResult maps a computed result into a persistable snapshot row.
func SnapshotFromResult(projectID, periodID int64, r EACResult) Snapshot {
	return Snapshot{
		ProjectID:                    projectID,
		AccountingPeriodID:           periodID,
		BudgetLineID:                 r.BudgetLineID,
		BudgetedAmount:               r.BudgetedAmount,
		CommittedAmount:              r.CommittedAmount,
		CommitmentChangeOrdersAmount: r.CommitmentChangeOrdersAmount,
		TotalCommittedAmount:         r.TotalCommittedAmount,
		ActualsAmount:                r.ActualsAmount,
		ETCAmount:                    r.ETCAmount,
		EACAmount:                    r.EACAmount,
		BuyoutSavings:                r.BuyoutSavings,
	}
}
