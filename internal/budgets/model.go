package budgets

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetType distinguishes entered budgets from derived revisions.
type BudgetType string

const (
	// BudgetTypeOriginal is the entered baseline budget. Only Original,
	// Active budgets feed current-budget computation.
	BudgetTypeOriginal BudgetType = "ORIGINAL"
	// BudgetTypeRevised is produced by approving an internal change order,
	// never entered directly.
	BudgetTypeRevised BudgetType = "REVISED"
)

// RecordStatus is the shared Active/Inactive lifecycle for budget rows.
type RecordStatus string

const (
	StatusActive   RecordStatus = "ACTIVE"
	StatusInactive RecordStatus = "INACTIVE"
)

// Budget is a project budget header.
type Budget struct {
	ID                 int64
	ProjectID          int64
	AccountingPeriodID int64
	Type               BudgetType
	Status             RecordStatus
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// BudgetLine is one cost-code/cost-type budget amount.
type BudgetLine struct {
	ID         int64
	BudgetID   int64
	CostCodeID int64
	CostTypeID int64
	Amount     decimal.Decimal
	Status     RecordStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ChangeOrderStatus is the approval lifecycle shared by change orders.
type ChangeOrderStatus string

const (
	ChangeOrderStatusPending  ChangeOrderStatus = "PENDING"
	ChangeOrderStatusApproved ChangeOrderStatus = "APPROVED"
	ChangeOrderStatusRejected ChangeOrderStatus = "REJECTED"
)

// InternalChangeOrder moves budget between lines without touching the
// contract. Approved ICOs permanently add to current budget, unscoped by
// period.
type InternalChangeOrder struct {
	ID                int64
	ProjectID         int64
	OriginalBudgetID  int64
	RevisedBudgetID   *int64
	TotalChangeAmount decimal.Decimal
	Status            ChangeOrderStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// InternalChangeOrderLine is one signed per-line change amount.
type InternalChangeOrderLine struct {
	ID                    int64
	InternalChangeOrderID int64
	CostCodeID            int64
	CostTypeID            int64
	ChangeAmount          decimal.Decimal
}

// ExternalChangeOrder changes both the owner contract and the budget.
type ExternalChangeOrder struct {
	ID                        int64
	ProjectID                 int64
	ContractID                int64
	TotalContractChangeAmount decimal.Decimal
	TotalBudgetChangeAmount   decimal.Decimal
	Status                    ChangeOrderStatus
	CreatedAt                 time.Time
	UpdatedAt                 time.Time
}

// ExternalChangeOrderLine carries signed contract and budget deltas.
type ExternalChangeOrderLine struct {
	ID                    int64
	ExternalChangeOrderID int64
	CostCodeID            int64
	CostTypeID            int64
	ContractAmountChange  decimal.Decimal
	BudgetAmountChange    decimal.Decimal
}

// PendingChangeOrder is a forecast-only adjustment. Its cost amount joins
// current budget for forecasting when included; its revenue amount is
// surfaced separately and never enters recognized revenue.
type PendingChangeOrder struct {
	ID                   int64
	ProjectID            int64
	AccountingPeriodID   int64
	ExternalID           string
	CostAmount           decimal.Decimal
	RevenueAmount        decimal.Decimal
	IsIncludedInForecast bool
	Status               ChangeOrderStatus
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
