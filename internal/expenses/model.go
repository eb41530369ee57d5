package expenses

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseStatus enumerates project expense states.
type ExpenseStatus string

const (
	ExpenseStatusPending  ExpenseStatus = "PENDING"
	ExpenseStatusApproved ExpenseStatus = "APPROVED"
)

// Expense is a direct project cost outside AP and payroll.
type Expense struct {
	ID                 int64
	ProjectID          int64
	CostCodeID         int64
	CostTypeID         int64
	AccountingPeriodID int64
	Amount             decimal.Decimal
	Description        string
	Status             ExpenseStatus
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
