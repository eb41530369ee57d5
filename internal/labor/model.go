package labor

import (
	"time"

	"github.com/shopspring/decimal"
)

// CostStatus enumerates labor cost row states.
type CostStatus string

const (
	CostStatusActive   CostStatus = "ACTIVE"
	CostStatusInactive CostStatus = "INACTIVE"
)

// Cost is one employee labor charge against a project cost code.
type Cost struct {
	ID                 int64
	EmployeeID         int64
	ProjectID          int64
	CostCodeID         int64
	CostTypeID         int64
	AccountingPeriodID int64
	Amount             decimal.Decimal
	Hours              decimal.Decimal
	Rate               decimal.Decimal
	Status             CostStatus
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Employee carries the charge rate used when labor posts at charge-rate
// instead of actuals.
type Employee struct {
	ID         int64
	Name       string
	ChargeRate *decimal.Decimal
}

// PostingAmount is the journal amount for this cost under the given method:
// the recorded amount for actuals, chargeRate x hours for charge-rate. A
// missing employee or rate falls back to the recorded amount.
func (c Cost) PostingAmount(useChargeRate bool, employee *Employee) decimal.Decimal {
	if !useChargeRate {
		return c.Amount
	}
	if employee == nil || employee.ChargeRate == nil {
		return c.Amount
	}
	return employee.ChargeRate.Mul(c.Hours)
}
