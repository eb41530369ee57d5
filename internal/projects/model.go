package projects

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProjectStatus enumerates project lifecycle values.
type ProjectStatus string

const (
	ProjectStatusActive   ProjectStatus = "ACTIVE"
	ProjectStatusInactive ProjectStatus = "INACTIVE"
)

// LaborCostMethod is the project-level default for labor postings.
type LaborCostMethod string

const (
	LaborCostMethodDefault    LaborCostMethod = "DEFAULT"
	LaborCostMethodActuals    LaborCostMethod = "ACTUALS"
	LaborCostMethodChargeRate LaborCostMethod = "CHARGE_RATE"
)

// Project is a construction job carrying contracts, budgets, and costs.
type Project struct {
	ID              int64
	Number          string
	Name            string
	Status          ProjectStatus
	LaborCostMethod LaborCostMethod
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ContractStatus enumerates contract states.
type ContractStatus string

const (
	ContractStatusActive   ContractStatus = "ACTIVE"
	ContractStatusInactive ContractStatus = "INACTIVE"
)

// Contract is one owner contract on a project. A project may carry several
// active contracts; the total contract amount is their sum.
type Contract struct {
	ID                 int64
	ProjectID          int64
	AccountingPeriodID int64
	ContractAmount     decimal.Decimal
	Status             ContractStatus
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
