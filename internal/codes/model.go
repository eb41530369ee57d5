package codes

import "time"

// CostCode is one node of the project cost breakdown structure.
type CostCode struct {
	ID        int64
	Code      string
	Name      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CostType subdivides a cost code (labor, material, subcontract, ...).
// ExpenseAccount is a legacy dual-format reference: either a GL account id
// or an account name. Resolution happens in the accounts service.
type CostType struct {
	ID             int64
	Code           string
	Name           string
	ExpenseAccount string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
