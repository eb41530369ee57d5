package accounts

import (
	"time"

	"github.com/google/uuid"
)

// AccountType classifies chart-of-accounts entries.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// Account is one chart-of-accounts row.
type Account struct {
	ID        uuid.UUID
	Code      string
	Name      string
	Type      AccountType
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DefaultExpenseAccountName is the hard fallback used when a cost type's
// expense-account reference cannot be resolved by id or name.
const DefaultExpenseAccountName = "Construction Costs"
