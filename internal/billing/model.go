package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// BillingStatus enumerates owner billing states.
type BillingStatus string

const (
	BillingStatusPending  BillingStatus = "PENDING"
	BillingStatusApproved BillingStatus = "APPROVED"
)

// Billing is one owner progress billing against a contract. TotalAmount is
// always net of retention: subtotal minus retention held plus retention
// released. Gross is never stored; derive it through GrossAmount so every
// aggregation site shares one definition.
type Billing struct {
	ID                 int64
	ProjectID          int64
	ContractID         int64
	AccountingPeriodID int64
	Number             string
	Subtotal           decimal.Decimal
	RetentionHeld      decimal.Decimal
	RetentionReleased  decimal.Decimal
	TotalAmount        decimal.Decimal
	Status             BillingStatus
	CreatedAt          time.Time
	UpdatedAt          time.Time
	Lines              []BillingLine
}

// GrossAmount is the full billed value including retention still held.
func (b Billing) GrossAmount() decimal.Decimal {
	return b.TotalAmount.Add(b.RetentionHeld)
}

// BillingLine is one scheduled-value line on a billing.
type BillingLine struct {
	ID                  int64
	BillingID           int64
	CostCodeID          int64
	CostTypeID          int64
	ContractAmount      decimal.Decimal
	BillingAmount       decimal.Decimal
	MarkupPercent       decimal.Decimal
	ActualBillingAmount decimal.Decimal
	RetainagePercent    decimal.Decimal
	RetentionHeld       decimal.Decimal
	RetentionReleased   decimal.Decimal
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func totalsFromLines(lines []BillingLine) (subtotal, held, released, total decimal.Decimal) {
	subtotal, held, released = decimal.Zero, decimal.Zero, decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.ActualBillingAmount)
		held = held.Add(line.RetentionHeld)
		released = released.Add(line.RetentionReleased)
	}
	total = subtotal.Sub(held).Add(released)
	return subtotal, held, released, total
}
