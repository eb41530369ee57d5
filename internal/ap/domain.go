package ap

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus enumerates AP invoice statuses.
type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "PENDING"
	InvoiceStatusApproved  InvoiceStatus = "APPROVED"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// Invoice is a vendor invoice. TotalAmount is derived and never entered:
// subtotal minus retention held plus retention released, recomputed from
// line items whenever they change.
type Invoice struct {
	ID                 int64
	VendorID           int64
	ProjectID          *int64
	CommitmentID       *int64
	AccountingPeriodID int64
	Number             string
	Subtotal           decimal.Decimal
	RetentionHeld      decimal.Decimal
	RetentionReleased  decimal.Decimal
	TotalAmount        decimal.Decimal
	Status             InvoiceStatus
	ApprovedAt         *time.Time
	ApprovedBy         *int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
	Lines              []InvoiceLine
}

// InvoiceLine is one cost-coded line on an AP invoice.
type InvoiceLine struct {
	ID                int64
	InvoiceID         int64
	CostCodeID        int64
	CostTypeID        int64
	TotalAmount       decimal.Decimal
	RetentionHeld     decimal.Decimal
	RetentionReleased decimal.Decimal
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// GrossAmount is the cost the invoice represents regardless of payment
// timing: net total plus retention still held. Cost aggregation always uses
// this figure.
func (i Invoice) GrossAmount() decimal.Decimal {
	return i.TotalAmount.Add(i.RetentionHeld)
}

// totalsFromLines recomputes header figures from line items. Header
// retention figures are the line sums.
func totalsFromLines(lines []InvoiceLine) (subtotal, held, released, total decimal.Decimal) {
	subtotal, held, released = decimal.Zero, decimal.Zero, decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.TotalAmount)
		held = held.Add(line.RetentionHeld)
		released = released.Add(line.RetentionReleased)
	}
	total = subtotal.Sub(held).Add(released)
	return subtotal, held, released, total
}
