package journal

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReferenceType links an entry back to its source document.
type ReferenceType string

const (
	RefAPInvoice          ReferenceType = "ap_invoice"
	RefAPInvoiceRetainage ReferenceType = "ap_invoice_retainage"
	RefBilling            ReferenceType = "project_billing"
	RefBillingRetainage   ReferenceType = "project_billing_retainage"
	RefLaborCost          ReferenceType = "labor_cost"
	RefProjectExpense     ReferenceType = "project_expense"
	RefOverBilling        ReferenceType = "over_billing"
	RefUnderBilling       ReferenceType = "under_billing"
	RefReversal           ReferenceType = "reversal"
)

// EntryStatus enumerates entry lifecycle states.
type EntryStatus string

const (
	EntryStatusDraft    EntryStatus = "DRAFT"
	EntryStatusPosted   EntryStatus = "POSTED"
	EntryStatusReversed EntryStatus = "REVERSED"
)

// BalanceTolerance is the rounding slack allowed when validating entries
// against externally entered figures. Composed entries balance exactly.
var BalanceTolerance = decimal.NewFromFloat(0.01)

// Entry is one journal entry with its lines.
type Entry struct {
	ID                 int64
	JournalNumber      string
	AccountingPeriodID int64
	ProjectID          *int64
	EntryDate          time.Time
	Description        string
	ReferenceType      ReferenceType
	ReferenceID        int64
	Status             EntryStatus
	CreatedAt          time.Time
	UpdatedAt          time.Time
	Lines              []Line
}

// Line is one debit or credit. Exactly one of the two amounts is non-zero
// in normal postings.
type Line struct {
	ID           int64
	EntryID      int64
	LineNumber   int
	GLAccountID  uuid.UUID
	Description  string
	DebitAmount  decimal.Decimal
	CreditAmount decimal.Decimal
}

// TotalDebits sums the entry's debit side.
func (e Entry) TotalDebits() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.DebitAmount)
	}
	return total
}

// TotalCredits sums the entry's credit side.
func (e Entry) TotalCredits() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.CreditAmount)
	}
	return total
}

// IsBalanced reports whether debits equal credits within the tolerance.
func (e Entry) IsBalanced(tolerance decimal.Decimal) bool {
	return e.TotalDebits().Sub(e.TotalCredits()).Abs().LessThanOrEqual(tolerance)
}

func (e *Entry) addDebit(accountID uuid.UUID, description string, amount decimal.Decimal) {
	e.Lines = append(e.Lines, Line{
		LineNumber:  len(e.Lines) + 1,
		GLAccountID: accountID,
		Description: description,
		DebitAmount: amount,
	})
}

func (e *Entry) addCredit(accountID uuid.UUID, description string, amount decimal.Decimal) {
	e.Lines = append(e.Lines, Line{
		LineNumber:   len(e.Lines) + 1,
		GLAccountID:  accountID,
		Description:  description,
		CreditAmount: amount,
	})
}

// Allocation is one line's share of an allocated document total.
type Allocation struct {
	Index  int
	Amount decimal.Decimal
}

// Allocate splits total across weights proportionally, rounding each share
// to cents and absorbing the rounding residue in the last non-zero weight so
// the shares always sum to the rounded total. Zero total weight allocates
// nothing.
func Allocate(total decimal.Decimal, weights []decimal.Decimal) []Allocation {
	weightSum := decimal.Zero
	for _, w := range weights {
		weightSum = weightSum.Add(w)
	}
	if weightSum.IsZero() {
		return nil
	}

	total = total.Round(2)
	var out []Allocation
	allocated := decimal.Zero
	last := -1
	for i, w := range weights {
		if w.IsZero() {
			continue
		}
		share := total.Mul(w).Div(weightSum).Round(2)
		out = append(out, Allocation{Index: i, Amount: share})
		allocated = allocated.Add(share)
		last = len(out) - 1
	}
	if last >= 0 {
		out[last].Amount = out[last].Amount.Add(total.Sub(allocated))
	}
	return out
}
