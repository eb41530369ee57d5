package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jobledger/jobledger/internal/accounts"
	"github.com/jobledger/jobledger/internal/ap"
	"github.com/jobledger/jobledger/internal/billing"
	"github.com/jobledger/jobledger/internal/expenses"
	"github.com/jobledger/jobledger/internal/labor"
	"github.com/jobledger/jobledger/internal/settings"
)

// Fallback lookup names for ledger accounts left unmapped in settings.
const (
	AccountsPayableName     = "Accounts Payable"
	AccountsReceivableName  = "Accounts Receivable"
	RetainagePayableName    = "Retainage Payable"
	RetainageReceivableName = "Retainage Receivable"
	WagesPayableName        = "Wages Payable"
	RevenueName             = "Construction Revenue"
	RevenueClearingName     = "Revenue Clearing"
	BillingsInExcessName    = "Billings in Excess of Costs"
	CostsInExcessName       = "Costs in Excess of Billings"
)

// AccountResolver looks up ledger accounts. Implemented by the accounts
// service.
type AccountResolver interface {
	ResolveExpenseAccount(ctx context.Context, ref string) (accounts.Account, error)
	GetByName(ctx context.Context, name string) (accounts.Account, error)
}

// CostTypeSource supplies the raw expense-account reference of a cost type.
type CostTypeSource interface {
	ExpenseAccountRef(ctx context.Context, costTypeID int64) (string, error)
}

// Composer turns source documents into balanced journal entries. It never
// persists; entries are returned for the caller to store. Balanced by
// construction: an allocation that cannot be made (zero weights) omits the
// entry rather than emitting an imbalance.
type Composer struct {
	accounts  AccountResolver
	costTypes CostTypeSource

	now func() time.Time
}

// NewComposer constructs a Composer.
func NewComposer(resolver AccountResolver, costTypes CostTypeSource) *Composer {
	return &Composer{accounts: resolver, costTypes: costTypes, now: time.Now}
}

// WithNow overrides the entry-date clock.
func (c *Composer) WithNow(now func() time.Time) *Composer {
	c.now = now
	return c
}

func (c *Composer) newEntry(periodID int64, projectID *int64, refType ReferenceType, refID int64, description string) Entry {
	return Entry{
		AccountingPeriodID: periodID,
		ProjectID:          projectID,
		EntryDate:          c.now(),
		Description:        description,
		ReferenceType:      refType,
		ReferenceID:        refID,
		Status:             EntryStatusDraft,
	}
}

func (c *Composer) settingsAccount(ctx context.Context, mapped *uuid.UUID, name string) (uuid.UUID, error) {
	if mapped != nil {
		return *mapped, nil
	}
	account, err := c.accounts.GetByName(ctx, name)
	if err != nil {
		return uuid.Nil, fmt.Errorf("journal: account %q is unmapped and absent from the chart: %w", name, err)
	}
	return account.ID, nil
}

// wagesAccount resolves Wages Payable, falling back to Accounts Payable
// when no wages account is mapped or present.
func (c *Composer) wagesAccount(ctx context.Context, st settings.EffectiveSettings) (uuid.UUID, error) {
	if st.WagesPayableAccountID != nil {
		return *st.WagesPayableAccountID, nil
	}
	if account, err := c.accounts.GetByName(ctx, WagesPayableName); err == nil {
		return account.ID, nil
	}
	return c.settingsAccount(ctx, st.AccountsPayableAccountID, AccountsPayableName)
}

func (c *Composer) expenseAccountFor(ctx context.Context, costTypeID int64) (uuid.UUID, error) {
	ref, err := c.costTypes.ExpenseAccountRef(ctx, costTypeID)
	if err != nil {
		return uuid.Nil, err
	}
	account, err := c.accounts.ResolveExpenseAccount(ctx, ref)
	if err != nil {
		return uuid.Nil, err
	}
	return account.ID, nil
}

// APInvoice composes entries for one approved vendor invoice.
//
// Under the Invoice method the net amount and the retainage post as two
// separate entries; under the JournalEntries method one combined entry
// carries the gross debit against both payable credits.
func (c *Composer) APInvoice(ctx context.Context, invoice ap.Invoice, st settings.EffectiveSettings) ([]Entry, error) {
	apAccount, err := c.settingsAccount(ctx, st.AccountsPayableAccountID, AccountsPayableName)
	if err != nil {
		return nil, err
	}

	expenseAccounts := make([]uuid.UUID, len(invoice.Lines))
	netWeights := make([]decimal.Decimal, len(invoice.Lines))
	grossWeights := make([]decimal.Decimal, len(invoice.Lines))
	for i, line := range invoice.Lines {
		expenseAccounts[i], err = c.expenseAccountFor(ctx, line.CostTypeID)
		if err != nil {
			return nil, err
		}
		netWeights[i] = line.TotalAmount
		grossWeights[i] = line.TotalAmount.Add(line.RetentionHeld)
	}

	net := invoice.TotalAmount.Round(2)
	retention := invoice.RetentionHeld.Round(2)
	description := fmt.Sprintf("AP invoice %s", invoice.Number)

	if st.APInvoiceIntegrationMethod == settings.IntegrationMethodJournalEntries {
		gross := net.Add(retention)
		entry := c.newEntry(invoice.AccountingPeriodID, invoice.ProjectID, RefAPInvoice, invoice.ID, description)
		allocs := Allocate(gross, grossWeights)
		if len(allocs) == 0 {
			return nil, nil
		}
		for _, a := range allocs {
			entry.addDebit(expenseAccounts[a.Index], description, a.Amount)
		}
		entry.addCredit(apAccount, description, net)
		if retention.IsPositive() {
			retainageAccount, err := c.settingsAccount(ctx, st.RetainagePayableAccountID, RetainagePayableName)
			if err != nil {
				return nil, err
			}
			entry.addCredit(retainageAccount, description, retention)
		}
		return []Entry{entry}, nil
	}

	var out []Entry

	netAllocs := Allocate(net, netWeights)
	if len(netAllocs) > 0 {
		entry := c.newEntry(invoice.AccountingPeriodID, invoice.ProjectID, RefAPInvoice, invoice.ID, description)
		for _, a := range netAllocs {
			entry.addDebit(expenseAccounts[a.Index], description, a.Amount)
		}
		entry.addCredit(apAccount, description, net)
		out = append(out, entry)
	}

	if retention.IsPositive() {
		retainageAccount, err := c.settingsAccount(ctx, st.RetainagePayableAccountID, RetainagePayableName)
		if err != nil {
			return nil, err
		}
		retainageAllocs := Allocate(retention, grossWeights)
		if len(retainageAllocs) > 0 {
			entry := c.newEntry(invoice.AccountingPeriodID, invoice.ProjectID, RefAPInvoiceRetainage, invoice.ID, description+" retainage")
			for _, a := range retainageAllocs {
				entry.addDebit(expenseAccounts[a.Index], description+" retainage", a.Amount)
			}
			entry.addCredit(retainageAccount, description+" retainage", retention)
			out = append(out, entry)
		}
	}
	return out, nil
}

// Billing composes entries for one approved owner billing.
func (c *Composer) Billing(ctx context.Context, b billing.Billing, st settings.EffectiveSettings) ([]Entry, error) {
	arAccount, err := c.settingsAccount(ctx, st.AccountsReceivableAccountID, AccountsReceivableName)
	if err != nil {
		return nil, err
	}
	revenueAccount, err := c.settingsAccount(ctx, st.RevenueAccountID, RevenueName)
	if err != nil {
		return nil, err
	}

	net := b.TotalAmount.Round(2)
	retention := b.RetentionHeld.Round(2)
	description := fmt.Sprintf("Billing %s", b.Number)
	projectID := b.ProjectID

	if st.ARInvoiceIntegrationMethod == settings.IntegrationMethodJournalEntries {
		entry := c.newEntry(b.AccountingPeriodID, &projectID, RefBilling, b.ID, description)
		entry.addDebit(arAccount, description, net.Add(retention))
		entry.addCredit(revenueAccount, description, net)
		if retention.IsPositive() {
			retainageAccount, err := c.settingsAccount(ctx, st.RetainageReceivableAccountID, RetainageReceivableName)
			if err != nil {
				return nil, err
			}
			entry.addCredit(retainageAccount, description, retention)
		}
		return []Entry{entry}, nil
	}

	var out []Entry
	if !net.IsZero() {
		entry := c.newEntry(b.AccountingPeriodID, &projectID, RefBilling, b.ID, description)
		entry.addDebit(arAccount, description, net)
		entry.addCredit(revenueAccount, description, net)
		out = append(out, entry)
	}
	if retention.IsPositive() {
		retainageAccount, err := c.settingsAccount(ctx, st.RetainageReceivableAccountID, RetainageReceivableName)
		if err != nil {
			return nil, err
		}
		entry := c.newEntry(b.AccountingPeriodID, &projectID, RefBillingRetainage, b.ID, description+" retainage")
		entry.addDebit(arAccount, description+" retainage", retention)
		entry.addCredit(retainageAccount, description+" retainage", retention)
		out = append(out, entry)
	}
	return out, nil
}

// LaborCost composes the single entry for one labor charge. The amount
// basis follows the labor integration method; the integration-method axis
// for documents does not apply here.
func (c *Composer) LaborCost(ctx context.Context, cost labor.Cost, employee *labor.Employee, st settings.EffectiveSettings) ([]Entry, error) {
	expenseAccount, err := c.expenseAccountFor(ctx, cost.CostTypeID)
	if err != nil {
		return nil, err
	}
	creditAccount, err := c.wagesAccount(ctx, st)
	if err != nil {
		return nil, err
	}

	amount := cost.PostingAmount(st.LaborCostIntegrationMethod == settings.LaborCostMethodChargeRate, employee).Round(2)
	if amount.IsZero() {
		return nil, nil
	}

	description := fmt.Sprintf("Labor cost %d", cost.ID)
	entry := c.newEntry(cost.AccountingPeriodID, &cost.ProjectID, RefLaborCost, cost.ID, description)
	entry.addDebit(expenseAccount, description, amount)
	entry.addCredit(creditAccount, description, amount)
	return []Entry{entry}, nil
}

// Expense composes the single entry for one approved project expense.
func (c *Composer) Expense(ctx context.Context, expense expenses.Expense, st settings.EffectiveSettings) ([]Entry, error) {
	expenseAccount, err := c.expenseAccountFor(ctx, expense.CostTypeID)
	if err != nil {
		return nil, err
	}
	apAccount, err := c.settingsAccount(ctx, st.AccountsPayableAccountID, AccountsPayableName)
	if err != nil {
		return nil, err
	}

	amount := expense.Amount.Round(2)
	if amount.IsZero() {
		return nil, nil
	}

	description := fmt.Sprintf("Project expense %d", expense.ID)
	entry := c.newEntry(expense.AccountingPeriodID, &expense.ProjectID, RefProjectExpense, expense.ID, description)
	entry.addDebit(expenseAccount, description, amount)
	entry.addCredit(apAccount, description, amount)
	return []Entry{entry}, nil
}

// OverUnder composes the period's over- or under-billing adjustment for a
// project. At most one of the two amounts is positive; a balanced project
// produces no entry.
func (c *Composer) OverUnder(ctx context.Context, projectID, periodID int64, over, under decimal.Decimal, st settings.EffectiveSettings) ([]Entry, error) {
	over = over.Round(2)
	under = under.Round(2)
	if over.IsZero() && under.IsZero() {
		return nil, nil
	}

	clearingAccount, err := c.settingsAccount(ctx, st.RevenueClearingAccountID, RevenueClearingName)
	if err != nil {
		return nil, err
	}

	if over.IsPositive() {
		excessAccount, err := c.settingsAccount(ctx, st.BillingInExcessAccountID, BillingsInExcessName)
		if err != nil {
			return nil, err
		}
		description := fmt.Sprintf("Over billing project %d", projectID)
		entry := c.newEntry(periodID, &projectID, RefOverBilling, projectID, description)
		entry.addDebit(clearingAccount, description, over)
		entry.addCredit(excessAccount, description, over)
		return []Entry{entry}, nil
	}

	excessAccount, err := c.settingsAccount(ctx, st.CostInExcessAccountID, CostsInExcessName)
	if err != nil {
		return nil, err
	}
	description := fmt.Sprintf("Under billing project %d", projectID)
	entry := c.newEntry(periodID, &projectID, RefUnderBilling, projectID, description)
	entry.addDebit(excessAccount, description, under)
	entry.addCredit(clearingAccount, description, under)
	return []Entry{entry}, nil
}

// Reversal composes the mirror image of an existing entry: every debit
// becomes a credit and vice versa, referencing the original by id.
func (c *Composer) Reversal(original Entry) Entry {
	entry := c.newEntry(original.AccountingPeriodID, original.ProjectID, RefReversal, original.ID,
		fmt.Sprintf("Reversal of %s", original.JournalNumber))
	for _, line := range original.Lines {
		if line.DebitAmount.IsPositive() {
			entry.addCredit(line.GLAccountID, entry.Description, line.DebitAmount)
		} else {
			entry.addDebit(line.GLAccountID, entry.Description, line.CreditAmount)
		}
	}
	return entry
}
