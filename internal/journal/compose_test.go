package journal

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jobledger/jobledger/internal/accounts"
	"github.com/jobledger/jobledger/internal/ap"
	"github.com/jobledger/jobledger/internal/billing"
	"github.com/jobledger/jobledger/internal/labor"
	"github.com/jobledger/jobledger/internal/settings"
)

var (
	expenseAccountID  = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	apAccountID       = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	retainagePayID    = uuid.MustParse("33333333-3333-3333-3333-333333333333")
	arAccountID       = uuid.MustParse("44444444-4444-4444-4444-444444444444")
	revenueAccountID  = uuid.MustParse("55555555-5555-5555-5555-555555555555")
	retainageRecvID   = uuid.MustParse("66666666-6666-6666-6666-666666666666")
	wagesAccountID    = uuid.MustParse("77777777-7777-7777-7777-777777777777")
	clearingAccountID = uuid.MustParse("88888888-8888-8888-8888-888888888888")
	billExcessID      = uuid.MustParse("99999999-9999-9999-9999-999999999999")
	costExcessID      = uuid.MustParse("aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa")
)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type stubAccounts struct{}

func (stubAccounts) ResolveExpenseAccount(ctx context.Context, ref string) (accounts.Account, error) {
	return accounts.Account{ID: expenseAccountID, Name: accounts.DefaultExpenseAccountName}, nil
}

func (stubAccounts) GetByName(ctx context.Context, name string) (accounts.Account, error) {
	return accounts.Account{}, accounts.ErrAccountNotFound
}

type stubCostTypes struct{}

func (stubCostTypes) ExpenseAccountRef(ctx context.Context, costTypeID int64) (string, error) {
	return accounts.DefaultExpenseAccountName, nil
}

func mappedSettings(method settings.IntegrationMethod) settings.EffectiveSettings {
	return settings.EffectiveSettings{
		APInvoiceIntegrationMethod:   method,
		ARInvoiceIntegrationMethod:   method,
		LaborCostIntegrationMethod:   settings.LaborCostMethodActuals,
		AccountsPayableAccountID:     &apAccountID,
		AccountsReceivableAccountID:  &arAccountID,
		RetainagePayableAccountID:    &retainagePayID,
		RetainageReceivableAccountID: &retainageRecvID,
		WagesPayableAccountID:        &wagesAccountID,
		RevenueAccountID:             &revenueAccountID,
		RevenueClearingAccountID:     &clearingAccountID,
		CostInExcessAccountID:        &costExcessID,
		BillingInExcessAccountID:     &billExcessID,
	}
}

func newComposer() *Composer {
	c := NewComposer(stubAccounts{}, stubCostTypes{})
	return c.WithNow(func() time.Time { return time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC) })
}

func requireBalanced(t *testing.T, entries []Entry) {
	t.Helper()
	for _, e := range entries {
		require.True(t, e.TotalDebits().Equal(e.TotalCredits()),
			"entry %s: debits %s credits %s", e.ReferenceType, e.TotalDebits(), e.TotalCredits())
	}
}

func TestAPInvoiceInvoiceMethodEmitsNetAndRetainageEntries(t *testing.T) {
	invoice := ap.Invoice{
		ID:                 10,
		AccountingPeriodID: 1,
		Number:             "INV-10",
		Subtotal:           money("9000"),
		RetentionHeld:      money("900"),
		TotalAmount:        money("8100"),
		Status:             ap.InvoiceStatusApproved,
		Lines: []ap.InvoiceLine{
			{CostTypeID: 1, TotalAmount: money("8100"), RetentionHeld: money("900")},
		},
	}

	entries, err := newComposer().APInvoice(context.Background(), invoice, mappedSettings(settings.IntegrationMethodInvoice))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	requireBalanced(t, entries)

	net := entries[0]
	require.Equal(t, RefAPInvoice, net.ReferenceType)
	require.True(t, net.TotalDebits().Equal(money("8100")))
	require.Equal(t, apAccountID, net.Lines[len(net.Lines)-1].GLAccountID)

	retainage := entries[1]
	require.Equal(t, RefAPInvoiceRetainage, retainage.ReferenceType)
	require.True(t, retainage.TotalDebits().Equal(money("900")))
	require.Equal(t, retainagePayID, retainage.Lines[len(retainage.Lines)-1].GLAccountID)
}

func TestAPInvoiceJournalEntriesMethodEmitsSingleGrossEntry(t *testing.T) {
	invoice := ap.Invoice{
		ID:                 10,
		AccountingPeriodID: 1,
		Number:             "INV-10",
		RetentionHeld:      money("900"),
		TotalAmount:        money("8100"),
		Lines: []ap.InvoiceLine{
			{CostTypeID: 1, TotalAmount: money("8100"), RetentionHeld: money("900")},
		},
	}

	entries, err := newComposer().APInvoice(context.Background(), invoice, mappedSettings(settings.IntegrationMethodJournalEntries))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	requireBalanced(t, entries)

	entry := entries[0]
	require.True(t, entry.TotalDebits().Equal(money("9000")))
	// credits split: AP net + retainage payable
	require.True(t, entry.Lines[len(entry.Lines)-2].CreditAmount.Equal(money("8100")))
	require.True(t, entry.Lines[len(entry.Lines)-1].CreditAmount.Equal(money("900")))
}

func TestAPInvoiceAllocationSpreadsAcrossLinesAndAbsorbsRounding(t *testing.T) {
	invoice := ap.Invoice{
		ID:                 11,
		AccountingPeriodID: 1,
		Number:             "INV-11",
		TotalAmount:        money("100"),
		Lines: []ap.InvoiceLine{
			{CostTypeID: 1, TotalAmount: money("33.33")},
			{CostTypeID: 1, TotalAmount: money("33.33")},
			{CostTypeID: 1, TotalAmount: money("33.34")},
		},
	}

	entries, err := newComposer().APInvoice(context.Background(), invoice, mappedSettings(settings.IntegrationMethodInvoice))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	requireBalanced(t, entries)
	require.True(t, entries[0].TotalDebits().Equal(money("100")))
}

func TestAPInvoiceZeroLinesProducesNoEntries(t *testing.T) {
	invoice := ap.Invoice{
		ID:                 12,
		AccountingPeriodID: 1,
		TotalAmount:        money("0"),
		Lines:              []ap.InvoiceLine{{CostTypeID: 1, TotalAmount: money("0")}},
	}

	entries, err := newComposer().APInvoice(context.Background(), invoice, mappedSettings(settings.IntegrationMethodInvoice))
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestBillingInvoiceMethodEmitsNetAndRetainageEntries(t *testing.T) {
	b := billing.Billing{
		ID:                 20,
		ProjectID:          7,
		AccountingPeriodID: 1,
		Number:             "BILL-20",
		RetentionHeld:      money("500"),
		TotalAmount:        money("9500"),
		Status:             billing.BillingStatusApproved,
	}

	entries, err := newComposer().Billing(context.Background(), b, mappedSettings(settings.IntegrationMethodInvoice))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	requireBalanced(t, entries)

	require.Equal(t, RefBilling, entries[0].ReferenceType)
	require.Equal(t, arAccountID, entries[0].Lines[0].GLAccountID)
	require.Equal(t, revenueAccountID, entries[0].Lines[1].GLAccountID)

	require.Equal(t, RefBillingRetainage, entries[1].ReferenceType)
	require.True(t, entries[1].TotalDebits().Equal(money("500")))
	require.Equal(t, retainageRecvID, entries[1].Lines[1].GLAccountID)
}

func TestBillingJournalEntriesMethodPostsGrossAR(t *testing.T) {
	b := billing.Billing{
		ID:                 20,
		ProjectID:          7,
		AccountingPeriodID: 1,
		RetentionHeld:      money("500"),
		TotalAmount:        money("9500"),
	}

	entries, err := newComposer().Billing(context.Background(), b, mappedSettings(settings.IntegrationMethodJournalEntries))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	requireBalanced(t, entries)
	require.True(t, entries[0].Lines[0].DebitAmount.Equal(money("10000")))
}

func TestLaborCostChargeRateBasis(t *testing.T) {
	rate := money("85")
	employee := &labor.Employee{ID: 3, ChargeRate: &rate}
	cost := labor.Cost{ID: 30, ProjectID: 7, AccountingPeriodID: 1, CostTypeID: 1, Amount: money("1000"), Hours: money("10")}

	st := mappedSettings(settings.IntegrationMethodInvoice)
	st.LaborCostIntegrationMethod = settings.LaborCostMethodChargeRate

	entries, err := newComposer().LaborCost(context.Background(), cost, employee, st)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	requireBalanced(t, entries)
	require.True(t, entries[0].TotalDebits().Equal(money("850")))
	require.Equal(t, wagesAccountID, entries[0].Lines[1].GLAccountID)
}

func TestLaborCostMissingRateFallsBackToAmount(t *testing.T) {
	cost := labor.Cost{ID: 30, ProjectID: 7, AccountingPeriodID: 1, CostTypeID: 1, Amount: money("1000"), Hours: money("10")}
	st := mappedSettings(settings.IntegrationMethodInvoice)
	st.LaborCostIntegrationMethod = settings.LaborCostMethodChargeRate

	entries, err := newComposer().LaborCost(context.Background(), cost, nil, st)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.True(t, entries[0].TotalDebits().Equal(money("1000")))
}

func TestOverUnderComposesOneSidedEntry(t *testing.T) {
	c := newComposer()
	st := mappedSettings(settings.IntegrationMethodInvoice)
	ctx := context.Background()

	over, err := c.OverUnder(ctx, 7, 1, money("2000"), money("0"), st)
	require.NoError(t, err)
	require.Len(t, over, 1)
	requireBalanced(t, over)
	require.Equal(t, RefOverBilling, over[0].ReferenceType)
	require.Equal(t, clearingAccountID, over[0].Lines[0].GLAccountID)
	require.Equal(t, billExcessID, over[0].Lines[1].GLAccountID)

	under, err := c.OverUnder(ctx, 7, 1, money("0"), money("2000"), st)
	require.NoError(t, err)
	require.Len(t, under, 1)
	requireBalanced(t, under)
	require.Equal(t, RefUnderBilling, under[0].ReferenceType)
	require.Equal(t, costExcessID, under[0].Lines[0].GLAccountID)

	balanced, err := c.OverUnder(ctx, 7, 1, money("0"), money("0"), st)
	require.NoError(t, err)
	require.Empty(t, balanced)
}

func TestReversalMirrorsLines(t *testing.T) {
	original := Entry{
		ID:                 100,
		JournalNumber:      "JE-000100",
		AccountingPeriodID: 1,
		Status:             EntryStatusPosted,
		Lines: []Line{
			{LineNumber: 1, GLAccountID: expenseAccountID, DebitAmount: money("8100")},
			{LineNumber: 2, GLAccountID: apAccountID, CreditAmount: money("8100")},
		},
	}

	reversal := newComposer().Reversal(original)
	require.Equal(t, RefReversal, reversal.ReferenceType)
	require.Equal(t, int64(100), reversal.ReferenceID)
	require.True(t, reversal.TotalDebits().Equal(reversal.TotalCredits()))
	require.True(t, reversal.Lines[0].CreditAmount.Equal(money("8100")))
	require.True(t, reversal.Lines[1].DebitAmount.Equal(money("8100")))
}

func TestAllocateZeroWeightsAllocatesNothing(t *testing.T) {
	require.Nil(t, Allocate(money("100"), []decimal.Decimal{money("0"), money("0")}))
}

func TestAllocateSharesSumToTotal(t *testing.T) {
	allocs := Allocate(money("10"), []decimal.Decimal{money("1"), money("1"), money("1")})
	require.Len(t, allocs, 3)
	sum := decimal.Zero
	for _, a := range allocs {
		sum = sum.Add(a.Amount)
	}
	require.True(t, sum.Equal(money("10")), "got %s", sum)
}
