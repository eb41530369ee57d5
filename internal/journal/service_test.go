package journal

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jobledger/jobledger/internal/ap"
	"github.com/jobledger/jobledger/internal/billing"
	"github.com/jobledger/jobledger/internal/expenses"
	"github.com/jobledger/jobledger/internal/labor"
	"github.com/jobledger/jobledger/internal/settings"
)

func (s *stubSettings) UseEACReporting(ctx context.Context) (bool, error) {
	return false, nil
}

type stubInvoiceStore struct {
	invoices map[int64]ap.Invoice
}

func (s *stubInvoiceStore) GetInvoice(ctx context.Context, id int64) (ap.Invoice, error) {
	invoice, ok := s.invoices[id]
	if !ok {
		return ap.Invoice{}, ap.ErrInvoiceNotFound
	}
	return invoice, nil
}

func (s *stubInvoiceStore) ListApprovedByPeriod(ctx context.Context, periodID int64) ([]ap.Invoice, error) {
	var out []ap.Invoice
	for _, invoice := range s.invoices {
		if invoice.AccountingPeriodID == periodID && invoice.Status == ap.InvoiceStatusApproved {
			out = append(out, invoice)
		}
	}
	return out, nil
}

type stubBillingStore struct{}

func (stubBillingStore) GetBilling(ctx context.Context, id int64) (billing.Billing, error) {
	return billing.Billing{}, billing.ErrBillingNotFound
}

func (stubBillingStore) ListApprovedByPeriod(ctx context.Context, periodID int64) ([]billing.Billing, error) {
	return nil, nil
}

type stubLaborStore struct{}

func (stubLaborStore) GetCost(ctx context.Context, id int64) (labor.Cost, error) {
	return labor.Cost{}, labor.ErrCostNotFound
}

func (stubLaborStore) ListActiveByPeriod(ctx context.Context, periodID int64) ([]labor.Cost, error) {
	return nil, nil
}

func (stubLaborStore) GetEmployee(ctx context.Context, id int64) (labor.Employee, error) {
	return labor.Employee{}, labor.ErrEmployeeNotFound
}

type stubExpenseStore struct{}

func (stubExpenseStore) GetExpense(ctx context.Context, id int64) (expenses.Expense, error) {
	return expenses.Expense{}, expenses.ErrExpenseNotFound
}

func (stubExpenseStore) ListApprovedByPeriod(ctx context.Context, periodID int64) ([]expenses.Expense, error) {
	return nil, nil
}

func newTestService(repo *memoryJournalRepo, invoices *stubInvoiceStore) *Service {
	return NewService(repo, newComposer(), &stubSettings{st: mappedSettings(settings.IntegrationMethodInvoice)},
		invoices, stubBillingStore{}, stubLaborStore{}, stubExpenseStore{},
		nil, nil, nil, nil, nil, slog.Default())
}

func approvedInvoice() ap.Invoice {
	return ap.Invoice{
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
}

func TestPostInvoiceIsIdempotent(t *testing.T) {
	repo := &memoryJournalRepo{}
	svc := newTestService(repo, &stubInvoiceStore{invoices: map[int64]ap.Invoice{10: approvedInvoice()}})
	ctx := context.Background()

	first, err := svc.PostInvoice(ctx, 10, 1)
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := svc.PostInvoice(ctx, 10, 1)
	require.NoError(t, err)
	require.Len(t, second, 2)
	require.Equal(t, first[0].ID, second[0].ID)
	require.Equal(t, first[1].ID, second[1].ID)
	require.Len(t, repo.entries, 2)
}

func TestPostInvoiceRejectsPending(t *testing.T) {
	invoice := approvedInvoice()
	invoice.Status = ap.InvoiceStatusPending
	svc := newTestService(&memoryJournalRepo{}, &stubInvoiceStore{invoices: map[int64]ap.Invoice{10: invoice}})

	_, err := svc.PostInvoice(context.Background(), 10, 1)
	require.ErrorIs(t, err, ErrSourceNotApproved)
}

func TestReverseSwapsSidesAndMarksOriginal(t *testing.T) {
	repo := &memoryJournalRepo{}
	svc := newTestService(repo, &stubInvoiceStore{invoices: map[int64]ap.Invoice{10: approvedInvoice()}})
	ctx := context.Background()

	posted, err := svc.PostInvoice(ctx, 10, 1)
	require.NoError(t, err)

	reversal, err := svc.Reverse(ctx, posted[0].ID, 1)
	require.NoError(t, err)
	require.Equal(t, RefReversal, reversal.ReferenceType)
	require.True(t, reversal.TotalDebits().Equal(reversal.TotalCredits()))

	original, err := svc.Get(ctx, posted[0].ID)
	require.NoError(t, err)
	require.Equal(t, EntryStatusReversed, original.Status)

	_, err = svc.Reverse(ctx, posted[0].ID, 1)
	require.ErrorIs(t, err, ErrAlreadyReversed)
}

func TestComposeInvoiceWithoutLinesYieldsNoEntries(t *testing.T) {
	// Allocation weights come from line items, so a store that returns
	// header-only invoices composes nothing and the period can never
	// validate. Invoice stores must hydrate lines on list reads too.
	invoice := approvedInvoice()
	invoice.Lines = nil
	store := &stubInvoiceStore{invoices: map[int64]ap.Invoice{10: invoice}}
	svc := newTestService(&memoryJournalRepo{}, store)
	ctx := context.Background()

	entries, err := svc.Compose(ctx, RefAPInvoice, 10)
	require.NoError(t, err)
	require.Empty(t, entries)

	v := NewValidator(&memoryJournalRepo{}, store, &stubBillingSource{}, &stubSettings{st: mappedSettings(settings.IntegrationMethodInvoice)})
	result, err := v.Validate(ctx, 1, entries)
	require.NoError(t, err)
	require.False(t, result.IsBalanced)
	require.Contains(t, result.Errors[0], "has no journal entry")
}

func TestComposeUnknownReference(t *testing.T) {
	svc := newTestService(&memoryJournalRepo{}, &stubInvoiceStore{})
	_, err := svc.Compose(context.Background(), ReferenceType("bogus"), 1)
	require.ErrorIs(t, err, ErrUnknownReference)
}
