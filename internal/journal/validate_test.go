package journal

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jobledger/jobledger/internal/ap"
	"github.com/jobledger/jobledger/internal/billing"
	"github.com/jobledger/jobledger/internal/settings"
)

type memoryJournalRepo struct {
	entries []Entry
	nextID  int64
}

func (m *memoryJournalRepo) GetEntry(ctx context.Context, id int64) (Entry, error) {
	for _, e := range m.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return Entry{}, ErrEntryNotFound
}

func (m *memoryJournalRepo) GetByReference(ctx context.Context, refType ReferenceType, refID, periodID int64) (Entry, error) {
	for _, e := range m.entries {
		if e.ReferenceType == refType && e.ReferenceID == refID && e.AccountingPeriodID == periodID {
			return e, nil
		}
	}
	return Entry{}, ErrEntryNotFound
}

func (m *memoryJournalRepo) ListByPeriod(ctx context.Context, periodID int64) ([]Entry, error) {
	var out []Entry
	for _, e := range m.entries {
		if e.AccountingPeriodID == periodID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memoryJournalRepo) Insert(ctx context.Context, entry Entry) (Entry, error) {
	if existing, err := m.GetByReference(ctx, entry.ReferenceType, entry.ReferenceID, entry.AccountingPeriodID); err == nil {
		return existing, nil
	}
	m.nextID++
	entry.ID = m.nextID
	entry.JournalNumber = fmt.Sprintf("JE-%06d", m.nextID)
	m.entries = append(m.entries, entry)
	return entry, nil
}

func (m *memoryJournalRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryJournalTx{repo: m})
}

type memoryJournalTx struct {
	repo *memoryJournalRepo
}

func (t *memoryJournalTx) GetEntryForUpdate(ctx context.Context, id int64) (Entry, error) {
	return t.repo.GetEntry(ctx, id)
}

func (t *memoryJournalTx) InsertEntry(ctx context.Context, entry Entry) (Entry, error) {
	return t.repo.Insert(ctx, entry)
}

func (t *memoryJournalTx) UpdateStatus(ctx context.Context, id int64, status EntryStatus) error {
	for i := range t.repo.entries {
		if t.repo.entries[i].ID == id {
			t.repo.entries[i].Status = status
			return nil
		}
	}
	return ErrEntryNotFound
}

type stubInvoiceSource struct {
	invoices []ap.Invoice
}

func (s *stubInvoiceSource) ListApprovedByPeriod(ctx context.Context, periodID int64) ([]ap.Invoice, error) {
	return s.invoices, nil
}

type stubBillingSource struct {
	billings []billing.Billing
}

func (s *stubBillingSource) ListApprovedByPeriod(ctx context.Context, periodID int64) ([]billing.Billing, error) {
	return s.billings, nil
}

type stubSettings struct {
	st settings.EffectiveSettings
}

func (s *stubSettings) Effective(ctx context.Context, projectID int64) (settings.EffectiveSettings, error) {
	return s.st, nil
}

func postedInvoiceEntries(invoiceID int64) []Entry {
	net := Entry{
		AccountingPeriodID: 1, JournalNumber: "JE-000001",
		ReferenceType: RefAPInvoice, ReferenceID: invoiceID, Status: EntryStatusPosted,
		Lines: []Line{
			{LineNumber: 1, GLAccountID: expenseAccountID, DebitAmount: money("8100")},
			{LineNumber: 2, GLAccountID: apAccountID, CreditAmount: money("8100")},
		},
	}
	retainage := Entry{
		AccountingPeriodID: 1, JournalNumber: "JE-000002",
		ReferenceType: RefAPInvoiceRetainage, ReferenceID: invoiceID, Status: EntryStatusPosted,
		Lines: []Line{
			{LineNumber: 1, GLAccountID: expenseAccountID, DebitAmount: money("900")},
			{LineNumber: 2, GLAccountID: retainagePayID, CreditAmount: money("900")},
		},
	}
	return []Entry{net, retainage}
}

func TestValidateCleanPeriodPasses(t *testing.T) {
	repo := &memoryJournalRepo{}
	for _, e := range postedInvoiceEntries(10) {
		_, err := repo.Insert(context.Background(), e)
		require.NoError(t, err)
	}
	invoices := &stubInvoiceSource{invoices: []ap.Invoice{
		{ID: 10, Number: "INV-10", AccountingPeriodID: 1, TotalAmount: money("8100"), RetentionHeld: money("900"), Status: ap.InvoiceStatusApproved},
	}}
	v := NewValidator(repo, invoices, &stubBillingSource{}, &stubSettings{st: mappedSettings(settings.IntegrationMethodInvoice)})

	result, err := v.Validate(context.Background(), 1, nil)
	require.NoError(t, err)
	require.True(t, result.IsBalanced)
	require.Empty(t, result.Errors)
}

func TestValidateFlagsMissingRetainageEntry(t *testing.T) {
	repo := &memoryJournalRepo{}
	_, err := repo.Insert(context.Background(), postedInvoiceEntries(10)[0])
	require.NoError(t, err)
	invoices := &stubInvoiceSource{invoices: []ap.Invoice{
		{ID: 10, Number: "INV-10", AccountingPeriodID: 1, TotalAmount: money("8100"), RetentionHeld: money("900"), Status: ap.InvoiceStatusApproved},
	}}
	v := NewValidator(repo, invoices, &stubBillingSource{}, &stubSettings{st: mappedSettings(settings.IntegrationMethodInvoice)})

	result, err := v.Validate(context.Background(), 1, nil)
	require.NoError(t, err)
	require.False(t, result.IsBalanced)
	require.Len(t, result.Errors, 1)
	require.Contains(t, result.Errors[0], "retainage")
}

func TestValidateFlagsImbalancedEntry(t *testing.T) {
	repo := &memoryJournalRepo{}
	_, err := repo.Insert(context.Background(), Entry{
		AccountingPeriodID: 1, ReferenceType: RefLaborCost, ReferenceID: 5, Status: EntryStatusPosted,
		Lines: []Line{
			{LineNumber: 1, GLAccountID: expenseAccountID, DebitAmount: money("100")},
			{LineNumber: 2, GLAccountID: wagesAccountID, CreditAmount: money("90")},
		},
	})
	require.NoError(t, err)
	v := NewValidator(repo, &stubInvoiceSource{}, &stubBillingSource{}, &stubSettings{st: mappedSettings(settings.IntegrationMethodInvoice)})

	result, err := v.Validate(context.Background(), 1, nil)
	require.NoError(t, err)
	require.False(t, result.IsBalanced)
	require.Contains(t, result.Errors[0], "imbalanced")
}

func TestValidateToleratesPennyRounding(t *testing.T) {
	repo := &memoryJournalRepo{}
	_, err := repo.Insert(context.Background(), Entry{
		AccountingPeriodID: 1, ReferenceType: RefLaborCost, ReferenceID: 5, Status: EntryStatusPosted,
		Lines: []Line{
			{LineNumber: 1, GLAccountID: expenseAccountID, DebitAmount: money("100.00")},
			{LineNumber: 2, GLAccountID: wagesAccountID, CreditAmount: money("99.99")},
		},
	})
	require.NoError(t, err)
	v := NewValidator(repo, &stubInvoiceSource{}, &stubBillingSource{}, &stubSettings{st: mappedSettings(settings.IntegrationMethodInvoice)})

	result, err := v.Validate(context.Background(), 1, nil)
	require.NoError(t, err)
	require.True(t, result.IsBalanced)
}

func TestValidateSkipsPresenceChecksUnderJournalEntriesMethod(t *testing.T) {
	repo := &memoryJournalRepo{}
	invoices := &stubInvoiceSource{invoices: []ap.Invoice{
		{ID: 10, Number: "INV-10", AccountingPeriodID: 1, TotalAmount: money("8100"), RetentionHeld: money("900"), Status: ap.InvoiceStatusApproved},
	}}
	v := NewValidator(repo, invoices, &stubBillingSource{}, &stubSettings{st: mappedSettings(settings.IntegrationMethodJournalEntries)})

	result, err := v.Validate(context.Background(), 1, nil)
	require.NoError(t, err)
	require.True(t, result.IsBalanced)
}

func TestValidateSeesProposedEntries(t *testing.T) {
	repo := &memoryJournalRepo{}
	invoices := &stubInvoiceSource{invoices: []ap.Invoice{
		{ID: 10, Number: "INV-10", AccountingPeriodID: 1, TotalAmount: money("8100"), RetentionHeld: money("900"), Status: ap.InvoiceStatusApproved},
	}}
	v := NewValidator(repo, invoices, &stubBillingSource{}, &stubSettings{st: mappedSettings(settings.IntegrationMethodInvoice)})

	result, err := v.Validate(context.Background(), 1, postedInvoiceEntries(10))
	require.NoError(t, err)
	require.True(t, result.IsBalanced, "errors: %v", result.Errors)
}
