package journal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jobledger/jobledger/internal/ap"
	"github.com/jobledger/jobledger/internal/billing"
	"github.com/jobledger/jobledger/internal/expenses"
	"github.com/jobledger/jobledger/internal/labor"
	"github.com/jobledger/jobledger/internal/periods"
	"github.com/jobledger/jobledger/internal/projects"
	"github.com/jobledger/jobledger/internal/revenue"
	"github.com/jobledger/jobledger/internal/settings"
	"github.com/jobledger/jobledger/internal/shared"
)

var (
	// ErrSourceNotApproved indicates posting was requested for a document
	// that is not in an approved state.
	ErrSourceNotApproved = errors.New("journal: source document is not approved")
	// ErrAlreadyReversed indicates the entry has already been reversed.
	ErrAlreadyReversed = errors.New("journal: entry already reversed")
	// ErrUnknownReference indicates an unsupported reference type.
	ErrUnknownReference = errors.New("journal: unknown reference type")
)

// InvoiceStore supplies AP invoices for composition.
type InvoiceStore interface {
	GetInvoice(ctx context.Context, id int64) (ap.Invoice, error)
	ListApprovedByPeriod(ctx context.Context, periodID int64) ([]ap.Invoice, error)
}

// BillingStore supplies billings for composition.
type BillingStore interface {
	GetBilling(ctx context.Context, id int64) (billing.Billing, error)
	ListApprovedByPeriod(ctx context.Context, periodID int64) ([]billing.Billing, error)
}

// LaborStore supplies labor costs and their employees.
type LaborStore interface {
	GetCost(ctx context.Context, id int64) (labor.Cost, error)
	ListActiveByPeriod(ctx context.Context, periodID int64) ([]labor.Cost, error)
	GetEmployee(ctx context.Context, id int64) (labor.Employee, error)
}

// ExpenseStore supplies project expenses.
type ExpenseStore interface {
	GetExpense(ctx context.Context, id int64) (expenses.Expense, error)
	ListApprovedByPeriod(ctx context.Context, periodID int64) ([]expenses.Expense, error)
}

// SettingsStore resolves ledger settings for composition.
type SettingsStore interface {
	Effective(ctx context.Context, projectID int64) (settings.EffectiveSettings, error)
	UseEACReporting(ctx context.Context) (bool, error)
}

// AuditPort records who posted and reversed entries.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service composes, persists, and reverses journal entries.
type Service struct {
	repo     Repository
	composer *Composer
	settings SettingsStore
	invoices InvoiceStore
	billings BillingStore
	labor    LaborStore
	expenses ExpenseStore
	revenue  *revenue.Service
	billed   revenue.BillingSource
	projects *projects.Service
	periods  *periods.Service
	audit    AuditPort
	logger   *slog.Logger
}

// NewService constructs a Service instance.
func NewService(repo Repository, composer *Composer, settingSvc SettingsStore,
	invoices InvoiceStore, billings BillingStore, laborStore LaborStore, expenseStore ExpenseStore,
	revenueSvc *revenue.Service, billed revenue.BillingSource,
	projectSvc *projects.Service, periodSvc *periods.Service,
	audit AuditPort, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		composer: composer,
		settings: settingSvc,
		invoices: invoices,
		billings: billings,
		labor:    laborStore,
		expenses: expenseStore,
		revenue:  revenueSvc,
		billed:   billed,
		projects: projectSvc,
		periods:  periodSvc,
		audit:    audit,
		logger:   logger,
	}
}

// Compose builds (without persisting) the entries for one source document.
// Used by the journal preview endpoint.
func (s *Service) Compose(ctx context.Context, refType ReferenceType, refID int64) ([]Entry, error) {
	switch refType {
	case RefAPInvoice:
		invoice, err := s.invoices.GetInvoice(ctx, refID)
		if err != nil {
			return nil, err
		}
		st, err := s.effectiveFor(ctx, invoice.ProjectID)
		if err != nil {
			return nil, err
		}
		return s.composer.APInvoice(ctx, invoice, st)
	case RefBilling:
		b, err := s.billings.GetBilling(ctx, refID)
		if err != nil {
			return nil, err
		}
		st, err := s.settings.Effective(ctx, b.ProjectID)
		if err != nil {
			return nil, err
		}
		return s.composer.Billing(ctx, b, st)
	case RefLaborCost:
		cost, err := s.labor.GetCost(ctx, refID)
		if err != nil {
			return nil, err
		}
		st, err := s.settings.Effective(ctx, cost.ProjectID)
		if err != nil {
			return nil, err
		}
		employee := s.lookupEmployee(ctx, cost.EmployeeID)
		return s.composer.LaborCost(ctx, cost, employee, st)
	case RefProjectExpense:
		expense, err := s.expenses.GetExpense(ctx, refID)
		if err != nil {
			return nil, err
		}
		st, err := s.settings.Effective(ctx, expense.ProjectID)
		if err != nil {
			return nil, err
		}
		return s.composer.Expense(ctx, expense, st)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownReference, refType)
	}
}

// PostInvoice composes and persists the entries for one approved invoice.
// Re-posting returns the already stored entries.
func (s *Service) PostInvoice(ctx context.Context, invoiceID int64, actorID int64) ([]Entry, error) {
	invoice, err := s.invoices.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.Status != ap.InvoiceStatusApproved {
		return nil, ErrSourceNotApproved
	}
	st, err := s.effectiveFor(ctx, invoice.ProjectID)
	if err != nil {
		return nil, err
	}
	composed, err := s.composer.APInvoice(ctx, invoice, st)
	if err != nil {
		return nil, err
	}
	return s.persist(ctx, composed, actorID)
}

// PostBilling composes and persists the entries for one approved billing.
func (s *Service) PostBilling(ctx context.Context, billingID int64, actorID int64) ([]Entry, error) {
	b, err := s.billings.GetBilling(ctx, billingID)
	if err != nil {
		return nil, err
	}
	if b.Status != billing.BillingStatusApproved {
		return nil, ErrSourceNotApproved
	}
	st, err := s.settings.Effective(ctx, b.ProjectID)
	if err != nil {
		return nil, err
	}
	composed, err := s.composer.Billing(ctx, b, st)
	if err != nil {
		return nil, err
	}
	return s.persist(ctx, composed, actorID)
}

// BuildPeriodEntries composes the full entry set a period close must post:
// every approved invoice, billing, labor cost, and expense in the period,
// plus one over/under-billing adjustment per active project.
func (s *Service) BuildPeriodEntries(ctx context.Context, periodID int64) ([]Entry, error) {
	var out []Entry

	invoices, err := s.invoices.ListApprovedByPeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}
	for _, invoice := range invoices {
		st, err := s.effectiveFor(ctx, invoice.ProjectID)
		if err != nil {
			return nil, err
		}
		entries, err := s.composer.APInvoice(ctx, invoice, st)
		if err != nil {
			return nil, err
		}
		out = append(out, entries...)
	}

	billings, err := s.billings.ListApprovedByPeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}
	for _, b := range billings {
		st, err := s.settings.Effective(ctx, b.ProjectID)
		if err != nil {
			return nil, err
		}
		entries, err := s.composer.Billing(ctx, b, st)
		if err != nil {
			return nil, err
		}
		out = append(out, entries...)
	}

	laborCosts, err := s.labor.ListActiveByPeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}
	for _, cost := range laborCosts {
		st, err := s.settings.Effective(ctx, cost.ProjectID)
		if err != nil {
			return nil, err
		}
		entries, err := s.composer.LaborCost(ctx, cost, s.lookupEmployee(ctx, cost.EmployeeID), st)
		if err != nil {
			return nil, err
		}
		out = append(out, entries...)
	}

	expenseRows, err := s.expenses.ListApprovedByPeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}
	for _, expense := range expenseRows {
		st, err := s.settings.Effective(ctx, expense.ProjectID)
		if err != nil {
			return nil, err
		}
		entries, err := s.composer.Expense(ctx, expense, st)
		if err != nil {
			return nil, err
		}
		out = append(out, entries...)
	}

	overUnder, err := s.buildOverUnder(ctx, periodID)
	if err != nil {
		return nil, err
	}
	return append(out, overUnder...), nil
}

func (s *Service) buildOverUnder(ctx context.Context, periodID int64) ([]Entry, error) {
	eacEnabled, err := s.settings.UseEACReporting(ctx)
	if err != nil {
		return nil, err
	}
	cutoff, err := s.periods.CutoffIDsFor(ctx, periodID)
	if err != nil {
		return nil, err
	}
	active, err := s.projects.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	var out []Entry
	for _, project := range active {
		rec, err := s.revenue.Recognized(ctx, project.ID, periodID, eacEnabled)
		if err != nil {
			return nil, err
		}
		billed, err := s.billed.BillingsToDate(ctx, project.ID, cutoff)
		if err != nil {
			return nil, err
		}
		over, under := revenue.OverUnder(billed, rec.RevenueRecognized)
		st, err := s.settings.Effective(ctx, project.ID)
		if err != nil {
			return nil, err
		}
		entries, err := s.composer.OverUnder(ctx, project.ID, periodID, over, under, st)
		if err != nil {
			return nil, err
		}
		out = append(out, entries...)
	}
	return out, nil
}

// Reverse posts the mirror entry for an existing one and marks the
// original reversed, atomically.
func (s *Service) Reverse(ctx context.Context, entryID int64, actorID int64) (Entry, error) {
	var reversal Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		original, err := tx.GetEntryForUpdate(ctx, entryID)
		if err != nil {
			return err
		}
		if original.Status == EntryStatusReversed {
			return ErrAlreadyReversed
		}
		reversal, err = tx.InsertEntry(ctx, s.composer.Reversal(original))
		if err != nil {
			return err
		}
		return tx.UpdateStatus(ctx, original.ID, EntryStatusReversed)
	})
	if err != nil {
		return Entry{}, err
	}
	s.recordAudit(ctx, actorID, "journal.reverse", reversal)
	return reversal, nil
}

// Get returns one entry with lines.
func (s *Service) Get(ctx context.Context, id int64) (Entry, error) {
	return s.repo.GetEntry(ctx, id)
}

// ListByPeriod returns the period's entries.
func (s *Service) ListByPeriod(ctx context.Context, periodID int64) ([]Entry, error) {
	return s.repo.ListByPeriod(ctx, periodID)
}

func (s *Service) persist(ctx context.Context, composed []Entry, actorID int64) ([]Entry, error) {
	out := make([]Entry, 0, len(composed))
	for _, entry := range composed {
		stored, err := s.repo.Insert(ctx, entry)
		if err != nil {
			return nil, err
		}
		out = append(out, stored)
		s.recordAudit(ctx, actorID, "journal.post", stored)
	}
	return out, nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, entry Entry) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "journal_entry",
		EntityID: strconv.FormatInt(entry.ID, 10),
		Meta: map[string]any{
			"journal_number": entry.JournalNumber,
			"reference_type": string(entry.ReferenceType),
			"reference_id":   entry.ReferenceID,
		},
	})
	if err != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}

func (s *Service) effectiveFor(ctx context.Context, projectID *int64) (settings.EffectiveSettings, error) {
	if projectID == nil {
		return s.settings.Effective(ctx, 0)
	}
	return s.settings.Effective(ctx, *projectID)
}

func (s *Service) lookupEmployee(ctx context.Context, employeeID int64) *labor.Employee {
	employee, err := s.labor.GetEmployee(ctx, employeeID)
	if err != nil {
		// missing employee falls back to the recorded amount
		return nil
	}
	return &employee
}
