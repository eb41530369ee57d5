package journal

import (
	"context"
	"fmt"

	"github.com/jobledger/jobledger/internal/ap"
	"github.com/jobledger/jobledger/internal/billing"
	"github.com/jobledger/jobledger/internal/settings"
)

// ValidationResult collects every problem found in a period's entries.
// Failures are messages, never errors: the caller decides whether they
// block anything.
type ValidationResult struct {
	IsBalanced bool     `json:"is_balanced"`
	Errors     []string `json:"errors"`
}

// InvoicePeriodSource lists the period's approved AP invoices.
type InvoicePeriodSource interface {
	ListApprovedByPeriod(ctx context.Context, periodID int64) ([]ap.Invoice, error)
}

// BillingPeriodSource lists the period's approved billings.
type BillingPeriodSource interface {
	ListApprovedByPeriod(ctx context.Context, periodID int64) ([]billing.Billing, error)
}

// SettingsSource resolves effective ledger settings per project.
type SettingsSource interface {
	Effective(ctx context.Context, projectID int64) (settings.EffectiveSettings, error)
}

// Validator checks a period's journal entries for balance and completeness.
type Validator struct {
	repo     Repository
	invoices InvoicePeriodSource
	billings BillingPeriodSource
	settings SettingsSource
}

// NewValidator constructs a Validator.
func NewValidator(repo Repository, invoices InvoicePeriodSource, billings BillingPeriodSource, settingsSrc SettingsSource) *Validator {
	return &Validator{repo: repo, invoices: invoices, billings: billings, settings: settingsSrc}
}

// Validate checks the period's persisted entries plus any proposed entries
// not yet stored (a close validates its freshly composed set this way).
func (v *Validator) Validate(ctx context.Context, periodID int64, proposed []Entry) (ValidationResult, error) {
	existing, err := v.repo.ListByPeriod(ctx, periodID)
	if err != nil {
		return ValidationResult{}, err
	}
	entries := append(existing, proposed...)

	result := ValidationResult{IsBalanced: true}

	byReference := make(map[ReferenceType]map[int64]Entry, len(entries))
	for _, entry := range entries {
		if entry.Status == EntryStatusReversed {
			continue
		}
		if !entry.IsBalanced(BalanceTolerance) {
			result.Errors = append(result.Errors, fmt.Sprintf(
				"entry %s (%s %d) is imbalanced: debits %s, credits %s",
				entry.JournalNumber, entry.ReferenceType, entry.ReferenceID,
				entry.TotalDebits().StringFixed(2), entry.TotalCredits().StringFixed(2)))
		}
		if byReference[entry.ReferenceType] == nil {
			byReference[entry.ReferenceType] = make(map[int64]Entry)
		}
		byReference[entry.ReferenceType][entry.ReferenceID] = entry
	}

	if err := v.checkInvoices(ctx, periodID, byReference, &result); err != nil {
		return ValidationResult{}, err
	}
	if err := v.checkBillings(ctx, periodID, byReference, &result); err != nil {
		return ValidationResult{}, err
	}

	result.IsBalanced = len(result.Errors) == 0
	return result, nil
}

func (v *Validator) checkInvoices(ctx context.Context, periodID int64, byReference map[ReferenceType]map[int64]Entry, result *ValidationResult) error {
	invoices, err := v.invoices.ListApprovedByPeriod(ctx, periodID)
	if err != nil {
		return err
	}
	for _, invoice := range invoices {
		st, err := v.effectiveFor(ctx, invoice.ProjectID)
		if err != nil {
			return err
		}
		if st.APInvoiceIntegrationMethod != settings.IntegrationMethodInvoice {
			continue
		}
		entry, ok := byReference[RefAPInvoice][invoice.ID]
		if !ok {
			result.Errors = append(result.Errors, fmt.Sprintf("AP invoice %s has no journal entry", invoice.Number))
			continue
		}
		if diff := entry.TotalDebits().Sub(invoice.TotalAmount).Abs(); diff.GreaterThan(BalanceTolerance) {
			result.Errors = append(result.Errors, fmt.Sprintf(
				"AP invoice %s entry total %s does not match net amount %s",
				invoice.Number, entry.TotalDebits().StringFixed(2), invoice.TotalAmount.StringFixed(2)))
		}
		if invoice.RetentionHeld.IsPositive() {
			if _, ok := byReference[RefAPInvoiceRetainage][invoice.ID]; !ok {
				result.Errors = append(result.Errors, fmt.Sprintf("AP invoice %s is missing its retainage entry", invoice.Number))
			}
		}
	}
	return nil
}

func (v *Validator) checkBillings(ctx context.Context, periodID int64, byReference map[ReferenceType]map[int64]Entry, result *ValidationResult) error {
	billings, err := v.billings.ListApprovedByPeriod(ctx, periodID)
	if err != nil {
		return err
	}
	for _, b := range billings {
		st, err := v.settings.Effective(ctx, b.ProjectID)
		if err != nil {
			return err
		}
		if st.ARInvoiceIntegrationMethod != settings.IntegrationMethodInvoice {
			continue
		}
		entry, ok := byReference[RefBilling][b.ID]
		if !ok {
			result.Errors = append(result.Errors, fmt.Sprintf("billing %s has no journal entry", b.Number))
			continue
		}
		if diff := entry.TotalDebits().Sub(b.TotalAmount).Abs(); diff.GreaterThan(BalanceTolerance) {
			result.Errors = append(result.Errors, fmt.Sprintf(
				"billing %s entry total %s does not match net amount %s",
				b.Number, entry.TotalDebits().StringFixed(2), b.TotalAmount.StringFixed(2)))
		}
		if b.RetentionHeld.IsPositive() {
			if _, ok := byReference[RefBillingRetainage][b.ID]; !ok {
				result.Errors = append(result.Errors, fmt.Sprintf("billing %s is missing its retainage entry", b.Number))
			}
		}
	}
	return nil
}

func (v *Validator) effectiveFor(ctx context.Context, projectID *int64) (settings.EffectiveSettings, error) {
	if projectID == nil {
		return v.settings.Effective(ctx, 0)
	}
	return v.settings.Effective(ctx, *projectID)
}
