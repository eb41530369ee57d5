package billing

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"
)

// ErrInvalidStatus indicates a mutation against a billing that is not PENDING.
var ErrInvalidStatus = errors.New("billing: billing is not editable in its current status")

// Service manages owner billings and exposes the cumulative billed figure
// consumed by revenue recognition.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService constructs a Service instance.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Get returns one billing with its lines.
func (s *Service) Get(ctx context.Context, id int64) (Billing, error) {
	return s.repo.GetBilling(ctx, id)
}

// AddLine appends a line to a pending billing and recomputes the stored
// totals inside the same transaction.
func (s *Service) AddLine(ctx context.Context, billingID int64, line BillingLine) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		b, err := tx.GetBillingForUpdate(ctx, billingID)
		if err != nil {
			return err
		}
		if b.Status != BillingStatusPending {
			return ErrInvalidStatus
		}
		line.BillingID = billingID
		if _, err := tx.InsertLine(ctx, line); err != nil {
			return err
		}
		return s.recomputeTotals(ctx, tx, billingID)
	})
}

// Approve moves a pending billing to APPROVED, making it visible to
// billed-to-date aggregations.
func (s *Service) Approve(ctx context.Context, billingID int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		b, err := tx.GetBillingForUpdate(ctx, billingID)
		if err != nil {
			return err
		}
		if b.Status != BillingStatusPending {
			return ErrInvalidStatus
		}
		return tx.UpdateStatus(ctx, billingID, BillingStatusApproved)
	})
}

func (s *Service) recomputeTotals(ctx context.Context, tx TxRepository, billingID int64) error {
	lines, err := tx.ListLines(ctx, billingID)
	if err != nil {
		return err
	}
	subtotal, held, released, total := totalsFromLines(lines)
	return tx.UpdateTotals(ctx, billingID, subtotal, held, released, total)
}

// BillingsToDate sums approved billings at gross for the project, restricted
// to the cutoff period set when one is given. Gross is the comparable figure
// against recognized revenue: retention held has been billed to the owner
// even though it is not yet collectible.
func (s *Service) BillingsToDate(ctx context.Context, projectID int64, periodIDs map[int64]struct{}) (decimal.Decimal, error) {
	billings, err := s.repo.ListApprovedByProject(ctx, projectID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, b := range billings {
		if periodIDs != nil {
			if _, ok := periodIDs[b.AccountingPeriodID]; !ok {
				continue
			}
		}
		total = total.Add(b.GrossAmount())
	}
	return total, nil
}
