package ap

import (
	"context"
	"errors"
)

// ErrInvalidStatus indicates a transition not allowed by the invoice lifecycle.
var ErrInvalidStatus = errors.New("ap: invalid status for operation")

// Service maintains AP invoices. Every line mutation recomputes the header
// totals inside the same transaction.
type Service struct {
	repo Repository
}

// NewService constructs a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns an invoice with its lines.
func (s *Service) Get(ctx context.Context, id int64) (Invoice, error) {
	return s.repo.GetInvoice(ctx, id)
}

// AddLine appends a line to a pending invoice and refreshes header totals.
func (s *Service) AddLine(ctx context.Context, line InvoiceLine) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		invoice, err := tx.GetInvoiceForUpdate(ctx, line.InvoiceID)
		if err != nil {
			return err
		}
		if invoice.Status != InvoiceStatusPending {
			return ErrInvalidStatus
		}
		if _, err := tx.InsertLine(ctx, line); err != nil {
			return err
		}
		return recomputeTotals(ctx, tx, line.InvoiceID)
	})
}

// RemoveLine deletes a line from a pending invoice and refreshes header totals.
func (s *Service) RemoveLine(ctx context.Context, invoiceID, lineID int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		invoice, err := tx.GetInvoiceForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if invoice.Status != InvoiceStatusPending {
			return ErrInvalidStatus
		}
		if err := tx.DeleteLine(ctx, lineID); err != nil {
			return err
		}
		return recomputeTotals(ctx, tx, invoiceID)
	})
}

// Approve moves a pending invoice into the cost base.
func (s *Service) Approve(ctx context.Context, invoiceID, actorID int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		invoice, err := tx.GetInvoiceForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if invoice.Status != InvoiceStatusPending {
			return ErrInvalidStatus
		}
		return tx.UpdateStatus(ctx, invoiceID, InvoiceStatusApproved, actorID)
	})
}

// Cancel voids a pending invoice.
func (s *Service) Cancel(ctx context.Context, invoiceID, actorID int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		invoice, err := tx.GetInvoiceForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if invoice.Status == InvoiceStatusCancelled {
			return ErrInvalidStatus
		}
		return tx.UpdateStatus(ctx, invoiceID, InvoiceStatusCancelled, actorID)
	})
}

func recomputeTotals(ctx context.Context, tx TxRepository, invoiceID int64) error {
	lines, err := tx.ListLines(ctx, invoiceID)
	if err != nil {
		return err
	}
	subtotal, held, released, total := totalsFromLines(lines)
	return tx.UpdateTotals(ctx, invoiceID, subtotal, held, released, total)
}
