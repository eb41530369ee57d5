package ap

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/jobledger/jobledger/internal/platform/db"
)

// ErrInvoiceNotFound indicates the invoice does not exist.
var ErrInvoiceNotFound = errors.New("ap: invoice not found")

// Repository encapsulates DB operations for AP invoices.
type Repository interface {
	GetInvoice(ctx context.Context, id int64) (Invoice, error)
	ListApprovedByProject(ctx context.Context, projectID int64) ([]Invoice, error)
	ListApprovedByPeriod(ctx context.Context, periodID int64) ([]Invoice, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a transaction. Line
// mutations and the header recomputation must share one transaction.
type TxRepository interface {
	GetInvoiceForUpdate(ctx context.Context, id int64) (Invoice, error)
	InsertLine(ctx context.Context, line InvoiceLine) (int64, error)
	DeleteLine(ctx context.Context, lineID int64) error
	ListLines(ctx context.Context, invoiceID int64) ([]InvoiceLine, error)
	UpdateTotals(ctx context.Context, invoiceID int64, subtotal, held, released, total decimal.Decimal) error
	UpdateStatus(ctx context.Context, invoiceID int64, status InvoiceStatus, actorID int64) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const invoiceColumns = `id, vendor_id, project_id, commitment_id, accounting_period_id, number,
subtotal, retention_held, retention_released, total_amount, status, approved_at, approved_by, created_at, updated_at`

func scanInvoice(row pgx.Row) (Invoice, error) {
	var i Invoice
	err := row.Scan(&i.ID, &i.VendorID, &i.ProjectID, &i.CommitmentID, &i.AccountingPeriodID, &i.Number,
		&i.Subtotal, &i.RetentionHeld, &i.RetentionReleased, &i.TotalAmount, &i.Status, &i.ApprovedAt, &i.ApprovedBy, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Invoice{}, ErrInvoiceNotFound
		}
		return Invoice{}, err
	}
	return i, nil
}

const invoiceLineColumns = `id, invoice_id, cost_code_id, cost_type_id, total_amount, retention_held, retention_released, created_at, updated_at`

func scanInvoiceLines(rows pgx.Rows) ([]InvoiceLine, error) {
	defer rows.Close()
	var out []InvoiceLine
	for rows.Next() {
		var l InvoiceLine
		if err := rows.Scan(&l.ID, &l.InvoiceID, &l.CostCodeID, &l.CostTypeID, &l.TotalAmount, &l.RetentionHeld, &l.RetentionReleased, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *repository) GetInvoice(ctx context.Context, id int64) (Invoice, error) {
	invoice, err := scanInvoice(r.db.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM ap_invoices WHERE id=$1`, id))
	if err != nil {
		return Invoice{}, err
	}
	rows, err := r.db.Query(ctx, `SELECT `+invoiceLineColumns+` FROM ap_invoice_line_items WHERE invoice_id=$1 ORDER BY id ASC`, id)
	if err != nil {
		return Invoice{}, err
	}
	invoice.Lines, err = scanInvoiceLines(rows)
	return invoice, err
}

func (r *repository) ListApprovedByProject(ctx context.Context, projectID int64) ([]Invoice, error) {
	return r.listInvoices(ctx, `SELECT `+invoiceColumns+` FROM ap_invoices WHERE project_id=$1 AND status='APPROVED' ORDER BY id ASC`, projectID)
}

func (r *repository) ListApprovedByPeriod(ctx context.Context, periodID int64) ([]Invoice, error) {
	return r.listInvoices(ctx, `SELECT `+invoiceColumns+` FROM ap_invoices WHERE accounting_period_id=$1 AND status='APPROVED' ORDER BY id ASC`, periodID)
}

func (r *repository) listInvoices(ctx context.Context, query string, args ...any) ([]Invoice, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Invoice
	for rows.Next() {
		i, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	// Composition allocates by line and the cost aggregator filters by
	// line, so listed invoices must carry their lines just like GetInvoice.
	ids := make([]int64, len(out))
	for i, invoice := range out {
		ids[i] = invoice.ID
	}
	lineRows, err := r.db.Query(ctx, `SELECT `+invoiceLineColumns+` FROM ap_invoice_line_items WHERE invoice_id = ANY($1) ORDER BY invoice_id, id`, ids)
	if err != nil {
		return nil, err
	}
	lines, err := scanInvoiceLines(lineRows)
	if err != nil {
		return nil, err
	}
	return attachLines(out, lines), nil
}

// attachLines distributes line items onto their parent invoices.
func attachLines(invoices []Invoice, lines []InvoiceLine) []Invoice {
	byInvoice := make(map[int64][]InvoiceLine, len(invoices))
	for _, l := range lines {
		byInvoice[l.InvoiceID] = append(byInvoice[l.InvoiceID], l)
	}
	for i := range invoices {
		invoices[i].Lines = byInvoice[invoices[i].ID]
	}
	return invoices
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) GetInvoiceForUpdate(ctx context.Context, id int64) (Invoice, error) {
	return scanInvoice(r.tx.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM ap_invoices WHERE id=$1 FOR UPDATE`, id))
}

func (r *txRepository) InsertLine(ctx context.Context, line InvoiceLine) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `
INSERT INTO ap_invoice_line_items (invoice_id, cost_code_id, cost_type_id, total_amount, retention_held, retention_released)
VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
		line.InvoiceID, line.CostCodeID, line.CostTypeID, line.TotalAmount, line.RetentionHeld, line.RetentionReleased).Scan(&id)
	return id, err
}

func (r *txRepository) DeleteLine(ctx context.Context, lineID int64) error {
	cmd, err := r.tx.Exec(ctx, `DELETE FROM ap_invoice_line_items WHERE id=$1`, lineID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

func (r *txRepository) ListLines(ctx context.Context, invoiceID int64) ([]InvoiceLine, error) {
	rows, err := r.tx.Query(ctx, `SELECT `+invoiceLineColumns+` FROM ap_invoice_line_items WHERE invoice_id=$1 ORDER BY id ASC`, invoiceID)
	if err != nil {
		return nil, err
	}
	return scanInvoiceLines(rows)
}

func (r *txRepository) UpdateTotals(ctx context.Context, invoiceID int64, subtotal, held, released, total decimal.Decimal) error {
	cmd, err := r.tx.Exec(ctx, `
UPDATE ap_invoices SET subtotal=$2, retention_held=$3, retention_released=$4, total_amount=$5, updated_at=NOW()
WHERE id=$1`, invoiceID, subtotal, held, released, total)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

func (r *txRepository) UpdateStatus(ctx context.Context, invoiceID int64, status InvoiceStatus, actorID int64) error {
	var err error
	if status == InvoiceStatusApproved {
		_, err = r.tx.Exec(ctx, `UPDATE ap_invoices SET status=$2, approved_at=NOW(), approved_by=$3, updated_at=NOW() WHERE id=$1`, invoiceID, status, actorID)
	} else {
		_, err = r.tx.Exec(ctx, `UPDATE ap_invoices SET status=$2, updated_at=NOW() WHERE id=$1`, invoiceID, status)
	}
	return err
}
