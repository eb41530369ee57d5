package billing

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/jobledger/jobledger/internal/platform/db"
)

// ErrBillingNotFound indicates the billing does not exist.
var ErrBillingNotFound = errors.New("billing: billing not found")

// Repository encapsulates DB operations for project billings.
type Repository interface {
	GetBilling(ctx context.Context, id int64) (Billing, error)
	ListApprovedByProject(ctx context.Context, projectID int64) ([]Billing, error)
	ListApprovedByPeriod(ctx context.Context, periodID int64) ([]Billing, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a transaction.
type TxRepository interface {
	GetBillingForUpdate(ctx context.Context, id int64) (Billing, error)
	InsertLine(ctx context.Context, line BillingLine) (int64, error)
	ListLines(ctx context.Context, billingID int64) ([]BillingLine, error)
	UpdateTotals(ctx context.Context, billingID int64, subtotal, held, released, total decimal.Decimal) error
	UpdateStatus(ctx context.Context, billingID int64, status BillingStatus) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const billingColumns = `id, project_id, contract_id, accounting_period_id, number,
subtotal, retention_held, retention_released, total_amount, status, created_at, updated_at`

func scanBilling(row pgx.Row) (Billing, error) {
	var b Billing
	err := row.Scan(&b.ID, &b.ProjectID, &b.ContractID, &b.AccountingPeriodID, &b.Number,
		&b.Subtotal, &b.RetentionHeld, &b.RetentionReleased, &b.TotalAmount, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Billing{}, ErrBillingNotFound
		}
		return Billing{}, err
	}
	return b, nil
}

func (r *repository) GetBilling(ctx context.Context, id int64) (Billing, error) {
	b, err := scanBilling(r.db.QueryRow(ctx, `SELECT `+billingColumns+` FROM project_billings WHERE id=$1`, id))
	if err != nil {
		return Billing{}, err
	}
	rows, err := r.db.Query(ctx, `
SELECT id, billing_id, cost_code_id, cost_type_id, contract_amount, billing_amount, markup_percent,
       actual_billing_amount, retainage_percent, retention_held, retention_released, created_at, updated_at
FROM billing_line_items WHERE billing_id=$1 ORDER BY id ASC`, id)
	if err != nil {
		return Billing{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var l BillingLine
		if err := rows.Scan(&l.ID, &l.BillingID, &l.CostCodeID, &l.CostTypeID, &l.ContractAmount, &l.BillingAmount, &l.MarkupPercent,
			&l.ActualBillingAmount, &l.RetainagePercent, &l.RetentionHeld, &l.RetentionReleased, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return Billing{}, err
		}
		b.Lines = append(b.Lines, l)
	}
	return b, rows.Err()
}

func (r *repository) ListApprovedByProject(ctx context.Context, projectID int64) ([]Billing, error) {
	return r.list(ctx, `SELECT `+billingColumns+` FROM project_billings WHERE project_id=$1 AND status='APPROVED' ORDER BY id ASC`, projectID)
}

func (r *repository) ListApprovedByPeriod(ctx context.Context, periodID int64) ([]Billing, error) {
	return r.list(ctx, `SELECT `+billingColumns+` FROM project_billings WHERE accounting_period_id=$1 AND status='APPROVED' ORDER BY id ASC`, periodID)
}

func (r *repository) list(ctx context.Context, query string, args ...any) ([]Billing, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Billing
	for rows.Next() {
		b, err := scanBilling(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) GetBillingForUpdate(ctx context.Context, id int64) (Billing, error) {
	return scanBilling(r.tx.QueryRow(ctx, `SELECT `+billingColumns+` FROM project_billings WHERE id=$1 FOR UPDATE`, id))
}

func (r *txRepository) InsertLine(ctx context.Context, line BillingLine) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `
INSERT INTO billing_line_items (billing_id, cost_code_id, cost_type_id, contract_amount, billing_amount, markup_percent,
  actual_billing_amount, retainage_percent, retention_held, retention_released)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10) RETURNING id`,
		line.BillingID, line.CostCodeID, line.CostTypeID, line.ContractAmount, line.BillingAmount, line.MarkupPercent,
		line.ActualBillingAmount, line.RetainagePercent, line.RetentionHeld, line.RetentionReleased).Scan(&id)
	return id, err
}

func (r *txRepository) ListLines(ctx context.Context, billingID int64) ([]BillingLine, error) {
	rows, err := r.tx.Query(ctx, `
SELECT id, billing_id, cost_code_id, cost_type_id, contract_amount, billing_amount, markup_percent,
       actual_billing_amount, retainage_percent, retention_held, retention_released, created_at, updated_at
FROM billing_line_items WHERE billing_id=$1 ORDER BY id ASC`, billingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BillingLine
	for rows.Next() {
		var l BillingLine
		if err := rows.Scan(&l.ID, &l.BillingID, &l.CostCodeID, &l.CostTypeID, &l.ContractAmount, &l.BillingAmount, &l.MarkupPercent,
			&l.ActualBillingAmount, &l.RetainagePercent, &l.RetentionHeld, &l.RetentionReleased, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *txRepository) UpdateTotals(ctx context.Context, billingID int64, subtotal, held, released, total decimal.Decimal) error {
	cmd, err := r.tx.Exec(ctx, `
UPDATE project_billings SET subtotal=$2, retention_held=$3, retention_released=$4, total_amount=$5, updated_at=NOW()
WHERE id=$1`, billingID, subtotal, held, released, total)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrBillingNotFound
	}
	return nil
}

func (r *txRepository) UpdateStatus(ctx context.Context, billingID int64, status BillingStatus) error {
	_, err := r.tx.Exec(ctx, `UPDATE project_billings SET status=$2, updated_at=NOW() WHERE id=$1`, billingID, status)
	return err
}
