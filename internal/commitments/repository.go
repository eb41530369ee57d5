package commitments

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/jobledger/jobledger/internal/platform/db"
)

// ErrCommitmentNotFound indicates the commitment does not exist.
var ErrCommitmentNotFound = errors.New("commitments: commitment not found")

// Repository encapsulates DB operations for commitments.
type Repository interface {
	GetCommitment(ctx context.Context, id int64) (Commitment, error)
	ListByProject(ctx context.Context, projectID int64) ([]Commitment, error)
	ListItemsByProject(ctx context.Context, projectID int64) ([]CommitmentItem, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a transaction. Item
// mutations and the derived-total refresh must share one transaction.
type TxRepository interface {
	InsertItem(ctx context.Context, item CommitmentItem) (int64, error)
	UpdateItemStatus(ctx context.Context, itemID int64, status CommitmentStatus) error
	SumActiveItems(ctx context.Context, commitmentID int64, changeOrder bool) (decimal.Decimal, error)
	UpdateOriginalAmount(ctx context.Context, commitmentID int64, amount decimal.Decimal) error
	UpdateChangeOrderTotal(ctx context.Context, changeOrderID int64, amount decimal.Decimal) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) GetCommitment(ctx context.Context, id int64) (Commitment, error) {
	var c Commitment
	err := r.db.QueryRow(ctx, `
SELECT id, project_id, vendor_id, original_amount, status, created_at, updated_at
FROM commitments WHERE id=$1`, id).
		Scan(&c.ID, &c.ProjectID, &c.VendorID, &c.OriginalAmount, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Commitment{}, ErrCommitmentNotFound
		}
		return Commitment{}, err
	}
	return c, nil
}

func (r *repository) ListByProject(ctx context.Context, projectID int64) ([]Commitment, error) {
	rows, err := r.db.Query(ctx, `
SELECT id, project_id, vendor_id, original_amount, status, created_at, updated_at
FROM commitments WHERE project_id=$1 ORDER BY id ASC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Commitment
	for rows.Next() {
		var c Commitment
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.VendorID, &c.OriginalAmount, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repository) ListItemsByProject(ctx context.Context, projectID int64) ([]CommitmentItem, error) {
	rows, err := r.db.Query(ctx, `
SELECT i.id, i.commitment_id, i.cost_code_id, i.cost_type_id, i.total_amount, i.is_change_order, i.change_order_id, i.status, i.created_at, i.updated_at
FROM commitment_items i
JOIN commitments c ON c.id = i.commitment_id
WHERE c.project_id=$1 AND c.status='ACTIVE'
ORDER BY i.id ASC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CommitmentItem
	for rows.Next() {
		var i CommitmentItem
		if err := rows.Scan(&i.ID, &i.CommitmentID, &i.CostCodeID, &i.CostTypeID, &i.TotalAmount, &i.IsChangeOrder, &i.ChangeOrderID, &i.Status, &i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, i)
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

func (r *txRepository) InsertItem(ctx context.Context, item CommitmentItem) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `
INSERT INTO commitment_items (commitment_id, cost_code_id, cost_type_id, total_amount, is_change_order, change_order_id, status)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`,
		item.CommitmentID, item.CostCodeID, item.CostTypeID, item.TotalAmount, item.IsChangeOrder, item.ChangeOrderID, item.Status).Scan(&id)
	return id, err
}

func (r *txRepository) UpdateItemStatus(ctx context.Context, itemID int64, status CommitmentStatus) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE commitment_items SET status=$2, updated_at=NOW() WHERE id=$1`, itemID, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrCommitmentNotFound
	}
	return nil
}

func (r *txRepository) SumActiveItems(ctx context.Context, commitmentID int64, changeOrder bool) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.tx.QueryRow(ctx, `
SELECT COALESCE(SUM(total_amount), 0) FROM commitment_items
WHERE commitment_id=$1 AND status='ACTIVE' AND is_change_order=$2`, commitmentID, changeOrder).Scan(&total)
	return total, err
}

func (r *txRepository) UpdateOriginalAmount(ctx context.Context, commitmentID int64, amount decimal.Decimal) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE commitments SET original_amount=$2, updated_at=NOW() WHERE id=$1`, commitmentID, amount)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrCommitmentNotFound
	}
	return nil
}

func (r *txRepository) UpdateChangeOrderTotal(ctx context.Context, changeOrderID int64, amount decimal.Decimal) error {
	_, err := r.tx.Exec(ctx, `UPDATE commitment_change_orders SET total_amount=$2, updated_at=NOW() WHERE id=$1`, changeOrderID, amount)
	return err
}
