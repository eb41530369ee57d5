package close

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jobledger/jobledger/internal/forecast"
	"github.com/jobledger/jobledger/internal/journal"
	"github.com/jobledger/jobledger/internal/periods"
	"github.com/jobledger/jobledger/internal/platform/db"
)

// Repository persists the whole close sequence in one transaction. The
// period and journal queries are duplicated from their home packages
// because they must run against this transaction's context.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository using the provided pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx executes fn inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
	if r == nil || r.pool == nil {
		return fmt.Errorf("close: repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, tx)
	})
}

// LoadPeriodForUpdate locks the period row for the rest of the transaction.
func (r *Repository) LoadPeriodForUpdate(ctx context.Context, tx pgx.Tx, id int64) (periods.Period, error) {
	var p periods.Period
	err := tx.QueryRow(ctx, `
SELECT id, year, month, status, closed_at, closed_by, created_at, updated_at
FROM accounting_periods WHERE id=$1 FOR UPDATE`, id).
		Scan(&p.ID, &p.Year, &p.Month, &p.Status, &p.ClosedAt, &p.ClosedBy, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return periods.Period{}, periods.ErrPeriodNotFound
	}
	return p, err
}

// MarkClosed flips the period to closed and stamps who closed it.
func (r *Repository) MarkClosed(ctx context.Context, tx pgx.Tx, id int64, closedBy int64, closedAt time.Time) error {
	_, err := tx.Exec(ctx, `
UPDATE accounting_periods SET status=$2, closed_at=$3, closed_by=$4, updated_at=NOW() WHERE id=$1`,
		id, periods.PeriodStatusClosed, closedAt, closedBy)
	return err
}

// MarkOpen flips the period back to open and clears the close stamp.
func (r *Repository) MarkOpen(ctx context.Context, tx pgx.Tx, id int64) error {
	_, err := tx.Exec(ctx, `
UPDATE accounting_periods SET status=$2, closed_at=NULL, closed_by=NULL, updated_at=NOW() WHERE id=$1`,
		id, periods.PeriodStatusOpen)
	return err
}

// CountOpen counts open periods within the transaction.
func (r *Repository) CountOpen(ctx context.Context, tx pgx.Tx) (int, error) {
	var n int
	err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM accounting_periods WHERE status=$1`, periods.PeriodStatusOpen).Scan(&n)
	return n, err
}

// NextChronologicalPeriod returns the earliest period after (year, month),
// locked for update. ok is false when none exists.
func (r *Repository) NextChronologicalPeriod(ctx context.Context, tx pgx.Tx, year, month int) (periods.Period, bool, error) {
	var p periods.Period
	err := tx.QueryRow(ctx, `
SELECT id, year, month, status, closed_at, closed_by, created_at, updated_at
FROM accounting_periods
WHERE (year > $1) OR (year = $1 AND month > $2)
ORDER BY year ASC, month ASC LIMIT 1 FOR UPDATE`, year, month).
		Scan(&p.ID, &p.Year, &p.Month, &p.Status, &p.ClosedAt, &p.ClosedBy, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return periods.Period{}, false, nil
	}
	if err != nil {
		return periods.Period{}, false, err
	}
	return p, true, nil
}

// InsertJournalEntry stores one composed entry with its lines. Returns
// created=false when an entry for the same reference already exists.
func (r *Repository) InsertJournalEntry(ctx context.Context, tx pgx.Tx, entry journal.Entry) (bool, error) {
	var entryID int64
	err := tx.QueryRow(ctx, `
INSERT INTO journal_entries (journal_number, accounting_period_id, project_id, entry_date, description, reference_type, reference_id, status)
VALUES ('JE-' || to_char(nextval('journal_number_seq'), 'FM000000'), $1, $2, $3, $4, $5, $6, $7)
RETURNING id`,
		entry.AccountingPeriodID, entry.ProjectID, entry.EntryDate, entry.Description,
		entry.ReferenceType, entry.ReferenceID, entry.Status).Scan(&entryID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return false, nil
		}
		return false, err
	}
	for _, line := range entry.Lines {
		_, err := tx.Exec(ctx, `
INSERT INTO journal_entry_lines (entry_id, line_number, gl_account_id, description, debit_amount, credit_amount)
VALUES ($1,$2,$3,$4,$5,$6)`,
			entryID, line.LineNumber, line.GLAccountID, line.Description, line.DebitAmount, line.CreditAmount)
		if err != nil {
			return false, fmt.Errorf("close: insert entry line %d: %w", line.LineNumber, err)
		}
	}
	return true, nil
}

// InsertSnapshot stores one forecast snapshot. Re-closing a period finds
// the rows already present and leaves them alone.
func (r *Repository) InsertSnapshot(ctx context.Context, tx pgx.Tx, snap forecast.Snapshot) (bool, error) {
	tag, err := tx.Exec(ctx, `
INSERT INTO buyout_forecasting_snapshots (project_id, accounting_period_id, budget_line_id, budgeted_amount,
  committed_amount, commitment_change_orders_amount, total_committed_amount, actuals_amount, etc_amount, eac_amount, buyout_savings)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (project_id, accounting_period_id, budget_line_id) DO NOTHING`,
		snap.ProjectID, snap.AccountingPeriodID, snap.BudgetLineID, snap.BudgetedAmount,
		snap.CommittedAmount, snap.CommitmentChangeOrdersAmount, snap.TotalCommittedAmount,
		snap.ActualsAmount, snap.ETCAmount, snap.EACAmount, snap.BuyoutSavings)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteSnapshots removes every forecast snapshot for the period.
func (r *Repository) DeleteSnapshots(ctx context.Context, tx pgx.Tx, periodID int64) (int64, error) {
	tag, err := tx.Exec(ctx, `DELETE FROM buyout_forecasting_snapshots WHERE accounting_period_id=$1`, periodID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
