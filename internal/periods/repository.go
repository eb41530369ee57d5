package periods

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrPeriodNotFound indicates the requested period does not exist.
	ErrPeriodNotFound = errors.New("periods: period not found")
	// ErrDuplicatePeriod indicates a (year, month) collision.
	ErrDuplicatePeriod = errors.New("periods: period already exists")
)

// Repository encapsulates DB operations for accounting periods.
type Repository interface {
	List(ctx context.Context) ([]Period, error)
	GetByID(ctx context.Context, id int64) (Period, error)
	Insert(ctx context.Context, year, month int, status PeriodStatus) (Period, error)
	CountOpen(ctx context.Context) (int, error)
	CountDependents(ctx context.Context, id int64) (int, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const periodColumns = `id, year, month, status, closed_at, closed_by, created_at, updated_at`

func scanPeriod(row pgx.Row) (Period, error) {
	var p Period
	err := row.Scan(&p.ID, &p.Year, &p.Month, &p.Status, &p.ClosedAt, &p.ClosedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, ErrPeriodNotFound
		}
		return Period{}, err
	}
	return p, nil
}

func (r *repository) List(ctx context.Context) ([]Period, error) {
	rows, err := r.db.Query(ctx, `SELECT `+periodColumns+` FROM accounting_periods ORDER BY year ASC, month ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) GetByID(ctx context.Context, id int64) (Period, error) {
	return scanPeriod(r.db.QueryRow(ctx, `SELECT `+periodColumns+` FROM accounting_periods WHERE id=$1`, id))
}

func (r *repository) Insert(ctx context.Context, year, month int, status PeriodStatus) (Period, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO accounting_periods (year, month, status)
VALUES ($1,$2,$3) RETURNING `+periodColumns, year, month, status)
	p, err := scanPeriod(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Period{}, ErrDuplicatePeriod
		}
		return Period{}, err
	}
	return p, nil
}

func (r *repository) CountOpen(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM accounting_periods WHERE status='OPEN'`).Scan(&n)
	return n, err
}

// CountDependents reports how many ledger rows reference the period. Used to
// refuse deleting a period that already carries activity.
func (r *repository) CountDependents(ctx context.Context, id int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
SELECT (SELECT COUNT(*) FROM ap_invoices WHERE accounting_period_id=$1)
     + (SELECT COUNT(*) FROM labor_costs WHERE accounting_period_id=$1)
     + (SELECT COUNT(*) FROM project_expenses WHERE accounting_period_id=$1)
     + (SELECT COUNT(*) FROM project_billings WHERE accounting_period_id=$1)
     + (SELECT COUNT(*) FROM journal_entries WHERE accounting_period_id=$1)`, id).Scan(&n)
	return n, err
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM accounting_periods WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrPeriodNotFound
	}
	return nil
}
