package forecast

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository encapsulates DB operations for buyout decisions and snapshots.
type Repository interface {
	IsBoughtOut(ctx context.Context, budgetLineID int64) (bool, error)
	UpsertBuyout(ctx context.Context, b BudgetLineBuyout) error
	ProjectsWithBuyouts(ctx context.Context, periodID int64) ([]int64, error)
	ListSnapshots(ctx context.Context, projectID, periodID int64) ([]Snapshot, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

// IsBoughtOut reports the sticky buyout status: true when any period's row
// flags the line as bought out.
func (r *repository) IsBoughtOut(ctx context.Context, budgetLineID int64) (bool, error) {
	var out bool
	err := r.db.QueryRow(ctx, `
SELECT EXISTS (SELECT 1 FROM budget_line_buyouts WHERE budget_line_id=$1 AND is_bought_out)`, budgetLineID).Scan(&out)
	return out, err
}

func (r *repository) UpsertBuyout(ctx context.Context, b BudgetLineBuyout) error {
	_, err := r.db.Exec(ctx, `
INSERT INTO budget_line_buyouts (project_id, budget_line_id, accounting_period_id, is_bought_out, buyout_date, buyout_amount)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (budget_line_id, accounting_period_id)
DO UPDATE SET is_bought_out=EXCLUDED.is_bought_out, buyout_date=EXCLUDED.buyout_date,
  buyout_amount=EXCLUDED.buyout_amount, updated_at=NOW()`,
		b.ProjectID, b.BudgetLineID, b.AccountingPeriodID, b.IsBoughtOut, b.BuyoutDate, b.BuyoutAmount)
	return err
}

func (r *repository) ProjectsWithBuyouts(ctx context.Context, periodID int64) ([]int64, error) {
	rows, err := r.db.Query(ctx, `
SELECT DISTINCT project_id FROM budget_line_buyouts WHERE accounting_period_id=$1 ORDER BY project_id`, periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *repository) ListSnapshots(ctx context.Context, projectID, periodID int64) ([]Snapshot, error) {
	rows, err := r.db.Query(ctx, `
SELECT id, project_id, accounting_period_id, budget_line_id, budgeted_amount, committed_amount,
       commitment_change_orders_amount, total_committed_amount, actuals_amount, etc_amount, eac_amount,
       buyout_savings, created_at
FROM buyout_forecasting_snapshots WHERE project_id=$1 AND accounting_period_id=$2 ORDER BY budget_line_id`, projectID, periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Snapshot
	for rows.Next() {
		var s Snapshot
		if err := rows.Scan(&s.ID, &s.ProjectID, &s.AccountingPeriodID, &s.BudgetLineID, &s.BudgetedAmount, &s.CommittedAmount,
			&s.CommitmentChangeOrdersAmount, &s.TotalCommittedAmount, &s.ActualsAmount, &s.ETCAmount, &s.EACAmount,
			&s.BuyoutSavings, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
