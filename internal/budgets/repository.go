package budgets

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrBudgetNotFound indicates the budget does not exist.
var ErrBudgetNotFound = errors.New("budgets: budget not found")

// Repository encapsulates DB operations for budgets and change orders.
type Repository interface {
	ListOriginalBudgets(ctx context.Context, projectID int64) ([]Budget, error)
	ListBudgetLines(ctx context.Context, budgetID int64) ([]BudgetLine, error)
	GetBudgetLine(ctx context.Context, id int64) (BudgetLine, error)
	ListApprovedICOLines(ctx context.Context, projectID int64) ([]InternalChangeOrderLine, error)
	ListApprovedECOs(ctx context.Context, projectID int64) ([]ExternalChangeOrder, error)
	ListForecastPendingChangeOrders(ctx context.Context, projectID int64) ([]PendingChangeOrder, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) ListOriginalBudgets(ctx context.Context, projectID int64) ([]Budget, error) {
	rows, err := r.db.Query(ctx, `
SELECT id, project_id, accounting_period_id, type, status, created_at, updated_at
FROM budgets WHERE project_id=$1 AND type='ORIGINAL' ORDER BY created_at DESC, id DESC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Budget
	for rows.Next() {
		var b Budget
		if err := rows.Scan(&b.ID, &b.ProjectID, &b.AccountingPeriodID, &b.Type, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *repository) ListBudgetLines(ctx context.Context, budgetID int64) ([]BudgetLine, error) {
	rows, err := r.db.Query(ctx, `
SELECT id, budget_id, cost_code_id, cost_type_id, amount, status, created_at, updated_at
FROM budget_lines WHERE budget_id=$1 ORDER BY id ASC`, budgetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BudgetLine
	for rows.Next() {
		var l BudgetLine
		if err := rows.Scan(&l.ID, &l.BudgetID, &l.CostCodeID, &l.CostTypeID, &l.Amount, &l.Status, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *repository) GetBudgetLine(ctx context.Context, id int64) (BudgetLine, error) {
	var l BudgetLine
	err := r.db.QueryRow(ctx, `
SELECT id, budget_id, cost_code_id, cost_type_id, amount, status, created_at, updated_at
FROM budget_lines WHERE id=$1`, id).
		Scan(&l.ID, &l.BudgetID, &l.CostCodeID, &l.CostTypeID, &l.Amount, &l.Status, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return BudgetLine{}, ErrBudgetNotFound
		}
		return BudgetLine{}, err
	}
	return l, nil
}

func (r *repository) ListApprovedICOLines(ctx context.Context, projectID int64) ([]InternalChangeOrderLine, error) {
	rows, err := r.db.Query(ctx, `
SELECT l.id, l.internal_change_order_id, l.cost_code_id, l.cost_type_id, l.change_amount
FROM internal_change_order_lines l
JOIN internal_change_orders o ON o.id = l.internal_change_order_id
WHERE o.project_id=$1 AND o.status='APPROVED'
ORDER BY l.id ASC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []InternalChangeOrderLine
	for rows.Next() {
		var l InternalChangeOrderLine
		if err := rows.Scan(&l.ID, &l.InternalChangeOrderID, &l.CostCodeID, &l.CostTypeID, &l.ChangeAmount); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *repository) ListApprovedECOs(ctx context.Context, projectID int64) ([]ExternalChangeOrder, error) {
	rows, err := r.db.Query(ctx, `
SELECT id, project_id, contract_id, total_contract_change_amount, total_budget_change_amount, status, created_at, updated_at
FROM external_change_orders WHERE project_id=$1 AND status='APPROVED' ORDER BY id ASC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ExternalChangeOrder
	for rows.Next() {
		var o ExternalChangeOrder
		if err := rows.Scan(&o.ID, &o.ProjectID, &o.ContractID, &o.TotalContractChangeAmount, &o.TotalBudgetChangeAmount, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *repository) ListForecastPendingChangeOrders(ctx context.Context, projectID int64) ([]PendingChangeOrder, error) {
	rows, err := r.db.Query(ctx, `
SELECT id, project_id, accounting_period_id, external_id, cost_amount, revenue_amount, is_included_in_forecast, status, created_at, updated_at
FROM pending_change_orders WHERE project_id=$1 AND is_included_in_forecast ORDER BY id ASC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PendingChangeOrder
	for rows.Next() {
		var o PendingChangeOrder
		if err := rows.Scan(&o.ID, &o.ProjectID, &o.AccountingPeriodID, &o.ExternalID, &o.CostAmount, &o.RevenueAmount, &o.IsIncludedInForecast, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
