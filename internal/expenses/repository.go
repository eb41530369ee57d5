package expenses

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrExpenseNotFound indicates the expense does not exist.
var ErrExpenseNotFound = errors.New("expenses: expense not found")

// Repository encapsulates DB operations for project expenses.
type Repository interface {
	GetExpense(ctx context.Context, id int64) (Expense, error)
	ListApprovedByProject(ctx context.Context, projectID int64) ([]Expense, error)
	ListApprovedByPeriod(ctx context.Context, periodID int64) ([]Expense, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const expenseColumns = `id, project_id, cost_code_id, cost_type_id, accounting_period_id, amount, description, status, created_at, updated_at`

func (r *repository) GetExpense(ctx context.Context, id int64) (Expense, error) {
	var e Expense
	err := r.db.QueryRow(ctx, `SELECT `+expenseColumns+` FROM project_expenses WHERE id=$1`, id).
		Scan(&e.ID, &e.ProjectID, &e.CostCodeID, &e.CostTypeID, &e.AccountingPeriodID, &e.Amount, &e.Description, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Expense{}, ErrExpenseNotFound
		}
		return Expense{}, err
	}
	return e, nil
}

func (r *repository) ListApprovedByProject(ctx context.Context, projectID int64) ([]Expense, error) {
	return r.list(ctx, `SELECT `+expenseColumns+` FROM project_expenses WHERE project_id=$1 AND status='APPROVED' ORDER BY id ASC`, projectID)
}

func (r *repository) ListApprovedByPeriod(ctx context.Context, periodID int64) ([]Expense, error) {
	return r.list(ctx, `SELECT `+expenseColumns+` FROM project_expenses WHERE accounting_period_id=$1 AND status='APPROVED' ORDER BY id ASC`, periodID)
}

func (r *repository) list(ctx context.Context, query string, args ...any) ([]Expense, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Expense
	for rows.Next() {
		var e Expense
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.CostCodeID, &e.CostTypeID, &e.AccountingPeriodID, &e.Amount, &e.Description, &e.Status, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
