package labor

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrCostNotFound indicates the labor cost does not exist.
	ErrCostNotFound = errors.New("labor: cost not found")
	// ErrEmployeeNotFound indicates the employee does not exist.
	ErrEmployeeNotFound = errors.New("labor: employee not found")
)

// Repository encapsulates DB operations for labor costs.
type Repository interface {
	GetCost(ctx context.Context, id int64) (Cost, error)
	ListActiveByProject(ctx context.Context, projectID int64) ([]Cost, error)
	ListActiveByPeriod(ctx context.Context, periodID int64) ([]Cost, error)
	GetEmployee(ctx context.Context, id int64) (Employee, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const costColumns = `id, employee_id, project_id, cost_code_id, cost_type_id, accounting_period_id, amount, hours, rate, status, created_at, updated_at`

func (r *repository) GetCost(ctx context.Context, id int64) (Cost, error) {
	var c Cost
	err := r.db.QueryRow(ctx, `SELECT `+costColumns+` FROM labor_costs WHERE id=$1`, id).
		Scan(&c.ID, &c.EmployeeID, &c.ProjectID, &c.CostCodeID, &c.CostTypeID, &c.AccountingPeriodID, &c.Amount, &c.Hours, &c.Rate, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Cost{}, ErrCostNotFound
		}
		return Cost{}, err
	}
	return c, nil
}

func (r *repository) ListActiveByProject(ctx context.Context, projectID int64) ([]Cost, error) {
	return r.list(ctx, `SELECT `+costColumns+` FROM labor_costs WHERE project_id=$1 AND status='ACTIVE' ORDER BY id ASC`, projectID)
}

func (r *repository) ListActiveByPeriod(ctx context.Context, periodID int64) ([]Cost, error) {
	return r.list(ctx, `SELECT `+costColumns+` FROM labor_costs WHERE accounting_period_id=$1 AND status='ACTIVE' ORDER BY id ASC`, periodID)
}

func (r *repository) list(ctx context.Context, query string, args ...any) ([]Cost, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Cost
	for rows.Next() {
		var c Cost
		if err := rows.Scan(&c.ID, &c.EmployeeID, &c.ProjectID, &c.CostCodeID, &c.CostTypeID, &c.AccountingPeriodID, &c.Amount, &c.Hours, &c.Rate, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repository) GetEmployee(ctx context.Context, id int64) (Employee, error) {
	var e Employee
	err := r.db.QueryRow(ctx, `SELECT id, name, charge_rate FROM employees WHERE id=$1`, id).
		Scan(&e.ID, &e.Name, &e.ChargeRate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Employee{}, ErrEmployeeNotFound
		}
		return Employee{}, err
	}
	return e, nil
}
