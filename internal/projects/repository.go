package projects

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrProjectNotFound indicates the project does not exist.
	ErrProjectNotFound = errors.New("projects: project not found")
	// ErrContractNotFound indicates the contract does not exist.
	ErrContractNotFound = errors.New("projects: contract not found")
)

// Repository encapsulates DB operations for projects and contracts.
type Repository interface {
	GetProject(ctx context.Context, id int64) (Project, error)
	ListProjects(ctx context.Context) ([]Project, error)
	ListActiveProjects(ctx context.Context) ([]Project, error)
	ListContracts(ctx context.Context, projectID int64) ([]Contract, error)
	GetContract(ctx context.Context, id int64) (Contract, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const projectColumns = `id, number, name, status, labor_cost_method, created_at, updated_at`

func scanProject(row pgx.Row) (Project, error) {
	var p Project
	err := row.Scan(&p.ID, &p.Number, &p.Name, &p.Status, &p.LaborCostMethod, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Project{}, ErrProjectNotFound
		}
		return Project{}, err
	}
	return p, nil
}

func (r *repository) GetProject(ctx context.Context, id int64) (Project, error) {
	return scanProject(r.db.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id=$1`, id))
}

func (r *repository) ListProjects(ctx context.Context) ([]Project, error) {
	return r.listProjects(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY number ASC`)
}

func (r *repository) ListActiveProjects(ctx context.Context) ([]Project, error) {
	return r.listProjects(ctx, `SELECT `+projectColumns+` FROM projects WHERE status='ACTIVE' ORDER BY number ASC`)
}

func (r *repository) listProjects(ctx context.Context, query string) ([]Project, error) {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) ListContracts(ctx context.Context, projectID int64) ([]Contract, error) {
	rows, err := r.db.Query(ctx, `
SELECT id, project_id, accounting_period_id, contract_amount, status, created_at, updated_at
FROM contracts WHERE project_id=$1 ORDER BY id ASC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Contract
	for rows.Next() {
		var c Contract
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.AccountingPeriodID, &c.ContractAmount, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repository) GetContract(ctx context.Context, id int64) (Contract, error) {
	var c Contract
	err := r.db.QueryRow(ctx, `
SELECT id, project_id, accounting_period_id, contract_amount, status, created_at, updated_at
FROM contracts WHERE id=$1`, id).
		Scan(&c.ID, &c.ProjectID, &c.AccountingPeriodID, &c.ContractAmount, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Contract{}, ErrContractNotFound
		}
		return Contract{}, err
	}
	return c, nil
}
