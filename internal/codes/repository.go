package codes

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrCostCodeNotFound indicates the cost code does not exist.
	ErrCostCodeNotFound = errors.New("codes: cost code not found")
	// ErrCostTypeNotFound indicates the cost type does not exist.
	ErrCostTypeNotFound = errors.New("codes: cost type not found")
)

// Repository encapsulates DB operations for cost codes and cost types.
type Repository interface {
	GetCostCode(ctx context.Context, id int64) (CostCode, error)
	GetCostType(ctx context.Context, id int64) (CostType, error)
	ListCostCodes(ctx context.Context) ([]CostCode, error)
	ListCostTypes(ctx context.Context) ([]CostType, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) GetCostCode(ctx context.Context, id int64) (CostCode, error) {
	var c CostCode
	err := r.db.QueryRow(ctx, `
SELECT id, code, name, is_active, created_at, updated_at FROM cost_codes WHERE id=$1`, id).
		Scan(&c.ID, &c.Code, &c.Name, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return CostCode{}, ErrCostCodeNotFound
	}
	return c, err
}

func (r *repository) GetCostType(ctx context.Context, id int64) (CostType, error) {
	var c CostType
	err := r.db.QueryRow(ctx, `
SELECT id, code, name, expense_account, is_active, created_at, updated_at FROM cost_types WHERE id=$1`, id).
		Scan(&c.ID, &c.Code, &c.Name, &c.ExpenseAccount, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return CostType{}, ErrCostTypeNotFound
	}
	return c, err
}

func (r *repository) ListCostCodes(ctx context.Context) ([]CostCode, error) {
	rows, err := r.db.Query(ctx, `SELECT id, code, name, is_active, created_at, updated_at FROM cost_codes ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CostCode
	for rows.Next() {
		var c CostCode
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repository) ListCostTypes(ctx context.Context) ([]CostType, error) {
	rows, err := r.db.Query(ctx, `SELECT id, code, name, expense_account, is_active, created_at, updated_at FROM cost_types ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CostType
	for rows.Next() {
		var c CostType
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.ExpenseAccount, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Service wraps the repository with the lookups journal composition needs.
type Service struct {
	repo Repository
}

// NewService constructs a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns one cost type.
func (s *Service) Get(ctx context.Context, id int64) (CostType, error) {
	return s.repo.GetCostType(ctx, id)
}

// ExpenseAccountRef returns the raw expense-account reference for a cost
// type. Empty when the cost type is unknown or carries no mapping.
func (s *Service) ExpenseAccountRef(ctx context.Context, costTypeID int64) (string, error) {
	ct, err := s.repo.GetCostType(ctx, costTypeID)
	if err != nil {
		if errors.Is(err, ErrCostTypeNotFound) {
			return "", nil
		}
		return "", err
	}
	return ct.ExpenseAccount, nil
}

// List returns all cost codes.
func (s *Service) List(ctx context.Context) ([]CostCode, error) {
	return s.repo.ListCostCodes(ctx)
}

// ListTypes returns all cost types.
func (s *Service) ListTypes(ctx context.Context) ([]CostType, error) {
	return s.repo.ListCostTypes(ctx)
}
