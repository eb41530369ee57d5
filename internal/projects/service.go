package projects

import (
	"context"

	"github.com/shopspring/decimal"
)

// Service exposes project and contract reads for the calculation engines.
type Service struct {
	repo Repository
}

// NewService constructs a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns a project by id.
func (s *Service) Get(ctx context.Context, id int64) (Project, error) {
	return s.repo.GetProject(ctx, id)
}

// ListActive returns active projects, the population of the WIP report.
func (s *Service) ListActive(ctx context.Context) ([]Project, error) {
	return s.repo.ListActiveProjects(ctx)
}

// Contracts returns all contracts under a project.
func (s *Service) Contracts(ctx context.Context, projectID int64) ([]Contract, error) {
	return s.repo.ListContracts(ctx, projectID)
}

// TotalContractAmount sums active contracts' amounts for the project. A
// project with no contracts yields zero, not an error.
func (s *Service) TotalContractAmount(ctx context.Context, projectID int64) (decimal.Decimal, error) {
	contracts, err := s.repo.ListContracts(ctx, projectID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, c := range contracts {
		if c.Status != ContractStatusActive {
			continue
		}
		total = total.Add(c.ContractAmount)
	}
	return total, nil
}
