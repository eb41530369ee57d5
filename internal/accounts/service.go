package accounts

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// Service resolves account references for journal composition.
type Service struct {
	repo Repository
}

// NewService constructs a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns the chart of accounts.
func (s *Service) List(ctx context.Context) ([]Account, error) {
	return s.repo.List(ctx)
}

// Get returns an account by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Account, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByName returns an active account by exact name.
func (s *Service) GetByName(ctx context.Context, name string) (Account, error) {
	return s.repo.GetByName(ctx, name)
}

// ResolveExpenseAccount maps a cost type's stored expense-account reference
// to an account. Legacy data stores either the account id or the account
// name in the same column: a 36-character value containing separators is
// treated as an id, anything else as a name. Unresolvable references fall
// back to the default construction-cost account.
func (s *Service) ResolveExpenseAccount(ctx context.Context, ref string) (Account, error) {
	ref = strings.TrimSpace(ref)
	if LooksLikeAccountID(ref) {
		id, err := uuid.Parse(ref)
		if err == nil {
			account, err := s.repo.GetByID(ctx, id)
			if err == nil {
				return account, nil
			}
			if !errors.Is(err, ErrAccountNotFound) {
				return Account{}, err
			}
		}
	} else if ref != "" {
		account, err := s.repo.GetByName(ctx, ref)
		if err == nil {
			return account, nil
		}
		if !errors.Is(err, ErrAccountNotFound) {
			return Account{}, err
		}
	}
	return s.repo.GetByName(ctx, DefaultExpenseAccountName)
}

// LooksLikeAccountID reports whether the reference is account-id shaped:
// 36 characters with dash separators.
func LooksLikeAccountID(ref string) bool {
	return len(ref) == 36 && strings.Contains(ref, "-")
}
