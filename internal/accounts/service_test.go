package accounts

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type memoryAccountRepo struct {
	byID   map[uuid.UUID]Account
	byName map[string]Account
}

func newMemoryAccountRepo(accounts ...Account) *memoryAccountRepo {
	repo := &memoryAccountRepo{
		byID:   make(map[uuid.UUID]Account),
		byName: make(map[string]Account),
	}
	for _, a := range accounts {
		repo.byID[a.ID] = a
		repo.byName[a.Name] = a
	}
	return repo
}

func (r *memoryAccountRepo) List(ctx context.Context) ([]Account, error) {
	out := make([]Account, 0, len(r.byID))
	for _, a := range r.byID {
		out = append(out, a)
	}
	return out, nil
}

func (r *memoryAccountRepo) GetByID(ctx context.Context, id uuid.UUID) (Account, error) {
	a, ok := r.byID[id]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return a, nil
}

func (r *memoryAccountRepo) GetByName(ctx context.Context, name string) (Account, error) {
	a, ok := r.byName[name]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return a, nil
}

func TestResolveExpenseAccountByID(t *testing.T) {
	target := Account{ID: uuid.New(), Name: "Site Materials", Type: AccountTypeExpense, IsActive: true}
	fallback := Account{ID: uuid.New(), Name: DefaultExpenseAccountName, Type: AccountTypeExpense, IsActive: true}
	svc := NewService(newMemoryAccountRepo(target, fallback))

	got, err := svc.ResolveExpenseAccount(context.Background(), target.ID.String())
	require.NoError(t, err)
	require.Equal(t, target.ID, got.ID)
}

func TestResolveExpenseAccountByName(t *testing.T) {
	target := Account{ID: uuid.New(), Name: "Subcontractor Costs", Type: AccountTypeExpense, IsActive: true}
	fallback := Account{ID: uuid.New(), Name: DefaultExpenseAccountName, Type: AccountTypeExpense, IsActive: true}
	svc := NewService(newMemoryAccountRepo(target, fallback))

	got, err := svc.ResolveExpenseAccount(context.Background(), "Subcontractor Costs")
	require.NoError(t, err)
	require.Equal(t, target.ID, got.ID)
}

func TestResolveExpenseAccountFallsBackToDefault(t *testing.T) {
	fallback := Account{ID: uuid.New(), Name: DefaultExpenseAccountName, Type: AccountTypeExpense, IsActive: true}
	svc := NewService(newMemoryAccountRepo(fallback))

	got, err := svc.ResolveExpenseAccount(context.Background(), uuid.NewString())
	require.NoError(t, err)
	require.Equal(t, fallback.ID, got.ID)

	got, err = svc.ResolveExpenseAccount(context.Background(), "No Such Account")
	require.NoError(t, err)
	require.Equal(t, fallback.ID, got.ID)
}

func TestLooksLikeAccountID(t *testing.T) {
	require.True(t, LooksLikeAccountID(uuid.NewString()))
	require.False(t, LooksLikeAccountID("Construction Costs"))
	require.False(t, LooksLikeAccountID("123456789012345678901234567890123456"))
}
