package commitments

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrInactiveCommitment indicates items cannot be added to an inactive commitment.
var ErrInactiveCommitment = errors.New("commitments: commitment is not active")

// Service maintains commitments and serves committed amounts to the
// forecaster.
type Service struct {
	repo Repository
}

// NewService constructs a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns a commitment by id.
func (s *Service) Get(ctx context.Context, id int64) (Commitment, error) {
	return s.repo.GetCommitment(ctx, id)
}

// AddItem inserts a commitment line and refreshes the derived totals in the
// same transaction, so original_amount never drifts from its items.
func (s *Service) AddItem(ctx context.Context, item CommitmentItem) error {
	commitment, err := s.repo.GetCommitment(ctx, item.CommitmentID)
	if err != nil {
		return err
	}
	if commitment.Status != CommitmentStatusActive {
		return ErrInactiveCommitment
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := tx.InsertItem(ctx, item); err != nil {
			return err
		}
		return refreshDerivedTotals(ctx, tx, item)
	})
}

// DeactivateItem retires a line and refreshes the derived totals.
func (s *Service) DeactivateItem(ctx context.Context, item CommitmentItem) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.UpdateItemStatus(ctx, item.ID, CommitmentStatusInactive); err != nil {
			return err
		}
		return refreshDerivedTotals(ctx, tx, item)
	})
}

// CommittedByCostCode aggregates active item totals for a project into
// per-(costCode, costType) committed and change-order committed amounts.
func (s *Service) CommittedByCostCode(ctx context.Context, projectID int64, costCodeID, costTypeID int64) (CommittedAmounts, error) {
	items, err := s.repo.ListItemsByProject(ctx, projectID)
	if err != nil {
		return CommittedAmounts{}, err
	}
	out := CommittedAmounts{Committed: decimal.Zero, ChangeOrders: decimal.Zero}
	for _, item := range items {
		if item.Status != CommitmentStatusActive {
			continue
		}
		if item.CostCodeID != costCodeID || item.CostTypeID != costTypeID {
			continue
		}
		if item.IsChangeOrder {
			out.ChangeOrders = out.ChangeOrders.Add(item.TotalAmount)
		} else {
			out.Committed = out.Committed.Add(item.TotalAmount)
		}
	}
	return out, nil
}

func refreshDerivedTotals(ctx context.Context, tx TxRepository, item CommitmentItem) error {
	base, err := tx.SumActiveItems(ctx, item.CommitmentID, false)
	if err != nil {
		return err
	}
	if err := tx.UpdateOriginalAmount(ctx, item.CommitmentID, base); err != nil {
		return err
	}
	if item.IsChangeOrder && item.ChangeOrderID != nil {
		coTotal, err := tx.SumActiveItems(ctx, item.CommitmentID, true)
		if err != nil {
			return err
		}
		return tx.UpdateChangeOrderTotal(ctx, *item.ChangeOrderID, coTotal)
	}
	return nil
}
