package commitments

import (
	"time"

	"github.com/shopspring/decimal"
)

// CommitmentStatus enumerates commitment lifecycle values.
type CommitmentStatus string

const (
	CommitmentStatusActive   CommitmentStatus = "ACTIVE"
	CommitmentStatusInactive CommitmentStatus = "INACTIVE"
)

// Commitment is a subcontract or purchase commitment against a project.
// OriginalAmount is derived: the sum of active non-change-order item totals,
// recomputed inside the same transaction as any item mutation.
type Commitment struct {
	ID             int64
	ProjectID      int64
	VendorID       int64
	OriginalAmount decimal.Decimal
	Status         CommitmentStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CommitmentItem is one cost-code/cost-type line on a commitment.
type CommitmentItem struct {
	ID            int64
	CommitmentID  int64
	CostCodeID    int64
	CostTypeID    int64
	TotalAmount   decimal.Decimal
	IsChangeOrder bool
	ChangeOrderID *int64
	Status        CommitmentStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CommitmentChangeOrder groups change-order items; TotalAmount is derived
// from its flagged items.
type CommitmentChangeOrder struct {
	ID           int64
	CommitmentID int64
	TotalAmount  decimal.Decimal
	Status       CommitmentStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CommittedAmounts is the per cost-code/cost-type committed view consumed by
// the buyout forecaster.
type CommittedAmounts struct {
	Committed    decimal.Decimal
	ChangeOrders decimal.Decimal
}

// Total is base committed plus change-order committed.
func (c CommittedAmounts) Total() decimal.Decimal {
	return c.Committed.Add(c.ChangeOrders)
}
