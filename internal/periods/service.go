package periods

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInvalidMonth indicates a month outside 1..12.
	ErrInvalidMonth = errors.New("periods: month must be between 1 and 12")
	// ErrSoleOpenPeriod indicates the period cannot be removed while it is
	// the only open one.
	ErrSoleOpenPeriod = errors.New("periods: cannot delete the sole open period")
	// ErrPeriodHasActivity indicates dependent ledger rows exist.
	ErrPeriodHasActivity = errors.New("periods: period has dependent records")
)

// Service manages accounting period reads and creation. Status transitions
// belong to the close orchestrator; this service never flips Open/Closed.
type Service struct {
	repo Repository
}

// NewService constructs a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns all periods ordered chronologically.
func (s *Service) List(ctx context.Context) ([]Period, error) {
	return s.repo.List(ctx)
}

// Get returns a single period.
func (s *Service) Get(ctx context.Context, id int64) (Period, error) {
	return s.repo.GetByID(ctx, id)
}

// Create inserts a new Open period for (year, month).
func (s *Service) Create(ctx context.Context, year, month int) (Period, error) {
	if month < 1 || month > 12 {
		return Period{}, ErrInvalidMonth
	}
	if year <= 0 {
		return Period{}, fmt.Errorf("periods: invalid year %d", year)
	}
	return s.repo.Insert(ctx, year, month, PeriodStatusOpen)
}

// Delete removes a period, refusing when it is the sole open period or has
// dependent ledger rows.
func (s *Service) Delete(ctx context.Context, id int64) error {
	period, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if period.Status == PeriodStatusOpen {
		open, err := s.repo.CountOpen(ctx)
		if err != nil {
			return err
		}
		if open <= 1 {
			return ErrSoleOpenPeriod
		}
	}
	dependents, err := s.repo.CountDependents(ctx, id)
	if err != nil {
		return err
	}
	if dependents > 0 {
		return ErrPeriodHasActivity
	}
	return s.repo.Delete(ctx, id)
}

// CutoffFor loads the cumulative period set "up to and including" the target.
// A zero targetID means no cutoff.
func (s *Service) CutoffFor(ctx context.Context, targetID int64) ([]Period, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if targetID == 0 {
		return UpTo(all, nil), nil
	}
	target, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	return UpTo(all, &target), nil
}

// CutoffIDsFor is CutoffFor reduced to an id membership set.
func (s *Service) CutoffIDsFor(ctx context.Context, targetID int64) (map[int64]struct{}, error) {
	set, err := s.CutoffFor(ctx, targetID)
	if err != nil {
		return nil, err
	}
	ids := make(map[int64]struct{}, len(set))
	for _, p := range set {
		ids[p.ID] = struct{}{}
	}
	return ids, nil
}
