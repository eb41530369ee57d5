package close

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jobledger/jobledger/internal/forecast"
	"github.com/jobledger/jobledger/internal/journal"
	"github.com/jobledger/jobledger/internal/periods"
	"github.com/jobledger/jobledger/internal/shared"
)

// EntryGenerator composes the period's journal entry set.
type EntryGenerator interface {
	BuildPeriodEntries(ctx context.Context, periodID int64) ([]journal.Entry, error)
}

// PeriodValidator checks the period's entries, existing plus proposed.
type PeriodValidator interface {
	Validate(ctx context.Context, periodID int64, proposed []journal.Entry) (journal.ValidationResult, error)
}

// SnapshotBuilder computes the forecast snapshots a close must freeze.
type SnapshotBuilder interface {
	BuildSnapshots(ctx context.Context, periodID int64) ([]forecast.Snapshot, error)
}

// Locker serialises close and reopen requests per period.
type Locker interface {
	Acquire(ctx context.Context, periodID int64) error
	Release(ctx context.Context, periodID int64) error
}

// Metrics counts close outcomes. All methods must be nil-safe to wire.
type Metrics interface {
	CloseSucceeded(duration time.Duration)
	CloseFailed(stage string)
}

// AuditPort records close and reopen actions.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service orchestrates period close and reopen.
//
// Composition and validation read the ledger outside the transaction; the
// per-period lock keeps that read set stable. Every write of the sequence
// (entries, snapshots, status flip, next-period open) commits atomically
// or not at all.
type Service struct {
	repo      *Repository
	generator EntryGenerator
	validator PeriodValidator
	snapshots SnapshotBuilder
	locker    Locker
	metrics   Metrics
	audit     AuditPort
	logger    *slog.Logger
	now       func() time.Time
}

// NewService constructs a Service instance.
func NewService(repo *Repository, generator EntryGenerator, validator PeriodValidator, snapshots SnapshotBuilder, locker Locker, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		generator: generator,
		validator: validator,
		snapshots: snapshots,
		locker:    locker,
		logger:    logger,
		now:       time.Now,
	}
}

// WithMetrics attaches close counters.
func (s *Service) WithMetrics(m Metrics) *Service {
	s.metrics = m
	return s
}

// WithAudit attaches the audit sink.
func (s *Service) WithAudit(a AuditPort) *Service {
	s.audit = a
	return s
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// ClosePeriod runs the close sequence: generate entries, validate,
// snapshot forecasts, flip the period, open the next one when this was the
// last open period. A validation failure comes back in the result with the
// period untouched.
func (s *Service) ClosePeriod(ctx context.Context, periodID int64, actorID int64) (Result, error) {
	started := s.now()
	if err := s.locker.Acquire(ctx, periodID); err != nil {
		return Result{}, err
	}
	defer func() {
		if err := s.locker.Release(ctx, periodID); err != nil {
			s.logger.Warn("release period lock failed", slog.Int64("period_id", periodID), slog.Any("error", err))
		}
	}()

	entries, err := s.generator.BuildPeriodEntries(ctx, periodID)
	if err != nil {
		s.failed(StageGenerate)
		return Result{PeriodID: periodID, Stage: StageGenerate, Errors: []string{err.Error()}}, err
	}

	validation, err := s.validator.Validate(ctx, periodID, entries)
	if err != nil {
		s.failed(StageValidate)
		return Result{PeriodID: periodID, Stage: StageValidate, Errors: []string{err.Error()}}, err
	}
	if !validation.IsBalanced {
		s.failed(StageValidate)
		return Result{PeriodID: periodID, Stage: StageValidate, Errors: validation.Errors}, nil
	}

	snaps, err := s.snapshots.BuildSnapshots(ctx, periodID)
	if err != nil {
		s.failed(StageSnapshot)
		return Result{PeriodID: periodID, Stage: StageSnapshot, Errors: []string{err.Error()}}, err
	}

	result := Result{PeriodID: periodID}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		period, err := s.repo.LoadPeriodForUpdate(ctx, tx, periodID)
		if err != nil {
			return err
		}
		if period.Status != periods.PeriodStatusOpen {
			return ErrPeriodNotOpen
		}

		for _, entry := range entries {
			created, err := s.repo.InsertJournalEntry(ctx, tx, entry)
			if err != nil {
				return err
			}
			if created {
				result.CreatedEntryCount++
			}
		}
		for _, snap := range snaps {
			created, err := s.repo.InsertSnapshot(ctx, tx, snap)
			if err != nil {
				return err
			}
			if created {
				result.SnapshotCount++
			}
		}

		if err := s.repo.MarkClosed(ctx, tx, periodID, actorID, s.now()); err != nil {
			return err
		}
		return s.openNextIfLast(ctx, tx, period, &result)
	})
	if err != nil {
		s.failed(StageFlip)
		return Result{PeriodID: periodID, Stage: StageFlip, Errors: []string{err.Error()}}, err
	}

	result.Success = true
	if s.metrics != nil {
		s.metrics.CloseSucceeded(s.now().Sub(started))
	}
	s.recordAudit(ctx, actorID, "period.close", periodID, map[string]any{
		"created_entries": result.CreatedEntryCount,
		"snapshots":       result.SnapshotCount,
	})
	s.logger.Info("period closed",
		slog.Int64("period_id", periodID),
		slog.Int("entries", result.CreatedEntryCount),
		slog.Int("snapshots", result.SnapshotCount))
	return result, nil
}

// openNextIfLast opens the next chronological period when the close left
// zero periods open. A later period that was explicitly closed stays
// closed; the system then simply has no open period until an operator
// reopens or creates one.
func (s *Service) openNextIfLast(ctx context.Context, tx pgx.Tx, closed periods.Period, result *Result) error {
	open, err := s.repo.CountOpen(ctx, tx)
	if err != nil {
		return err
	}
	if open > 0 {
		return nil
	}
	next, ok, err := s.repo.NextChronologicalPeriod(ctx, tx, closed.Year, closed.Month)
	if err != nil {
		return err
	}
	if !ok || next.ClosedAt != nil {
		s.logger.Warn("no next period to open", slog.Int64("closed_period_id", closed.ID))
		return nil
	}
	if err := s.repo.MarkOpen(ctx, tx, next.ID); err != nil {
		return err
	}
	result.NextPeriodID = &next.ID
	return nil
}

// ReopenPeriod flips a closed period back to open and deletes its frozen
// forecast snapshots so open-period reads go live again.
func (s *Service) ReopenPeriod(ctx context.Context, periodID int64, actorID int64) (Result, error) {
	if err := s.locker.Acquire(ctx, periodID); err != nil {
		return Result{}, err
	}
	defer func() {
		if err := s.locker.Release(ctx, periodID); err != nil {
			s.logger.Warn("release period lock failed", slog.Int64("period_id", periodID), slog.Any("error", err))
		}
	}()

	result := Result{PeriodID: periodID}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		period, err := s.repo.LoadPeriodForUpdate(ctx, tx, periodID)
		if err != nil {
			return err
		}
		if period.Status != periods.PeriodStatusClosed {
			return ErrPeriodNotClosed
		}
		deleted, err := s.repo.DeleteSnapshots(ctx, tx, periodID)
		if err != nil {
			return err
		}
		result.SnapshotCount = int(deleted)
		return s.repo.MarkOpen(ctx, tx, periodID)
	})
	if err != nil {
		return Result{PeriodID: periodID, Errors: []string{err.Error()}}, err
	}

	result.Success = true
	s.recordAudit(ctx, actorID, "period.reopen", periodID, map[string]any{
		"snapshots_deleted": result.SnapshotCount,
	})
	s.logger.Info("period reopened", slog.Int64("period_id", periodID), slog.Int("snapshots_deleted", result.SnapshotCount))
	return result, nil
}

func (s *Service) failed(stage string) {
	if s.metrics != nil {
		s.metrics.CloseFailed(stage)
	}
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, periodID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "accounting_period",
		EntityID: strconv.FormatInt(periodID, 10),
		Meta:     meta,
	})
	if err != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}
