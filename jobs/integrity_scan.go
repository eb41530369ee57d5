package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/jobledger/jobledger/internal/jobs"
	"github.com/jobledger/jobledger/internal/journal"
	"github.com/jobledger/jobledger/internal/periods"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// IntegrityScanJob re-runs journal validation across open periods. It never
// mutates the ledger; problems surface as warnings and metrics so the month
// end close does not become the first time anyone sees them.
type IntegrityScanJob struct {
	Periods   *periods.Service
	Journal   *journal.Service
	Validator *journal.Validator
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewIntegrityScanJob wires dependencies for the scan handler.
func NewIntegrityScanJob(periodSvc *periods.Service, journalSvc *journal.Service, v *journal.Validator, logger *slog.Logger, metrics *jobmetrics.Metrics) *IntegrityScanJob {
	return &IntegrityScanJob{Periods: periodSvc, Journal: journalSvc, Validator: v, Logger: logger, Metrics: metrics}
}

// Handle processes integrity scan tasks.
func (j *IntegrityScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("integrity scan: handler not configured")
	}
	var payload IntegrityScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskLedgerIntegrityScan)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	started := time.Now()

	targets, err := j.targetPeriods(ctx, payload.PeriodID)
	if err != nil {
		resultErr = err
		logger.Error("load scan targets", slog.Any("error", err))
		return resultErr
	}

	issues := 0
	for _, period := range targets {
		proposed, err := j.Journal.BuildPeriodEntries(ctx, period.ID)
		if err != nil {
			resultErr = err
			logger.Error("compose period entries", slog.Int64("period_id", period.ID), slog.Any("error", err))
			return resultErr
		}
		result, err := j.Validator.Validate(ctx, period.ID, proposed)
		if err != nil {
			resultErr = err
			logger.Error("validate period", slog.Int64("period_id", period.ID), slog.Any("error", err))
			return resultErr
		}
		if !result.IsBalanced {
			issues += len(result.Errors)
			j.metrics().AddIntegrityIssues(period.ID, len(result.Errors))
			for _, problem := range result.Errors {
				logger.Warn("ledger integrity issue",
					slog.Int64("period_id", period.ID),
					slog.String("period", period.Label()),
					slog.String("problem", problem))
			}
		}
	}

	logger.Info("completed integrity scan",
		slog.Int("periods", len(targets)),
		slog.Int("issues", issues),
		slog.Duration("duration", time.Since(started)))
	return resultErr
}

func (j *IntegrityScanJob) targetPeriods(ctx context.Context, periodID int64) ([]periods.Period, error) {
	if periodID > 0 {
		period, err := j.Periods.Get(ctx, periodID)
		if err != nil {
			return nil, err
		}
		return []periods.Period{period}, nil
	}
	all, err := j.Periods.List(ctx)
	if err != nil {
		return nil, err
	}
	open := make([]periods.Period, 0, len(all))
	for _, period := range all {
		if period.Status == periods.PeriodStatusOpen {
			open = append(open, period)
		}
	}
	return open, nil
}

func (j *IntegrityScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskLedgerIntegrityScan))
	}
	return slog.Default().With(slog.String("job", TaskLedgerIntegrityScan))
}

func (j *IntegrityScanJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
