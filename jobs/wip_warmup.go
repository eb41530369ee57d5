package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/jobledger/jobledger/internal/jobs"
	"github.com/jobledger/jobledger/internal/periods"
	"github.com/jobledger/jobledger/internal/revenue"
)

// WIPWarmupJob precomputes the WIP report for open periods so the first
// interactive request of the morning does not pay the full fan-out.
type WIPWarmupJob struct {
	Periods  *periods.Service
	Reporter *revenue.Reporter
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// NewWIPWarmupJob wires dependencies for the warmup handler.
func NewWIPWarmupJob(periodSvc *periods.Service, reporter *revenue.Reporter, logger *slog.Logger, metrics *jobmetrics.Metrics) *WIPWarmupJob {
	return &WIPWarmupJob{Periods: periodSvc, Reporter: reporter, Logger: logger, Metrics: metrics}
}

// Handle processes WIP warmup tasks.
func (j *WIPWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("wip warmup: handler not configured")
	}
	var payload WIPWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskWIPWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	started := time.Now()

	targets, err := j.targetPeriods(ctx, payload.PeriodID)
	if err != nil {
		resultErr = err
		logger.Error("load warmup targets", slog.Any("error", err))
		return resultErr
	}

	for _, period := range targets {
		// Each period gets its own deadline so one slow report cannot eat
		// the whole run.
		periodCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		report, err := j.Reporter.Build(periodCtx, period.ID)
		cancel()
		if err != nil {
			resultErr = err
			logger.Error("build wip report", slog.Int64("period_id", period.ID), slog.Any("error", err))
			return resultErr
		}
		logger.Info("warmed wip report",
			slog.Int64("period_id", period.ID),
			slog.String("period", period.Label()),
			slog.Int("rows", len(report.Rows)))
	}

	logger.Info("completed wip warmup",
		slog.Int("periods", len(targets)),
		slog.Duration("duration", time.Since(started)))
	return resultErr
}

func (j *WIPWarmupJob) targetPeriods(ctx context.Context, periodID int64) ([]periods.Period, error) {
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

func (j *WIPWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskWIPWarmup))
	}
	return slog.Default().With(slog.String("job", TaskWIPWarmup))
}

func (j *WIPWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
