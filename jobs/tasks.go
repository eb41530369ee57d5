package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerIntegrityScan re-runs journal validation across open periods.
	TaskLedgerIntegrityScan = "ledger:integrity_scan"
	// TaskWIPWarmup precomputes the WIP report for open periods.
	TaskWIPWarmup = "wip:warmup"
)

// IntegrityScanPayload scopes the scan. A zero PeriodID means every open
// period.
type IntegrityScanPayload struct {
	PeriodID int64 `json:"period_id,omitempty"`
}

// NewIntegrityScanTask constructs the integrity scan task.
func NewIntegrityScanTask(payload IntegrityScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerIntegrityScan, data), nil
}

// WIPWarmupPayload scopes the warmup. A zero PeriodID means every open
// period.
type WIPWarmupPayload struct {
	PeriodID int64 `json:"period_id,omitempty"`
}

// NewWIPWarmupTask constructs the WIP warmup task.
func NewWIPWarmupTask(payload WIPWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskWIPWarmup, data), nil
}
