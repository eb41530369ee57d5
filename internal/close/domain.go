package close

import "errors"

// Close stages, reported back when a close attempt fails so the caller
// knows which check stopped it.
const (
	StageGenerate = "generating_entries"
	StageValidate = "validating"
	StageSnapshot = "snapshotting"
	StageFlip     = "flipping_status"
)

var (
	// ErrPeriodNotOpen indicates a close request against a period that is
	// not open.
	ErrPeriodNotOpen = errors.New("close: period is not open")
	// ErrPeriodNotClosed indicates a reopen request against a period that
	// is not closed.
	ErrPeriodNotClosed = errors.New("close: period is not closed")
)

// Result reports the outcome of a close or reopen request. Validation
// failures are data problems, not transport errors: they come back inside
// the result with Success false and the period untouched.
type Result struct {
	Success           bool     `json:"success"`
	PeriodID          int64    `json:"period_id"`
	Stage             string   `json:"stage,omitempty"`
	CreatedEntryCount int      `json:"created_entry_count"`
	SnapshotCount     int      `json:"snapshot_count"`
	NextPeriodID      *int64   `json:"next_period_id,omitempty"`
	Errors            []string `json:"errors,omitempty"`
}
