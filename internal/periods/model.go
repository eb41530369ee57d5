package periods

import (
	"fmt"
	"time"
)

// PeriodStatus enumerates valid accounting period states.
type PeriodStatus string

const (
	PeriodStatusOpen   PeriodStatus = "OPEN"
	PeriodStatusClosed PeriodStatus = "CLOSED"
)

// Period represents one month/year accounting bucket. Unique on (year, month).
type Period struct {
	ID        int64
	Year      int
	Month     int
	Status    PeriodStatus
	ClosedAt  *time.Time
	ClosedBy  *int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Before reports whether p sorts strictly earlier than other by (year, month).
func (p Period) Before(other Period) bool {
	if p.Year != other.Year {
		return p.Year < other.Year
	}
	return p.Month < other.Month
}

// Label renders the period as YYYY-MM for logs and report headers.
func (p Period) Label() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}
