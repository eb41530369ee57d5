package shared

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// PeriodLockKey builds redis keys for period-close critical sections.
func PeriodLockKey(periodID int64) string {
	return fmt.Sprintf("ledger:period:%d:close-lock", periodID)
}

// PeriodLocker serialises period close/reopen requests across processes.
// The database row lock is the source of truth; this keeps a second close
// request from queueing behind the first instead of failing fast.
type PeriodLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPeriodLocker constructs a locker with the given lease TTL.
func NewPeriodLocker(client *redis.Client, ttl time.Duration) *PeriodLocker {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &PeriodLocker{client: client, ttl: ttl}
}

// Acquire takes the lock for a period or returns ErrLockHeld.
func (l *PeriodLocker) Acquire(ctx context.Context, periodID int64) error {
	if l == nil || l.client == nil {
		return errors.New("period locker not initialised")
	}
	ok, err := l.client.SetNX(ctx, PeriodLockKey(periodID), "1", l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire period lock: %w", err)
	}
	if !ok {
		return ErrLockHeld
	}
	return nil
}

// Release drops the lock for a period.
func (l *PeriodLocker) Release(ctx context.Context, periodID int64) error {
	if l == nil || l.client == nil {
		return errors.New("period locker not initialised")
	}
	return l.client.Del(ctx, PeriodLockKey(periodID)).Err()
}
