package close

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/jobledger/jobledger/internal/forecast"
	"github.com/jobledger/jobledger/internal/journal"
	"github.com/jobledger/jobledger/internal/shared"
)

type stubGenerator struct {
	entries []journal.Entry
	err     error
	calls   int
}

func (s *stubGenerator) BuildPeriodEntries(ctx context.Context, periodID int64) ([]journal.Entry, error) {
	s.calls++
	return s.entries, s.err
}

type stubValidator struct {
	result journal.ValidationResult
	err    error
}

func (s *stubValidator) Validate(ctx context.Context, periodID int64, proposed []journal.Entry) (journal.ValidationResult, error) {
	return s.result, s.err
}

type stubSnapshots struct {
	snaps []forecast.Snapshot
	calls int
}

func (s *stubSnapshots) BuildSnapshots(ctx context.Context, periodID int64) ([]forecast.Snapshot, error) {
	s.calls++
	return s.snaps, nil
}

type captureMetrics struct {
	failedStages []string
	succeeded    int
}

func (m *captureMetrics) CloseSucceeded(time.Duration) { m.succeeded++ }
func (m *captureMetrics) CloseFailed(stage string)     { m.failedStages = append(m.failedStages, stage) }

func newTestLocker(t *testing.T) (*shared.PeriodLocker, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return shared.NewPeriodLocker(client, time.Minute), client
}

func newTestService(t *testing.T, gen *stubGenerator, val *stubValidator, snaps *stubSnapshots) (*Service, *captureMetrics) {
	t.Helper()
	locker, _ := newTestLocker(t)
	metrics := &captureMetrics{}
	svc := NewService(nil, gen, val, snaps, locker, slog.Default()).WithMetrics(metrics)
	return svc, metrics
}

func TestClosePeriodValidationFailureLeavesPeriodUntouched(t *testing.T) {
	gen := &stubGenerator{}
	val := &stubValidator{result: journal.ValidationResult{
		IsBalanced: false,
		Errors:     []string{"entry JE-000003 is out of balance by 5.00"},
	}}
	snaps := &stubSnapshots{}
	svc, metrics := newTestService(t, gen, val, snaps)

	result, err := svc.ClosePeriod(context.Background(), 1, 7)
	require.NoError(t, err)
	require.False(t, result.Success)
	require.Equal(t, StageValidate, result.Stage)
	require.Equal(t, []string{"entry JE-000003 is out of balance by 5.00"}, result.Errors)

	// Nothing past validation runs: no snapshots built, no writes attempted.
	require.Zero(t, snaps.calls)
	require.Equal(t, []string{StageValidate}, metrics.failedStages)
	require.Zero(t, metrics.succeeded)
}

func TestClosePeriodGenerateErrorReportsStage(t *testing.T) {
	gen := &stubGenerator{err: errors.New("ledger unavailable")}
	svc, metrics := newTestService(t, gen, &stubValidator{}, &stubSnapshots{})

	result, err := svc.ClosePeriod(context.Background(), 1, 7)
	require.Error(t, err)
	require.False(t, result.Success)
	require.Equal(t, StageGenerate, result.Stage)
	require.Equal(t, []string{StageGenerate}, metrics.failedStages)
}

func TestClosePeriodRejectsConcurrentRequest(t *testing.T) {
	locker, _ := newTestLocker(t)
	gen := &stubGenerator{}
	svc := NewService(nil, gen, &stubValidator{}, &stubSnapshots{}, locker, slog.Default())

	require.NoError(t, locker.Acquire(context.Background(), 1))

	_, err := svc.ClosePeriod(context.Background(), 1, 7)
	require.ErrorIs(t, err, shared.ErrLockHeld)
	require.Zero(t, gen.calls)
}

func TestClosePeriodReleasesLockAfterFailure(t *testing.T) {
	locker, client := newTestLocker(t)
	gen := &stubGenerator{err: errors.New("boom")}
	svc := NewService(nil, gen, &stubValidator{}, &stubSnapshots{}, locker, slog.Default())

	_, err := svc.ClosePeriod(context.Background(), 1, 7)
	require.Error(t, err)

	held, err := client.Exists(context.Background(), shared.PeriodLockKey(1)).Result()
	require.NoError(t, err)
	require.Zero(t, held)
}
