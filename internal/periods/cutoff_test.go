package periods

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func samplePeriods() []Period {
	return []Period{
		{ID: 3, Year: 2025, Month: 1, Status: PeriodStatusOpen},
		{ID: 1, Year: 2024, Month: 11, Status: PeriodStatusClosed},
		{ID: 4, Year: 2025, Month: 2, Status: PeriodStatusOpen},
		{ID: 2, Year: 2024, Month: 12, Status: PeriodStatusClosed},
	}
}

func TestUpToIncludesEarlierYearsAndSameYearMonths(t *testing.T) {
	target := Period{ID: 3, Year: 2025, Month: 1}
	got := UpTo(samplePeriods(), &target)
	require.Len(t, got, 3)
	require.Equal(t, int64(1), got[0].ID)
	require.Equal(t, int64(2), got[1].ID)
	require.Equal(t, int64(3), got[2].ID)
}

func TestUpToNilTargetReturnsEverythingOrdered(t *testing.T) {
	got := UpTo(samplePeriods(), nil)
	require.Len(t, got, 4)
	for i := 1; i < len(got); i++ {
		require.True(t, got[i-1].Before(got[i]))
	}
}

func TestUpToTargetBeforeAllPeriods(t *testing.T) {
	target := Period{Year: 2023, Month: 6}
	require.Empty(t, UpTo(samplePeriods(), &target))
}

func TestUpToDecemberBoundary(t *testing.T) {
	target := Period{Year: 2024, Month: 12}
	got := UpTo(samplePeriods(), &target)
	require.Len(t, got, 2)
	require.Equal(t, "2024-11", got[0].Label())
	require.Equal(t, "2024-12", got[1].Label())
}

func TestIDsUpToMembership(t *testing.T) {
	target := Period{Year: 2025, Month: 1}
	ids := IDsUpTo(samplePeriods(), &target)
	require.Len(t, ids, 3)
	_, ok := ids[4]
	require.False(t, ok)
}
