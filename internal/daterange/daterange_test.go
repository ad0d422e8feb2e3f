package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestChunks_RejectsNonPositiveLookback(t *testing.T) {
	for _, days := range []int{0, -1, -30} {
		_, err := Chunks(date(2026, 2, 1), days)
		assert.Error(t, err, "lookback %d", days)
	}
}

func TestChunks_SingleRangeWhenLookbackFitsOneChunk(t *testing.T) {
	today := date(2026, 2, 1)
	ranges, err := Chunks(today, 7)
	require.NoError(t, err)
	require.Len(t, ranges, 1)
	assert.Equal(t, date(2026, 1, 25), ranges[0].From)
	assert.Equal(t, today, ranges[0].Until)
}

func TestChunks_FiftyDayLookback(t *testing.T) {
	// 50 days back from 2026-02-01 is 2025-12-13. Expect two ranges,
	// newest-first, the older one clamped to the cutoff.
	ranges, err := Chunks(date(2026, 2, 1), 50)
	require.NoError(t, err)
	require.Len(t, ranges, 2)

	assert.Equal(t, date(2026, 1, 13), ranges[0].From)
	assert.Equal(t, date(2026, 2, 1), ranges[0].Until)
	assert.Equal(t, date(2025, 12, 13), ranges[1].From)
	assert.Equal(t, date(2026, 1, 12), ranges[1].Until)

	// Boundary dates of consecutive chunks are exactly one day apart.
	assert.Equal(t, ranges[1].Until.AddDate(0, 0, 1), ranges[0].From)
}

func TestChunks_Properties(t *testing.T) {
	today := date(2026, 2, 1)
	for _, lookback := range []int{1, 29, 30, 31, 60, 61, 90, 365} {
		ranges, err := Chunks(today, lookback)
		require.NoError(t, err, "lookback %d", lookback)
		require.NotEmpty(t, ranges)

		cutoff := today.AddDate(0, 0, -lookback)

		// Newest range ends today, oldest starts at the cutoff.
		assert.Equal(t, today, ranges[0].Until, "lookback %d", lookback)
		assert.Equal(t, cutoff, ranges[len(ranges)-1].From, "lookback %d", lookback)

		for i, r := range ranges {
			assert.False(t, r.From.After(r.Until), "lookback %d range %d inverted", lookback, i)
			assert.LessOrEqual(t, r.Days(), MaxRangeDays, "lookback %d range %d too wide", lookback, i)
			if i > 0 {
				// Contiguous, no gap, no overlap.
				assert.Equal(t, r.Until.AddDate(0, 0, 1), ranges[i-1].From,
					"lookback %d ranges %d/%d not contiguous", lookback, i-1, i)
			}
		}
	}
}

func TestChunks_Deterministic(t *testing.T) {
	a, err := Chunks(date(2026, 2, 1), 90)
	require.NoError(t, err)
	b, err := Chunks(date(2026, 2, 1), 90)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
