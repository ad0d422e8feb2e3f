// Package daterange splits a lookback window into sub-ranges the portal's
// transaction search endpoint can answer in one call.
package daterange

import (
	"fmt"
	"time"

	"github.com/dvloznov/cardsync/internal/domain"
)

// MaxRangeDays is the widest span (Until-From) the portal accepts per
// search request.
const MaxRangeDays = 30

// Chunks splits [today-lookbackDays, today] into inclusive ranges of at most
// MaxRangeDays each, ordered newest-first. The sequence is contiguous with
// no gaps or overlaps: each older range ends the day before the next newer
// one starts. Pure and deterministic for a fixed today.
func Chunks(today time.Time, lookbackDays int) ([]domain.DateRange, error) {
	if lookbackDays <= 0 {
		return nil, fmt.Errorf("lookback days must be positive, got %d", lookbackDays)
	}

	today = truncateToDate(today)
	cutoff := today.AddDate(0, 0, -lookbackDays)

	var ranges []domain.DateRange
	for from := cutoff; !from.After(today); from = from.AddDate(0, 0, MaxRangeDays+1) {
		until := from.AddDate(0, 0, MaxRangeDays)
		if until.After(today) {
			until = today
		}
		ranges = append(ranges, domain.DateRange{From: from, Until: until})
	}

	// Newest-first: the fetch loop reports progress against a fixed total
	// starting with the range the user cares about most.
	for i, j := 0, len(ranges)-1; i < j; i, j = i+1, j-1 {
		ranges[i], ranges[j] = ranges[j], ranges[i]
	}
	return ranges, nil
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
