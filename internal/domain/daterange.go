package domain

import "time"

// DateRange is an inclusive calendar-date range, From <= Until. Immutable
// once produced by the chunker.
type DateRange struct {
	From  time.Time
	Until time.Time
}

// Days returns the difference Until-From in whole days. A single-day range
// returns 0.
func (r DateRange) Days() int {
	return int(r.Until.Sub(r.From).Hours() / 24)
}

// String renders the range as "YYYY-MM-DD..YYYY-MM-DD".
func (r DateRange) String() string {
	return r.From.Format("2006-01-02") + ".." + r.Until.Format("2006-01-02")
}
