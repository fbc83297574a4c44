package common

import "time"

// DateLayout is the canonical calendar-date key used across the weather cache
// and the persisted weather records.
const DateLayout = "2006-01-02"

// TruncateDay reduces t to its calendar day. The Y/M/D are read in t's own
// location (server-local for time.Now values; weather days are keyed by the
// server's calendar) and then pinned to UTC midnight so the value survives
// database roundtrips intact.
func TruncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DateKey formats t as a YYYY-MM-DD map key.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// DaysBetween returns the number of whole calendar days from start to end
// after day truncation. Zero when both fall on the same day.
func DaysBetween(start, end time.Time) int {
	s := TruncateDay(start)
	e := TruncateDay(end)
	return int(e.Sub(s).Hours() / 24)
}

// DaysInRange returns every calendar day from start through end inclusive,
// truncated, in ascending order. An inverted range yields nil.
func DaysInRange(start, end time.Time) []time.Time {
	s := TruncateDay(start)
	e := TruncateDay(end)
	if e.Before(s) {
		return nil
	}
	days := make([]time.Time, 0, DaysBetween(s, e)+1)
	for d := s; !d.After(e); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
