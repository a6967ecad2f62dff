package utils

import (
	"strings"
	"time"
)

const (
	LayoutDate  = "2006-01-02"
	layoutClock = "15:04"
)

// NowUTC returns current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// ParseDate parses YYYY-MM-DD as a UTC calendar day.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(LayoutDate, strings.TrimSpace(s), time.UTC)
}

// FormatDate formats time to YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(LayoutDate)
}

// ParseClock parses "9:00" or "09:00" into hour and minute.
func ParseClock(s string) (int, int, error) {
	s = strings.TrimSpace(s)
	if len(s) == 4 && s[1] == ':' {
		s = "0" + s
	}
	t, err := time.Parse(layoutClock, s)
	if err != nil {
		return 0, 0, err
	}
	return t.Hour(), t.Minute(), nil
}

// AtClock places hour:minute on the calendar day of d.
func AtClock(d time.Time, hour, minute int) time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day, hour, minute, 0, 0, d.Location())
}
