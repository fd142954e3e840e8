// Package calendar provides date-only arithmetic used by schedule
// resolution: ISO weekdays, week boundaries, closed-open range overlap
// and rotation cycle indexing. All functions are pure; time-of-day is
// handled separately as minutes from midnight.
package calendar

import (
	"fmt"
	"time"
)

// DateOnly truncates t to midnight UTC. All date comparisons in the
// engine operate on values normalized this way.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a normalized date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format, use YYYY-MM-DD: %w", err)
	}
	return DateOnly(t), nil
}

// DayOfWeek returns the ISO weekday: 1=Monday .. 7=Sunday.
func DayOfWeek(date time.Time) int {
	wd := int(date.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// StartOfWeek returns the Monday of the week containing date.
func StartOfWeek(date time.Time) time.Time {
	d := DateOnly(date)
	return d.AddDate(0, 0, -(DayOfWeek(d) - 1))
}

// EndOfWeek returns the Sunday of the week containing date.
func EndOfWeek(date time.Time) time.Time {
	return StartOfWeek(date).AddDate(0, 0, 6)
}

// DaysBetween returns the number of whole calendar days from a to b.
// Negative when b is before a. Computation stays on normalized dates so
// DST transitions never shift the count.
func DaysBetween(a, b time.Time) int {
	return int(DateOnly(b).Sub(DateOnly(a)).Hours() / 24)
}

// Overlaps reports whether the closed-open ranges [aStart, aEnd) and
// [bStart, bEnd) intersect. A nil end means the range is unbounded.
func Overlaps(aStart time.Time, aEnd *time.Time, bStart time.Time, bEnd *time.Time) bool {
	if aEnd != nil && !DateOnly(*aEnd).After(DateOnly(bStart)) {
		return false
	}
	if bEnd != nil && !DateOnly(*bEnd).After(DateOnly(aStart)) {
		return false
	}
	return true
}

// Contains reports whether date falls inside the closed-open range
// [start, end), with nil end meaning unbounded.
func Contains(start time.Time, end *time.Time, date time.Time) bool {
	d := DateOnly(date)
	if d.Before(DateOnly(start)) {
		return false
	}
	if end != nil && !d.Before(DateOnly(*end)) {
		return false
	}
	return true
}

// CycleDayIndex maps target onto a repeating cycle of cycleLength days
// anchored at anchor. The result is always in [0, cycleLength), also for
// targets before the anchor (floored modulo). Returns -1 when cycleLength
// is not positive.
func CycleDayIndex(anchor, target time.Time, cycleLength int) int {
	if cycleLength <= 0 {
		return -1
	}
	idx := DaysBetween(anchor, target) % cycleLength
	if idx < 0 {
		idx += cycleLength
	}
	return idx
}

// AtMinute combines a date with a minute-of-day offset in the given
// location, yielding the wall-clock instant of that time on that day.
func AtMinute(date time.Time, minuteOfDay int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := DateOnly(date).Date()
	return time.Date(y, m, d, 0, minuteOfDay, 0, 0, loc)
}

// FormatMinute renders a minute-of-day offset as HH:MM.
func FormatMinute(minuteOfDay int) string {
	return fmt.Sprintf("%02d:%02d", minuteOfDay/60, minuteOfDay%60)
}
