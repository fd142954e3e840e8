package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDayOfWeek(t *testing.T) {
	t.Parallel()

	// 2024-01-01 is a Monday
	assert.Equal(t, 1, DayOfWeek(date(2024, time.January, 1)))
	assert.Equal(t, 3, DayOfWeek(date(2024, time.January, 3)))
	assert.Equal(t, 7, DayOfWeek(date(2024, time.January, 7)))
}

func TestStartEndOfWeek(t *testing.T) {
	t.Parallel()

	wed := date(2024, time.January, 3)
	assert.Equal(t, date(2024, time.January, 1), StartOfWeek(wed))
	assert.Equal(t, date(2024, time.January, 7), EndOfWeek(wed))

	// Monday and Sunday are their own boundaries
	assert.Equal(t, date(2024, time.January, 1), StartOfWeek(date(2024, time.January, 1)))
	assert.Equal(t, date(2024, time.January, 1), StartOfWeek(date(2024, time.January, 7)))
}

func TestDaysBetween(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 12, DaysBetween(date(2024, time.January, 1), date(2024, time.January, 13)))
	assert.Equal(t, -5, DaysBetween(date(2024, time.January, 10), date(2024, time.January, 5)))
	assert.Equal(t, 0, DaysBetween(date(2024, time.January, 1), date(2024, time.January, 1)))

	// Timestamps with a time-of-day component still count whole days.
	a := time.Date(2024, time.March, 30, 23, 0, 0, 0, time.UTC)
	b := time.Date(2024, time.March, 31, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, DaysBetween(a, b))
}

func TestOverlaps(t *testing.T) {
	t.Parallel()

	jan10 := date(2024, time.January, 10)
	jan20 := date(2024, time.January, 20)

	// [1,10) and [10,20) share no day: closed-open semantics
	assert.False(t, Overlaps(date(2024, time.January, 1), &jan10, jan10, &jan20))
	assert.True(t, Overlaps(date(2024, time.January, 1), &jan20, jan10, nil))

	// Both unbounded always overlap
	assert.True(t, Overlaps(date(2024, time.January, 1), nil, date(2030, time.June, 1), nil))
}

func TestContains(t *testing.T) {
	t.Parallel()

	end := date(2024, time.February, 1)
	assert.True(t, Contains(date(2024, time.January, 1), &end, date(2024, time.January, 31)))
	assert.False(t, Contains(date(2024, time.January, 1), &end, date(2024, time.February, 1)))
	assert.True(t, Contains(date(2024, time.January, 1), nil, date(2030, time.January, 1)))
	assert.False(t, Contains(date(2024, time.January, 1), nil, date(2023, time.December, 31)))
}

func TestCycleDayIndex(t *testing.T) {
	t.Parallel()

	anchor := date(2024, time.January, 1)

	assert.Equal(t, 0, CycleDayIndex(anchor, anchor, 12))
	assert.Equal(t, 11, CycleDayIndex(anchor, date(2024, time.January, 12), 12))
	assert.Equal(t, 0, CycleDayIndex(anchor, date(2024, time.January, 13), 12))

	// Targets before the anchor wrap around instead of going negative.
	assert.Equal(t, 11, CycleDayIndex(anchor, date(2023, time.December, 31), 12))

	assert.Equal(t, -1, CycleDayIndex(anchor, anchor, 0))
}

func TestCycleDayIndexRoundTripsAcrossCycles(t *testing.T) {
	t.Parallel()

	anchor := date(2024, time.January, 1)
	for cycle := 1; cycle <= 5; cycle++ {
		target := anchor.AddDate(0, 0, cycle*12)
		assert.Equalf(t, 0, CycleDayIndex(anchor, target, 12), "cycle %d", cycle)
	}
}

func TestAtMinute(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("Europe/Madrid")
	require.NoError(t, err)

	got := AtMinute(date(2024, time.January, 3), 9*60+30, loc)
	assert.Equal(t, 9, got.Hour())
	assert.Equal(t, 30, got.Minute())
	assert.Equal(t, loc, got.Location())
}

func TestFormatMinute(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "09:00", FormatMinute(540))
	assert.Equal(t, "14:05", FormatMinute(845))
	assert.Equal(t, "00:00", FormatMinute(0))
}
