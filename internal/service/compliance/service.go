// Package compliance derives tolerance windows around an effective
// schedule and scores recorded punches against them. Everything here is
// pure computation; punches and settings are supplied by the caller.
package compliance

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/workpulse-hr/schedule-engine/internal/domain/organization"
	"github.com/workpulse-hr/schedule-engine/internal/domain/schedule"
	"github.com/workpulse-hr/schedule-engine/internal/domain/timesheet"
	"github.com/workpulse-hr/schedule-engine/internal/pkg/calendar"
)

const (
	StatusCompleted  = "COMPLETED"
	StatusInProgress = "IN_PROGRESS"
	StatusIncomplete = "INCOMPLETE"
	StatusAbsent     = "ABSENT"
	StatusNonWorkday = "NON_WORKDAY"
	StatusHoliday    = "HOLIDAY"
)

var sixty = decimal.NewFromInt(60)

// Window is the tolerance band around an expected punch. Latest is nil
// for clock-out windows: leaving late is never itself a violation, it
// only surfaces as overtime.
type Window struct {
	Earliest time.Time
	Expected time.Time
	Latest   *time.Time
}

// PunchCheck scores one punch against a window. DifferenceMinutes is
// signed, positive meaning after the expected time.
type PunchCheck struct {
	DifferenceMinutes int
	IsOutsideWindow   bool
}

// DayCompliance combines the resolved schedule with the day's punches.
type DayCompliance struct {
	Date               time.Time
	HoursExpected      decimal.Decimal
	HoursWorked        decimal.Decimal
	ComplianceRatio    decimal.Decimal
	Status             string
	HasClockedIn       bool
	HasClockedOut      bool
	IsAbsent           bool
	WorkedOnNonWorkday bool
}

// ClockInWindow builds the entry tolerance band, or nil when the day has
// no fixed entry time.
func ClockInWindow(es schedule.EffectiveSchedule, settings organization.Settings) *Window {
	if es.EntryMin == nil {
		return nil
	}
	loc := settings.Location()
	expected := calendar.AtMinute(es.Date, *es.EntryMin, loc)
	tolerance := time.Duration(settings.ToleranceMinutes) * time.Minute
	latest := expected.Add(tolerance)
	return &Window{
		Earliest: expected.Add(-tolerance),
		Expected: expected,
		Latest:   &latest,
	}
}

// ClockOutWindow builds the exit tolerance band, or nil when the day has
// no fixed exit time.
func ClockOutWindow(es schedule.EffectiveSchedule, settings organization.Settings) *Window {
	if es.ExitMin == nil {
		return nil
	}
	loc := settings.Location()
	expected := calendar.AtMinute(es.Date, *es.ExitMin, loc)
	tolerance := time.Duration(settings.ToleranceMinutes) * time.Minute
	return &Window{
		Earliest: expected.Add(-tolerance),
		Expected: expected,
	}
}

// ValidatePunch scores an actual punch timestamp against a window.
func ValidatePunch(punch time.Time, w Window) PunchCheck {
	diff := int(punch.Sub(w.Expected).Round(time.Minute) / time.Minute)
	outside := punch.Before(w.Earliest)
	if w.Latest != nil && punch.After(*w.Latest) {
		outside = true
	}
	return PunchCheck{DifferenceMinutes: diff, IsOutsideWindow: outside}
}

// ExpectedExitAt returns the instant the schedule expects the employee to
// leave, or nil for days without a fixed exit.
func ExpectedExitAt(es schedule.EffectiveSchedule, settings organization.Settings) *time.Time {
	if es.ExitMin == nil {
		return nil
	}
	t := calendar.AtMinute(es.Date, *es.ExitMin, settings.Location())
	return &t
}

// ComputeDay derives the day's compliance facts from the resolved
// schedule and the recorded time entries. Open entries count work up to
// now.
func ComputeDay(es schedule.EffectiveSchedule, entries []timesheet.TimeEntry, now time.Time, settings organization.Settings) DayCompliance {
	dc := DayCompliance{
		Date:            es.Date,
		HoursExpected:   es.HoursExpected,
		HoursWorked:     decimal.Zero,
		ComplianceRatio: decimal.Zero,
	}

	hasOpen := false
	for _, e := range entries {
		if e.ClockIn != nil {
			dc.HasClockedIn = true
		}
		if e.ClockOut != nil {
			dc.HasClockedOut = true
		}
		if e.IsOpen() {
			hasOpen = true
		}
	}

	dc.HoursWorked = minutesToHours(WorkedMinutes(es, entries, now, settings.Location()))
	if es.HoursExpected.IsPositive() {
		dc.ComplianceRatio = dc.HoursWorked.Div(es.HoursExpected)
		if dc.ComplianceRatio.IsNegative() {
			dc.ComplianceRatio = decimal.Zero
		}
	}

	if !es.IsWorkingDay {
		dc.WorkedOnNonWorkday = dc.HasClockedIn
		if es.IsHoliday {
			dc.Status = StatusHoliday
		} else {
			dc.Status = StatusNonWorkday
		}
		return dc
	}

	if !dc.HasClockedIn {
		if absenceElapsed(es, now, settings) {
			dc.IsAbsent = true
			dc.Status = StatusAbsent
		} else {
			dc.Status = StatusInProgress
		}
		return dc
	}

	switch {
	case dc.ComplianceRatio.GreaterThanOrEqual(settings.CompleteThreshold):
		dc.Status = StatusCompleted
	case dc.ComplianceRatio.LessThan(settings.IncompleteThreshold) && !hasOpen:
		dc.Status = StatusIncomplete
	default:
		// Between the thresholds, or still punched in: not settled yet.
		dc.Status = StatusInProgress
	}
	return dc
}

// absenceElapsed reports whether the day has gone long enough without a
// punch to count as an absence: the clock-in window's latest bound plus
// the configured margin has passed.
func absenceElapsed(es schedule.EffectiveSchedule, now time.Time, settings organization.Settings) bool {
	w := ClockInWindow(es, settings)
	if w == nil || w.Latest == nil {
		return false
	}
	margin := time.Duration(settings.AbsenceMarginMinutes) * time.Minute
	return now.After(w.Latest.Add(margin))
}

// WorkedMinutes sums punch pair durations, subtracting overlap with the
// schedule's break slots. Open entries count work up to now.
func WorkedMinutes(es schedule.EffectiveSchedule, entries []timesheet.TimeEntry, now time.Time, loc *time.Location) int {
	type span struct{ start, end time.Time }
	var breaks []span
	for _, s := range es.Slots {
		if s.IsBreak {
			breaks = append(breaks, span{
				start: calendar.AtMinute(es.Date, s.StartMin, loc),
				end:   calendar.AtMinute(es.Date, s.EndMin, loc),
			})
		}
	}

	total := time.Duration(0)
	for _, e := range entries {
		if e.ClockIn == nil {
			continue
		}
		in := *e.ClockIn
		out := now
		if e.ClockOut != nil {
			out = *e.ClockOut
		}
		if !out.After(in) {
			continue
		}
		total += out.Sub(in)
		for _, b := range breaks {
			total -= overlapDuration(in, out, b.start, b.end)
		}
	}
	return int(total / time.Minute)
}

func overlapDuration(aStart, aEnd, bStart, bEnd time.Time) time.Duration {
	start := aStart
	if bStart.After(start) {
		start = bStart
	}
	end := aEnd
	if bEnd.Before(end) {
		end = bEnd
	}
	if !end.After(start) {
		return 0
	}
	return end.Sub(start)
}

func minutesToHours(mins int) decimal.Decimal {
	if mins < 0 {
		mins = 0
	}
	return decimal.NewFromInt(int64(mins)).Div(sixty)
}
