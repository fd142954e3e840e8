package compliance

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/workpulse-hr/schedule-engine/internal/domain/organization"
	"github.com/workpulse-hr/schedule-engine/internal/domain/schedule"
	"github.com/workpulse-hr/schedule-engine/internal/domain/timesheet"
)

// WeekCompliance aggregates one employee's scored days over a calendar
// week. Days keeps the input order, one element per resolved day.
type WeekCompliance struct {
	WeekStart     time.Time
	Days          []DayCompliance
	HoursExpected decimal.Decimal
	HoursWorked   decimal.Decimal
}

// Overtime is the worked surplus over the expected total, never
// negative. A short week is a compliance matter, not negative overtime.
func (w WeekCompliance) Overtime() decimal.Decimal {
	delta := w.HoursWorked.Sub(w.HoursExpected)
	if delta.IsNegative() {
		return decimal.Zero
	}
	return delta
}

// ComputeWeek scores every resolved day of a week against its recorded
// punches. entriesByDate is keyed by the midnight-truncated entry date.
func ComputeWeek(week []schedule.EffectiveSchedule, entriesByDate map[time.Time][]timesheet.TimeEntry, now time.Time, settings organization.Settings) WeekCompliance {
	wc := WeekCompliance{
		HoursExpected: decimal.Zero,
		HoursWorked:   decimal.Zero,
	}
	if len(week) > 0 {
		wc.WeekStart = week[0].Date
	}
	for _, es := range week {
		dc := ComputeDay(es, entriesByDate[es.Date], now, settings)
		wc.Days = append(wc.Days, dc)
		wc.HoursExpected = wc.HoursExpected.Add(dc.HoursExpected)
		wc.HoursWorked = wc.HoursWorked.Add(dc.HoursWorked)
	}
	return wc
}
