package schedule

import (
	"time"

	"github.com/shopspring/decimal"
)

// SourceLayer records which configuration layer produced a resolved
// schedule. Required for auditability; tests assert on it.
const (
	SourceNone     = "NONE"
	SourceAbsence  = "ABSENCE"
	SourceOverride = "OVERRIDE"
	SourceTemplate = "TEMPLATE"
	// Period layers render as "PERIOD:<type>", e.g. "PERIOD:SPECIAL".
	sourcePeriodPrefix = "PERIOD:"
)

// SourcePeriod renders the source layer tag for a period type.
func SourcePeriod(t PeriodType) string { return sourcePeriodPrefix + string(t) }

// EffectiveSchedule is the single resolved set of expected working hours
// for one employee on one date, after applying all priority layers. It is
// derived, never persisted.
type EffectiveSchedule struct {
	Date          time.Time
	IsWorkingDay  bool
	IsHoliday     bool
	HolidayName   *string
	HoursExpected decimal.Decimal

	// Expected entry/exit and the main break window, as minutes from
	// midnight in the organization's timezone. Nil on non-working days
	// and for slotless flexible schedules.
	EntryMin      *int
	ExitMin       *int
	BreakStartMin *int
	BreakEndMin   *int

	Slots []TimeSlot

	PeriodType        PeriodType
	PeriodWeeklyHours decimal.Decimal
	SourceLayer       string
}

// NoSchedule is the total-function fallback: no assignment, no layers,
// nothing expected.
func NoSchedule(date time.Time) EffectiveSchedule {
	return EffectiveSchedule{
		Date:          date,
		IsWorkingDay:  false,
		HoursExpected: decimal.Zero,
		SourceLayer:   SourceNone,
	}
}
