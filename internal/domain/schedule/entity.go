package schedule

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/workpulse-hr/schedule-engine/internal/pkg/calendar"
)

type ScheduleType string

const (
	ScheduleTypeFixed    ScheduleType = "FIXED"
	ScheduleTypeShift    ScheduleType = "SHIFT"
	ScheduleTypeRotation ScheduleType = "ROTATION"
	ScheduleTypeFlexible ScheduleType = "FLEXIBLE"
)

var ScheduleTypeValues = []string{
	string(ScheduleTypeFixed),
	string(ScheduleTypeShift),
	string(ScheduleTypeRotation),
	string(ScheduleTypeFlexible),
}

type PeriodType string

const (
	PeriodTypeRegular   PeriodType = "REGULAR"
	PeriodTypeIntensive PeriodType = "INTENSIVE"
	PeriodTypeSummer    PeriodType = "SUMMER"
	PeriodTypeHoliday   PeriodType = "HOLIDAY"
	PeriodTypeSpecial   PeriodType = "SPECIAL"
)

// periodPriority orders period types when more than one covers a date.
// Higher wins.
var periodPriority = map[PeriodType]int{
	PeriodTypeRegular:   1,
	PeriodTypeSummer:    2,
	PeriodTypeHoliday:   3,
	PeriodTypeIntensive: 4,
	PeriodTypeSpecial:   5,
}

func (p PeriodType) Priority() int { return periodPriority[p] }

// ScheduleTemplate is a reusable schedule definition owned by an
// organization. ROTATION templates address their day patterns by cycle-day
// index anchored at AnchorDate; every other type addresses them by ISO
// weekday.
type ScheduleTemplate struct {
	ID             string
	OrgID          string
	Name           string
	Type           ScheduleType
	WeeklyHours    decimal.Decimal
	CycleLengthDay int        // rotation only, e.g. 12
	AnchorDate     *time.Time // rotation only, cycle day 0
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time

	Periods []SchedulePeriod
	// DefaultPatterns is the template base layer: an implicit REGULAR
	// period spanning the whole template, used when no period covers the
	// queried date.
	DefaultPatterns []WorkDayPattern
}

// SchedulePeriod is a time-bounded refinement of a template. EndDate nil
// means open-ended. Periods of the same type within one template must not
// overlap; overlapping different-type periods resolve by type priority,
// then narrowest date range, then most recent creation.
type SchedulePeriod struct {
	ID          string
	TemplateID  string
	Type        PeriodType
	StartDate   time.Time
	EndDate     *time.Time
	WeeklyHours decimal.Decimal
	CreatedAt   time.Time

	Patterns []WorkDayPattern
}

// Covers reports whether the period's [StartDate, EndDate) contains date.
func (p SchedulePeriod) Covers(date time.Time) bool {
	return calendar.Contains(p.StartDate, p.EndDate, date)
}

// SpanDays returns the width of the period in days, or -1 when open-ended.
// Narrower periods beat wider ones on a type-priority tie.
func (p SchedulePeriod) SpanDays() int {
	if p.EndDate == nil {
		return -1
	}
	return calendar.DaysBetween(p.StartDate, *p.EndDate)
}

// WorkDayPattern marks one day of a period (or of the template base) as
// working or not, and owns the day's time slots. DayIndex is the ISO
// weekday (1=Monday..7=Sunday) for weekly templates, or the zero-based
// cycle-day index for ROTATION templates.
type WorkDayPattern struct {
	ID           string
	DayIndex     int
	IsWorkingDay bool
	Slots        []TimeSlot
}

// WorkedMinutes sums the non-break slot durations.
func (p WorkDayPattern) WorkedMinutes() int {
	total := 0
	for _, s := range p.Slots {
		if !s.IsBreak {
			total += s.DurationMinutes()
		}
	}
	return total
}

// TimeSlot is a local time-of-day range within one working day, expressed
// as minutes from midnight. Split shifts carry several slots; unpaid
// breaks carry IsBreak.
type TimeSlot struct {
	ID       string
	StartMin int
	EndMin   int
	IsBreak  bool
}

func (s TimeSlot) DurationMinutes() int { return s.EndMin - s.StartMin }

// EmployeeScheduleAssignment binds an employee to a template over
// [StartDate, EndDate). At most one active assignment may cover a given
// employee+date; violations are resolved by the latest StartDate and
// logged as a data-quality warning.
type EmployeeScheduleAssignment struct {
	ID         string
	OrgID      string
	EmployeeID string
	TemplateID string
	StartDate  time.Time
	EndDate    *time.Time
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (a EmployeeScheduleAssignment) Covers(date time.Time) bool {
	return calendar.Contains(a.StartDate, a.EndDate, date)
}

// ExceptionDayOverride replaces the resolved schedule for one employee on
// one date. Either IsWorkingDay is false with no slots, or the override's
// own slots are authoritative.
type ExceptionDayOverride struct {
	ID           string
	OrgID        string
	EmployeeID   string
	Date         time.Time
	IsWorkingDay bool
	Reason       string
	Slots        []TimeSlot
	CreatedAt    time.Time
}

// WorkedMinutes sums the override's non-break slot durations.
func (o ExceptionDayOverride) WorkedMinutes() int {
	total := 0
	for _, s := range o.Slots {
		if !s.IsBreak {
			total += s.DurationMinutes()
		}
	}
	return total
}
