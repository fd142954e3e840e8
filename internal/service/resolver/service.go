// Package resolver implements the effective-schedule resolution engine:
// given an employee and a date it reconciles absences, day overrides,
// schedule periods and the template base into a single EffectiveSchedule.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/workpulse-hr/schedule-engine/internal/domain/absence"
	"github.com/workpulse-hr/schedule-engine/internal/domain/organization"
	"github.com/workpulse-hr/schedule-engine/internal/domain/schedule"
	"github.com/workpulse-hr/schedule-engine/internal/pkg/calendar"
)

var sixty = decimal.NewFromInt(60)

// Stores bundles the read-only pattern store the resolver consumes. It is
// injected explicitly so tests run against in-memory fixtures.
type Stores struct {
	Templates   schedule.TemplateRepository
	Assignments schedule.AssignmentRepository
	Overrides   schedule.OverrideRepository
	Absences    absence.Repository
	Holidays    organization.HolidayRepository
}

type Service struct {
	stores Stores
}

func NewService(stores Stores) *Service {
	return &Service{stores: stores}
}

// dayInputs is everything a single day's resolution needs, prefetched so
// the layer chain itself stays pure.
type dayInputs struct {
	employeeID string
	orgID      string
	assignment *schedule.EmployeeScheduleAssignment
	template   *schedule.ScheduleTemplate
	override   *schedule.ExceptionDayOverride
	absence    *absence.AbsenceRequest
	holiday    *organization.Holiday
}

// layer is one step of the priority chain. A nil result means "no
// decision here, fall through".
type layer struct {
	name    string
	resolve func(date time.Time, in dayInputs) *schedule.EffectiveSchedule
}

// layers is the priority chain as data: first non-nil result wins.
var layers = []layer{
	{name: "absence", resolve: absenceLayer},
	{name: "override", resolve: overrideLayer},
	{name: "period", resolve: periodLayer},
	{name: "template", resolve: templateLayer},
}

// Resolve returns the effective schedule for one employee on one date.
// It is a total function: missing configuration maps to the NONE result,
// only storage failures surface as errors.
func (s *Service) Resolve(ctx context.Context, employeeID string, date time.Time, orgID string) (schedule.EffectiveSchedule, error) {
	date = calendar.DateOnly(date)

	in, err := s.loadDayInputs(ctx, employeeID, date, orgID)
	if err != nil {
		return schedule.EffectiveSchedule{}, err
	}
	return resolveDay(date, in), nil
}

func (s *Service) loadDayInputs(ctx context.Context, employeeID string, date time.Time, orgID string) (dayInputs, error) {
	in := dayInputs{employeeID: employeeID, orgID: orgID}

	abs, err := s.stores.Absences.GetApprovedCovering(ctx, employeeID, date, orgID)
	if err != nil {
		return in, fmt.Errorf("failed to get absence for date: %w", err)
	}
	in.absence = abs

	ovr, err := s.stores.Overrides.GetForDate(ctx, employeeID, date, orgID)
	if err != nil {
		return in, fmt.Errorf("failed to get override for date: %w", err)
	}
	in.override = ovr

	asgs, err := s.stores.Assignments.GetActiveCovering(ctx, employeeID, date, orgID)
	if err != nil {
		return in, fmt.Errorf("failed to get active assignments: %w", err)
	}
	if asg := pickAssignment(asgs, employeeID, orgID, date); asg != nil {
		in.assignment = asg
		tpl, err := s.stores.Templates.GetByID(ctx, asg.TemplateID, orgID)
		switch {
		case err == nil:
			in.template = &tpl
		case errors.Is(err, schedule.ErrTemplateNotFound):
			// Assignment points at a deleted template. Data integrity
			// violation, handled like no configuration at all.
			slog.Warn("active assignment references missing template",
				"employee_id", employeeID,
				"org_id", orgID,
				"assignment_id", asg.ID,
				"template_id", asg.TemplateID,
			)
		default:
			return in, fmt.Errorf("failed to get template %s: %w", asg.TemplateID, err)
		}
	}

	hol, err := s.stores.Holidays.GetForDate(ctx, orgID, date)
	if err != nil {
		return in, fmt.Errorf("failed to get holiday for date: %w", err)
	}
	in.holiday = hol

	return in, nil
}

// pickAssignment tie-breaks overlapping active assignments: latest
// StartDate wins, then latest CreatedAt. Overlap is a data integrity
// violation logged as a warning, never an error.
func pickAssignment(asgs []schedule.EmployeeScheduleAssignment, employeeID, orgID string, date time.Time) *schedule.EmployeeScheduleAssignment {
	if len(asgs) == 0 {
		return nil
	}
	if len(asgs) > 1 {
		slog.Warn("overlapping active schedule assignments, picking latest start date",
			"employee_id", employeeID,
			"org_id", orgID,
			"date", date.Format("2006-01-02"),
			"count", len(asgs),
		)
	}
	winner := asgs[0]
	for _, a := range asgs[1:] {
		if a.StartDate.After(winner.StartDate) ||
			(a.StartDate.Equal(winner.StartDate) && a.CreatedAt.After(winner.CreatedAt)) {
			winner = a
		}
	}
	return &winner
}

// resolveDay applies the priority chain and the holiday overlay. Pure.
func resolveDay(date time.Time, in dayInputs) schedule.EffectiveSchedule {
	result := schedule.NoSchedule(date)
	for _, l := range layers {
		if es := l.resolve(date, in); es != nil {
			result = *es
			break
		}
	}
	return applyHolidayOverlay(result, in.holiday)
}

// applyHolidayOverlay marks the institutional holiday and suppresses the
// working day unless an explicit per-employee override won: an override
// on a specific day is assumed intentional and beats the generic holiday
// calendar.
func applyHolidayOverlay(es schedule.EffectiveSchedule, hol *organization.Holiday) schedule.EffectiveSchedule {
	if hol == nil {
		return es
	}
	es.IsHoliday = true
	name := hol.Name
	es.HolidayName = &name
	if es.SourceLayer == schedule.SourceOverride {
		return es
	}
	es.IsWorkingDay = false
	es.HoursExpected = decimal.Zero
	es.EntryMin, es.ExitMin = nil, nil
	es.BreakStartMin, es.BreakEndMin = nil, nil
	es.Slots = nil
	return es
}

func absenceLayer(date time.Time, in dayInputs) *schedule.EffectiveSchedule {
	if in.absence == nil {
		return nil
	}
	es := schedule.NoSchedule(date)
	es.SourceLayer = schedule.SourceAbsence
	return &es
}

func overrideLayer(date time.Time, in dayInputs) *schedule.EffectiveSchedule {
	ovr := in.override
	if ovr == nil {
		return nil
	}
	es := schedule.EffectiveSchedule{
		Date:          date,
		IsWorkingDay:  ovr.IsWorkingDay,
		HoursExpected: decimal.Zero,
		SourceLayer:   schedule.SourceOverride,
	}
	if ovr.IsWorkingDay {
		es.HoursExpected = minutesToHours(ovr.WorkedMinutes())
		fillSlotTimes(&es, ovr.Slots)
	}
	return &es
}

func periodLayer(date time.Time, in dayInputs) *schedule.EffectiveSchedule {
	if in.template == nil {
		return nil
	}
	period := pickPeriod(in.template.Periods, date, in.employeeID, in.orgID)
	if period == nil {
		return nil
	}
	es := scheduleFromPatterns(date, in.template, period.Patterns, period.WeeklyHours)
	es.PeriodType = period.Type
	es.PeriodWeeklyHours = period.WeeklyHours
	es.SourceLayer = schedule.SourcePeriod(period.Type)
	return &es
}

func templateLayer(date time.Time, in dayInputs) *schedule.EffectiveSchedule {
	tpl := in.template
	if tpl == nil || len(tpl.DefaultPatterns) == 0 {
		return nil
	}
	es := scheduleFromPatterns(date, tpl, tpl.DefaultPatterns, tpl.WeeklyHours)
	es.PeriodType = schedule.PeriodTypeRegular
	es.PeriodWeeklyHours = tpl.WeeklyHours
	es.SourceLayer = schedule.SourceTemplate
	return &es
}

// pickPeriod selects the winning period among those covering date: type
// priority first, then the most specific (narrowest) date range, then the
// most recently created. Overlapping same-type periods are a data
// integrity violation resolved by the same ordering.
func pickPeriod(periods []schedule.SchedulePeriod, date time.Time, employeeID, orgID string) *schedule.SchedulePeriod {
	var covering []schedule.SchedulePeriod
	byType := map[schedule.PeriodType]int{}
	for _, p := range periods {
		if p.Covers(date) {
			covering = append(covering, p)
			byType[p.Type]++
		}
	}
	if len(covering) == 0 {
		return nil
	}
	for t, n := range byType {
		if n > 1 {
			slog.Warn("overlapping schedule periods of the same type",
				"employee_id", employeeID,
				"org_id", orgID,
				"date", date.Format("2006-01-02"),
				"period_type", string(t),
			)
		}
	}
	sort.SliceStable(covering, func(i, j int) bool {
		a, b := covering[i], covering[j]
		if a.Type.Priority() != b.Type.Priority() {
			return a.Type.Priority() > b.Type.Priority()
		}
		if spanOrMax(a) != spanOrMax(b) {
			return spanOrMax(a) < spanOrMax(b)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return &covering[0]
}

func spanOrMax(p schedule.SchedulePeriod) int {
	if span := p.SpanDays(); span >= 0 {
		return span
	}
	return math.MaxInt
}

// scheduleFromPatterns resolves the day pattern for date out of a pattern
// set, addressing by cycle-day index for rotation templates and by ISO
// weekday otherwise. A missing pattern means the day is not worked.
func scheduleFromPatterns(date time.Time, tpl *schedule.ScheduleTemplate, patterns []schedule.WorkDayPattern, weeklyHours decimal.Decimal) schedule.EffectiveSchedule {
	es := schedule.EffectiveSchedule{
		Date:          date,
		HoursExpected: decimal.Zero,
	}

	dayIndex := calendar.DayOfWeek(date)
	if tpl.Type == schedule.ScheduleTypeRotation {
		if tpl.AnchorDate == nil || tpl.CycleLengthDay <= 0 {
			slog.Warn("rotation template missing anchor or cycle length, treating day as non-working",
				"template_id", tpl.ID, "org_id", tpl.OrgID)
			return es
		}
		dayIndex = calendar.CycleDayIndex(*tpl.AnchorDate, date, tpl.CycleLengthDay)
	}

	var pattern *schedule.WorkDayPattern
	workingDays := 0
	for i := range patterns {
		if patterns[i].IsWorkingDay {
			workingDays++
		}
		if patterns[i].DayIndex == dayIndex {
			pattern = &patterns[i]
		}
	}
	if pattern == nil || !pattern.IsWorkingDay {
		return es
	}

	es.IsWorkingDay = true
	if len(pattern.Slots) > 0 {
		es.HoursExpected = minutesToHours(pattern.WorkedMinutes())
		fillSlotTimes(&es, pattern.Slots)
		return es
	}

	// Flexible day without fixed slots: spread the weekly hours evenly
	// over the pattern's working days.
	if workingDays == 0 {
		workingDays = 5
	}
	es.HoursExpected = weeklyHours.Div(decimal.NewFromInt(int64(workingDays)))
	return es
}

// fillSlotTimes derives entry/exit and the first break window from a
// day's slots.
func fillSlotTimes(es *schedule.EffectiveSchedule, slots []schedule.TimeSlot) {
	es.Slots = slots
	for _, s := range slots {
		if s.IsBreak {
			if es.BreakStartMin == nil {
				start, end := s.StartMin, s.EndMin
				es.BreakStartMin, es.BreakEndMin = &start, &end
			}
			continue
		}
		start, end := s.StartMin, s.EndMin
		if es.EntryMin == nil || start < *es.EntryMin {
			es.EntryMin = &start
		}
		if es.ExitMin == nil || end > *es.ExitMin {
			es.ExitMin = &end
		}
	}
}

func minutesToHours(mins int) decimal.Decimal {
	return decimal.NewFromInt(int64(mins)).Div(sixty)
}
