package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/workpulse-hr/schedule-engine/internal/domain/absence"
	"github.com/workpulse-hr/schedule-engine/internal/domain/organization"
	"github.com/workpulse-hr/schedule-engine/internal/domain/schedule"
	"github.com/workpulse-hr/schedule-engine/internal/pkg/calendar"
)

// rangeSnapshot holds one round trip worth of configuration for a whole
// date range, so per-day resolution never touches the store again.
type rangeSnapshot struct {
	assignments []schedule.EmployeeScheduleAssignment
	templates   map[string]schedule.ScheduleTemplate
	overrides   map[time.Time]schedule.ExceptionDayOverride
	absences    []absence.AbsenceRequest
	holidays    map[time.Time]organization.Holiday
}

// ResolveRange resolves one schedule per calendar day in [start, end).
// Templates, periods and assignments are loaded once per distinct
// assignment touched, not once per day; the per-day results are identical
// to calling Resolve day by day.
func (s *Service) ResolveRange(ctx context.Context, employeeID string, start, end time.Time, orgID string) ([]schedule.EffectiveSchedule, error) {
	start = calendar.DateOnly(start)
	end = calendar.DateOnly(end)
	if !start.Before(end) {
		return []schedule.EffectiveSchedule{}, nil
	}

	snap, err := s.loadRangeSnapshot(ctx, employeeID, start, end, orgID)
	if err != nil {
		return nil, err
	}

	days := calendar.DaysBetween(start, end)
	results := make([]schedule.EffectiveSchedule, 0, days)
	for date := start; date.Before(end); date = date.AddDate(0, 0, 1) {
		results = append(results, resolveDay(date, snap.dayInputs(employeeID, orgID, date)))
	}
	return results, nil
}

func (s *Service) loadRangeSnapshot(ctx context.Context, employeeID string, start, end time.Time, orgID string) (rangeSnapshot, error) {
	snap := rangeSnapshot{
		overrides: map[time.Time]schedule.ExceptionDayOverride{},
		holidays:  map[time.Time]organization.Holiday{},
	}

	asgs, err := s.stores.Assignments.GetActiveInRange(ctx, employeeID, start, end, orgID)
	if err != nil {
		return snap, fmt.Errorf("failed to get assignments in range: %w", err)
	}
	snap.assignments = asgs

	templateIDs := make([]string, 0, len(asgs))
	seen := map[string]bool{}
	for _, a := range asgs {
		if !seen[a.TemplateID] {
			seen[a.TemplateID] = true
			templateIDs = append(templateIDs, a.TemplateID)
		}
	}
	if len(templateIDs) > 0 {
		templates, err := s.stores.Templates.GetByIDs(ctx, templateIDs, orgID)
		if err != nil {
			return snap, fmt.Errorf("failed to get templates in range: %w", err)
		}
		snap.templates = templates
	}

	overrides, err := s.stores.Overrides.GetInRange(ctx, employeeID, start, end, orgID)
	if err != nil {
		return snap, fmt.Errorf("failed to get overrides in range: %w", err)
	}
	for _, o := range overrides {
		snap.overrides[calendar.DateOnly(o.Date)] = o
	}

	absences, err := s.stores.Absences.GetApprovedInRange(ctx, employeeID, start, end, orgID)
	if err != nil {
		return snap, fmt.Errorf("failed to get absences in range: %w", err)
	}
	snap.absences = absences

	holidays, err := s.stores.Holidays.GetInRange(ctx, orgID, start, end)
	if err != nil {
		return snap, fmt.Errorf("failed to get holidays in range: %w", err)
	}
	for _, h := range holidays {
		snap.holidays[calendar.DateOnly(h.Date)] = h
	}

	return snap, nil
}

// dayInputs slices the snapshot down to one day, mirroring exactly what
// loadDayInputs fetches for the single-day path.
func (snap rangeSnapshot) dayInputs(employeeID, orgID string, date time.Time) dayInputs {
	in := dayInputs{employeeID: employeeID, orgID: orgID}

	for i := range snap.absences {
		if snap.absences[i].Covers(date) {
			in.absence = &snap.absences[i]
			break
		}
	}
	if o, ok := snap.overrides[date]; ok {
		in.override = &o
	}
	if h, ok := snap.holidays[date]; ok {
		in.holiday = &h
	}

	var covering []schedule.EmployeeScheduleAssignment
	for _, a := range snap.assignments {
		if a.Covers(date) {
			covering = append(covering, a)
		}
	}
	if asg := pickAssignment(covering, employeeID, orgID, date); asg != nil {
		in.assignment = asg
		if tpl, ok := snap.templates[asg.TemplateID]; ok {
			in.template = &tpl
		}
	}
	return in
}
