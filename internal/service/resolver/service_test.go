package resolver

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workpulse-hr/schedule-engine/internal/domain/absence"
	"github.com/workpulse-hr/schedule-engine/internal/domain/organization"
	"github.com/workpulse-hr/schedule-engine/internal/domain/schedule"
	"github.com/workpulse-hr/schedule-engine/internal/repository/memory"
)

const (
	testOrgID      = "org-1"
	testEmployeeID = "emp-1"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestService(store *memory.Store) *Service {
	return NewService(Stores{
		Templates:   store.TemplateRepo(),
		Assignments: store.AssignmentRepo(),
		Overrides:   store.OverrideRepo(),
		Absences:    store.AbsenceRepo(),
		Holidays:    store.HolidayRepo(),
	})
}

// weekdaySlots is Mon-Fri 09:00-18:00 with a 13:00-14:00 unpaid break:
// 8 expected hours per day.
func weekdaySlots() []schedule.TimeSlot {
	return []schedule.TimeSlot{
		{ID: "s1", StartMin: 9 * 60, EndMin: 13 * 60},
		{ID: "b1", StartMin: 13 * 60, EndMin: 14 * 60, IsBreak: true},
		{ID: "s2", StartMin: 14 * 60, EndMin: 18 * 60},
	}
}

func weekdayPatterns() []schedule.WorkDayPattern {
	patterns := make([]schedule.WorkDayPattern, 0, 7)
	for day := 1; day <= 7; day++ {
		p := schedule.WorkDayPattern{DayIndex: day, IsWorkingDay: day <= 5}
		if day <= 5 {
			p.Slots = weekdaySlots()
		}
		patterns = append(patterns, p)
	}
	return patterns
}

// seedFixedTemplate installs a FIXED template with one REGULAR period
// covering all of 2024, assigned to the test employee.
func seedFixedTemplate(store *memory.Store) {
	end := date(2025, time.January, 1)
	store.Templates["tpl-1"] = schedule.ScheduleTemplate{
		ID:          "tpl-1",
		OrgID:       testOrgID,
		Name:        "Office Mon-Fri",
		Type:        schedule.ScheduleTypeFixed,
		WeeklyHours: decimal.NewFromInt(40),
		Active:      true,
		Periods: []schedule.SchedulePeriod{
			{
				ID:          "per-regular",
				TemplateID:  "tpl-1",
				Type:        schedule.PeriodTypeRegular,
				StartDate:   date(2024, time.January, 1),
				EndDate:     &end,
				WeeklyHours: decimal.NewFromInt(40),
				CreatedAt:   date(2023, time.December, 1),
				Patterns:    weekdayPatterns(),
			},
		},
	}
	store.Assignments = append(store.Assignments, schedule.EmployeeScheduleAssignment{
		ID:         "asg-1",
		OrgID:      testOrgID,
		EmployeeID: testEmployeeID,
		TemplateID: "tpl-1",
		StartDate:  date(2024, time.January, 1),
		Active:     true,
		CreatedAt:  date(2023, time.December, 1),
	})
}

func TestResolve_NoAssignmentReturnsNone(t *testing.T) {
	t.Parallel()
	svc := newTestService(memory.NewStore())

	es, err := svc.Resolve(context.Background(), testEmployeeID, date(2024, time.March, 6), testOrgID)

	require.NoError(t, err)
	assert.False(t, es.IsWorkingDay)
	assert.True(t, es.HoursExpected.IsZero())
	assert.Equal(t, schedule.SourceNone, es.SourceLayer)
}

func TestResolve_MissingTemplateReturnsNone(t *testing.T) {
	t.Parallel()
	store := memory.NewStore()
	store.Assignments = append(store.Assignments, schedule.EmployeeScheduleAssignment{
		ID:         "asg-dangling",
		OrgID:      testOrgID,
		EmployeeID: testEmployeeID,
		TemplateID: "tpl-missing",
		StartDate:  date(2024, time.January, 1),
		Active:     true,
	})
	svc := newTestService(store)
	day := date(2024, time.March, 6)

	es, err := svc.Resolve(context.Background(), testEmployeeID, day, testOrgID)

	require.NoError(t, err)
	assert.False(t, es.IsWorkingDay)
	assert.True(t, es.HoursExpected.IsZero())
	assert.Equal(t, schedule.SourceNone, es.SourceLayer)

	// The range path must agree on the same data.
	week, err := svc.ResolveRange(context.Background(), testEmployeeID, day, day.AddDate(0, 0, 1), testOrgID)
	require.NoError(t, err)
	require.Len(t, week, 1)
	assert.Equal(t, es, week[0])
}

func TestResolve_RegularPeriodWeekday(t *testing.T) {
	t.Parallel()
	store := memory.NewStore()
	seedFixedTemplate(store)
	svc := newTestService(store)

	// 2024-03-06 is a Wednesday
	es, err := svc.Resolve(context.Background(), testEmployeeID, date(2024, time.March, 6), testOrgID)

	require.NoError(t, err)
	assert.True(t, es.IsWorkingDay)
	assert.Equal(t, "PERIOD:REGULAR", es.SourceLayer)
	assert.True(t, es.HoursExpected.Equal(decimal.NewFromInt(8)), "got %s", es.HoursExpected)
	require.NotNil(t, es.EntryMin)
	require.NotNil(t, es.ExitMin)
	assert.Equal(t, 9*60, *es.EntryMin)
	assert.Equal(t, 18*60, *es.ExitMin)
	require.NotNil(t, es.BreakStartMin)
	assert.Equal(t, 13*60, *es.BreakStartMin)
	assert.Equal(t, 14*60, *es.BreakEndMin)
}

func TestResolve_SaturdayIsNotWorked(t *testing.T) {
	t.Parallel()
	store := memory.NewStore()
	seedFixedTemplate(store)
	svc := newTestService(store)

	// 2024-03-09 is a Saturday
	es, err := svc.Resolve(context.Background(), testEmployeeID, date(2024, time.March, 9), testOrgID)

	require.NoError(t, err)
	assert.False(t, es.IsWorkingDay)
	assert.True(t, es.HoursExpected.IsZero())
	assert.Equal(t, "PERIOD:REGULAR", es.SourceLayer)
}

func TestResolve_AbsenceBeatsOverride(t *testing.T) {
	t.Parallel()
	store := memory.NewStore()
	seedFixedTemplate(store)
	day := date(2024, time.March, 6)
	end := day.AddDate(0, 0, 1)
	store.AbsenceReqs = append(store.AbsenceReqs, absence.AbsenceRequest{
		ID: "abs-1", OrgID: testOrgID, EmployeeID: testEmployeeID,
		Type: "vacation", StartDate: day, EndDate: &end, Status: "approved",
	})
	store.Overrides = append(store.Overrides, schedule.ExceptionDayOverride{
		ID: "ovr-1", OrgID: testOrgID, EmployeeID: testEmployeeID,
		Date: day, IsWorkingDay: true,
		Slots: []schedule.TimeSlot{{StartMin: 14 * 60, EndMin: 22 * 60}},
	})
	svc := newTestService(store)

	es, err := svc.Resolve(context.Background(), testEmployeeID, day, testOrgID)

	require.NoError(t, err)
	assert.Equal(t, schedule.SourceAbsence, es.SourceLayer)
	assert.False(t, es.IsWorkingDay)
}

func TestResolve_OverrideBeatsPeriod(t *testing.T) {
	t.Parallel()
	store := memory.NewStore()
	seedFixedTemplate(store)
	day := date(2024, time.March, 6)
	store.Overrides = append(store.Overrides, schedule.ExceptionDayOverride{
		ID: "ovr-1", OrgID: testOrgID, EmployeeID: testEmployeeID,
		Date: day, IsWorkingDay: true,
		Slots: []schedule.TimeSlot{{StartMin: 14 * 60, EndMin: 22 * 60}},
	})
	svc := newTestService(store)

	es, err := svc.Resolve(context.Background(), testEmployeeID, day, testOrgID)

	require.NoError(t, err)
	assert.Equal(t, schedule.SourceOverride, es.SourceLayer)
	assert.True(t, es.IsWorkingDay)
	assert.True(t, es.HoursExpected.Equal(decimal.NewFromInt(8)), "got %s", es.HoursExpected)
	assert.Equal(t, 14*60, *es.EntryMin)
	assert.Equal(t, 22*60, *es.ExitMin)
}

func TestResolve_NonWorkingOverride(t *testing.T) {
	t.Parallel()
	store := memory.NewStore()
	seedFixedTemplate(store)
	day := date(2024, time.March, 6)
	store.Overrides = append(store.Overrides, schedule.ExceptionDayOverride{
		ID: "ovr-1", OrgID: testOrgID, EmployeeID: testEmployeeID,
		Date: day, IsWorkingDay: false,
	})
	svc := newTestService(store)

	es, err := svc.Resolve(context.Background(), testEmployeeID, day, testOrgID)

	require.NoError(t, err)
	assert.Equal(t, schedule.SourceOverride, es.SourceLayer)
	assert.False(t, es.IsWorkingDay)
	assert.True(t, es.HoursExpected.IsZero())
}

func TestResolve_SpecialPeriodBeatsRegular(t *testing.T) {
	t.Parallel()
	store := memory.NewStore()
	seedFixedTemplate(store)

	// SPECIAL period over the same dates, shorter days, created first:
	// must win regardless of creation order.
	specialEnd := date(2024, time.April, 1)
	tpl := store.Templates["tpl-1"]
	tpl.Periods = append(tpl.Periods, schedule.SchedulePeriod{
		ID:         "per-special",
		TemplateID: "tpl-1",
		Type:       schedule.PeriodTypeSpecial,
		StartDate:  date(2024, time.March, 1),
		EndDate:    &specialEnd,
		WeeklyHours: decimal.NewFromInt(30),
		CreatedAt:  date(2023, time.June, 1),
		Patterns: []schedule.WorkDayPattern{
			{DayIndex: 3, IsWorkingDay: true, Slots: []schedule.TimeSlot{
				{StartMin: 10 * 60, EndMin: 16 * 60},
			}},
		},
	})
	store.Templates["tpl-1"] = tpl
	svc := newTestService(store)

	es, err := svc.Resolve(context.Background(), testEmployeeID, date(2024, time.March, 6), testOrgID)

	require.NoError(t, err)
	assert.Equal(t, "PERIOD:SPECIAL", es.SourceLayer)
	assert.True(t, es.HoursExpected.Equal(decimal.NewFromInt(6)), "got %s", es.HoursExpected)
}

func TestResolve_SameTypeNarrowerPeriodWins(t *testing.T) {
	t.Parallel()
	store := memory.NewStore()
	seedFixedTemplate(store)

	// Second REGULAR period, narrower, covering March only.
	narrowEnd := date(2024, time.April, 1)
	tpl := store.Templates["tpl-1"]
	tpl.Periods = append(tpl.Periods, schedule.SchedulePeriod{
		ID:         "per-march",
		TemplateID: "tpl-1",
		Type:       schedule.PeriodTypeRegular,
		StartDate:  date(2024, time.March, 1),
		EndDate:    &narrowEnd,
		WeeklyHours: decimal.NewFromInt(35),
		CreatedAt:  date(2023, time.January, 1),
		Patterns: []schedule.WorkDayPattern{
			{DayIndex: 3, IsWorkingDay: true, Slots: []schedule.TimeSlot{
				{StartMin: 8 * 60, EndMin: 15 * 60},
			}},
		},
	})
	store.Templates["tpl-1"] = tpl
	svc := newTestService(store)

	es, err := svc.Resolve(context.Background(), testEmployeeID, date(2024, time.March, 6), testOrgID)

	require.NoError(t, err)
	assert.Equal(t, "PERIOD:REGULAR", es.SourceLayer)
	assert.True(t, es.HoursExpected.Equal(decimal.NewFromInt(7)), "narrower period should win, got %s", es.HoursExpected)
}

func TestResolve_RotationCycle(t *testing.T) {
	t.Parallel()
	store := memory.NewStore()
	anchor := date(2024, time.January, 1)
	store.Templates["tpl-rot"] = schedule.ScheduleTemplate{
		ID:             "tpl-rot",
		OrgID:          testOrgID,
		Name:           "12-day rotation",
		Type:           schedule.ScheduleTypeRotation,
		CycleLengthDay: 12,
		AnchorDate:     &anchor,
		Active:         true,
		Periods: []schedule.SchedulePeriod{
			{
				ID:         "per-rot",
				TemplateID: "tpl-rot",
				Type:       schedule.PeriodTypeRegular,
				StartDate:  anchor,
				CreatedAt:  date(2023, time.December, 1),
				Patterns: []schedule.WorkDayPattern{
					// Work the first 4 cycle days, rest off.
					{DayIndex: 0, IsWorkingDay: true, Slots: []schedule.TimeSlot{{StartMin: 7 * 60, EndMin: 19 * 60}}},
					{DayIndex: 1, IsWorkingDay: true, Slots: []schedule.TimeSlot{{StartMin: 7 * 60, EndMin: 19 * 60}}},
					{DayIndex: 2, IsWorkingDay: true, Slots: []schedule.TimeSlot{{StartMin: 19 * 60, EndMin: 24 * 60}}},
					{DayIndex: 3, IsWorkingDay: true, Slots: []schedule.TimeSlot{{StartMin: 7 * 60, EndMin: 13 * 60}}},
				},
			},
		},
	}
	store.Assignments = append(store.Assignments, schedule.EmployeeScheduleAssignment{
		ID: "asg-rot", OrgID: testOrgID, EmployeeID: testEmployeeID,
		TemplateID: "tpl-rot", StartDate: anchor, Active: true,
	})
	svc := newTestService(store)
	ctx := context.Background()

	base, err := svc.Resolve(ctx, testEmployeeID, anchor, testOrgID)
	require.NoError(t, err)
	require.True(t, base.IsWorkingDay)

	// The pattern must round-trip for at least 5 full cycles.
	for cycle := 1; cycle <= 5; cycle++ {
		got, err := svc.Resolve(ctx, testEmployeeID, anchor.AddDate(0, 0, cycle*12), testOrgID)
		require.NoError(t, err)
		assert.Equalf(t, base.IsWorkingDay, got.IsWorkingDay, "cycle %d", cycle)
		assert.Truef(t, base.HoursExpected.Equal(got.HoursExpected), "cycle %d: %s != %s", cycle, base.HoursExpected, got.HoursExpected)
		assert.Equalf(t, *base.EntryMin, *got.EntryMin, "cycle %d", cycle)
	}

	// Day 5 of the cycle is off.
	off, err := svc.Resolve(ctx, testEmployeeID, anchor.AddDate(0, 0, 5), testOrgID)
	require.NoError(t, err)
	assert.False(t, off.IsWorkingDay)
}

func TestResolve_TemplateBaseLayerFallback(t *testing.T) {
	t.Parallel()
	store := memory.NewStore()
	seedFixedTemplate(store)

	// Query a date no period covers: falls back to the template default
	// patterns.
	tpl := store.Templates["tpl-1"]
	tpl.DefaultPatterns = weekdayPatterns()
	store.Templates["tpl-1"] = tpl
	svc := newTestService(store)

	es, err := svc.Resolve(context.Background(), testEmployeeID, date(2025, time.February, 5), testOrgID)

	require.NoError(t, err)
	assert.Equal(t, schedule.SourceTemplate, es.SourceLayer)
	assert.True(t, es.IsWorkingDay)
	assert.True(t, es.HoursExpected.Equal(decimal.NewFromInt(8)))
}

func TestResolve_HolidayOverlaySuppressesPeriod(t *testing.T) {
	t.Parallel()
	store := memory.NewStore()
	seedFixedTemplate(store)
	day := date(2024, time.March, 6)
	store.Holidays = append(store.Holidays, organization.Holiday{
		ID: "hol-1", OrgID: testOrgID, Date: day, Name: "Founders Day",
	})
	svc := newTestService(store)

	es, err := svc.Resolve(context.Background(), testEmployeeID, day, testOrgID)

	require.NoError(t, err)
	assert.False(t, es.IsWorkingDay)
	assert.True(t, es.IsHoliday)
	require.NotNil(t, es.HolidayName)
	assert.Equal(t, "Founders Day", *es.HolidayName)
	assert.True(t, es.HoursExpected.IsZero())
	assert.Equal(t, "PERIOD:REGULAR", es.SourceLayer)
}

func TestResolve_OverrideBeatsHoliday(t *testing.T) {
	t.Parallel()
	store := memory.NewStore()
	seedFixedTemplate(store)
	day := date(2024, time.March, 6)
	store.Holidays = append(store.Holidays, organization.Holiday{
		ID: "hol-1", OrgID: testOrgID, Date: day, Name: "Founders Day",
	})
	store.Overrides = append(store.Overrides, schedule.ExceptionDayOverride{
		ID: "ovr-1", OrgID: testOrgID, EmployeeID: testEmployeeID,
		Date: day, IsWorkingDay: true,
		Slots: []schedule.TimeSlot{{StartMin: 10 * 60, EndMin: 14 * 60}},
	})
	svc := newTestService(store)

	es, err := svc.Resolve(context.Background(), testEmployeeID, day, testOrgID)

	require.NoError(t, err)
	assert.True(t, es.IsWorkingDay, "explicit override must beat the holiday calendar")
	assert.True(t, es.IsHoliday)
	assert.Equal(t, schedule.SourceOverride, es.SourceLayer)
	assert.True(t, es.HoursExpected.Equal(decimal.NewFromInt(4)))
}

func TestResolve_OverlappingAssignmentsPickLatestStart(t *testing.T) {
	t.Parallel()
	store := memory.NewStore()
	seedFixedTemplate(store)

	// A second active assignment overlapping the first, starting later,
	// bound to a template with shorter days.
	store.Templates["tpl-2"] = schedule.ScheduleTemplate{
		ID:    "tpl-2",
		OrgID: testOrgID,
		Name:  "Part time",
		Type:  schedule.ScheduleTypeFixed,
		Periods: []schedule.SchedulePeriod{
			{
				ID: "per-pt", TemplateID: "tpl-2", Type: schedule.PeriodTypeRegular,
				StartDate: date(2024, time.January, 1),
				Patterns: []schedule.WorkDayPattern{
					{DayIndex: 3, IsWorkingDay: true, Slots: []schedule.TimeSlot{{StartMin: 9 * 60, EndMin: 13 * 60}}},
				},
			},
		},
	}
	store.Assignments = append(store.Assignments, schedule.EmployeeScheduleAssignment{
		ID: "asg-2", OrgID: testOrgID, EmployeeID: testEmployeeID,
		TemplateID: "tpl-2", StartDate: date(2024, time.February, 1), Active: true,
	})
	svc := newTestService(store)

	es, err := svc.Resolve(context.Background(), testEmployeeID, date(2024, time.March, 6), testOrgID)

	require.NoError(t, err)
	assert.True(t, es.HoursExpected.Equal(decimal.NewFromInt(4)), "assignment with latest start date must win, got %s", es.HoursExpected)
}

func TestResolve_CrossTenantIsolation(t *testing.T) {
	t.Parallel()
	store := memory.NewStore()
	seedFixedTemplate(store)
	svc := newTestService(store)

	es, err := svc.Resolve(context.Background(), testEmployeeID, date(2024, time.March, 6), "other-org")

	require.NoError(t, err)
	assert.Equal(t, schedule.SourceNone, es.SourceLayer)
}
