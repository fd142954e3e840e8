package sweep

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workpulse-hr/schedule-engine/internal/domain/alert"
	"github.com/workpulse-hr/schedule-engine/internal/domain/overtime"
	"github.com/workpulse-hr/schedule-engine/internal/domain/schedule"
	"github.com/workpulse-hr/schedule-engine/internal/domain/timesheet"
	"github.com/workpulse-hr/schedule-engine/internal/repository/memory"
	"github.com/workpulse-hr/schedule-engine/internal/service/resolver"
)

const (
	testOrgID      = "org-1"
	testEmployeeID = "emp-1"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestService(store *memory.Store, now time.Time) *Service {
	res := resolver.NewService(resolver.Stores{
		Templates:   store.TemplateRepo(),
		Assignments: store.AssignmentRepo(),
		Overrides:   store.OverrideRepo(),
		Absences:    store.AbsenceRepo(),
		Holidays:    store.HolidayRepo(),
	})
	return NewService(res, Stores{
		Settings:       store.SettingsRepo(),
		Entries:        store.TimeEntryRepo(),
		Summaries:      store.SummaryRepo(),
		OnCall:         store.OnCallRepo(),
		Alerts:         store.AlertRepo(),
		Authorizations: store.AuthorizationRepo(),
		TimeBank:       store.TimeBankRepo(),
	}, func() time.Time { return now })
}

// Mon-Fri 09:00-18:00 with a 13:00-14:00 unpaid break, all of 2024.
func seedFixedTemplate(store *memory.Store) {
	slots := []schedule.TimeSlot{
		{ID: "s1", StartMin: 9 * 60, EndMin: 13 * 60},
		{ID: "b1", StartMin: 13 * 60, EndMin: 14 * 60, IsBreak: true},
		{ID: "s2", StartMin: 14 * 60, EndMin: 18 * 60},
	}
	patterns := make([]schedule.WorkDayPattern, 0, 7)
	for day := 1; day <= 7; day++ {
		p := schedule.WorkDayPattern{DayIndex: day, IsWorkingDay: day <= 5}
		if day <= 5 {
			p.Slots = slots
		}
		patterns = append(patterns, p)
	}
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
				Patterns:    patterns,
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
	store.EmployeeIDs[testOrgID] = []string{testEmployeeID}
}

func alertsOfType(store *memory.Store, typ alert.Type) []alert.Alert {
	var out []alert.Alert
	for _, a := range store.Alerts {
		if a.Type == typ {
			out = append(out, a)
		}
	}
	return out
}

func seedOpenEntry(store *memory.Store, day time.Time, clockInMin int) timesheet.TimeEntry {
	in := day.Add(time.Duration(clockInMin) * time.Minute)
	return store.AddEntry(timesheet.TimeEntry{
		OrgID:      testOrgID,
		EmployeeID: testEmployeeID,
		Date:       day,
		ClockIn:    &in,
	})
}

func seedClosedEntry(store *memory.Store, day time.Time, inMin, outMin int) timesheet.TimeEntry {
	in := day.Add(time.Duration(inMin) * time.Minute)
	out := day.Add(time.Duration(outMin) * time.Minute)
	return store.AddEntry(timesheet.TimeEntry{
		OrgID:      testOrgID,
		EmployeeID: testEmployeeID,
		Date:       day,
		ClockIn:    &in,
		ClockOut:   &out,
		Status:     timesheet.EntryStatusClosed,
	})
}

func TestRollover_IgnoresEntryWithoutClockIn(t *testing.T) {
	store := memory.NewStore()
	seedFixedTemplate(store)
	wednesday := date(2024, time.June, 12)
	// Broken import: an open entry with no punch-in timestamp at all.
	entry := store.AddEntry(timesheet.TimeEntry{
		OrgID:      testOrgID,
		EmployeeID: testEmployeeID,
		Date:       wednesday,
	})

	now := date(2024, time.June, 13).Add(10 * time.Hour)
	svc := newTestService(store, now)

	result, err := svc.ProcessOpenPunchRollover(context.Background(), testOrgID, 0)
	require.NoError(t, err)
	assert.Zero(t, result.Processed)
	assert.Zero(t, result.Failed)
	untouched := store.Entries[entry.ID]
	assert.Equal(t, timesheet.EntryStatusOpen, untouched.Status)
	assert.Nil(t, untouched.ClockOut)
}

func TestRollover_ClosesAtExpectedExit(t *testing.T) {
	store := memory.NewStore()
	seedFixedTemplate(store)
	wednesday := date(2024, time.June, 12)
	entry := seedOpenEntry(store, wednesday, 9*60)

	now := date(2024, time.June, 13).Add(10 * time.Hour)
	svc := newTestService(store, now)

	result, err := svc.ProcessOpenPunchRollover(context.Background(), testOrgID, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Zero(t, result.Failed)

	closed := store.Entries[entry.ID]
	require.NotNil(t, closed.ClockOut)
	assert.Equal(t, wednesday.Add(18*time.Hour), *closed.ClockOut)
	assert.Equal(t, timesheet.EntryStatusAutoClosed, closed.Status)
	require.NotNil(t, closed.WorkedMinutes)
	assert.Equal(t, 480, *closed.WorkedMinutes) // 09:00-18:00 minus the break

	summaries, err := store.SummaryRepo().GetForEmployeeRange(context.Background(), testEmployeeID, wednesday, wednesday.AddDate(0, 0, 1), testOrgID)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "COMPLETED", summaries[0].Status)
	assert.True(t, summaries[0].HoursWorked.Equal(decimal.NewFromInt(8)), "got %s", summaries[0].HoursWorked)
}

func TestRollover_RunningTwiceChangesNothing(t *testing.T) {
	store := memory.NewStore()
	seedFixedTemplate(store)
	wednesday := date(2024, time.June, 12)
	entry := seedOpenEntry(store, wednesday, 9*60)

	now := date(2024, time.June, 13).Add(10 * time.Hour)
	svc := newTestService(store, now)

	first, err := svc.ProcessOpenPunchRollover(context.Background(), testOrgID, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Processed)
	closedAfterFirst := store.Entries[entry.ID]

	second, err := svc.ProcessOpenPunchRollover(context.Background(), testOrgID, 0)
	require.NoError(t, err)
	assert.Zero(t, second.Processed)
	assert.Equal(t, closedAfterFirst, store.Entries[entry.ID])
	assert.Empty(t, store.Alerts)
}

func TestRollover_NoExitLeavesOpenWithAlert(t *testing.T) {
	store := memory.NewStore()
	seedFixedTemplate(store)
	saturday := date(2024, time.June, 15) // non-working day, no expected exit
	entry := seedOpenEntry(store, saturday, 10*60)

	now := date(2024, time.June, 16).Add(9 * time.Hour)
	svc := newTestService(store, now)

	_, err := svc.ProcessOpenPunchRollover(context.Background(), testOrgID, 0)
	require.NoError(t, err)
	_, err = svc.ProcessOpenPunchRollover(context.Background(), testOrgID, 0)
	require.NoError(t, err)

	assert.True(t, store.Entries[entry.ID].IsOpen())
	incomplete := alertsOfType(store, alert.TypeIncompleteEntry)
	require.Len(t, incomplete, 1)
	assert.Equal(t, testEmployeeID, incomplete[0].EmployeeID)
	assert.Equal(t, entry.ID, incomplete[0].Metadata["entry_id"])
}

func TestRollover_SkipsEntriesOlderThanLookback(t *testing.T) {
	store := memory.NewStore()
	seedFixedTemplate(store)
	stale := seedOpenEntry(store, date(2024, time.June, 3), 9*60)

	now := date(2024, time.June, 13).Add(10 * time.Hour)
	svc := newTestService(store, now)

	result, err := svc.ProcessOpenPunchRollover(context.Background(), testOrgID, 3)
	require.NoError(t, err)
	assert.Zero(t, result.Processed)
	assert.Equal(t, 1, result.Skipped)
	assert.True(t, store.Entries[stale.ID].IsOpen())
}

func TestSafetyClose_ForceClosesAtCeiling(t *testing.T) {
	store := memory.NewStore()
	seedFixedTemplate(store)
	monday := date(2024, time.June, 10)
	old := seedOpenEntry(store, monday, 9*60)            // open ~49h by now
	fresh := seedOpenEntry(store, date(2024, time.June, 12), 9*60) // open ~1h

	now := date(2024, time.June, 12).Add(10 * time.Hour)
	svc := newTestService(store, now)

	result, err := svc.ProcessSafetyClose(context.Background(), testOrgID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)

	closed := store.Entries[old.ID]
	assert.Equal(t, timesheet.EntryStatusSafetyClosed, closed.Status)
	require.NotNil(t, closed.ClockOut)
	assert.Equal(t, monday.Add(9*time.Hour).Add(24*time.Hour), *closed.ClockOut)
	assert.True(t, store.Entries[fresh.ID].IsOpen())

	critical := alertsOfType(store, alert.TypeSafetyClose)
	require.Len(t, critical, 1)
	assert.Equal(t, alert.SeverityCritical, critical[0].Severity)
}

func seedWorkedWeek(store *memory.Store, weekStart time.Time, outMin int) {
	// Mon-Fri entries, 09:00 to outMin.
	for i := 0; i < 5; i++ {
		seedClosedEntry(store, weekStart.AddDate(0, 0, i), 9*60, outMin)
	}
}

func TestWeeklyOvertime_UnauthorizedRaisesAlert(t *testing.T) {
	store := memory.NewStore()
	seedFixedTemplate(store)
	weekStart := date(2024, time.June, 10)
	seedWorkedWeek(store, weekStart, 19*60) // 9h/day worked, 8h expected

	now := date(2024, time.June, 17).Add(8 * time.Hour)
	svc := newTestService(store, now)

	result, err := svc.ProcessWeeklyOvertime(context.Background(), testOrgID, weekStart)
	require.NoError(t, err)
	assert.Zero(t, result.Processed)
	assert.Zero(t, result.Failed)

	overtimeAlerts := alertsOfType(store, alert.TypeOvertime)
	require.Len(t, overtimeAlerts, 1)
	assert.Equal(t, "5", overtimeAlerts[0].Metadata["overtime_hours"])
	assert.Empty(t, store.TimeBank)
}

func TestWeeklyOvertime_AuthorizedAccruesOnce(t *testing.T) {
	store := memory.NewStore()
	seedFixedTemplate(store)
	weekStart := date(2024, time.June, 10)
	seedWorkedWeek(store, weekStart, 19*60)
	store.Authorizations["auth-1"] = overtime.OverworkAuthorization{
		ID:         "auth-1",
		OrgID:      testOrgID,
		EmployeeID: testEmployeeID,
		WeekStart:  weekStart,
		MaxHours:   decimal.NewFromInt(10),
		Status:     overtime.AuthorizationApproved,
		ValidUntil: date(2024, time.June, 30),
	}

	now := date(2024, time.June, 17).Add(8 * time.Hour)
	svc := newTestService(store, now)

	first, err := svc.ProcessWeeklyOvertime(context.Background(), testOrgID, weekStart)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Processed)

	second, err := svc.ProcessWeeklyOvertime(context.Background(), testOrgID, weekStart)
	require.NoError(t, err)
	assert.Zero(t, second.Processed)

	require.Len(t, store.TimeBank, 1)
	balance, err := store.TimeBankRepo().GetBalanceHours(context.Background(), testEmployeeID, testOrgID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(5)), "got %s", balance)
	assert.Empty(t, alertsOfType(store, alert.TypeOvertime))
}

func TestWeeklyOvertime_CapExceededRaisesAlertInstead(t *testing.T) {
	store := memory.NewStore()
	seedFixedTemplate(store)
	weekStart := date(2024, time.June, 10)
	seedWorkedWeek(store, weekStart, 19*60) // 5h over
	store.Authorizations["auth-1"] = overtime.OverworkAuthorization{
		ID:         "auth-1",
		OrgID:      testOrgID,
		EmployeeID: testEmployeeID,
		WeekStart:  weekStart,
		MaxHours:   decimal.NewFromInt(2),
		Status:     overtime.AuthorizationApproved,
		ValidUntil: date(2024, time.June, 30),
	}

	svc := newTestService(store, date(2024, time.June, 17).Add(8*time.Hour))

	_, err := svc.ProcessWeeklyOvertime(context.Background(), testOrgID, weekStart)
	require.NoError(t, err)

	assert.Empty(t, store.TimeBank)
	assert.Len(t, alertsOfType(store, alert.TypeOvertime), 1)
}

func TestWeeklyOvertime_NoOvertimeWritesSummariesOnly(t *testing.T) {
	store := memory.NewStore()
	seedFixedTemplate(store)
	weekStart := date(2024, time.June, 10)
	seedWorkedWeek(store, weekStart, 18*60) // exactly the expected 8h/day

	svc := newTestService(store, date(2024, time.June, 17).Add(8*time.Hour))

	_, err := svc.ProcessWeeklyOvertime(context.Background(), testOrgID, weekStart)
	require.NoError(t, err)

	assert.Empty(t, store.TimeBank)
	assert.Empty(t, store.Alerts)
	summaries, err := store.SummaryRepo().GetForEmployeeRange(context.Background(), testEmployeeID, weekStart, weekStart.AddDate(0, 0, 7), testOrgID)
	require.NoError(t, err)
	assert.Len(t, summaries, 7)
}

func TestAuthorizationExpiry_MovesPendingToExpired(t *testing.T) {
	store := memory.NewStore()
	store.Authorizations["auth-stale"] = overtime.OverworkAuthorization{
		ID: "auth-stale", OrgID: testOrgID, EmployeeID: testEmployeeID,
		WeekStart:  date(2024, time.May, 6),
		Status:     overtime.AuthorizationPending,
		ValidUntil: date(2024, time.May, 20),
	}
	store.Authorizations["auth-approved"] = overtime.OverworkAuthorization{
		ID: "auth-approved", OrgID: testOrgID, EmployeeID: testEmployeeID,
		WeekStart:  date(2024, time.May, 13),
		Status:     overtime.AuthorizationApproved,
		ValidUntil: date(2024, time.May, 20),
	}

	svc := newTestService(store, date(2024, time.June, 1))

	result, err := svc.ProcessAuthorizationExpiry(context.Background(), testOrgID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)

	assert.Equal(t, overtime.AuthorizationExpired, store.Authorizations["auth-stale"].Status)
	assert.Equal(t, overtime.AuthorizationApproved, store.Authorizations["auth-approved"].Status)
}

func seedOnCall(store *memory.Store, id string, start, end time.Time, ivStart, ivEnd *time.Time) {
	store.OnCall[id] = timesheet.OnCallInterval{
		ID:                id,
		OrgID:             testOrgID,
		EmployeeID:        testEmployeeID,
		Start:             start,
		End:               end,
		InterventionStart: ivStart,
		InterventionEnd:   ivEnd,
		Category:          timesheet.OnCallCategoryUnsettled,
	}
}

func TestOnCallSettlement_Categorizes(t *testing.T) {
	store := memory.NewStore()
	seedFixedTemplate(store)
	wednesday := date(2024, time.June, 12)
	saturday := date(2024, time.June, 15)

	// No intervention at all.
	seedOnCall(store, "oc-standby", wednesday.Add(19*time.Hour), wednesday.Add(23*time.Hour), nil, nil)

	// Intervention during the scheduled afternoon slot.
	inStart := wednesday.Add(15 * time.Hour)
	inEnd := wednesday.Add(16 * time.Hour)
	seedOnCall(store, "oc-inside", wednesday.Add(9*time.Hour), wednesday.Add(18*time.Hour), &inStart, &inEnd)

	// Intervention late in the evening, outside any slot.
	outStart := wednesday.Add(22 * time.Hour)
	outEnd := wednesday.Add(23 * time.Hour)
	seedOnCall(store, "oc-evening", wednesday.Add(18*time.Hour), wednesday.Add(23*time.Hour), &outStart, &outEnd)

	// Intervention on a non-working Saturday.
	satStart := saturday.Add(11 * time.Hour)
	satEnd := saturday.Add(12 * time.Hour)
	seedOnCall(store, "oc-weekend", saturday.Add(8*time.Hour), saturday.Add(20*time.Hour), &satStart, &satEnd)

	svc := newTestService(store, date(2024, time.June, 16))

	result, err := svc.ProcessOnCallSettlement(context.Background(), testOrgID)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Processed)
	assert.Zero(t, result.Failed)

	assert.Equal(t, timesheet.OnCallCategoryStandbyOnly, store.OnCall["oc-standby"].Category)
	assert.Equal(t, timesheet.OnCallCategoryInsideHours, store.OnCall["oc-inside"].Category)
	assert.Equal(t, timesheet.OnCallCategoryOutsideHours, store.OnCall["oc-evening"].Category)
	assert.Equal(t, timesheet.OnCallCategoryOutsideHours, store.OnCall["oc-weekend"].Category)

	for _, id := range []string{"oc-standby", "oc-inside", "oc-evening", "oc-weekend"} {
		assert.NotNil(t, store.OnCall[id].SettledAt, id)
	}
}
