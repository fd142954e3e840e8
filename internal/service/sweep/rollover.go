package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/workpulse-hr/schedule-engine/internal/domain/alert"
	"github.com/workpulse-hr/schedule-engine/internal/domain/organization"
	"github.com/workpulse-hr/schedule-engine/internal/domain/schedule"
	"github.com/workpulse-hr/schedule-engine/internal/domain/timesheet"
	"github.com/workpulse-hr/schedule-engine/internal/pkg/calendar"
	"github.com/workpulse-hr/schedule-engine/internal/service/compliance"
)

// ProcessOpenPunchRollover closes yesterday's (and earlier) forgotten
// punches at their expected exit time. Entries on days without a fixed
// exit stay open and raise an INCOMPLETE_ENTRY alert instead. Passing
// lookbackDays <= 0 uses the organization default.
func (s *Service) ProcessOpenPunchRollover(ctx context.Context, orgID string, lookbackDays int) (Result, error) {
	result := Result{Job: JobOpenPunchRollover, OrgID: orgID}

	settings, err := s.orgSettings(ctx, orgID)
	if err != nil {
		return result, err
	}
	if lookbackDays <= 0 {
		lookbackDays = settings.RolloverLookbackDays
	}

	now := s.now()
	today := calendar.DateOnly(now.In(settings.Location()))
	windowStart := today.AddDate(0, 0, -lookbackDays)

	open, err := s.stores.Entries.GetOpenEntriesBefore(ctx, orgID, today)
	if err != nil {
		return result, fmt.Errorf("list open entries for org %s: %w", orgID, err)
	}

	byEmployee := groupByEmployee(open)
	var processed, skipped atomic.Int64

	result.Failed = s.forEachEmployee(ctx, JobOpenPunchRollover, orgID, settings.SweepConcurrency, employeeKeys(byEmployee), func(ctx context.Context, employeeID string) error {
		for _, entry := range byEmployee[employeeID] {
			if entry.Date.Before(windowStart) {
				// Beyond the rollover lookback; the safety-close sweep owns it.
				skipped.Add(1)
				continue
			}
			if err := s.rolloverEntry(ctx, entry, settings, now); err != nil {
				return err
			}
			processed.Add(1)
		}
		return nil
	})

	result.Processed = int(processed.Load())
	result.Skipped = int(skipped.Load())
	logResult(result)
	return result, nil
}

func (s *Service) rolloverEntry(ctx context.Context, entry timesheet.TimeEntry, settings organization.Settings, now time.Time) error {
	es, err := s.resolver.Resolve(ctx, entry.EmployeeID, entry.Date, entry.OrgID)
	if err != nil {
		return fmt.Errorf("resolve schedule for entry %s: %w", entry.ID, err)
	}

	exitAt := compliance.ExpectedExitAt(es, settings)
	if exitAt == nil || entry.ClockIn == nil || !exitAt.After(*entry.ClockIn) {
		// The schedule gives no usable end for this day. Leave the entry
		// open and surface it; Create dedups per employee+type+day.
		_, err := s.stores.Alerts.Create(ctx, alert.Alert{
			ID:         uuid.NewString(),
			OrgID:      entry.OrgID,
			EmployeeID: entry.EmployeeID,
			Type:       alert.TypeIncompleteEntry,
			Severity:   alert.SeverityWarning,
			Date:       entry.Date,
			Metadata:   map[string]string{"entry_id": entry.ID},
			Active:     true,
			CreatedAt:  now,
		})
		if err != nil {
			return fmt.Errorf("create incomplete entry alert for %s: %w", entry.ID, err)
		}
		return nil
	}

	closed := entry
	closed.ClockOut = exitAt
	worked := compliance.WorkedMinutes(es, []timesheet.TimeEntry{closed}, now, settings.Location())
	closed.WorkedMinutes = &worked
	closed.Status = timesheet.EntryStatusAutoClosed
	reason := "rolled over to expected exit"
	closed.CloseReason = &reason

	if err := s.stores.Entries.Close(ctx, closed); err != nil {
		if errors.Is(err, timesheet.ErrEntryAlreadyClosed) {
			return nil
		}
		return fmt.Errorf("close entry %s: %w", entry.ID, err)
	}
	slog.Info("rolled over open punch",
		slog.String("org_id", entry.OrgID),
		slog.String("employee_id", entry.EmployeeID),
		slog.String("entry_id", entry.ID),
		slog.Time("closed_at", *exitAt))

	return s.reconcileDay(ctx, es, entry.EmployeeID, entry.OrgID, settings, now)
}

// reconcileDay recomputes and upserts the workday summary after a close
// mutated the day's entries.
func (s *Service) reconcileDay(ctx context.Context, es schedule.EffectiveSchedule, employeeID, orgID string, settings organization.Settings, now time.Time) error {
	entries, err := s.stores.Entries.GetForEmployeeRange(ctx, employeeID, es.Date, es.Date.AddDate(0, 0, 1), orgID)
	if err != nil {
		return fmt.Errorf("load entries for summary: %w", err)
	}
	dc := compliance.ComputeDay(es, entries, now, settings)
	return s.upsertSummary(ctx, es, dc, employeeID, orgID, now)
}

func (s *Service) upsertSummary(ctx context.Context, es schedule.EffectiveSchedule, dc compliance.DayCompliance, employeeID, orgID string, now time.Time) error {
	err := s.stores.Summaries.Upsert(ctx, timesheet.WorkdaySummary{
		OrgID:           orgID,
		EmployeeID:      employeeID,
		Date:            dc.Date,
		HoursExpected:   dc.HoursExpected,
		HoursWorked:     dc.HoursWorked,
		ComplianceRatio: dc.ComplianceRatio,
		Status:          dc.Status,
		SourceLayer:     es.SourceLayer,
		HasClockedIn:    dc.HasClockedIn,
		HasClockedOut:   dc.HasClockedOut,
		IsAbsent:        dc.IsAbsent,
		UpdatedAt:       now,
	})
	if err != nil {
		return fmt.Errorf("upsert workday summary: %w", err)
	}
	if dc.WorkedOnNonWorkday {
		_, err = s.stores.Alerts.Create(ctx, alert.Alert{
			ID:         uuid.NewString(),
			OrgID:      orgID,
			EmployeeID: employeeID,
			Type:       alert.TypeWorkOnNonWorkday,
			Severity:   alert.SeverityWarning,
			Date:       dc.Date,
			Metadata:   map[string]string{"hours_worked": dc.HoursWorked.String()},
			Active:     true,
			CreatedAt:  now,
		})
		if err != nil {
			return fmt.Errorf("create non-workday alert: %w", err)
		}
	}
	return nil
}

// ProcessSafetyClose force-closes punches open beyond the hard ceiling,
// regardless of what the schedule says, to bound exposure from forgotten
// clock-outs. Rollover normally gets there first; this is the backstop.
func (s *Service) ProcessSafetyClose(ctx context.Context, orgID string) (Result, error) {
	result := Result{Job: JobSafetyClose, OrgID: orgID}

	settings, err := s.orgSettings(ctx, orgID)
	if err != nil {
		return result, err
	}

	now := s.now()
	ceiling := time.Duration(settings.SafetyCloseCeilingHours) * time.Hour
	cutoff := now.Add(-ceiling)

	open, err := s.stores.Entries.GetOpenEntriesBefore(ctx, orgID, cutoff)
	if err != nil {
		return result, fmt.Errorf("list open entries for org %s: %w", orgID, err)
	}

	byEmployee := groupByEmployee(open)
	var processed, skipped atomic.Int64

	result.Failed = s.forEachEmployee(ctx, JobSafetyClose, orgID, settings.SweepConcurrency, employeeKeys(byEmployee), func(ctx context.Context, employeeID string) error {
		for _, entry := range byEmployee[employeeID] {
			if entry.ClockIn == nil || entry.ClockIn.After(cutoff) {
				skipped.Add(1)
				continue
			}
			if err := s.safetyCloseEntry(ctx, entry, ceiling, now); err != nil {
				return err
			}
			processed.Add(1)
		}
		return nil
	})

	result.Processed = int(processed.Load())
	result.Skipped = int(skipped.Load())
	logResult(result)
	return result, nil
}

func (s *Service) safetyCloseEntry(ctx context.Context, entry timesheet.TimeEntry, ceiling time.Duration, now time.Time) error {
	closedAt := entry.ClockIn.Add(ceiling)
	worked := int(ceiling / time.Minute)
	closed := entry
	closed.ClockOut = &closedAt
	closed.WorkedMinutes = &worked
	closed.Status = timesheet.EntryStatusSafetyClosed
	reason := "force closed at safety ceiling"
	closed.CloseReason = &reason

	if err := s.stores.Entries.Close(ctx, closed); err != nil {
		if errors.Is(err, timesheet.ErrEntryAlreadyClosed) {
			return nil
		}
		return fmt.Errorf("safety close entry %s: %w", entry.ID, err)
	}
	slog.Warn("safety closed open punch",
		slog.String("org_id", entry.OrgID),
		slog.String("employee_id", entry.EmployeeID),
		slog.String("entry_id", entry.ID),
		slog.Time("clock_in", *entry.ClockIn))

	_, err := s.stores.Alerts.Create(ctx, alert.Alert{
		ID:         uuid.NewString(),
		OrgID:      entry.OrgID,
		EmployeeID: entry.EmployeeID,
		Type:       alert.TypeSafetyClose,
		Severity:   alert.SeverityCritical,
		Date:       entry.Date,
		Metadata:   map[string]string{"entry_id": entry.ID},
		Active:     true,
		CreatedAt:  now,
	})
	if err != nil {
		return fmt.Errorf("create safety close alert for %s: %w", entry.ID, err)
	}
	return nil
}
