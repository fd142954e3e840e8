package sweep

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/workpulse-hr/schedule-engine/internal/domain/schedule"
	"github.com/workpulse-hr/schedule-engine/internal/domain/timesheet"
	"github.com/workpulse-hr/schedule-engine/internal/pkg/calendar"
)

// ProcessOnCallSettlement categorizes finished on-call intervals. An
// intervention overlapping the employee's scheduled working slots is
// compensated differently from one outside them; intervals without an
// intervention settle as standby only.
func (s *Service) ProcessOnCallSettlement(ctx context.Context, orgID string) (Result, error) {
	result := Result{Job: JobOnCallSettlement, OrgID: orgID}

	settings, err := s.orgSettings(ctx, orgID)
	if err != nil {
		return result, err
	}

	now := s.now()
	intervals, err := s.stores.OnCall.GetUnsettledBefore(ctx, orgID, now)
	if err != nil {
		return result, fmt.Errorf("list unsettled on-call intervals for org %s: %w", orgID, err)
	}

	byEmployee := make(map[string][]timesheet.OnCallInterval)
	for _, iv := range intervals {
		byEmployee[iv.EmployeeID] = append(byEmployee[iv.EmployeeID], iv)
	}
	ids := make([]string, 0, len(byEmployee))
	for id := range byEmployee {
		ids = append(ids, id)
	}

	var processed atomic.Int64
	loc := settings.Location()

	result.Failed = s.forEachEmployee(ctx, JobOnCallSettlement, orgID, settings.SweepConcurrency, ids, func(ctx context.Context, employeeID string) error {
		for _, iv := range byEmployee[employeeID] {
			category, err := s.categorizeInterval(ctx, iv, loc)
			if err != nil {
				return err
			}
			if err := s.stores.OnCall.Settle(ctx, iv.ID, orgID, category, now); err != nil {
				return fmt.Errorf("settle interval %s: %w", iv.ID, err)
			}
			processed.Add(1)
		}
		return nil
	})

	result.Processed = int(processed.Load())
	logResult(result)
	return result, nil
}

func (s *Service) categorizeInterval(ctx context.Context, iv timesheet.OnCallInterval, loc *time.Location) (string, error) {
	if iv.InterventionStart == nil || iv.InterventionEnd == nil {
		return timesheet.OnCallCategoryStandbyOnly, nil
	}

	day := calendar.DateOnly(iv.InterventionStart.In(loc))
	es, err := s.resolver.Resolve(ctx, iv.EmployeeID, day, iv.OrgID)
	if err != nil {
		return "", fmt.Errorf("resolve schedule for interval %s: %w", iv.ID, err)
	}

	if interventionInsideSchedule(es, *iv.InterventionStart, *iv.InterventionEnd, loc) {
		return timesheet.OnCallCategoryInsideHours, nil
	}
	return timesheet.OnCallCategoryOutsideHours, nil
}

// interventionInsideSchedule reports whether the intervention overlaps
// any scheduled working slot of the resolved day. Break slots do not
// count as scheduled hours.
func interventionInsideSchedule(es schedule.EffectiveSchedule, start, end time.Time, loc *time.Location) bool {
	if !es.IsWorkingDay {
		return false
	}
	for _, slot := range es.Slots {
		if slot.IsBreak {
			continue
		}
		slotStart := calendar.AtMinute(es.Date, slot.StartMin, loc)
		slotEnd := calendar.AtMinute(es.Date, slot.EndMin, loc)
		if start.Before(slotEnd) && end.After(slotStart) {
			return true
		}
	}
	// Slotless flexible days count the entry/exit window when present.
	if len(es.Slots) == 0 && es.EntryMin != nil && es.ExitMin != nil {
		dayStart := calendar.AtMinute(es.Date, *es.EntryMin, loc)
		dayEnd := calendar.AtMinute(es.Date, *es.ExitMin, loc)
		return start.Before(dayEnd) && end.After(dayStart)
	}
	return false
}
