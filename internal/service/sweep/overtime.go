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
	"github.com/workpulse-hr/schedule-engine/internal/domain/overtime"
	"github.com/workpulse-hr/schedule-engine/internal/domain/timesheet"
	"github.com/workpulse-hr/schedule-engine/internal/pkg/calendar"
	"github.com/workpulse-hr/schedule-engine/internal/service/compliance"
)

// ProcessWeeklyOvertime reconciles one week for every active employee:
// it resolves the week, recomputes each day's summary from the recorded
// punches, and turns worked hours above the expected total into either a
// time bank accrual (when an approved authorization covers them) or an
// OVERTIME alert. A zero weekStart means the previous calendar week.
//
// The scheduler runs rollover and safety-close for the same window first,
// so this job always reads already-closed entries.
func (s *Service) ProcessWeeklyOvertime(ctx context.Context, orgID string, weekStart time.Time) (Result, error) {
	result := Result{Job: JobWeeklyOvertime, OrgID: orgID}

	settings, err := s.orgSettings(ctx, orgID)
	if err != nil {
		return result, err
	}

	now := s.now()
	if weekStart.IsZero() {
		weekStart = calendar.StartOfWeek(calendar.DateOnly(now.In(settings.Location()))).AddDate(0, 0, -7)
	} else {
		weekStart = calendar.StartOfWeek(calendar.DateOnly(weekStart))
	}
	weekEnd := weekStart.AddDate(0, 0, 7)

	employeeIDs, err := s.stores.Settings.ListActiveEmployeeIDs(ctx, orgID)
	if err != nil {
		return result, fmt.Errorf("list employees for org %s: %w", orgID, err)
	}

	var processed, skipped atomic.Int64

	result.Failed = s.forEachEmployee(ctx, JobWeeklyOvertime, orgID, settings.SweepConcurrency, employeeIDs, func(ctx context.Context, employeeID string) error {
		accrued, err := s.reconcileEmployeeWeek(ctx, employeeID, orgID, weekStart, weekEnd, settings, now)
		if err != nil {
			return err
		}
		if accrued {
			processed.Add(1)
		} else {
			skipped.Add(1)
		}
		return nil
	})

	result.Processed = int(processed.Load())
	result.Skipped = int(skipped.Load())
	logResult(result)
	return result, nil
}

func (s *Service) reconcileEmployeeWeek(ctx context.Context, employeeID, orgID string, weekStart, weekEnd time.Time, settings organization.Settings, now time.Time) (bool, error) {
	week, err := s.resolver.ResolveRange(ctx, employeeID, weekStart, weekEnd, orgID)
	if err != nil {
		return false, fmt.Errorf("resolve week for %s: %w", employeeID, err)
	}

	entries, err := s.stores.Entries.GetForEmployeeRange(ctx, employeeID, weekStart, weekEnd, orgID)
	if err != nil {
		return false, fmt.Errorf("load entries for %s: %w", employeeID, err)
	}
	byDate := make(map[time.Time][]timesheet.TimeEntry)
	for _, e := range entries {
		d := calendar.DateOnly(e.Date)
		byDate[d] = append(byDate[d], e)
	}

	wc := compliance.ComputeWeek(week, byDate, now, settings)
	for i, es := range week {
		if err := s.upsertSummary(ctx, es, wc.Days[i], employeeID, orgID, now); err != nil {
			return false, err
		}
	}

	delta := wc.Overtime()
	if !delta.IsPositive() {
		return false, nil
	}

	auth, err := s.stores.Authorizations.GetForWeek(ctx, employeeID, weekStart, orgID)
	if err != nil {
		return false, fmt.Errorf("load authorization for %s: %w", employeeID, err)
	}

	if auth == nil || !auth.Authorizes(delta) {
		_, err := s.stores.Alerts.Create(ctx, alert.Alert{
			ID:         uuid.NewString(),
			OrgID:      orgID,
			EmployeeID: employeeID,
			Type:       alert.TypeOvertime,
			Severity:   alert.SeverityWarning,
			Date:       weekStart,
			Metadata:   map[string]string{"overtime_hours": delta.String()},
			Active:     true,
			CreatedAt:  now,
		})
		if err != nil {
			return false, fmt.Errorf("create overtime alert for %s: %w", employeeID, err)
		}
		return false, nil
	}

	err = s.stores.TimeBank.Accrue(ctx, overtime.TimeBankEntry{
		ID:             uuid.NewString(),
		OrgID:          orgID,
		EmployeeID:     employeeID,
		WeekStart:      weekStart,
		Hours:          delta,
		IdempotencyKey: fmt.Sprintf("overtime:%s:%s", employeeID, weekStart.Format(time.DateOnly)),
		CreatedAt:      now,
	})
	if err != nil {
		if errors.Is(err, overtime.ErrDuplicateAccrual) {
			return false, nil
		}
		return false, fmt.Errorf("accrue overtime for %s: %w", employeeID, err)
	}
	slog.Info("accrued authorized overtime",
		slog.String("org_id", orgID),
		slog.String("employee_id", employeeID),
		slog.Time("week_start", weekStart),
		slog.String("hours", delta.String()))
	return true, nil
}

// ProcessAuthorizationExpiry moves PENDING authorizations past their
// validity window to EXPIRED. Pure clock-driven state transition, no
// schedule resolution involved.
func (s *Service) ProcessAuthorizationExpiry(ctx context.Context, orgID string) (Result, error) {
	result := Result{Job: JobAuthorizationExpiry, OrgID: orgID}

	now := s.now()
	stale, err := s.stores.Authorizations.GetPendingExpiredBefore(ctx, orgID, now)
	if err != nil {
		return result, fmt.Errorf("list expired authorizations for org %s: %w", orgID, err)
	}

	for _, auth := range stale {
		err := s.stores.Authorizations.UpdateStatus(ctx, auth.ID, orgID, overtime.AuthorizationPending, overtime.AuthorizationExpired)
		if err != nil {
			// A concurrent approval moved it first; that outcome stands.
			if errors.Is(err, overtime.ErrStatusConflict) {
				result.Skipped++
				continue
			}
			result.Failed++
			slog.Error("expire authorization failed",
				slog.String("org_id", orgID),
				slog.String("authorization_id", auth.ID),
				slog.String("error", err.Error()))
			continue
		}
		result.Processed++
	}
	logResult(result)
	return result, nil
}
