// Package sweep implements the batch reconciliation jobs: open-punch
// rollover, safety-close, weekly overtime reconciliation, on-call
// settlement and authorization expiry. Every job is org-scoped and
// idempotent; re-running one produces the same end state.
package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/workpulse-hr/schedule-engine/internal/domain/alert"
	"github.com/workpulse-hr/schedule-engine/internal/domain/organization"
	"github.com/workpulse-hr/schedule-engine/internal/domain/overtime"
	"github.com/workpulse-hr/schedule-engine/internal/domain/timesheet"
	"github.com/workpulse-hr/schedule-engine/internal/service/resolver"
)

// Job type names, shared by the scheduler dedup fence and the admin
// trigger endpoints.
const (
	JobOpenPunchRollover   = "open_punch_rollover"
	JobSafetyClose         = "safety_close"
	JobWeeklyOvertime      = "weekly_overtime"
	JobOnCallSettlement    = "on_call_settlement"
	JobAuthorizationExpiry = "authorization_expiry"
)

// Stores bundles the persistence contracts the sweeps read and write.
type Stores struct {
	Settings       organization.SettingsRepository
	Entries        timesheet.TimeEntryRepository
	Summaries      timesheet.WorkdaySummaryRepository
	OnCall         timesheet.OnCallRepository
	Alerts         alert.Repository
	Authorizations overtime.AuthorizationRepository
	TimeBank       overtime.TimeBankRepository
}

// Result reports what one job run did for one organization.
type Result struct {
	Job       string `json:"job"`
	OrgID     string `json:"org_id"`
	Processed int    `json:"processed"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
}

type Service struct {
	resolver *resolver.Service
	stores   Stores
	now      func() time.Time
}

// NewService wires the sweeps. now is the clock; nil means time.Now.
func NewService(res *resolver.Service, stores Stores, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{resolver: res, stores: stores, now: now}
}

func (s *Service) orgSettings(ctx context.Context, orgID string) (organization.Settings, error) {
	settings, err := s.stores.Settings.GetByOrgID(ctx, orgID)
	if err != nil {
		return organization.Settings{}, fmt.Errorf("load settings for org %s: %w", orgID, err)
	}
	return settings.ApplyDefaults(), nil
}

// forEachEmployee fans one job's employee work units out over a bounded
// worker pool. A failing or panicking unit is logged and counted, never
// aborting the rest of the organization's sweep.
func (s *Service) forEachEmployee(ctx context.Context, job, orgID string, concurrency int, employeeIDs []string, fn func(ctx context.Context, employeeID string) error) int {
	if concurrency <= 0 {
		concurrency = 1
	}

	var failed atomic.Int64
	g := new(errgroup.Group)
	g.SetLimit(concurrency)

	for _, employeeID := range employeeIDs {
		employeeID := employeeID
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					failed.Add(1)
					slog.Error("sweep employee unit panicked",
						slog.String("job", job),
						slog.String("org_id", orgID),
						slog.String("employee_id", employeeID),
						slog.Any("panic", r))
				}
			}()
			if err := fn(ctx, employeeID); err != nil {
				failed.Add(1)
				slog.Error("sweep employee unit failed",
					slog.String("job", job),
					slog.String("org_id", orgID),
					slog.String("employee_id", employeeID),
					slog.String("error", err.Error()))
			}
			return nil
		})
	}
	_ = g.Wait()
	return int(failed.Load())
}

func groupByEmployee(entries []timesheet.TimeEntry) map[string][]timesheet.TimeEntry {
	byEmployee := make(map[string][]timesheet.TimeEntry)
	for _, e := range entries {
		byEmployee[e.EmployeeID] = append(byEmployee[e.EmployeeID], e)
	}
	return byEmployee
}

func employeeKeys(m map[string][]timesheet.TimeEntry) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	return ids
}

func logResult(r Result) {
	slog.Info("sweep finished",
		slog.String("job", r.Job),
		slog.String("org_id", r.OrgID),
		slog.Int("processed", r.Processed),
		slog.Int("skipped", r.Skipped),
		slog.Int("failed", r.Failed))
}
