package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/workpulse-hr/schedule-engine/internal/domain/organization"
	"github.com/workpulse-hr/schedule-engine/internal/pkg/calendar"
	"github.com/workpulse-hr/schedule-engine/internal/service/sweep"
)

// SweepJobs fans the reconciliation sweeps out across all active
// organizations on a schedule. The fence keeps redundant runs for the
// same organization from executing inside the dedup window.
type SweepJobs struct {
	sweeps *sweep.Service
	orgs   organization.SettingsRepository
	fence  *Fence
	now    func() time.Time
}

func NewSweepJobs(sweeps *sweep.Service, orgs organization.SettingsRepository, fence *Fence) *SweepJobs {
	return &SweepJobs{sweeps: sweeps, orgs: orgs, fence: fence, now: time.Now}
}

// Register wires the recurring jobs into the scheduler.
func (j *SweepJobs) Register(s *Scheduler, dailyInterval, weeklyInterval time.Duration) {
	s.AddJob("daily_reconciliation", dailyInterval, j.RunDaily)
	s.AddJob("weekly_reconciliation", weeklyInterval, j.RunWeekly)
}

// RunDaily closes forgotten punches and settles finished on-call
// intervals and stale authorizations for every organization. One
// organization's failure never stops the others.
func (j *SweepJobs) RunDaily(ctx context.Context) error {
	orgIDs, err := j.orgs.ListActiveOrgIDs(ctx)
	if err != nil {
		return err
	}
	for _, orgID := range orgIDs {
		j.runFenced(ctx, sweep.JobOpenPunchRollover, orgID, "", func(ctx context.Context) (sweep.Result, error) {
			return j.sweeps.ProcessOpenPunchRollover(ctx, orgID, 0)
		})
		j.runFenced(ctx, sweep.JobSafetyClose, orgID, "", func(ctx context.Context) (sweep.Result, error) {
			return j.sweeps.ProcessSafetyClose(ctx, orgID)
		})
		j.runFenced(ctx, sweep.JobOnCallSettlement, orgID, "", func(ctx context.Context) (sweep.Result, error) {
			return j.sweeps.ProcessOnCallSettlement(ctx, orgID)
		})
		j.runFenced(ctx, sweep.JobAuthorizationExpiry, orgID, "", func(ctx context.Context) (sweep.Result, error) {
			return j.sweeps.ProcessAuthorizationExpiry(ctx, orgID)
		})
	}
	return nil
}

// RunWeekly reconciles the previous calendar week. The closing sweeps run
// to completion first so overtime reconciliation always reads
// already-closed days.
func (j *SweepJobs) RunWeekly(ctx context.Context) error {
	orgIDs, err := j.orgs.ListActiveOrgIDs(ctx)
	if err != nil {
		return err
	}
	weekStart := calendar.StartOfWeek(calendar.DateOnly(j.now())).AddDate(0, 0, -7)
	discriminator := weekStart.Format(time.DateOnly)

	for _, orgID := range orgIDs {
		j.runFenced(ctx, sweep.JobOpenPunchRollover, orgID, "", func(ctx context.Context) (sweep.Result, error) {
			return j.sweeps.ProcessOpenPunchRollover(ctx, orgID, 0)
		})
		j.runFenced(ctx, sweep.JobSafetyClose, orgID, "", func(ctx context.Context) (sweep.Result, error) {
			return j.sweeps.ProcessSafetyClose(ctx, orgID)
		})
		j.runFenced(ctx, sweep.JobWeeklyOvertime, orgID, discriminator, func(ctx context.Context) (sweep.Result, error) {
			return j.sweeps.ProcessWeeklyOvertime(ctx, orgID, weekStart)
		})
	}
	return nil
}

func (j *SweepJobs) runFenced(ctx context.Context, jobType, orgID, discriminator string, fn func(ctx context.Context) (sweep.Result, error)) {
	if !j.fence.TryAcquire(jobType, orgID, discriminator) {
		return
	}
	if _, err := fn(ctx); err != nil {
		slog.Error("Sweep run failed", "job", jobType, "org_id", orgID, "error", err)
	}
}
