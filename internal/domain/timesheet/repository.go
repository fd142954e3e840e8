package timesheet

import (
	"context"
	"time"
)

type TimeEntryRepository interface {
	// GetOpenEntriesBefore returns open entries whose clock-in is older
	// than cutoff, for the rollover and safety-close sweeps.
	GetOpenEntriesBefore(ctx context.Context, orgID string, cutoff time.Time) ([]TimeEntry, error)

	// GetForEmployeeRange returns all entries for one employee over
	// [start, end) of workdays.
	GetForEmployeeRange(ctx context.Context, employeeID string, start, end time.Time, orgID string) ([]TimeEntry, error)

	// Close stamps the clock-out, worked minutes, status and reason on an
	// open entry. Closing an already-closed entry is a no-op returning
	// ErrEntryAlreadyClosed so retried sweeps stay idempotent.
	Close(ctx context.Context, entry TimeEntry) error
}

type WorkdaySummaryRepository interface {
	// Upsert writes the summary keyed by (OrgID, EmployeeID, Date),
	// overwriting any previous sweep's row.
	Upsert(ctx context.Context, summary WorkdaySummary) error

	GetForEmployeeRange(ctx context.Context, employeeID string, start, end time.Time, orgID string) ([]WorkdaySummary, error)
}

type OnCallRepository interface {
	// GetUnsettledBefore returns intervals that ended before cutoff and
	// have no settlement category yet.
	GetUnsettledBefore(ctx context.Context, orgID string, cutoff time.Time) ([]OnCallInterval, error)

	// Settle stamps the category and settlement time. Settling an
	// already-settled interval is a no-op.
	Settle(ctx context.Context, intervalID, orgID, category string, settledAt time.Time) error
}
