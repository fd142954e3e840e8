package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/workpulse-hr/schedule-engine/internal/domain/timesheet"
	"github.com/workpulse-hr/schedule-engine/internal/pkg/database"
)

type timeEntryRepositoryImpl struct {
	db *database.DB
}

func NewTimeEntryRepository(db *database.DB) timesheet.TimeEntryRepository {
	return &timeEntryRepositoryImpl{db: db}
}

const timeEntryColumns = `id, org_id, employee_id, date, clock_in, clock_out, worked_minutes, status, close_reason, created_at, updated_at`

func scanTimeEntries(rows pgx.Rows) ([]timesheet.TimeEntry, error) {
	defer rows.Close()
	var out []timesheet.TimeEntry
	for rows.Next() {
		var e timesheet.TimeEntry
		if err := rows.Scan(&e.ID, &e.OrgID, &e.EmployeeID, &e.Date, &e.ClockIn, &e.ClockOut,
			&e.WorkedMinutes, &e.Status, &e.CloseReason, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan time entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetOpenEntriesBefore implements timesheet.TimeEntryRepository.
func (r *timeEntryRepositoryImpl) GetOpenEntriesBefore(ctx context.Context, orgID string, cutoff time.Time) ([]timesheet.TimeEntry, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT `+timeEntryColumns+`
		FROM time_entries
		WHERE org_id = $1 AND status = 'open' AND clock_out IS NULL AND clock_in < $2
		ORDER BY clock_in
	`, orgID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query open entries: %w", err)
	}
	return scanTimeEntries(rows)
}

// GetForEmployeeRange implements timesheet.TimeEntryRepository.
func (r *timeEntryRepositoryImpl) GetForEmployeeRange(ctx context.Context, employeeID string, start, end time.Time, orgID string) ([]timesheet.TimeEntry, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT `+timeEntryColumns+`
		FROM time_entries
		WHERE org_id = $1 AND employee_id = $2
		  AND date >= $3::date AND date < $4::date
		ORDER BY date, clock_in
	`, orgID, employeeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries in range: %w", err)
	}
	return scanTimeEntries(rows)
}

// Close implements timesheet.TimeEntryRepository. The status guard makes
// the write a no-op for anything already closed, so re-run sweeps cannot
// double-close.
func (r *timeEntryRepositoryImpl) Close(ctx context.Context, entry timesheet.TimeEntry) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE time_entries
		SET clock_out = $3, worked_minutes = $4, status = $5, close_reason = $6, updated_at = NOW()
		WHERE id = $1 AND org_id = $2 AND status = 'open' AND clock_out IS NULL
	`, entry.ID, entry.OrgID, entry.ClockOut, entry.WorkedMinutes, entry.Status, entry.CloseReason)
	if err != nil {
		return fmt.Errorf("failed to close time entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := q.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM time_entries WHERE id = $1 AND org_id = $2)
		`, entry.ID, entry.OrgID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check time entry: %w", err)
		}
		if !exists {
			return timesheet.ErrEntryNotFound
		}
		return timesheet.ErrEntryAlreadyClosed
	}
	return nil
}

type summaryRepositoryImpl struct {
	db *database.DB
}

func NewWorkdaySummaryRepository(db *database.DB) timesheet.WorkdaySummaryRepository {
	return &summaryRepositoryImpl{db: db}
}

// Upsert implements timesheet.WorkdaySummaryRepository.
func (r *summaryRepositoryImpl) Upsert(ctx context.Context, s timesheet.WorkdaySummary) error {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx, `
		INSERT INTO workday_summaries (
			org_id, employee_id, date, hours_expected, hours_worked, compliance_ratio,
			status, source_layer, has_clocked_in, has_clocked_out, is_absent, updated_at
		) VALUES ($1, $2, $3::date, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		ON CONFLICT (org_id, employee_id, date) DO UPDATE SET
			hours_expected = EXCLUDED.hours_expected,
			hours_worked = EXCLUDED.hours_worked,
			compliance_ratio = EXCLUDED.compliance_ratio,
			status = EXCLUDED.status,
			source_layer = EXCLUDED.source_layer,
			has_clocked_in = EXCLUDED.has_clocked_in,
			has_clocked_out = EXCLUDED.has_clocked_out,
			is_absent = EXCLUDED.is_absent,
			updated_at = NOW()
	`, s.OrgID, s.EmployeeID, s.Date, s.HoursExpected, s.HoursWorked, s.ComplianceRatio,
		s.Status, s.SourceLayer, s.HasClockedIn, s.HasClockedOut, s.IsAbsent)
	if err != nil {
		return fmt.Errorf("failed to upsert workday summary: %w", err)
	}
	return nil
}

// GetForEmployeeRange implements timesheet.WorkdaySummaryRepository.
func (r *summaryRepositoryImpl) GetForEmployeeRange(ctx context.Context, employeeID string, start, end time.Time, orgID string) ([]timesheet.WorkdaySummary, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT org_id, employee_id, date, hours_expected, hours_worked, compliance_ratio,
		       status, source_layer, has_clocked_in, has_clocked_out, is_absent, updated_at
		FROM workday_summaries
		WHERE org_id = $1 AND employee_id = $2
		  AND date >= $3::date AND date < $4::date
		ORDER BY date
	`, orgID, employeeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query workday summaries: %w", err)
	}
	defer rows.Close()

	var out []timesheet.WorkdaySummary
	for rows.Next() {
		var s timesheet.WorkdaySummary
		if err := rows.Scan(&s.OrgID, &s.EmployeeID, &s.Date, &s.HoursExpected, &s.HoursWorked,
			&s.ComplianceRatio, &s.Status, &s.SourceLayer, &s.HasClockedIn, &s.HasClockedOut,
			&s.IsAbsent, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan workday summary: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type onCallRepositoryImpl struct {
	db *database.DB
}

func NewOnCallRepository(db *database.DB) timesheet.OnCallRepository {
	return &onCallRepositoryImpl{db: db}
}

// GetUnsettledBefore implements timesheet.OnCallRepository.
func (r *onCallRepositoryImpl) GetUnsettledBefore(ctx context.Context, orgID string, cutoff time.Time) ([]timesheet.OnCallInterval, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id, org_id, employee_id, start_at, end_at,
		       intervention_start, intervention_end, category, settled_at
		FROM on_call_intervals
		WHERE org_id = $1 AND settled_at IS NULL AND end_at < $2
		ORDER BY end_at
	`, orgID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query on-call intervals: %w", err)
	}
	defer rows.Close()

	var out []timesheet.OnCallInterval
	for rows.Next() {
		var iv timesheet.OnCallInterval
		if err := rows.Scan(&iv.ID, &iv.OrgID, &iv.EmployeeID, &iv.Start, &iv.End,
			&iv.InterventionStart, &iv.InterventionEnd, &iv.Category, &iv.SettledAt); err != nil {
			return nil, fmt.Errorf("failed to scan on-call interval: %w", err)
		}
		out = append(out, iv)
	}
	return out, rows.Err()
}

// Settle implements timesheet.OnCallRepository. Already-settled intervals
// are left untouched.
func (r *onCallRepositoryImpl) Settle(ctx context.Context, intervalID, orgID, category string, settledAt time.Time) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE on_call_intervals
		SET category = $3, settled_at = $4
		WHERE id = $1 AND org_id = $2 AND settled_at IS NULL
	`, intervalID, orgID, category, settledAt)
	if err != nil {
		return fmt.Errorf("failed to settle on-call interval: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := q.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM on_call_intervals WHERE id = $1 AND org_id = $2)
		`, intervalID, orgID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check on-call interval: %w", err)
		}
		if !exists {
			return timesheet.ErrIntervalNotFound
		}
	}
	return nil
}
