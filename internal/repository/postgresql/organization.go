package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/workpulse-hr/schedule-engine/internal/domain/organization"
	"github.com/workpulse-hr/schedule-engine/internal/pkg/database"
)

type settingsRepositoryImpl struct {
	db *database.DB
}

func NewSettingsRepository(db *database.DB) organization.SettingsRepository {
	return &settingsRepositoryImpl{db: db}
}

// GetByOrgID implements organization.SettingsRepository. A missing row is
// not an error; callers apply defaults on the zero settings.
func (r *settingsRepositoryImpl) GetByOrgID(ctx context.Context, orgID string) (organization.Settings, error) {
	q := GetQuerier(ctx, r.db)

	var s organization.Settings
	err := q.QueryRow(ctx, `
		SELECT org_id, timezone, tolerance_minutes, complete_threshold, incomplete_threshold,
		       rollover_lookback_days, safety_close_ceiling_hours, absence_margin_minutes,
		       sweep_concurrency, updated_at
		FROM organization_settings
		WHERE org_id = $1
	`, orgID).Scan(&s.OrgID, &s.Timezone, &s.ToleranceMinutes, &s.CompleteThreshold,
		&s.IncompleteThreshold, &s.RolloverLookbackDays, &s.SafetyCloseCeilingHours,
		&s.AbsenceMarginMinutes, &s.SweepConcurrency, &s.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return organization.Settings{OrgID: orgID}, nil
		}
		return organization.Settings{}, fmt.Errorf("failed to get organization settings: %w", err)
	}
	return s, nil
}

// ListActiveOrgIDs implements organization.SettingsRepository.
func (r *settingsRepositoryImpl) ListActiveOrgIDs(ctx context.Context) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id FROM organizations WHERE active ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan organization id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListActiveEmployeeIDs implements organization.SettingsRepository.
func (r *settingsRepositoryImpl) ListActiveEmployeeIDs(ctx context.Context, orgID string) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id FROM employees WHERE org_id = $1 AND active ORDER BY id
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan employee id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type holidayRepositoryImpl struct {
	db *database.DB
}

func NewHolidayRepository(db *database.DB) organization.HolidayRepository {
	return &holidayRepositoryImpl{db: db}
}

// GetForDate implements organization.HolidayRepository.
func (r *holidayRepositoryImpl) GetForDate(ctx context.Context, orgID string, date time.Time) (*organization.Holiday, error) {
	q := GetQuerier(ctx, r.db)

	var h organization.Holiday
	err := q.QueryRow(ctx, `
		SELECT id, org_id, date, name
		FROM holidays
		WHERE org_id = $1 AND date = $2::date
	`, orgID, date).Scan(&h.ID, &h.OrgID, &h.Date, &h.Name)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get holiday: %w", err)
	}
	return &h, nil
}

// GetInRange implements organization.HolidayRepository.
func (r *holidayRepositoryImpl) GetInRange(ctx context.Context, orgID string, start, end time.Time) ([]organization.Holiday, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id, org_id, date, name
		FROM holidays
		WHERE org_id = $1 AND date >= $2::date AND date < $3::date
		ORDER BY date
	`, orgID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query holidays: %w", err)
	}
	defer rows.Close()

	var out []organization.Holiday
	for rows.Next() {
		var h organization.Holiday
		if err := rows.Scan(&h.ID, &h.OrgID, &h.Date, &h.Name); err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
