package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/workpulse-hr/schedule-engine/internal/domain/absence"
	"github.com/workpulse-hr/schedule-engine/internal/pkg/database"
)

type absenceRepositoryImpl struct {
	db *database.DB
}

func NewAbsenceRepository(db *database.DB) absence.Repository {
	return &absenceRepositoryImpl{db: db}
}

const absenceColumns = `id, org_id, employee_id, type, start_date, end_date, status, created_at`

func scanAbsences(rows pgx.Rows) ([]absence.AbsenceRequest, error) {
	defer rows.Close()
	var out []absence.AbsenceRequest
	for rows.Next() {
		var a absence.AbsenceRequest
		if err := rows.Scan(&a.ID, &a.OrgID, &a.EmployeeID, &a.Type,
			&a.StartDate, &a.EndDate, &a.Status, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan absence request: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetApprovedCovering implements absence.Repository.
func (r *absenceRepositoryImpl) GetApprovedCovering(ctx context.Context, employeeID string, date time.Time, orgID string) (*absence.AbsenceRequest, error) {
	q := GetQuerier(ctx, r.db)

	var a absence.AbsenceRequest
	err := q.QueryRow(ctx, `
		SELECT `+absenceColumns+`
		FROM absence_requests
		WHERE org_id = $1 AND employee_id = $2 AND status = 'approved'
		  AND start_date <= $3::date
		  AND (end_date IS NULL OR end_date > $3::date)
		ORDER BY created_at DESC
		LIMIT 1
	`, orgID, employeeID, date).Scan(&a.ID, &a.OrgID, &a.EmployeeID, &a.Type,
		&a.StartDate, &a.EndDate, &a.Status, &a.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get covering absence: %w", err)
	}
	return &a, nil
}

// GetApprovedInRange implements absence.Repository.
func (r *absenceRepositoryImpl) GetApprovedInRange(ctx context.Context, employeeID string, start, end time.Time, orgID string) ([]absence.AbsenceRequest, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT `+absenceColumns+`
		FROM absence_requests
		WHERE org_id = $1 AND employee_id = $2 AND status = 'approved'
		  AND start_date < $4::date
		  AND (end_date IS NULL OR end_date > $3::date)
		ORDER BY start_date
	`, orgID, employeeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query absences in range: %w", err)
	}
	return scanAbsences(rows)
}
