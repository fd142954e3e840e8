package postgresql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/workpulse-hr/schedule-engine/internal/domain/alert"
	"github.com/workpulse-hr/schedule-engine/internal/pkg/database"
)

type alertRepositoryImpl struct {
	db *database.DB
}

func NewAlertRepository(db *database.DB) alert.Repository {
	return &alertRepositoryImpl{db: db}
}

// Create implements alert.Repository. A partial unique index on
// (org_id, employee_id, type, date) WHERE active backs the dedup: the
// insert is skipped when an active alert for the same key exists and the
// existing row is returned instead. Both statements run in one
// transaction so the conflict-path read sees the row that blocked the
// insert even when a concurrent sweep resolves alerts in between.
func (r *alertRepositoryImpl) Create(ctx context.Context, a alert.Alert) (alert.Alert, error) {
	var created alert.Alert
	err := WithTransaction(ctx, r.db, func(ctx context.Context) error {
		var err error
		created, err = r.createInTx(ctx, a)
		return err
	})
	return created, err
}

func (r *alertRepositoryImpl) createInTx(ctx context.Context, a alert.Alert) (alert.Alert, error) {
	q := GetQuerier(ctx, r.db)

	var created alert.Alert
	err := q.QueryRow(ctx, `
		INSERT INTO alerts (id, org_id, employee_id, type, severity, date, metadata, active, created_at)
		VALUES (uuidv7(), $1, $2, $3, $4, $5::date, $6, TRUE, NOW())
		ON CONFLICT (org_id, employee_id, type, date) WHERE active DO NOTHING
		RETURNING id, org_id, employee_id, type, severity, date, metadata, active, created_at
	`, a.OrgID, a.EmployeeID, a.Type, a.Severity, a.Date, a.Metadata).Scan(
		&created.ID, &created.OrgID, &created.EmployeeID, &created.Type, &created.Severity,
		&created.Date, &created.Metadata, &created.Active, &created.CreatedAt)
	if err == nil {
		return created, nil
	}
	if err != pgx.ErrNoRows {
		return alert.Alert{}, fmt.Errorf("failed to create alert: %w", err)
	}

	// Conflict path: fetch the active alert that blocked the insert.
	err = q.QueryRow(ctx, `
		SELECT id, org_id, employee_id, type, severity, date, metadata, active, created_at
		FROM alerts
		WHERE org_id = $1 AND employee_id = $2 AND type = $3 AND date = $4::date AND active
	`, a.OrgID, a.EmployeeID, a.Type, a.Date).Scan(
		&created.ID, &created.OrgID, &created.EmployeeID, &created.Type, &created.Severity,
		&created.Date, &created.Metadata, &created.Active, &created.CreatedAt)
	if err != nil {
		return alert.Alert{}, fmt.Errorf("failed to load existing alert: %w", err)
	}
	return created, nil
}

// GetActive implements alert.Repository.
func (r *alertRepositoryImpl) GetActive(ctx context.Context, orgID string, limit int) ([]alert.Alert, error) {
	q := GetQuerier(ctx, r.db)

	if limit <= 0 {
		limit = 100
	}
	rows, err := q.Query(ctx, `
		SELECT id, org_id, employee_id, type, severity, date, metadata, active, created_at
		FROM alerts
		WHERE org_id = $1 AND active
		ORDER BY created_at DESC
		LIMIT $2
	`, orgID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query active alerts: %w", err)
	}
	defer rows.Close()

	var out []alert.Alert
	for rows.Next() {
		var a alert.Alert
		if err := rows.Scan(&a.ID, &a.OrgID, &a.EmployeeID, &a.Type, &a.Severity,
			&a.Date, &a.Metadata, &a.Active, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
