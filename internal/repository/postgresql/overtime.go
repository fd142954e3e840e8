package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/workpulse-hr/schedule-engine/internal/domain/overtime"
	"github.com/workpulse-hr/schedule-engine/internal/pkg/database"
)

type authorizationRepositoryImpl struct {
	db *database.DB
}

func NewAuthorizationRepository(db *database.DB) overtime.AuthorizationRepository {
	return &authorizationRepositoryImpl{db: db}
}

const authorizationColumns = `id, org_id, employee_id, week_start, max_hours, status, valid_until, created_at, updated_at`

// GetForWeek implements overtime.AuthorizationRepository.
func (r *authorizationRepositoryImpl) GetForWeek(ctx context.Context, employeeID string, weekStart time.Time, orgID string) (*overtime.OverworkAuthorization, error) {
	q := GetQuerier(ctx, r.db)

	var a overtime.OverworkAuthorization
	err := q.QueryRow(ctx, `
		SELECT `+authorizationColumns+`
		FROM overwork_authorizations
		WHERE org_id = $1 AND employee_id = $2 AND week_start = $3::date
		ORDER BY created_at DESC
		LIMIT 1
	`, orgID, employeeID, weekStart).Scan(&a.ID, &a.OrgID, &a.EmployeeID, &a.WeekStart,
		&a.MaxHours, &a.Status, &a.ValidUntil, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get authorization: %w", err)
	}
	return &a, nil
}

// GetPendingExpiredBefore implements overtime.AuthorizationRepository.
func (r *authorizationRepositoryImpl) GetPendingExpiredBefore(ctx context.Context, orgID string, cutoff time.Time) ([]overtime.OverworkAuthorization, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT `+authorizationColumns+`
		FROM overwork_authorizations
		WHERE org_id = $1 AND status = 'PENDING' AND valid_until < $2
		ORDER BY valid_until
	`, orgID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending authorizations: %w", err)
	}
	defer rows.Close()

	var out []overtime.OverworkAuthorization
	for rows.Next() {
		var a overtime.OverworkAuthorization
		if err := rows.Scan(&a.ID, &a.OrgID, &a.EmployeeID, &a.WeekStart,
			&a.MaxHours, &a.Status, &a.ValidUntil, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan authorization: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateStatus implements overtime.AuthorizationRepository. The where
// clause on the current status keeps concurrent transitions from
// clobbering each other.
func (r *authorizationRepositoryImpl) UpdateStatus(ctx context.Context, id, orgID string, from, to overtime.AuthorizationStatus) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE overwork_authorizations
		SET status = $4, updated_at = NOW()
		WHERE id = $1 AND org_id = $2 AND status = $3
	`, id, orgID, from, to)
	if err != nil {
		return fmt.Errorf("failed to update authorization status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := q.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM overwork_authorizations WHERE id = $1 AND org_id = $2)
		`, id, orgID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check authorization: %w", err)
		}
		if !exists {
			return overtime.ErrAuthorizationNotFound
		}
		return overtime.ErrStatusConflict
	}
	return nil
}

type timeBankRepositoryImpl struct {
	db *database.DB
}

func NewTimeBankRepository(db *database.DB) overtime.TimeBankRepository {
	return &timeBankRepositoryImpl{db: db}
}

// Accrue implements overtime.TimeBankRepository. The unique index on
// idempotency_key turns a re-run's insert into ErrDuplicateAccrual.
func (r *timeBankRepositoryImpl) Accrue(ctx context.Context, entry overtime.TimeBankEntry) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		INSERT INTO time_bank_entries (id, org_id, employee_id, week_start, hours, idempotency_key, created_at)
		VALUES (uuidv7(), $1, $2, $3::date, $4, $5, NOW())
		ON CONFLICT (idempotency_key) DO NOTHING
	`, entry.OrgID, entry.EmployeeID, entry.WeekStart, entry.Hours, entry.IdempotencyKey)
	if err != nil {
		return fmt.Errorf("failed to accrue time bank entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return overtime.ErrDuplicateAccrual
	}
	return nil
}

// GetBalanceHours implements overtime.TimeBankRepository.
func (r *timeBankRepositoryImpl) GetBalanceHours(ctx context.Context, employeeID, orgID string) (decimal.Decimal, error) {
	q := GetQuerier(ctx, r.db)

	var balance decimal.Decimal
	err := q.QueryRow(ctx, `
		SELECT COALESCE(SUM(hours), 0)
		FROM time_bank_entries
		WHERE org_id = $1 AND employee_id = $2
	`, orgID, employeeID).Scan(&balance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get time bank balance: %w", err)
	}
	return balance, nil
}
