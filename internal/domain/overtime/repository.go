package overtime

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type AuthorizationRepository interface {
	// GetForWeek returns the authorization covering one employee-week,
	// or nil when none exists.
	GetForWeek(ctx context.Context, employeeID string, weekStart time.Time, orgID string) (*OverworkAuthorization, error)

	// GetPendingExpiredBefore returns PENDING authorizations whose
	// ValidUntil precedes cutoff.
	GetPendingExpiredBefore(ctx context.Context, orgID string, cutoff time.Time) ([]OverworkAuthorization, error)

	// UpdateStatus transitions an authorization; the expiry sweep moves
	// PENDING -> EXPIRED. The transition is conditional on the current
	// status so concurrent approvals are never clobbered.
	UpdateStatus(ctx context.Context, id, orgID string, from, to AuthorizationStatus) error
}

type TimeBankRepository interface {
	// Accrue inserts a time bank entry unless one with the same
	// idempotency key exists, in which case ErrDuplicateAccrual is
	// returned and nothing is written.
	Accrue(ctx context.Context, entry TimeBankEntry) error

	GetBalanceHours(ctx context.Context, employeeID, orgID string) (decimal.Decimal, error)
}
