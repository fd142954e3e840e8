package overtime

import (
	"time"

	"github.com/shopspring/decimal"
)

type AuthorizationStatus string

const (
	AuthorizationPending  AuthorizationStatus = "PENDING"
	AuthorizationApproved AuthorizationStatus = "APPROVED"
	AuthorizationRejected AuthorizationStatus = "REJECTED"
	AuthorizationExpired  AuthorizationStatus = "EXPIRED"
)

// OverworkAuthorization gates overtime accrual for one employee-week.
// Only APPROVED authorizations let hours flow into the time bank;
// PENDING ones past ValidUntil are expired by the expiry sweep.
type OverworkAuthorization struct {
	ID         string
	OrgID      string
	EmployeeID string
	WeekStart  time.Time // Monday of the authorized week
	MaxHours   decimal.Decimal
	Status     AuthorizationStatus
	ValidUntil time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Authorizes reports whether hours may accrue under this authorization:
// approved state and within the cap (zero cap means uncapped).
func (a OverworkAuthorization) Authorizes(hours decimal.Decimal) bool {
	if a.Status != AuthorizationApproved {
		return false
	}
	return a.MaxHours.IsZero() || hours.LessThanOrEqual(a.MaxHours)
}

// TimeBankEntry is one accrual of authorized overtime hours. The
// idempotency key (employee+week) prevents double accrual across
// re-run sweeps.
type TimeBankEntry struct {
	ID             string
	OrgID          string
	EmployeeID     string
	WeekStart      time.Time
	Hours          decimal.Decimal
	IdempotencyKey string
	CreatedAt      time.Time
}
