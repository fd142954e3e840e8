package alert

import "context"

// Repository is the narrow alerting contract sweeps call. Create must be
// safe to call redundantly: when an active alert of the same type already
// exists for the same employee and calendar day, the existing alert is
// returned unchanged instead of a duplicate being inserted.
type Repository interface {
	Create(ctx context.Context, a Alert) (Alert, error)
	GetActive(ctx context.Context, orgID string, limit int) ([]Alert, error)
}
