package absence

import (
	"context"
	"time"
)

// Repository exposes approved-absence coverage queries. Only approved
// requests are visible to the engine.
type Repository interface {
	GetApprovedCovering(ctx context.Context, employeeID string, date time.Time, orgID string) (*AbsenceRequest, error)
	GetApprovedInRange(ctx context.Context, employeeID string, start, end time.Time, orgID string) ([]AbsenceRequest, error)
}
