package organization

import (
	"context"
	"time"
)

type SettingsRepository interface {
	// GetByOrgID returns the stored settings for one organization.
	// Callers apply defaults on the result; a missing row maps to
	// Settings{OrgID: orgID} rather than an error.
	GetByOrgID(ctx context.Context, orgID string) (Settings, error)

	// ListActiveOrgIDs feeds the sweep fan-out.
	ListActiveOrgIDs(ctx context.Context) ([]string, error)

	// ListActiveEmployeeIDs returns the employees a sweep iterates for
	// one organization.
	ListActiveEmployeeIDs(ctx context.Context, orgID string) ([]string, error)
}

type HolidayRepository interface {
	GetForDate(ctx context.Context, orgID string, date time.Time) (*Holiday, error)
	GetInRange(ctx context.Context, orgID string, start, end time.Time) ([]Holiday, error)
}
