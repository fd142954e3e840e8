package schedule

import (
	"context"
	"time"
)

// TemplateRepository loads schedule templates with their periods, day
// patterns and slots already attached. Read-only from the engine's point
// of view; template CRUD belongs to the surrounding HR application.
type TemplateRepository interface {
	GetByID(ctx context.Context, id string, orgID string) (ScheduleTemplate, error)
	GetByIDs(ctx context.Context, ids []string, orgID string) (map[string]ScheduleTemplate, error)
}

// AssignmentRepository queries employee-template bindings. All results
// are scoped to orgID; cross-tenant reads are forbidden.
type AssignmentRepository interface {
	// GetActiveCovering returns every active assignment whose
	// [StartDate, EndDate) contains date. More than one result is a data
	// integrity violation the resolver tie-breaks deterministically.
	GetActiveCovering(ctx context.Context, employeeID string, date time.Time, orgID string) ([]EmployeeScheduleAssignment, error)

	// GetActiveInRange returns active assignments overlapping
	// [start, end), used by the range expander to batch template loads.
	GetActiveInRange(ctx context.Context, employeeID string, start, end time.Time, orgID string) ([]EmployeeScheduleAssignment, error)
}

// OverrideRepository queries single-date schedule overrides.
type OverrideRepository interface {
	GetForDate(ctx context.Context, employeeID string, date time.Time, orgID string) (*ExceptionDayOverride, error)
	GetInRange(ctx context.Context, employeeID string, start, end time.Time, orgID string) ([]ExceptionDayOverride, error)
}
