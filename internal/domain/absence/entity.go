// Package absence is the engine's read-only view over approved absence
// requests. Absence lifecycle (request, approval, quotas) lives in the
// surrounding HR application; the engine only needs coverage lookups.
package absence

import (
	"time"

	"github.com/workpulse-hr/schedule-engine/internal/pkg/calendar"
)

type AbsenceRequest struct {
	ID         string
	OrgID      string
	EmployeeID string
	Type       string // vacation, sick_leave, parental...
	StartDate  time.Time
	EndDate    *time.Time
	Status     string
	CreatedAt  time.Time
}

// Covers reports whether the absence's [StartDate, EndDate) contains date.
func (a AbsenceRequest) Covers(date time.Time) bool {
	return calendar.Contains(a.StartDate, a.EndDate, date)
}
