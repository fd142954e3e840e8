package response

import (
	"errors"
	"net/http"

	"github.com/workpulse-hr/schedule-engine/internal/domain/overtime"
	"github.com/workpulse-hr/schedule-engine/internal/domain/schedule"
	"github.com/workpulse-hr/schedule-engine/internal/domain/timesheet"
	"github.com/workpulse-hr/schedule-engine/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Schedule domain errors
	case errors.Is(err, schedule.ErrTemplateNotFound):
		NotFound(w, "Schedule template not found")
	case errors.Is(err, schedule.ErrNoActiveAssignment):
		NotFound(w, "No active schedule assignment")

	// Timesheet domain errors
	case errors.Is(err, timesheet.ErrEntryNotFound):
		NotFound(w, "Time entry not found")
	case errors.Is(err, timesheet.ErrEntryAlreadyClosed):
		Conflict(w, "Time entry already closed")
	case errors.Is(err, timesheet.ErrIntervalNotFound):
		NotFound(w, "On-call interval not found")

	// Overtime domain errors
	case errors.Is(err, overtime.ErrAuthorizationNotFound):
		NotFound(w, "Overwork authorization not found")
	case errors.Is(err, overtime.ErrDuplicateAccrual):
		Conflict(w, "Time bank entry already accrued")
	case errors.Is(err, overtime.ErrStatusConflict):
		Conflict(w, "Authorization status changed concurrently")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
