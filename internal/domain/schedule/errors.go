package schedule

import "errors"

var (
	// Template Errors
	ErrTemplateNotFound       = errors.New("schedule template not found")
	ErrTemplateAlreadyDeleted = errors.New("schedule template not found or already deactivated")
	ErrInvalidScheduleType    = errors.New("invalid schedule type")
	ErrRotationMissingAnchor  = errors.New("rotation template requires anchor date and cycle length")

	// Period Errors
	ErrPeriodNotFound      = errors.New("schedule period not found")
	ErrOverlappingPeriods  = errors.New("overlapping periods of the same type within one template")
	ErrInvalidPeriodType   = errors.New("invalid period type")
	ErrPeriodEndBeforeStart = errors.New("period end date precedes start date")

	// Assignment Errors
	ErrAssignmentNotFound     = errors.New("employee schedule assignment not found")
	ErrOverlappingAssignment  = errors.New("overlapping active schedule assignments detected")
	ErrNoActiveAssignment     = errors.New("no active schedule assignment covers the date")

	// Override Errors
	ErrOverrideNotFound = errors.New("exception day override not found")

	// Validation Errors
	ErrEmployeeIDRequired = errors.New("employee ID is required")
	ErrOrgIDRequired      = errors.New("organization ID is required")
	ErrInvalidDateFormat  = errors.New("invalid date format, use YYYY-MM-DD")
)
