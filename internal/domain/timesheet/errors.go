package timesheet

import "errors"

var (
	ErrEntryNotFound      = errors.New("time entry not found")
	ErrEntryAlreadyClosed = errors.New("time entry already closed")
	ErrSummaryNotFound    = errors.New("workday summary not found")
	ErrIntervalNotFound   = errors.New("on-call interval not found")
)
