package timesheet

import (
	"time"

	"github.com/shopspring/decimal"
)

// TimeEntry is one punch pair for an employee on a workday. ClockOut nil
// means the entry is still open. Dates are the local workday, timestamps
// are stored UTC.
type TimeEntry struct {
	ID            string
	OrgID         string
	EmployeeID    string
	Date          time.Time
	ClockIn       *time.Time
	ClockOut      *time.Time
	WorkedMinutes *int
	Status        string // open, closed, auto_closed, safety_closed
	CloseReason   *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

const (
	EntryStatusOpen         = "open"
	EntryStatusClosed       = "closed"
	EntryStatusAutoClosed   = "auto_closed"
	EntryStatusSafetyClosed = "safety_closed"
)

// IsOpen reports whether the entry has a clock-in without a clock-out.
func (e TimeEntry) IsOpen() bool { return e.ClockIn != nil && e.ClockOut == nil }

// WorkdaySummary is the reconciled fact a sweep writes back for one
// employee-day. Upserts are keyed by (OrgID, EmployeeID, Date) so re-runs
// overwrite rather than duplicate.
type WorkdaySummary struct {
	OrgID           string
	EmployeeID      string
	Date            time.Time
	HoursExpected   decimal.Decimal
	HoursWorked     decimal.Decimal
	ComplianceRatio decimal.Decimal
	Status          string
	SourceLayer     string
	HasClockedIn    bool
	HasClockedOut   bool
	IsAbsent        bool
	UpdatedAt       time.Time
}

// OnCallInterval is an availability window with an optional intervention.
// Settlement decides whether the intervention fell inside or outside the
// employee's effective schedule, which changes its compensation category.
type OnCallInterval struct {
	ID                string
	OrgID             string
	EmployeeID        string
	Start             time.Time
	End               time.Time
	InterventionStart *time.Time
	InterventionEnd   *time.Time
	Category          string // unsettled until the settlement sweep runs
	SettledAt         *time.Time
}

const (
	OnCallCategoryUnsettled     = "UNSETTLED"
	OnCallCategoryInsideHours   = "INSIDE_SCHEDULED_HOURS"
	OnCallCategoryOutsideHours  = "OUTSIDE_SCHEDULED_HOURS"
	OnCallCategoryStandbyOnly   = "STANDBY_ONLY"
)
