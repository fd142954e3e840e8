package alert

import "time"

type Type string

const (
	TypeIncompleteEntry  Type = "INCOMPLETE_ENTRY"
	TypeOvertime         Type = "OVERTIME"
	TypeWorkOnNonWorkday Type = "WORK_ON_NON_WORKDAY"
	TypeDataQuality      Type = "DATA_QUALITY"
	TypeSafetyClose      Type = "SAFETY_CLOSE"
)

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Alert is a compliance fact surfaced to the HR application. At most one
// active alert per (EmployeeID, Type, Date) exists; redundant creates
// return the existing row.
type Alert struct {
	ID         string
	OrgID      string
	EmployeeID string
	Type       Type
	Severity   Severity
	Date       time.Time
	Metadata   map[string]string
	Active     bool
	CreatedAt  time.Time
}
