package organization

import (
	"time"

	"github.com/shopspring/decimal"
)

// Settings carries the per-organization knobs the engine consumes:
// punch tolerance, compliance thresholds and sweep lookbacks. Stored
// values are partial; ApplyDefaults fills the gaps so business logic
// never sees a zero threshold.
type Settings struct {
	OrgID                   string
	Timezone                string // IANA name, fixed per cost center
	ToleranceMinutes        int
	CompleteThreshold       decimal.Decimal // compliance ratio >= this -> COMPLETED
	IncompleteThreshold     decimal.Decimal // compliance ratio < this -> INCOMPLETE
	RolloverLookbackDays    int
	SafetyCloseCeilingHours int
	AbsenceMarginMinutes    int // grace after the clock-in window before a day counts as absent
	SweepConcurrency        int
	UpdatedAt               time.Time
}

const (
	DefaultToleranceMinutes        = 15
	DefaultRolloverLookbackDays    = 3
	DefaultSafetyCloseCeilingHours = 24
	DefaultAbsenceMarginMinutes    = 120
	DefaultSweepConcurrency        = 8
)

var (
	DefaultCompleteThreshold   = decimal.RequireFromString("0.95")
	DefaultIncompleteThreshold = decimal.RequireFromString("0.70")
)

// ApplyDefaults returns a copy with every unset field replaced by its
// default value.
func (s Settings) ApplyDefaults() Settings {
	if s.Timezone == "" {
		s.Timezone = "UTC"
	}
	if s.ToleranceMinutes <= 0 {
		s.ToleranceMinutes = DefaultToleranceMinutes
	}
	if s.CompleteThreshold.IsZero() {
		s.CompleteThreshold = DefaultCompleteThreshold
	}
	if s.IncompleteThreshold.IsZero() {
		s.IncompleteThreshold = DefaultIncompleteThreshold
	}
	if s.RolloverLookbackDays <= 0 {
		s.RolloverLookbackDays = DefaultRolloverLookbackDays
	}
	if s.SafetyCloseCeilingHours <= 0 {
		s.SafetyCloseCeilingHours = DefaultSafetyCloseCeilingHours
	}
	if s.AbsenceMarginMinutes <= 0 {
		s.AbsenceMarginMinutes = DefaultAbsenceMarginMinutes
	}
	if s.SweepConcurrency <= 0 {
		s.SweepConcurrency = DefaultSweepConcurrency
	}
	return s
}

// Location resolves the organization timezone, falling back to UTC on a
// bad name.
func (s Settings) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Holiday marks one date of the organization calendar as a non-working
// institutional holiday.
type Holiday struct {
	ID    string
	OrgID string
	Date  time.Time
	Name  string
}
