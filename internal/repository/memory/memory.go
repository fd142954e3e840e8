// Package memory provides in-memory repository implementations used by
// tests and local development. All views share one data core guarded by a
// single RWMutex, so every store is safe for concurrent use.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/workpulse-hr/schedule-engine/internal/domain/absence"
	"github.com/workpulse-hr/schedule-engine/internal/domain/alert"
	"github.com/workpulse-hr/schedule-engine/internal/domain/organization"
	"github.com/workpulse-hr/schedule-engine/internal/domain/overtime"
	"github.com/workpulse-hr/schedule-engine/internal/domain/schedule"
	"github.com/workpulse-hr/schedule-engine/internal/domain/timesheet"
	"github.com/workpulse-hr/schedule-engine/internal/pkg/calendar"
)

// Store is the shared data core. Repository views over it are obtained
// through the *Repo accessors; seed data can be assigned to the exported
// fields directly before use.
type Store struct {
	mu sync.RWMutex

	Templates      map[string]schedule.ScheduleTemplate
	Assignments    []schedule.EmployeeScheduleAssignment
	Overrides      []schedule.ExceptionDayOverride
	AbsenceReqs    []absence.AbsenceRequest
	Holidays       []organization.Holiday
	Settings       map[string]organization.Settings
	EmployeeIDs    map[string][]string // orgID -> active employees
	Entries        map[string]timesheet.TimeEntry
	Summaries      map[string]timesheet.WorkdaySummary
	OnCall         map[string]timesheet.OnCallInterval
	Alerts         []alert.Alert
	Authorizations map[string]overtime.OverworkAuthorization
	TimeBank       map[string]overtime.TimeBankEntry // by idempotency key
}

func NewStore() *Store {
	return &Store{
		Templates:      map[string]schedule.ScheduleTemplate{},
		Settings:       map[string]organization.Settings{},
		EmployeeIDs:    map[string][]string{},
		Entries:        map[string]timesheet.TimeEntry{},
		Summaries:      map[string]timesheet.WorkdaySummary{},
		OnCall:         map[string]timesheet.OnCallInterval{},
		Authorizations: map[string]overtime.OverworkAuthorization{},
		TimeBank:       map[string]overtime.TimeBankEntry{},
	}
}

func (s *Store) TemplateRepo() schedule.TemplateRepository           { return templateRepo{s} }
func (s *Store) AssignmentRepo() schedule.AssignmentRepository       { return assignmentRepo{s} }
func (s *Store) OverrideRepo() schedule.OverrideRepository           { return overrideRepo{s} }
func (s *Store) AbsenceRepo() absence.Repository                     { return absenceRepo{s} }
func (s *Store) HolidayRepo() organization.HolidayRepository         { return holidayRepo{s} }
func (s *Store) SettingsRepo() organization.SettingsRepository       { return settingsRepo{s} }
func (s *Store) TimeEntryRepo() timesheet.TimeEntryRepository        { return timeEntryRepo{s} }
func (s *Store) SummaryRepo() timesheet.WorkdaySummaryRepository     { return summaryRepo{s} }
func (s *Store) OnCallRepo() timesheet.OnCallRepository              { return onCallRepo{s} }
func (s *Store) AlertRepo() alert.Repository                         { return alertRepo{s} }
func (s *Store) AuthorizationRepo() overtime.AuthorizationRepository { return authorizationRepo{s} }
func (s *Store) TimeBankRepo() overtime.TimeBankRepository           { return timeBankRepo{s} }

// AddEntry seeds a time entry, generating an ID when absent.
func (s *Store) AddEntry(e timesheet.TimeEntry) timesheet.TimeEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Status == "" {
		e.Status = timesheet.EntryStatusOpen
	}
	s.Entries[e.ID] = e
	return e
}

// ---------------------------------------------------------------------------
// schedule.TemplateRepository

type templateRepo struct{ *Store }

func (r templateRepo) GetByID(_ context.Context, id string, orgID string) (schedule.ScheduleTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tpl, ok := r.Templates[id]
	if !ok || tpl.OrgID != orgID {
		return schedule.ScheduleTemplate{}, schedule.ErrTemplateNotFound
	}
	return tpl, nil
}

func (r templateRepo) GetByIDs(_ context.Context, ids []string, orgID string) (map[string]schedule.ScheduleTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]schedule.ScheduleTemplate, len(ids))
	for _, id := range ids {
		if tpl, ok := r.Templates[id]; ok && tpl.OrgID == orgID {
			out[id] = tpl
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// schedule.AssignmentRepository

type assignmentRepo struct{ *Store }

func (r assignmentRepo) GetActiveCovering(_ context.Context, employeeID string, date time.Time, orgID string) ([]schedule.EmployeeScheduleAssignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []schedule.EmployeeScheduleAssignment
	for _, a := range r.Assignments {
		if a.OrgID == orgID && a.EmployeeID == employeeID && a.Active && a.Covers(date) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r assignmentRepo) GetActiveInRange(_ context.Context, employeeID string, start, end time.Time, orgID string) ([]schedule.EmployeeScheduleAssignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []schedule.EmployeeScheduleAssignment
	for _, a := range r.Assignments {
		if a.OrgID == orgID && a.EmployeeID == employeeID && a.Active &&
			calendar.Overlaps(a.StartDate, a.EndDate, start, &end) {
			out = append(out, a)
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// schedule.OverrideRepository

type overrideRepo struct{ *Store }

func (r overrideRepo) GetForDate(_ context.Context, employeeID string, date time.Time, orgID string) (*schedule.ExceptionDayOverride, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.Overrides {
		if o.OrgID == orgID && o.EmployeeID == employeeID && calendar.DateOnly(o.Date).Equal(calendar.DateOnly(date)) {
			ovr := o
			return &ovr, nil
		}
	}
	return nil, nil
}

func (r overrideRepo) GetInRange(_ context.Context, employeeID string, start, end time.Time, orgID string) ([]schedule.ExceptionDayOverride, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []schedule.ExceptionDayOverride
	for _, o := range r.Overrides {
		d := calendar.DateOnly(o.Date)
		if o.OrgID == orgID && o.EmployeeID == employeeID && !d.Before(start) && d.Before(end) {
			out = append(out, o)
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// absence.Repository

type absenceRepo struct{ *Store }

func (r absenceRepo) GetApprovedCovering(_ context.Context, employeeID string, date time.Time, orgID string) (*absence.AbsenceRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.AbsenceReqs {
		if a.OrgID == orgID && a.EmployeeID == employeeID && a.Status == "approved" && a.Covers(date) {
			req := a
			return &req, nil
		}
	}
	return nil, nil
}

func (r absenceRepo) GetApprovedInRange(_ context.Context, employeeID string, start, end time.Time, orgID string) ([]absence.AbsenceRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []absence.AbsenceRequest
	for _, a := range r.AbsenceReqs {
		if a.OrgID == orgID && a.EmployeeID == employeeID && a.Status == "approved" &&
			calendar.Overlaps(a.StartDate, a.EndDate, start, &end) {
			out = append(out, a)
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// organization.HolidayRepository

type holidayRepo struct{ *Store }

func (r holidayRepo) GetForDate(_ context.Context, orgID string, date time.Time) (*organization.Holiday, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, h := range r.Holidays {
		if h.OrgID == orgID && calendar.DateOnly(h.Date).Equal(calendar.DateOnly(date)) {
			hol := h
			return &hol, nil
		}
	}
	return nil, nil
}

func (r holidayRepo) GetInRange(_ context.Context, orgID string, start, end time.Time) ([]organization.Holiday, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []organization.Holiday
	for _, h := range r.Holidays {
		d := calendar.DateOnly(h.Date)
		if h.OrgID == orgID && !d.Before(start) && d.Before(end) {
			out = append(out, h)
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// organization.SettingsRepository

type settingsRepo struct{ *Store }

func (r settingsRepo) GetByOrgID(_ context.Context, orgID string) (organization.Settings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if cfg, ok := r.Settings[orgID]; ok {
		return cfg, nil
	}
	return organization.Settings{OrgID: orgID}, nil
}

func (r settingsRepo) ListActiveOrgIDs(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.EmployeeIDs))
	for orgID := range r.EmployeeIDs {
		ids = append(ids, orgID)
	}
	return ids, nil
}

func (r settingsRepo) ListActiveEmployeeIDs(_ context.Context, orgID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.EmployeeIDs[orgID]...), nil
}

// ---------------------------------------------------------------------------
// timesheet.TimeEntryRepository

type timeEntryRepo struct{ *Store }

func (r timeEntryRepo) GetOpenEntriesBefore(_ context.Context, orgID string, cutoff time.Time) ([]timesheet.TimeEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []timesheet.TimeEntry
	for _, e := range r.Entries {
		if e.OrgID == orgID && e.IsOpen() && e.ClockIn != nil && e.ClockIn.Before(cutoff) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r timeEntryRepo) GetForEmployeeRange(_ context.Context, employeeID string, start, end time.Time, orgID string) ([]timesheet.TimeEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []timesheet.TimeEntry
	for _, e := range r.Entries {
		d := calendar.DateOnly(e.Date)
		if e.OrgID == orgID && e.EmployeeID == employeeID && !d.Before(start) && d.Before(end) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r timeEntryRepo) Close(_ context.Context, entry timesheet.TimeEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.Entries[entry.ID]
	if !ok || existing.OrgID != entry.OrgID {
		return timesheet.ErrEntryNotFound
	}
	if !existing.IsOpen() {
		return timesheet.ErrEntryAlreadyClosed
	}
	entry.UpdatedAt = time.Now().UTC()
	r.Entries[entry.ID] = entry
	return nil
}

// ---------------------------------------------------------------------------
// timesheet.WorkdaySummaryRepository

type summaryRepo struct{ *Store }

func summaryKey(orgID, employeeID string, date time.Time) string {
	return orgID + "|" + employeeID + "|" + calendar.DateOnly(date).Format("2006-01-02")
}

func (r summaryRepo) Upsert(_ context.Context, summary timesheet.WorkdaySummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	summary.UpdatedAt = time.Now().UTC()
	r.Summaries[summaryKey(summary.OrgID, summary.EmployeeID, summary.Date)] = summary
	return nil
}

func (r summaryRepo) GetForEmployeeRange(_ context.Context, employeeID string, start, end time.Time, orgID string) ([]timesheet.WorkdaySummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []timesheet.WorkdaySummary
	for _, sm := range r.Summaries {
		d := calendar.DateOnly(sm.Date)
		if sm.OrgID == orgID && sm.EmployeeID == employeeID && !d.Before(start) && d.Before(end) {
			out = append(out, sm)
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// timesheet.OnCallRepository

type onCallRepo struct{ *Store }

func (r onCallRepo) GetUnsettledBefore(_ context.Context, orgID string, cutoff time.Time) ([]timesheet.OnCallInterval, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []timesheet.OnCallInterval
	for _, iv := range r.OnCall {
		if iv.OrgID == orgID && iv.SettledAt == nil && iv.End.Before(cutoff) {
			out = append(out, iv)
		}
	}
	return out, nil
}

func (r onCallRepo) Settle(_ context.Context, intervalID, orgID, category string, settledAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	iv, ok := r.OnCall[intervalID]
	if !ok || iv.OrgID != orgID {
		return timesheet.ErrIntervalNotFound
	}
	if iv.SettledAt != nil {
		return nil
	}
	iv.Category = category
	iv.SettledAt = &settledAt
	r.OnCall[intervalID] = iv
	return nil
}

// ---------------------------------------------------------------------------
// alert.Repository

type alertRepo struct{ *Store }

func (r alertRepo) Create(_ context.Context, a alert.Alert) (alert.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	day := calendar.DateOnly(a.Date)
	for _, existing := range r.Alerts {
		if existing.Active && existing.OrgID == a.OrgID && existing.EmployeeID == a.EmployeeID &&
			existing.Type == a.Type && calendar.DateOnly(existing.Date).Equal(day) {
			return existing, nil
		}
	}
	a.ID = uuid.NewString()
	a.Active = true
	a.CreatedAt = time.Now().UTC()
	r.Alerts = append(r.Alerts, a)
	return a, nil
}

func (r alertRepo) GetActive(_ context.Context, orgID string, limit int) ([]alert.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []alert.Alert
	for _, a := range r.Alerts {
		if a.OrgID == orgID && a.Active {
			out = append(out, a)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// overtime.AuthorizationRepository

type authorizationRepo struct{ *Store }

func (r authorizationRepo) GetForWeek(_ context.Context, employeeID string, weekStart time.Time, orgID string) (*overtime.OverworkAuthorization, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.Authorizations {
		if a.OrgID == orgID && a.EmployeeID == employeeID && calendar.DateOnly(a.WeekStart).Equal(calendar.DateOnly(weekStart)) {
			auth := a
			return &auth, nil
		}
	}
	return nil, nil
}

func (r authorizationRepo) GetPendingExpiredBefore(_ context.Context, orgID string, cutoff time.Time) ([]overtime.OverworkAuthorization, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []overtime.OverworkAuthorization
	for _, a := range r.Authorizations {
		if a.OrgID == orgID && a.Status == overtime.AuthorizationPending && a.ValidUntil.Before(cutoff) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r authorizationRepo) UpdateStatus(_ context.Context, id, orgID string, from, to overtime.AuthorizationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.Authorizations[id]
	if !ok || a.OrgID != orgID {
		return overtime.ErrAuthorizationNotFound
	}
	if a.Status != from {
		return overtime.ErrStatusConflict
	}
	a.Status = to
	a.UpdatedAt = time.Now().UTC()
	r.Authorizations[id] = a
	return nil
}

// ---------------------------------------------------------------------------
// overtime.TimeBankRepository

type timeBankRepo struct{ *Store }

func (r timeBankRepo) Accrue(_ context.Context, entry overtime.TimeBankEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.TimeBank[entry.IdempotencyKey]; ok {
		return overtime.ErrDuplicateAccrual
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.CreatedAt = time.Now().UTC()
	r.TimeBank[entry.IdempotencyKey] = entry
	return nil
}

func (r timeBankRepo) GetBalanceHours(_ context.Context, employeeID, orgID string) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := decimal.Zero
	for _, e := range r.TimeBank {
		if e.OrgID == orgID && e.EmployeeID == employeeID {
			total = total.Add(e.Hours)
		}
	}
	return total, nil
}
