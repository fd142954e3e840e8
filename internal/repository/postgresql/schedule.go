package postgresql

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/workpulse-hr/schedule-engine/internal/domain/schedule"
	"github.com/workpulse-hr/schedule-engine/internal/pkg/database"
)

type templateRepositoryImpl struct {
	db *database.DB
}

func NewTemplateRepository(db *database.DB) schedule.TemplateRepository {
	return &templateRepositoryImpl{db: db}
}

// slotDTO mirrors the JSON aggregation shape used by the pattern queries.
type slotDTO struct {
	ID       string `json:"id"`
	StartMin int    `json:"start_min"`
	EndMin   int    `json:"end_min"`
	IsBreak  bool   `json:"is_break"`
}

func slotsFromDTOs(dtos []slotDTO) []schedule.TimeSlot {
	if len(dtos) == 0 {
		return nil
	}
	slots := make([]schedule.TimeSlot, 0, len(dtos))
	for _, d := range dtos {
		slots = append(slots, schedule.TimeSlot{
			ID:       d.ID,
			StartMin: d.StartMin,
			EndMin:   d.EndMin,
			IsBreak:  d.IsBreak,
		})
	}
	return slots
}

// GetByID implements schedule.TemplateRepository.
func (r *templateRepositoryImpl) GetByID(ctx context.Context, id string, orgID string) (schedule.ScheduleTemplate, error) {
	templates, err := r.GetByIDs(ctx, []string{id}, orgID)
	if err != nil {
		return schedule.ScheduleTemplate{}, err
	}
	tpl, ok := templates[id]
	if !ok {
		return schedule.ScheduleTemplate{}, schedule.ErrTemplateNotFound
	}
	return tpl, nil
}

// GetByIDs implements schedule.TemplateRepository. Templates, their
// periods and all day patterns load in three queries regardless of how
// many ids are asked for; the range expander depends on that.
func (r *templateRepositoryImpl) GetByIDs(ctx context.Context, ids []string, orgID string) (map[string]schedule.ScheduleTemplate, error) {
	if len(ids) == 0 {
		return map[string]schedule.ScheduleTemplate{}, nil
	}
	q := GetQuerier(ctx, r.db)

	templates := make(map[string]schedule.ScheduleTemplate, len(ids))

	rows, err := q.Query(ctx, `
		SELECT id, org_id, name, schedule_type, weekly_hours,
		       COALESCE(cycle_length_days, 0), anchor_date, active, created_at, updated_at
		FROM schedule_templates
		WHERE id = ANY($1) AND org_id = $2 AND deleted_at IS NULL
	`, ids, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedule templates: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tpl schedule.ScheduleTemplate
		if err := rows.Scan(&tpl.ID, &tpl.OrgID, &tpl.Name, &tpl.Type, &tpl.WeeklyHours,
			&tpl.CycleLengthDay, &tpl.AnchorDate, &tpl.Active, &tpl.CreatedAt, &tpl.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan schedule template: %w", err)
		}
		templates[tpl.ID] = tpl
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read schedule templates: %w", err)
	}
	if len(templates) == 0 {
		return templates, nil
	}

	loaded := make([]string, 0, len(templates))
	for id := range templates {
		loaded = append(loaded, id)
	}

	periodsByTemplate, periodIndex, err := r.loadPeriods(ctx, q, loaded)
	if err != nil {
		return nil, err
	}
	if err := r.loadPatterns(ctx, q, loaded, templates, periodIndex); err != nil {
		return nil, err
	}

	for id, tpl := range templates {
		tpl.Periods = periodsByTemplate[id]
		templates[id] = tpl
	}
	return templates, nil
}

func (r *templateRepositoryImpl) loadPeriods(ctx context.Context, q database.Querier, templateIDs []string) (map[string][]schedule.SchedulePeriod, map[string]*schedule.SchedulePeriod, error) {
	rows, err := q.Query(ctx, `
		SELECT id, template_id, period_type, start_date, end_date, weekly_hours, created_at
		FROM schedule_periods
		WHERE template_id = ANY($1)
		ORDER BY template_id, start_date
	`, templateIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query schedule periods: %w", err)
	}
	defer rows.Close()

	byTemplate := make(map[string][]schedule.SchedulePeriod)
	for rows.Next() {
		var p schedule.SchedulePeriod
		if err := rows.Scan(&p.ID, &p.TemplateID, &p.Type, &p.StartDate, &p.EndDate, &p.WeeklyHours, &p.CreatedAt); err != nil {
			return nil, nil, fmt.Errorf("failed to scan schedule period: %w", err)
		}
		byTemplate[p.TemplateID] = append(byTemplate[p.TemplateID], p)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read schedule periods: %w", err)
	}

	index := make(map[string]*schedule.SchedulePeriod)
	for templateID, periods := range byTemplate {
		for i := range periods {
			index[periods[i].ID] = &byTemplate[templateID][i]
		}
	}
	return byTemplate, index, nil
}

// loadPatterns attaches day patterns (with their slots aggregated as
// JSON) either to a period or, when period_id is NULL, to the template's
// base layer.
func (r *templateRepositoryImpl) loadPatterns(ctx context.Context, q database.Querier, templateIDs []string, templates map[string]schedule.ScheduleTemplate, periods map[string]*schedule.SchedulePeriod) error {
	rows, err := q.Query(ctx, `
		SELECT p.id, p.template_id, p.period_id, p.day_index, p.is_working_day,
		       COALESCE(
		           (
		               SELECT json_agg(json_build_object(
		                   'id', s.id,
		                   'start_min', s.start_min,
		                   'end_min', s.end_min,
		                   'is_break', s.is_break
		               ) ORDER BY s.start_min)
		               FROM time_slots s
		               WHERE s.pattern_id = p.id
		           ),
		           '[]'::json
		       ) AS slots
		FROM work_day_patterns p
		WHERE p.template_id = ANY($1)
		ORDER BY p.template_id, p.day_index
	`, templateIDs)
	if err != nil {
		return fmt.Errorf("failed to query day patterns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			pattern    schedule.WorkDayPattern
			templateID string
			periodID   *string
			slotsJSON  []byte
		)
		if err := rows.Scan(&pattern.ID, &templateID, &periodID, &pattern.DayIndex, &pattern.IsWorkingDay, &slotsJSON); err != nil {
			return fmt.Errorf("failed to scan day pattern: %w", err)
		}
		var dtos []slotDTO
		if err := json.Unmarshal(slotsJSON, &dtos); err != nil {
			return fmt.Errorf("failed to parse slots for pattern %s: %w", pattern.ID, err)
		}
		pattern.Slots = slotsFromDTOs(dtos)

		if periodID != nil {
			if p, ok := periods[*periodID]; ok {
				p.Patterns = append(p.Patterns, pattern)
			}
			continue
		}
		tpl, ok := templates[templateID]
		if !ok {
			continue
		}
		tpl.DefaultPatterns = append(tpl.DefaultPatterns, pattern)
		templates[templateID] = tpl
	}
	return rows.Err()
}

type assignmentRepositoryImpl struct {
	db *database.DB
}

func NewAssignmentRepository(db *database.DB) schedule.AssignmentRepository {
	return &assignmentRepositoryImpl{db: db}
}

const assignmentColumns = `id, org_id, employee_id, template_id, start_date, end_date, active, created_at, updated_at`

func scanAssignments(rows pgx.Rows) ([]schedule.EmployeeScheduleAssignment, error) {
	defer rows.Close()
	var out []schedule.EmployeeScheduleAssignment
	for rows.Next() {
		var a schedule.EmployeeScheduleAssignment
		if err := rows.Scan(&a.ID, &a.OrgID, &a.EmployeeID, &a.TemplateID,
			&a.StartDate, &a.EndDate, &a.Active, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetActiveCovering implements schedule.AssignmentRepository.
func (r *assignmentRepositoryImpl) GetActiveCovering(ctx context.Context, employeeID string, date time.Time, orgID string) ([]schedule.EmployeeScheduleAssignment, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT `+assignmentColumns+`
		FROM employee_schedule_assignments
		WHERE org_id = $1 AND employee_id = $2 AND active
		  AND start_date <= $3::date
		  AND (end_date IS NULL OR end_date > $3::date)
	`, orgID, employeeID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	return scanAssignments(rows)
}

// GetActiveInRange implements schedule.AssignmentRepository.
func (r *assignmentRepositoryImpl) GetActiveInRange(ctx context.Context, employeeID string, start, end time.Time, orgID string) ([]schedule.EmployeeScheduleAssignment, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT `+assignmentColumns+`
		FROM employee_schedule_assignments
		WHERE org_id = $1 AND employee_id = $2 AND active
		  AND start_date < $4::date
		  AND (end_date IS NULL OR end_date > $3::date)
	`, orgID, employeeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments in range: %w", err)
	}
	return scanAssignments(rows)
}

type overrideRepositoryImpl struct {
	db *database.DB
}

func NewOverrideRepository(db *database.DB) schedule.OverrideRepository {
	return &overrideRepositoryImpl{db: db}
}

const overrideSelect = `
	SELECT o.id, o.org_id, o.employee_id, o.date, o.is_working_day, o.reason, o.created_at,
	       COALESCE(
	           (
	               SELECT json_agg(json_build_object(
	                   'id', s.id,
	                   'start_min', s.start_min,
	                   'end_min', s.end_min,
	                   'is_break', s.is_break
	               ) ORDER BY s.start_min)
	               FROM override_time_slots s
	               WHERE s.override_id = o.id
	           ),
	           '[]'::json
	       ) AS slots
	FROM exception_day_overrides o
`

func scanOverride(row pgx.Row) (schedule.ExceptionDayOverride, error) {
	var (
		o         schedule.ExceptionDayOverride
		slotsJSON []byte
	)
	err := row.Scan(&o.ID, &o.OrgID, &o.EmployeeID, &o.Date, &o.IsWorkingDay, &o.Reason, &o.CreatedAt, &slotsJSON)
	if err != nil {
		return o, err
	}
	var dtos []slotDTO
	if err := json.Unmarshal(slotsJSON, &dtos); err != nil {
		return o, fmt.Errorf("failed to parse override slots: %w", err)
	}
	o.Slots = slotsFromDTOs(dtos)
	return o, nil
}

// GetForDate implements schedule.OverrideRepository.
func (r *overrideRepositoryImpl) GetForDate(ctx context.Context, employeeID string, date time.Time, orgID string) (*schedule.ExceptionDayOverride, error) {
	q := GetQuerier(ctx, r.db)

	row := q.QueryRow(ctx, overrideSelect+`
		WHERE o.org_id = $1 AND o.employee_id = $2 AND o.date = $3::date
	`, orgID, employeeID, date)

	o, err := scanOverride(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get override: %w", err)
	}
	return &o, nil
}

// GetInRange implements schedule.OverrideRepository.
func (r *overrideRepositoryImpl) GetInRange(ctx context.Context, employeeID string, start, end time.Time, orgID string) ([]schedule.ExceptionDayOverride, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, overrideSelect+`
		WHERE o.org_id = $1 AND o.employee_id = $2
		  AND o.date >= $3::date AND o.date < $4::date
		ORDER BY o.date
	`, orgID, employeeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query overrides in range: %w", err)
	}
	defer rows.Close()

	var out []schedule.ExceptionDayOverride
	for rows.Next() {
		o, err := scanOverride(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
