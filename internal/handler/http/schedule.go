package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"

	"github.com/workpulse-hr/schedule-engine/internal/domain/schedule"
	"github.com/workpulse-hr/schedule-engine/internal/handler/http/response"
	"github.com/workpulse-hr/schedule-engine/internal/pkg/calendar"
	"github.com/workpulse-hr/schedule-engine/internal/pkg/validator"
	"github.com/workpulse-hr/schedule-engine/internal/service/resolver"
)

type ScheduleHandler interface {
	GetEffectiveSchedule(w http.ResponseWriter, r *http.Request)
	GetScheduleRange(w http.ResponseWriter, r *http.Request)
}

type scheduleHandlerImpl struct {
	resolver *resolver.Service
}

func NewScheduleHandler(res *resolver.Service) ScheduleHandler {
	return &scheduleHandlerImpl{resolver: res}
}

// orgIDFromClaims pulls the caller's organization out of the verified
// token. Every read is scoped to it; there is no cross-tenant access.
func orgIDFromClaims(r *http.Request) (string, bool) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return "", false
	}
	orgID, ok := claims["org_id"].(string)
	return orgID, ok && orgID != ""
}

type timeSlotDTO struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	IsBreak bool   `json:"is_break"`
}

type effectiveScheduleDTO struct {
	Date          string        `json:"date"`
	IsWorkingDay  bool          `json:"is_working_day"`
	IsHoliday     bool          `json:"is_holiday"`
	HolidayName   *string       `json:"holiday_name,omitempty"`
	HoursExpected string        `json:"hours_expected"`
	Entry         *string       `json:"entry,omitempty"`
	Exit          *string       `json:"exit,omitempty"`
	BreakStart    *string       `json:"break_start,omitempty"`
	BreakEnd      *string       `json:"break_end,omitempty"`
	Slots         []timeSlotDTO `json:"slots,omitempty"`
	PeriodType    string        `json:"period_type,omitempty"`
	SourceLayer   string        `json:"source_layer"`
}

func formatMinutePtr(min *int) *string {
	if min == nil {
		return nil
	}
	s := calendar.FormatMinute(*min)
	return &s
}

func toScheduleDTO(es schedule.EffectiveSchedule) effectiveScheduleDTO {
	dto := effectiveScheduleDTO{
		Date:          es.Date.Format(time.DateOnly),
		IsWorkingDay:  es.IsWorkingDay,
		IsHoliday:     es.IsHoliday,
		HolidayName:   es.HolidayName,
		HoursExpected: es.HoursExpected.String(),
		Entry:         formatMinutePtr(es.EntryMin),
		Exit:          formatMinutePtr(es.ExitMin),
		BreakStart:    formatMinutePtr(es.BreakStartMin),
		BreakEnd:      formatMinutePtr(es.BreakEndMin),
		PeriodType:    string(es.PeriodType),
		SourceLayer:   es.SourceLayer,
	}
	for _, s := range es.Slots {
		dto.Slots = append(dto.Slots, timeSlotDTO{
			Start:   calendar.FormatMinute(s.StartMin),
			End:     calendar.FormatMinute(s.EndMin),
			IsBreak: s.IsBreak,
		})
	}
	return dto
}

// GetEffectiveSchedule implements ScheduleHandler.
func (h *scheduleHandlerImpl) GetEffectiveSchedule(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgIDFromClaims(r)
	if !ok {
		response.Unauthorized(w, "Missing organization claim")
		return
	}
	employeeID := chi.URLParam(r, "employeeID")

	dateParam := r.URL.Query().Get("date")
	if !validator.IsValidDate(dateParam) {
		response.BadRequest(w, "date must be YYYY-MM-DD", nil)
		return
	}
	date, _ := calendar.ParseDate(dateParam)

	es, err := h.resolver.Resolve(r.Context(), employeeID, date, orgID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, toScheduleDTO(es))
}

// GetScheduleRange implements ScheduleHandler. The range is [start, end)
// and bounded to keep one request from expanding months of schedule.
func (h *scheduleHandlerImpl) GetScheduleRange(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgIDFromClaims(r)
	if !ok {
		response.Unauthorized(w, "Missing organization claim")
		return
	}
	employeeID := chi.URLParam(r, "employeeID")

	var validationErrs validator.ValidationErrors
	startParam := r.URL.Query().Get("start")
	endParam := r.URL.Query().Get("end")
	if !validator.IsValidDate(startParam) {
		validationErrs = append(validationErrs, validator.ValidationError{Field: "start", Message: "must be YYYY-MM-DD"})
	}
	if !validator.IsValidDate(endParam) {
		validationErrs = append(validationErrs, validator.ValidationError{Field: "end", Message: "must be YYYY-MM-DD"})
	}
	if len(validationErrs) > 0 {
		response.HandleError(w, validationErrs)
		return
	}

	start, _ := calendar.ParseDate(startParam)
	end, _ := calendar.ParseDate(endParam)
	if days := calendar.DaysBetween(start, end); days < 0 || days > 92 {
		response.BadRequest(w, "range must cover between 0 and 92 days", nil)
		return
	}

	week, err := h.resolver.ResolveRange(r.Context(), employeeID, start, end, orgID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	dtos := make([]effectiveScheduleDTO, 0, len(week))
	for _, es := range week {
		dtos = append(dtos, toScheduleDTO(es))
	}
	response.Success(w, dtos)
}
