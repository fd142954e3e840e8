package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/workpulse-hr/schedule-engine/internal/handler/http/response"
	"github.com/workpulse-hr/schedule-engine/internal/pkg/calendar"
	"github.com/workpulse-hr/schedule-engine/internal/pkg/cron"
	"github.com/workpulse-hr/schedule-engine/internal/pkg/validator"
	"github.com/workpulse-hr/schedule-engine/internal/service/sweep"
)

type SweepHandler interface {
	TriggerSweep(w http.ResponseWriter, r *http.Request)
}

type sweepHandlerImpl struct {
	sweeps *sweep.Service
	fence  *cron.Fence
}

func NewSweepHandler(sweeps *sweep.Service, fence *cron.Fence) SweepHandler {
	return &sweepHandlerImpl{sweeps: sweeps, fence: fence}
}

type triggerSweepRequest struct {
	OrgID        string `json:"org_id"`
	LookbackDays int    `json:"lookback_days"`
	WeekStart    string `json:"week_start"`
}

// TriggerSweep runs one sweep job for one organization on demand. Triggers
// share the scheduler's dedup fence, so a manual run close to a scheduled
// one is acknowledged with 202 and dropped instead of executed twice.
func (h *sweepHandlerImpl) TriggerSweep(w http.ResponseWriter, r *http.Request) {
	jobType := chi.URLParam(r, "jobType")

	var req triggerSweepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	var validationErrs validator.ValidationErrors
	if req.OrgID == "" {
		validationErrs = append(validationErrs, validator.ValidationError{Field: "org_id", Message: "org_id is required"})
	}
	if req.LookbackDays < 0 {
		validationErrs = append(validationErrs, validator.ValidationError{Field: "lookback_days", Message: "lookback_days must not be negative"})
	}
	var weekStart time.Time
	if req.WeekStart != "" {
		if !validator.IsValidDate(req.WeekStart) {
			validationErrs = append(validationErrs, validator.ValidationError{Field: "week_start", Message: "must be YYYY-MM-DD"})
		} else {
			weekStart, _ = calendar.ParseDate(req.WeekStart)
		}
	}
	if len(validationErrs) > 0 {
		response.HandleError(w, validationErrs)
		return
	}

	// The weekly fence key carries the week being reconciled so a manual
	// trigger and the scheduled run of the same week dedup against each
	// other. An omitted week_start means the previous calendar week,
	// matching the scheduled run.
	discriminator := ""
	if jobType == sweep.JobWeeklyOvertime {
		if weekStart.IsZero() {
			weekStart = calendar.StartOfWeek(calendar.DateOnly(time.Now())).AddDate(0, 0, -7)
		} else {
			weekStart = calendar.StartOfWeek(weekStart)
		}
		discriminator = weekStart.Format(time.DateOnly)
	}

	var run func() (sweep.Result, error)
	switch jobType {
	case sweep.JobOpenPunchRollover:
		run = func() (sweep.Result, error) {
			return h.sweeps.ProcessOpenPunchRollover(r.Context(), req.OrgID, req.LookbackDays)
		}
	case sweep.JobSafetyClose:
		run = func() (sweep.Result, error) { return h.sweeps.ProcessSafetyClose(r.Context(), req.OrgID) }
	case sweep.JobWeeklyOvertime:
		run = func() (sweep.Result, error) { return h.sweeps.ProcessWeeklyOvertime(r.Context(), req.OrgID, weekStart) }
	case sweep.JobOnCallSettlement:
		run = func() (sweep.Result, error) { return h.sweeps.ProcessOnCallSettlement(r.Context(), req.OrgID) }
	case sweep.JobAuthorizationExpiry:
		run = func() (sweep.Result, error) { return h.sweeps.ProcessAuthorizationExpiry(r.Context(), req.OrgID) }
	default:
		response.NotFound(w, "Unknown sweep job type")
		return
	}

	if !h.fence.TryAcquire(jobType, req.OrgID, discriminator) {
		response.Accepted(w, "Sweep ran recently and was not repeated")
		return
	}

	result, err := run()
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}
