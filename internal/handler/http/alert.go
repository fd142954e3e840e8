package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/workpulse-hr/schedule-engine/internal/domain/alert"
	"github.com/workpulse-hr/schedule-engine/internal/handler/http/response"
)

type AlertHandler interface {
	GetActiveAlerts(w http.ResponseWriter, r *http.Request)
}

type alertHandlerImpl struct {
	alerts alert.Repository
}

func NewAlertHandler(alerts alert.Repository) AlertHandler {
	return &alertHandlerImpl{alerts: alerts}
}

type alertDTO struct {
	ID         string            `json:"id"`
	EmployeeID string            `json:"employee_id"`
	Type       string            `json:"type"`
	Severity   string            `json:"severity"`
	Date       string            `json:"date"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// GetActiveAlerts implements AlertHandler.
func (h *alertHandlerImpl) GetActiveAlerts(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgIDFromClaims(r)
	if !ok {
		response.Unauthorized(w, "Missing organization claim")
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			response.BadRequest(w, "limit must be between 1 and 500", nil)
			return
		}
		limit = parsed
	}

	alerts, err := h.alerts.GetActive(r.Context(), orgID, limit)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	dtos := make([]alertDTO, 0, len(alerts))
	for _, a := range alerts {
		dtos = append(dtos, alertDTO{
			ID:         a.ID,
			EmployeeID: a.EmployeeID,
			Type:       string(a.Type),
			Severity:   string(a.Severity),
			Date:       a.Date.Format(time.DateOnly),
			Metadata:   a.Metadata,
			CreatedAt:  a.CreatedAt,
		})
	}
	response.Success(w, dtos)
}
