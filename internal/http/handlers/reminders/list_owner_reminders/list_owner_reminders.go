package listownerreminders

import (
	"net/http"
	c "snoozer/internal/core/domain/common"
	e "snoozer/internal/core/domain/errors"
	"snoozer/internal/core/domain/reminder"
	"snoozer/internal/core/services"
	service "snoozer/internal/core/services/list_owner_reminders"
	"snoozer/internal/http/handlers/response"
)

type Handler struct {
	service services.Service[service.Input, service.Result]
}

func New(
	service services.Service[service.Input, service.Result],
) *Handler {
	if service == nil {
		panic(e.NewNilArgumentError("service"))
	}
	return &Handler{service: service}
}

type Result struct {
	Reminders []response.Reminder `json:"reminders"`
}

func (h *Handler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	owner := c.NewEmail(r.URL.Query().Get("owner"))
	if !owner.IsValid() {
		response.RenderError(rw, "invalid owner query parameter", http.StatusBadRequest)
		return
	}

	var status reminder.Status
	if rawStatus := r.URL.Query().Get("status"); rawStatus != "" {
		parsed, err := reminder.ParseStatus(rawStatus)
		if err != nil {
			response.RenderError(rw, "invalid status query parameter", http.StatusBadRequest)
			return
		}
		status = parsed
	}

	result, err := h.service.Run(r.Context(), service.Input{Owner: owner, Status: status})
	if err != nil {
		response.RenderInternalError(rw)
		return
	}

	response.Render(rw, Result{Reminders: response.NewReminders(result.Reminders)}, http.StatusOK)
}
