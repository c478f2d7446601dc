package exec

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"snoozer/internal/core/domain/action"
	e "snoozer/internal/core/domain/errors"
	"snoozer/internal/core/domain/logging"
	"snoozer/internal/core/domain/owner"
	"snoozer/internal/core/domain/reminder"
	"snoozer/internal/core/services"
	service "snoozer/internal/core/services/execute_action"
	"time"

	"github.com/dustin/go-humanize"
)

const (
	MAX_PARAM_LEN = 1024
	dateLayout    = "Mon, 02 Jan 2006 15:04 MST"
)

const invalidLinkMessage = "This link is invalid or has expired."

var page = template.Must(template.New("exec").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Snoozer</title></head>
<body style="font-family: sans-serif">
<h1>{{ .Title }}</h1>
<p>{{ .Message }}</p>
</body></html>
`))

type view struct {
	Title   string
	Message string
}

// Handler applies action links. Token failures render the same generic
// page as unknown ids.
type Handler struct {
	log     logging.Logger
	service services.Service[service.Input, service.Result]
	now     func() time.Time
}

func New(
	log logging.Logger,
	service services.Service[service.Input, service.Result],
	now func() time.Time,
) *Handler {
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	if service == nil {
		panic(e.NewNilArgumentError("service"))
	}
	if now == nil {
		panic(e.NewNilArgumentError("now"))
	}
	return &Handler{log: log, service: service, now: now}
}

func (h *Handler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	input := service.Input{
		ID:         query.Get("id"),
		Action:     query.Get("action"),
		Expression: query.Get("t"),
		Token:      query.Get("token"),
	}
	if len(input.ID) > MAX_PARAM_LEN || len(input.Expression) > MAX_PARAM_LEN || len(input.Token) > MAX_PARAM_LEN {
		h.render(rw, r, http.StatusBadRequest, view{Title: "Invalid link", Message: invalidLinkMessage})
		return
	}

	result, err := h.service.Run(r.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, action.ErrParseAction):
			h.render(rw, r, http.StatusBadRequest, view{Title: "Invalid link", Message: invalidLinkMessage})
		case errors.Is(err, action.ErrInvalidToken):
			h.render(rw, r, http.StatusForbidden, view{Title: "Invalid link", Message: invalidLinkMessage})
		case errors.Is(err, reminder.ErrReminderDoesNotExist), errors.Is(err, owner.ErrOwnerDoesNotExist):
			h.render(rw, r, http.StatusNotFound, view{Title: "Invalid link", Message: invalidLinkMessage})
		case errors.Is(err, reminder.ErrReminderNotActive):
			h.render(rw, r, http.StatusConflict, view{
				Title:   "Already processed",
				Message: "This reminder has already been sent or cancelled.",
			})
		case errors.Is(err, reminder.ErrParseExpression):
			h.render(rw, r, http.StatusBadRequest, view{
				Title:   "Unrecognized time",
				Message: fmt.Sprintf("We could not understand %q.", input.Expression),
			})
		default:
			logging.Error(r.Context(), h.log, err, logging.Entry("action", input.Action))
			h.render(rw, r, http.StatusInternalServerError, view{
				Title:   "Something went wrong",
				Message: "Please try again later.",
			})
		}
		return
	}

	h.render(rw, r, http.StatusOK, h.successView(result))
}

func (h *Handler) successView(result service.Result) view {
	switch result.Action {
	case action.ActionSnooze:
		msg := "Your reminder has been snoozed."
		if result.Clone.DueAt.IsPresent {
			due := result.Clone.DueAt.Value
			msg = fmt.Sprintf(
				"Your reminder will come back %s (%s).",
				due.In(result.Owner.Location()).Format(dateLayout),
				humanize.RelTime(due, h.now(), "ago", "from now"),
			)
		}
		return view{Title: "Snoozed", Message: msg}
	case action.ActionCancel:
		return view{Title: "Cancelled", Message: fmt.Sprintf("%q will not be sent.", result.Reminder.DisplaySubject())}
	default:
		return view{Title: "Verified", Message: fmt.Sprintf("%s has been verified.", result.Owner.Address)}
	}
}

func (h *Handler) render(rw http.ResponseWriter, r *http.Request, status int, v view) {
	rw.Header().Set("Content-Type", "text/html; charset=utf-8")
	rw.Header().Set("Cache-Control", "no-store")
	rw.WriteHeader(status)
	if err := page.Execute(rw, v); err != nil {
		h.log.Error(r.Context(), "Could not render page.", logging.Entry("err", err))
	}
}
