package createreminder

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	c "snoozer/internal/core/domain/common"
	e "snoozer/internal/core/domain/errors"
	"snoozer/internal/core/domain/reminder"
	"snoozer/internal/core/services"
	service "snoozer/internal/core/services/create_reminder"
	"snoozer/internal/http/handlers/response"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
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

type Input struct {
	Owner      string `json:"owner"`
	Subject    string `json:"subject"`
	Expression string `json:"expression"`
	Notes      string `json:"notes"`
}

type Result struct {
	Reminder response.Reminder `json:"reminder"`
}

func (i *Input) FromJSON(r io.Reader) error {
	e := json.NewDecoder(r)
	return e.Decode(i)
}

func (i Input) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Owner, validation.Required, is.Email),
		validation.Field(&i.Subject, validation.Length(0, reminder.MAX_SUBJECT_LEN)),
		validation.Field(&i.Expression, validation.Length(0, 64)),
		validation.Field(&i.Notes, validation.Length(0, reminder.MAX_NOTES_LEN)),
	)
}

func (h *Handler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	input := Input{}
	if err := input.FromJSON(r.Body); err != nil {
		response.RenderError(rw, "invalid request data", http.StatusBadRequest)
		return
	}
	if err := input.Validate(); err != nil {
		response.Render(rw, err, http.StatusBadRequest)
		return
	}

	result, err := h.service.Run(
		r.Context(),
		service.Input{
			Owner:      c.NewEmail(input.Owner),
			Subject:    input.Subject,
			Expression: input.Expression,
			Notes:      input.Notes,
		},
	)
	if err != nil {
		switch {
		case isExpectedError(err):
			response.RenderError(rw, err.Error(), http.StatusUnprocessableEntity)
		default:
			response.RenderInternalError(rw)
		}
		return
	}

	rem := response.Reminder{}
	rem.FromDomainType(result.Reminder)
	response.Render(rw, Result{Reminder: rem}, http.StatusCreated)
}

func isExpectedError(err error) bool {
	return (errors.Is(err, reminder.ErrParseExpression) ||
		errors.Is(err, reminder.ErrInvalidSubject) ||
		errors.Is(err, service.ErrInvalidOwner) ||
		errors.Is(err, service.ErrNotesTooLong))
}
