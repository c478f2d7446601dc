package cancelreminder

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"snoozer/internal/core/domain/reminder"
	service "snoozer/internal/core/services/cancel_reminder"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

type stubService struct {
	err   error
	input *service.Input
}

func (s *stubService) Run(ctx context.Context, input service.Input) (result service.Result, err error) {
	s.input = &input
	if s.err != nil {
		return result, s.err
	}
	result.Reminder = reminder.Reminder{ID: input.ReminderID, Status: reminder.StatusCancelled}
	return result, nil
}

func TestCancelReminderHandler(t *testing.T) {
	cases := []struct {
		name           string
		reminderID     string
		serviceErr     error
		expectedStatus int
	}{
		{name: "cancelled", reminderID: "3", expectedStatus: http.StatusOK},
		{name: "invalid id", reminderID: "x", expectedStatus: http.StatusBadRequest},
		{name: "not found", reminderID: "3", serviceErr: reminder.ErrReminderDoesNotExist, expectedStatus: http.StatusNotFound},
		{
			name:           "already fired",
			reminderID:     "3",
			serviceErr:     reminder.ErrReminderNotActive,
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{name: "store failure", reminderID: "3", serviceErr: errors.New("eof"), expectedStatus: http.StatusInternalServerError},
	}

	for _, testcase := range cases {
		t.Run(testcase.name, func(t *testing.T) {
			// Setup ---
			req := httptest.NewRequest(http.MethodDelete, "/api/reminders/"+testcase.reminderID, nil)
			routeContext := chi.NewRouteContext()
			routeContext.URLParams.Add("reminderID", testcase.reminderID)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeContext))
			rr := httptest.NewRecorder()
			stub := &stubService{err: testcase.serviceErr}

			// Exercise ---
			New(stub).ServeHTTP(rr, req)

			// Verify ---
			assert.Equal(t, testcase.expectedStatus, rr.Code)
			if testcase.expectedStatus != http.StatusBadRequest {
				assert.Equal(t, reminder.ID(3), stub.input.ReminderID)
			}
		})
	}
}
