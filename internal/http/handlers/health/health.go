package health

import (
	"context"
	"net/http"
	e "snoozer/internal/core/domain/errors"
	"snoozer/internal/core/domain/logging"
	"snoozer/internal/http/handlers/response"
	"time"
)

const checkTimeout = 2 * time.Second

// Check probes one dependency.
type Check func(ctx context.Context) error

type Handler struct {
	log    logging.Logger
	checks map[string]Check
}

func New(log logging.Logger, checks map[string]Check) *Handler {
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	return &Handler{log: log, checks: checks}
}

type Result struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (h *Handler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	result := Result{Status: "ok", Checks: make(map[string]string, len(h.checks))}
	status := http.StatusOK
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.log.Warning(ctx, "Health check failed.", logging.Entry("check", name), logging.Entry("err", err))
			result.Checks[name] = err.Error()
			result.Status = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		result.Checks[name] = "ok"
	}
	response.Render(rw, result, status)
}
