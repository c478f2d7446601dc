package app

import (
	"fmt"
	"net/http"
	"snoozer/internal/app/deps"
	"snoozer/internal/app/services"
	"snoozer/internal/http/handlers/auth"
	"snoozer/internal/http/handlers/events"
	"snoozer/internal/http/handlers/exec"
	"snoozer/internal/http/handlers/health"
	cancelreminder "snoozer/internal/http/handlers/reminders/cancel_reminder"
	createreminder "snoozer/internal/http/handlers/reminders/create_reminder"
	listownerreminders "snoozer/internal/http/handlers/reminders/list_owner_reminders"
	reschedulereminder "snoozer/internal/http/handlers/reminders/reschedule_reminder"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func InitHttpServer(deps *deps.Deps, s *services.Services) *http.Server {
	reminderRouter := chi.NewRouter()
	reminderRouter.Use(auth.RequireAPIToken(deps.Config.APIToken))
	reminderRouter.Method(http.MethodPost, "/", createreminder.New(s.CreateReminder))
	reminderRouter.Method(http.MethodGet, "/", listownerreminders.New(s.ListOwnerReminders))
	reminderRouter.Method(http.MethodPatch, "/{reminderID:[0-9]+}", reschedulereminder.New(s.RescheduleReminder))
	reminderRouter.Method(http.MethodDelete, "/{reminderID:[0-9]+}", cancelreminder.New(s.CancelReminder))

	router := chi.NewRouter()
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))
	router.Method(http.MethodGet, "/exec", exec.New(deps.Logger, s.ExecuteAction, deps.Now))
	router.Method(http.MethodGet, "/events", events.New(deps.Logger, deps.SseServer, deps.StreamTokens))
	router.Method(http.MethodGet, "/healthz", health.New(deps.Logger, map[string]health.Check{
		"storage": deps.PingStorage,
		"redis":   deps.PingRedis,
	}))
	router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Metrics.Registry(), promhttp.HandlerOpts{}))
	router.Mount("/api/reminders", reminderRouter)

	address := fmt.Sprintf("0.0.0.0:%d", deps.Config.Port)

	return &http.Server{
		Handler: router,
		Addr:    address,
	}
}
