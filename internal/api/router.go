package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinic-assistant/internal/auth"
	"github.com/clinicdesk/clinic-assistant/internal/chat"
	"github.com/clinicdesk/clinic-assistant/internal/directory"
	"github.com/clinicdesk/clinic-assistant/internal/scheduling"
)

type RouterConfig struct {
	Scheduling *scheduling.Service
	Directory  directory.Repository
	Clinic     *directory.ClinicStore
	Chat       *chat.Service
	Verifier   *auth.Verifier
	Pool       *pgxpool.Pool
	Redis      *redis.Client
	Logger     zerolog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	validate := validator.New()

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health/live", livenessHandler())
	r.Get("/health/ready", readinessHandler(cfg.Pool, cfg.Redis))

	r.Route("/api", func(r chi.Router) {
		// Public directory endpoints.
		r.Get("/doctors", listDoctorsHandler(cfg.Directory))
		r.Get("/clinic/info", clinicInfoHandler(cfg.Clinic))
		r.Get("/appointments/availability", availabilityHandler(cfg.Scheduling))

		// Patient-only operations.
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(cfg.Verifier))
			r.Use(RequireRole(auth.RolePatient))

			r.Post("/appointments/schedule", scheduleAppointmentHandler(cfg.Scheduling, validate))
			r.Get("/appointments", listMyAppointmentsHandler(cfg.Scheduling))
			r.Post("/chat/message", chatMessageHandler(cfg.Chat, validate))
			r.Get("/chat/history/{sessionID}", chatHistoryHandler(cfg.Chat))
		})

		// Either role may cancel or reschedule; ownership is enforced
		// by the scheduling service.
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(cfg.Verifier))

			r.Delete("/appointments/{id}/cancel", cancelAppointmentHandler(cfg.Scheduling))
			r.Put("/appointments/{id}/reschedule", rescheduleAppointmentHandler(cfg.Scheduling, validate))
		})

		// Doctor-only schedule view.
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(cfg.Verifier))
			r.Use(RequireRole(auth.RoleDoctor))

			r.Get("/doctors/{doctorID}/appointments", doctorAppointmentsHandler(cfg.Scheduling))
		})
	})

	return r
}
