package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/clinic-bookings/internal/domain"
	"github.com/diagnosis/clinic-bookings/internal/ratelimit"
	mw "github.com/diagnosis/clinic-bookings/pkg/middleware"
)

// Routes builds the API router. limiter guards the credential endpoints.
func (h *Handlers) Routes(limiter ratelimit.Limiter) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("clinic-api"))
	r.Use(mw.Logging)
	r.Use(mw.Recover)
	r.Use(mw.CORS(h.config.Server.AllowedOrigins))
	r.Use(mw.Health)
	r.Use(mw.Metrics)

	r.Route("/api", func(r chi.Router) {
		r.Get("/doctors", h.ListDoctors)
		r.Get("/services", h.ListServices)

		r.Group(func(r chi.Router) {
			r.Use(ratelimit.Middleware(limiter, "register"))
			r.Use(h.OptionalJWT)
			r.Post("/register", h.Register)
		})
		r.With(ratelimit.Middleware(limiter, "login")).Post("/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireJWT(""))

			r.Get("/me", h.Me)

			r.Post("/appointments", h.CreateAppointment)
			r.Get("/appointments/user/{userId}", h.ListUserAppointments)
			r.Get("/appointments/{id}", h.GetAppointment)
			r.Patch("/appointments/{id}", h.UpdateAppointment)

			r.Get("/users/{id}", h.GetUser)
			r.Patch("/users/{id}", h.UpdateUser)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.RequireJWT(domain.RoleAdmin))

			r.Get("/appointments", h.ListAppointments)
			r.Delete("/appointments/{id}", h.DeleteAppointment)

			r.Get("/users", h.ListUsers)
			r.Delete("/users/{id}", h.DeleteUser)
		})
	})

	return r
}
