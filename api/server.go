/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:        Request logging
  2. Recoverer:     Panic recovery (500 instead of crash)
  3. RequestID:     Unique ID per request for tracing
  4. CORS:          Cross-origin requests for frontend
  5. Authenticator: JWT bearer auth (everything except login)

ROUTE GROUPS:
  /api/auth/*           Login and principal lookup
  /api/vacation/*       Employee self-service (employee role)
  /api/manager/*        Approval workflow (manager role)
  /api/hr/*             Company-wide views and export (HR role)
  /api/notifications/*  Any authenticated user
  /api/admin/*          Manual reminder sweep (HR role)

SEE ALSO:
  - handlers.go: Handler implementations
  - auth.go: Authentication middleware
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/warp/vacation-engine/vacation"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, corsOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", h.Login)

		// Everything below requires a valid token.
		r.Group(func(r chi.Router) {
			r.Use(h.Authenticator)

			r.Get("/auth/me", h.Me)
			r.Post("/auth/profile", h.UpdateProfile)

			// Employee self-service
			r.Route("/vacation", func(r chi.Router) {
				r.Use(RequireRole(vacation.RoleEmployee))
				r.Get("/balance", h.GetBalance)
				r.Get("/requests", h.ListOwnRequests)
				r.Post("/requests", h.CreateRequest)
				r.Post("/requests/{id}/edit", h.EditRequest)
				r.Post("/requests/{id}/confirm", h.ConfirmRequest)
			})

			// Manager approval workflow
			r.Route("/manager", func(r chi.Router) {
				r.Use(RequireRole(vacation.RoleManager))
				r.Get("/requests", h.ListTeamRequests)
				r.Post("/requests/{id}/approve", h.ApproveRequest)
				r.Post("/requests/{id}/reject", h.RejectRequest)
			})

			// HR views
			r.Route("/hr", func(r chi.Router) {
				r.Use(RequireRole(vacation.RoleHR))
				r.Get("/requests", h.ListAllRequests)
				r.Get("/schedule", h.GetSchedule)
				r.Get("/export", h.ExportApprovedRequests)
			})

			// Notifications (all roles)
			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", h.ListNotifications)
				r.Get("/unread-count", h.UnreadCount)
				r.Post("/{id}/read", h.MarkNotificationRead)
			})

			// Admin operations
			r.Route("/admin", func(r chi.Router) {
				r.Use(RequireRole(vacation.RoleHR))
				r.Post("/reminders/run", h.RunReminderSweep)
			})
		})
	})

	return r
}
